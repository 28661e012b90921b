package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User    UserRepository
	House   HouseRepository
	Member  HouseMemberRepository
	Room    RoomRepository
	Bed     BedRepository
	Window  SignupWindowRepository
	Claim   BedClaimRepository
	Stay    StayRepository
	Expense ExpenseRepository

	db *gorm.DB
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:    NewUserRepo(db),
		House:   NewHouseRepo(db),
		Member:  NewHouseMemberRepo(db),
		Room:    NewRoomRepo(db),
		Bed:     NewBedRepo(db),
		Window:  NewSignupWindowRepo(db),
		Claim:   NewBedClaimRepo(db),
		Stay:    NewStayRepo(db),
		Expense: NewExpenseRepo(db),
		db:      db,
	}
}

// BeginTx 开启事务；无底层数据库（测试场景）时返回 nil 事务
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到指定事务的 Repository；tx 为 nil 时返回自身
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}
