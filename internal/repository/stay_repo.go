package repository

import (
	"context"

	"gorm.io/gorm"

	"mokki/backend/internal/model"
)

// StayRepository 入住记录数据访问接口
type StayRepository interface {
	Create(ctx context.Context, stay *model.Stay) error
	GetByID(ctx context.Context, id string) (*model.Stay, error)
	ListByHouse(ctx context.Context, houseID string) ([]model.Stay, error)
	ListByUser(ctx context.Context, userID string) ([]model.Stay, error)
	Update(ctx context.Context, stay *model.Stay) error
	Delete(ctx context.Context, id string) error
	ClearClaimRef(ctx context.Context, claimID string) error
}

// ExpenseRepository 支出数据访问接口
type ExpenseRepository interface {
	Create(ctx context.Context, expense *model.Expense) error
	GetByID(ctx context.Context, id string) (*model.Expense, error)
	Delete(ctx context.Context, id string) error
}

// ── Stay Repository 实现 ──

type stayRepo struct {
	db *gorm.DB
}

func NewStayRepo(db *gorm.DB) StayRepository {
	return &stayRepo{db: db}
}

func (r *stayRepo) Create(ctx context.Context, stay *model.Stay) error {
	return r.db.WithContext(ctx).Create(stay).Error
}

func (r *stayRepo) GetByID(ctx context.Context, id string) (*model.Stay, error) {
	var stay model.Stay
	err := r.db.WithContext(ctx).
		Preload("BedClaim").
		Preload("Expense").
		Where("stay_id = ?", id).
		First(&stay).Error
	if err != nil {
		return nil, err
	}
	return &stay, nil
}

func (r *stayRepo) ListByHouse(ctx context.Context, houseID string) ([]model.Stay, error) {
	var stays []model.Stay
	err := r.db.WithContext(ctx).
		Preload("BedClaim").
		Where("house_id = ?", houseID).
		Order("check_in ASC").
		Find(&stays).Error
	return stays, err
}

func (r *stayRepo) ListByUser(ctx context.Context, userID string) ([]model.Stay, error) {
	var stays []model.Stay
	err := r.db.WithContext(ctx).
		Preload("BedClaim").
		Where("user_id = ? OR co_booker_id = ?", userID, userID).
		Order("check_in ASC").
		Find(&stays).Error
	return stays, err
}

func (r *stayRepo) Update(ctx context.Context, stay *model.Stay) error {
	return r.db.WithContext(ctx).
		Model(stay).
		Where("stay_id = ?", stay.StayID).
		Updates(map[string]interface{}{
			"co_booker_id": stay.CoBookerID,
			"check_in":     stay.CheckIn,
			"check_out":    stay.CheckOut,
			"guest_count":  stay.GuestCount,
			"notes":        stay.Notes,
			"expense_id":   stay.ExpenseID,
			"bed_claim_id": stay.BedClaimID,
			"updated_by":   stay.UpdatedBy,
		}).Error
}

func (r *stayRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("stay_id = ?", id).
		Delete(&model.Stay{}).Error
}

// ClearClaimRef 解除所有引用该认领的 stay 的床位关联（stay 本身保留）
func (r *stayRepo) ClearClaimRef(ctx context.Context, claimID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Stay{}).
		Where("bed_claim_id = ?", claimID).
		Update("bed_claim_id", nil).Error
}

// ── Expense Repository 实现 ──

type expenseRepo struct {
	db *gorm.DB
}

func NewExpenseRepo(db *gorm.DB) ExpenseRepository {
	return &expenseRepo{db: db}
}

func (r *expenseRepo) Create(ctx context.Context, expense *model.Expense) error {
	return r.db.WithContext(ctx).Create(expense).Error
}

func (r *expenseRepo) GetByID(ctx context.Context, id string) (*model.Expense, error) {
	var expense model.Expense
	err := r.db.WithContext(ctx).
		Where("expense_id = ?", id).
		First(&expense).Error
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("expense_id = ?", id).
		Delete(&model.Expense{}).Error
}
