package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"mokki/backend/internal/model"
	pkgerrors "mokki/backend/pkg/errors"
)

// HouseRepository 度假屋数据访问接口
type HouseRepository interface {
	Create(ctx context.Context, house *model.House) error
	GetByID(ctx context.Context, id string) (*model.House, error)
}

// HouseMemberRepository 成员数据访问接口
type HouseMemberRepository interface {
	Create(ctx context.Context, member *model.HouseMember) error
	GetByHouseAndUser(ctx context.Context, houseID, userID string) (*model.HouseMember, error)
	ListByHouse(ctx context.Context, houseID string) ([]model.HouseMember, error)
	UpdateRole(ctx context.Context, memberID, role, callerID string) error
}

// ── House Repository 实现 ──

type houseRepo struct {
	db *gorm.DB
}

func NewHouseRepo(db *gorm.DB) HouseRepository {
	return &houseRepo{db: db}
}

func (r *houseRepo) Create(ctx context.Context, house *model.House) error {
	return r.db.WithContext(ctx).Create(house).Error
}

func (r *houseRepo) GetByID(ctx context.Context, id string) (*model.House, error) {
	var house model.House
	err := r.db.WithContext(ctx).
		Where("house_id = ?", id).
		First(&house).Error
	if err != nil {
		return nil, err
	}
	return &house, nil
}

// ── HouseMember Repository 实现 ──

type houseMemberRepo struct {
	db *gorm.DB
}

func NewHouseMemberRepo(db *gorm.DB) HouseMemberRepository {
	return &houseMemberRepo{db: db}
}

func (r *houseMemberRepo) Create(ctx context.Context, member *model.HouseMember) error {
	err := r.db.WithContext(ctx).Create(member).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.ErrUniqueViolation
	}
	return err
}

func (r *houseMemberRepo) GetByHouseAndUser(ctx context.Context, houseID, userID string) (*model.HouseMember, error) {
	var member model.HouseMember
	err := r.db.WithContext(ctx).
		Where("house_id = ? AND user_id = ?", houseID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *houseMemberRepo) ListByHouse(ctx context.Context, houseID string) ([]model.HouseMember, error) {
	var members []model.HouseMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("house_id = ?", houseID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

func (r *houseMemberRepo) UpdateRole(ctx context.Context, memberID, role, callerID string) error {
	return r.db.WithContext(ctx).
		Model(&model.HouseMember{}).
		Where("member_id = ?", memberID).
		Updates(map[string]interface{}{
			"role":       role,
			"updated_by": callerID,
		}).Error
}
