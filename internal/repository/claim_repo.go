package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"mokki/backend/internal/model"
	pkgerrors "mokki/backend/pkg/errors"
)

// BedClaimRepository 床位认领数据访问接口
// Create 不做任何 check-then-act：直接写入，唯一约束冲突翻译为
// pkgerrors.ErrUniqueViolation，由业务层定性为"床被抢了"
type BedClaimRepository interface {
	Create(ctx context.Context, claim *model.BedClaim) error
	GetByID(ctx context.Context, id string) (*model.BedClaim, error)
	GetByWindowAndUser(ctx context.Context, windowID, userID string) (*model.BedClaim, error)
	GetByWindowAndBed(ctx context.Context, windowID, bedID string) (*model.BedClaim, error)
	ListByWindow(ctx context.Context, windowID string) ([]model.BedClaim, error)
	CountByWindow(ctx context.Context, windowID string) (int64, error)
	AttachCoClaimerIfEligible(ctx context.Context, claimID, windowID, coClaimerID string) (bool, error)
	UpdateStayRef(ctx context.Context, claimID string, stayID *string, callerID string) error
	UpdateCoClaimer(ctx context.Context, claimID string, coClaimerID *string, callerID string) error
	Delete(ctx context.Context, id string) error
}

type bedClaimRepo struct {
	db *gorm.DB
}

func NewBedClaimRepo(db *gorm.DB) BedClaimRepository {
	return &bedClaimRepo{db: db}
}

func (r *bedClaimRepo) Create(ctx context.Context, claim *model.BedClaim) error {
	err := r.db.WithContext(ctx).Create(claim).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.ErrUniqueViolation
	}
	return err
}

func (r *bedClaimRepo) GetByID(ctx context.Context, id string) (*model.BedClaim, error) {
	var claim model.BedClaim
	err := r.db.WithContext(ctx).
		Preload("Bed").
		Preload("Bed.Room").
		Where("claim_id = ?", id).
		First(&claim).Error
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *bedClaimRepo) GetByWindowAndUser(ctx context.Context, windowID, userID string) (*model.BedClaim, error) {
	var claim model.BedClaim
	err := r.db.WithContext(ctx).
		Preload("Bed").
		Preload("Bed.Room").
		Where("window_id = ? AND user_id = ?", windowID, userID).
		First(&claim).Error
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *bedClaimRepo) GetByWindowAndBed(ctx context.Context, windowID, bedID string) (*model.BedClaim, error) {
	var claim model.BedClaim
	err := r.db.WithContext(ctx).
		Where("window_id = ? AND bed_id = ?", windowID, bedID).
		First(&claim).Error
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *bedClaimRepo) ListByWindow(ctx context.Context, windowID string) ([]model.BedClaim, error) {
	var claims []model.BedClaim
	err := r.db.WithContext(ctx).
		Preload("Bed").
		Preload("Bed.Room").
		Preload("User").
		Preload("CoClaimer").
		Where("window_id = ?", windowID).
		Order("created_at ASC").
		Find(&claims).Error
	return claims, err
}

func (r *bedClaimRepo) CountByWindow(ctx context.Context, windowID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.BedClaim{}).
		Where("window_id = ?", windowID).
		Count(&count).Error
	return count, err
}

// AttachCoClaimerIfEligible 写入时点重新校验资格的条件更新：
// 仅当 co_claimer 在该窗口没有自己的认领时才附着，消除选择与提交之间的竞态。
// 影响 0 行即资格已失效（对方刚抢到了自己的床）
func (r *bedClaimRepo) AttachCoClaimerIfEligible(ctx context.Context, claimID, windowID, coClaimerID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.BedClaim{}).
		Where("claim_id = ?", claimID).
		Where("NOT EXISTS (SELECT 1 FROM bed_claims c WHERE c.window_id = ? AND c.user_id = ?)",
			windowID, coClaimerID).
		Update("co_claimer_id", coClaimerID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *bedClaimRepo) UpdateStayRef(ctx context.Context, claimID string, stayID *string, callerID string) error {
	return r.db.WithContext(ctx).
		Model(&model.BedClaim{}).
		Where("claim_id = ?", claimID).
		Updates(map[string]interface{}{
			"stay_id":    stayID,
			"updated_by": callerID,
		}).Error
}

func (r *bedClaimRepo) UpdateCoClaimer(ctx context.Context, claimID string, coClaimerID *string, callerID string) error {
	return r.db.WithContext(ctx).
		Model(&model.BedClaim{}).
		Where("claim_id = ?", claimID).
		Updates(map[string]interface{}{
			"co_claimer_id": coClaimerID,
			"updated_by":    callerID,
		}).Error
}

func (r *bedClaimRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("claim_id = ?", id).
		Delete(&model.BedClaim{}).Error
}
