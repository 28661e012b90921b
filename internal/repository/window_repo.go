package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"mokki/backend/internal/model"
	pkgerrors "mokki/backend/pkg/errors"
)

// SignupWindowRepository 报名窗口数据访问接口
// 状态迁移一律用条件 UPDATE（WHERE 带当前状态），已迁移过则影响 0 行，
// 调用方据此实现幂等的 no-op 语义
type SignupWindowRepository interface {
	Create(ctx context.Context, window *model.SignupWindow) error
	GetByID(ctx context.Context, id string) (*model.SignupWindow, error)
	GetActiveByHouse(ctx context.Context, houseID string) (*model.SignupWindow, error)
	GetNextScheduledByHouse(ctx context.Context, houseID string, after time.Time) (*model.SignupWindow, error)
	ListDueScheduled(ctx context.Context, now time.Time) ([]model.SignupWindow, error)
	ListClosedByHouse(ctx context.Context, houseID string, limit int) ([]model.SignupWindow, error)
	MarkOpen(ctx context.Context, windowID string, now time.Time) (bool, error)
	MarkClosed(ctx context.Context, windowID, reason string, now time.Time) (bool, error)
}

type signupWindowRepo struct {
	db *gorm.DB
}

func NewSignupWindowRepo(db *gorm.DB) SignupWindowRepository {
	return &signupWindowRepo{db: db}
}

func (r *signupWindowRepo) Create(ctx context.Context, window *model.SignupWindow) error {
	err := r.db.WithContext(ctx).Create(window).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.ErrUniqueViolation
	}
	return err
}

func (r *signupWindowRepo) GetByID(ctx context.Context, id string) (*model.SignupWindow, error) {
	var window model.SignupWindow
	err := r.db.WithContext(ctx).
		Where("window_id = ?", id).
		First(&window).Error
	if err != nil {
		return nil, err
	}
	return &window, nil
}

// GetActiveByHouse 返回 house 当前唯一的 open 窗口
// 唯一性由部分唯一索引 uq_signup_windows_open_per_house 保证
func (r *signupWindowRepo) GetActiveByHouse(ctx context.Context, houseID string) (*model.SignupWindow, error) {
	var window model.SignupWindow
	err := r.db.WithContext(ctx).
		Where("house_id = ? AND status = ?", houseID, model.WindowStatusOpen).
		First(&window).Error
	if err != nil {
		return nil, err
	}
	return &window, nil
}

func (r *signupWindowRepo) GetNextScheduledByHouse(ctx context.Context, houseID string, after time.Time) (*model.SignupWindow, error) {
	var window model.SignupWindow
	err := r.db.WithContext(ctx).
		Where("house_id = ? AND status = ? AND target_weekend_start >= ?",
			houseID, model.WindowStatusScheduled, after).
		Order("target_weekend_start ASC").
		First(&window).Error
	if err != nil {
		return nil, err
	}
	return &window, nil
}

// ListDueScheduled 返回所有到点待开启的窗口（后台巡检用）
func (r *signupWindowRepo) ListDueScheduled(ctx context.Context, now time.Time) ([]model.SignupWindow, error) {
	var windows []model.SignupWindow
	err := r.db.WithContext(ctx).
		Where("status = ? AND opens_at <= ?", model.WindowStatusScheduled, now).
		Order("opens_at ASC").
		Find(&windows).Error
	return windows, err
}

// ListClosedByHouse 返回最近 limit 个已关闭窗口，认领带床位/房间/用户（历史统计用）
func (r *signupWindowRepo) ListClosedByHouse(ctx context.Context, houseID string, limit int) ([]model.SignupWindow, error) {
	var windows []model.SignupWindow
	err := r.db.WithContext(ctx).
		Preload("Claims").
		Preload("Claims.Bed").
		Preload("Claims.Bed.Room").
		Preload("Claims.User").
		Where("house_id = ? AND status = ?", houseID, model.WindowStatusClosed).
		Order("target_weekend_start DESC").
		Limit(limit).
		Find(&windows).Error
	return windows, err
}

// MarkOpen scheduled → open；未到点或状态不符时影响 0 行
func (r *signupWindowRepo) MarkOpen(ctx context.Context, windowID string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.SignupWindow{}).
		Where("window_id = ? AND status = ? AND opens_at <= ?",
			windowID, model.WindowStatusScheduled, now).
		Update("status", model.WindowStatusOpen)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			// 同 house 已有 open 窗口（部分唯一索引拦截）
			return false, pkgerrors.ErrUniqueViolation
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkClosed → closed 并盖戳；已关闭时影响 0 行（关闭单向，不可逆）
func (r *signupWindowRepo) MarkClosed(ctx context.Context, windowID, reason string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.SignupWindow{}).
		Where("window_id = ? AND status != ?", windowID, model.WindowStatusClosed).
		Updates(map[string]interface{}{
			"status":       model.WindowStatusClosed,
			"closed_at":    now,
			"close_reason": reason,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
