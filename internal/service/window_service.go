package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"mokki/backend/internal/dto"
	"mokki/backend/internal/model"
	"mokki/backend/internal/repository"
	pkgerrors "mokki/backend/pkg/errors"
	"mokki/backend/pkg/redis"
)

// ── 报名窗口业务错误 ──

var (
	ErrWindowNotFound    = errors.New("报名窗口不存在")
	ErrWindowExists      = errors.New("该周末已有报名窗口")
	ErrWindowDateInvalid = errors.New("目标周末起始日必须是周五")
	ErrWindowNotInHouse  = errors.New("报名窗口不属于该度假屋")
)

const dateLayout = "2006-01-02"

// WindowService 报名窗口业务接口
// 窗口生命周期 scheduled → open → closed，closed 为终态；
// 开启由后台巡检触发（OpenDueWindows），关闭由满员自动触发或管理员手动触发
type WindowService interface {
	Create(ctx context.Context, houseID string, req *dto.CreateWindowRequest, callerID string) (*dto.WindowResponse, error)
	GetByID(ctx context.Context, houseID, windowID, callerID string) (*dto.WindowResponse, error)
	GetActive(ctx context.Context, houseID, callerID string) (*dto.WindowResponse, error)
	GetNextScheduled(ctx context.Context, houseID, callerID string) (*dto.WindowResponse, error)
	GetForDates(ctx context.Context, houseID, checkIn, checkOut, callerID string) (*dto.WindowForDatesResponse, error)
	Close(ctx context.Context, houseID, windowID, reason, callerID string) (*dto.WindowResponse, error)
	OpenDueWindows(ctx context.Context) int
}

type windowService struct {
	repo   *repository.Repository
	rdb    *redis.Client
	logger *zap.Logger
}

// NewWindowService 创建 WindowService 实例
func NewWindowService(repo *repository.Repository, rdb *redis.Client, logger *zap.Logger) WindowService {
	return &windowService{repo: repo, rdb: rdb, logger: logger}
}

// ────────────────────── Create ──────────────────────

// Create 创建报名窗口（admin）
// opens_at 允许是过去时刻：窗口仍以 scheduled 落库，下一轮巡检立即开启
func (s *windowService) Create(ctx context.Context, houseID string, req *dto.CreateWindowRequest, callerID string) (*dto.WindowResponse, error) {
	if err := requireAdmin(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	weekendStart, err := time.Parse(dateLayout, req.TargetWeekendStart)
	if err != nil {
		return nil, ErrWindowDateInvalid
	}
	if weekendStart.Weekday() != time.Friday {
		return nil, ErrWindowDateInvalid
	}

	opensAt, err := time.Parse(time.RFC3339, req.OpensAt)
	if err != nil {
		return nil, ErrWindowDateInvalid
	}

	window := &model.SignupWindow{
		HouseID:            houseID,
		TargetWeekendStart: weekendStart,
		OpensAt:            opensAt,
		Status:             model.WindowStatusScheduled,
	}
	window.CreatedBy = &callerID
	window.UpdatedBy = &callerID

	if err := s.repo.Window.Create(ctx, window); err != nil {
		if errors.Is(err, pkgerrors.ErrUniqueViolation) {
			return nil, ErrWindowExists
		}
		s.logger.Error("创建报名窗口失败", zap.String("house_id", houseID), zap.Error(err))
		return nil, err
	}

	return s.toWindowResponse(ctx, window)
}

// ────────────────────── GetByID ──────────────────────

func (s *windowService) GetByID(ctx context.Context, houseID, windowID, callerID string) (*dto.WindowResponse, error) {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	window, err := s.getHouseWindow(ctx, houseID, windowID)
	if err != nil {
		return nil, err
	}
	return s.toWindowResponse(ctx, window)
}

// ────────────────────── GetActive ──────────────────────

// GetActive 返回 house 当前 open 的窗口，没有时返回 (nil, nil)
func (s *windowService) GetActive(ctx context.Context, houseID, callerID string) (*dto.WindowResponse, error) {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	window, err := s.repo.Window.GetActiveByHouse(ctx, houseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("查询 open 窗口失败", zap.String("house_id", houseID), zap.Error(err))
		return nil, err
	}
	return s.toWindowResponse(ctx, window)
}

// ────────────────────── GetNextScheduled ──────────────────────

// GetNextScheduled 返回下一个 scheduled 窗口（按目标周末升序），没有时返回 (nil, nil)
func (s *windowService) GetNextScheduled(ctx context.Context, houseID, callerID string) (*dto.WindowResponse, error) {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	window, err := s.repo.Window.GetNextScheduledByHouse(ctx, houseID, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("查询 scheduled 窗口失败", zap.String("house_id", houseID), zap.Error(err))
		return nil, err
	}
	return s.toWindowResponse(ctx, window)
}

// ────────────────────── GetForDates ──────────────────────

// GetForDates 判断 [check_in, check_out] 是否命中当前 open 窗口的目标周末
func (s *windowService) GetForDates(ctx context.Context, houseID, checkIn, checkOut, callerID string) (*dto.WindowForDatesResponse, error) {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	in, err := time.Parse(dateLayout, checkIn)
	if err != nil {
		return nil, ErrWindowDateInvalid
	}
	out, err := time.Parse(dateLayout, checkOut)
	if err != nil {
		return nil, ErrWindowDateInvalid
	}

	window, err := s.repo.Window.GetActiveByHouse(ctx, houseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.WindowForDatesResponse{IsOpen: false}, nil
		}
		return nil, err
	}

	if !window.OverlapsDates(in, out) {
		return &dto.WindowForDatesResponse{IsOpen: false}, nil
	}

	resp, err := s.toWindowResponse(ctx, window)
	if err != nil {
		return nil, err
	}
	return &dto.WindowForDatesResponse{IsOpen: true, Window: resp}, nil
}

// ────────────────────── Close ──────────────────────

// Close 管理员手动关闭窗口。已关闭时为幂等 no-op，返回当前状态
func (s *windowService) Close(ctx context.Context, houseID, windowID, reason, callerID string) (*dto.WindowResponse, error) {
	if err := requireAdmin(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	window, err := s.getHouseWindow(ctx, houseID, windowID)
	if err != nil {
		return nil, err
	}

	if reason == "" {
		reason = "管理员手动关闭"
	}

	closed, err := s.repo.Window.MarkClosed(ctx, windowID, reason, time.Now())
	if err != nil {
		s.logger.Error("关闭报名窗口失败", zap.String("window_id", windowID), zap.Error(err))
		return nil, err
	}

	if closed {
		s.publish(ctx, redis.LiveEvent{
			Type:     "window_closed",
			HouseID:  houseID,
			WindowID: windowID,
		})
	}

	// 重新读一次拿终态字段
	window, err = s.repo.Window.GetByID(ctx, windowID)
	if err != nil {
		return nil, err
	}
	return s.toWindowResponse(ctx, window)
}

// ────────────────────── OpenDueWindows ──────────────────────

// OpenDueWindows 后台巡检入口：把所有到点的 scheduled 窗口置为 open。
// 同 house 已有 open 窗口时该条被部分唯一索引拦截，留待下轮重试。
// 返回成功开启的数量
func (s *windowService) OpenDueWindows(ctx context.Context) int {
	now := time.Now()
	due, err := s.repo.Window.ListDueScheduled(ctx, now)
	if err != nil {
		s.logger.Error("巡检待开启窗口失败", zap.Error(err))
		return 0
	}

	opened := 0
	for i := range due {
		w := &due[i]
		ok, err := s.repo.Window.MarkOpen(ctx, w.WindowID, now)
		if err != nil {
			if errors.Is(err, pkgerrors.ErrUniqueViolation) {
				s.logger.Warn("同 house 已有 open 窗口，延后开启",
					zap.String("window_id", w.WindowID),
					zap.String("house_id", w.HouseID))
				continue
			}
			s.logger.Error("开启窗口失败", zap.String("window_id", w.WindowID), zap.Error(err))
			continue
		}
		if !ok {
			continue // 已被并发巡检开启
		}

		opened++
		s.logger.Info("报名窗口已开启",
			zap.String("window_id", w.WindowID),
			zap.String("house_id", w.HouseID),
			zap.Time("target_weekend", w.TargetWeekendStart))

		s.publish(ctx, redis.LiveEvent{
			Type:     "window_opened",
			HouseID:  w.HouseID,
			WindowID: w.WindowID,
		})
	}
	return opened
}

// ── 内部辅助方法 ──

func (s *windowService) getHouseWindow(ctx context.Context, houseID, windowID string) (*model.SignupWindow, error) {
	window, err := s.repo.Window.GetByID(ctx, windowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWindowNotFound
		}
		return nil, err
	}
	if window.HouseID != houseID {
		return nil, ErrWindowNotInHouse
	}
	return window, nil
}

func (s *windowService) publish(ctx context.Context, ev redis.LiveEvent) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.PublishLiveEvent(ctx, ev); err != nil {
		s.logger.Warn("发布实时事件失败", zap.String("type", ev.Type), zap.Error(err))
	}
}

// toWindowResponse 组装窗口响应，附带认领数/床位总数
func (s *windowService) toWindowResponse(ctx context.Context, window *model.SignupWindow) (*dto.WindowResponse, error) {
	claimed, err := s.repo.Claim.CountByWindow(ctx, window.WindowID)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Bed.CountByHouse(ctx, window.HouseID)
	if err != nil {
		return nil, err
	}

	resp := &dto.WindowResponse{
		ID:                 window.WindowID,
		HouseID:            window.HouseID,
		TargetWeekendStart: window.TargetWeekendStart.Format(dateLayout),
		TargetWeekendEnd:   window.TargetWeekendEnd().Format(dateLayout),
		OpensAt:            window.OpensAt.Format(time.RFC3339),
		Status:             window.Status,
		CloseReason:        window.CloseReason,
		ClaimedBeds:        int(claimed),
		TotalBeds:          int(total),
	}
	if window.ClosedAt != nil {
		resp.ClosedAt = window.ClosedAt.Format(time.RFC3339)
	}
	return resp, nil
}
