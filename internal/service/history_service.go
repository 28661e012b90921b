package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"mokki/backend/internal/dto"
	"mokki/backend/internal/model"
	"mokki/backend/internal/repository"
)

// HistoryService 历史统计业务接口
// 统计口径：最近 N 个已关闭窗口的认领，按用户聚合。
// 同床人不计入统计（认领名额归主认领人）
type HistoryService interface {
	RecentWindows(ctx context.Context, houseID, callerID string) ([]dto.WindowHistoryEntry, error)
	Stats(ctx context.Context, houseID, callerID string) (*dto.HistoryStatsResponse, error)
}

type historyService struct {
	repo        *repository.Repository
	windowLimit int
	logger      *zap.Logger
}

// NewHistoryService 创建 HistoryService 实例
func NewHistoryService(repo *repository.Repository, windowLimit int, logger *zap.Logger) HistoryService {
	return &historyService{repo: repo, windowLimit: windowLimit, logger: logger}
}

// ────────────────────── RecentWindows ──────────────────────

// RecentWindows 返回最近已关闭的窗口及各自的认领明细，按目标周末倒序
func (s *historyService) RecentWindows(ctx context.Context, houseID, callerID string) ([]dto.WindowHistoryEntry, error) {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	windows, err := s.loadClosedWindows(ctx, houseID)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.WindowHistoryEntry, 0, len(windows))
	for i := range windows {
		w := &windows[i]
		claims := make([]dto.ClaimResponse, 0, len(w.Claims))
		for j := range w.Claims {
			claims = append(claims, *toClaimResponse(&w.Claims[j]))
		}

		entry := dto.WindowHistoryEntry{
			Window: dto.WindowResponse{
				ID:                 w.WindowID,
				HouseID:            w.HouseID,
				TargetWeekendStart: w.TargetWeekendStart.Format(dateLayout),
				TargetWeekendEnd:   w.TargetWeekendEnd().Format(dateLayout),
				OpensAt:            w.OpensAt.Format(time.RFC3339),
				Status:             w.Status,
				CloseReason:        w.CloseReason,
				ClaimedBeds:        len(w.Claims),
			},
			Claims: claims,
		}
		if w.ClosedAt != nil {
			entry.Window.ClosedAt = w.ClosedAt.Format(time.RFC3339)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ────────────────────── Stats ──────────────────────

// Stats 按用户聚合历史认领：总次数、按房间分布、高级床位次数。
// 结果按总次数降序，同数按用户名升序
func (s *historyService) Stats(ctx context.Context, houseID, callerID string) (*dto.HistoryStatsResponse, error) {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	windows, err := s.loadClosedWindows(ctx, houseID)
	if err != nil {
		return nil, err
	}

	byUser := make(map[string]*dto.UserClaimStats)
	for i := range windows {
		for j := range windows[i].Claims {
			claim := &windows[i].Claims[j]

			stat, ok := byUser[claim.UserID]
			if !ok {
				stat = &dto.UserClaimStats{
					UserID:       claim.UserID,
					ClaimsByRoom: make(map[string]int),
				}
				if claim.User != nil {
					stat.UserName = claim.User.Name
				}
				byUser[claim.UserID] = stat
			}

			stat.TotalClaims++
			if claim.Bed != nil {
				if claim.Bed.IsPremium {
					stat.PremiumClaims++
				}
				if claim.Bed.Room != nil {
					stat.ClaimsByRoom[claim.Bed.Room.Name]++
				}
			}
		}
	}

	stats := make([]dto.UserClaimStats, 0, len(byUser))
	for _, stat := range byUser {
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].TotalClaims != stats[j].TotalClaims {
			return stats[i].TotalClaims > stats[j].TotalClaims
		}
		return stats[i].UserName < stats[j].UserName
	})

	return &dto.HistoryStatsResponse{
		WindowsCounted: len(windows),
		Stats:          stats,
	}, nil
}

// ── 内部辅助方法 ──

func (s *historyService) loadClosedWindows(ctx context.Context, houseID string) ([]model.SignupWindow, error) {
	windows, err := s.repo.Window.ListClosedByHouse(ctx, houseID, s.windowLimit)
	if err != nil {
		s.logger.Error("查询历史窗口失败", zap.String("house_id", houseID), zap.Error(err))
		return nil, err
	}
	return windows, nil
}
