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

// ── 床位认领业务错误 ──

var (
	ErrWindowNotOpen       = errors.New("报名窗口未开启")
	ErrBedTaken            = errors.New("床位已被认领")
	ErrAlreadyClaimed      = errors.New("你在本窗口已有认领")
	ErrClaimNotFound       = errors.New("认领记录不存在")
	ErrNotClaimOwner       = errors.New("只能操作自己的认领")
	ErrCoClaimerIneligible = errors.New("同床人不符合条件")
)

// ClaimService 床位认领业务接口
// 并发安全不依赖任何查后写：认领直接 INSERT，靠
// (window_id, bed_id) 和 (window_id, user_id) 两条唯一约束仲裁，
// 冲突后再查一次定性是"床被抢"还是"人已有认领"
type ClaimService interface {
	ClaimBed(ctx context.Context, houseID string, req *dto.ClaimBedRequest, callerID string) (*dto.ClaimResponse, error)
	ReleaseClaim(ctx context.Context, houseID, claimID, callerID string) error
	AttachCoClaimer(ctx context.Context, houseID, claimID string, req *dto.AttachCoClaimerRequest, callerID string) (*dto.ClaimResponse, error)
	ListByWindow(ctx context.Context, houseID, windowID, callerID string) ([]dto.ClaimResponse, error)
	GetMyClaim(ctx context.Context, houseID, windowID, callerID string) (*dto.ClaimResponse, error)
	ListEligibleCoClaimers(ctx context.Context, houseID, windowID, callerID string) ([]dto.UserResponse, error)

	// 入住记录联动入口
	ClaimBedForDates(ctx context.Context, houseID, bedID, userID string, checkIn, checkOut time.Time) (*model.BedClaim, error)
}

type claimService struct {
	repo   *repository.Repository
	rdb    *redis.Client
	logger *zap.Logger
}

// NewClaimService 创建 ClaimService 实例
func NewClaimService(repo *repository.Repository, rdb *redis.Client, logger *zap.Logger) ClaimService {
	return &claimService{repo: repo, rdb: rdb, logger: logger}
}

// ────────────────────── ClaimBed ──────────────────────

// ClaimBed 在 open 窗口内认领一张床
// 满员判定在认领同一事务内完成：第 K 张认领落库即关窗
func (s *claimService) ClaimBed(ctx context.Context, houseID string, req *dto.ClaimBedRequest, callerID string) (*dto.ClaimResponse, error) {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	window, err := s.repo.Window.GetByID(ctx, req.WindowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWindowNotFound
		}
		return nil, err
	}
	if window.HouseID != houseID {
		return nil, ErrWindowNotInHouse
	}
	if window.Status != model.WindowStatusOpen {
		return nil, ErrWindowNotOpen
	}

	bed, err := s.repo.Bed.GetByID(ctx, req.BedID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBedNotFound
		}
		return nil, err
	}
	if bed.HouseID != houseID {
		return nil, ErrBedNotInHouse
	}

	claim, err := s.insertClaim(ctx, window, req.BedID, callerID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, redis.LiveEvent{
		Type:     "claim_created",
		HouseID:  houseID,
		WindowID: window.WindowID,
		BedID:    req.BedID,
		UserID:   callerID,
	})

	claim.Bed = bed
	return toClaimResponse(claim), nil
}

// ────────────────────── ReleaseClaim ──────────────────────

// ReleaseClaim 释放自己的认领，同时解除引用它的 stay 的床位关联。
// 释放不会让已关闭的窗口重新开启
func (s *claimService) ReleaseClaim(ctx context.Context, houseID, claimID, callerID string) error {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return err
	}

	claim, err := s.repo.Claim.GetByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClaimNotFound
		}
		return err
	}
	if claim.HouseID != houseID {
		return ErrClaimNotFound
	}
	if claim.UserID != callerID {
		return ErrNotClaimOwner
	}

	if err := s.deleteClaim(ctx, claim); err != nil {
		return err
	}

	s.publish(ctx, redis.LiveEvent{
		Type:     "claim_released",
		HouseID:  houseID,
		WindowID: claim.WindowID,
		BedID:    claim.BedID,
		UserID:   callerID,
	})
	return nil
}

// ────────────────────── AttachCoClaimer ──────────────────────

// AttachCoClaimer 在自己的认领上附加同床人。
// 资格（对方在本窗口没有自己的认领）在写入时点由条件 UPDATE 重新校验，
// 消除"选人"与"提交"之间的竞态
func (s *claimService) AttachCoClaimer(ctx context.Context, houseID, claimID string, req *dto.AttachCoClaimerRequest, callerID string) (*dto.ClaimResponse, error) {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	claim, err := s.repo.Claim.GetByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}
	if claim.HouseID != houseID {
		return nil, ErrClaimNotFound
	}
	if claim.UserID != callerID {
		return nil, ErrNotClaimOwner
	}
	if req.CoClaimerID == callerID {
		return nil, ErrCoClaimerIneligible
	}

	// 同床人必须是 house 成员
	if _, err := s.repo.Member.GetByHouseAndUser(ctx, houseID, req.CoClaimerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCoClaimerIneligible
		}
		return nil, err
	}

	attached, err := s.repo.Claim.AttachCoClaimerIfEligible(ctx, claimID, claim.WindowID, req.CoClaimerID)
	if err != nil {
		s.logger.Error("附加同床人失败", zap.String("claim_id", claimID), zap.Error(err))
		return nil, err
	}
	if !attached {
		return nil, ErrCoClaimerIneligible
	}

	claim.CoClaimerID = &req.CoClaimerID
	return toClaimResponse(claim), nil
}

// ────────────────────── ListByWindow ──────────────────────

func (s *claimService) ListByWindow(ctx context.Context, houseID, windowID, callerID string) ([]dto.ClaimResponse, error) {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

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

	claims, err := s.repo.Claim.ListByWindow(ctx, windowID)
	if err != nil {
		s.logger.Error("列出认领失败", zap.String("window_id", windowID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ClaimResponse, 0, len(claims))
	for i := range claims {
		result = append(result, *toClaimResponse(&claims[i]))
	}
	return result, nil
}

// ────────────────────── GetMyClaim ──────────────────────

// GetMyClaim 返回 caller 在该窗口的认领，没有时返回 (nil, nil)
func (s *claimService) GetMyClaim(ctx context.Context, houseID, windowID, callerID string) (*dto.ClaimResponse, error) {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	claim, err := s.repo.Claim.GetByWindowAndUser(ctx, windowID, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toClaimResponse(claim), nil
}

// ────────────────────── ListEligibleCoClaimers ──────────────────────

// ListEligibleCoClaimers 返回可被选为同床人的成员：
// 排除在本窗口已有自己认领的人和 caller 本人。
// 这只是选人时的过滤，最终资格在写入时点由条件 UPDATE 再校验一次
func (s *claimService) ListEligibleCoClaimers(ctx context.Context, houseID, windowID, callerID string) ([]dto.UserResponse, error) {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

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

	claims, err := s.repo.Claim.ListByWindow(ctx, windowID)
	if err != nil {
		return nil, err
	}
	claimed := make(map[string]bool, len(claims))
	for i := range claims {
		claimed[claims[i].UserID] = true
	}

	members, err := s.repo.Member.ListByHouse(ctx, houseID)
	if err != nil {
		s.logger.Error("列出成员失败", zap.String("house_id", houseID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.UserResponse, 0, len(members))
	for i := range members {
		m := &members[i]
		if m.UserID == callerID || claimed[m.UserID] {
			continue
		}
		u := dto.UserResponse{ID: m.UserID}
		if m.User != nil {
			u.Name = m.User.Name
			u.Email = m.User.Email
		}
		result = append(result, u)
	}
	return result, nil
}

// ────────────────────── ClaimBedForDates ──────────────────────

// ClaimBedForDates 入住记录联动认领：日期必须命中当前 open 窗口的目标周末。
// 成员校验由调用方（StayService）完成
func (s *claimService) ClaimBedForDates(ctx context.Context, houseID, bedID, userID string, checkIn, checkOut time.Time) (*model.BedClaim, error) {
	window, err := s.repo.Window.GetActiveByHouse(ctx, houseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWindowNotOpen
		}
		return nil, err
	}
	if !window.OverlapsDates(checkIn, checkOut) {
		return nil, ErrWindowNotOpen
	}

	bed, err := s.repo.Bed.GetByID(ctx, bedID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBedNotFound
		}
		return nil, err
	}
	if bed.HouseID != houseID {
		return nil, ErrBedNotInHouse
	}

	claim, err := s.insertClaim(ctx, window, bedID, userID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, redis.LiveEvent{
		Type:     "claim_created",
		HouseID:  houseID,
		WindowID: window.WindowID,
		BedID:    bedID,
		UserID:   userID,
	})

	claim.Bed = bed
	return claim, nil
}

// ── 内部辅助方法 ──

// insertClaim 在事务内写入认领并做满员判定。
// 唯一约束冲突时查一次定性：(window, user) 已有记录 → ErrAlreadyClaimed，
// 否则是床被抢 → ErrBedTaken
func (s *claimService) insertClaim(ctx context.Context, window *model.SignupWindow, bedID, userID string) (*model.BedClaim, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	claim := &model.BedClaim{
		WindowID: window.WindowID,
		BedID:    bedID,
		HouseID:  window.HouseID,
		UserID:   userID,
	}
	claim.CreatedBy = &userID
	claim.UpdatedBy = &userID

	if err := txRepo.Claim.Create(ctx, claim); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		if errors.Is(err, pkgerrors.ErrUniqueViolation) {
			if _, lookupErr := s.repo.Claim.GetByWindowAndUser(ctx, window.WindowID, userID); lookupErr == nil {
				return nil, ErrAlreadyClaimed
			}
			return nil, ErrBedTaken
		}
		s.logger.Error("写入认领失败",
			zap.String("window_id", window.WindowID),
			zap.String("bed_id", bedID),
			zap.Error(err))
		return nil, err
	}

	// 满员自动关窗，与认领同事务提交。READ COMMITTED 下并发认领最后
	// 两张床时双方都可能数到 K-1 而不关窗；床位本身仍由唯一约束保护，
	// 满员未关的窗口可由管理员手动关窗兜底
	claimed, err := txRepo.Claim.CountByWindow(ctx, window.WindowID)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return nil, err
	}
	total, err := txRepo.Bed.CountByHouse(ctx, window.HouseID)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return nil, err
	}

	autoClosed := false
	if total > 0 && claimed >= total {
		autoClosed, err = txRepo.Window.MarkClosed(ctx, window.WindowID, "床位已全部认领", time.Now())
		if err != nil {
			if tx != nil {
				tx.Rollback()
			}
			return nil, err
		}
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交认领事务失败", zap.Error(err))
			return nil, err
		}
	}

	if autoClosed {
		s.logger.Info("窗口满员自动关闭",
			zap.String("window_id", window.WindowID),
			zap.Int64("claimed", claimed))
		s.publish(ctx, redis.LiveEvent{
			Type:     "window_closed",
			HouseID:  window.HouseID,
			WindowID: window.WindowID,
		})
	}

	return claim, nil
}

// deleteClaim 事务内删除认领并解除 stay 的床位关联
func (s *claimService) deleteClaim(ctx context.Context, claim *model.BedClaim) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	if err := txRepo.Stay.ClearClaimRef(ctx, claim.ClaimID); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("解除 stay 床位关联失败", zap.String("claim_id", claim.ClaimID), zap.Error(err))
		return err
	}
	if err := txRepo.Claim.Delete(ctx, claim.ClaimID); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("删除认领失败", zap.String("claim_id", claim.ClaimID), zap.Error(err))
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交释放事务失败", zap.Error(err))
			return err
		}
	}
	return nil
}

func (s *claimService) publish(ctx context.Context, ev redis.LiveEvent) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.PublishLiveEvent(ctx, ev); err != nil {
		s.logger.Warn("发布实时事件失败", zap.String("type", ev.Type), zap.Error(err))
	}
}

func toClaimResponse(claim *model.BedClaim) *dto.ClaimResponse {
	resp := &dto.ClaimResponse{
		ID:        claim.ClaimID,
		WindowID:  claim.WindowID,
		BedID:     claim.BedID,
		UserID:    claim.UserID,
		CreatedAt: claim.CreatedAt.Format(time.RFC3339),
	}
	if claim.CoClaimerID != nil {
		resp.CoClaimerID = *claim.CoClaimerID
	}
	if claim.StayID != nil {
		resp.StayID = *claim.StayID
	}
	if claim.Bed != nil {
		resp.BedName = claim.Bed.Name
		if claim.Bed.Room != nil {
			resp.RoomName = claim.Bed.Room.Name
		}
	}
	return resp
}
