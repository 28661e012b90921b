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
)

// ── 入住记录业务错误 ──

var (
	ErrStayNotFound    = errors.New("入住记录不存在")
	ErrNotStayOwner    = errors.New("只能操作自己的入住记录")
	ErrStayDateInvalid = errors.New("入住日期无效")
	ErrCoBookerInvalid = errors.New("同行人不是该度假屋成员")
)

// StayService 入住记录业务接口
// 入住记录可选关联一条床位认领：创建时带 bed_id 且日期命中 open 窗口
// 即顺带认领；认领失败则整个创建失败（先认领后落库，落库失败补偿释放）
type StayService interface {
	Create(ctx context.Context, houseID string, req *dto.CreateStayRequest, callerID string) (*dto.StayResponse, error)
	GetByID(ctx context.Context, houseID, stayID, callerID string) (*dto.StayResponse, error)
	ListByHouse(ctx context.Context, houseID, callerID string) ([]dto.StayResponse, error)
	ListMine(ctx context.Context, houseID, callerID string) ([]dto.StayResponse, error)
	Update(ctx context.Context, houseID, stayID string, req *dto.UpdateStayRequest, callerID string) (*dto.StayResponse, error)
	Delete(ctx context.Context, houseID, stayID, callerID string) error
}

type stayService struct {
	repo     *repository.Repository
	claimSvc ClaimService
	logger   *zap.Logger
}

// NewStayService 创建 StayService 实例
func NewStayService(repo *repository.Repository, claimSvc ClaimService, logger *zap.Logger) StayService {
	return &stayService{repo: repo, claimSvc: claimSvc, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *stayService) Create(ctx context.Context, houseID string, req *dto.CreateStayRequest, callerID string) (*dto.StayResponse, error) {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	checkIn, checkOut, err := parseStayDates(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	if req.CoBookerID != nil {
		if err := s.requireCoBooker(ctx, houseID, *req.CoBookerID, callerID); err != nil {
			return nil, err
		}
	}

	// 先认领床位：认领失败则整个创建失败
	var claim *model.BedClaim
	if req.BedID != nil {
		claim, err = s.claimSvc.ClaimBedForDates(ctx, houseID, *req.BedID, callerID, checkIn, checkOut)
		if err != nil {
			return nil, err
		}
	}

	var expenseID *string
	if req.GuestFee != nil {
		expense := &model.Expense{
			HouseID:     houseID,
			PaidBy:      callerID,
			Amount:      req.GuestFee.Amount,
			Description: req.GuestFee.Description,
			Category:    "guest_fee",
		}
		expense.CreatedBy = &callerID
		if err := s.repo.Expense.Create(ctx, expense); err != nil {
			s.compensateClaim(ctx, claim)
			s.logger.Error("创建客人费用失败", zap.Error(err))
			return nil, err
		}
		expenseID = &expense.ExpenseID
	}

	stay := &model.Stay{
		HouseID:    houseID,
		UserID:     callerID,
		CoBookerID: req.CoBookerID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		GuestCount: req.GuestCount,
		Notes:      req.Notes,
		ExpenseID:  expenseID,
	}
	if claim != nil {
		stay.BedClaimID = &claim.ClaimID
	}
	stay.CreatedBy = &callerID
	stay.UpdatedBy = &callerID

	if err := s.repo.Stay.Create(ctx, stay); err != nil {
		s.compensateClaim(ctx, claim)
		s.logger.Error("创建入住记录失败", zap.String("house_id", houseID), zap.Error(err))
		return nil, err
	}

	if claim != nil {
		s.linkClaim(ctx, claim, stay, req.CoBookerID, callerID)
	}

	return toStayResponse(stay), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *stayService) GetByID(ctx context.Context, houseID, stayID, callerID string) (*dto.StayResponse, error) {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	stay, err := s.getHouseStay(ctx, houseID, stayID)
	if err != nil {
		return nil, err
	}
	return toStayResponse(stay), nil
}

// ────────────────────── ListByHouse ──────────────────────

func (s *stayService) ListByHouse(ctx context.Context, houseID, callerID string) ([]dto.StayResponse, error) {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	stays, err := s.repo.Stay.ListByHouse(ctx, houseID)
	if err != nil {
		s.logger.Error("列出入住记录失败", zap.String("house_id", houseID), zap.Error(err))
		return nil, err
	}
	return toStayResponses(stays), nil
}

// ────────────────────── ListMine ──────────────────────

// ListMine 返回 caller 在该 house 以主人或同行人身份参与的入住记录
func (s *stayService) ListMine(ctx context.Context, houseID, callerID string) ([]dto.StayResponse, error) {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	stays, err := s.repo.Stay.ListByUser(ctx, callerID)
	if err != nil {
		s.logger.Error("列出入住记录失败", zap.String("user_id", callerID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.StayResponse, 0, len(stays))
	for i := range stays {
		if stays[i].HouseID == houseID {
			result = append(result, *toStayResponse(&stays[i]))
		}
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

// Update 更新入住记录。bed_id 变化时先释放旧认领再认领新床位；
// 新认领失败会尽力抢回旧床，但不保证成功
func (s *stayService) Update(ctx context.Context, houseID, stayID string, req *dto.UpdateStayRequest, callerID string) (*dto.StayResponse, error) {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	stay, err := s.getHouseStay(ctx, houseID, stayID)
	if err != nil {
		return nil, err
	}
	if stay.UserID != callerID {
		return nil, ErrNotStayOwner
	}

	if req.CheckIn != nil {
		in, err := time.Parse(dateLayout, *req.CheckIn)
		if err != nil {
			return nil, ErrStayDateInvalid
		}
		stay.CheckIn = in
	}
	if req.CheckOut != nil {
		out, err := time.Parse(dateLayout, *req.CheckOut)
		if err != nil {
			return nil, ErrStayDateInvalid
		}
		stay.CheckOut = out
	}
	if !stay.CheckOut.After(stay.CheckIn) {
		return nil, ErrStayDateInvalid
	}
	if req.GuestCount != nil {
		stay.GuestCount = *req.GuestCount
	}
	if req.Notes != nil {
		stay.Notes = *req.Notes
	}
	if req.RemoveCoBooker {
		stay.CoBookerID = nil
	} else if req.CoBookerID != nil {
		if err := s.requireCoBooker(ctx, houseID, *req.CoBookerID, callerID); err != nil {
			return nil, err
		}
		stay.CoBookerID = req.CoBookerID
	}

	if req.BedID != nil {
		if err := s.switchBed(ctx, houseID, stay, *req.BedID, callerID); err != nil {
			return nil, err
		}
	}

	stay.UpdatedBy = &callerID
	if err := s.repo.Stay.Update(ctx, stay); err != nil {
		s.logger.Error("更新入住记录失败", zap.String("stay_id", stayID), zap.Error(err))
		return nil, err
	}

	// 同行人变化同步到认领行（尽力而为）。换床路径由 switchBed 内部同步，
	// 此时 stay.BedClaim 已置空，不会重复走到这里
	if stay.BedClaim != nil {
		if req.RemoveCoBooker {
			if err := s.repo.Claim.UpdateCoClaimer(ctx, stay.BedClaim.ClaimID, nil, callerID); err != nil {
				s.logger.Warn("同行人移除未同步到认领",
					zap.String("stay_id", stayID),
					zap.Error(err))
			}
		} else if req.CoBookerID != nil {
			attached, err := s.repo.Claim.AttachCoClaimerIfEligible(ctx, stay.BedClaim.ClaimID, stay.BedClaim.WindowID, *req.CoBookerID)
			if err != nil || !attached {
				s.logger.Warn("同行人未同步到认领",
					zap.String("stay_id", stayID),
					zap.Error(err))
			}
		}
	}

	return toStayResponse(stay), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 删除入住记录。关联认领一并释放（床位空出），客人费用保留
func (s *stayService) Delete(ctx context.Context, houseID, stayID, callerID string) error {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return err
	}

	stay, err := s.getHouseStay(ctx, houseID, stayID)
	if err != nil {
		return err
	}
	if stay.UserID != callerID {
		return ErrNotStayOwner
	}

	if stay.BedClaimID != nil {
		if err := s.claimSvc.ReleaseClaim(ctx, houseID, *stay.BedClaimID, callerID); err != nil && !errors.Is(err, ErrClaimNotFound) {
			return err
		}
	}

	if err := s.repo.Stay.Delete(ctx, stayID); err != nil {
		s.logger.Error("删除入住记录失败", zap.String("stay_id", stayID), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *stayService) getHouseStay(ctx context.Context, houseID, stayID string) (*model.Stay, error) {
	stay, err := s.repo.Stay.GetByID(ctx, stayID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStayNotFound
		}
		return nil, err
	}
	if stay.HouseID != houseID {
		return nil, ErrStayNotFound
	}
	return stay, nil
}

func (s *stayService) requireCoBooker(ctx context.Context, houseID, coBookerID, callerID string) error {
	if coBookerID == callerID {
		return ErrCoBookerInvalid
	}
	if _, err := s.repo.Member.GetByHouseAndUser(ctx, houseID, coBookerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCoBookerInvalid
		}
		return err
	}
	return nil
}

// switchBed 释放旧认领并认领新床位，原地更新 stay.BedClaimID
func (s *stayService) switchBed(ctx context.Context, houseID string, stay *model.Stay, newBedID, callerID string) error {
	var oldBedID string
	if stay.BedClaim != nil {
		oldBedID = stay.BedClaim.BedID
	}
	if oldBedID == newBedID {
		return nil
	}

	// 旧认领占着 (window, user) 名额，必须先释放
	if stay.BedClaimID != nil {
		if err := s.claimSvc.ReleaseClaim(ctx, houseID, *stay.BedClaimID, callerID); err != nil && !errors.Is(err, ErrClaimNotFound) {
			return err
		}
		stay.BedClaimID = nil
		stay.BedClaim = nil
	}

	claim, err := s.claimSvc.ClaimBedForDates(ctx, houseID, newBedID, callerID, stay.CheckIn, stay.CheckOut)
	if err != nil {
		// 新床没抢到，尽力抢回旧床
		if oldBedID != "" {
			if old, retryErr := s.claimSvc.ClaimBedForDates(ctx, houseID, oldBedID, callerID, stay.CheckIn, stay.CheckOut); retryErr == nil {
				stay.BedClaimID = &old.ClaimID
				s.linkClaim(ctx, old, stay, stay.CoBookerID, callerID)
			} else {
				s.logger.Warn("换床失败后旧床也未能抢回",
					zap.String("stay_id", stay.StayID),
					zap.String("old_bed_id", oldBedID))
			}
		}
		return err
	}

	stay.BedClaimID = &claim.ClaimID
	s.linkClaim(ctx, claim, stay, stay.CoBookerID, callerID)
	return nil
}

// linkClaim 把认领行回指到 stay，并尽力同步同行人
func (s *stayService) linkClaim(ctx context.Context, claim *model.BedClaim, stay *model.Stay, coBookerID *string, callerID string) {
	if err := s.repo.Claim.UpdateStayRef(ctx, claim.ClaimID, &stay.StayID, callerID); err != nil {
		s.logger.Warn("认领回指 stay 失败", zap.String("claim_id", claim.ClaimID), zap.Error(err))
	}
	if coBookerID != nil {
		attached, err := s.repo.Claim.AttachCoClaimerIfEligible(ctx, claim.ClaimID, claim.WindowID, *coBookerID)
		if err != nil || !attached {
			s.logger.Warn("同行人未同步到认领", zap.String("claim_id", claim.ClaimID), zap.Error(err))
		}
	}
}

func (s *stayService) compensateClaim(ctx context.Context, claim *model.BedClaim) {
	if claim == nil {
		return
	}
	if err := s.repo.Claim.Delete(ctx, claim.ClaimID); err != nil {
		s.logger.Error("补偿释放认领失败", zap.String("claim_id", claim.ClaimID), zap.Error(err))
	}
}

func parseStayDates(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := time.Parse(dateLayout, checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, ErrStayDateInvalid
	}
	out, err := time.Parse(dateLayout, checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, ErrStayDateInvalid
	}
	if !out.After(in) {
		return time.Time{}, time.Time{}, ErrStayDateInvalid
	}
	return in, out, nil
}

func toStayResponse(stay *model.Stay) *dto.StayResponse {
	resp := &dto.StayResponse{
		ID:         stay.StayID,
		HouseID:    stay.HouseID,
		UserID:     stay.UserID,
		CheckIn:    stay.CheckIn.Format(dateLayout),
		CheckOut:   stay.CheckOut.Format(dateLayout),
		GuestCount: stay.GuestCount,
		Notes:      stay.Notes,
	}
	if stay.CoBookerID != nil {
		resp.CoBookerID = *stay.CoBookerID
	}
	if stay.ExpenseID != nil {
		resp.ExpenseID = *stay.ExpenseID
	}
	if stay.BedClaimID != nil {
		resp.BedClaimID = *stay.BedClaimID
	}
	return resp
}

func toStayResponses(stays []model.Stay) []dto.StayResponse {
	result := make([]dto.StayResponse, 0, len(stays))
	for i := range stays {
		result = append(result, *toStayResponse(&stays[i]))
	}
	return result
}
