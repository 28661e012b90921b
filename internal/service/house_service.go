package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"mokki/backend/internal/dto"
	"mokki/backend/internal/model"
	"mokki/backend/internal/repository"
	pkgerrors "mokki/backend/pkg/errors"
)

// ── 度假屋模块业务错误 ──

var (
	ErrHouseNotFound  = errors.New("度假屋不存在")
	ErrNotHouseMember = errors.New("不是该度假屋成员")
	ErrNotHouseAdmin  = errors.New("需要管理员权限")
	ErrMemberExists   = errors.New("用户已是该度假屋成员")
)

// HouseService 度假屋业务接口
type HouseService interface {
	Create(ctx context.Context, req *dto.CreateHouseRequest, callerID string) (*dto.HouseResponse, error)
	GetByID(ctx context.Context, houseID, callerID string) (*dto.HouseResponse, error)
	ListMembers(ctx context.Context, houseID, callerID string) ([]dto.MemberResponse, error)
	AddMember(ctx context.Context, houseID string, req *dto.AddMemberRequest, callerID string) (*dto.MemberResponse, error)
	UpdateMemberRole(ctx context.Context, houseID, memberID string, req *dto.UpdateMemberRoleRequest, callerID string) error
}

type houseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewHouseService 创建 HouseService 实例
func NewHouseService(repo *repository.Repository, logger *zap.Logger) HouseService {
	return &houseService{repo: repo, logger: logger}
}

// requireMember 校验 caller 是 house 成员，返回成员记录
func requireMember(ctx context.Context, repo *repository.Repository, houseID, userID string) (*model.HouseMember, error) {
	member, err := repo.Member.GetByHouseAndUser(ctx, houseID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotHouseMember
		}
		return nil, err
	}
	return member, nil
}

// requireAdmin 校验 caller 持有 house 的 admin 角色
func requireAdmin(ctx context.Context, repo *repository.Repository, houseID, userID string) error {
	member, err := requireMember(ctx, repo, houseID, userID)
	if err != nil {
		return err
	}
	if member.Role != model.RoleAdmin {
		return ErrNotHouseAdmin
	}
	return nil
}

// ────────────────────── Create ──────────────────────

// Create 创建度假屋，创建者自动成为 admin 成员
func (s *houseService) Create(ctx context.Context, req *dto.CreateHouseRequest, callerID string) (*dto.HouseResponse, error) {
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

	house := &model.House{Name: req.Name}
	house.CreatedBy = &callerID
	house.UpdatedBy = &callerID

	if err := txRepo.House.Create(ctx, house); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("创建度假屋失败", zap.Error(err))
		return nil, err
	}

	member := &model.HouseMember{
		HouseID: house.HouseID,
		UserID:  callerID,
		Role:    model.RoleAdmin,
	}
	member.CreatedBy = &callerID

	if err := txRepo.Member.Create(ctx, member); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("创建初始成员失败", zap.Error(err))
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	return toHouseResponse(house), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *houseService) GetByID(ctx context.Context, houseID, callerID string) (*dto.HouseResponse, error) {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	house, err := s.repo.House.GetByID(ctx, houseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHouseNotFound
		}
		s.logger.Error("查询度假屋失败", zap.String("id", houseID), zap.Error(err))
		return nil, err
	}

	return toHouseResponse(house), nil
}

// ────────────────────── ListMembers ──────────────────────

func (s *houseService) ListMembers(ctx context.Context, houseID, callerID string) ([]dto.MemberResponse, error) {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	members, err := s.repo.Member.ListByHouse(ctx, houseID)
	if err != nil {
		s.logger.Error("列出成员失败", zap.String("house_id", houseID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.MemberResponse, 0, len(members))
	for i := range members {
		result = append(result, *toMemberResponse(&members[i]))
	}
	return result, nil
}

// ────────────────────── AddMember ──────────────────────

func (s *houseService) AddMember(ctx context.Context, houseID string, req *dto.AddMemberRequest, callerID string) (*dto.MemberResponse, error) {
	if err := requireAdmin(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	user, err := s.repo.User.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleMember
	}

	member := &model.HouseMember{
		HouseID: houseID,
		UserID:  req.UserID,
		Role:    role,
	}
	member.CreatedBy = &callerID

	if err := s.repo.Member.Create(ctx, member); err != nil {
		if errors.Is(err, pkgerrors.ErrUniqueViolation) {
			return nil, ErrMemberExists
		}
		s.logger.Error("添加成员失败", zap.String("house_id", houseID), zap.Error(err))
		return nil, err
	}

	member.User = user
	return toMemberResponse(member), nil
}

// ────────────────────── UpdateMemberRole ──────────────────────

func (s *houseService) UpdateMemberRole(ctx context.Context, houseID, memberID string, req *dto.UpdateMemberRoleRequest, callerID string) error {
	if err := requireAdmin(ctx, s.repo, houseID, callerID); err != nil {
		return err
	}

	if err := s.repo.Member.UpdateRole(ctx, memberID, req.Role, callerID); err != nil {
		s.logger.Error("调整成员角色失败", zap.String("member_id", memberID), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func toHouseResponse(house *model.House) *dto.HouseResponse {
	return &dto.HouseResponse{
		ID:        house.HouseID,
		Name:      house.Name,
		CreatedAt: house.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func toMemberResponse(member *model.HouseMember) *dto.MemberResponse {
	resp := &dto.MemberResponse{
		MemberID: member.MemberID,
		UserID:   member.UserID,
		Role:     member.Role,
	}
	if member.User != nil {
		resp.Name = member.User.Name
		resp.Email = member.User.Email
	}
	return resp
}
