package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"mokki/backend/internal/dto"
	"mokki/backend/internal/model"
	"mokki/backend/internal/repository"
)

// ── 房间/床位目录业务错误 ──

var (
	ErrRoomNotFound   = errors.New("房间不存在")
	ErrBedNotFound    = errors.New("床位不存在")
	ErrRoomNotInHouse = errors.New("房间不属于该度假屋")
	ErrBedNotInHouse  = errors.New("床位不属于该度假屋")
)

// CatalogService 房间/床位目录业务接口
// 所有写操作要求 caller 持有 house 的 admin 角色
type CatalogService interface {
	ListRooms(ctx context.Context, houseID, callerID string) ([]dto.RoomResponse, error)
	CreateRoom(ctx context.Context, houseID string, req *dto.CreateRoomRequest, callerID string) (*dto.RoomResponse, error)
	UpdateRoom(ctx context.Context, houseID, roomID string, req *dto.UpdateRoomRequest, callerID string) (*dto.RoomResponse, error)
	DeleteRoom(ctx context.Context, houseID, roomID, callerID string) error
	CreateBed(ctx context.Context, houseID string, req *dto.CreateBedRequest, callerID string) (*dto.BedResponse, error)
	UpdateBed(ctx context.Context, houseID, bedID string, req *dto.UpdateBedRequest, callerID string) (*dto.BedResponse, error)
	DeleteBed(ctx context.Context, houseID, bedID, callerID string) error
}

type catalogService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCatalogService 创建 CatalogService 实例
func NewCatalogService(repo *repository.Repository, logger *zap.Logger) CatalogService {
	return &catalogService{repo: repo, logger: logger}
}

// ────────────────────── ListRooms ──────────────────────

// ListRooms 返回房间及嵌套床位，均按 display_order 排序
func (s *catalogService) ListRooms(ctx context.Context, houseID, callerID string) ([]dto.RoomResponse, error) {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	rooms, err := s.repo.Room.ListByHouse(ctx, houseID)
	if err != nil {
		s.logger.Error("列出房间失败", zap.String("house_id", houseID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.RoomResponse, 0, len(rooms))
	for i := range rooms {
		result = append(result, *toRoomResponse(&rooms[i]))
	}
	return result, nil
}

// ────────────────────── CreateRoom ──────────────────────

func (s *catalogService) CreateRoom(ctx context.Context, houseID string, req *dto.CreateRoomRequest, callerID string) (*dto.RoomResponse, error) {
	if err := requireAdmin(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	room := &model.Room{
		HouseID:      houseID,
		Name:         req.Name,
		RoomType:     req.RoomType,
		DisplayOrder: req.DisplayOrder,
	}
	room.CreatedBy = &callerID
	room.UpdatedBy = &callerID

	if err := s.repo.Room.Create(ctx, room); err != nil {
		s.logger.Error("创建房间失败", zap.String("house_id", houseID), zap.Error(err))
		return nil, err
	}

	return toRoomResponse(room), nil
}

// ────────────────────── UpdateRoom ──────────────────────

func (s *catalogService) UpdateRoom(ctx context.Context, houseID, roomID string, req *dto.UpdateRoomRequest, callerID string) (*dto.RoomResponse, error) {
	if err := requireAdmin(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	room, err := s.getHouseRoom(ctx, houseID, roomID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		room.Name = *req.Name
	}
	if req.RoomType != nil {
		room.RoomType = *req.RoomType
	}
	if req.DisplayOrder != nil {
		room.DisplayOrder = *req.DisplayOrder
	}
	room.UpdatedBy = &callerID

	if err := s.repo.Room.Update(ctx, room); err != nil {
		s.logger.Error("更新房间失败", zap.String("room_id", roomID), zap.Error(err))
		return nil, err
	}

	return toRoomResponse(room), nil
}

// ────────────────────── DeleteRoom ──────────────────────

// DeleteRoom 删除房间，床位级联删除（外键）
func (s *catalogService) DeleteRoom(ctx context.Context, houseID, roomID, callerID string) error {
	if err := requireAdmin(ctx, s.repo, houseID, callerID); err != nil {
		return err
	}

	if _, err := s.getHouseRoom(ctx, houseID, roomID); err != nil {
		return err
	}

	if err := s.repo.Room.Delete(ctx, roomID); err != nil {
		s.logger.Error("删除房间失败", zap.String("room_id", roomID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── CreateBed ──────────────────────

func (s *catalogService) CreateBed(ctx context.Context, houseID string, req *dto.CreateBedRequest, callerID string) (*dto.BedResponse, error) {
	if err := requireAdmin(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	// 床位必须挂在本 house 的房间下
	if _, err := s.getHouseRoom(ctx, houseID, req.RoomID); err != nil {
		return nil, err
	}

	bed := &model.Bed{
		RoomID:       req.RoomID,
		HouseID:      houseID,
		Name:         req.Name,
		BedType:      req.BedType,
		IsPremium:    req.IsPremium,
		DisplayOrder: req.DisplayOrder,
	}
	bed.CreatedBy = &callerID
	bed.UpdatedBy = &callerID

	if err := s.repo.Bed.Create(ctx, bed); err != nil {
		s.logger.Error("创建床位失败", zap.String("room_id", req.RoomID), zap.Error(err))
		return nil, err
	}

	return toBedResponse(bed), nil
}

// ────────────────────── UpdateBed ──────────────────────

func (s *catalogService) UpdateBed(ctx context.Context, houseID, bedID string, req *dto.UpdateBedRequest, callerID string) (*dto.BedResponse, error) {
	if err := requireAdmin(ctx, s.repo, houseID, callerID); err != nil {
		return nil, err
	}

	bed, err := s.getHouseBed(ctx, houseID, bedID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		bed.Name = *req.Name
	}
	if req.BedType != nil {
		bed.BedType = *req.BedType
	}
	if req.IsPremium != nil {
		bed.IsPremium = *req.IsPremium
	}
	if req.DisplayOrder != nil {
		bed.DisplayOrder = *req.DisplayOrder
	}
	bed.UpdatedBy = &callerID

	if err := s.repo.Bed.Update(ctx, bed); err != nil {
		s.logger.Error("更新床位失败", zap.String("bed_id", bedID), zap.Error(err))
		return nil, err
	}

	return toBedResponse(bed), nil
}

// ────────────────────── DeleteBed ──────────────────────

// DeleteBed 删除床位，该床的认领级联删除（外键）
func (s *catalogService) DeleteBed(ctx context.Context, houseID, bedID, callerID string) error {
	if err := requireAdmin(ctx, s.repo, houseID, callerID); err != nil {
		return err
	}

	if _, err := s.getHouseBed(ctx, houseID, bedID); err != nil {
		return err
	}

	if err := s.repo.Bed.Delete(ctx, bedID); err != nil {
		s.logger.Error("删除床位失败", zap.String("bed_id", bedID), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *catalogService) getHouseRoom(ctx context.Context, houseID, roomID string) (*model.Room, error) {
	room, err := s.repo.Room.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if room.HouseID != houseID {
		return nil, ErrRoomNotInHouse
	}
	return room, nil
}

func (s *catalogService) getHouseBed(ctx context.Context, houseID, bedID string) (*model.Bed, error) {
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
	return bed, nil
}

func toRoomResponse(room *model.Room) *dto.RoomResponse {
	beds := make([]dto.BedResponse, 0, len(room.Beds))
	for i := range room.Beds {
		beds = append(beds, *toBedResponse(&room.Beds[i]))
	}
	return &dto.RoomResponse{
		ID:           room.RoomID,
		HouseID:      room.HouseID,
		Name:         room.Name,
		RoomType:     room.RoomType,
		DisplayOrder: room.DisplayOrder,
		Beds:         beds,
	}
}

func toBedResponse(bed *model.Bed) *dto.BedResponse {
	return &dto.BedResponse{
		ID:           bed.BedID,
		RoomID:       bed.RoomID,
		Name:         bed.Name,
		BedType:      bed.BedType,
		IsPremium:    bed.IsPremium,
		DisplayOrder: bed.DisplayOrder,
	}
}
