package repository

import (
	"context"

	"gorm.io/gorm"

	"mokki/backend/internal/model"
)

// RoomRepository 房间数据访问接口
type RoomRepository interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	ListByHouse(ctx context.Context, houseID string) ([]model.Room, error)
	Update(ctx context.Context, room *model.Room) error
	Delete(ctx context.Context, id string) error
}

// BedRepository 床位数据访问接口
type BedRepository interface {
	Create(ctx context.Context, bed *model.Bed) error
	GetByID(ctx context.Context, id string) (*model.Bed, error)
	ListByHouse(ctx context.Context, houseID string) ([]model.Bed, error)
	CountByHouse(ctx context.Context, houseID string) (int64, error)
	Update(ctx context.Context, bed *model.Bed) error
	Delete(ctx context.Context, id string) error
}

// ── Room Repository 实现 ──

type roomRepo struct {
	db *gorm.DB
}

func NewRoomRepo(db *gorm.DB) RoomRepository {
	return &roomRepo{db: db}
}

func (r *roomRepo) Create(ctx context.Context, room *model.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *roomRepo) GetByID(ctx context.Context, id string) (*model.Room, error) {
	var room model.Room
	err := r.db.WithContext(ctx).
		Where("room_id = ?", id).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepo) ListByHouse(ctx context.Context, houseID string) ([]model.Room, error) {
	var rooms []model.Room
	err := r.db.WithContext(ctx).
		Preload("Beds", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC, name ASC")
		}).
		Where("house_id = ?", houseID).
		Order("display_order ASC, name ASC").
		Find(&rooms).Error
	return rooms, err
}

func (r *roomRepo) Update(ctx context.Context, room *model.Room) error {
	return r.db.WithContext(ctx).
		Model(room).
		Where("room_id = ?", room.RoomID).
		Updates(map[string]interface{}{
			"name":          room.Name,
			"room_type":     room.RoomType,
			"display_order": room.DisplayOrder,
			"updated_by":    room.UpdatedBy,
		}).Error
}

// Delete 删除房间；床位由外键 ON DELETE CASCADE 级联删除
func (r *roomRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("room_id = ?", id).
		Delete(&model.Room{}).Error
}

// ── Bed Repository 实现 ──

type bedRepo struct {
	db *gorm.DB
}

func NewBedRepo(db *gorm.DB) BedRepository {
	return &bedRepo{db: db}
}

func (r *bedRepo) Create(ctx context.Context, bed *model.Bed) error {
	return r.db.WithContext(ctx).Create(bed).Error
}

func (r *bedRepo) GetByID(ctx context.Context, id string) (*model.Bed, error) {
	var bed model.Bed
	err := r.db.WithContext(ctx).
		Preload("Room").
		Where("bed_id = ?", id).
		First(&bed).Error
	if err != nil {
		return nil, err
	}
	return &bed, nil
}

func (r *bedRepo) ListByHouse(ctx context.Context, houseID string) ([]model.Bed, error) {
	var beds []model.Bed
	err := r.db.WithContext(ctx).
		Preload("Room").
		Where("house_id = ?", houseID).
		Order("display_order ASC, name ASC").
		Find(&beds).Error
	return beds, err
}

// CountByHouse 统计 house 床位总数（自动关窗判定用）
func (r *bedRepo) CountByHouse(ctx context.Context, houseID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Bed{}).
		Where("house_id = ?", houseID).
		Count(&count).Error
	return count, err
}

func (r *bedRepo) Update(ctx context.Context, bed *model.Bed) error {
	return r.db.WithContext(ctx).
		Model(bed).
		Where("bed_id = ?", bed.BedID).
		Updates(map[string]interface{}{
			"name":          bed.Name,
			"bed_type":      bed.BedType,
			"is_premium":    bed.IsPremium,
			"display_order": bed.DisplayOrder,
			"updated_by":    bed.UpdatedBy,
		}).Error
}

// Delete 删除床位；其认领由外键 ON DELETE CASCADE 级联删除
func (r *bedRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("bed_id = ?", id).
		Delete(&model.Bed{}).Error
}
