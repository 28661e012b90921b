package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"mokki/backend/internal/dto"
	"mokki/backend/internal/model"
)

func setupTestCatalogService(t *testing.T) (CatalogService, *testRepos) {
	t.Helper()

	tr := newTestRepos()
	tr.addHouse("house-1", "Mökki")
	tr.addHouse("house-2", "别家")
	tr.addUser("u1", "Aino")
	tr.addUser("u2", "Eero")
	tr.addMember("house-1", "u1", model.RoleAdmin)
	tr.addMember("house-1", "u2", model.RoleMember)

	svc := NewCatalogService(tr.repo, zap.NewNop())
	return svc, tr
}

func TestCatalogService_CreateRoom_AdminOnly(t *testing.T) {
	svc, _ := setupTestCatalogService(t)
	ctx := context.Background()

	req := &dto.CreateRoomRequest{Name: "湖景房", RoomType: model.RoomTypeBedroom}

	if _, err := svc.CreateRoom(ctx, "house-1", req, "u2"); !errors.Is(err, ErrNotHouseAdmin) {
		t.Errorf("普通成员建房间，期望 ErrNotHouseAdmin，实际: %v", err)
	}

	resp, err := svc.CreateRoom(ctx, "house-1", req, "u1")
	if err != nil {
		t.Fatalf("admin 建房间应成功: %v", err)
	}
	if resp.HouseID != "house-1" || resp.Name != "湖景房" {
		t.Errorf("房间归属错误: %+v", resp)
	}
}

func TestCatalogService_CreateBed_RoomScope(t *testing.T) {
	svc, tr := setupTestCatalogService(t)
	ctx := context.Background()

	tr.addRoom("room-1", "house-1", "湖景房")
	tr.addRoom("room-other", "house-2", "别家的房")

	_, err := svc.CreateBed(ctx, "house-1",
		&dto.CreateBedRequest{RoomID: "missing", Name: "大床", BedType: "queen"}, "u1")
	if !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("房间不存在，期望 ErrRoomNotFound，实际: %v", err)
	}

	_, err = svc.CreateBed(ctx, "house-1",
		&dto.CreateBedRequest{RoomID: "room-other", Name: "大床", BedType: "queen"}, "u1")
	if !errors.Is(err, ErrRoomNotInHouse) {
		t.Errorf("跨 house 的房间，期望 ErrRoomNotInHouse，实际: %v", err)
	}

	resp, err := svc.CreateBed(ctx, "house-1",
		&dto.CreateBedRequest{RoomID: "room-1", Name: "大床", BedType: "king", IsPremium: true}, "u1")
	if err != nil {
		t.Fatalf("CreateBed 应成功: %v", err)
	}
	if !resp.IsPremium || resp.BedType != "king" {
		t.Errorf("床位属性未写入: %+v", resp)
	}
	if tr.beds.beds[resp.ID].HouseID != "house-1" {
		t.Error("床位应冗余存储 house_id")
	}
}

func TestCatalogService_ListRooms_NestedBedsSorted(t *testing.T) {
	svc, tr := setupTestCatalogService(t)

	tr.addRoom("room-1", "house-1", "湖景房")
	tr.addBed("bed-b", "room-1", "house-1", "下铺", false)
	tr.addBed("bed-a", "room-1", "house-1", "上铺", false)
	tr.beds.beds["bed-a"].DisplayOrder = 1
	tr.beds.beds["bed-b"].DisplayOrder = 2

	rooms, err := svc.ListRooms(context.Background(), "house-1", "u2")
	if err != nil {
		t.Fatalf("ListRooms 应成功: %v", err)
	}
	if len(rooms) != 1 || len(rooms[0].Beds) != 2 {
		t.Fatalf("应返回 1 房 2 床，实际: %+v", rooms)
	}
	if rooms[0].Beds[0].Name != "上铺" || rooms[0].Beds[1].Name != "下铺" {
		t.Errorf("床位应按 display_order 排序: %+v", rooms[0].Beds)
	}
}

func TestCatalogService_UpdateBed(t *testing.T) {
	svc, tr := setupTestCatalogService(t)

	tr.addRoom("room-1", "house-1", "湖景房")
	tr.addBed("bed-1", "room-1", "house-1", "大床", false)

	premium := true
	name := "豪华大床"
	resp, err := svc.UpdateBed(context.Background(), "house-1", "bed-1",
		&dto.UpdateBedRequest{Name: &name, IsPremium: &premium}, "u1")
	if err != nil {
		t.Fatalf("UpdateBed 应成功: %v", err)
	}
	if resp.Name != "豪华大床" || !resp.IsPremium {
		t.Errorf("更新未生效: %+v", resp)
	}
}

func TestCatalogService_DeleteRoom_Scope(t *testing.T) {
	svc, tr := setupTestCatalogService(t)
	ctx := context.Background()

	tr.addRoom("room-1", "house-1", "湖景房")
	tr.addRoom("room-other", "house-2", "别家的房")

	if err := svc.DeleteRoom(ctx, "house-1", "room-other", "u1"); !errors.Is(err, ErrRoomNotInHouse) {
		t.Errorf("删除跨 house 房间，期望 ErrRoomNotInHouse，实际: %v", err)
	}

	if err := svc.DeleteRoom(ctx, "house-1", "room-1", "u1"); err != nil {
		t.Fatalf("DeleteRoom 应成功: %v", err)
	}
	if _, ok := tr.rooms.rooms["room-1"]; ok {
		t.Error("删除后房间仍存在")
	}
}
