package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"mokki/backend/internal/dto"
	"mokki/backend/internal/model"
)

func setupTestStayService(t *testing.T) (StayService, *testRepos) {
	t.Helper()

	tr := newTestRepos()
	tr.addHouse("house-1", "Mökki")
	tr.addUser("u1", "Aino")
	tr.addUser("u2", "Eero")
	tr.addMember("house-1", "u1", model.RoleAdmin)
	tr.addMember("house-1", "u2", model.RoleMember)
	tr.addRoom("room-1", "house-1", "湖景房")
	tr.addBed("bed-1", "room-1", "house-1", "大床", true)
	tr.addBed("bed-2", "room-1", "house-1", "单人床", false)
	tr.addWindow("win-1", "house-1", model.WindowStatusOpen, weekendFriday)

	claimSvc := NewClaimService(tr.repo, nil, zap.NewNop())
	svc := NewStayService(tr.repo, claimSvc, zap.NewNop())
	return svc, tr
}

func TestStayService_Create_WithBedAndFee(t *testing.T) {
	svc, tr := setupTestStayService(t)

	bedID := "bed-1"
	resp, err := svc.Create(context.Background(), "house-1", &dto.CreateStayRequest{
		CheckIn:    "2026-09-04",
		CheckOut:   "2026-09-06",
		GuestCount: 2,
		BedID:      &bedID,
		GuestFee:   &dto.CreateExpenseRequest{Amount: 40, Description: "客人费"},
	}, "u1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	if resp.BedClaimID == "" {
		t.Fatal("带 bed_id 创建应顺带认领")
	}
	claim, ok := tr.claims.claims[resp.BedClaimID]
	if !ok {
		t.Fatal("认领记录不存在")
	}
	if claim.StayID == nil || *claim.StayID != resp.ID {
		t.Error("认领应回指到 stay")
	}

	if resp.ExpenseID == "" {
		t.Fatal("带 guest_fee 创建应生成支出")
	}
	expense := tr.expenses.expenses[resp.ExpenseID]
	if expense == nil || expense.Category != "guest_fee" || expense.Amount != 40 {
		t.Errorf("支出记录错误: %+v", expense)
	}
}

func TestStayService_Create_DateInvalid(t *testing.T) {
	svc, _ := setupTestStayService(t)

	_, err := svc.Create(context.Background(), "house-1", &dto.CreateStayRequest{
		CheckIn:  "2026-09-06",
		CheckOut: "2026-09-06",
	}, "u1")
	if !errors.Is(err, ErrStayDateInvalid) {
		t.Errorf("退房日不晚于入住日，期望 ErrStayDateInvalid，实际: %v", err)
	}
}

func TestStayService_Create_CoBookerInvalid(t *testing.T) {
	svc, tr := setupTestStayService(t)
	ctx := context.Background()

	self := "u1"
	_, err := svc.Create(ctx, "house-1", &dto.CreateStayRequest{
		CheckIn: "2026-09-04", CheckOut: "2026-09-06", CoBookerID: &self,
	}, "u1")
	if !errors.Is(err, ErrCoBookerInvalid) {
		t.Errorf("同行人为本人，期望 ErrCoBookerInvalid，实际: %v", err)
	}

	tr.addUser("outsider", "陌生人")
	outsider := "outsider"
	_, err = svc.Create(ctx, "house-1", &dto.CreateStayRequest{
		CheckIn: "2026-09-04", CheckOut: "2026-09-06", CoBookerID: &outsider,
	}, "u1")
	if !errors.Is(err, ErrCoBookerInvalid) {
		t.Errorf("同行人非成员，期望 ErrCoBookerInvalid，实际: %v", err)
	}
}

// 认领失败时整个创建失败，不留下半成品 stay
func TestStayService_Create_BedTakenNoStay(t *testing.T) {
	svc, tr := setupTestStayService(t)
	ctx := context.Background()

	bedID := "bed-1"
	if _, err := svc.Create(ctx, "house-1", &dto.CreateStayRequest{
		CheckIn: "2026-09-04", CheckOut: "2026-09-06", BedID: &bedID,
	}, "u2"); err != nil {
		t.Fatalf("u2 创建应成功: %v", err)
	}

	_, err := svc.Create(ctx, "house-1", &dto.CreateStayRequest{
		CheckIn: "2026-09-04", CheckOut: "2026-09-06", BedID: &bedID,
	}, "u1")
	if !errors.Is(err, ErrBedTaken) {
		t.Fatalf("床已被抢，期望 ErrBedTaken，实际: %v", err)
	}

	for _, s := range tr.stays.stays {
		if s.UserID == "u1" {
			t.Error("认领失败后不应留下 stay")
		}
	}
}

// 同行人写入认领行的 co_claimer
func TestStayService_Create_CoBookerSyncedToClaim(t *testing.T) {
	svc, tr := setupTestStayService(t)

	bedID := "bed-1"
	coBooker := "u2"
	resp, err := svc.Create(context.Background(), "house-1", &dto.CreateStayRequest{
		CheckIn: "2026-09-04", CheckOut: "2026-09-06", BedID: &bedID, CoBookerID: &coBooker,
	}, "u1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	claim := tr.claims.claims[resp.BedClaimID]
	if claim.CoClaimerID == nil || *claim.CoClaimerID != "u2" {
		t.Error("同行人应同步到认领行")
	}
}

// 更新时补选同行人，同步到认领行
func TestStayService_Update_CoBookerSyncedToClaim(t *testing.T) {
	svc, tr := setupTestStayService(t)
	ctx := context.Background()

	bedID := "bed-1"
	created, err := svc.Create(ctx, "house-1", &dto.CreateStayRequest{
		CheckIn: "2026-09-04", CheckOut: "2026-09-06", BedID: &bedID,
	}, "u1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	coBooker := "u2"
	if _, err := svc.Update(ctx, "house-1", created.ID, &dto.UpdateStayRequest{CoBookerID: &coBooker}, "u1"); err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}

	claim := tr.claims.claims[created.BedClaimID]
	if claim.CoClaimerID == nil || *claim.CoClaimerID != "u2" {
		t.Error("补选的同行人应同步到认领行")
	}
}

// 移除同行人时清空认领行上的 co_claimer
func TestStayService_Update_RemoveCoBookerClearsClaim(t *testing.T) {
	svc, tr := setupTestStayService(t)
	ctx := context.Background()

	bedID := "bed-1"
	coBooker := "u2"
	created, err := svc.Create(ctx, "house-1", &dto.CreateStayRequest{
		CheckIn: "2026-09-04", CheckOut: "2026-09-06", BedID: &bedID, CoBookerID: &coBooker,
	}, "u1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if c := tr.claims.claims[created.BedClaimID]; c.CoClaimerID == nil {
		t.Fatal("前置条件：同行人应已同步到认领行")
	}

	updated, err := svc.Update(ctx, "house-1", created.ID, &dto.UpdateStayRequest{RemoveCoBooker: true}, "u1")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if updated.CoBookerID != "" {
		t.Error("移除后 stay 不应再有同行人")
	}
	if c := tr.claims.claims[created.BedClaimID]; c.CoClaimerID != nil {
		t.Error("移除同行人应同步清空认领行的 co_claimer")
	}
}

func TestStayService_Update_OwnerOnly(t *testing.T) {
	svc, _ := setupTestStayService(t)
	ctx := context.Background()

	resp, err := svc.Create(ctx, "house-1", &dto.CreateStayRequest{
		CheckIn: "2026-09-04", CheckOut: "2026-09-06",
	}, "u1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	notes := "改备注"
	_, err = svc.Update(ctx, "house-1", resp.ID, &dto.UpdateStayRequest{Notes: &notes}, "u2")
	if !errors.Is(err, ErrNotStayOwner) {
		t.Errorf("非本人更新，期望 ErrNotStayOwner，实际: %v", err)
	}
}

// 换床：旧认领释放，新认领建立并回指 stay
func TestStayService_Update_SwitchBed(t *testing.T) {
	svc, tr := setupTestStayService(t)
	ctx := context.Background()

	bedID := "bed-1"
	created, err := svc.Create(ctx, "house-1", &dto.CreateStayRequest{
		CheckIn: "2026-09-04", CheckOut: "2026-09-06", BedID: &bedID,
	}, "u1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	oldClaimID := created.BedClaimID

	newBed := "bed-2"
	updated, err := svc.Update(ctx, "house-1", created.ID, &dto.UpdateStayRequest{BedID: &newBed}, "u1")
	if err != nil {
		t.Fatalf("换床应成功: %v", err)
	}

	if _, ok := tr.claims.claims[oldClaimID]; ok {
		t.Error("换床后旧认领应被释放")
	}
	if updated.BedClaimID == "" || updated.BedClaimID == oldClaimID {
		t.Fatalf("stay 应指向新认领: %s", updated.BedClaimID)
	}
	if tr.claims.claims[updated.BedClaimID].BedID != "bed-2" {
		t.Error("新认领应落在目标床位上")
	}
}

// 新床没抢到时尽力抢回旧床
func TestStayService_Update_SwitchBedFailureReclaimsOld(t *testing.T) {
	svc, tr := setupTestStayService(t)
	ctx := context.Background()

	// 多放一张床，避免两条认领就触发满员关窗
	tr.addBed("bed-3", "room-1", "house-1", "沙发床", false)

	// u2 先占住 bed-2
	bed2 := "bed-2"
	if _, err := svc.Create(ctx, "house-1", &dto.CreateStayRequest{
		CheckIn: "2026-09-04", CheckOut: "2026-09-06", BedID: &bed2,
	}, "u2"); err != nil {
		t.Fatalf("u2 创建应成功: %v", err)
	}

	bed1 := "bed-1"
	created, err := svc.Create(ctx, "house-1", &dto.CreateStayRequest{
		CheckIn: "2026-09-04", CheckOut: "2026-09-06", BedID: &bed1,
	}, "u1")
	if err != nil {
		t.Fatalf("u1 创建应成功: %v", err)
	}

	_, err = svc.Update(ctx, "house-1", created.ID, &dto.UpdateStayRequest{BedID: &bed2}, "u1")
	if !errors.Is(err, ErrBedTaken) {
		t.Fatalf("目标床已被占，期望 ErrBedTaken，实际: %v", err)
	}

	// 旧床应被抢回
	reclaimed, err := tr.repo.Claim.GetByWindowAndUser(ctx, "win-1", "u1")
	if err != nil {
		t.Fatalf("换床失败后 u1 应仍持有认领: %v", err)
	}
	if reclaimed.BedID != "bed-1" {
		t.Errorf("抢回的应是旧床: %s", reclaimed.BedID)
	}
}

// 删除 stay：认领一并释放，客人费用保留
func TestStayService_Delete_ReleasesClaimKeepsExpense(t *testing.T) {
	svc, tr := setupTestStayService(t)
	ctx := context.Background()

	bedID := "bed-1"
	created, err := svc.Create(ctx, "house-1", &dto.CreateStayRequest{
		CheckIn:  "2026-09-04",
		CheckOut: "2026-09-06",
		BedID:    &bedID,
		GuestFee: &dto.CreateExpenseRequest{Amount: 25},
	}, "u1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	if err := svc.Delete(ctx, "house-1", created.ID, "u1"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}

	if _, ok := tr.stays.stays[created.ID]; ok {
		t.Error("删除后 stay 仍存在")
	}
	if _, ok := tr.claims.claims[created.BedClaimID]; ok {
		t.Error("删除 stay 应释放关联认领")
	}
	if _, ok := tr.expenses.expenses[created.ExpenseID]; !ok {
		t.Error("删除 stay 不应删除客人费用")
	}
}

func TestStayService_ListMine_FiltersByHouse(t *testing.T) {
	svc, tr := setupTestStayService(t)

	tr.stays.stays["stay-a"] = &model.Stay{StayID: "stay-a", HouseID: "house-1", UserID: "u1", CheckIn: weekendFriday, CheckOut: weekendFriday.AddDate(0, 0, 2)}
	tr.stays.stays["stay-b"] = &model.Stay{StayID: "stay-b", HouseID: "house-other", UserID: "u1", CheckIn: weekendFriday, CheckOut: weekendFriday.AddDate(0, 0, 2)}
	co := "u1"
	tr.stays.stays["stay-c"] = &model.Stay{StayID: "stay-c", HouseID: "house-1", UserID: "u2", CoBookerID: &co, CheckIn: weekendFriday, CheckOut: weekendFriday.AddDate(0, 0, 2)}

	mine, err := svc.ListMine(context.Background(), "house-1", "u1")
	if err != nil {
		t.Fatalf("ListMine 应成功: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("应返回本 house 内以主人或同行人身份参与的 2 条记录，实际 %d 条", len(mine))
	}
}
