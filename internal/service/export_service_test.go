package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"mokki/backend/internal/model"
)

func setupTestExportService(t *testing.T) (ExportService, *testRepos) {
	t.Helper()

	tr := newTestRepos()
	tr.addHouse("house-1", "Mökki")
	tr.addHouse("house-2", "别家")
	tr.addUser("u1", "Aino")
	tr.addMember("house-1", "u1", model.RoleAdmin)
	tr.addRoom("room-1", "house-1", "湖景房")
	tr.addBed("bed-1", "room-1", "house-1", "大床", true)

	historySvc := NewHistoryService(tr.repo, 10, zap.NewNop())
	svc := NewExportService(tr.repo, historySvc, zap.NewNop())
	return svc, tr
}

func TestExportService_ExportHistoryStats(t *testing.T) {
	svc, tr := setupTestExportService(t)
	ctx := context.Background()

	if _, _, err := svc.ExportHistoryStats(ctx, "house-1", "u1"); !errors.Is(err, ErrExportNoData) {
		t.Errorf("无历史数据，期望 ErrExportNoData，实际: %v", err)
	}

	tr.addWindow("win-1", "house-1", model.WindowStatusClosed, weekendFriday.AddDate(0, 0, -7))
	seedClaim(tr, "win-1", "bed-1", "u1")

	buf, filename, err := svc.ExportHistoryStats(ctx, "house-1", "u1")
	if err != nil {
		t.Fatalf("ExportHistoryStats 应成功: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("导出内容不应为空")
	}
	if !strings.Contains(filename, "Mökki") || !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名错误: %s", filename)
	}
}

func TestExportService_ExportWindowClaims(t *testing.T) {
	svc, tr := setupTestExportService(t)
	ctx := context.Background()

	tr.addWindow("win-1", "house-1", model.WindowStatusClosed, weekendFriday)
	tr.addWindow("win-other", "house-2", model.WindowStatusClosed, weekendFriday)

	if _, _, err := svc.ExportWindowClaims(ctx, "house-1", "win-other", "u1"); !errors.Is(err, ErrWindowNotInHouse) {
		t.Errorf("跨 house 窗口，期望 ErrWindowNotInHouse，实际: %v", err)
	}

	if _, _, err := svc.ExportWindowClaims(ctx, "house-1", "win-1", "u1"); !errors.Is(err, ErrExportNoData) {
		t.Errorf("无认领的窗口，期望 ErrExportNoData，实际: %v", err)
	}

	seedClaim(tr, "win-1", "bed-1", "u1")

	buf, filename, err := svc.ExportWindowClaims(ctx, "house-1", "win-1", "u1")
	if err != nil {
		t.Fatalf("ExportWindowClaims 应成功: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("导出内容不应为空")
	}
	if filename != "认领明细_2026-09-04.xlsx" {
		t.Errorf("文件名错误: %s", filename)
	}
}
