package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mokki/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoData       = errors.New("暂无可导出的数据")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 历史统计和单窗口认领明细导出为 Excel (.xlsx)
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportHistoryStats 导出历史认领统计为 Excel
	ExportHistoryStats(ctx context.Context, houseID, callerID string) (*bytes.Buffer, string, error)
	// ExportWindowClaims 导出单个窗口的认领明细为 Excel
	ExportWindowClaims(ctx context.Context, houseID, windowID, callerID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo       *repository.Repository
	historySvc HistoryService
	logger     *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, historySvc HistoryService, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, historySvc: historySvc, logger: logger}
}

// ────────────────────── ExportHistoryStats ──────────────────────

// 输出格式：
//   - 行：成员（按认领总数降序）
//   - 列：成员 | 认领总数 | 高级床位 | 各房间一列
func (s *exportService) ExportHistoryStats(ctx context.Context, houseID, callerID string) (*bytes.Buffer, string, error) {
	stats, err := s.historySvc.Stats(ctx, houseID, callerID)
	if err != nil {
		return nil, "", err
	}
	if len(stats.Stats) == 0 {
		return nil, "", ErrExportNoData
	}

	houseName := houseID
	if house, err := s.repo.House.GetByID(ctx, houseID); err == nil {
		houseName = house.Name
	}

	// 收集所有出现过的房间名作为动态列
	roomSet := make(map[string]bool)
	for _, st := range stats.Stats {
		for room := range st.ClaimsByRoom {
			roomSet[room] = true
		}
	}
	var roomNames []string
	for room := range roomSet {
		roomNames = append(roomNames, room)
	}
	sort.Strings(roomNames)

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "认领统计"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 16)
	f.SetColWidth(sheetName, "B", "C", 12)
	for i := range roomNames {
		col := colName(3 + i)
		f.SetColWidth(sheetName, col, col, 14)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — 床位认领统计（最近 %d 个窗口）", houseName, stats.WindowsCounted))
	f.MergeCell(sheetName, "A1", cell(colName(2+len(roomNames)), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "成员")
	f.SetCellValue(sheetName, cell("B", row), "认领总数")
	f.SetCellValue(sheetName, cell("C", row), "高级床位")
	for i, room := range roomNames {
		f.SetCellValue(sheetName, cell(colName(3+i), row), room)
	}

	// 数据行
	row = 3
	for _, st := range stats.Stats {
		name := st.UserName
		if name == "" {
			name = st.UserID
		}
		f.SetCellValue(sheetName, cell("A", row), name)
		f.SetCellValue(sheetName, cell("B", row), st.TotalClaims)
		f.SetCellValue(sheetName, cell("C", row), st.PremiumClaims)
		for i, room := range roomNames {
			if n, ok := st.ClaimsByRoom[room]; ok {
				f.SetCellValue(sheetName, cell(colName(3+i), row), n)
			} else {
				f.SetCellValue(sheetName, cell(colName(3+i), row), 0)
			}
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("床位认领统计_%s.xlsx", houseName)
	return buf, filename, nil
}

// ────────────────────── ExportWindowClaims ──────────────────────

// 输出格式：一行一条认领 | 房间 | 床位 | 认领人 | 同床人 | 认领时间
func (s *exportService) ExportWindowClaims(ctx context.Context, houseID, windowID, callerID string) (*bytes.Buffer, string, error) {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return nil, "", err
	}

	window, err := s.repo.Window.GetByID(ctx, windowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrWindowNotFound
		}
		return nil, "", err
	}
	if window.HouseID != houseID {
		return nil, "", ErrWindowNotInHouse
	}

	claims, err := s.repo.Claim.ListByWindow(ctx, windowID)
	if err != nil {
		s.logger.Error("查询认领明细失败", zap.String("window_id", windowID), zap.Error(err))
		return nil, "", err
	}
	if len(claims) == 0 {
		return nil, "", ErrExportNoData
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "认领明细"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "B", 14)
	f.SetColWidth(sheetName, "C", "D", 16)
	f.SetColWidth(sheetName, "E", "E", 22)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	weekend := window.TargetWeekendStart.Format(dateLayout)
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("周末 %s — 床位认领明细", weekend))
	f.MergeCell(sheetName, "A1", "E1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	row := 2
	f.SetCellValue(sheetName, cell("A", row), "房间")
	f.SetCellValue(sheetName, cell("B", row), "床位")
	f.SetCellValue(sheetName, cell("C", row), "认领人")
	f.SetCellValue(sheetName, cell("D", row), "同床人")
	f.SetCellValue(sheetName, cell("E", row), "认领时间")

	row = 3
	for i := range claims {
		c := &claims[i]

		roomName, bedName := "-", "-"
		if c.Bed != nil {
			bedName = c.Bed.Name
			if c.Bed.Room != nil {
				roomName = c.Bed.Room.Name
			}
		}
		userName := c.UserID
		if c.User != nil {
			userName = c.User.Name
		}
		coClaimerName := "-"
		if c.CoClaimer != nil {
			coClaimerName = c.CoClaimer.Name
		}

		f.SetCellValue(sheetName, cell("A", row), roomName)
		f.SetCellValue(sheetName, cell("B", row), bedName)
		f.SetCellValue(sheetName, cell("C", row), userName)
		f.SetCellValue(sheetName, cell("D", row), coClaimerName)
		f.SetCellValue(sheetName, cell("E", row), c.CreatedAt.Format("2006-01-02 15:04"))
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("认领明细_%s.xlsx", weekend)
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
