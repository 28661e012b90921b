package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mokki/backend/internal/model"
	"mokki/backend/internal/repository"
)

// CalendarService 日历订阅业务接口
//
// 输出标准 iCalendar (RFC 5545)，成员可在日历客户端订阅：
//   - 每条入住记录一个全天事件（DTEND 按 ICS 惯例取退房日，开区间）
//   - 当前 open / 下一个 scheduled 窗口的目标周末各一个全天事件
type CalendarService interface {
	HouseFeed(ctx context.Context, houseID, callerID string) (string, error)
}

type calendarService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, logger: logger}
}

// ────────────────────── HouseFeed ──────────────────────

func (s *calendarService) HouseFeed(ctx context.Context, houseID, callerID string) (string, error) {
	if _, err := requireMember(ctx, s.repo, houseID, callerID); err != nil {
		return "", err
	}

	house, err := s.repo.House.GetByID(ctx, houseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrHouseNotFound
		}
		return "", err
	}

	// userID → 姓名，用于事件标题
	names := make(map[string]string)
	if members, err := s.repo.Member.ListByHouse(ctx, houseID); err == nil {
		for i := range members {
			if members[i].User != nil {
				names[members[i].UserID] = members[i].User.Name
			}
		}
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//mokki//signup//FI")
	cal.SetXWRCalName(house.Name)

	now := time.Now()

	stays, err := s.repo.Stay.ListByHouse(ctx, houseID)
	if err != nil {
		s.logger.Error("查询入住记录失败", zap.String("house_id", houseID), zap.Error(err))
		return "", err
	}
	for i := range stays {
		stay := &stays[i]

		name := names[stay.UserID]
		if name == "" {
			name = stay.UserID
		}
		summary := fmt.Sprintf("%s 入住", name)
		if stay.CoBookerID != nil {
			if coName := names[*stay.CoBookerID]; coName != "" {
				summary = fmt.Sprintf("%s & %s 入住", name, coName)
			}
		}

		ev := cal.AddEvent(fmt.Sprintf("stay-%s@mokki", stay.StayID))
		ev.SetDtStampTime(now)
		ev.SetAllDayStartAt(stay.CheckIn)
		ev.SetAllDayEndAt(stay.CheckOut) // DTEND 开区间：退房日当天不占用
		ev.SetSummary(summary)
		if stay.Notes != "" {
			ev.SetDescription(stay.Notes)
		}
	}

	s.addWindowEvent(ctx, cal, houseID, now)

	return cal.Serialize(), nil
}

// ── 内部辅助方法 ──

// addWindowEvent 把当前 open 窗口或下一个 scheduled 窗口的目标周末加进日历
func (s *calendarService) addWindowEvent(ctx context.Context, cal *ics.Calendar, houseID string, now time.Time) {
	window, err := s.repo.Window.GetActiveByHouse(ctx, houseID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return
		}
		window, err = s.repo.Window.GetNextScheduledByHouse(ctx, houseID, now)
		if err != nil {
			return
		}
	}

	summary := "床位报名周末"
	if window.Status == model.WindowStatusOpen {
		summary = "床位报名周末（报名中）"
	}

	ev := cal.AddEvent(fmt.Sprintf("window-%s@mokki", window.WindowID))
	ev.SetDtStampTime(now)
	ev.SetAllDayStartAt(window.TargetWeekendStart)
	ev.SetAllDayEndAt(window.TargetWeekendEnd().AddDate(0, 0, 1))
	ev.SetSummary(summary)
	ev.SetDescription(fmt.Sprintf("报名开启：%s", window.OpensAt.Format(time.RFC3339)))
}
