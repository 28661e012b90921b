package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mokki/backend/internal/service"
	"mokki/backend/pkg/response"
)

// CalendarHandler 日历订阅 HTTP 处理器
type CalendarHandler struct {
	calendarSvc service.CalendarService
}

// NewCalendarHandler 创建 CalendarHandler
func NewCalendarHandler(calendarSvc service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc}
}

// GetHouseFeed 获取 house 的 iCalendar 订阅源
// GET /api/v1/houses/:house_id/calendar.ics
func (h *CalendarHandler) GetHouseFeed(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	feed, err := h.calendarSvc.HouseFeed(c.Request.Context(), houseID, callerID)
	if err != nil {
		if houseScopeError(c, err) {
			return
		}
		response.InternalError(c)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="mokki.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}
