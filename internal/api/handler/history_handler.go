package handler

import (
	"github.com/gin-gonic/gin"

	"mokki/backend/internal/service"
	"mokki/backend/pkg/response"
)

// HistoryHandler 历史统计 HTTP 处理器
type HistoryHandler struct {
	historySvc service.HistoryService
}

// NewHistoryHandler 创建 HistoryHandler
func NewHistoryHandler(historySvc service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historySvc: historySvc}
}

// ListRecentWindows 获取最近已关闭窗口及认领明细
// GET /api/v1/houses/:house_id/history/windows
func (h *HistoryHandler) ListRecentWindows(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	entries, err := h.historySvc.RecentWindows(c.Request.Context(), houseID, callerID)
	if err != nil {
		if houseScopeError(c, err) {
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": entries})
}

// GetStats 获取按用户聚合的历史认领统计
// GET /api/v1/houses/:house_id/history/stats
func (h *HistoryHandler) GetStats(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	stats, err := h.historySvc.Stats(c.Request.Context(), houseID, callerID)
	if err != nil {
		if houseScopeError(c, err) {
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, stats)
}
