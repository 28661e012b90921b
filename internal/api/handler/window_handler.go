package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"mokki/backend/internal/dto"
	"mokki/backend/internal/service"
	"mokki/backend/pkg/response"
)

// WindowHandler 报名窗口 HTTP 处理器
type WindowHandler struct {
	windowSvc service.WindowService
}

// NewWindowHandler 创建 WindowHandler
func NewWindowHandler(windowSvc service.WindowService) *WindowHandler {
	return &WindowHandler{windowSvc: windowSvc}
}

// CreateWindow 创建报名窗口（admin）
// POST /api/v1/houses/:house_id/windows
func (h *WindowHandler) CreateWindow(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}

	var req dto.CreateWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	window, err := h.windowSvc.Create(c.Request.Context(), houseID, &req, callerID)
	if err != nil {
		h.handleWindowError(c, err)
		return
	}

	response.Created(c, window)
}

// GetWindow 获取窗口详情
// GET /api/v1/houses/:house_id/windows/:window_id
func (h *WindowHandler) GetWindow(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	windowID := c.Param("window_id")
	if windowID == "" {
		response.BadRequest(c, 10001, "window_id 不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	window, err := h.windowSvc.GetByID(c.Request.Context(), houseID, windowID, callerID)
	if err != nil {
		h.handleWindowError(c, err)
		return
	}

	response.OK(c, window)
}

// GetActiveWindow 获取当前 open 窗口（没有时 data 为 null）
// GET /api/v1/houses/:house_id/windows/active
func (h *WindowHandler) GetActiveWindow(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	window, err := h.windowSvc.GetActive(c.Request.Context(), houseID, callerID)
	if err != nil {
		h.handleWindowError(c, err)
		return
	}

	response.OK(c, window)
}

// GetNextWindow 获取下一个 scheduled 窗口（没有时 data 为 null）
// GET /api/v1/houses/:house_id/windows/next
func (h *WindowHandler) GetNextWindow(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	window, err := h.windowSvc.GetNextScheduled(c.Request.Context(), houseID, callerID)
	if err != nil {
		h.handleWindowError(c, err)
		return
	}

	response.OK(c, window)
}

// CheckWindowForDates 判断日期区间是否命中 open 窗口
// GET /api/v1/houses/:house_id/windows/check?check_in=2026-09-04&check_out=2026-09-06
func (h *WindowHandler) CheckWindowForDates(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	checkIn := c.Query("check_in")
	checkOut := c.Query("check_out")
	if checkIn == "" || checkOut == "" {
		response.BadRequest(c, 10001, "check_in / check_out 不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.windowSvc.GetForDates(c.Request.Context(), houseID, checkIn, checkOut, callerID)
	if err != nil {
		h.handleWindowError(c, err)
		return
	}

	response.OK(c, result)
}

// CloseWindow 手动关闭窗口（admin，幂等）
// PUT /api/v1/houses/:house_id/windows/:window_id/close
func (h *WindowHandler) CloseWindow(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	windowID := c.Param("window_id")
	if windowID == "" {
		response.BadRequest(c, 10001, "window_id 不能为空")
		return
	}

	// body 可省略，reason 为空时 Service 层用默认文案
	var req dto.CloseWindowRequest
	_ = c.ShouldBindJSON(&req)

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	window, err := h.windowSvc.Close(c.Request.Context(), houseID, windowID, req.Reason, callerID)
	if err != nil {
		h.handleWindowError(c, err)
		return
	}

	response.OK(c, window)
}

// handleWindowError 统一处理窗口模块业务错误
func (h *WindowHandler) handleWindowError(c *gin.Context, err error) {
	if houseScopeError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrWindowNotFound):
		response.NotFound(c, 14001, "报名窗口不存在")
	case errors.Is(err, service.ErrWindowExists):
		response.Conflict(c, 14002, "该周末已有报名窗口")
	case errors.Is(err, service.ErrWindowDateInvalid):
		response.BadRequest(c, 14003, "日期无效：目标周末起始日必须是周五")
	case errors.Is(err, service.ErrWindowNotInHouse):
		response.NotFound(c, 14004, "报名窗口不属于该度假屋")
	default:
		response.InternalError(c)
	}
}
