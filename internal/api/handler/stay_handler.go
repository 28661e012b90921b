package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"mokki/backend/internal/dto"
	"mokki/backend/internal/service"
	"mokki/backend/pkg/response"
)

// StayHandler 入住记录 HTTP 处理器
type StayHandler struct {
	staySvc service.StayService
}

// NewStayHandler 创建 StayHandler
func NewStayHandler(staySvc service.StayService) *StayHandler {
	return &StayHandler{staySvc: staySvc}
}

// CreateStay 创建入住记录（可顺带认领床位）
// POST /api/v1/houses/:house_id/stays
func (h *StayHandler) CreateStay(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}

	var req dto.CreateStayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	stay, err := h.staySvc.Create(c.Request.Context(), houseID, &req, callerID)
	if err != nil {
		h.handleStayError(c, err)
		return
	}

	response.Created(c, stay)
}

// GetStay 获取入住记录详情
// GET /api/v1/houses/:house_id/stays/:stay_id
func (h *StayHandler) GetStay(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	stayID := c.Param("stay_id")
	if stayID == "" {
		response.BadRequest(c, 10001, "stay_id 不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	stay, err := h.staySvc.GetByID(c.Request.Context(), houseID, stayID, callerID)
	if err != nil {
		h.handleStayError(c, err)
		return
	}

	response.OK(c, stay)
}

// ListStays 获取 house 全部入住记录
// GET /api/v1/houses/:house_id/stays
func (h *StayHandler) ListStays(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	stays, err := h.staySvc.ListByHouse(c.Request.Context(), houseID, callerID)
	if err != nil {
		h.handleStayError(c, err)
		return
	}

	response.OK(c, gin.H{"list": stays})
}

// ListMyStays 获取自己参与的入住记录
// GET /api/v1/houses/:house_id/stays/me
func (h *StayHandler) ListMyStays(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	stays, err := h.staySvc.ListMine(c.Request.Context(), houseID, callerID)
	if err != nil {
		h.handleStayError(c, err)
		return
	}

	response.OK(c, gin.H{"list": stays})
}

// UpdateStay 更新入住记录
// PUT /api/v1/houses/:house_id/stays/:stay_id
func (h *StayHandler) UpdateStay(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	stayID := c.Param("stay_id")
	if stayID == "" {
		response.BadRequest(c, 10001, "stay_id 不能为空")
		return
	}

	var req dto.UpdateStayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	stay, err := h.staySvc.Update(c.Request.Context(), houseID, stayID, &req, callerID)
	if err != nil {
		h.handleStayError(c, err)
		return
	}

	response.OK(c, stay)
}

// DeleteStay 删除入住记录（关联认领一并释放）
// DELETE /api/v1/houses/:house_id/stays/:stay_id
func (h *StayHandler) DeleteStay(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	stayID := c.Param("stay_id")
	if stayID == "" {
		response.BadRequest(c, 10001, "stay_id 不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.staySvc.Delete(c.Request.Context(), houseID, stayID, callerID); err != nil {
		h.handleStayError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleStayError 统一处理入住模块业务错误（含联动认领错误）
func (h *StayHandler) handleStayError(c *gin.Context, err error) {
	if houseScopeError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrStayNotFound):
		response.NotFound(c, 16001, "入住记录不存在")
	case errors.Is(err, service.ErrNotStayOwner):
		response.Forbidden(c, 16002, "只能操作自己的入住记录")
	case errors.Is(err, service.ErrStayDateInvalid):
		response.BadRequest(c, 16003, "入住日期无效")
	case errors.Is(err, service.ErrCoBookerInvalid):
		response.BadRequest(c, 16004, "同行人不是该度假屋成员")
	case errors.Is(err, service.ErrWindowNotOpen):
		response.PreconditionFailed(c, 15001, "报名窗口未开启")
	case errors.Is(err, service.ErrBedTaken):
		response.Conflict(c, 15002, "床位已被认领")
	case errors.Is(err, service.ErrAlreadyClaimed):
		response.Conflict(c, 15003, "你在本窗口已有认领")
	case errors.Is(err, service.ErrBedNotFound):
		response.NotFound(c, 13002, "床位不存在")
	case errors.Is(err, service.ErrBedNotInHouse):
		response.NotFound(c, 13004, "床位不属于该度假屋")
	default:
		response.InternalError(c)
	}
}
