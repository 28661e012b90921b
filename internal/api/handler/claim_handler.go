package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"mokki/backend/internal/dto"
	"mokki/backend/internal/service"
	"mokki/backend/pkg/response"
)

// ClaimHandler 床位认领 HTTP 处理器
type ClaimHandler struct {
	claimSvc service.ClaimService
}

// NewClaimHandler 创建 ClaimHandler
func NewClaimHandler(claimSvc service.ClaimService) *ClaimHandler {
	return &ClaimHandler{claimSvc: claimSvc}
}

// ClaimBed 认领床位
// POST /api/v1/houses/:house_id/claims
func (h *ClaimHandler) ClaimBed(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}

	var req dto.ClaimBedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	claim, err := h.claimSvc.ClaimBed(c.Request.Context(), houseID, &req, callerID)
	if err != nil {
		h.handleClaimError(c, err)
		return
	}

	response.Created(c, claim)
}

// ReleaseClaim 释放认领
// DELETE /api/v1/houses/:house_id/claims/:claim_id
func (h *ClaimHandler) ReleaseClaim(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	claimID := c.Param("claim_id")
	if claimID == "" {
		response.BadRequest(c, 10001, "claim_id 不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.claimSvc.ReleaseClaim(c.Request.Context(), houseID, claimID, callerID); err != nil {
		h.handleClaimError(c, err)
		return
	}

	response.OK(c, nil)
}

// AttachCoClaimer 附加同床人
// PUT /api/v1/houses/:house_id/claims/:claim_id/co-claimer
func (h *ClaimHandler) AttachCoClaimer(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	claimID := c.Param("claim_id")
	if claimID == "" {
		response.BadRequest(c, 10001, "claim_id 不能为空")
		return
	}

	var req dto.AttachCoClaimerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	claim, err := h.claimSvc.AttachCoClaimer(c.Request.Context(), houseID, claimID, &req, callerID)
	if err != nil {
		h.handleClaimError(c, err)
		return
	}

	response.OK(c, claim)
}

// ListWindowClaims 获取窗口的认领列表
// GET /api/v1/houses/:house_id/windows/:window_id/claims
func (h *ClaimHandler) ListWindowClaims(c *gin.Context) {
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

	claims, err := h.claimSvc.ListByWindow(c.Request.Context(), houseID, windowID, callerID)
	if err != nil {
		h.handleClaimError(c, err)
		return
	}

	response.OK(c, gin.H{"list": claims})
}

// GetMyClaim 获取自己在窗口内的认领（没有时 data 为 null）
// GET /api/v1/houses/:house_id/windows/:window_id/claims/me
func (h *ClaimHandler) GetMyClaim(c *gin.Context) {
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

	claim, err := h.claimSvc.GetMyClaim(c.Request.Context(), houseID, windowID, callerID)
	if err != nil {
		h.handleClaimError(c, err)
		return
	}

	response.OK(c, claim)
}

// ListEligibleCoClaimers 获取可选的同床人候选
// GET /api/v1/houses/:house_id/windows/:window_id/co-claimer-candidates
func (h *ClaimHandler) ListEligibleCoClaimers(c *gin.Context) {
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

	users, err := h.claimSvc.ListEligibleCoClaimers(c.Request.Context(), houseID, windowID, callerID)
	if err != nil {
		h.handleClaimError(c, err)
		return
	}

	response.OK(c, gin.H{"list": users})
}

// handleClaimError 统一处理认领模块业务错误
// 409 = 与他人竞争失败（换床重试可恢复），422 = 窗口状态已过期
func (h *ClaimHandler) handleClaimError(c *gin.Context, err error) {
	if houseScopeError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrWindowNotOpen):
		response.PreconditionFailed(c, 15001, "报名窗口未开启")
	case errors.Is(err, service.ErrBedTaken):
		response.Conflict(c, 15002, "床位已被认领")
	case errors.Is(err, service.ErrAlreadyClaimed):
		response.Conflict(c, 15003, "你在本窗口已有认领")
	case errors.Is(err, service.ErrClaimNotFound):
		response.NotFound(c, 15004, "认领记录不存在")
	case errors.Is(err, service.ErrNotClaimOwner):
		response.Forbidden(c, 15005, "只能操作自己的认领")
	case errors.Is(err, service.ErrCoClaimerIneligible):
		response.Conflict(c, 15006, "同床人不符合条件")
	case errors.Is(err, service.ErrWindowNotFound):
		response.NotFound(c, 14001, "报名窗口不存在")
	case errors.Is(err, service.ErrWindowNotInHouse):
		response.NotFound(c, 14004, "报名窗口不属于该度假屋")
	case errors.Is(err, service.ErrBedNotFound):
		response.NotFound(c, 13002, "床位不存在")
	case errors.Is(err, service.ErrBedNotInHouse):
		response.NotFound(c, 13004, "床位不属于该度假屋")
	default:
		response.InternalError(c)
	}
}
