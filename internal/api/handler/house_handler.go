package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"mokki/backend/internal/dto"
	"mokki/backend/internal/service"
	"mokki/backend/pkg/response"
)

// HouseHandler 度假屋模块 HTTP 处理器
type HouseHandler struct {
	houseSvc service.HouseService
}

// NewHouseHandler 创建 HouseHandler
func NewHouseHandler(houseSvc service.HouseService) *HouseHandler {
	return &HouseHandler{houseSvc: houseSvc}
}

// houseScopeError 处理所有模块共享的 house 归属/权限错误。
// 返回 true 表示已写入响应，调用方直接 return
func houseScopeError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrHouseNotFound):
		response.NotFound(c, 12001, "度假屋不存在")
	case errors.Is(err, service.ErrNotHouseMember):
		response.Forbidden(c, 12002, "不是该度假屋成员")
	case errors.Is(err, service.ErrNotHouseAdmin):
		response.Forbidden(c, 12003, "需要管理员权限")
	default:
		return false
	}
	return true
}

// CreateHouse 创建度假屋
// POST /api/v1/houses
func (h *HouseHandler) CreateHouse(c *gin.Context) {
	var req dto.CreateHouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	house, err := h.houseSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleHouseError(c, err)
		return
	}

	response.Created(c, house)
}

// GetHouse 获取度假屋详情
// GET /api/v1/houses/:house_id
func (h *HouseHandler) GetHouse(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	house, err := h.houseSvc.GetByID(c.Request.Context(), houseID, callerID)
	if err != nil {
		h.handleHouseError(c, err)
		return
	}

	response.OK(c, house)
}

// ListMembers 获取成员列表
// GET /api/v1/houses/:house_id/members
func (h *HouseHandler) ListMembers(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	members, err := h.houseSvc.ListMembers(c.Request.Context(), houseID, callerID)
	if err != nil {
		h.handleHouseError(c, err)
		return
	}

	response.OK(c, gin.H{"list": members})
}

// AddMember 添加成员（admin）
// POST /api/v1/houses/:house_id/members
func (h *HouseHandler) AddMember(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}

	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	member, err := h.houseSvc.AddMember(c.Request.Context(), houseID, &req, callerID)
	if err != nil {
		h.handleHouseError(c, err)
		return
	}

	response.Created(c, member)
}

// UpdateMemberRole 调整成员角色（admin）
// PUT /api/v1/houses/:house_id/members/:member_id/role
func (h *HouseHandler) UpdateMemberRole(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	memberID := c.Param("member_id")
	if memberID == "" {
		response.BadRequest(c, 10001, "member_id 不能为空")
		return
	}

	var req dto.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.houseSvc.UpdateMemberRole(c.Request.Context(), houseID, memberID, &req, callerID); err != nil {
		h.handleHouseError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleHouseError 统一处理度假屋模块业务错误
func (h *HouseHandler) handleHouseError(c *gin.Context, err error) {
	if houseScopeError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrMemberExists):
		response.Conflict(c, 12004, "用户已是该度假屋成员")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12005, "用户不存在")
	default:
		response.InternalError(c)
	}
}
