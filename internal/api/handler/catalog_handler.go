package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"mokki/backend/internal/dto"
	"mokki/backend/internal/service"
	"mokki/backend/pkg/response"
)

// CatalogHandler 房间/床位目录 HTTP 处理器
type CatalogHandler struct {
	catalogSvc service.CatalogService
}

// NewCatalogHandler 创建 CatalogHandler
func NewCatalogHandler(catalogSvc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

// ListRooms 获取房间列表（嵌套床位）
// GET /api/v1/houses/:house_id/rooms
func (h *CatalogHandler) ListRooms(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	rooms, err := h.catalogSvc.ListRooms(c.Request.Context(), houseID, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, gin.H{"list": rooms})
}

// CreateRoom 创建房间（admin）
// POST /api/v1/houses/:house_id/rooms
func (h *CatalogHandler) CreateRoom(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}

	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	room, err := h.catalogSvc.CreateRoom(c.Request.Context(), houseID, &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.Created(c, room)
}

// UpdateRoom 更新房间（admin）
// PUT /api/v1/houses/:house_id/rooms/:room_id
func (h *CatalogHandler) UpdateRoom(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	roomID := c.Param("room_id")
	if roomID == "" {
		response.BadRequest(c, 10001, "room_id 不能为空")
		return
	}

	var req dto.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	room, err := h.catalogSvc.UpdateRoom(c.Request.Context(), houseID, roomID, &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, room)
}

// DeleteRoom 删除房间（admin，床位级联删除）
// DELETE /api/v1/houses/:house_id/rooms/:room_id
func (h *CatalogHandler) DeleteRoom(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	roomID := c.Param("room_id")
	if roomID == "" {
		response.BadRequest(c, 10001, "room_id 不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.catalogSvc.DeleteRoom(c.Request.Context(), houseID, roomID, callerID); err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, nil)
}

// CreateBed 创建床位（admin）
// POST /api/v1/houses/:house_id/beds
func (h *CatalogHandler) CreateBed(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}

	var req dto.CreateBedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	bed, err := h.catalogSvc.CreateBed(c.Request.Context(), houseID, &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.Created(c, bed)
}

// UpdateBed 更新床位（admin）
// PUT /api/v1/houses/:house_id/beds/:bed_id
func (h *CatalogHandler) UpdateBed(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	bedID := c.Param("bed_id")
	if bedID == "" {
		response.BadRequest(c, 10001, "bed_id 不能为空")
		return
	}

	var req dto.UpdateBedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	bed, err := h.catalogSvc.UpdateBed(c.Request.Context(), houseID, bedID, &req, callerID)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, bed)
}

// DeleteBed 删除床位（admin，该床认领级联删除）
// DELETE /api/v1/houses/:house_id/beds/:bed_id
func (h *CatalogHandler) DeleteBed(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	bedID := c.Param("bed_id")
	if bedID == "" {
		response.BadRequest(c, 10001, "bed_id 不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.catalogSvc.DeleteBed(c.Request.Context(), houseID, bedID, callerID); err != nil {
		h.handleCatalogError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleCatalogError 统一处理目录模块业务错误
func (h *CatalogHandler) handleCatalogError(c *gin.Context, err error) {
	if houseScopeError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, 13001, "房间不存在")
	case errors.Is(err, service.ErrBedNotFound):
		response.NotFound(c, 13002, "床位不存在")
	case errors.Is(err, service.ErrRoomNotInHouse):
		response.NotFound(c, 13003, "房间不属于该度假屋")
	case errors.Is(err, service.ErrBedNotInHouse):
		response.NotFound(c, 13004, "床位不属于该度假屋")
	default:
		response.InternalError(c)
	}
}
