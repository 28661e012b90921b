package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"mokki/backend/internal/service"
	"mokki/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportHistoryStats 导出历史认领统计
// GET /api/v1/houses/:house_id/export/stats
func (h *ExportHandler) ExportHistoryStats(c *gin.Context) {
	houseID, ok := MustGetHouseID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportHistoryStats(c.Request.Context(), houseID, callerID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	writeXLSX(c, buf.Bytes(), filename)
}

// ExportWindowClaims 导出单个窗口的认领明细
// GET /api/v1/houses/:house_id/export/windows/:window_id
func (h *ExportHandler) ExportWindowClaims(c *gin.Context) {
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

	buf, filename, err := h.exportSvc.ExportWindowClaims(c.Request.Context(), houseID, windowID, callerID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	writeXLSX(c, buf.Bytes(), filename)
}

// writeXLSX 设置下载响应头并写入 Excel 内容
func writeXLSX(c *gin.Context, data []byte, filename string) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", xlsxContentType)
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	if houseScopeError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrExportNoData):
		response.NotFound(c, 17001, "暂无可导出的数据")
	case errors.Is(err, service.ErrWindowNotFound):
		response.NotFound(c, 14001, "报名窗口不存在")
	case errors.Is(err, service.ErrWindowNotInHouse):
		response.NotFound(c, 14004, "报名窗口不属于该度假屋")
	default:
		response.InternalError(c)
	}
}
