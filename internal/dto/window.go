package dto

// ── 报名窗口 DTO ──

// CreateWindowRequest 创建报名窗口请求
type CreateWindowRequest struct {
	TargetWeekendStart string `json:"target_weekend_start" binding:"required"` // "2026-09-04"（周五）
	OpensAt            string `json:"opens_at"             binding:"required"` // RFC 3339
}

// CloseWindowRequest 管理员手动关闭窗口请求
type CloseWindowRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=200"`
}

// WindowResponse 窗口信息响应
type WindowResponse struct {
	ID                 string `json:"id"`
	HouseID            string `json:"house_id"`
	TargetWeekendStart string `json:"target_weekend_start"`
	TargetWeekendEnd   string `json:"target_weekend_end"`
	OpensAt            string `json:"opens_at"`
	ClosedAt           string `json:"closed_at,omitempty"`
	Status             string `json:"status"`
	CloseReason        string `json:"close_reason,omitempty"`
	ClaimedBeds        int    `json:"claimed_beds"`
	TotalBeds          int    `json:"total_beds"`
}

// WindowForDatesResponse isWindowOpenForDates 查询响应
type WindowForDatesResponse struct {
	IsOpen bool            `json:"is_open"`
	Window *WindowResponse `json:"window,omitempty"`
}
