package dto

// ── 床位认领 DTO ──

// ClaimBedRequest 认领床位请求
type ClaimBedRequest struct {
	WindowID string `json:"window_id" binding:"required,uuid"`
	BedID    string `json:"bed_id"    binding:"required,uuid"`
}

// AttachCoClaimerRequest 附加同床人请求
type AttachCoClaimerRequest struct {
	CoClaimerID string `json:"co_claimer_id" binding:"required,uuid"`
}

// ClaimResponse 认领信息响应
type ClaimResponse struct {
	ID          string `json:"id"`
	WindowID    string `json:"window_id"`
	BedID       string `json:"bed_id"`
	BedName     string `json:"bed_name,omitempty"`
	RoomName    string `json:"room_name,omitempty"`
	UserID      string `json:"user_id"`
	CoClaimerID string `json:"co_claimer_id,omitempty"`
	StayID      string `json:"stay_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}
