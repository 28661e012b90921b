package dto

// ── 历史统计 DTO ──

// UserClaimStats 单个用户的历史认领统计
type UserClaimStats struct {
	UserID        string         `json:"user_id"`
	UserName      string         `json:"user_name,omitempty"`
	TotalClaims   int            `json:"total_claims"`
	ClaimsByRoom  map[string]int `json:"claims_by_room"`
	PremiumClaims int            `json:"premium_claims"`
}

// HistoryStatsResponse 历史统计响应
type HistoryStatsResponse struct {
	WindowsCounted int              `json:"windows_counted"`
	Stats          []UserClaimStats `json:"stats"`
}

// WindowHistoryEntry 单个已关闭窗口的历史条目
type WindowHistoryEntry struct {
	Window WindowResponse  `json:"window"`
	Claims []ClaimResponse `json:"claims"`
}
