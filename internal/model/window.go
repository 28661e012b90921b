package model

import "time"

// SignupWindow 报名窗口表 — 对应 signup_windows
// 生命周期 scheduled → open → closed（closed 为终态）
// 同一 house 同一目标周末至多一个窗口（唯一约束）
// 同一 house 同一时刻至多一个 open 窗口（部分唯一索引）
type SignupWindow struct {
	WindowID           string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"                         json:"window_id"`
	HouseID            string     `gorm:"type:uuid;not null;uniqueIndex:uq_signup_windows_house_weekend"         json:"house_id"`
	TargetWeekendStart time.Time  `gorm:"type:date;not null;uniqueIndex:uq_signup_windows_house_weekend"         json:"target_weekend_start"` // 目标周末的周五
	OpensAt            time.Time  `gorm:"not null"                                                               json:"opens_at"`
	ClosedAt           *time.Time `json:"closed_at,omitempty"`
	Status             string     `gorm:"type:varchar(20);not null;default:'scheduled'"                          json:"status"` // scheduled | open | closed
	CloseReason        string     `gorm:"type:varchar(200)"                                                      json:"close_reason,omitempty"`
	BaseModel

	// 关联
	Claims []BedClaim `gorm:"foreignKey:WindowID" json:"claims,omitempty"`
}

func (SignupWindow) TableName() string { return "signup_windows" }

// TargetWeekendEnd 目标周末的周日（周五 + 2 天）
func (w *SignupWindow) TargetWeekendEnd() time.Time {
	return w.TargetWeekendStart.AddDate(0, 0, 2)
}

// OverlapsDates 目标周末与 [checkIn, checkOut] 是否有交集
func (w *SignupWindow) OverlapsDates(checkIn, checkOut time.Time) bool {
	return !checkIn.After(w.TargetWeekendEnd()) && !checkOut.Before(w.TargetWeekendStart)
}
