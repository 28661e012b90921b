package model

import "time"

// 床位/窗口的状态与类型枚举值
const (
	RoleAdmin  = "admin"
	RoleMember = "member"

	RoomTypeBedroom  = "bedroom"
	RoomTypeBunkRoom = "bunk_room"

	WindowStatusScheduled = "scheduled"
	WindowStatusOpen      = "open"
	WindowStatusClosed    = "closed"
)

// BedTypes 合法床型
var BedTypes = []string{"king", "queen", "full", "twin"}

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}
