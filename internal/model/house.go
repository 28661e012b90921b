package model

// House 度假屋表 — 对应 houses
// 所有房间、床位、窗口、认领均归属唯一的 house
type House struct {
	HouseID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"house_id"`
	Name    string `gorm:"type:varchar(100);not null"                     json:"name"`
	BaseModel
}

func (House) TableName() string { return "houses" }

// HouseMember 成员表 — 对应 house_members
// role 决定目录管理与窗口管理权限
type HouseMember struct {
	MemberID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"     json:"member_id"`
	HouseID  string `gorm:"type:uuid;not null;uniqueIndex:uq_house_members_house_user" json:"house_id"`
	UserID   string `gorm:"type:uuid;not null;uniqueIndex:uq_house_members_house_user" json:"user_id"`
	Role     string `gorm:"type:varchar(20);not null;default:'member'"         json:"role"` // admin | member
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

func (HouseMember) TableName() string { return "house_members" }
