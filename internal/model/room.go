package model

// Room 房间表 — 对应 rooms
// 删除房间时级联删除其床位（外键 ON DELETE CASCADE）
type Room struct {
	RoomID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"room_id"`
	HouseID      string `gorm:"type:uuid;not null"                             json:"house_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	RoomType     string `gorm:"type:varchar(20);not null;default:'bedroom'"    json:"room_type"` // bedroom | bunk_room
	DisplayOrder int    `gorm:"not null;default:0"                             json:"display_order"`
	BaseModel

	// 关联
	Beds []Bed `gorm:"foreignKey:RoomID" json:"beds,omitempty"`
}

func (Room) TableName() string { return "rooms" }

// Bed 床位表 — 对应 beds
// house_id 冗余存储，避免认领路径上多一次 join
type Bed struct {
	BedID        string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"bed_id"`
	RoomID       string `gorm:"type:uuid;not null"                             json:"room_id"`
	HouseID      string `gorm:"type:uuid;not null;index"                       json:"house_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	BedType      string `gorm:"type:varchar(20);not null;default:'queen'"      json:"bed_type"` // king | queen | full | twin
	IsPremium    bool   `gorm:"not null;default:false"                         json:"is_premium"`
	DisplayOrder int    `gorm:"not null;default:0"                             json:"display_order"`
	BaseModel

	// 关联
	Room *Room `gorm:"foreignKey:RoomID;references:RoomID" json:"room,omitempty"`
}

func (Bed) TableName() string { return "beds" }
