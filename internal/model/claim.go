package model

// BedClaim 床位认领表 — 对应 bed_claims
// 两条唯一约束是分配器并发安全的全部依据：
//   (window_id, bed_id)  一个窗口内一张床至多一条认领
//   (window_id, user_id) 一个窗口内一个用户至多一条认领
// co_claimer 附着在同一行上，不占用额外认领名额
type BedClaim struct {
	ClaimID     string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"            json:"claim_id"`
	WindowID    string  `gorm:"type:uuid;not null;uniqueIndex:uq_bed_claims_window_bed;uniqueIndex:uq_bed_claims_window_user" json:"window_id"`
	BedID       string  `gorm:"type:uuid;not null;uniqueIndex:uq_bed_claims_window_bed"   json:"bed_id"`
	HouseID     string  `gorm:"type:uuid;not null"                                        json:"house_id"`
	UserID      string  `gorm:"type:uuid;not null;uniqueIndex:uq_bed_claims_window_user"  json:"user_id"`
	CoClaimerID *string `gorm:"type:uuid"                                                 json:"co_claimer_id,omitempty"`
	StayID      *string `gorm:"type:uuid"                                                 json:"stay_id,omitempty"`
	BaseModel

	// 关联
	Bed       *Bed          `gorm:"foreignKey:BedID;references:BedID"            json:"bed,omitempty"`
	Window    *SignupWindow `gorm:"foreignKey:WindowID;references:WindowID"      json:"window,omitempty"`
	User      *User         `gorm:"foreignKey:UserID;references:UserID"          json:"user,omitempty"`
	CoClaimer *User         `gorm:"foreignKey:CoClaimerID;references:UserID"     json:"co_claimer,omitempty"`
}

func (BedClaim) TableName() string { return "bed_claims" }
