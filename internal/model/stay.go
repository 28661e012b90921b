package model

import "time"

// Stay 入住记录表 — 对应 stays
// 可选关联一条床位认领和一条客人费用支出；删除 stay 时由业务层
// 负责删除关联认领（释放床位），支出仅解除关联
type Stay struct {
	StayID     string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"stay_id"`
	HouseID    string    `gorm:"type:uuid;not null;index"                       json:"house_id"`
	UserID     string    `gorm:"type:uuid;not null;index"                       json:"user_id"`
	CoBookerID *string   `gorm:"type:uuid"                                      json:"co_booker_id,omitempty"`
	CheckIn    time.Time `gorm:"type:date;not null"                             json:"check_in"`
	CheckOut   time.Time `gorm:"type:date;not null"                             json:"check_out"`
	GuestCount int       `gorm:"not null;default:0"                             json:"guest_count"`
	Notes      string    `gorm:"type:varchar(500)"                              json:"notes,omitempty"`
	ExpenseID  *string   `gorm:"type:uuid"                                      json:"expense_id,omitempty"`
	BedClaimID *string   `gorm:"type:uuid"                                      json:"bed_claim_id,omitempty"`
	BaseModel

	// 关联
	BedClaim *BedClaim `gorm:"foreignKey:BedClaimID;references:ClaimID"  json:"bed_claim,omitempty"`
	Expense  *Expense  `gorm:"foreignKey:ExpenseID;references:ExpenseID" json:"expense,omitempty"`
}

func (Stay) TableName() string { return "stays" }

// Expense 支出表 — 对应 expenses
// 仅作为 stay 的客人费用关联目标，费用拆分不在本服务内计算
type Expense struct {
	ExpenseID   string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"expense_id"`
	HouseID     string  `gorm:"type:uuid;not null"                             json:"house_id"`
	PaidBy      string  `gorm:"type:uuid;not null"                             json:"paid_by"`
	Amount      float64 `gorm:"type:numeric(10,2);not null;default:0"          json:"amount"`
	Description string  `gorm:"type:varchar(200)"                              json:"description,omitempty"`
	Category    string  `gorm:"type:varchar(50);not null;default:'guest_fee'"  json:"category"`
	BaseModel
}

func (Expense) TableName() string { return "expenses" }
