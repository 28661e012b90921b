package dto

// ── 入住记录 DTO ──

// CreateStayRequest 创建入住记录请求
// BedID 非空且日期命中 open 窗口时，顺带认领床位
type CreateStayRequest struct {
	CheckIn    string  `json:"check_in"     binding:"required"` // "2026-09-04"
	CheckOut   string  `json:"check_out"    binding:"required"`
	GuestCount int     `json:"guest_count"  binding:"omitempty,min=0"`
	Notes      string  `json:"notes"        binding:"omitempty,max=500"`
	CoBookerID *string `json:"co_booker_id" binding:"omitempty,uuid"`
	BedID      *string `json:"bed_id"       binding:"omitempty,uuid"`
	GuestFee   *CreateExpenseRequest `json:"guest_fee"`
}

// UpdateStayRequest 更新入住记录请求
// BedID 变化时释放旧认领并认领新床位；CoBookerID 变化会同步到认领行，
// RemoveCoBooker 为 true 时移除同行人（并清空认领行上的同床人）
type UpdateStayRequest struct {
	CheckIn        *string `json:"check_in"`
	CheckOut       *string `json:"check_out"`
	GuestCount     *int    `json:"guest_count"      binding:"omitempty,min=0"`
	Notes          *string `json:"notes"            binding:"omitempty,max=500"`
	CoBookerID     *string `json:"co_booker_id"     binding:"omitempty,uuid"`
	RemoveCoBooker bool    `json:"remove_co_booker"`
	BedID          *string `json:"bed_id"           binding:"omitempty,uuid"`
}

// CreateExpenseRequest 客人费用请求（金额由客户端计算）
type CreateExpenseRequest struct {
	Amount      float64 `json:"amount"      binding:"required,min=0"`
	Description string  `json:"description" binding:"omitempty,max=200"`
}

// StayResponse 入住记录响应
type StayResponse struct {
	ID         string `json:"id"`
	HouseID    string `json:"house_id"`
	UserID     string `json:"user_id"`
	CoBookerID string `json:"co_booker_id,omitempty"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	GuestCount int    `json:"guest_count"`
	Notes      string `json:"notes,omitempty"`
	ExpenseID  string `json:"expense_id,omitempty"`
	BedClaimID string `json:"bed_claim_id,omitempty"`
}
