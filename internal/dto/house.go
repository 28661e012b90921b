package dto

// ── 度假屋模块 DTO ──

// CreateHouseRequest 创建度假屋请求（创建者自动成为 admin）
type CreateHouseRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100"`
}

// AddMemberRequest 添加成员请求
type AddMemberRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Role   string `json:"role"    binding:"omitempty,oneof=admin member"`
}

// UpdateMemberRoleRequest 调整成员角色请求
type UpdateMemberRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin member"`
}

// HouseResponse 度假屋信息响应
type HouseResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// MemberResponse 成员信息响应
type MemberResponse struct {
	MemberID string `json:"member_id"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
