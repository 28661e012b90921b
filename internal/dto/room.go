package dto

// ── 房间/床位目录 DTO ──

// CreateRoomRequest 创建房间请求
type CreateRoomRequest struct {
	Name         string `json:"name"          binding:"required,min=1,max=100"`
	RoomType     string `json:"room_type"     binding:"required,oneof=bedroom bunk_room"`
	DisplayOrder int    `json:"display_order" binding:"omitempty,min=0"`
}

// UpdateRoomRequest 更新房间请求
type UpdateRoomRequest struct {
	Name         *string `json:"name"          binding:"omitempty,min=1,max=100"`
	RoomType     *string `json:"room_type"     binding:"omitempty,oneof=bedroom bunk_room"`
	DisplayOrder *int    `json:"display_order" binding:"omitempty,min=0"`
}

// CreateBedRequest 创建床位请求
type CreateBedRequest struct {
	RoomID       string `json:"room_id"       binding:"required,uuid"`
	Name         string `json:"name"          binding:"required,min=1,max=100"`
	BedType      string `json:"bed_type"      binding:"required,oneof=king queen full twin"`
	IsPremium    bool   `json:"is_premium"`
	DisplayOrder int    `json:"display_order" binding:"omitempty,min=0"`
}

// UpdateBedRequest 更新床位请求
type UpdateBedRequest struct {
	Name         *string `json:"name"          binding:"omitempty,min=1,max=100"`
	BedType      *string `json:"bed_type"      binding:"omitempty,oneof=king queen full twin"`
	IsPremium    *bool   `json:"is_premium"`
	DisplayOrder *int    `json:"display_order" binding:"omitempty,min=0"`
}

// BedResponse 床位信息响应
type BedResponse struct {
	ID           string `json:"id"`
	RoomID       string `json:"room_id"`
	Name         string `json:"name"`
	BedType      string `json:"bed_type"`
	IsPremium    bool   `json:"is_premium"`
	DisplayOrder int    `json:"display_order"`
}

// RoomResponse 房间信息响应（嵌套床位，按 display_order 排序）
type RoomResponse struct {
	ID           string        `json:"id"`
	HouseID      string        `json:"house_id"`
	Name         string        `json:"name"`
	RoomType     string        `json:"room_type"`
	DisplayOrder int           `json:"display_order"`
	Beds         []BedResponse `json:"beds"`
}
