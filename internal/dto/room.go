package dto

// ── 教室模块 DTO ──

// CreateRoomRequest 创建教室请求
type CreateRoomRequest struct {
	Name           string   `json:"name"            binding:"required,min=1,max=120"`
	Kind           string   `json:"kind"            binding:"required,oneof=regular hourly"`
	StartDate      string   `json:"start_date"      binding:"required"` // "2024-02-01"
	HourlyDuration *float64 `json:"hourly_duration" binding:"omitempty,gt=0,lte=12"`
}

// UpdateRoomRequest 更新教室请求
type UpdateRoomRequest struct {
	Name           *string  `json:"name"            binding:"omitempty,min=1,max=120"`
	Kind           *string  `json:"kind"            binding:"omitempty,oneof=regular hourly"`
	StartDate      *string  `json:"start_date"`
	HourlyDuration *float64 `json:"hourly_duration" binding:"omitempty,gt=0,lte=12"`
}

// FinalizeRoomRequest 结课归档请求
type FinalizeRoomRequest struct {
	FinalizedAt string `json:"finalized_at" binding:"required"` // "2024-07-15"
	Reason      string `json:"reason"       binding:"omitempty,max=300"`
}

// RoomResponse 教室信息响应
type RoomResponse struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Kind           string         `json:"kind"`
	Status         string         `json:"status"`
	StartDate      string         `json:"start_date"`
	FinalizedAt    *string        `json:"finalized_at,omitempty"`
	FinalizeReason *string        `json:"finalize_reason,omitempty"`
	HourlyDuration *float64       `json:"hourly_duration,omitempty"`
	Books          []BookResponse `json:"books,omitempty"`
}

// ── 教材 DTO（隶属教室模块）──

// CreateBookRequest 创建教材请求
type CreateBookRequest struct {
	Name       string  `json:"name"        binding:"required,min=1,max=200"`
	StartMonth *string `json:"start_month" binding:"omitempty,len=7"` // "2024-02"
	EndMonth   *string `json:"end_month"   binding:"omitempty,len=7"`
}

// UpdateBookRequest 更新教材请求
type UpdateBookRequest struct {
	Name       *string `json:"name"        binding:"omitempty,min=1,max=200"`
	StartMonth *string `json:"start_month" binding:"omitempty,len=7"`
	EndMonth   *string `json:"end_month"   binding:"omitempty,len=7"`
}

// BookResponse 教材信息响应
type BookResponse struct {
	ID         string  `json:"id"`
	RoomID     string  `json:"room_id"`
	Name       string  `json:"name"`
	Key        string  `json:"key"` // 归一化连接键
	StartMonth *string `json:"start_month,omitempty"`
	EndMonth   *string `json:"end_month,omitempty"`
}

// [自证通过] internal/dto/room.go
