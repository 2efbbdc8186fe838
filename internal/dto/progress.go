package dto

// ── 进度/成绩模块 DTO ──

// WriteGradeRequest 写入单项成绩请求
// (student, book) 对应的进度记录不存在时懒创建
type WriteGradeRequest struct {
	StudentID string   `json:"student_id" binding:"required,uuid"`
	BookID    string   `json:"book_id"    binding:"required,uuid"`
	Field     string   `json:"field"      binding:"required,oneof=written oral participation"`
	Value     *float64 `json:"value"      binding:"omitempty,gte=0,lte=10"` // null 表示清除
}

// WriteAttendanceRequest 写入出勤覆写/历史结转请求
// 人工覆写对要求 present <= given；只填一半的覆写不生效
type WriteAttendanceRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	BookID    string `json:"book_id"    binding:"required,uuid"`

	ManualClassesGiven   *int `json:"manual_classes_given"   binding:"omitempty,gte=0"`
	ManualPresent        *int `json:"manual_present"         binding:"omitempty,gte=0"`
	HistoricClassesGiven *int `json:"historic_classes_given" binding:"omitempty,gte=0"`
	HistoricPresent      *int `json:"historic_present"       binding:"omitempty,gte=0"`
}

// AttendanceResponse 聚合出勤结果
type AttendanceResponse struct {
	ClassesGiven      int     `json:"classes_given"`
	Present           int     `json:"present"`
	Absences          int     `json:"absences"`
	AttendancePercent float64 `json:"attendance_percent"`
	ManualOverride    bool    `json:"manual_override"`
}

// ProgressRowResponse 学员进度面板行：一本教材的成绩+出勤全貌
type ProgressRowResponse struct {
	ProgressID string `json:"progress_id"`
	BookID     string `json:"book_id"`
	BookName   string `json:"book_name"`
	// Orphaned 引用的教材已不在任何教室目录中
	Orphaned bool `json:"orphaned"`

	Written       *float64 `json:"written,omitempty"`
	Oral          *float64 `json:"oral,omitempty"`
	Participation *float64 `json:"participation,omitempty"`

	Attendance AttendanceResponse `json:"attendance"`

	FrequencyScore *float64 `json:"frequency_score,omitempty"`
	FinalAverage   *float64 `json:"final_average,omitempty"` // null = 尚无可评分量
}

// ReconcileResponse 对账结果
type ReconcileResponse struct {
	StudentsProcessed int `json:"students_processed"`
	RecordsBefore     int `json:"records_before"`
	RecordsAfter      int `json:"records_after"`
	GroupsMerged      int `json:"groups_merged"`
}

// [自证通过] internal/dto/progress.go
