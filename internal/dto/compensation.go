package dto

// ── 薪酬模块 DTO ──

// FixedCompResponse 固定薪资教室的月度奖金
type FixedCompResponse struct {
	BonusTotal            float64 `json:"bonus_total"`
	FrequentStudentCount  int     `json:"frequent_student_count"`
	TotalEligibleStudents int     `json:"total_eligible_students"`
	QuotaMet              bool    `json:"quota_met"`
}

// HourlyCompResponse 课时费教室的月度结算
type HourlyCompResponse struct {
	HourlyBonusTotal float64 `json:"hourly_bonus_total"`
	TotalHours       float64 `json:"total_hours"`
}

// CompensationResponse 月度薪酬汇算结果
type CompensationResponse struct {
	Month  string             `json:"month"` // "2024-03"
	Kind   string             `json:"kind,omitempty"`
	Fixed  FixedCompResponse  `json:"fixed"`
	Hourly HourlyCompResponse `json:"hourly"`
	Total  float64            `json:"total"`
}

// AtRiskStudentResponse 低频预警学员：当月所有教材出勤率均低于 50%
type AtRiskStudentResponse struct {
	StudentID   string  `json:"student_id"`
	FullName    string  `json:"full_name"`
	RoomName    string  `json:"room_name"`
	BestPercent float64 `json:"best_percent"` // 当月表现最好的教材出勤率
}

// ── 薪酬参数 DTO ──

// UpdateSettingsRequest 更新薪酬参数请求
type UpdateSettingsRequest struct {
	BonusPerStudent     *float64 `json:"bonus_per_student"     binding:"omitempty,gte=0"`
	MinFrequentStudents *int     `json:"min_frequent_students" binding:"omitempty,gte=0"`
	HourlyRate          *float64 `json:"hourly_rate"           binding:"omitempty,gte=0"`
}

// SettingsResponse 薪酬参数响应
type SettingsResponse struct {
	BonusPerStudent     float64 `json:"bonus_per_student"`
	MinFrequentStudents int     `json:"min_frequent_students"`
	HourlyRate          float64 `json:"hourly_rate"`
}

// [自证通过] internal/dto/compensation.go
