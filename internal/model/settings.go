package model

import "time"

// CompSettings 薪酬参数表 — 对应 comp_settings（单行配置）
type CompSettings struct {
	ID                  int       `gorm:"primaryKey;default:1"            json:"-"`
	BonusPerStudent     float64   `gorm:"type:numeric(10,2);not null"     json:"bonus_per_student"`
	MinFrequentStudents int       `gorm:"not null"                        json:"min_frequent_students"`
	HourlyRate          float64   `gorm:"type:numeric(10,2);not null"     json:"hourly_rate"`
	UpdatedAt           time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (CompSettings) TableName() string { return "comp_settings" }
