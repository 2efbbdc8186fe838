package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"classtrack/backend/internal/dto"
	"classtrack/backend/internal/model"
	"classtrack/backend/internal/repository"
	"classtrack/backend/pkg/normalize"
)

// ── 进度/成绩模块业务错误 ──

var (
	ErrProgressStudentNotFound = errors.New("学员不存在")
	ErrProgressBookNotFound    = errors.New("教材不存在")
	ErrGradeFieldInvalid       = errors.New("无效的成绩分量")
	ErrGradeOutOfRange         = errors.New("成绩必须在 0-10 之间")
	ErrAttendancePairInvalid   = errors.New("到课数不能超过上课数")
)

// ProgressService 进度/成绩业务接口
type ProgressService interface {
	// WriteGrade 写入单项成绩；进度记录不存在时懒创建
	WriteGrade(ctx context.Context, req *dto.WriteGradeRequest) (*dto.ProgressRowResponse, error)
	// WriteAttendance 写入人工覆写/历史结转出勤对
	WriteAttendance(ctx context.Context, req *dto.WriteAttendanceRequest) (*dto.ProgressRowResponse, error)
	// Board 学员进度面板：每本教材一行，成绩 + 出勤 + 最终均分
	Board(ctx context.Context, studentID string) ([]dto.ProgressRowResponse, error)
}

type progressService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewProgressService 创建 ProgressService 实例
func NewProgressService(repo *repository.Repository, logger *zap.Logger) ProgressService {
	return &progressService{repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════
// 成绩组装算法（纯函数部分）
// ════════════════════════════════════════════════════════════

// frequencyScore 出勤率折算为 0-10 分制分量。
// 仅当出勤有信号（classesGiven > 0）时参与均分；
// 无任何分量时教材"不可评分"，均分为空。
func frequencyScore(att dto.AttendanceResponse) *float64 {
	if att.ClassesGiven == 0 {
		return nil
	}
	v := att.AttendancePercent / 10
	return &v
}

// finalAverage 收集 {笔试, 口语, 课堂参与, 出勤分} 中的非空分量求均值。
// 只有出勤分也能产出均分——这是有意的行为，不是缺陷：
// 一本只有出勤信号的教材同样可评。
func finalAverage(p *model.Progress, freq *float64) *float64 {
	var values []float64
	if p != nil {
		for _, f := range []model.GradeField{model.GradeWritten, model.GradeOral, model.GradeParticipation} {
			if v := p.GradeValue(f); v != nil {
				values = append(values, *v)
			}
		}
	}
	if freq != nil {
		values = append(values, *freq)
	}
	if len(values) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	avg := sum / float64(len(values))
	return &avg
}

// ════════════════════════════════════════════════════════════
// 写入入口
// ════════════════════════════════════════════════════════════

func (s *progressService) WriteGrade(ctx context.Context, req *dto.WriteGradeRequest) (*dto.ProgressRowResponse, error) {
	field := model.GradeField(req.Field)
	if !field.Valid() {
		return nil, ErrGradeFieldInvalid
	}
	if req.Value != nil && (*req.Value < 0 || *req.Value > 10) {
		return nil, ErrGradeOutOfRange
	}

	p, book, err := s.getOrCreateProgress(ctx, req.StudentID, req.BookID)
	if err != nil {
		return nil, err
	}

	p.SetGradeValue(field, req.Value)
	if err := s.repo.Progress.Update(ctx, p); err != nil {
		s.logger.Error("写入成绩失败", zap.String("progress", p.ProgressID), zap.Error(err))
		return nil, err
	}

	return s.buildRow(ctx, p, book)
}

func (s *progressService) WriteAttendance(ctx context.Context, req *dto.WriteAttendanceRequest) (*dto.ProgressRowResponse, error) {
	// 校验先于写入：非法出勤对整体拒绝，不产生部分写入
	if req.ManualClassesGiven != nil && req.ManualPresent != nil &&
		*req.ManualPresent > *req.ManualClassesGiven {
		return nil, ErrAttendancePairInvalid
	}
	if req.HistoricClassesGiven != nil && req.HistoricPresent != nil &&
		*req.HistoricPresent > *req.HistoricClassesGiven {
		return nil, ErrAttendancePairInvalid
	}

	p, book, err := s.getOrCreateProgress(ctx, req.StudentID, req.BookID)
	if err != nil {
		return nil, err
	}

	if req.ManualClassesGiven != nil || req.ManualPresent != nil {
		p.ManualClassesGiven = req.ManualClassesGiven
		p.ManualPresent = req.ManualPresent
	}
	if req.HistoricClassesGiven != nil || req.HistoricPresent != nil {
		p.HistoricClassesGiven = req.HistoricClassesGiven
		p.HistoricPresent = req.HistoricPresent
	}

	if err := s.repo.Progress.Update(ctx, p); err != nil {
		s.logger.Error("写入出勤失败", zap.String("progress", p.ProgressID), zap.Error(err))
		return nil, err
	}

	return s.buildRow(ctx, p, book)
}

// getOrCreateProgress 取或懒创建 (学员, 教材) 的进度记录。
// 进度在首次写入成绩/出勤时才产生，这是记录的生命周期起点。
func (s *progressService) getOrCreateProgress(ctx context.Context, studentID, bookID string) (*model.Progress, *model.Book, error) {
	if _, err := s.repo.Student.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProgressStudentNotFound
		}
		s.logger.Error("查询学员失败", zap.String("id", studentID), zap.Error(err))
		return nil, nil, err
	}
	book, err := s.repo.Book.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProgressBookNotFound
		}
		s.logger.Error("查询教材失败", zap.String("id", bookID), zap.Error(err))
		return nil, nil, err
	}

	p, err := s.repo.Progress.GetByStudentAndBook(ctx, studentID, bookID)
	if err == nil {
		return p, book, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询进度失败", zap.Error(err))
		return nil, nil, err
	}

	p = &model.Progress{StudentID: studentID, BookID: bookID}
	if err := s.repo.Progress.Create(ctx, p); err != nil {
		s.logger.Error("创建进度失败", zap.Error(err))
		return nil, nil, err
	}
	return p, book, nil
}

// ════════════════════════════════════════════════════════════
// 进度面板
// ════════════════════════════════════════════════════════════

func (s *progressService) Board(ctx context.Context, studentID string) ([]dto.ProgressRowResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProgressStudentNotFound
		}
		s.logger.Error("查询学员失败", zap.String("id", studentID), zap.Error(err))
		return nil, err
	}

	books, err := s.repo.Book.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询教材目录失败", zap.Error(err))
		return nil, err
	}
	byID := make(map[string]*model.Book, len(books))
	for i := range books {
		byID[books[i].BookID] = &books[i]
	}

	rows := make([]dto.ProgressRowResponse, 0, len(student.Progresses))
	for i := range student.Progresses {
		p := &student.Progresses[i]
		row, err := s.buildRow(ctx, p, byID[p.BookID])
		if err != nil {
			return nil, err
		}
		rows = append(rows, *row)
	}
	return rows, nil
}

// buildRow 组装单行：出勤聚合 → 出勤分 → 最终均分。
// book 为 nil 表示孤儿引用：显示为未归属，出勤按零课次计算。
func (s *progressService) buildRow(ctx context.Context, p *model.Progress, book *model.Book) (*dto.ProgressRowResponse, error) {
	var sessions []model.Session
	bookName := ""
	orphaned := true

	if book != nil {
		orphaned = false
		bookName = book.Name

		room, err := s.repo.Room.GetByID(ctx, book.RoomID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询教室失败", zap.String("id", book.RoomID), zap.Error(err))
			return nil, err
		}
		if err == nil {
			all, err := s.repo.Session.List(ctx, repository.SessionFilter{
				RoomName:      room.Name,
				OnlyCountable: true,
			})
			if err != nil {
				s.logger.Error("查询课次失败", zap.String("room", room.Name), zap.Error(err))
				return nil, err
			}
			key := book.Key()
			for i := range all {
				if normalize.BookKey(all[i].BookName) == key {
					sessions = append(sessions, all[i])
				}
			}
		}
	}

	att := aggregateAttendance(p, sessions, p.StudentID)
	freq := frequencyScore(att)

	return &dto.ProgressRowResponse{
		ProgressID:     p.ProgressID,
		BookID:         p.BookID,
		BookName:       bookName,
		Orphaned:       orphaned,
		Written:        p.Written,
		Oral:           p.Oral,
		Participation:  p.Participation,
		Attendance:     att,
		FrequencyScore: freq,
		FinalAverage:   finalAverage(p, freq),
	}, nil
}

// [自证通过] internal/service/progress_service.go
