package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"classtrack/backend/internal/dto"
	"classtrack/backend/internal/model"
	"classtrack/backend/internal/repository"
	"classtrack/backend/pkg/normalize"
)

// ── 出勤模块业务错误 ──

var (
	ErrAttendanceStudentNotFound = errors.New("学员不存在")
	ErrAttendanceBookNotFound    = errors.New("教材不存在")
	ErrMonthFormatInvalid        = errors.New("月份格式无效，应为 YYYY-MM")
)

// 月度"高频学员"判定阈值：当月至少一本教材出勤率 ≥ 50%
const frequentThreshold = 50.0

// AttendanceService 出勤聚合业务接口
type AttendanceService interface {
	// Aggregate 计算 (学员, 教材) 的权威出勤读数
	Aggregate(ctx context.Context, studentID, bookID string) (*dto.AttendanceResponse, error)
	// ListAtRisk 列出某月所有教材出勤率均低于 50% 的学员
	ListAtRisk(ctx context.Context, month string) ([]dto.AtRiskStudentResponse, error)
}

type attendanceService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(repo *repository.Repository, logger *zap.Logger) AttendanceService {
	return &attendanceService{repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════
// 聚合算法（纯函数部分）
// ════════════════════════════════════════════════════════════

// aggregateAttendance 出勤读数裁决，优先级自上而下：
//
//  1. 人工覆写对完整（两个字段都填）→ 原样作为权威读数，
//     不与历史结转、课次日志做任何合成。
//  2. 否则 classesGiven = max(历史结转, 当期课次数)——两者可能
//     重叠描述同一段教学；attendancePresent = 历史结转 + 当期
//     到课数——历史早于课次日志，两者不相交，纯求和。
//  3. 钳制：present 超过 given 时压到 given。
func aggregateAttendance(p *model.Progress, bookSessions []model.Session, studentID string) dto.AttendanceResponse {
	var given, present int
	manual := false

	if p != nil && p.HasManualOverride() {
		manual = true
		given = *p.ManualClassesGiven
		present = *p.ManualPresent
	} else {
		sessionCount := 0
		presentCount := 0
		for i := range bookSessions {
			if !bookSessions[i].Countable() {
				continue
			}
			sessionCount++
			if bookSessions[i].PresentStudentIDs.Contains(studentID) {
				presentCount++
			}
		}

		historicGiven, historicPresent := 0, 0
		if p != nil {
			if p.HistoricClassesGiven != nil {
				historicGiven = *p.HistoricClassesGiven
			}
			if p.HistoricPresent != nil {
				historicPresent = *p.HistoricPresent
			}
		}

		given = historicGiven
		if sessionCount > given {
			given = sessionCount
		}
		present = historicPresent + presentCount
	}

	if present > given {
		present = given
	}

	percent := 0.0
	if given > 0 {
		percent = float64(present) / float64(given) * 100
	}

	return dto.AttendanceResponse{
		ClassesGiven:      given,
		Present:           present,
		Absences:          given - present,
		AttendancePercent: percent,
		ManualOverride:    manual,
	}
}

// bookRate 某月某教材的课次级出勤率
type bookRate struct {
	key     string
	given   int
	present int
}

func (r bookRate) percent() float64 {
	if r.given == 0 {
		return 0
	}
	return float64(r.present) / float64(r.given) * 100
}

// monthlyBookRates 按归一化教材名分组统计某学员当月的课次级出勤。
// sessions 须已按教室+月份过滤；只数已点名且非停课的课次。
// 月度判定只看当月课次数据，与教材级累计读数无关——奖金是月度
// 激励，成绩是累计评价，这一不对称是有意为之。
func monthlyBookRates(sessions []model.Session, studentID string) []bookRate {
	idx := make(map[string]int)
	var rates []bookRate
	for i := range sessions {
		if !sessions[i].Countable() {
			continue
		}
		key := normalize.BookKey(sessions[i].BookName)
		j, ok := idx[key]
		if !ok {
			j = len(rates)
			idx[key] = j
			rates = append(rates, bookRate{key: key})
		}
		rates[j].given++
		if sessions[i].PresentStudentIDs.Contains(studentID) {
			rates[j].present++
		}
	}
	return rates
}

// bestMonthlyRate 当月表现最好的教材出勤率；无课次返回 (0, false)
func bestMonthlyRate(sessions []model.Session, studentID string) (float64, bool) {
	rates := monthlyBookRates(sessions, studentID)
	if len(rates) == 0 {
		return 0, false
	}
	best := 0.0
	for _, r := range rates {
		if p := r.percent(); p > best {
			best = p
		}
	}
	return best, true
}

// parseMonth 解析 "YYYY-MM" 为该月首日（UTC 零点）
func parseMonth(month string) (time.Time, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, ErrMonthFormatInvalid
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
}

// monthRange 某月的 [首日, 次月首日) 区间
func monthRange(month time.Time) (from, to time.Time) {
	from = month
	to = month.AddDate(0, 1, 0)
	return from, to
}

// ════════════════════════════════════════════════════════════
// 对外入口
// ════════════════════════════════════════════════════════════

func (s *attendanceService) Aggregate(ctx context.Context, studentID, bookID string) (*dto.AttendanceResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttendanceStudentNotFound
		}
		s.logger.Error("查询学员失败", zap.String("id", studentID), zap.Error(err))
		return nil, err
	}

	book, err := s.repo.Book.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttendanceBookNotFound
		}
		s.logger.Error("查询教材失败", zap.String("id", bookID), zap.Error(err))
		return nil, err
	}

	var progress *model.Progress
	for i := range student.Progresses {
		if student.Progresses[i].BookID == bookID {
			progress = &student.Progresses[i]
			break
		}
	}

	sessions, err := s.sessionsForBook(ctx, book)
	if err != nil {
		return nil, err
	}

	result := aggregateAttendance(progress, sessions, studentID)
	return &result, nil
}

// sessionsForBook 取教材所属教室的课次并按归一化名称匹配教材。
// 教室缺失（已删除等）时返回空集：该项计算得零值，不中断整体。
func (s *attendanceService) sessionsForBook(ctx context.Context, book *model.Book) ([]model.Session, error) {
	room, err := s.repo.Room.GetByID(ctx, book.RoomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("查询教室失败", zap.String("id", book.RoomID), zap.Error(err))
		return nil, err
	}

	all, err := s.repo.Session.List(ctx, repository.SessionFilter{
		RoomName:      room.Name,
		OnlyCountable: true,
	})
	if err != nil {
		s.logger.Error("查询课次失败", zap.String("room", room.Name), zap.Error(err))
		return nil, err
	}

	// 课次按名称连接教材，须用归一化键匹配而非数据库 ID
	key := book.Key()
	var matched []model.Session
	for i := range all {
		if normalize.BookKey(all[i].BookName) == key {
			matched = append(matched, all[i])
		}
	}
	return matched, nil
}

func (s *attendanceService) ListAtRisk(ctx context.Context, month string) ([]dto.AtRiskStudentResponse, error) {
	m, err := parseMonth(month)
	if err != nil {
		return nil, err
	}
	from, to := monthRange(m)

	rooms, err := s.repo.Room.List(ctx)
	if err != nil {
		s.logger.Error("查询教室列表失败", zap.Error(err))
		return nil, err
	}

	var result []dto.AtRiskStudentResponse
	for i := range rooms {
		room := &rooms[i]
		if !room.EffectivelyActiveIn(m) {
			continue
		}

		sessions, err := s.repo.Session.List(ctx, repository.SessionFilter{
			RoomName:      room.Name,
			From:          &from,
			To:            &to,
			OnlyCountable: true,
		})
		if err != nil {
			s.logger.Error("查询课次失败", zap.String("room", room.Name), zap.Error(err))
			return nil, err
		}
		if len(sessions) == 0 {
			// 当月无课次的教室不参与预警
			continue
		}

		students, err := s.repo.Student.List(ctx, room.RoomID)
		if err != nil {
			s.logger.Error("查询学员列表失败", zap.String("room", room.RoomID), zap.Error(err))
			return nil, err
		}

		for j := range students {
			if students[j].EnrollmentStatus == model.EnrollmentExcluded {
				continue
			}
			best, ok := bestMonthlyRate(sessions, students[j].StudentID)
			if !ok || best >= frequentThreshold {
				continue
			}
			result = append(result, dto.AtRiskStudentResponse{
				StudentID:   students[j].StudentID,
				FullName:    students[j].FullName,
				RoomName:    room.Name,
				BestPercent: best,
			})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].BestPercent != result[j].BestPercent {
			return result[i].BestPercent < result[j].BestPercent
		}
		return result[i].FullName < result[j].FullName
	})

	return result, nil
}

// [自证通过] internal/service/attendance_service.go
