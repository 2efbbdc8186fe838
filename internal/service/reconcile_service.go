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

// ── 对账模块业务错误 ──

var (
	ErrReconcileStudentNotFound = errors.New("学员不存在")
)

// ReconcileService 进度对账业务接口
//
// 对账保证每个学员每个"教材身份"（归一化名称）至多一条进度记录。
// 批量变更（导入、转班、跨教室恢复）后调用，恢复记录库不变量。
// 幂等：对已对账的列表重复执行是空操作。
type ReconcileService interface {
	// ReconcileStudent 对单个学员执行对账
	ReconcileStudent(ctx context.Context, studentID string) (*dto.ReconcileResponse, error)
	// ReconcileAll 对全量学员执行对账
	ReconcileAll(ctx context.Context) (*dto.ReconcileResponse, error)
	// ReconcileRoom 对某教室的全部学员执行对账（教室恢复后的收尾）
	ReconcileRoom(ctx context.Context, roomID string) (*dto.ReconcileResponse, error)
}

type reconcileService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewReconcileService 创建 ReconcileService 实例
func NewReconcileService(repo *repository.Repository, logger *zap.Logger) ReconcileService {
	return &reconcileService{repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════
// 合并算法（纯函数部分）
// ════════════════════════════════════════════════════════════

// catalogEntry 全局教材目录条目：bookId → (归一化名称, 所属教室)
type catalogEntry struct {
	key    string
	roomID string
}

const orphanKeyPrefix = "orphaned_book_"

// buildCatalog 以全量教材目录构建 bookId → 条目映射
func buildCatalog(books []model.Book) map[string]catalogEntry {
	catalog := make(map[string]catalogEntry, len(books))
	for i := range books {
		catalog[books[i].BookID] = catalogEntry{
			key:    books[i].Key(),
			roomID: books[i].RoomID,
		}
	}
	return catalog
}

// groupKeyFor 进度记录的分组键。
// 目录中找不到的 bookId 不丢弃：以 orphaned_book_<id> 自成单例组，
// 前端显示为"未归属"，引用失效被容忍而非致命。
func groupKeyFor(p *model.Progress, catalog map[string]catalogEntry) string {
	if entry, ok := catalog[p.BookID]; ok {
		return entry.key
	}
	return orphanKeyPrefix + p.BookID
}

// mergeGroup 将同一教材身份的多条进度记录合并为一条。
//
// 目标记录：组内 bookId 属于学员当前教室教材列表的条目；
// 没有则取迭代顺序的最后一条（视为最新）。
//
// 成绩分量：目标为空时从其余条目依次补位（先写先得，不覆盖非空值）。
// 人工/历史出勤对：各字段独立取组内最大值，绝不相加——重复记录
// 描述的是同一段历史，较大的计数是更完整的那份。
func mergeGroup(group []*model.Progress, currentRoomBooks map[string]bool) (target *model.Progress, removed []string) {
	target = group[len(group)-1]
	for _, p := range group {
		if currentRoomBooks[p.BookID] {
			target = p
			break
		}
	}

	for _, p := range group {
		if p == target {
			continue
		}
		for _, f := range []model.GradeField{model.GradeWritten, model.GradeOral, model.GradeParticipation} {
			if target.GradeValue(f) == nil && p.GradeValue(f) != nil {
				v := *p.GradeValue(f)
				target.SetGradeValue(f, &v)
			}
		}
		removed = append(removed, p.ProgressID)
	}

	for _, p := range group {
		target.ManualClassesGiven = maxIntPtr(target.ManualClassesGiven, p.ManualClassesGiven)
		target.ManualPresent = maxIntPtr(target.ManualPresent, p.ManualPresent)
		target.HistoricClassesGiven = maxIntPtr(target.HistoricClassesGiven, p.HistoricClassesGiven)
		target.HistoricPresent = maxIntPtr(target.HistoricPresent, p.HistoricPresent)
	}

	return target, removed
}

// reconcileProgressList 对一个学员的进度列表执行对账。
// 返回保留的记录（含被合并修改的目标）、应删除的记录 ID、合并组数。
func reconcileProgressList(
	list []model.Progress,
	catalog map[string]catalogEntry,
	currentRoomBooks map[string]bool,
) (kept []*model.Progress, removedIDs []string, groupsMerged int) {
	groups := make(map[string][]*model.Progress)
	var order []string
	for i := range list {
		key := groupKeyFor(&list[i], catalog)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], &list[i])
	}

	for _, key := range order {
		group := groups[key]
		if len(group) == 1 {
			kept = append(kept, group[0])
			continue
		}
		target, removed := mergeGroup(group, currentRoomBooks)
		kept = append(kept, target)
		removedIDs = append(removedIDs, removed...)
		groupsMerged++
	}

	return kept, removedIDs, groupsMerged
}

func maxIntPtr(a, b *int) *int {
	if a == nil && b == nil {
		return nil
	}
	v := 0
	if a != nil {
		v = *a
	}
	if b != nil && *b > v {
		v = *b
	}
	return &v
}

// ════════════════════════════════════════════════════════════
// 对外入口（持久化部分）
// ════════════════════════════════════════════════════════════

func (s *reconcileService) ReconcileStudent(ctx context.Context, studentID string) (*dto.ReconcileResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReconcileStudentNotFound
		}
		s.logger.Error("查询学员失败", zap.String("id", studentID), zap.Error(err))
		return nil, err
	}

	books, err := s.repo.Book.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询教材目录失败", zap.Error(err))
		return nil, err
	}
	catalog := buildCatalog(books)

	resp := &dto.ReconcileResponse{StudentsProcessed: 1}
	if err := s.reconcileOne(ctx, s.repo, student, catalog, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *reconcileService) ReconcileAll(ctx context.Context) (*dto.ReconcileResponse, error) {
	students, err := s.repo.Student.ListAllWithProgress(ctx)
	if err != nil {
		s.logger.Error("查询学员列表失败", zap.Error(err))
		return nil, err
	}
	return s.reconcileMany(ctx, students)
}

func (s *reconcileService) ReconcileRoom(ctx context.Context, roomID string) (*dto.ReconcileResponse, error) {
	students, err := s.repo.Student.ListAllWithProgress(ctx)
	if err != nil {
		s.logger.Error("查询学员列表失败", zap.Error(err))
		return nil, err
	}
	var roomStudents []model.Student
	for i := range students {
		if students[i].RoomID != nil && *students[i].RoomID == roomID {
			roomStudents = append(roomStudents, students[i])
		}
	}
	return s.reconcileMany(ctx, roomStudents)
}

func (s *reconcileService) reconcileMany(ctx context.Context, students []model.Student) (*dto.ReconcileResponse, error) {
	books, err := s.repo.Book.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询教材目录失败", zap.Error(err))
		return nil, err
	}
	catalog := buildCatalog(books)

	resp := &dto.ReconcileResponse{}
	for i := range students {
		resp.StudentsProcessed++
		if err := s.reconcileOne(ctx, s.repo, &students[i], catalog, resp); err != nil {
			return nil, err
		}
	}

	s.logger.Info("全量对账完成",
		zap.Int("students", resp.StudentsProcessed),
		zap.Int("merged_groups", resp.GroupsMerged),
		zap.Int("removed", resp.RecordsBefore-resp.RecordsAfter),
	)
	return resp, nil
}

// reconcileOne 对单个学员执行对账并持久化（删除被并掉的行 + 更新目标行）
func (s *reconcileService) reconcileOne(
	ctx context.Context,
	repo *repository.Repository,
	student *model.Student,
	catalog map[string]catalogEntry,
	resp *dto.ReconcileResponse,
) error {
	currentRoomBooks := make(map[string]bool)
	if student.RoomID != nil {
		for id, entry := range catalog {
			if entry.roomID == *student.RoomID {
				currentRoomBooks[id] = true
			}
		}
	}

	kept, removedIDs, merged := reconcileProgressList(student.Progresses, catalog, currentRoomBooks)
	resp.RecordsBefore += len(student.Progresses)
	resp.RecordsAfter += len(kept)
	resp.GroupsMerged += merged

	if len(removedIDs) == 0 {
		return nil // 已对账，空操作
	}

	// 删除与更新必须原子：中途失败会留下重复键，破坏记录库不变量
	err := repo.Transact(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Progress.DeleteByIDs(ctx, removedIDs); err != nil {
			s.logger.Error("删除重复进度失败", zap.String("student", student.StudentID), zap.Error(err))
			return err
		}
		for _, p := range kept {
			if err := txRepo.Progress.Update(ctx, p); err != nil {
				s.logger.Error("更新合并目标失败", zap.String("progress", p.ProgressID), zap.Error(err))
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("学员进度对账完成",
		zap.String("student", student.StudentID),
		zap.Int("merged_groups", merged),
		zap.Int("removed", len(removedIDs)),
	)
	return nil
}

// [自证通过] internal/service/reconcile_service.go
