package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"classtrack/backend/internal/dto"
	"classtrack/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestTransferService() (TransferService, *testRepos) {
	tr := newTestRepos()
	reconcile := NewReconcileService(tr.repo, zap.NewNop())
	svc := NewTransferService(tr.repo, reconcile, zap.NewNop())
	return svc, tr
}

// ── 同级转班 ──

func TestTransfer_SameLevel_MergesByMaxNotSum(t *testing.T) {
	svc, tr := setupTestTransferService()
	ctx := context.Background()

	roomA, bookA := seedRoomWithBook(tr, "Sala A", "Book 3: Intermediário")
	roomB, bookB := seedRoomWithBook(tr, "Sala B", "book 3 intermediario")

	student := &model.Student{FullName: "Ana", RoomID: &roomA.RoomID, EnrollmentStatus: model.EnrollmentActive}
	tr.student.Create(ctx, student)
	tr.progress.Create(ctx, &model.Progress{
		StudentID:            student.StudentID,
		BookID:               bookA.BookID,
		Written:              floatPtr(8),
		HistoricClassesGiven: intPtr(6),
		HistoricPresent:      intPtr(4),
	})

	// 转班单据带新历史 (12,10)：视为已含旧历史，取大不相加
	resp, err := svc.Transfer(ctx, student.StudentID, &dto.TransferStudentRequest{
		ToRoomID:             roomB.RoomID,
		ToBookID:             bookB.BookID,
		PreserveGrades:       true,
		HistoricClassesGiven: intPtr(12),
		HistoricPresent:      intPtr(10),
	})
	if err != nil {
		t.Fatalf("转班应成功: %v", err)
	}
	if !resp.SameLevel {
		t.Error("归一化名称相同应判定为同级转班")
	}

	remaining := tr.progress.listFor(student.StudentID)
	if len(remaining) != 1 {
		t.Fatalf("转班后应只有1条进度，实际=%d", len(remaining))
	}
	got := remaining[0]
	if got.BookID != bookB.BookID {
		t.Errorf("进度应改指目标教材，实际=%s", got.BookID)
	}
	if got.Written == nil || *got.Written != 8 {
		t.Errorf("成绩应保留8，实际=%v", got.Written)
	}
	if *got.HistoricClassesGiven != 12 || *got.HistoricPresent != 10 {
		t.Errorf("历史出勤应取大为 (12,10) 而非相加 (18,14)，实际=(%d,%d)",
			*got.HistoricClassesGiven, *got.HistoricPresent)
	}

	moved, _ := tr.student.GetByID(ctx, student.StudentID)
	if moved.RoomID == nil || *moved.RoomID != roomB.RoomID {
		t.Error("学员应移入目标教室")
	}
	if moved.EnrollmentStatus != model.EnrollmentInternalTransfer {
		t.Errorf("在读状态应为 internal_transfer，实际=%s", moved.EnrollmentStatus)
	}
}

func TestTransfer_FreshRecord_DiscardsColliding(t *testing.T) {
	svc, tr := setupTestTransferService()
	ctx := context.Background()

	roomA, bookA := seedRoomWithBook(tr, "Sala A", "Book 3")
	roomB, bookB := seedRoomWithBook(tr, "Sala B", "book 3")

	student := &model.Student{FullName: "Bruno", RoomID: &roomA.RoomID, EnrollmentStatus: model.EnrollmentActive}
	tr.student.Create(ctx, student)
	old := &model.Progress{
		StudentID: student.StudentID,
		BookID:    bookA.BookID,
		Written:   floatPtr(9),
	}
	tr.progress.Create(ctx, old)

	// 不保留成绩：旧记录丢弃，新记录只带单据上的历史出勤
	resp, err := svc.Transfer(ctx, student.StudentID, &dto.TransferStudentRequest{
		ToRoomID:             roomB.RoomID,
		ToBookID:             bookB.BookID,
		PreserveGrades:       false,
		HistoricClassesGiven: intPtr(7),
		HistoricPresent:      intPtr(5),
	})
	if err != nil {
		t.Fatalf("转班应成功: %v", err)
	}

	remaining := tr.progress.listFor(student.StudentID)
	if len(remaining) != 1 {
		t.Fatalf("转班后应只有1条进度，实际=%d", len(remaining))
	}
	got := remaining[0]
	if got.ProgressID == old.ProgressID {
		t.Error("应新建记录而非复用旧记录")
	}
	if got.Written != nil {
		t.Errorf("新记录不应携带旧成绩，实际=%v", *got.Written)
	}
	if *got.HistoricClassesGiven != 7 || *got.HistoricPresent != 5 {
		t.Errorf("期望历史出勤 (7,5)，实际=(%d,%d)", *got.HistoricClassesGiven, *got.HistoricPresent)
	}
	if resp.ProgressID != got.ProgressID {
		t.Errorf("响应应返回新进度 ID")
	}
}

func TestTransfer_NoCollision_CreatesAlongside(t *testing.T) {
	svc, tr := setupTestTransferService()
	ctx := context.Background()

	roomA, bookA := seedRoomWithBook(tr, "Sala A", "Book 3")
	roomB, bookB := seedRoomWithBook(tr, "Sala B", "Book 7")

	student := &model.Student{FullName: "Carla", RoomID: &roomA.RoomID, EnrollmentStatus: model.EnrollmentActive}
	tr.student.Create(ctx, student)
	tr.progress.Create(ctx, &model.Progress{StudentID: student.StudentID, BookID: bookA.BookID, Written: floatPtr(6)})

	resp, err := svc.Transfer(ctx, student.StudentID, &dto.TransferStudentRequest{
		ToRoomID: roomB.RoomID,
		ToBookID: bookB.BookID,
	})
	if err != nil {
		t.Fatalf("转班应成功: %v", err)
	}
	if resp.SameLevel {
		t.Error("不同教材身份不应判定为同级转班")
	}
	// 旧教材进度无冲突，保留
	if len(tr.progress.listFor(student.StudentID)) != 2 {
		t.Errorf("期望2条进度（旧教材+新教材），实际=%d", len(tr.progress.listFor(student.StudentID)))
	}
}

// ── 校验 ──

func TestTransfer_Validation(t *testing.T) {
	svc, tr := setupTestTransferService()
	ctx := context.Background()

	roomA, _ := seedRoomWithBook(tr, "Sala A", "Book 1")
	roomB, bookB := seedRoomWithBook(tr, "Sala B", "Book 2")

	student := &model.Student{FullName: "Davi", RoomID: &roomA.RoomID, EnrollmentStatus: model.EnrollmentActive}
	tr.student.Create(ctx, student)

	if _, err := svc.Transfer(ctx, student.StudentID, &dto.TransferStudentRequest{
		ToRoomID: roomB.RoomID, ToBookID: bookB.BookID,
		HistoricClassesGiven: intPtr(3), HistoricPresent: intPtr(5),
	}); !errors.Is(err, ErrTransferAttendancePair) {
		t.Errorf("到课数超过上课数应拒绝，实际: %v", err)
	}

	if _, err := svc.Transfer(ctx, "ghost", &dto.TransferStudentRequest{
		ToRoomID: roomB.RoomID, ToBookID: bookB.BookID,
	}); !errors.Is(err, ErrTransferStudentNotFound) {
		t.Errorf("期望 ErrTransferStudentNotFound，实际: %v", err)
	}

	if _, err := svc.Transfer(ctx, student.StudentID, &dto.TransferStudentRequest{
		ToRoomID: "ghost", ToBookID: bookB.BookID,
	}); !errors.Is(err, ErrTransferRoomNotFound) {
		t.Errorf("期望 ErrTransferRoomNotFound，实际: %v", err)
	}

	// 教材属于别的教室
	if _, err := svc.Transfer(ctx, student.StudentID, &dto.TransferStudentRequest{
		ToRoomID: roomA.RoomID, ToBookID: bookB.BookID,
	}); !errors.Is(err, ErrTransferBookNotInRoom) {
		t.Errorf("期望 ErrTransferBookNotInRoom，实际: %v", err)
	}
}

// [自证通过] internal/service/transfer_service_test.go
