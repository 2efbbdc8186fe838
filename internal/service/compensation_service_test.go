package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"classtrack/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestCompensationService() (CompensationService, *testRepos) {
	tr := newTestRepos()
	// Redis 缺席走降级路径，不影响汇算语义
	svc := NewCompensationService(tr.repo, nil, zap.NewNop())
	return svc, tr
}

func seedSettings(tr *testRepos, bonus float64, minFrequent int, hourlyRate float64) {
	tr.settings.Update(context.Background(), &model.CompSettings{
		BonusPerStudent:     bonus,
		MinFrequentStudents: minFrequent,
		HourlyRate:          hourlyRate,
	})
}

// seedMarchScenario 2024-03 标准场景：
// 固定教室 Sala A，5 次已点名课次（Book 1）。
// Ana 到 3 次（60% 高频），Bruno 到 2 次（40%），Carla excluded。
func seedMarchScenario(tr *testRepos) (ana, bruno *model.Student) {
	ctx := context.Background()
	room, _ := seedRoomWithBook(tr, "Sala A", "Book 1")

	ana = &model.Student{FullName: "Ana", RoomID: &room.RoomID, EnrollmentStatus: model.EnrollmentActive}
	bruno = &model.Student{FullName: "Bruno", RoomID: &room.RoomID, EnrollmentStatus: model.EnrollmentActive}
	carla := &model.Student{FullName: "Carla", RoomID: &room.RoomID, EnrollmentStatus: model.EnrollmentExcluded}
	tr.student.Create(ctx, ana)
	tr.student.Create(ctx, bruno)
	tr.student.Create(ctx, carla)

	dates := []string{"2024-03-04", "2024-03-06", "2024-03-11", "2024-03-13", "2024-03-18"}
	for i, d := range dates {
		var present []string
		if i < 3 {
			present = append(present, ana.StudentID)
		}
		if i < 2 {
			present = append(present, bruno.StudentID)
		}
		present = append(present, carla.StudentID)
		seedSession(tr, "Sala A", "Book 1", d, present...)
	}
	return ana, bruno
}

// ── 固定薪资部分 ──

func TestCompensation_QuotaNotMet_NothingPaid(t *testing.T) {
	svc, tr := setupTestCompensationService()
	seedSettings(tr, 50, 2, 100)
	seedMarchScenario(tr)

	got, err := svc.ComputeMonth(context.Background(), "2024-03", "")
	if err != nil {
		t.Fatalf("汇算应成功: %v", err)
	}
	if got.Fixed.FrequentStudentCount != 1 {
		t.Errorf("期望1名高频学员（Ana 60%%），实际=%d", got.Fixed.FrequentStudentCount)
	}
	if got.Fixed.TotalEligibleStudents != 2 {
		t.Errorf("excluded 学员不进分母，期望2，实际=%d", got.Fixed.TotalEligibleStudents)
	}
	// 配额闸门：1 < 2 → 一分不发，不按比例
	if got.Fixed.QuotaMet {
		t.Error("高频人数不足，配额不应达标")
	}
	if got.Fixed.BonusTotal != 0 {
		t.Errorf("配额未达标应发0，实际=%v", got.Fixed.BonusTotal)
	}
}

func TestCompensation_QuotaBoundary_ExactlyMet(t *testing.T) {
	svc, tr := setupTestCompensationService()
	// 阈值恰好等于高频人数：闸门放行
	seedSettings(tr, 50, 1, 100)
	seedMarchScenario(tr)

	got, err := svc.ComputeMonth(context.Background(), "2024-03", "")
	if err != nil {
		t.Fatalf("汇算应成功: %v", err)
	}
	if !got.Fixed.QuotaMet {
		t.Error("高频人数等于最低人数应达标")
	}
	if got.Fixed.BonusTotal != 50 {
		t.Errorf("期望奖金 1×50=50，实际=%v", got.Fixed.BonusTotal)
	}
	if got.Total != 50 {
		t.Errorf("期望总计50，实际=%v", got.Total)
	}
}

func TestCompensation_ZeroSessionRoomOutOfDenominator(t *testing.T) {
	svc, tr := setupTestCompensationService()
	seedSettings(tr, 50, 1, 100)
	seedMarchScenario(tr)

	// 第二间教室当月无课次：其学员既不算高频也不进分母
	ctx := context.Background()
	idle, _ := seedRoomWithBook(tr, "Sala B", "Book 2")
	tr.student.Create(ctx, &model.Student{FullName: "Davi", RoomID: &idle.RoomID, EnrollmentStatus: model.EnrollmentActive})

	got, err := svc.ComputeMonth(ctx, "2024-03", "")
	if err != nil {
		t.Fatalf("汇算应成功: %v", err)
	}
	if got.Fixed.TotalEligibleStudents != 2 {
		t.Errorf("零课次教室学员不进分母，期望2，实际=%d", got.Fixed.TotalEligibleStudents)
	}
}

func TestCompensation_FinalizedRoomStillCountsInActiveMonths(t *testing.T) {
	svc, tr := setupTestCompensationService()
	seedSettings(tr, 50, 1, 100)
	seedMarchScenario(tr)
	ctx := context.Background()

	// 教室四月中旬结课归档：三月、四月仍实际运营，五月不再计入
	room, _ := tr.room.GetByName(ctx, "Sala A")
	finalized := mustDate("2024-04-15")
	room.Status = model.RoomStatusFinalized
	room.FinalizedAt = &finalized
	tr.room.Update(ctx, room)

	march, err := svc.ComputeMonth(ctx, "2024-03", "")
	if err != nil {
		t.Fatalf("汇算应成功: %v", err)
	}
	if march.Fixed.FrequentStudentCount != 1 {
		t.Errorf("归档教室的历史运营月份仍计入，期望1，实际=%d", march.Fixed.FrequentStudentCount)
	}

	may, err := svc.ComputeMonth(ctx, "2024-05", "")
	if err != nil {
		t.Fatalf("汇算应成功: %v", err)
	}
	if may.Fixed.TotalEligibleStudents != 0 {
		t.Errorf("结课之后的月份不应计入，实际分母=%d", may.Fixed.TotalEligibleStudents)
	}
}

// ── 课时费部分 ──

func TestCompensation_HourlyRoomTotals(t *testing.T) {
	svc, tr := setupTestCompensationService()
	seedSettings(tr, 50, 99, 80)
	ctx := context.Background()

	dur := 1.5
	hourlyRoom := &model.Room{
		Name:           "Particular",
		Kind:           model.RoomKindHourly,
		Status:         model.RoomStatusActive,
		StartDate:      mustDate("2024-01-01"),
		HourlyDuration: &dur,
	}
	tr.room.Create(ctx, hourlyRoom)

	// 一次自带时长 2h，一次落到教室默认 1.5h
	two := 2.0
	s1 := seedSession(tr, "Particular", "", "2024-03-05")
	s1.DurationHours = &two
	tr.session.Update(ctx, s1)
	seedSession(tr, "Particular", "", "2024-03-12")

	got, err := svc.ComputeMonth(ctx, "2024-03", "")
	if err != nil {
		t.Fatalf("汇算应成功: %v", err)
	}
	if got.Hourly.TotalHours != 3.5 {
		t.Errorf("期望课时数 2+1.5=3.5，实际=%v", got.Hourly.TotalHours)
	}
	if got.Hourly.HourlyBonusTotal != 280 {
		t.Errorf("期望课时费 3.5×80=280，实际=%v", got.Hourly.HourlyBonusTotal)
	}
	// 课时费独立于配额闸门，必发
	if got.Total != 280 {
		t.Errorf("期望总计280，实际=%v", got.Total)
	}
}

func TestCompensation_LooseHourlySessionInRegularRoom(t *testing.T) {
	svc, tr := setupTestCompensationService()
	seedSettings(tr, 50, 99, 100)
	ctx := context.Background()

	seedRoomWithBook(tr, "Sala A", "Book 1")

	// 普通教室内的散课标记课次计入课时费；普通课次不计
	dur := 1.0
	loose := seedSession(tr, "Sala A", "Book 1", "2024-03-05")
	loose.Hourly = true
	loose.DurationHours = &dur
	tr.session.Update(ctx, loose)
	seedSession(tr, "Sala A", "Book 1", "2024-03-12")

	got, err := svc.ComputeMonth(ctx, "2024-03", "")
	if err != nil {
		t.Fatalf("汇算应成功: %v", err)
	}
	if got.Hourly.TotalHours != 1 {
		t.Errorf("期望仅散课计时1h，实际=%v", got.Hourly.TotalHours)
	}
}

// ── 入参与前置条件 ──

func TestCompensation_KindFilter(t *testing.T) {
	svc, tr := setupTestCompensationService()
	seedSettings(tr, 50, 1, 80)
	seedMarchScenario(tr)
	ctx := context.Background()

	dur := 2.0
	hourlyRoom := &model.Room{
		Name: "Particular", Kind: model.RoomKindHourly, Status: model.RoomStatusActive,
		StartDate: mustDate("2024-01-01"), HourlyDuration: &dur,
	}
	tr.room.Create(ctx, hourlyRoom)
	seedSession(tr, "Particular", "", "2024-03-07")

	onlyRegular, err := svc.ComputeMonth(ctx, "2024-03", model.RoomKindRegular)
	if err != nil {
		t.Fatalf("汇算应成功: %v", err)
	}
	if onlyRegular.Hourly.HourlyBonusTotal != 0 {
		t.Errorf("kind=regular 不应计课时费，实际=%v", onlyRegular.Hourly.HourlyBonusTotal)
	}
	if onlyRegular.Fixed.BonusTotal != 50 {
		t.Errorf("kind=regular 应计固定奖金50，实际=%v", onlyRegular.Fixed.BonusTotal)
	}

	onlyHourly, err := svc.ComputeMonth(ctx, "2024-03", model.RoomKindHourly)
	if err != nil {
		t.Fatalf("汇算应成功: %v", err)
	}
	if onlyHourly.Fixed.BonusTotal != 0 || onlyHourly.Fixed.TotalEligibleStudents != 0 {
		t.Error("kind=hourly 不应计固定奖金")
	}
	if onlyHourly.Hourly.HourlyBonusTotal != 160 {
		t.Errorf("期望课时费 2×80=160，实际=%v", onlyHourly.Hourly.HourlyBonusTotal)
	}
}

func TestCompensation_InvalidInputs(t *testing.T) {
	svc, tr := setupTestCompensationService()
	seedSettings(tr, 50, 1, 80)
	ctx := context.Background()

	if _, err := svc.ComputeMonth(ctx, "2024-03", "weekly"); !errors.Is(err, ErrCompKindInvalid) {
		t.Errorf("期望 ErrCompKindInvalid，实际: %v", err)
	}
	if _, err := svc.ComputeMonth(ctx, "March", ""); !errors.Is(err, ErrMonthFormatInvalid) {
		t.Errorf("期望 ErrMonthFormatInvalid，实际: %v", err)
	}
}

func TestCompensation_SettingsMissing(t *testing.T) {
	svc, _ := setupTestCompensationService()

	_, err := svc.ComputeMonth(context.Background(), "2024-03", "")
	if !errors.Is(err, ErrCompSettingsNotFound) {
		t.Errorf("期望 ErrCompSettingsNotFound，实际: %v", err)
	}
}

// [自证通过] internal/service/compensation_service_test.go
