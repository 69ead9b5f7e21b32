package service

import (
	"github.com/cartrecovery/internal/config"
	"github.com/cartrecovery/internal/constants"
	"github.com/cartrecovery/internal/models"
	"github.com/cartrecovery/internal/repository"
)

// SettingService 设置业务服务
type SettingService struct {
	repo repository.SettingRepository
}

// NewSettingService 创建设置服务
func NewSettingService(repo repository.SettingRepository) *SettingService {
	return &SettingService{repo: repo}
}

// GetByKey 获取设置
func (s *SettingService) GetByKey(key string) (models.JSON, error) {
	setting, err := s.repo.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, nil
	}
	return setting.ValueJSON, nil
}

// Update 设置值
func (s *SettingService) Update(key string, value map[string]interface{}) (models.JSON, error) {
	setting, err := s.repo.Upsert(key, models.JSON(value))
	if err != nil {
		return nil, err
	}
	return setting.ValueJSON, nil
}

// GetRecoverySetting 获取挽回策略（settings 表覆盖静态配置）
func (s *SettingService) GetRecoverySetting(defaultCfg config.RecoveryConfig) (RecoverySetting, error) {
	fallback, err := RecoveryDefaultSetting(defaultCfg)
	if err != nil {
		return RecoverySetting{}, err
	}
	value, err := s.GetByKey(constants.SettingKeyRecoveryConfig)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}
	merged, err := recoverySettingFromJSON(value, fallback)
	if err != nil {
		return RecoverySetting{}, err
	}
	return NormalizeRecoverySetting(merged), nil
}

// LoadRecoverySetting 进程启动时加载并校验挽回策略，非法配置直接返回错误
func (s *SettingService) LoadRecoverySetting(defaultCfg config.RecoveryConfig) (RecoverySetting, error) {
	setting, err := s.GetRecoverySetting(defaultCfg)
	if err != nil {
		return RecoverySetting{}, err
	}
	if err := ValidateRecoverySetting(setting); err != nil {
		return RecoverySetting{}, err
	}
	return setting, nil
}

// UpdateRecoverySetting 校验后保存挽回策略，下次启动生效
func (s *SettingService) UpdateRecoverySetting(defaultCfg config.RecoveryConfig, raw map[string]interface{}) (RecoverySetting, error) {
	current, err := s.GetRecoverySetting(defaultCfg)
	if err != nil {
		return RecoverySetting{}, err
	}
	merged, err := recoverySettingFromJSON(models.JSON(raw), current)
	if err != nil {
		return RecoverySetting{}, err
	}
	next := NormalizeRecoverySetting(merged)
	if err := ValidateRecoverySetting(next); err != nil {
		return RecoverySetting{}, err
	}
	if _, err := s.Update(constants.SettingKeyRecoveryConfig, RecoverySettingToMap(next)); err != nil {
		return RecoverySetting{}, err
	}
	return next, nil
}
