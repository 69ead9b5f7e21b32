package app

import (
	"fmt"

	"github.com/cartrecovery/internal/config"
	"github.com/cartrecovery/internal/models"
)

// InitStorage 连接数据库、迁移表结构并确保存在初始管理员
func InitStorage(cfg *config.Config) error {
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		return fmt.Errorf("init database failed: %w", err)
	}
	if err := models.AutoMigrate(); err != nil {
		return fmt.Errorf("migrate database failed: %w", err)
	}
	if err := models.InitDefaultAdmin(cfg.Admin.Username, cfg.Admin.Password); err != nil {
		return fmt.Errorf("init default admin failed: %w", err)
	}
	return nil
}
