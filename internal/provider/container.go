package provider

import (
	"context"
	"fmt"

	"github.com/cartrecovery/internal/authz"
	"github.com/cartrecovery/internal/cache"
	"github.com/cartrecovery/internal/config"
	"github.com/cartrecovery/internal/logger"
	"github.com/cartrecovery/internal/mailer"
	"github.com/cartrecovery/internal/models"
	"github.com/cartrecovery/internal/queue"
	"github.com/cartrecovery/internal/repository"
	"github.com/cartrecovery/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config          *config.Config
	QueueClient     *queue.Client
	Mailer          mailer.Sender
	RecoverySetting service.RecoverySetting

	// Repositories
	AdminRepo         repository.AdminRepository
	UserRepo          repository.UserRepository
	CartRepo          repository.CartRepository
	ProductRepo       repository.ProductRepository
	SettingRepo       repository.SettingRepository
	AbandonedCartRepo repository.AbandonedCartRepository

	// Services
	AuthzService              *authz.Service
	AuthService               *service.AuthService
	UserAuthService           *service.UserAuthService
	SettingService            *service.SettingService
	AbandonedCartDetector     *service.AbandonedCartDetector
	CartRecoveryService       *service.CartRecoveryService
	ReminderService           *service.ReminderService
	RecoveryStatsService      *service.RecoveryStatsService
	RetentionService          *service.RetentionService
	AbandonedCartAdminService *service.AbandonedCartAdminService
}

// NewContainer 初始化容器
// 挽回策略在这里加载并校验一次，非法配置直接返回错误
func NewContainer(cfg *config.Config) (*Container, error) {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient = nil
	}

	sender, err := mailer.New(context.Background(), cfg.Mail)
	if err != nil {
		return nil, fmt.Errorf("init mailer failed: %w", err)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Mailer:      sender,
	}
	c.initRepositories()
	if err := c.initServices(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.AbandonedCartRepo = repository.NewAbandonedCartRepository(db)
}

func (c *Container) initServices() error {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		return fmt.Errorf("init authz failed: %w", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		return fmt.Errorf("bootstrap builtin roles failed: %w", err)
	}
	c.AuthzService = authzService

	c.SettingService = service.NewSettingService(c.SettingRepo)
	setting, err := c.SettingService.LoadRecoverySetting(c.Config.Recovery)
	if err != nil {
		return fmt.Errorf("load recovery setting failed: %w", err)
	}
	c.RecoverySetting = setting
	logger.Infow("recovery_setting_loaded",
		"threshold_hours", setting.AbandonmentThresholdHours,
		"min_cart_value", setting.MinCartValue.StringFixed(2),
		"max_reminders", setting.MaxReminders,
		"intervals_hours", setting.ReminderIntervalsHours,
		"mail_driver", c.Mailer.Driver(),
	)

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config.UserJWT)
	c.AbandonedCartDetector = service.NewAbandonedCartDetector(setting, c.CartRepo, c.UserRepo, c.AbandonedCartRepo)
	c.CartRecoveryService = service.NewCartRecoveryService(c.AbandonedCartRepo, c.CartRepo)
	c.ReminderService = service.NewReminderService(setting, c.AbandonedCartRepo, c.CartRepo, c.ProductRepo, c.Mailer, c.QueueClient)
	c.RecoveryStatsService = service.NewRecoveryStatsService(c.AbandonedCartRepo)
	c.RetentionService = service.NewRetentionService(c.AbandonedCartRepo)
	c.AbandonedCartAdminService = service.NewAbandonedCartAdminService(c.AbandonedCartRepo)
	return nil
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil || c.QueueClient == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
}
