package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cartrecovery/internal/cache"
	"github.com/cartrecovery/internal/config"
	"github.com/cartrecovery/internal/logger"
	"github.com/cartrecovery/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	defaultScanInterval  = 5 * time.Minute
	defaultPurgeInterval = 24 * time.Hour

	scanJobName  = "scan"
	purgeJobName = "purge"
)

// Service 后台任务服务：定时扫描弃购、发送到期提醒、清理过期记录，
// 队列启用时同时消费提醒发送任务
type Service struct {
	name          string
	server        *asynq.Server
	mux           *asynq.ServeMux
	consumer      *Consumer
	scanInterval  time.Duration
	purgeInterval time.Duration

	loops sync.WaitGroup
}

// NewService 创建后台任务服务，队列未启用时只运行定时任务
func NewService(cfg *config.Config, consumer *Consumer) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if consumer == nil || consumer.Container == nil {
		return nil, errors.New("consumer is nil")
	}
	s := &Service{
		name:          "worker",
		consumer:      consumer,
		scanInterval:  secondsOr(cfg.Worker.ScanIntervalSeconds, defaultScanInterval),
		purgeInterval: minutesOr(cfg.Worker.PurgeIntervalMinutes, defaultPurgeInterval),
	}
	if cfg.Queue.Enabled {
		opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
		serverCfg.Logger = asynqLogger{}
		s.server = asynq.NewServer(opt, serverCfg)
		s.mux = asynq.NewServeMux()
		consumer.Register(s.mux)
	}
	return s, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.consumer == nil {
		return errors.New("worker not initialized")
	}
	s.loops.Add(2)
	go s.runLoop(ctx, scanJobName, s.scanInterval, s.runScan)
	go s.runLoop(ctx, purgeJobName, s.purgeInterval, s.runPurge)

	if s.server == nil {
		logger.Infow("worker_queue_disabled", "scan_interval", s.scanInterval.String())
		<-ctx.Done()
		return nil
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Stop 停止服务，等待正在执行的定时任务结束
func (s *Service) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if s.server != nil {
		s.server.Shutdown()
	}
	done := make(chan struct{})
	go func() {
		s.loops.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) runLoop(ctx context.Context, job string, interval time.Duration, fn func(ctx context.Context)) {
	defer s.loops.Done()
	runOnce := func() {
		lock, acquired, err := cache.AcquireLock(ctx, cache.SchedulerLockKey(job), interval)
		if err != nil {
			logger.Warnw("worker_scheduler_lock_failed", "job", job, "error", err)
			return
		}
		if !acquired {
			logger.Debugw("worker_scheduler_skip_locked", "job", job)
			return
		}
		defer func() {
			if err := lock.Release(context.Background()); err != nil {
				logger.Warnw("worker_scheduler_unlock_failed", "job", job, "error", err)
			}
		}()
		fn(ctx)
	}
	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

// runScan 检测弃购后立即处理到期提醒
func (s *Service) runScan(ctx context.Context) {
	c := s.consumer
	if c.AbandonedCartDetector != nil {
		summary, err := c.AbandonedCartDetector.Run(ctx)
		if err != nil {
			logger.Warnw("worker_detect_failed", "error", err)
		} else if summary.Candidates > 0 {
			logger.Infow("worker_detect_finished",
				"candidates", summary.Candidates,
				"created", summary.Created,
				"failed", summary.Failed,
			)
		}
	}
	if ctx.Err() != nil || c.ReminderService == nil {
		return
	}
	if _, err := c.ReminderService.SendDueReminders(ctx); err != nil {
		logger.Warnw("worker_due_reminders_failed", "error", err)
	}
}

func (s *Service) runPurge(ctx context.Context) {
	c := s.consumer
	if c.RetentionService == nil {
		return
	}
	days := c.RecoverySetting.RetentionDays
	deleted, err := c.RetentionService.PurgeOlderThan(ctx, days)
	if err != nil {
		logger.Warnw("worker_purge_failed", "days", days, "error", err)
		return
	}
	if deleted > 0 {
		logger.Infow("worker_purge_finished", "days", days, "deleted", deleted)
	}
}

func secondsOr(value int, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return time.Duration(value) * time.Second
}

func minutesOr(value int, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return time.Duration(value) * time.Minute
}

// asynqLogger 把 asynq 内部日志转到 zap
type asynqLogger struct{}

func (asynqLogger) Debug(args ...interface{}) { logger.S().Debug(args...) }
func (asynqLogger) Info(args ...interface{})  { logger.S().Info(args...) }
func (asynqLogger) Warn(args ...interface{})  { logger.S().Warn(args...) }
func (asynqLogger) Error(args ...interface{}) { logger.S().Error(args...) }
func (asynqLogger) Fatal(args ...interface{}) { logger.S().Fatal(args...) }
