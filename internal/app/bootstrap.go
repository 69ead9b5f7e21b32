package app

import (
	"errors"
	"fmt"

	"github.com/cartrecovery/internal/config"
	"github.com/cartrecovery/internal/provider"
	"github.com/cartrecovery/internal/router"
	"github.com/cartrecovery/internal/worker"
)

// BuildRunner 按启动模式组装 HTTP 与后台任务服务
func BuildRunner(cfg *config.Config, mode string) (*Runner, *provider.Container, error) {
	if cfg == nil {
		return nil, nil, errors.New("config is nil")
	}
	if !isKnownMode(mode) {
		return nil, nil, fmt.Errorf("unknown mode: %s", mode)
	}

	container, err := provider.NewContainer(cfg)
	if err != nil {
		return nil, nil, err
	}

	var services []Service
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(listenAddr(cfg), engine))
	}
	if mode == ModeAll || mode == ModeWorker {
		workerService, err := worker.NewService(cfg, worker.NewConsumer(container))
		if err != nil {
			container.Close()
			return nil, nil, err
		}
		services = append(services, workerService)
	}
	return NewRunner(services...), container, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, container, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}
	defer container.Close()

	opts.Logger.Infow("app_start", "addr", listenAddr(opts.Config), "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}

func listenAddr(cfg *config.Config) string {
	return cfg.Server.Host + ":" + cfg.Server.Port
}

func isKnownMode(mode string) bool {
	switch mode {
	case ModeAll, ModeAPI, ModeWorker:
		return true
	default:
		return false
	}
}
