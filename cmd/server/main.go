package main

import (
	"flag"
	"os"
	"strings"
	"syscall"

	"github.com/cartrecovery/internal/app"
	"github.com/cartrecovery/internal/config"
	"github.com/cartrecovery/internal/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	for name, secret := range map[string]string{"jwt.secret": cfg.JWT.SecretKey, "user_jwt.secret": cfg.UserJWT.SecretKey} {
		if !isWeakSecret(secret) {
			continue
		}
		if cfg.Server.Mode == "release" {
			stdLog.Fatalf("%s 过弱或仍为默认值，请在生产环境中配置强随机密钥", name)
		}
		logger.Warnw("weak_secret_configured", "key", name)
	}
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
		if strings.TrimSpace(cfg.Admin.Password) == "" {
			logger.Warnw("default_admin_password_missing", "hint", "set ADMIN_PASSWORD before first start")
		}
	}

	if err := app.InitStorage(cfg); err != nil {
		stdLog.Fatalf("存储初始化失败: %v", err)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	return strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key")
}
