package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cartrecovery/internal/authz"
	"github.com/cartrecovery/internal/cache"
	"github.com/cartrecovery/internal/config"
	adminhandlers "github.com/cartrecovery/internal/http/handlers/admin"
	publichandlers "github.com/cartrecovery/internal/http/handlers/public"
	"github.com/cartrecovery/internal/http/response"
	"github.com/cartrecovery/internal/logger"
	"github.com/cartrecovery/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cr"
	}
	redisClient := cache.Client()
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxRequests,
	}
	recoveryRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:recovery", redisPrefix),
		WindowSeconds: cfg.Security.RecoveryRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.RecoveryRateLimit.MaxRequests,
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 挽回链接（匿名可用，登录用户携带 Bearer Token 时合并到自己的购物车）
		recovery := apiV1.Group("/recovery")
		recovery.Use(RateLimitMiddleware(redisClient, recoveryRule, KeyByIP))
		{
			recovery.GET("/:token", publicHandler.GetRecovery)
			recovery.POST("/:token", OptionalUserAuthMiddleware(c.UserAuthService), publicHandler.Recover)
		}

		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				// 弃购记录
				authorized.GET("/abandoned-carts", adminHandler.ListAbandonedCarts)
				authorized.GET("/abandoned-carts/stats", adminHandler.GetRecoveryStats)
				authorized.GET("/abandoned-carts/:id", adminHandler.GetAbandonedCart)
				authorized.POST("/abandoned-carts/detect", adminHandler.DetectAbandonedCarts)
				authorized.POST("/abandoned-carts/reminders/run", adminHandler.RunDueReminders)
				authorized.POST("/abandoned-carts/purge", adminHandler.PurgeAbandonedCarts)
				authorized.POST("/abandoned-carts/:id/remind", adminHandler.SendReminder)
				authorized.POST("/abandoned-carts/:id/conversion", adminHandler.RecordConversion)

				// 挽回策略
				authorized.GET("/settings/recovery", adminHandler.GetRecoverySetting)
				authorized.PUT("/settings/recovery", adminHandler.UpdateRecoverySetting)

				// 权限
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
			}
		}
	}

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildAdminPermissionCatalog 从已注册路由生成可授权的权限清单
func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}
	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))
	for _, route := range routes {
		method := strings.ToUpper(strings.TrimSpace(route.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(route.Path, "/api/v1/admin/") || route.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(route.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     permissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Module != items[j].Module {
			return items[i].Module < items[j].Module
		}
		if items[i].Object != items[j].Object {
			return items[i].Object < items[j].Object
		}
		return items[i].Method < items[j].Method
	})
	return items
}

// permissionModule /admin/<module>/... 取 module 段
func permissionModule(object string) string {
	segments := strings.Split(strings.Trim(strings.TrimSpace(object), "/"), "/")
	if len(segments) < 2 || segments[0] != "admin" {
		return "system"
	}
	return segments[1]
}
