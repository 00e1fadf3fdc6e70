package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/moimene/time-control-hub-sub002/config"
	"github.com/moimene/time-control-hub-sub002/internal/api/handler"
	"github.com/moimene/time-control-hub-sub002/internal/api/middleware"
	"github.com/moimene/time-control-hub-sub002/internal/model"
	"github.com/moimene/time-control-hub-sub002/pkg/jwt"
	"github.com/moimene/time-control-hub-sub002/pkg/redis"
)

// clockRateLimit 打卡入口速率限制：每 IP 每分钟 10 次
const (
	clockRateLimit  = 10
	clockRateWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 打卡模块（无需认证，PIN 校验 + 速率限制防护）
		v1.POST("/clock", middleware.RateLimit(rdb, clockRateLimit, clockRateWindow), h.TimeEvent.Clock)

		// 需要服务令牌的路由，公司边界在路由层先行拦截
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr), middleware.CompanyScope())
		{
			// 合规评估模块（调度器或管理员触发）
			compliance := authorized.Group("/compliance")
			{
				compliance.POST("/evaluate", middleware.RoleAuth(model.RoleAdmin, model.RoleSuperAdmin, model.RoleScheduler), h.Compliance.Evaluate)
			}

			// 通知模块
			notifications := authorized.Group("/notifications")
			{
				notifications.POST("/dispatch", middleware.RoleAuth(model.RoleAdmin, model.RoleSuperAdmin, model.RoleScheduler), h.Notification.Dispatch)
				notifications.GET("", middleware.RoleAuth(model.RoleAdmin, model.RoleSuperAdmin), h.Notification.List)
			}

			// 违规模块
			violations := authorized.Group("/violations")
			{
				violations.GET("", middleware.RoleAuth(model.RoleAdmin, model.RoleSuperAdmin), h.Violation.List)
				violations.PATCH("/:id/status", middleware.RoleAuth(model.RoleAdmin, model.RoleSuperAdmin), h.Violation.UpdateStatus)
			}

			// 事件模块
			incidents := authorized.Group("/incidents")
			{
				incidents.GET("", middleware.RoleAuth(model.RoleAdmin, model.RoleSuperAdmin), h.Incident.List)
				incidents.PATCH("/:id/status", middleware.RoleAuth(model.RoleAdmin, model.RoleSuperAdmin), h.Incident.UpdateStatus)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/violations", middleware.RoleAuth(model.RoleAdmin, model.RoleSuperAdmin), h.Export.ExportViolations)
			}
		}
	}

	return r
}
