package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gatepass/backend/config"
	"gatepass/backend/internal/api/handler"
	"gatepass/backend/internal/api/middleware"
	"gatepass/backend/internal/model"
	"gatepass/backend/pkg/jwt"
	"gatepass/backend/pkg/redis"
)

// 请求体上限：所有接口只接收小体积 JSON
const maxBodyBytes = 64 << 10

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时 Token 黑名单与访客页限流均降级放行
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 访客自助登记（匿名，凭 token，限流）
		form := v1.Group("/visitor-form")
		form.Use(middleware.RateLimit(rdb, cfg.Visit.PublicRateLimit, cfg.Visit.PublicRateWindow))
		{
			form.GET("/:token", h.VisitorForm.GetForm)
			form.POST("/:token", h.VisitorForm.Submit)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 员工：访问申请（host 限定在 Service 层校验）
			visits := authorized.Group("/visits")
			{
				visits.POST("", h.Visit.CreateVisit)
				visits.GET("", h.Visit.ListMyVisits)
				visits.GET("/pending", h.Visit.ListPending)
				visits.GET("/my-visitors", h.Visit.ListMyVisitors)
				visits.GET("/:id", h.Visit.GetVisit)
				visits.PUT("/:id", h.Visit.UpdateVisit)
				visits.POST("/:id/approve", h.Visit.Approve)
				visits.POST("/:id/reject", h.Visit.Reject)
				visits.POST("/:id/cancel", h.Visit.Cancel)
			}

			// 前台
			lobby := authorized.Group("/lobby")
			lobby.Use(middleware.RoleAuth(model.RoleLobbyAttendant))
			{
				lobby.POST("/walkin", h.Lobby.CreateWalkIn)
				lobby.GET("/today", h.Lobby.TodayBoard)
				lobby.GET("/visits", h.Lobby.RangeBoard)
				lobby.POST("/checkin", h.Lobby.CheckIn)
				lobby.POST("/checkout", h.Lobby.CheckOut)
				lobby.POST("/visits/:id/no-show", h.Lobby.MarkNoShow)
			}

			// 管理
			admin := authorized.Group("/admin")
			admin.Use(middleware.RoleAuth(model.RoleAdmin))
			{
				admin.POST("/sweep", h.Admin.Sweep)
			}
		}
	}

	return r
}
