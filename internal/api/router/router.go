package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mokki/backend/config"
	"mokki/backend/internal/api/handler"
	"mokki/backend/internal/api/middleware"
	"mokki/backend/pkg/jwt"
	"mokki/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.Register)
			auth.POST("/login", middleware.RateLimit(rdb, 20, time.Minute), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 度假屋模块
			authorized.POST("/houses", h.House.CreateHouse)

			houses := authorized.Group("/houses/:house_id")
			{
				houses.GET("", h.House.GetHouse)
				houses.GET("/members", h.House.ListMembers)
				houses.POST("/members", h.House.AddMember)
				houses.PUT("/members/:member_id/role", h.House.UpdateMemberRole)

				// 房间/床位目录（写操作 Service 层校验 admin）
				houses.GET("/rooms", h.Catalog.ListRooms)
				houses.POST("/rooms", h.Catalog.CreateRoom)
				houses.PUT("/rooms/:room_id", h.Catalog.UpdateRoom)
				houses.DELETE("/rooms/:room_id", h.Catalog.DeleteRoom)
				houses.POST("/beds", h.Catalog.CreateBed)
				houses.PUT("/beds/:bed_id", h.Catalog.UpdateBed)
				houses.DELETE("/beds/:bed_id", h.Catalog.DeleteBed)

				// 报名窗口模块
				houses.POST("/windows", h.Window.CreateWindow)
				houses.GET("/windows/active", h.Window.GetActiveWindow)
				houses.GET("/windows/next", h.Window.GetNextWindow)
				houses.GET("/windows/check", h.Window.CheckWindowForDates)
				houses.GET("/windows/:window_id", h.Window.GetWindow)
				houses.PUT("/windows/:window_id/close", h.Window.CloseWindow)
				houses.GET("/windows/:window_id/claims", h.Claim.ListWindowClaims)
				houses.GET("/windows/:window_id/claims/me", h.Claim.GetMyClaim)
				houses.GET("/windows/:window_id/co-claimer-candidates", h.Claim.ListEligibleCoClaimers)

				// 床位认领模块（抢床接口限流，防止客户端重试风暴）
				houses.POST("/claims", middleware.RateLimit(rdb, 30, time.Minute), h.Claim.ClaimBed)
				houses.DELETE("/claims/:claim_id", h.Claim.ReleaseClaim)
				houses.PUT("/claims/:claim_id/co-claimer", h.Claim.AttachCoClaimer)

				// 入住记录模块
				houses.GET("/stays", h.Stay.ListStays)
				houses.POST("/stays", h.Stay.CreateStay)
				houses.GET("/stays/me", h.Stay.ListMyStays)
				houses.GET("/stays/:stay_id", h.Stay.GetStay)
				houses.PUT("/stays/:stay_id", h.Stay.UpdateStay)
				houses.DELETE("/stays/:stay_id", h.Stay.DeleteStay)

				// 历史统计模块
				houses.GET("/history/windows", h.History.ListRecentWindows)
				houses.GET("/history/stats", h.History.GetStats)

				// 导出模块
				houses.GET("/export/stats", h.Export.ExportHistoryStats)
				houses.GET("/export/windows/:window_id", h.Export.ExportWindowClaims)

				// 日历订阅
				houses.GET("/calendar.ics", h.Calendar.GetHouseFeed)
			}
		}
	}

	return r
}
