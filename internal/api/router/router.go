package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"face-attendance/config"
	"face-attendance/internal/api/handler"
	"face-attendance/internal/api/middleware"
	"face-attendance/pkg/jwt"
	"face-attendance/pkg/redis"
)

const (
	loginRateLimit = 10 // 每 IP 每分钟登录次数
	roleAdmin      = "admin"
	roleManager    = "manager"
)

// Setup 初始化并返回 Gin 路由引擎；rdb 为 nil 时不启用黑名单与限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	adminOnly := middleware.RoleAuth(roleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, loginRateLimit, time.Minute), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 考勤终端识别（无需认证，按 IP 限流）
		v1.POST("/face/recognize",
			middleware.RateLimit(rdb, cfg.Attendance.RecognizeRate, time.Minute),
			h.Face.Recognize)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 员工模块
			employees := authorized.Group("/employees")
			{
				employees.GET("", h.Employee.ListEmployees)
				employees.GET("/:id", h.Employee.GetEmployee)
				employees.POST("", adminOnly, h.Employee.CreateEmployee)
				employees.PUT("/:id", adminOnly, h.Employee.UpdateEmployee)
				employees.DELETE("/:id", adminOnly, h.Employee.DeactivateEmployee)
			}

			// 人脸模块
			face := authorized.Group("/face")
			{
				face.POST("/register/:employeeId", adminOnly, h.Face.Register)
				face.POST("/check", h.Face.Check)
			}

			// 考勤账本
			attendance := authorized.Group("/attendance")
			{
				attendance.GET("", h.Attendance.List)
				attendance.GET("/employee/:employeeId", h.Attendance.ListByEmployee)
				attendance.GET("/status/:employeeId", h.Attendance.Status)
				attendance.POST("", h.Attendance.Check)
				attendance.PUT("/:id", h.Attendance.Amend)
			}

			// 报表模块
			reports := authorized.Group("/reports")
			{
				reports.GET("/daily", h.Report.Daily)
				reports.GET("/range", h.Report.Range)
				reports.GET("/export", middleware.RoleAuth(roleAdmin, roleManager), h.Report.Export)
				reports.POST("/daily/send", adminOnly, h.Report.SendDaily)
			}

			// 系统设置
			settings := authorized.Group("/settings")
			{
				settings.GET("", h.Setting.ListSettings)
				settings.GET("/:name", h.Setting.GetSetting)
				settings.PUT("/:name", adminOnly, h.Setting.UpsertSetting)
				settings.POST("/initialize", adminOnly, h.Setting.InitializeDefaults)
			}
		}
	}

	return r
}
