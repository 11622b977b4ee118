package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"face-attendance/config"
	"face-attendance/internal/repository"
	"face-attendance/internal/service"
	"face-attendance/pkg/database"
	"face-attendance/pkg/jwt"
	applogger "face-attendance/pkg/logger"
	"face-attendance/pkg/mail"
	"face-attendance/pkg/redis"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "face-attendance",
	Short: "人脸识别考勤服务",
	Long: `face-attendance 提供员工身份库、人脸识别打卡、考勤账本、
日报 / 区间报表与系统设置的 HTTP 服务，以及迁移、初始化等运维命令。`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认查找 ./config/config.yaml）")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app 命令共享的运行时依赖
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	rdb    *redis.Client
	jwtMgr *jwt.Manager
	svc    *service.Service
}

// bootstrap 加载配置并建立数据库连接；withRedis 为 false 时跳过 Redis
func bootstrap(withRedis bool) (*app, error) {
	// 1. 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, err
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	if withRedis && cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，Token 黑名单、限流与员工锁将不可用", zap.Error(err))
			rdb = nil
		}
	}

	// 5. 邮件发送器：未配置时保持 nil 接口，日报发送返回 mail_not_configured
	var mailer service.Mailer
	if cfg.Mail.Enabled() {
		mailer = mail.NewSender(&cfg.Mail)
	}

	// 6. 依赖注入: Repository → Service
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, mailer, logger)

	return &app{cfg: cfg, logger: logger, db: db, rdb: rdb, jwtMgr: jwtMgr, svc: svc}, nil
}

// migrate 执行数据库迁移
func (a *app) migrate() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return database.RunMigrations(sqlDB, a.logger)
}

// close 释放数据库与 Redis 连接
func (a *app) close() {
	if sqlDB, _ := a.db.DB(); sqlDB != nil {
		sqlDB.Close()
	}
	if a.rdb != nil {
		a.rdb.Close()
	}
	a.logger.Sync()
}
