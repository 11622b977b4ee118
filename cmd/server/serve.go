package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"face-attendance/internal/api/handler"
	"face-attendance/internal/api/router"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务",
	Long: `启动 HTTP 服务。启动前执行数据库迁移并补齐缺失的默认设置，
收到 SIGINT / SIGTERM 后优雅关闭。`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap(true)
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger

	logger.Info("应用启动中...",
		zap.Int("port", a.cfg.Server.Port),
		zap.String("log_level", a.cfg.Log.Level),
		zap.String("timezone", a.cfg.Attendance.Timezone),
	)

	if err := a.migrate(); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	if _, err := a.svc.Setting.InitializeDefaults(cmd.Context(), ""); err != nil {
		return fmt.Errorf("初始化默认设置失败: %w", err)
	}

	h := handler.NewHandler(a.svc, handler.CookieConfig{
		Secure: strings.HasPrefix(a.cfg.Server.BaseURL, "https://"),
		MaxAge: a.cfg.Auth.RefreshTokenTTLRemember,
	})
	engine := router.Setup(a.cfg, h, a.jwtMgr, a.rdb, logger)

	// 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // 导出报表可能较慢
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("HTTP 服务器异常: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	logger.Info("服务器已关闭")
	return nil
}
