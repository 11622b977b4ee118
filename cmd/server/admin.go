package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"face-attendance/internal/dto"
)

// ── migrate ──

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "执行数据库迁移",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(false)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.migrate(); err != nil {
			return fmt.Errorf("数据库迁移失败: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "数据库迁移完成")
		return nil
	},
}

// ── settings init ──

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "系统设置管理",
}

var settingsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "补齐缺失的默认设置（已存在的值不会被覆盖）",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(false)
		if err != nil {
			return err
		}
		defer a.close()

		result, err := a.svc.Setting.InitializeDefaults(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "默认设置：新增 %d 项，共 %d 项\n", result.Inserted, result.Total)
		return nil
	},
}

// ── user create ──

var (
	userUsername   string
	userPassword   string
	userRole       string
	userEmployeeID string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "操作账号管理",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "创建操作账号",
	Example: `  face-attendance user create --username admin --password 'S3cure!pass' --role admin
  face-attendance user create --username kiosk01 --password '...' --role employee --employee-id EMP001`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if len(userPassword) < 8 {
			return fmt.Errorf("密码至少 8 位")
		}

		a, err := bootstrap(false)
		if err != nil {
			return err
		}
		defer a.close()

		user, err := a.svc.Auth.CreateUser(cmd.Context(), &dto.CreateUserRequest{
			Username:   userUsername,
			Password:   userPassword,
			Role:       userRole,
			EmployeeID: userEmployeeID,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "账号已创建: %s (%s)\n", user.Username, user.Role)
		return nil
	},
}

// ── report send ──

var reportDate string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "考勤报表",
}

var reportSendCmd = &cobra.Command{
	Use:   "send",
	Short: "发送考勤日报邮件（可配合 cron 每日执行）",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(false)
		if err != nil {
			return err
		}
		defer a.close()

		result, err := a.svc.Notification.SendDailyReport(cmd.Context(), &dto.DailyReportRequest{Date: reportDate})
		if err != nil {
			return err
		}
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	settingsCmd.AddCommand(settingsInitCmd)
	rootCmd.AddCommand(settingsCmd)

	userCreateCmd.Flags().StringVar(&userUsername, "username", "", "用户名")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "密码（至少 8 位）")
	userCreateCmd.Flags().StringVar(&userRole, "role", "admin", "角色：admin | manager | employee")
	userCreateCmd.Flags().StringVar(&userEmployeeID, "employee-id", "", "关联的员工工号（可选）")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")
	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)

	reportSendCmd.Flags().StringVar(&reportDate, "date", "", "日报日期 YYYY-MM-DD，默认今天")
	reportCmd.AddCommand(reportSendCmd)
	rootCmd.AddCommand(reportCmd)
}
