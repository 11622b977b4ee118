package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Auth:   AuthConfig{JWTSecret: "test-secret-key-for-unit-testing"},
		Attendance: AttendanceConfig{
			Timezone:          "UTC",
			MaxAppendAttempts: 3,
		},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("合法配置不应报错: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"空密钥", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"密钥过短", func(c *Config) { c.Auth.JWTSecret = "short" }},
		{"端口越界", func(c *Config) { c.Server.Port = 70000 }},
		{"时区无效", func(c *Config) { c.Attendance.Timezone = "Mars/Olympus" }},
		{"追加次数为0", func(c *Config) { c.Attendance.MaxAppendAttempts = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("期望校验失败")
			}
		})
	}
}

func TestLoad_FromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 9090
auth:
  jwt_secret: "file-secret-1234567890"
attendance:
  timezone: "UTC"
  default_location: "HQ"
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}
	t.Setenv("ATTEND_ATTENDANCE_MAX_APPEND_ATTEMPTS", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("期望端口 9090，实际 %d", cfg.Server.Port)
	}
	if cfg.Attendance.DefaultLocation != "HQ" {
		t.Errorf("期望默认地点 HQ，实际 %s", cfg.Attendance.DefaultLocation)
	}
	if cfg.Attendance.MaxAppendAttempts != 5 {
		t.Errorf("环境变量应覆盖默认值，实际 %d", cfg.Attendance.MaxAppendAttempts)
	}
	if cfg.Attendance.LockTTL != 5*time.Second {
		t.Errorf("期望 lock_ttl 默认 5s，实际 %v", cfg.Attendance.LockTTL)
	}
}

func TestAttendanceConfig_LocationFallback(t *testing.T) {
	c := AttendanceConfig{Timezone: "not/a-zone"}
	if c.Location() != time.UTC {
		t.Error("无效时区应退回 UTC")
	}
}
