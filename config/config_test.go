package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeFile(t, `
auth:
  jwt_secret: a-very-long-test-secret
visit:
  sweep_interval: 30s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Visit.Timezone != "Asia/Manila" {
		t.Errorf("expected default timezone Asia/Manila, got %s", cfg.Visit.Timezone)
	}
	if cfg.Visit.SweepInterval != 30*time.Second {
		t.Errorf("expected sweep_interval 30s, got %v", cfg.Visit.SweepInterval)
	}
	if cfg.Visit.StoreTimeout != 5*time.Second {
		t.Errorf("expected default store_timeout 5s, got %v", cfg.Visit.StoreTimeout)
	}
	if cfg.Auth.AccessTokenTTL != 12*time.Hour {
		t.Errorf("expected default access_token_ttl 12h, got %v", cfg.Auth.AccessTokenTTL)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, `
auth:
  jwt_secret: a-very-long-test-secret
db:
  driver: postgres
`)
	t.Setenv("GATEPASS_DB_DRIVER", "sqlite")
	t.Setenv("GATEPASS_VISIT_PUBLIC_RATE_LIMIT", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("环境变量应覆盖配置文件，got %s", cfg.Database.Driver)
	}
	if cfg.Visit.PublicRateLimit != 5 {
		t.Errorf("expected public_rate_limit 5, got %d", cfg.Visit.PublicRateLimit)
	}
}

func TestLoad_ExampleFileIsValid(t *testing.T) {
	if _, err := Load("config.example.yaml"); err != nil {
		t.Fatalf("示例配置应能通过校验: %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: "postgres"},
			Auth:     AuthConfig{JWTSecret: "a-very-long-test-secret"},
			Visit:    VisitConfig{Timezone: "Asia/Manila", StoreTimeout: time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"合法", func(c *Config) {}, false},
		{"密钥过短", func(c *Config) { c.Auth.JWTSecret = "short" }, true},
		{"端口越界", func(c *Config) { c.Server.Port = 70000 }, true},
		{"未知驱动", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"未知时区", func(c *Config) { c.Visit.Timezone = "Mars/Olympus" }, true},
		{"存储超时为 0", func(c *Config) { c.Visit.StoreTimeout = 0 }, true},
		{"扫描间隔为负", func(c *Config) { c.Visit.SweepInterval = -time.Second }, true},
		{"关闭周期扫描", func(c *Config) { c.Visit.SweepInterval = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestVisitConfig_Helpers(t *testing.T) {
	c := VisitConfig{Timezone: "Asia/Manila", InviteBaseURL: "https://desk.example/form/"}

	if got := c.InviteLink("tok"); got != "https://desk.example/form/tok" {
		t.Errorf("unexpected invite link %s", got)
	}
	if c.Location().String() != "Asia/Manila" {
		t.Errorf("expected Asia/Manila, got %s", c.Location())
	}

	c.Timezone = "Nowhere/Nothing"
	if c.Location() != time.UTC {
		t.Errorf("无效时区应退回 UTC")
	}
}
