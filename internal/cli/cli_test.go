package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gatepass/backend/config"
	"gatepass/backend/internal/dto"
	"gatepass/backend/internal/model"
	"gatepass/backend/internal/repository"
	"gatepass/backend/pkg/database"
	"gatepass/backend/pkg/jwt"
)

const testSecret = "cli-test-secret-value"

// executeCommand runs a command with the given args and captures output.
func executeCommand(args ...string) (string, error) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// writeConfig 生成指向临时 SQLite 文件的配置
func writeConfig(t *testing.T) (path, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "gatepass.db")
	path = filepath.Join(dir, "config.yaml")

	content := fmt.Sprintf(`db:
  driver: sqlite
  sqlite_path: %q
auth:
  jwt_secret: %q
  access_token_ttl: 2h
log:
  level: error
visit:
  timezone: UTC
`, dbPath, testSecret)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path, dbPath
}

func openRepo(t *testing.T, dbPath string) *repository.Repository {
	t.Helper()
	db, err := database.NewDB(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: dbPath}, "error", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repository.NewRepository(db)
}

func TestRootHelp(t *testing.T) {
	out, err := executeCommand("--help")
	require.NoError(t, err)
	for _, sub := range []string{"sweep", "migrate", "employee", "token"} {
		assert.Contains(t, out, sub)
	}
}

func TestGlobalFlags(t *testing.T) {
	root := NewRootCmd()

	formatFlag := root.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestMissingConfigSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db:\n  driver: sqlite\n"), 0o600))

	_, err := executeCommand("migrate", "--config", path)
	assert.Error(t, err, "缺少 jwt_secret 时应拒绝执行")
}

func TestEmployeeUpsertAndTokenIssue(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	_, err := executeCommand("migrate", "--config", cfgPath)
	require.NoError(t, err)

	_, err = executeCommand("employee", "upsert", "--config", cfgPath,
		"--id", "lobby-1", "--name", "Lena", "--email", "lena@corp.example", "--role", "concierge")
	assert.Error(t, err, "未知角色应被拒绝")

	out, err := executeCommand("employee", "upsert", "--config", cfgPath, "--format", "json",
		"--id", "lobby-1", "--name", "Lena", "--email", "lena@corp.example", "--role", model.RoleLobbyAttendant)
	require.NoError(t, err)
	var saved model.Employee
	require.NoError(t, json.Unmarshal([]byte(out), &saved))
	assert.Equal(t, model.RoleLobbyAttendant, saved.Role)

	out, err = executeCommand("token", "issue", "--config", cfgPath, "--employee", "lobby-1", "--ttl", "30m")
	require.NoError(t, err)

	mgr := jwt.NewManager(&config.AuthConfig{JWTSecret: testSecret, AccessTokenTTL: time.Hour})
	claims, err := mgr.ParseToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "lobby-1", claims.UserID)
	assert.Equal(t, model.RoleLobbyAttendant, claims.Role)
	assert.InDelta(t, (30 * time.Minute).Seconds(), claims.RemainingTTL(time.Now()).Seconds(), 5)

	_, err = executeCommand("token", "issue", "--config", cfgPath, "--employee", "ghost")
	assert.Error(t, err)
}

func TestSweep(t *testing.T) {
	cfgPath, dbPath := writeConfig(t)
	_, err := executeCommand("migrate", "--config", cfgPath)
	require.NoError(t, err)

	repo := openRepo(t, dbPath)
	for _, at := range []time.Duration{-2 * time.Hour, -time.Minute, time.Hour} {
		v := &model.VisitRequest{
			VisitRequestID: uuid.NewString(),
			HostID:         "host-1",
			Purpose:        "Vendor meeting",
			ScheduledTime:  time.Now().UTC().Add(at),
			Status:         model.VisitStatusPending,
			VisitType:      model.VisitTypeScheduled,
			Token:          uuid.NewString(),
		}
		v.Version = 1
		require.NoError(t, repo.VisitRequest.Create(context.Background(), v))
	}

	sweep := func(args ...string) dto.SweepResponse {
		t.Helper()
		out, err := executeCommand(append([]string{"sweep", "--config", cfgPath, "--format", "json"}, args...)...)
		require.NoError(t, err)
		var resp dto.SweepResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		return resp
	}

	assert.Equal(t, dto.SweepResponse{Expired: 2, DryRun: true}, sweep("--dry-run"))
	assert.Equal(t, dto.SweepResponse{Expired: 2}, sweep())
	assert.Equal(t, dto.SweepResponse{Expired: 0}, sweep(), "重复扫描不应再次过期")

	out, err := executeCommand("sweep", "--config", cfgPath, "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, "0 pending visit request(s) would expire\n", out)
}
