package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gatepass/backend/config"
	"gatepass/backend/internal/api/handler"
	"gatepass/backend/internal/dto"
	"gatepass/backend/internal/model"
	"gatepass/backend/internal/notify"
	"gatepass/backend/internal/repository"
	"gatepass/backend/internal/service"
	"gatepass/backend/pkg/clock"
	"gatepass/backend/pkg/database"
	"gatepass/backend/pkg/jwt"
)

// 2026-03-10 10:00 Asia/Manila
var now = time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)

type stack struct {
	engine *gin.Engine
	jwt    *jwt.Manager
	clock  *clock.Fake
}

// newStack 基于内存 SQLite 组装完整的 HTTP 栈（无 Redis）
func newStack(t *testing.T) *stack {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		},
		Auth: config.AuthConfig{JWTSecret: "router-test-secret", AccessTokenTTL: time.Hour},
		Visit: config.VisitConfig{
			Timezone:          "Asia/Manila",
			StoreTimeout:      5 * time.Second,
			InviteBaseURL:     "https://desk.example/visitor-form/",
			WalkInDefaultNote: "Walk-in visit",
		},
	}

	db, err := database.NewDB(&cfg.Database, "error", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, zap.NewNop()))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo := repository.NewRepository(db)
	for _, e := range []model.Employee{
		{EmployeeID: "host-1", Name: "Alice", Email: "alice@corp.example", Role: model.RoleEmployee},
		{EmployeeID: "lobby-1", Name: "Lena", Email: "lena@corp.example", Role: model.RoleLobbyAttendant},
		{EmployeeID: "admin-1", Name: "Ada", Email: "ada@corp.example", Role: model.RoleAdmin},
	} {
		e := e
		require.NoError(t, repo.Employee.Upsert(context.Background(), &e))
	}

	clk := clock.NewFake(now)
	notifier := notify.NewLogGateway(cfg.Visit.Location(), clk, zap.NewNop())
	svc := service.NewService(cfg, repo, notifier, clk, nil, nil, zap.NewNop())
	jwtMgr := jwt.NewManager(&cfg.Auth)

	return &stack{
		engine: Setup(cfg, handler.NewHandler(svc), jwtMgr, nil, zap.NewNop()),
		jwt:    jwtMgr,
		clock:  clk,
	}
}

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

// do 以指定员工身份发起请求；employeeID 为空表示匿名
func (s *stack) do(t *testing.T, method, path, employeeID, role string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if employeeID != "" {
		token, err := s.jwt.GenerateAccessToken(employeeID, role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v))
}

// ═══════════════════════════════════════════════════════════
// 完整访问流程
// ═══════════════════════════════════════════════════════════

func TestScheduledVisitLifecycle(t *testing.T) {
	s := newStack(t)

	// 1. 员工创建预约
	code, env := s.do(t, http.MethodPost, "/api/v1/visits", "host-1", model.RoleEmployee, dto.CreateVisitRequest{
		Purpose:       "Quarterly audit",
		ScheduledTime: now.Add(3 * time.Hour),
	})
	require.Equal(t, http.StatusCreated, code)
	var created dto.VisitResponse
	decode(t, env.Data, &created)
	assert.Equal(t, "pending", created.Status)
	require.NotEmpty(t, created.Token)
	assert.Equal(t, "https://desk.example/visitor-form/"+created.Token, created.InvitationLink)

	// 2. 访客匿名预览并提交登记
	code, env = s.do(t, http.MethodGet, "/api/v1/visitor-form/"+created.Token, "", "", nil)
	require.Equal(t, http.StatusOK, code)
	var form dto.VisitorFormResponse
	decode(t, env.Data, &form)
	assert.Equal(t, "Alice", form.HostName)

	code, _ = s.do(t, http.MethodPost, "/api/v1/visitor-form/"+created.Token, "", "", dto.AttachVisitorRequest{
		FullName: "Carol Guest",
		Email:    "carol@guest.example",
	})
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodPost, "/api/v1/visitor-form/"+created.Token, "", "", dto.AttachVisitorRequest{
		FullName: "Mallory",
		Email:    "mallory@guest.example",
	})
	assert.Equal(t, http.StatusConflict, code, "登记信息只能提交一次")
	assert.Equal(t, 20012, env.Code)

	// 3. 出现在待审批列表，接待人审批
	code, env = s.do(t, http.MethodGet, "/api/v1/visits/pending", "host-1", model.RoleEmployee, nil)
	require.Equal(t, http.StatusOK, code)
	var pending struct {
		List []dto.VisitResponse `json:"list"`
	}
	decode(t, env.Data, &pending)
	require.Len(t, pending.List, 1)

	code, env = s.do(t, http.MethodPost, "/api/v1/visits/"+created.ID+"/approve", "host-1", model.RoleEmployee, nil)
	require.Equal(t, http.StatusOK, code)
	var approved dto.VisitResponse
	decode(t, env.Data, &approved)
	assert.Equal(t, "approved", approved.Status)
	require.NotNil(t, approved.Visitor)

	code, env = s.do(t, http.MethodPost, "/api/v1/visits/"+created.ID+"/reject", "host-1", model.RoleEmployee, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, 20010, env.Code)

	// 4. 前台签到、签退
	visitorID := approved.Visitor.ID
	code, env = s.do(t, http.MethodGet, "/api/v1/lobby/today", "lobby-1", model.RoleLobbyAttendant, nil)
	require.Equal(t, http.StatusOK, code)
	var board struct {
		List []dto.VisitBoardItem `json:"list"`
	}
	decode(t, env.Data, &board)
	require.Len(t, board.List, 1)
	assert.False(t, board.List[0].IsCheckedIn)

	code, _ = s.do(t, http.MethodPost, "/api/v1/lobby/checkin", "lobby-1", model.RoleLobbyAttendant, dto.CheckInRequest{VisitorID: visitorID})
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodPost, "/api/v1/lobby/checkin", "lobby-1", model.RoleLobbyAttendant, dto.CheckInRequest{VisitorID: visitorID})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, 21002, env.Code)

	s.clock.Advance(90 * time.Minute)
	code, env = s.do(t, http.MethodPost, "/api/v1/lobby/checkout", "lobby-1", model.RoleLobbyAttendant, dto.CheckOutRequest{
		VisitorID: visitorID,
		Notes:     "badge returned",
	})
	require.Equal(t, http.StatusOK, code)
	var log dto.VisitLogResponse
	decode(t, env.Data, &log)
	assert.Equal(t, int64(90*60), log.DurationSeconds)
	assert.Equal(t, "badge returned", log.Notes)
}

func TestPendingVisitExpiresBeforeForm(t *testing.T) {
	s := newStack(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/visits", "host-1", model.RoleEmployee, dto.CreateVisitRequest{
		Purpose:       "Interview",
		ScheduledTime: now.Add(time.Hour),
	})
	require.Equal(t, http.StatusCreated, code)
	var created dto.VisitResponse
	decode(t, env.Data, &created)

	s.clock.Advance(2 * time.Hour)

	code, env = s.do(t, http.MethodPost, "/api/v1/admin/sweep?dry_run=true", "admin-1", model.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, code)
	var dry dto.SweepResponse
	decode(t, env.Data, &dry)
	assert.Equal(t, dto.SweepResponse{Expired: 1, DryRun: true}, dry)

	code, env = s.do(t, http.MethodPost, "/api/v1/visitor-form/"+created.Token, "", "", dto.AttachVisitorRequest{
		FullName: "Late Larry",
		Email:    "larry@guest.example",
	})
	assert.Equal(t, http.StatusGone, code)
	assert.Equal(t, 20013, env.Code)

	code, env = s.do(t, http.MethodGet, "/api/v1/visits/"+created.ID, "host-1", model.RoleEmployee, nil)
	require.Equal(t, http.StatusOK, code)
	var got dto.VisitResponse
	decode(t, env.Data, &got)
	assert.Equal(t, "expired", got.Status)
}

func TestWalkInCheckIn(t *testing.T) {
	s := newStack(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/lobby/walkin", "lobby-1", model.RoleLobbyAttendant, dto.CreateWalkInRequest{
		FullName: "Dave Drop-in",
		Email:    "dave@guest.example",
	})
	require.Equal(t, http.StatusCreated, code)
	var walkIn dto.VisitResponse
	decode(t, env.Data, &walkIn)
	assert.Equal(t, "approved", walkIn.Status)
	assert.Equal(t, "Walk-in visit", walkIn.Purpose)
	assert.Empty(t, walkIn.Token)
	require.NotNil(t, walkIn.Visitor)

	code, _ = s.do(t, http.MethodPost, "/api/v1/lobby/checkin", "lobby-1", model.RoleLobbyAttendant, dto.CheckInRequest{VisitorID: walkIn.Visitor.ID})
	assert.Equal(t, http.StatusOK, code)
}

// ═══════════════════════════════════════════════════════════
// 访问控制
// ═══════════════════════════════════════════════════════════

func TestAccessControl(t *testing.T) {
	s := newStack(t)

	tests := []struct {
		name   string
		method string
		path   string
		id     string
		role   string
		want   int
	}{
		{"匿名访问员工接口", http.MethodGet, "/api/v1/visits", "", "", http.StatusUnauthorized},
		{"员工访问前台接口", http.MethodGet, "/api/v1/lobby/today", "host-1", model.RoleEmployee, http.StatusForbidden},
		{"前台访问管理接口", http.MethodPost, "/api/v1/admin/sweep", "lobby-1", model.RoleLobbyAttendant, http.StatusForbidden},
		{"管理员访问前台接口", http.MethodGet, "/api/v1/lobby/today", "admin-1", model.RoleAdmin, http.StatusOK},
		{"非本人访问", http.MethodGet, "/api/v1/visits/" + uuid.NewString(), "host-1", model.RoleEmployee, http.StatusNotFound},
		{"未知 token", http.MethodGet, "/api/v1/visitor-form/not-a-token", "", "", http.StatusNotFound},
		{"健康检查", http.MethodGet, "/health", "", "", http.StatusOK},
		{"指标", http.MethodGet, "/metrics", "", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := s.do(t, tt.method, tt.path, tt.id, tt.role, nil)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestAuthMe(t *testing.T) {
	s := newStack(t)

	code, env := s.do(t, http.MethodGet, "/api/v1/auth/me", "host-1", model.RoleEmployee, nil)
	require.Equal(t, http.StatusOK, code)
	var me struct {
		Employee dto.EmployeeBrief `json:"employee"`
		Role     string            `json:"role"`
	}
	decode(t, env.Data, &me)
	assert.Equal(t, "Alice", me.Employee.Name)
	assert.Equal(t, model.RoleEmployee, me.Role)

	code, _ = s.do(t, http.MethodPost, "/api/v1/auth/logout", "host-1", model.RoleEmployee, nil)
	assert.Equal(t, http.StatusOK, code, "Redis 不可用时注销降级为成功")
}
