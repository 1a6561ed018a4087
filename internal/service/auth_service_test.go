package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeBlacklist struct {
	entries map[string]time.Duration
	err     error
}

func (f *fakeBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	if f.entries == nil {
		f.entries = make(map[string]time.Duration)
	}
	f.entries[jti] = ttl
	return nil
}

func TestAuthService_Logout(t *testing.T) {
	env := setupTestEnv()
	bl := &fakeBlacklist{}
	svc := NewAuthService(env.store.repository(), bl, zap.NewNop())

	if err := svc.Logout(context.Background(), "jti-1", 10*time.Minute); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	if ttl := bl.entries["jti-1"]; ttl != 10*time.Minute {
		t.Errorf("黑名单 TTL 应为令牌剩余有效期，实际=%v", ttl)
	}

	// 已过期的令牌无需写入
	if err := svc.Logout(context.Background(), "jti-2", 0); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	if _, ok := bl.entries["jti-2"]; ok {
		t.Error("剩余有效期为 0 时不应写入黑名单")
	}
}

func TestAuthService_Logout_Degraded(t *testing.T) {
	env := setupTestEnv()

	svc := NewAuthService(env.store.repository(), nil, zap.NewNop())
	if err := svc.Logout(context.Background(), "jti-1", time.Minute); err != nil {
		t.Errorf("Redis 不可用时注销应静默成功: %v", err)
	}

	failing := NewAuthService(env.store.repository(), &fakeBlacklist{err: errors.New("redis down")}, zap.NewNop())
	if err := failing.Logout(context.Background(), "jti-1", time.Minute); err == nil {
		t.Error("黑名单写入失败应返回错误")
	}
}

func TestAuthService_Me(t *testing.T) {
	env := setupTestEnv()
	svc := NewAuthService(env.store.repository(), nil, zap.NewNop())

	me, err := svc.Me(context.Background(), "host-1")
	if err != nil {
		t.Fatalf("Me 应成功: %v", err)
	}
	if me.Name != "Alice Host" || me.Email != "alice@corp.example" {
		t.Errorf("员工信息不正确: %+v", me)
	}

	if _, err := svc.Me(context.Background(), "nobody"); !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("期望 ErrEmployeeNotFound，实际: %v", err)
	}
}
