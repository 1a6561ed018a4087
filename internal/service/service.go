package service

import (
	"go.uber.org/zap"

	"gatepass/backend/config"
	"gatepass/backend/internal/notify"
	"gatepass/backend/internal/repository"
	"gatepass/backend/pkg/clock"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Visit   VisitService
	Lobby   LobbyService
	Auth    AuthService
	Sweeper *ExpirationSweeper
}

// NewService 创建 Service 聚合
// locker 与 blacklist 可为 nil（Redis 不可用时降级运行）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	notifier notify.Gateway,
	clk clock.Clock,
	locker Locker,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) *Service {
	sweeper := NewExpirationSweeper(&cfg.Visit, repo, clk, locker, logger)
	return &Service{
		Visit:   NewVisitService(&cfg.Visit, repo, sweeper, notifier, clk, logger),
		Lobby:   NewLobbyService(&cfg.Visit, repo, sweeper, clk, logger),
		Auth:    NewAuthService(repo, blacklist, logger),
		Sweeper: sweeper,
	}
}
