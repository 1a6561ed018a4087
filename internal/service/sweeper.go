package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gatepass/backend/config"
	"gatepass/backend/internal/repository"
	"gatepass/backend/pkg/clock"
	"gatepass/backend/pkg/metrics"
)

// 扫描触发方式
const (
	SweepModeLazy     = "lazy"     // 列表查询前
	SweepModePeriodic = "periodic" // 后台定时
	SweepModeManual   = "manual"   // 管理接口 / gatepassctl
)

const sweepLockName = "expiration-sweep"

// Locker 多副本部署下的扫描互斥锁
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (bool, error)
}

// ExpirationSweeper 将过期的待审批申请批量置为 expired
// 所有入口共用同一条条件批量更新语句，并发执行不会重复过期或报错
type ExpirationSweeper struct {
	repo   *repository.Repository
	clock  clock.Clock
	locker Locker
	cfg    *config.VisitConfig
	logger *zap.Logger
}

// NewExpirationSweeper 创建扫描器；locker 为 nil 时每个副本各自扫描
func NewExpirationSweeper(cfg *config.VisitConfig, repo *repository.Repository, clk clock.Clock, locker Locker, logger *zap.Logger) *ExpirationSweeper {
	return &ExpirationSweeper{repo: repo, clock: clk, locker: locker, cfg: cfg, logger: logger}
}

// Sweep 执行一次过期扫描，返回本次过期的条数
func (s *ExpirationSweeper) Sweep(ctx context.Context, mode string) (int64, error) {
	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	n, err := s.repo.VisitRequest.ExpireOverdue(ctx, s.clock.Now())
	metrics.RecordSweep(mode, n, err)
	if err != nil {
		s.logger.Error("过期扫描失败", zap.String("mode", mode), zap.Error(err))
		return 0, storeErr(err)
	}
	if n > 0 {
		s.logger.Info("过期扫描完成", zap.String("mode", mode), zap.Int64("expired", n))
	}
	return n, nil
}

// CountDue 统计当前应过期但尚未过期的条数（dry-run）
func (s *ExpirationSweeper) CountDue(ctx context.Context) (int64, error) {
	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	n, err := s.repo.VisitRequest.CountOverdue(ctx, s.clock.Now())
	if err != nil {
		s.logger.Error("统计待过期申请失败", zap.Error(err))
		return 0, storeErr(err)
	}
	return n, nil
}

// Run 按 visit.sweep_interval 周期扫描，ctx 取消后返回
// 间隔为 0 时不启动
func (s *ExpirationSweeper) Run(ctx context.Context) error {
	interval := s.cfg.SweepInterval
	if interval <= 0 {
		s.logger.Info("周期性过期扫描已关闭")
		return nil
	}

	s.logger.Info("周期性过期扫描已启动", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("周期性过期扫描已停止")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *ExpirationSweeper) tick(ctx context.Context) {
	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx, sweepLockName, s.cfg.SweepLockTTL)
		switch {
		case err != nil:
			// 扫描本身幂等，锁不可用时照常执行
			s.logger.Warn("获取扫描锁失败，继续执行", zap.Error(err))
		case !ok:
			s.logger.Debug("其他副本正在扫描，跳过本轮")
			return
		}
	}
	_, _ = s.Sweep(ctx, SweepModePeriodic)
}
