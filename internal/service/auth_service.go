package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"gatepass/backend/internal/dto"
	"gatepass/backend/internal/repository"
)

var (
	ErrEmployeeNotFound = errors.New("员工不存在")
)

// TokenBlacklist 令牌黑名单（Redis 实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthService 认证业务接口
// 令牌由外部身份系统或 gatepassctl 签发，本服务只负责注销与查询当前员工
type AuthService interface {
	Logout(ctx context.Context, jti string, remaining time.Duration) error
	Me(ctx context.Context, employeeID string) (*dto.EmployeeBrief, error)
}

type authService struct {
	repo      *repository.Repository
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例；blacklist 为 nil 时注销退化为空操作
func NewAuthService(
	repo *repository.Repository,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:      repo,
		blacklist: blacklist,
		logger:    logger,
	}
}

// Logout 将令牌加入黑名单直至其自然过期
func (s *authService) Logout(ctx context.Context, jti string, remaining time.Duration) error {
	if s.blacklist == nil {
		s.logger.Warn("Redis 不可用，注销仅在客户端生效", zap.String("jti", jti))
		return nil
	}
	if jti == "" || remaining <= 0 {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, remaining); err != nil {
		s.logger.Error("令牌加入黑名单失败", zap.String("jti", jti), zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) Me(ctx context.Context, employeeID string) (*dto.EmployeeBrief, error) {
	employee, err := s.repo.Employee.GetByID(ctx, employeeID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, storeErr(err)
	}
	return toEmployeeBrief(employee), nil
}
