package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gatepass/backend/config"
	"gatepass/backend/internal/dto"
	"gatepass/backend/internal/lifecycle"
	"gatepass/backend/internal/model"
	"gatepass/backend/internal/repository"
	"gatepass/backend/pkg/clock"
	pkgerrors "gatepass/backend/pkg/errors"
	"gatepass/backend/pkg/metrics"
)

// ── 前台模块业务错误 ──

var (
	ErrInvalidDateRange = errors.New("结束日期不能早于开始日期")
)

// LobbyService 前台签到签退与看板接口
type LobbyService interface {
	CheckIn(ctx context.Context, req *dto.CheckInRequest, attendantID string) (*dto.VisitLogResponse, error)
	CheckOut(ctx context.Context, req *dto.CheckOutRequest, attendantID string) (*dto.VisitLogResponse, error)
	TodayBoard(ctx context.Context) ([]dto.VisitBoardItem, error)
	RangeBoard(ctx context.Context, req *dto.BoardRangeRequest) ([]dto.VisitBoardItem, error)
}

type lobbyService struct {
	repo    *repository.Repository
	sweeper *ExpirationSweeper
	clock   clock.Clock
	cfg     *config.VisitConfig
	logger  *zap.Logger
}

// NewLobbyService 创建 LobbyService 实例
func NewLobbyService(
	cfg *config.VisitConfig,
	repo *repository.Repository,
	sweeper *ExpirationSweeper,
	clk clock.Clock,
	logger *zap.Logger,
) LobbyService {
	return &lobbyService{
		repo:    repo,
		sweeper: sweeper,
		clock:   clk,
		cfg:     cfg,
		logger:  logger,
	}
}

// ────────────────────── 签到 ──────────────────────

// CheckIn 为访客签到
//
// 在前台时区“今天或明天”的已批准访问中取预约时间最早的一条；
// 到访记录依赖 visit_request_id 唯一索引创建，签到本身是条件更新，并发时只有一个请求成功
func (s *lobbyService) CheckIn(ctx context.Context, req *dto.CheckInRequest, attendantID string) (*dto.VisitLogResponse, error) {
	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	resp, err := s.checkIn(ctx, req, attendantID)
	metrics.RecordLobby("checkin", lobbyResult(err))
	return resp, err
}

// 未知访客与无可签到访问同样返回 ErrNoApprovedVisit，与签退一致
func (s *lobbyService) checkIn(ctx context.Context, req *dto.CheckInRequest, attendantID string) (*dto.VisitLogResponse, error) {
	now := s.clock.Now()
	from, to := lifecycle.CheckInWindow(now, s.cfg.Location())
	visits, _, err := s.repo.VisitRequest.List(ctx, repository.VisitFilter{
		VisitorID:     req.VisitorID,
		Statuses:      []model.VisitStatus{model.VisitStatusApproved},
		ScheduledFrom: &from,
		ScheduledTo:   &to,
	}, 0, 1)
	if err != nil {
		s.logger.Error("查询签到候选访问失败", zap.String("visitor_id", req.VisitorID), zap.Error(err))
		return nil, storeErr(err)
	}
	if len(visits) == 0 {
		return nil, lifecycle.ErrNoApprovedVisit
	}
	visit := visits[0]

	existing, err := s.repo.VisitLog.GetByVisitRequest(ctx, visit.VisitRequestID)
	if err != nil {
		if !isNotFound(err) {
			s.logger.Error("查询到访记录失败", zap.String("visit_id", visit.VisitRequestID), zap.Error(err))
			return nil, storeErr(err)
		}
		existing = nil
	}
	if err := lifecycle.CanCheckIn(visit, existing, now); err != nil {
		return nil, err
	}

	if existing == nil {
		if _, err := s.repo.VisitLog.CreateIfAbsent(ctx, &model.VisitLog{
			VisitLogID:     uuid.NewString(),
			VisitRequestID: visit.VisitRequestID,
			VisitorID:      req.VisitorID,
			BaseModel:      model.BaseModel{CreatedAt: now, UpdatedAt: now},
		}); err != nil {
			s.logger.Error("创建到访记录失败", zap.String("visit_id", visit.VisitRequestID), zap.Error(err))
			return nil, storeErr(err)
		}
	}

	notes := lifecycle.AppendNote("", req.Notes)
	if existing != nil {
		notes = lifecycle.AppendNote(existing.Notes, req.Notes)
	}
	if err := s.repo.VisitLog.MarkCheckedIn(ctx, visit.VisitRequestID, now, attendantID, notes); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, lifecycle.ErrAlreadyCheckedIn
		}
		s.logger.Error("签到失败", zap.String("visit_id", visit.VisitRequestID), zap.Error(err))
		return nil, storeErr(err)
	}

	log, err := s.repo.VisitLog.GetByVisitRequest(ctx, visit.VisitRequestID)
	if err != nil {
		s.logger.Error("签到后读取到访记录失败", zap.String("visit_id", visit.VisitRequestID), zap.Error(err))
		return nil, storeErr(err)
	}

	s.logger.Info("访客已签到",
		zap.String("visit_id", visit.VisitRequestID),
		zap.String("visitor_id", req.VisitorID),
		zap.String("attendant_id", attendantID),
	)
	return toVisitLogResponse(log, now), nil
}

// ────────────────────── 签退 ──────────────────────

// CheckOut 为访客签退，不再校验访问状态
func (s *lobbyService) CheckOut(ctx context.Context, req *dto.CheckOutRequest, attendantID string) (*dto.VisitLogResponse, error) {
	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	resp, err := s.checkOut(ctx, req, attendantID)
	metrics.RecordLobby("checkout", lobbyResult(err))
	return resp, err
}

func (s *lobbyService) checkOut(ctx context.Context, req *dto.CheckOutRequest, attendantID string) (*dto.VisitLogResponse, error) {
	log, err := s.repo.VisitLog.GetOpenByVisitor(ctx, req.VisitorID)
	if err != nil {
		if isNotFound(err) {
			return nil, lifecycle.ErrNoActiveVisit
		}
		s.logger.Error("查询未签退记录失败", zap.String("visitor_id", req.VisitorID), zap.Error(err))
		return nil, storeErr(err)
	}

	now := s.clock.Now()
	at := lifecycle.CheckOutTime(*log, now)
	notes := lifecycle.AppendNote(log.Notes, req.Notes)
	if err := s.repo.VisitLog.MarkCheckedOut(ctx, log.VisitLogID, at, attendantID, notes); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, lifecycle.ErrNoActiveVisit
		}
		s.logger.Error("签退失败", zap.String("visit_log_id", log.VisitLogID), zap.Error(err))
		return nil, storeErr(err)
	}

	log.CheckOutTime = &at
	log.CheckedOutBy = &attendantID
	log.Notes = notes
	log.UpdatedAt = now

	s.logger.Info("访客已签退",
		zap.String("visit_id", log.VisitRequestID),
		zap.String("visitor_id", req.VisitorID),
		zap.Duration("duration", log.Duration(now)),
	)
	return toVisitLogResponse(log, now), nil
}

// ────────────────────── 看板 ──────────────────────

// TodayBoard 今日已批准且访客已登记的访问
func (s *lobbyService) TodayBoard(ctx context.Context) ([]dto.VisitBoardItem, error) {
	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if _, err := s.sweeper.Sweep(ctx, SweepModeLazy); err != nil {
		return nil, err
	}

	from, to := lifecycle.DayWindow(s.clock.Now(), s.cfg.Location())
	hasVisitor := true
	return s.board(ctx, repository.VisitFilter{
		Statuses:      []model.VisitStatus{model.VisitStatusApproved},
		ScheduledFrom: &from,
		ScheduledTo:   &to,
		HasVisitor:    &hasVisitor,
	})
}

// RangeBoard 日期区间内的全部访问，缺省为本周一至下周一
func (s *lobbyService) RangeBoard(ctx context.Context, req *dto.BoardRangeRequest) ([]dto.VisitBoardItem, error) {
	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	from, to, err := boardRange(req, s.clock.Now(), s.cfg.Location())
	if err != nil {
		return nil, err
	}

	if _, err := s.sweeper.Sweep(ctx, SweepModeLazy); err != nil {
		return nil, err
	}

	filter := repository.VisitFilter{ScheduledFrom: &from, ScheduledTo: &to}
	if req.Status != "" {
		filter.Statuses = []model.VisitStatus{model.VisitStatus(req.Status)}
	}
	return s.board(ctx, filter)
}

func (s *lobbyService) board(ctx context.Context, filter repository.VisitFilter) ([]dto.VisitBoardItem, error) {
	visits, _, err := s.repo.VisitRequest.List(ctx, filter, 0, 0)
	if err != nil {
		s.logger.Error("查询看板失败", zap.Error(err))
		return nil, storeErr(err)
	}

	items := make([]dto.VisitBoardItem, 0, len(visits))
	for i := range visits {
		items = append(items, toBoardItem(&visits[i]))
	}
	return items, nil
}

// boardRange 解析看板日期区间，结束日期包含当天
func boardRange(req *dto.BoardRangeRequest, now time.Time, loc *time.Location) (from, to time.Time, err error) {
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	offset := (int(today.Weekday()) + 6) % 7 // 周一为 0
	start := today.AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 7)

	if req.StartDate != "" {
		start, err = time.ParseInLocation("2006-01-02", req.StartDate, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if req.EndDate == "" {
			end = start.AddDate(0, 0, 7)
		}
	}
	if req.EndDate != "" {
		last, perr := time.ParseInLocation("2006-01-02", req.EndDate, loc)
		if perr != nil {
			return time.Time{}, time.Time{}, perr
		}
		end = last.AddDate(0, 0, 1)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return start.UTC(), end.UTC(), nil
}

func lobbyResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, lifecycle.ErrAlreadyCheckedIn):
		return "already_checked_in"
	case errors.Is(err, lifecycle.ErrNoApprovedVisit):
		return "no_approved_visit"
	case errors.Is(err, lifecycle.ErrVisitExpired):
		return "visit_expired"
	case errors.Is(err, lifecycle.ErrNoActiveVisit):
		return "no_active_visit"
	default:
		return "error"
	}
}
