package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gatepass/backend/config"
	"gatepass/backend/internal/dto"
	"gatepass/backend/internal/lifecycle"
	"gatepass/backend/internal/model"
	"gatepass/backend/internal/notify"
	"gatepass/backend/internal/repository"
	"gatepass/backend/pkg/clock"
	pkgerrors "gatepass/backend/pkg/errors"
	"gatepass/backend/pkg/metrics"
)

// ── 访问模块业务错误 ──

var (
	ErrVisitNotFound = errors.New("访问申请不存在")
)

// VisitService 访问申请业务接口
type VisitService interface {
	CreateVisit(ctx context.Context, req *dto.CreateVisitRequest, hostID string) (*dto.VisitResponse, error)
	CreateWalkIn(ctx context.Context, req *dto.CreateWalkInRequest, attendantID string) (*dto.VisitResponse, error)
	GetVisit(ctx context.Context, id, hostID string) (*dto.VisitResponse, error)
	ListMyVisits(ctx context.Context, req *dto.VisitListRequest, hostID string) ([]dto.VisitResponse, int64, error)
	ListPending(ctx context.Context, hostID string) ([]dto.VisitResponse, error)
	ListMyVisitors(ctx context.Context, hostID string) ([]dto.VisitBoardItem, error)
	UpdateVisit(ctx context.Context, id string, req *dto.UpdateVisitRequest, hostID string) (*dto.VisitResponse, error)
	GetVisitorForm(ctx context.Context, token string) (*dto.VisitorFormResponse, error)
	AttachVisitor(ctx context.Context, token string, req *dto.AttachVisitorRequest) (*dto.VisitResponse, error)
	Approve(ctx context.Context, id, hostID string) (*dto.VisitResponse, error)
	Reject(ctx context.Context, id, hostID string) (*dto.VisitResponse, error)
	Cancel(ctx context.Context, id, hostID string) (*dto.VisitResponse, error)
	MarkNoShow(ctx context.Context, id, attendantID string) (*dto.VisitResponse, error)
}

type visitService struct {
	repo     *repository.Repository
	sweeper  *ExpirationSweeper
	notifier notify.Gateway
	clock    clock.Clock
	cfg      *config.VisitConfig
	logger   *zap.Logger
}

// NewVisitService 创建 VisitService 实例
func NewVisitService(
	cfg *config.VisitConfig,
	repo *repository.Repository,
	sweeper *ExpirationSweeper,
	notifier notify.Gateway,
	clk clock.Clock,
	logger *zap.Logger,
) VisitService {
	return &visitService{
		repo:     repo,
		sweeper:  sweeper,
		notifier: notifier,
		clock:    clk,
		cfg:      cfg,
		logger:   logger,
	}
}

// ────────────────────── CreateVisit ──────────────────────

func (s *visitService) CreateVisit(ctx context.Context, req *dto.CreateVisitRequest, hostID string) (*dto.VisitResponse, error) {
	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	now := s.clock.Now()
	visit, err := lifecycle.NewVisitRequest(uuid.NewString(), uuid.NewString(), lifecycle.NewVisit{
		HostID:        hostID,
		Purpose:       req.Purpose,
		ScheduledTime: req.ScheduledTime,
		VisitType:     model.VisitTypeScheduled,
	}, now)
	if err != nil {
		return nil, err
	}

	if err := s.repo.VisitRequest.Create(ctx, &visit); err != nil {
		s.logger.Error("创建访问申请失败", zap.Error(err))
		return nil, storeErr(err)
	}
	metrics.RecordVisitCreated(string(visit.VisitType))

	visit.Host = s.lookupHost(ctx, hostID)
	s.notify(ctx, notify.Notification{
		Kind:       notify.KindInvitation,
		Visit:      visit,
		Host:       visit.Host,
		InviteLink: s.cfg.InviteLink(visit.Token),
	})

	s.logger.Info("访问申请已创建",
		zap.String("visit_id", visit.VisitRequestID),
		zap.String("host_id", hostID),
		zap.Time("scheduled_time", visit.ScheduledTime),
	)
	return s.toVisitResponse(&visit, true), nil
}

// ────────────────────── CreateWalkIn ──────────────────────

// CreateWalkIn 前台现场登记：同一事务内创建访客与已批准的访问
func (s *visitService) CreateWalkIn(ctx context.Context, req *dto.CreateWalkInRequest, attendantID string) (*dto.VisitResponse, error) {
	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	now := s.clock.Now()
	purpose := strings.TrimSpace(req.Purpose)
	if purpose == "" {
		purpose = s.cfg.WalkInDefaultNote
	}
	var scheduled time.Time
	if req.ScheduledTime != nil {
		scheduled = *req.ScheduledTime
	}

	visitor := &model.Visitor{
		VisitorID: uuid.NewString(),
		FullName:  strings.TrimSpace(req.FullName),
		Email:     strings.TrimSpace(req.Email),
		Contact:   req.Contact,
		Address:   req.Address,
		CreatedBy: &attendantID,
		CreatedAt: now,
	}

	visit, err := lifecycle.NewVisitRequest(uuid.NewString(), uuid.NewString(), lifecycle.NewVisit{
		HostID:        attendantID,
		Purpose:       purpose,
		ScheduledTime: scheduled,
		VisitType:     model.VisitTypeWalkIn,
		VisitorID:     &visitor.VisitorID,
	}, now)
	if err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Visitor.Create(ctx, visitor); err != nil {
			return err
		}
		return tx.VisitRequest.Create(ctx, &visit)
	})
	if err != nil {
		s.logger.Error("创建到访登记失败", zap.Error(err))
		return nil, storeErr(err)
	}
	metrics.RecordVisitCreated(string(visit.VisitType))

	visit.Visitor = visitor
	visit.Host = s.lookupHost(ctx, attendantID)

	s.logger.Info("到访登记已创建",
		zap.String("visit_id", visit.VisitRequestID),
		zap.String("visitor_id", visitor.VisitorID),
		zap.String("attendant_id", attendantID),
	)
	return s.toVisitResponse(&visit, false), nil
}

// ────────────────────── 查询 ──────────────────────

func (s *visitService) GetVisit(ctx context.Context, id, hostID string) (*dto.VisitResponse, error) {
	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if _, err := s.sweeper.Sweep(ctx, SweepModeLazy); err != nil {
		return nil, err
	}
	visit, err := s.loadOwned(ctx, id, hostID)
	if err != nil {
		return nil, err
	}
	return s.toVisitResponse(visit, true), nil
}

// ListMyVisits 接待人即将到来的访问（分页，可按状态过滤）
func (s *visitService) ListMyVisits(ctx context.Context, req *dto.VisitListRequest, hostID string) ([]dto.VisitResponse, int64, error) {
	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if _, err := s.sweeper.Sweep(ctx, SweepModeLazy); err != nil {
		return nil, 0, err
	}

	now := s.clock.Now()
	filter := repository.VisitFilter{HostID: hostID, ScheduledFrom: &now}
	if req.Status != "" {
		filter.Statuses = []model.VisitStatus{model.VisitStatus(req.Status)}
	}

	visits, total, err := s.repo.VisitRequest.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询访问列表失败", zap.Error(err))
		return nil, 0, storeErr(err)
	}

	result := make([]dto.VisitResponse, 0, len(visits))
	for i := range visits {
		result = append(result, *s.toVisitResponse(&visits[i], true))
	}
	return result, total, nil
}

// ListPending 待审批且访客已登记的申请
func (s *visitService) ListPending(ctx context.Context, hostID string) ([]dto.VisitResponse, error) {
	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if _, err := s.sweeper.Sweep(ctx, SweepModeLazy); err != nil {
		return nil, err
	}

	hasVisitor := true
	visits, _, err := s.repo.VisitRequest.List(ctx, repository.VisitFilter{
		HostID:     hostID,
		Statuses:   []model.VisitStatus{model.VisitStatusPending},
		HasVisitor: &hasVisitor,
	}, 0, 0)
	if err != nil {
		s.logger.Error("查询待审批列表失败", zap.Error(err))
		return nil, storeErr(err)
	}

	result := make([]dto.VisitResponse, 0, len(visits))
	for i := range visits {
		result = append(result, *s.toVisitResponse(&visits[i], false))
	}
	return result, nil
}

// ListMyVisitors 接待人已批准的访问及签到状态
func (s *visitService) ListMyVisitors(ctx context.Context, hostID string) ([]dto.VisitBoardItem, error) {
	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if _, err := s.sweeper.Sweep(ctx, SweepModeLazy); err != nil {
		return nil, err
	}

	hasVisitor := true
	visits, _, err := s.repo.VisitRequest.List(ctx, repository.VisitFilter{
		HostID:     hostID,
		Statuses:   []model.VisitStatus{model.VisitStatusApproved},
		HasVisitor: &hasVisitor,
	}, 0, 0)
	if err != nil {
		s.logger.Error("查询我的访客失败", zap.Error(err))
		return nil, storeErr(err)
	}

	result := make([]dto.VisitBoardItem, 0, len(visits))
	for i := range visits {
		result = append(result, toBoardItem(&visits[i]))
	}
	return result, nil
}

// ────────────────────── UpdateVisit ──────────────────────

// UpdateVisit 修改待审批访问的用途或时间；访客已登记且确有变化时发送改期通知
// 先执行惰性扫描，预约已过的申请在改期前即转为 expired，返回 ErrNotPending
func (s *visitService) UpdateVisit(ctx context.Context, id string, req *dto.UpdateVisitRequest, hostID string) (*dto.VisitResponse, error) {
	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if _, err := s.sweeper.Sweep(ctx, SweepModeLazy); err != nil {
		return nil, err
	}
	visit, err := s.loadOwned(ctx, id, hostID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	next, changed, err := lifecycle.Reschedule(*visit, lifecycle.Changes{
		Purpose:       req.Purpose,
		ScheduledTime: req.ScheduledTime,
	}, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return s.toVisitResponse(visit, true), nil
	}

	if err := s.repo.VisitRequest.UpdateDetails(ctx, &next); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, s.rejudgeReschedule(ctx, id)
		}
		s.logger.Error("修改访问申请失败", zap.String("visit_id", id), zap.Error(err))
		return nil, storeErr(err)
	}

	if next.HasVisitor() {
		s.notify(ctx, notify.Notification{
			Kind:     notify.KindRescheduled,
			Visit:    next,
			Visitor:  next.Visitor,
			Host:     next.Host,
			Previous: &notify.Previous{Purpose: visit.Purpose, ScheduledTime: visit.ScheduledTime},
		})
	}

	s.logger.Info("访问申请已修改", zap.String("visit_id", id), zap.Int("version", next.Version))
	return s.toVisitResponse(&next, true), nil
}

// rejudgeReschedule 改期条件更新落空：状态已变化返回 ErrNotPending，否则是并发编辑
func (s *visitService) rejudgeReschedule(ctx context.Context, id string) error {
	fresh, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if fresh.Status != model.VisitStatusPending {
		return lifecycle.ErrNotPending
	}
	return pkgerrors.ErrOptimisticLock
}

// ────────────────────── 访客登记 ──────────────────────

// GetVisitorForm 登记页预览，判定规则与提交一致
func (s *visitService) GetVisitorForm(ctx context.Context, token string) (*dto.VisitorFormResponse, error) {
	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	visit, err := s.loadByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.checkAttachable(ctx, visit); err != nil {
		return nil, err
	}

	resp := &dto.VisitorFormResponse{
		Purpose:       visit.Purpose,
		ScheduledTime: formatTime(visit.ScheduledTime),
		VisitType:     string(visit.VisitType),
		Status:        string(visit.Status),
	}
	if visit.Host != nil {
		resp.HostName = visit.Host.Name
	}
	return resp, nil
}

// AttachVisitor 访客提交登记表：创建访客并关联到申请，申请保持待审批
func (s *visitService) AttachVisitor(ctx context.Context, token string, req *dto.AttachVisitorRequest) (*dto.VisitResponse, error) {
	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	visit, err := s.loadByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.checkAttachable(ctx, visit); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	visitor := &model.Visitor{
		VisitorID: uuid.NewString(),
		FullName:  strings.TrimSpace(req.FullName),
		Email:     strings.TrimSpace(req.Email),
		Contact:   req.Contact,
		Address:   req.Address,
		CreatedBy: &visit.HostID,
		CreatedAt: now,
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Visitor.Create(ctx, visitor); err != nil {
			return err
		}
		return tx.VisitRequest.AttachVisitor(ctx, visit.VisitRequestID, visitor.VisitorID, now)
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			// 并发提交或状态已变化，以最新快照重新判定
			fresh, ferr := s.load(ctx, visit.VisitRequestID)
			if ferr != nil {
				return nil, ferr
			}
			if cerr := lifecycle.CheckAttachable(*fresh, now); cerr != nil {
				return nil, cerr
			}
			return nil, lifecycle.ErrAlreadyCompleted
		}
		s.logger.Error("访客登记失败", zap.String("visit_id", visit.VisitRequestID), zap.Error(err))
		return nil, storeErr(err)
	}

	visit.VisitorID = &visitor.VisitorID
	visit.Visitor = visitor
	visit.UpdatedAt = now
	visit.Version++

	s.logger.Info("访客已完成登记",
		zap.String("visit_id", visit.VisitRequestID),
		zap.String("visitor_id", visitor.VisitorID),
	)
	return s.toVisitResponse(visit, false), nil
}

// checkAttachable 登记前判定；预约已过且仍待审批时顺带置为 expired
func (s *visitService) checkAttachable(ctx context.Context, visit *model.VisitRequest) error {
	now := s.clock.Now()
	err := lifecycle.CheckAttachable(*visit, now)
	if errors.Is(err, lifecycle.ErrExpired) && lifecycle.IsOverdue(*visit, now) {
		if _, terr := s.commitTransition(ctx, visit, model.VisitStatusExpired, nil, now); terr != nil &&
			!errors.Is(terr, lifecycle.ErrInvalidTransition) {
			s.logger.Error("登记时过期申请失败", zap.String("visit_id", visit.VisitRequestID), zap.Error(terr))
			return terr
		}
	}
	return err
}

// ────────────────────── 状态流转 ──────────────────────

func (s *visitService) Approve(ctx context.Context, id, hostID string) (*dto.VisitResponse, error) {
	return s.transitionOwned(ctx, id, hostID, model.VisitStatusApproved, notify.KindApproved)
}

func (s *visitService) Reject(ctx context.Context, id, hostID string) (*dto.VisitResponse, error) {
	return s.transitionOwned(ctx, id, hostID, model.VisitStatusRejected, notify.KindRejected)
}

func (s *visitService) Cancel(ctx context.Context, id, hostID string) (*dto.VisitResponse, error) {
	return s.transitionOwned(ctx, id, hostID, model.VisitStatusCanceled, notify.KindCanceled)
}

// MarkNoShow 前台标记爽约，不校验接待人归属
func (s *visitService) MarkNoShow(ctx context.Context, id, attendantID string) (*dto.VisitResponse, error) {
	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	visit, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := s.commitTransition(ctx, visit, model.VisitStatusNoShow, &attendantID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	// 爽约通知始终发给接待人，访客已登记时一并抄送
	s.notify(ctx, notify.Notification{
		Kind:    notify.KindNoShow,
		Visit:   *next,
		Visitor: next.Visitor,
		Host:    next.Host,
	})
	return s.toVisitResponse(next, false), nil
}

func (s *visitService) transitionOwned(ctx context.Context, id, hostID string, to model.VisitStatus, kind notify.Kind) (*dto.VisitResponse, error) {
	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	visit, err := s.loadOwned(ctx, id, hostID)
	if err != nil {
		return nil, err
	}
	next, err := s.commitTransition(ctx, visit, to, &hostID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if next.HasVisitor() {
		s.notify(ctx, notify.Notification{
			Kind:    kind,
			Visit:   *next,
			Visitor: next.Visitor,
			Host:    next.Host,
		})
	}
	return s.toVisitResponse(next, true), nil
}

// commitTransition 判定并持久化一次状态流转，审计事件与状态更新同一事务
// 条件更新落空说明有并发写入，基于最新快照重新判定并返回对应的业务错误
func (s *visitService) commitTransition(ctx context.Context, visit *model.VisitRequest, to model.VisitStatus, actorID *string, now time.Time) (*model.VisitRequest, error) {
	next, err := lifecycle.Transition(*visit, to, now)
	if err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.VisitRequest.UpdateStatus(ctx, visit.VisitRequestID, visit.Status, to, now); err != nil {
			return err
		}
		return tx.StatusEvent.Create(ctx, &model.VisitStatusEvent{
			EventID:        uuid.NewString(),
			VisitRequestID: visit.VisitRequestID,
			FromStatus:     visit.Status,
			ToStatus:       to,
			ActorID:        actorID,
			CreatedAt:      now,
		})
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			fresh, ferr := s.load(ctx, visit.VisitRequestID)
			if ferr != nil {
				return nil, ferr
			}
			if _, terr := lifecycle.Transition(*fresh, to, now); terr != nil {
				return nil, terr
			}
			return nil, &lifecycle.TransitionError{From: fresh.Status, To: to}
		}
		s.logger.Error("状态流转失败",
			zap.String("visit_id", visit.VisitRequestID),
			zap.String("to", string(to)),
			zap.Error(err),
		)
		return nil, storeErr(err)
	}

	next.Version++
	metrics.RecordTransition(string(visit.Status), string(to))
	s.logger.Info("访问状态已变更",
		zap.String("visit_id", visit.VisitRequestID),
		zap.String("from", string(visit.Status)),
		zap.String("to", string(to)),
	)
	return &next, nil
}

// ────────────────────── 内部辅助 ──────────────────────

func (s *visitService) load(ctx context.Context, id string) (*model.VisitRequest, error) {
	visit, err := s.repo.VisitRequest.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrVisitNotFound
		}
		s.logger.Error("查询访问申请失败", zap.String("visit_id", id), zap.Error(err))
		return nil, storeErr(err)
	}
	return visit, nil
}

// loadOwned 仅返回属于 hostID 的申请，否则视为不存在
func (s *visitService) loadOwned(ctx context.Context, id, hostID string) (*model.VisitRequest, error) {
	visit, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if visit.HostID != hostID {
		return nil, ErrVisitNotFound
	}
	return visit, nil
}

func (s *visitService) loadByToken(ctx context.Context, token string) (*model.VisitRequest, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, ErrVisitNotFound
	}
	visit, err := s.repo.VisitRequest.GetByToken(ctx, token)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrVisitNotFound
		}
		s.logger.Error("按 token 查询访问申请失败", zap.Error(err))
		return nil, storeErr(err)
	}
	return visit, nil
}

func (s *visitService) lookupHost(ctx context.Context, hostID string) *model.Employee {
	host, err := s.repo.Employee.GetByID(ctx, hostID)
	if err != nil {
		if !isNotFound(err) {
			s.logger.Warn("查询接待人失败", zap.String("host_id", hostID), zap.Error(err))
		}
		return nil
	}
	return host
}

// notify 尽力发送，失败只记日志与指标
// 发送脱离存储操作的超时，时限由网关按 mail.timeout 控制
func (s *visitService) notify(ctx context.Context, n notify.Notification) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Send(context.WithoutCancel(ctx), n)
	metrics.RecordNotification(string(n.Kind), err)
	if err != nil {
		s.logger.Warn("通知发送失败",
			zap.String("kind", string(n.Kind)),
			zap.String("visit_id", n.Visit.VisitRequestID),
			zap.Error(err),
		)
	}
}

// toVisitResponse withToken 为 true 时返回 token 与登记链接（仅接待人可见）
func (s *visitService) toVisitResponse(v *model.VisitRequest, withToken bool) *dto.VisitResponse {
	resp := &dto.VisitResponse{
		ID:             v.VisitRequestID,
		Status:         string(v.Status),
		VisitType:      string(v.VisitType),
		Purpose:        v.Purpose,
		ScheduledTime:  formatTime(v.ScheduledTime),
		HostID:         v.HostID,
		Host:           toEmployeeBrief(v.Host),
		OriginalHostID: v.OriginalHostID,
		Visitor:        toVisitorResponse(v.Visitor),
		Log:            toVisitLogResponse(v.Log, s.clock.Now()),
		Version:        v.Version,
		CreatedAt:      formatTime(v.CreatedAt),
		UpdatedAt:      formatTime(v.UpdatedAt),
	}
	if withToken && v.VisitType == model.VisitTypeScheduled {
		resp.Token = v.Token
		resp.InvitationLink = s.cfg.InviteLink(v.Token)
	}
	return resp
}
