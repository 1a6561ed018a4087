package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"gatepass/backend/internal/model"
	pkgerrors "gatepass/backend/pkg/errors"
)

// VisitFilter 访问申请查询条件，零值字段不参与过滤
type VisitFilter struct {
	HostID        string
	VisitorID     string
	Statuses      []model.VisitStatus
	ScheduledFrom *time.Time // 含
	ScheduledTo   *time.Time // 不含
	HasVisitor    *bool
	Descending    bool // 默认按预约时间升序
}

// VisitRequestRepository 访问申请数据访问接口
//
// 状态写入一律为条件更新：WHERE 当前状态 = 期望状态，
// 影响 0 行时返回 ErrOptimisticLock，由服务层基于最新快照判定失败原因
type VisitRequestRepository interface {
	Create(ctx context.Context, visit *model.VisitRequest) error
	GetByID(ctx context.Context, id string) (*model.VisitRequest, error)
	GetByToken(ctx context.Context, token string) (*model.VisitRequest, error)
	List(ctx context.Context, filter VisitFilter, offset, limit int) ([]model.VisitRequest, int64, error)
	UpdateStatus(ctx context.Context, id string, from, to model.VisitStatus, at time.Time) error
	AttachVisitor(ctx context.Context, id, visitorID string, at time.Time) error
	UpdateDetails(ctx context.Context, visit *model.VisitRequest) error
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
	CountOverdue(ctx context.Context, now time.Time) (int64, error)
}

type visitRequestRepo struct {
	db *gorm.DB
}

func NewVisitRequestRepo(db *gorm.DB) VisitRequestRepository {
	return &visitRequestRepo{db: db}
}

func (r *visitRequestRepo) Create(ctx context.Context, visit *model.VisitRequest) error {
	visit.ScheduledTime = visit.ScheduledTime.UTC()
	return r.db.WithContext(ctx).Omit("Visitor", "Host", "Log").Create(visit).Error
}

func (r *visitRequestRepo) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Visitor").
		Preload("Host").
		Preload("Log")
}

func (r *visitRequestRepo) GetByID(ctx context.Context, id string) (*model.VisitRequest, error) {
	var visit model.VisitRequest
	err := r.preloaded(ctx).
		Where("visit_request_id = ?", id).
		First(&visit).Error
	if err != nil {
		return nil, err
	}
	return &visit, nil
}

func (r *visitRequestRepo) GetByToken(ctx context.Context, token string) (*model.VisitRequest, error) {
	var visit model.VisitRequest
	err := r.preloaded(ctx).
		Where("token = ?", token).
		First(&visit).Error
	if err != nil {
		return nil, err
	}
	return &visit, nil
}

func (r *visitRequestRepo) List(ctx context.Context, filter VisitFilter, offset, limit int) ([]model.VisitRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.VisitRequest{})

	if filter.HostID != "" {
		query = query.Where("host_id = ?", filter.HostID)
	}
	if filter.VisitorID != "" {
		query = query.Where("visitor_id = ?", filter.VisitorID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.ScheduledFrom != nil {
		query = query.Where("scheduled_time >= ?", filter.ScheduledFrom.UTC())
	}
	if filter.ScheduledTo != nil {
		query = query.Where("scheduled_time < ?", filter.ScheduledTo.UTC())
	}
	if filter.HasVisitor != nil {
		if *filter.HasVisitor {
			query = query.Where("visitor_id IS NOT NULL")
		} else {
			query = query.Where("visitor_id IS NULL")
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "scheduled_time ASC"
	if filter.Descending {
		order = "scheduled_time DESC"
	}
	query = query.Preload("Visitor").Preload("Host").Preload("Log").Order(order)
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var visits []model.VisitRequest
	if err := query.Find(&visits).Error; err != nil {
		return nil, 0, err
	}
	return visits, total, nil
}

// UpdateStatus 条件更新状态：仅当当前状态仍为 from 时生效
func (r *visitRequestRepo) UpdateStatus(ctx context.Context, id string, from, to model.VisitStatus, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.VisitRequest{}).
		Where("visit_request_id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": at.UTC(),
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

// AttachVisitor 关联访客：仅当尚未关联且仍为待审批时生效
func (r *visitRequestRepo) AttachVisitor(ctx context.Context, id, visitorID string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.VisitRequest{}).
		Where("visit_request_id = ? AND visitor_id IS NULL AND status = ?", id, model.VisitStatusPending).
		Updates(map[string]interface{}{
			"visitor_id": visitorID,
			"updated_at": at.UTC(),
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

// UpdateDetails 修改用途与预约时间（乐观锁 + 仅限待审批）
func (r *visitRequestRepo) UpdateDetails(ctx context.Context, visit *model.VisitRequest) error {
	oldVersion := visit.Version
	result := r.db.WithContext(ctx).
		Model(&model.VisitRequest{}).
		Where("visit_request_id = ? AND version = ? AND status = ?", visit.VisitRequestID, oldVersion, model.VisitStatusPending).
		Updates(map[string]interface{}{
			"purpose":        visit.Purpose,
			"scheduled_time": visit.ScheduledTime.UTC(),
			"updated_at":     visit.UpdatedAt.UTC(),
			"version":        oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	visit.Version = oldVersion + 1
	return nil
}

// ExpireOverdue 单条语句批量过期：pending 且预约时间早于 now
// 重复执行只会命中尚未过期的行，天然幂等
func (r *visitRequestRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.VisitRequest{}).
		Where("status = ? AND scheduled_time < ?", model.VisitStatusPending, now.UTC()).
		Updates(map[string]interface{}{
			"status":     model.VisitStatusExpired,
			"updated_at": now.UTC(),
			"version":    gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}

func (r *visitRequestRepo) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.VisitRequest{}).
		Where("status = ? AND scheduled_time < ?", model.VisitStatusPending, now.UTC()).
		Count(&n).Error
	return n, err
}
