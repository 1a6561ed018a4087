package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gatepass/backend/internal/model"
	pkgerrors "gatepass/backend/pkg/errors"
)

// VisitLogRepository 到访记录数据访问接口
// visit_logs.visit_request_id 上的唯一索引保证每个访问最多一条记录
type VisitLogRepository interface {
	CreateIfAbsent(ctx context.Context, log *model.VisitLog) (bool, error)
	GetByVisitRequest(ctx context.Context, visitRequestID string) (*model.VisitLog, error)
	GetOpenByVisitor(ctx context.Context, visitorID string) (*model.VisitLog, error)
	MarkCheckedIn(ctx context.Context, visitRequestID string, at time.Time, by, notes string) error
	MarkCheckedOut(ctx context.Context, logID string, at time.Time, by, notes string) error
}

type visitLogRepo struct {
	db *gorm.DB
}

func NewVisitLogRepo(db *gorm.DB) VisitLogRepository {
	return &visitLogRepo{db: db}
}

// CreateIfAbsent 插入到访记录，唯一键冲突时静默跳过
// 返回值表示本次是否真正插入
func (r *visitLogRepo) CreateIfAbsent(ctx context.Context, log *model.VisitLog) (bool, error) {
	result := r.db.WithContext(ctx).
		Omit("Visitor").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "visit_request_id"}},
			DoNothing: true,
		}).
		Create(log)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *visitLogRepo) GetByVisitRequest(ctx context.Context, visitRequestID string) (*model.VisitLog, error) {
	var log model.VisitLog
	err := r.db.WithContext(ctx).
		Preload("Visitor").
		Where("visit_request_id = ?", visitRequestID).
		First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// GetOpenByVisitor 查找访客已签到未签退的记录，多条时取最早签到的一条
func (r *visitLogRepo) GetOpenByVisitor(ctx context.Context, visitorID string) (*model.VisitLog, error) {
	var log model.VisitLog
	err := r.db.WithContext(ctx).
		Preload("Visitor").
		Where("visitor_id = ? AND check_in_time IS NOT NULL AND check_out_time IS NULL", visitorID).
		Order("check_in_time ASC").
		First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// MarkCheckedIn 写入签到时间：仅当尚未签到时生效
func (r *visitLogRepo) MarkCheckedIn(ctx context.Context, visitRequestID string, at time.Time, by, notes string) error {
	updates := map[string]interface{}{
		"check_in_time": at.UTC(),
		"checked_in_by": by,
		"updated_at":    at.UTC(),
	}
	if notes != "" {
		updates["notes"] = notes
	}
	result := r.db.WithContext(ctx).
		Model(&model.VisitLog{}).
		Where("visit_request_id = ? AND check_in_time IS NULL", visitRequestID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

// MarkCheckedOut 写入签退时间：仅当已签到且尚未签退时生效
func (r *visitLogRepo) MarkCheckedOut(ctx context.Context, logID string, at time.Time, by, notes string) error {
	result := r.db.WithContext(ctx).
		Model(&model.VisitLog{}).
		Where("visit_log_id = ? AND check_in_time IS NOT NULL AND check_out_time IS NULL", logID).
		Updates(map[string]interface{}{
			"check_out_time": at.UTC(),
			"checked_out_by": by,
			"notes":          notes,
			"updated_at":     at.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}
