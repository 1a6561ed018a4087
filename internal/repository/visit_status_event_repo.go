package repository

import (
	"context"

	"gorm.io/gorm"

	"gatepass/backend/internal/model"
)

// VisitStatusEventRepository 状态流转审计数据访问接口
type VisitStatusEventRepository interface {
	Create(ctx context.Context, event *model.VisitStatusEvent) error
	ListByVisitRequest(ctx context.Context, visitRequestID string) ([]model.VisitStatusEvent, error)
}

type visitStatusEventRepo struct {
	db *gorm.DB
}

func NewVisitStatusEventRepo(db *gorm.DB) VisitStatusEventRepository {
	return &visitStatusEventRepo{db: db}
}

func (r *visitStatusEventRepo) Create(ctx context.Context, event *model.VisitStatusEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *visitStatusEventRepo) ListByVisitRequest(ctx context.Context, visitRequestID string) ([]model.VisitStatusEvent, error) {
	var events []model.VisitStatusEvent
	err := r.db.WithContext(ctx).
		Where("visit_request_id = ?", visitRequestID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}
