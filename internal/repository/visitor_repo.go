package repository

import (
	"context"

	"gorm.io/gorm"

	"gatepass/backend/internal/model"
)

// VisitorRepository 访客数据访问接口
type VisitorRepository interface {
	Create(ctx context.Context, visitor *model.Visitor) error
	GetByID(ctx context.Context, id string) (*model.Visitor, error)
}

type visitorRepo struct {
	db *gorm.DB
}

func NewVisitorRepo(db *gorm.DB) VisitorRepository {
	return &visitorRepo{db: db}
}

func (r *visitorRepo) Create(ctx context.Context, visitor *model.Visitor) error {
	return r.db.WithContext(ctx).Create(visitor).Error
}

func (r *visitorRepo) GetByID(ctx context.Context, id string) (*model.Visitor, error) {
	var v model.Visitor
	err := r.db.WithContext(ctx).Where("visitor_id = ?", id).First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}
