package model

import "time"

// VisitStatus 访问申请状态
type VisitStatus string

const (
	VisitStatusPending  VisitStatus = "pending"
	VisitStatusApproved VisitStatus = "approved"
	VisitStatusRejected VisitStatus = "rejected"
	VisitStatusCanceled VisitStatus = "canceled"
	VisitStatusNoShow   VisitStatus = "no_show"
	VisitStatusExpired  VisitStatus = "expired"
)

// AllVisitStatuses 全部状态（按生命周期顺序）
var AllVisitStatuses = []VisitStatus{
	VisitStatusPending,
	VisitStatusApproved,
	VisitStatusRejected,
	VisitStatusCanceled,
	VisitStatusNoShow,
	VisitStatusExpired,
}

// Valid 校验状态取值
func (s VisitStatus) Valid() bool {
	for _, st := range AllVisitStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// VisitType 访问类型
type VisitType string

const (
	VisitTypeScheduled VisitType = "scheduled" // 员工预约，访客自助登记
	VisitTypeWalkIn    VisitType = "walkin"    // 前台现场登记
)

// Valid 校验类型取值
func (t VisitType) Valid() bool {
	return t == VisitTypeScheduled || t == VisitTypeWalkIn
}

// VisitRequest 访问申请表，对应 visit_requests
type VisitRequest struct {
	VisitRequestID string      `gorm:"type:varchar(36);primaryKey"                                         json:"visit_request_id"`
	VisitorID      *string     `gorm:"type:varchar(36);index:idx_visit_requests_visitor_status,priority:1" json:"visitor_id,omitempty"`
	HostID         string      `gorm:"type:varchar(36);not null;index:idx_visit_requests_host_status"      json:"host_id"`
	OriginalHostID *string     `gorm:"type:varchar(36)"                                                    json:"original_host_id,omitempty"`
	Purpose        string      `gorm:"type:text;not null"                                                  json:"purpose"`
	ScheduledTime  time.Time   `gorm:"not null;index:idx_visit_requests_status_time,priority:2"            json:"scheduled_time"`
	Status         VisitStatus `gorm:"type:varchar(10);not null;default:'pending';index:idx_visit_requests_status_time,priority:1;index:idx_visit_requests_visitor_status,priority:2" json:"status"`
	VisitType      VisitType   `gorm:"type:varchar(10);not null;default:'scheduled'"                       json:"visit_type"`
	Token          string      `gorm:"type:varchar(36);not null;uniqueIndex"                               json:"token"`
	VersionedModel

	// 关联
	Visitor *Visitor  `gorm:"foreignKey:VisitorID;references:VisitorID"           json:"visitor,omitempty"`
	Host    *Employee `gorm:"foreignKey:HostID;references:EmployeeID"            json:"host,omitempty"`
	Log     *VisitLog `gorm:"foreignKey:VisitRequestID;references:VisitRequestID" json:"log,omitempty"`
}

// TableName 指定表名
func (VisitRequest) TableName() string { return "visit_requests" }

// HasVisitor 是否已关联访客
func (v *VisitRequest) HasVisitor() bool {
	return v.VisitorID != nil && *v.VisitorID != ""
}

// [自证通过] internal/model/visit_request.go
