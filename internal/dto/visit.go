package dto

import "time"

// ── 访问申请 DTO ──

// CreateVisitRequest 员工创建预约请求
type CreateVisitRequest struct {
	Purpose       string    `json:"purpose"        binding:"required,min=1,max=2000"`
	ScheduledTime time.Time `json:"scheduled_time" binding:"required"`
}

// UpdateVisitRequest 修改预约请求（仅待审批）
type UpdateVisitRequest struct {
	Purpose       *string    `json:"purpose"        binding:"omitempty,min=1,max=2000"`
	ScheduledTime *time.Time `json:"scheduled_time"`
}

// VisitListRequest 我的访问列表查询参数
type VisitListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected canceled no_show expired"`
	PaginationRequest
}

// AttachVisitorRequest 访客自助登记请求
type AttachVisitorRequest struct {
	FullName string  `json:"full_name" binding:"required,min=1,max=100"`
	Email    string  `json:"email"     binding:"required,email,max=254"`
	Contact  *string `json:"contact"   binding:"omitempty,max=20"`
	Address  *string `json:"address"   binding:"omitempty,max=500"`
}

// CreateWalkInRequest 前台到访登记请求
type CreateWalkInRequest struct {
	FullName      string     `json:"full_name"      binding:"required,min=1,max=100"`
	Email         string     `json:"email"          binding:"required,email,max=254"`
	Contact       *string    `json:"contact"        binding:"omitempty,max=20"`
	Address       *string    `json:"address"        binding:"omitempty,max=500"`
	Purpose       string     `json:"purpose"        binding:"omitempty,max=2000"`
	ScheduledTime *time.Time `json:"scheduled_time"`
}

// ── 响应 ──

// VisitorResponse 访客信息
type VisitorResponse struct {
	ID        string  `json:"id"`
	FullName  string  `json:"full_name"`
	Email     string  `json:"email"`
	Contact   *string `json:"contact,omitempty"`
	Address   *string `json:"address,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// VisitResponse 访问申请响应
type VisitResponse struct {
	ID             string            `json:"id"`
	Status         string            `json:"status"`
	VisitType      string            `json:"visit_type"`
	Purpose        string            `json:"purpose"`
	ScheduledTime  string            `json:"scheduled_time"`
	Token          string            `json:"token,omitempty"`
	InvitationLink string            `json:"invitation_link,omitempty"`
	Host           *EmployeeBrief    `json:"host,omitempty"`
	HostID         string            `json:"host_id"`
	OriginalHostID *string           `json:"original_host_id,omitempty"`
	Visitor        *VisitorResponse  `json:"visitor,omitempty"`
	Log            *VisitLogResponse `json:"log,omitempty"`
	Version        int               `json:"version"`
	CreatedAt      string            `json:"created_at"`
	UpdatedAt      string            `json:"updated_at"`
}

// VisitorFormResponse 访客登记页展示信息（匿名接口，不含内部字段）
type VisitorFormResponse struct {
	Purpose       string `json:"purpose"`
	ScheduledTime string `json:"scheduled_time"`
	HostName      string `json:"host_name"`
	VisitType     string `json:"visit_type"`
	Status        string `json:"status"`
}
