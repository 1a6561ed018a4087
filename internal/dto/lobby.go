package dto

// ── 前台 DTO ──

// CheckInRequest 签到请求
type CheckInRequest struct {
	VisitorID string `json:"visitor_id" binding:"required,max=36"`
	Notes     string `json:"notes"      binding:"omitempty,max=1000"`
}

// CheckOutRequest 签退请求
type CheckOutRequest struct {
	VisitorID string `json:"visitor_id" binding:"required,max=36"`
	Notes     string `json:"notes"      binding:"omitempty,max=1000"`
}

// BoardRangeRequest 前台区间看板查询参数，缺省为本周
type BoardRangeRequest struct {
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date"   binding:"omitempty,datetime=2006-01-02"`
	Status    string `form:"status"     binding:"omitempty,oneof=pending approved rejected canceled no_show expired"`
}

// ── 响应 ──

// VisitLogResponse 到访记录响应
type VisitLogResponse struct {
	ID              string  `json:"id"`
	VisitRequestID  string  `json:"visit_request_id"`
	VisitorID       string  `json:"visitor_id"`
	VisitorName     string  `json:"visitor_name,omitempty"`
	CheckInTime     *string `json:"check_in_time,omitempty"`
	CheckedInBy     *string `json:"checked_in_by,omitempty"`
	CheckOutTime    *string `json:"check_out_time,omitempty"`
	CheckedOutBy    *string `json:"checked_out_by,omitempty"`
	Notes           string  `json:"notes,omitempty"`
	DurationSeconds int64   `json:"duration_seconds"`
}

// VisitBoardItem 看板条目：访问 + 签到签退状态
type VisitBoardItem struct {
	VisitID       string  `json:"visit_id"`
	VisitorID     string  `json:"visitor_id,omitempty"`
	VisitorName   string  `json:"visitor_name,omitempty"`
	VisitorEmail  string  `json:"visitor_email,omitempty"`
	HostName      string  `json:"host_name,omitempty"`
	Purpose       string  `json:"purpose"`
	ScheduledTime string  `json:"scheduled_time"`
	VisitType     string  `json:"visit_type"`
	Status        string  `json:"status"`
	IsCheckedIn   bool    `json:"is_checked_in"`
	CheckInTime   *string `json:"check_in_time,omitempty"`
	IsCheckedOut  bool    `json:"is_checked_out"`
	CheckOutTime  *string `json:"check_out_time,omitempty"`
}
