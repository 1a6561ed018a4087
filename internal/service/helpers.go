package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"gatepass/backend/internal/dto"
	"gatepass/backend/internal/model"
	pkgerrors "gatepass/backend/pkg/errors"
)

// withStoreTimeout 为一次业务操作的存储访问设置上限
// 调用方已设置 deadline 时保持不变
func withStoreTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// storeErr 将存储超时归一为 ErrStoreTimeout，其余错误原样返回
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", pkgerrors.ErrStoreTimeout, err)
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// ── 模型 → DTO ──

func toEmployeeBrief(e *model.Employee) *dto.EmployeeBrief {
	if e == nil {
		return nil
	}
	return &dto.EmployeeBrief{ID: e.EmployeeID, Name: e.Name, Email: e.Email}
}

func toVisitorResponse(v *model.Visitor) *dto.VisitorResponse {
	if v == nil {
		return nil
	}
	return &dto.VisitorResponse{
		ID:        v.VisitorID,
		FullName:  v.FullName,
		Email:     v.Email,
		Contact:   v.Contact,
		Address:   v.Address,
		CreatedAt: formatTime(v.CreatedAt),
	}
}

func toVisitLogResponse(l *model.VisitLog, now time.Time) *dto.VisitLogResponse {
	if l == nil {
		return nil
	}
	resp := &dto.VisitLogResponse{
		ID:              l.VisitLogID,
		VisitRequestID:  l.VisitRequestID,
		VisitorID:       l.VisitorID,
		CheckInTime:     formatTimePtr(l.CheckInTime),
		CheckedInBy:     l.CheckedInBy,
		CheckOutTime:    formatTimePtr(l.CheckOutTime),
		CheckedOutBy:    l.CheckedOutBy,
		Notes:           l.Notes,
		DurationSeconds: int64(l.Duration(now) / time.Second),
	}
	if l.Visitor != nil {
		resp.VisitorName = l.Visitor.FullName
	}
	return resp
}

func toBoardItem(v *model.VisitRequest) dto.VisitBoardItem {
	item := dto.VisitBoardItem{
		VisitID:       v.VisitRequestID,
		Purpose:       v.Purpose,
		ScheduledTime: formatTime(v.ScheduledTime),
		VisitType:     string(v.VisitType),
		Status:        string(v.Status),
	}
	if v.Visitor != nil {
		item.VisitorID = v.Visitor.VisitorID
		item.VisitorName = v.Visitor.FullName
		item.VisitorEmail = v.Visitor.Email
	}
	if v.Host != nil {
		item.HostName = v.Host.Name
	}
	if v.Log != nil {
		item.IsCheckedIn = v.Log.IsCheckedIn()
		item.CheckInTime = formatTimePtr(v.Log.CheckInTime)
		item.IsCheckedOut = v.Log.IsCheckedOut()
		item.CheckOutTime = formatTimePtr(v.Log.CheckOutTime)
	}
	return item
}
