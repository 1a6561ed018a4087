// Package notify 访问生命周期的通知出口
//
// 业务层在事务提交后构造 Notification 交给 Gateway；发送失败只记日志，不影响已提交的状态
package notify

import (
	"context"
	"time"

	"gatepass/backend/internal/model"
)

// Kind 通知类型
type Kind string

const (
	KindInvitation  Kind = "invitation"  // 新建预约：向接待人发送访客登记链接
	KindApproved    Kind = "approved"    // 审批通过：通知访客
	KindRejected    Kind = "rejected"    // 审批拒绝：通知访客
	KindRescheduled Kind = "rescheduled" // 改期：通知访客
	KindCanceled    Kind = "canceled"    // 取消：通知访客
	KindNoShow      Kind = "no_show"     // 爽约：通知接待人与访客
)

// Previous 改期前的访问信息
type Previous struct {
	Purpose       string
	ScheduledTime time.Time
}

// Notification 一次通知意图
type Notification struct {
	Kind       Kind
	Visit      model.VisitRequest
	Visitor    *model.Visitor
	Host       *model.Employee
	Previous   *Previous
	InviteLink string
}

// Gateway 通知发送接口
type Gateway interface {
	Send(ctx context.Context, n Notification) error
}

// Recipients 按通知类型计算收件人，无收件人时返回空切片
func Recipients(n Notification) []string {
	var to []string
	hostEmail := ""
	if n.Host != nil {
		hostEmail = n.Host.Email
	}
	visitorEmail := ""
	if n.Visitor != nil {
		visitorEmail = n.Visitor.Email
	}

	switch n.Kind {
	case KindInvitation:
		to = appendNonEmpty(to, hostEmail)
	case KindNoShow:
		to = appendNonEmpty(to, hostEmail)
		to = appendNonEmpty(to, visitorEmail)
	default:
		to = appendNonEmpty(to, visitorEmail)
	}
	return to
}

func appendNonEmpty(list []string, s string) []string {
	if s == "" {
		return list
	}
	return append(list, s)
}

// HostName 接待人显示名
func HostName(n Notification) string {
	if n.Host != nil && n.Host.Name != "" {
		return n.Host.Name
	}
	return "your host"
}
