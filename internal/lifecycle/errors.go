package lifecycle

import (
	"errors"
	"fmt"

	"gatepass/backend/internal/model"
)

// ── 校验类错误：调用方修正输入后可重试 ──

var (
	ErrPastSchedule      = errors.New("预约时间必须晚于当前时间")
	ErrIncompleteVisitor = errors.New("访客尚未填写登记信息，无法审批")
	ErrInvalidVisitType  = errors.New("无效的访问类型")
	ErrVisitorRequired   = errors.New("到访登记必须携带访客信息")
	ErrUnexpectedVisitor = errors.New("预约访问创建时不能预先关联访客")
	ErrPurposeRequired   = errors.New("访问用途不能为空")
)

// ── 状态类错误：请求合法，但实体当前状态不允许 ──

var (
	ErrInvalidTransition = errors.New("当前状态不允许该操作")
	ErrNotPending        = errors.New("访问申请已不处于待审批状态")
	ErrAlreadyCompleted  = errors.New("访客登记信息已提交")
	ErrExpired           = errors.New("访问申请已过期")
	ErrAlreadyCheckedIn  = errors.New("访客已签到")
	ErrVisitExpired      = errors.New("预约时间已过，无法签到")
	ErrNoActiveVisit     = errors.New("未找到进行中的访问")
	ErrNoApprovedVisit   = errors.New("今明两日没有已批准的访问")
)

// TransitionError 非法状态流转，携带当前状态与目标状态
// errors.Is(err, ErrInvalidTransition) 恒为 true
type TransitionError struct {
	From model.VisitStatus
	To   model.VisitStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("状态流转不合法: %s → %s", e.From, e.To)
}

// Is 使 TransitionError 可与 ErrInvalidTransition 匹配
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
