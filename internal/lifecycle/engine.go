package lifecycle

import (
	"strings"
	"time"

	"gatepass/backend/internal/model"
)

// transitions 合法的状态流转表，未列出的状态均为终态
var transitions = map[model.VisitStatus][]model.VisitStatus{
	model.VisitStatusPending:  {model.VisitStatusApproved, model.VisitStatusRejected, model.VisitStatusExpired},
	model.VisitStatusApproved: {model.VisitStatusCanceled, model.VisitStatusNoShow},
}

// CanTransition 判断 from → to 是否在流转表中
func CanTransition(from, to model.VisitStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal 状态是否已无出边
func IsTerminal(s model.VisitStatus) bool {
	return len(transitions[s]) == 0
}

// Transition 基于快照计算一次状态流转，返回新快照，不修改入参
//
// 先校验流转表，再校验守卫条件：
//   - pending → approved 要求已关联访客
//   - pending → expired 要求预约时间严格早于 now
func Transition(v model.VisitRequest, to model.VisitStatus, now time.Time) (model.VisitRequest, error) {
	if !CanTransition(v.Status, to) {
		return v, &TransitionError{From: v.Status, To: to}
	}

	switch to {
	case model.VisitStatusApproved:
		if !v.HasVisitor() {
			return v, ErrIncompleteVisitor
		}
	case model.VisitStatusExpired:
		if !IsOverdue(v, now) {
			return v, &TransitionError{From: v.Status, To: to}
		}
	}

	next := v
	next.Status = to
	next.UpdatedAt = now
	return next, nil
}

// IsOverdue 过期规则：待审批且预约时间严格早于 now
func IsOverdue(v model.VisitRequest, now time.Time) bool {
	return v.Status == model.VisitStatusPending && v.ScheduledTime.Before(now)
}

// ── 创建 ──

// NewVisit 创建访问申请的输入
type NewVisit struct {
	HostID        string
	Purpose       string
	ScheduledTime time.Time // 到访登记为零值时取 now
	VisitType     model.VisitType
	VisitorID     *string // 仅到访登记携带
}

// NewVisitRequest 按访问类型构造初始快照
//   - scheduled：预约时间必须晚于 now，状态 pending，不关联访客
//   - walkin：必须携带访客，状态直接为 approved
//
// token 由调用方生成，创建后不再变化
func NewVisitRequest(id, token string, in NewVisit, now time.Time) (model.VisitRequest, error) {
	v := model.VisitRequest{
		VisitRequestID: id,
		HostID:         in.HostID,
		OriginalHostID: strPtr(in.HostID),
		Purpose:        strings.TrimSpace(in.Purpose),
		ScheduledTime:  in.ScheduledTime.UTC(),
		VisitType:      in.VisitType,
		Token:          token,
	}
	v.CreatedAt = now
	v.UpdatedAt = now
	v.Version = 1

	if v.Purpose == "" {
		return model.VisitRequest{}, ErrPurposeRequired
	}

	switch in.VisitType {
	case model.VisitTypeScheduled:
		if in.VisitorID != nil {
			return model.VisitRequest{}, ErrUnexpectedVisitor
		}
		if !v.ScheduledTime.After(now) {
			return model.VisitRequest{}, ErrPastSchedule
		}
		v.Status = model.VisitStatusPending
	case model.VisitTypeWalkIn:
		if in.VisitorID == nil || *in.VisitorID == "" {
			return model.VisitRequest{}, ErrVisitorRequired
		}
		if in.ScheduledTime.IsZero() {
			v.ScheduledTime = now
		}
		v.VisitorID = strPtr(*in.VisitorID)
		v.Status = model.VisitStatusApproved
	default:
		return model.VisitRequest{}, ErrInvalidVisitType
	}

	return v, nil
}

// ── 改期 ──

// Changes 改期输入，nil 字段表示不修改
type Changes struct {
	Purpose       *string
	ScheduledTime *time.Time
}

// Reschedule 修改待审批访问的用途或时间
// 预约类访问每次修改都重新校验预约时间；changed 表示用途或时间确有变化
func Reschedule(v model.VisitRequest, ch Changes, now time.Time) (next model.VisitRequest, changed bool, err error) {
	if v.Status != model.VisitStatusPending {
		return v, false, ErrNotPending
	}

	next = v
	if ch.Purpose != nil {
		p := strings.TrimSpace(*ch.Purpose)
		if p == "" {
			return v, false, ErrPurposeRequired
		}
		if p != v.Purpose {
			next.Purpose = p
			changed = true
		}
	}
	if ch.ScheduledTime != nil {
		t := ch.ScheduledTime.UTC()
		if !t.Equal(v.ScheduledTime) {
			next.ScheduledTime = t
			changed = true
		}
	}

	if next.VisitType == model.VisitTypeScheduled && !next.ScheduledTime.After(now) {
		return v, false, ErrPastSchedule
	}

	if changed {
		next.UpdatedAt = now
	}
	return next, changed, nil
}

// ── 访客登记 ──

// CheckAttachable 访客提交登记表前的判定，顺序固定：
// 已登记 → 已过期 → 非待审批
func CheckAttachable(v model.VisitRequest, now time.Time) error {
	if v.HasVisitor() {
		return ErrAlreadyCompleted
	}
	if v.ScheduledTime.Before(now) {
		return ErrExpired
	}
	if v.Status != model.VisitStatusPending {
		return ErrNotPending
	}
	return nil
}

// ── 签到 / 签退 ──

// CheckInWindow 签到候选窗口 [今日零点, 后天零点)，按前台时区计算，返回 UTC
func CheckInWindow(now time.Time, loc *time.Location) (from, to time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, 2).UTC()
}

// DayWindow 前台时区下某一天的 [零点, 次日零点)
func DayWindow(day time.Time, loc *time.Location) (from, to time.Time) {
	local := day.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// CanCheckIn 对选中的访问判定能否签到，log 为空表示尚无到访记录
// 到访登记与预约同刻创建，不做过期判定
func CanCheckIn(v model.VisitRequest, log *model.VisitLog, now time.Time) error {
	if v.Status != model.VisitStatusApproved {
		return &TransitionError{From: v.Status, To: model.VisitStatusApproved}
	}
	if log != nil && log.IsCheckedIn() {
		return ErrAlreadyCheckedIn
	}
	if v.VisitType == model.VisitTypeScheduled && v.ScheduledTime.Before(now) {
		return ErrVisitExpired
	}
	return nil
}

// CheckOutTime 签退时间不早于签到时间
func CheckOutTime(log model.VisitLog, now time.Time) time.Time {
	if log.CheckInTime != nil && now.Before(*log.CheckInTime) {
		return *log.CheckInTime
	}
	return now
}

// AppendNote 追加备注，空备注不改变原值
func AppendNote(existing, note string) string {
	note = strings.TrimSpace(note)
	switch {
	case note == "":
		return existing
	case existing == "":
		return note
	default:
		return existing + "\n" + note
	}
}

func strPtr(s string) *string { return &s }
