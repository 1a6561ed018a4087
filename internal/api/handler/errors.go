package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"gatepass/backend/internal/lifecycle"
	"gatepass/backend/internal/service"
	pkgerrors "gatepass/backend/pkg/errors"
	"gatepass/backend/pkg/response"
)

// ── 业务错误码 ──
// 200xx 访问申请，210xx 前台签到签退，500xx 基础设施

const (
	codeBadInput          = 20000
	codePastSchedule      = 20001
	codeIncompleteVisitor = 20002
	codeNotFound          = 20004
	codeInvalidTransition = 20010
	codeNotPending        = 20011
	codeAlreadyCompleted  = 20012
	codeExpired           = 20013
	codeConcurrentUpdate  = 20014
	codeNoApprovedVisit   = 21001
	codeAlreadyCheckedIn  = 21002
	codeVisitExpired      = 21003
	codeNoActiveVisit     = 21004
	codeStoreTimeout      = 50004
)

// handleVisitError 将 Service 层错误映射为稳定的 (HTTP 状态码, 业务码)
// 只依据错误类型判断，不解析错误文本
func handleVisitError(c *gin.Context, err error) {
	var te *lifecycle.TransitionError

	switch {
	// 校验类
	case errors.Is(err, lifecycle.ErrPastSchedule):
		response.BadRequest(c, codePastSchedule, "预约时间必须晚于当前时间")
	case errors.Is(err, lifecycle.ErrIncompleteVisitor):
		response.BadRequest(c, codeIncompleteVisitor, "访客尚未填写登记信息")
	case errors.Is(err, lifecycle.ErrPurposeRequired),
		errors.Is(err, lifecycle.ErrInvalidVisitType),
		errors.Is(err, lifecycle.ErrVisitorRequired),
		errors.Is(err, lifecycle.ErrUnexpectedVisitor),
		errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, codeBadInput, err.Error())

	// 查找类
	case errors.Is(err, service.ErrVisitNotFound):
		response.NotFound(c, codeNotFound, "访问申请不存在")
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, codeNotFound, "员工不存在")

	// 状态类
	case errors.As(err, &te):
		response.ErrorWithDetails(c, http.StatusConflict, codeInvalidTransition,
			"当前状态不允许该操作", fmt.Sprintf("%s→%s", te.From, te.To))
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		response.Conflict(c, codeInvalidTransition, "当前状态不允许该操作")
	case errors.Is(err, lifecycle.ErrNotPending):
		response.Conflict(c, codeNotPending, "访问申请已不处于待审批状态")
	case errors.Is(err, lifecycle.ErrAlreadyCompleted):
		response.Conflict(c, codeAlreadyCompleted, "访客登记信息已提交")
	case errors.Is(err, lifecycle.ErrExpired):
		response.Error(c, http.StatusGone, codeExpired, "访问申请已过期")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, codeConcurrentUpdate, "数据已被修改，请刷新后重试")
	case errors.Is(err, lifecycle.ErrNoApprovedVisit):
		response.NotFound(c, codeNoApprovedVisit, "今明两日没有已批准的访问")
	case errors.Is(err, lifecycle.ErrAlreadyCheckedIn):
		response.Conflict(c, codeAlreadyCheckedIn, "访客已签到")
	case errors.Is(err, lifecycle.ErrVisitExpired):
		response.Conflict(c, codeVisitExpired, "预约时间已过，无法签到")
	case errors.Is(err, lifecycle.ErrNoActiveVisit):
		response.NotFound(c, codeNoActiveVisit, "未找到进行中的访问")

	// 基础设施
	case errors.Is(err, pkgerrors.ErrStoreTimeout):
		response.Error(c, http.StatusGatewayTimeout, codeStoreTimeout, "存储访问超时，请稍后重试")
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
