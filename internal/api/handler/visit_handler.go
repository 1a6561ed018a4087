package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"gatepass/backend/internal/dto"
	"gatepass/backend/internal/service"
	"gatepass/backend/pkg/response"
)

// VisitHandler 员工访问申请 HTTP 处理器
type VisitHandler struct {
	visitSvc service.VisitService
}

// NewVisitHandler 创建 VisitHandler
func NewVisitHandler(visitSvc service.VisitService) *VisitHandler {
	return &VisitHandler{visitSvc: visitSvc}
}

// CreateVisit 创建预约
// POST /api/v1/visits
func (h *VisitHandler) CreateVisit(c *gin.Context) {
	var req dto.CreateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	hostID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	visit, err := h.visitSvc.CreateVisit(c.Request.Context(), &req, hostID)
	if err != nil {
		handleVisitError(c, err)
		return
	}

	response.Created(c, visit)
}

// ListMyVisits 我即将到来的访问
// GET /api/v1/visits
func (h *VisitHandler) ListMyVisits(c *gin.Context) {
	var req dto.VisitListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	hostID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.visitSvc.ListMyVisits(c.Request.Context(), &req, hostID)
	if err != nil {
		handleVisitError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ListPending 待我审批的访问
// GET /api/v1/visits/pending
func (h *VisitHandler) ListPending(c *gin.Context) {
	hostID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.visitSvc.ListPending(c.Request.Context(), hostID)
	if err != nil {
		handleVisitError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListMyVisitors 我已批准的访客及签到状态
// GET /api/v1/visits/my-visitors
func (h *VisitHandler) ListMyVisitors(c *gin.Context) {
	hostID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.visitSvc.ListMyVisitors(c.Request.Context(), hostID)
	if err != nil {
		handleVisitError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetVisit 访问详情
// GET /api/v1/visits/:id
func (h *VisitHandler) GetVisit(c *gin.Context) {
	hostID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	visit, err := h.visitSvc.GetVisit(c.Request.Context(), c.Param("id"), hostID)
	if err != nil {
		handleVisitError(c, err)
		return
	}

	response.OK(c, visit)
}

// UpdateVisit 修改待审批访问
// PUT /api/v1/visits/:id
func (h *VisitHandler) UpdateVisit(c *gin.Context) {
	var req dto.UpdateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	if req.Purpose == nil && req.ScheduledTime == nil {
		response.BadRequest(c, 10001, "至少需要修改一项")
		return
	}

	hostID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	visit, err := h.visitSvc.UpdateVisit(c.Request.Context(), c.Param("id"), &req, hostID)
	if err != nil {
		handleVisitError(c, err)
		return
	}

	response.OK(c, visit)
}

// Approve 审批通过
// POST /api/v1/visits/:id/approve
func (h *VisitHandler) Approve(c *gin.Context) {
	h.transition(c, h.visitSvc.Approve)
}

// Reject 审批拒绝
// POST /api/v1/visits/:id/reject
func (h *VisitHandler) Reject(c *gin.Context) {
	h.transition(c, h.visitSvc.Reject)
}

// Cancel 取消已批准的访问
// POST /api/v1/visits/:id/cancel
func (h *VisitHandler) Cancel(c *gin.Context) {
	h.transition(c, h.visitSvc.Cancel)
}

type transitionFunc func(ctx context.Context, id, actorID string) (*dto.VisitResponse, error)

func (h *VisitHandler) transition(c *gin.Context, fn transitionFunc) {
	hostID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	visit, err := fn(c.Request.Context(), c.Param("id"), hostID)
	if err != nil {
		handleVisitError(c, err)
		return
	}

	response.OK(c, visit)
}
