package handler

import (
	"github.com/gin-gonic/gin"

	"gatepass/backend/internal/dto"
	"gatepass/backend/internal/service"
	"gatepass/backend/pkg/response"
)

// VisitorFormHandler 访客自助登记（匿名，凭 token 访问）
type VisitorFormHandler struct {
	visitSvc service.VisitService
}

// NewVisitorFormHandler 创建 VisitorFormHandler
func NewVisitorFormHandler(visitSvc service.VisitService) *VisitorFormHandler {
	return &VisitorFormHandler{visitSvc: visitSvc}
}

// GetForm 登记页预览
// GET /api/v1/visitor-form/:token
func (h *VisitorFormHandler) GetForm(c *gin.Context) {
	form, err := h.visitSvc.GetVisitorForm(c.Request.Context(), c.Param("token"))
	if err != nil {
		handleVisitError(c, err)
		return
	}

	response.OK(c, form)
}

// Submit 提交访客信息
// POST /api/v1/visitor-form/:token
func (h *VisitorFormHandler) Submit(c *gin.Context) {
	var req dto.AttachVisitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	visit, err := h.visitSvc.AttachVisitor(c.Request.Context(), c.Param("token"), &req)
	if err != nil {
		handleVisitError(c, err)
		return
	}

	// 匿名调用方只需知道登记结果
	response.OK(c, gin.H{
		"status":         visit.Status,
		"scheduled_time": visit.ScheduledTime,
		"purpose":        visit.Purpose,
	})
}
