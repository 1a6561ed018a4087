package handler

import (
	"github.com/gin-gonic/gin"

	"gatepass/backend/internal/dto"
	"gatepass/backend/internal/service"
	"gatepass/backend/pkg/response"
)

// LobbyHandler 前台 HTTP 处理器
type LobbyHandler struct {
	lobbySvc service.LobbyService
	visitSvc service.VisitService
}

// NewLobbyHandler 创建 LobbyHandler
func NewLobbyHandler(lobbySvc service.LobbyService, visitSvc service.VisitService) *LobbyHandler {
	return &LobbyHandler{lobbySvc: lobbySvc, visitSvc: visitSvc}
}

// CreateWalkIn 到访登记
// POST /api/v1/lobby/walkin
func (h *LobbyHandler) CreateWalkIn(c *gin.Context) {
	var req dto.CreateWalkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	attendantID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	visit, err := h.visitSvc.CreateWalkIn(c.Request.Context(), &req, attendantID)
	if err != nil {
		handleVisitError(c, err)
		return
	}

	response.Created(c, visit)
}

// TodayBoard 今日看板
// GET /api/v1/lobby/today
func (h *LobbyHandler) TodayBoard(c *gin.Context) {
	list, err := h.lobbySvc.TodayBoard(c.Request.Context())
	if err != nil {
		handleVisitError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// RangeBoard 区间看板，缺省为本周
// GET /api/v1/lobby/visits
func (h *LobbyHandler) RangeBoard(c *gin.Context) {
	var req dto.BoardRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.lobbySvc.RangeBoard(c.Request.Context(), &req)
	if err != nil {
		handleVisitError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CheckIn 签到
// POST /api/v1/lobby/checkin
func (h *LobbyHandler) CheckIn(c *gin.Context) {
	var req dto.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	attendantID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	log, err := h.lobbySvc.CheckIn(c.Request.Context(), &req, attendantID)
	if err != nil {
		handleVisitError(c, err)
		return
	}

	response.OK(c, log)
}

// CheckOut 签退
// POST /api/v1/lobby/checkout
func (h *LobbyHandler) CheckOut(c *gin.Context) {
	var req dto.CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	attendantID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	log, err := h.lobbySvc.CheckOut(c.Request.Context(), &req, attendantID)
	if err != nil {
		handleVisitError(c, err)
		return
	}

	response.OK(c, log)
}

// MarkNoShow 标记爽约
// POST /api/v1/lobby/visits/:id/no-show
func (h *LobbyHandler) MarkNoShow(c *gin.Context) {
	attendantID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	visit, err := h.visitSvc.MarkNoShow(c.Request.Context(), c.Param("id"), attendantID)
	if err != nil {
		handleVisitError(c, err)
		return
	}

	response.OK(c, visit)
}
