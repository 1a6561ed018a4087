package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"gatepass/backend/internal/service"
	"gatepass/backend/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
	now     func() time.Time
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, now: time.Now}
}

// Logout 注销当前令牌
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if _, ok := MustGetUserID(c); !ok {
		return
	}

	jti, exp := tokenInfo(c)
	var remaining time.Duration
	if !exp.IsZero() {
		remaining = exp.Sub(h.now())
	}

	if err := h.authSvc.Logout(c.Request.Context(), jti, remaining); err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// Me 当前员工信息
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	me, err := h.authSvc.Me(c.Request.Context(), userID)
	if err != nil {
		handleVisitError(c, err)
		return
	}

	response.OK(c, gin.H{"employee": me, "role": role})
}
