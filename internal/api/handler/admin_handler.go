package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"gatepass/backend/internal/dto"
	"gatepass/backend/internal/service"
	"gatepass/backend/pkg/response"
)

// Sweeper 过期扫描能力（*service.ExpirationSweeper）
type Sweeper interface {
	Sweep(ctx context.Context, mode string) (int64, error)
	CountDue(ctx context.Context) (int64, error)
}

// AdminHandler 管理接口
type AdminHandler struct {
	sweeper Sweeper
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(sweeper Sweeper) *AdminHandler {
	return &AdminHandler{sweeper: sweeper}
}

// Sweep 手动触发过期扫描；dry_run=true 时只统计
// POST /api/v1/admin/sweep
func (h *AdminHandler) Sweep(c *gin.Context) {
	dryRun := false
	if v := c.Query("dry_run"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(c, 10001, "dry_run 参数无效")
			return
		}
		dryRun = b
	}

	var (
		n   int64
		err error
	)
	if dryRun {
		n, err = h.sweeper.CountDue(c.Request.Context())
	} else {
		n, err = h.sweeper.Sweep(c.Request.Context(), service.SweepModeManual)
	}
	if err != nil {
		handleVisitError(c, err)
		return
	}

	response.OK(c, dto.SweepResponse{Expired: n, DryRun: dryRun})
}
