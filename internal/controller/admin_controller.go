package controller

import (
	"edu_player_backend/internal/service"
	"edu_player_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	Janitor *service.ViewJanitor
}

func NewAdminController(janitor *service.ViewJanitor) *AdminController {
	return &AdminController{Janitor: janitor}
}

// @Summary 视图统计
// @Description 当前打开的测验与课程视图数量
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /admin/views [get]
func (c *AdminController) ViewStats(ctx *gin.Context) {
	util.Success(ctx, gin.H{
		"open":    c.Janitor.Counts(),
		"idleTtl": c.Janitor.TTL().String(),
	})
}

// @Summary 清理空闲视图
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /admin/views/sweep [post]
func (c *AdminController) SweepViews(ctx *gin.Context) {
	util.Success(ctx, gin.H{"closed": c.Janitor.SweepOnce()})
}
