package controller

import (
	"edu_player_backend/internal/model"
	"edu_player_backend/internal/service"
	"edu_player_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type LessonController struct {
	LessonService *service.LessonService
}

func NewLessonController(lessonService *service.LessonService) *LessonController {
	return &LessonController{LessonService: lessonService}
}

type RecordNoteRequest struct {
	Text string `json:"text" binding:"required"`
}

type lessonAction func(session model.Session, viewID string) (service.LessonView, error)

// handle runs an action against the caller's view and renders the result.
func (c *LessonController) handle(ctx *gin.Context, action lessonAction) {
	session, ok := sessionOrAbort(ctx)
	if !ok {
		return
	}

	view, err := action(session, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, viewResponse{ID: ctx.Param("id"), View: view})
}

// @Summary 打开课程播放器
// @Description 加载课程序列并创建播放视图
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Success 201 {object} util.Response
// @Failure 502 {object} util.Response
// @Router /lesson/views [post]
func (c *LessonController) StartView(ctx *gin.Context) {
	session, ok := sessionOrAbort(ctx)
	if !ok {
		return
	}

	id, view, err := c.LessonService.StartView(ctx.Request.Context(), session)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, viewResponse{ID: id, View: view})
}

// @Summary 获取播放视图
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "视图ID"
// @Success 200 {object} util.Response
// @Router /lesson/views/{id} [get]
func (c *LessonController) GetView(ctx *gin.Context) {
	c.handle(ctx, c.LessonService.GetView)
}

// @Summary 重新加载课程
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "视图ID"
// @Success 200 {object} util.Response
// @Router /lesson/views/{id}/reload [post]
func (c *LessonController) ReloadView(ctx *gin.Context) {
	c.handle(ctx, func(session model.Session, viewID string) (service.LessonView, error) {
		return c.LessonService.ReloadView(ctx.Request.Context(), session, viewID)
	})
}

// @Summary 开始播放
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "视图ID"
// @Success 200 {object} util.Response
// @Router /lesson/views/{id}/play [post]
func (c *LessonController) Play(ctx *gin.Context) {
	c.handle(ctx, c.LessonService.Play)
}

// @Summary 暂停播放
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "视图ID"
// @Success 200 {object} util.Response
// @Router /lesson/views/{id}/pause [post]
func (c *LessonController) Pause(ctx *gin.Context) {
	c.handle(ctx, c.LessonService.Pause)
}

// @Summary 下一课
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "视图ID"
// @Success 200 {object} util.Response
// @Router /lesson/views/{id}/next [post]
func (c *LessonController) Next(ctx *gin.Context) {
	c.handle(ctx, c.LessonService.Next)
}

// @Summary 上一课
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "视图ID"
// @Success 200 {object} util.Response
// @Router /lesson/views/{id}/previous [post]
func (c *LessonController) Previous(ctx *gin.Context) {
	c.handle(ctx, c.LessonService.Previous)
}

// @Summary 切换书签
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "视图ID"
// @Success 200 {object} util.Response
// @Router /lesson/views/{id}/bookmark [post]
func (c *LessonController) ToggleBookmark(ctx *gin.Context) {
	c.handle(ctx, c.LessonService.ToggleBookmark)
}

// @Summary 记录笔记
// @Description 在当前播放位置记录笔记
// @Tags 课程
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "视图ID"
// @Param body body RecordNoteRequest true "笔记内容"
// @Success 201 {object} util.Response
// @Router /lesson/views/{id}/notes [post]
func (c *LessonController) RecordNote(ctx *gin.Context) {
	session, ok := sessionOrAbort(ctx)
	if !ok {
		return
	}

	var req RecordNoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	note, err := c.LessonService.RecordNote(session, ctx.Param("id"), req.Text)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, note)
}

// @Summary 关闭播放视图
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "视图ID"
// @Success 200 {object} util.Response
// @Router /lesson/views/{id} [delete]
func (c *LessonController) CloseView(ctx *gin.Context) {
	session, ok := sessionOrAbort(ctx)
	if !ok {
		return
	}

	if err := c.LessonService.CloseView(session, ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "View closed"})
}

// @Summary 学习进度记录
// @Description 仅在进度写入数据库时可用
// @Tags 课程
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "数量"
// @Success 200 {object} util.Response
// @Router /lesson/progress [get]
func (c *LessonController) ListProgress(ctx *gin.Context) {
	session, ok := sessionOrAbort(ctx)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	records, enabled, err := c.LessonService.ListProgress(ctx.Request.Context(), session, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if !enabled {
		util.NotFound(ctx)
		return
	}

	util.Success(ctx, records)
}
