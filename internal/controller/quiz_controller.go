package controller

import (
	"edu_player_backend/internal/service"
	"edu_player_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

type SelectOptionRequest struct {
	QuestionIndex *int   `json:"questionIndex" binding:"required"`
	OptionID      string `json:"optionId" binding:"required"`
}

type GoToQuestionRequest struct {
	Index *int `json:"index" binding:"required"`
}

// @Summary 开始测验
// @Description 加载题目并创建测验视图
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Success 201 {object} util.Response
// @Failure 502 {object} util.Response
// @Router /quiz/views [post]
func (c *QuizController) StartView(ctx *gin.Context) {
	session, ok := sessionOrAbort(ctx)
	if !ok {
		return
	}

	id, view, err := c.QuizService.StartView(ctx.Request.Context(), session)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, viewResponse{ID: id, View: view})
}

// @Summary 获取测验视图
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "视图ID"
// @Success 200 {object} util.Response
// @Router /quiz/views/{id} [get]
func (c *QuizController) GetView(ctx *gin.Context) {
	session, ok := sessionOrAbort(ctx)
	if !ok {
		return
	}

	view, err := c.QuizService.GetView(session, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, viewResponse{ID: ctx.Param("id"), View: view})
}

// @Summary 重新加载测验
// @Description 重新拉取题目并重置作答
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "视图ID"
// @Success 200 {object} util.Response
// @Router /quiz/views/{id}/reload [post]
func (c *QuizController) ReloadView(ctx *gin.Context) {
	session, ok := sessionOrAbort(ctx)
	if !ok {
		return
	}

	view, err := c.QuizService.ReloadView(ctx.Request.Context(), session, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, viewResponse{ID: ctx.Param("id"), View: view})
}

// @Summary 选择选项
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "视图ID"
// @Param body body SelectOptionRequest true "选择"
// @Success 200 {object} util.Response
// @Router /quiz/views/{id}/select [post]
func (c *QuizController) Select(ctx *gin.Context) {
	session, ok := sessionOrAbort(ctx)
	if !ok {
		return
	}

	var req SelectOptionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.QuizService.Select(session, ctx.Param("id"), *req.QuestionIndex, req.OptionID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, viewResponse{ID: ctx.Param("id"), View: view})
}

// @Summary 跳转题目
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "视图ID"
// @Param body body GoToQuestionRequest true "目标题号"
// @Success 200 {object} util.Response
// @Router /quiz/views/{id}/goto [post]
func (c *QuizController) GoTo(ctx *gin.Context) {
	session, ok := sessionOrAbort(ctx)
	if !ok {
		return
	}

	var req GoToQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.QuizService.GoTo(session, ctx.Param("id"), *req.Index)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, viewResponse{ID: ctx.Param("id"), View: view})
}

// @Summary 提交测验
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "视图ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /quiz/views/{id}/submit [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	session, ok := sessionOrAbort(ctx)
	if !ok {
		return
	}

	view, err := c.QuizService.Submit(session, ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, viewResponse{ID: ctx.Param("id"), View: view})
}

// @Summary 关闭测验视图
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "视图ID"
// @Success 200 {object} util.Response
// @Router /quiz/views/{id} [delete]
func (c *QuizController) CloseView(ctx *gin.Context) {
	session, ok := sessionOrAbort(ctx)
	if !ok {
		return
	}

	if err := c.QuizService.CloseView(session, ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "View closed"})
}

// @Summary 历史测验记录
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response
// @Router /quiz/attempts [get]
func (c *QuizController) ListAttempts(ctx *gin.Context) {
	session, ok := sessionOrAbort(ctx)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	attempts, total, enabled, err := c.QuizService.ListAttempts(ctx.Request.Context(), session, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if !enabled {
		util.NotFound(ctx)
		return
	}

	util.Success(ctx, util.PageResponse{List: attempts, Total: total, Page: page, Limit: limit})
}
