package app

import (
	"edu_player_backend/docs"
	"edu_player_backend/internal/config"
	"edu_player_backend/internal/middleware"
	"edu_player_backend/internal/model"
	"edu_player_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		a.registerQuizRoutes(authGroup, c)
		a.registerLessonRoutes(authGroup, c)
	}

	// 3. 管理员相关接口
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.RoleMiddleware(model.Teacher))
	{
		admin.GET("/views", c.admin.ViewStats)
		admin.POST("/views/sweep", c.admin.SweepViews)
	}
}

func (a *App) registerQuizRoutes(group *gin.RouterGroup, c *controllers) {
	quiz := group.Group("/quiz")
	{
		quiz.POST("/views", c.quiz.StartView)
		quiz.GET("/views/:id", c.quiz.GetView)
		quiz.POST("/views/:id/reload", c.quiz.ReloadView)
		quiz.POST("/views/:id/select", c.quiz.Select)
		quiz.POST("/views/:id/goto", c.quiz.GoTo)
		quiz.POST("/views/:id/submit", c.quiz.Submit)
		quiz.DELETE("/views/:id", c.quiz.CloseView)
		quiz.GET("/attempts", c.quiz.ListAttempts)
	}
}

func (a *App) registerLessonRoutes(group *gin.RouterGroup, c *controllers) {
	lesson := group.Group("/lesson")
	{
		lesson.POST("/views", c.lesson.StartView)
		lesson.GET("/views/:id", c.lesson.GetView)
		lesson.POST("/views/:id/reload", c.lesson.ReloadView)
		lesson.POST("/views/:id/play", c.lesson.Play)
		lesson.POST("/views/:id/pause", c.lesson.Pause)
		lesson.POST("/views/:id/next", c.lesson.Next)
		lesson.POST("/views/:id/previous", c.lesson.Previous)
		lesson.POST("/views/:id/bookmark", c.lesson.ToggleBookmark)
		lesson.POST("/views/:id/notes", c.lesson.RecordNote)
		lesson.DELETE("/views/:id", c.lesson.CloseView)
		lesson.GET("/progress", c.lesson.ListProgress)
	}
}
