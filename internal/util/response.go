package util

import (
	"edu_player_backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

func write(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{Code: status, Message: message, Data: data})
}

func Success(c *gin.Context, data interface{}) { write(c, http.StatusOK, "success", data) }

func Created(c *gin.Context, data interface{}) { write(c, http.StatusCreated, "created", data) }

func Error(c *gin.Context, code int, message string) { write(c, code, message, nil) }

func Unauthorized(c *gin.Context) { Error(c, http.StatusUnauthorized, "Unauthorized") }

func Forbidden(c *gin.Context) { Error(c, http.StatusForbidden, "Forbidden") }

func BadRequest(c *gin.Context, message string) { Error(c, http.StatusBadRequest, message) }

func NotFound(c *gin.Context) { Error(c, http.StatusNotFound, "Resource not found") }

// Conflict is used for operations the view's state no longer allows.
func Conflict(c *gin.Context, message string) { Error(c, http.StatusConflict, message) }

// BadGateway reports a failed upstream load; the client retries with a reload.
func BadGateway(c *gin.Context, message string) { Error(c, http.StatusBadGateway, message) }

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

// LogInternalError logs err with the route and answers 500 without details.
func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.Error(err),
		zap.String("path", c.FullPath()),
		zap.String("method", c.Request.Method),
	)
	InternalServerError(c)
}
