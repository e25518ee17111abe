package controller

import (
	"edu_player_backend/internal/model"
	"edu_player_backend/internal/util"
	"edu_player_backend/pkg/logger"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps service errors onto the response envelope.
func respondError(ctx *gin.Context, err error) {
	var fetchErr *util.FetchError
	switch {
	case errors.As(err, &fetchErr):
		logger.Log.Warn("Catalog load failed", zap.Error(err))
		util.BadGateway(ctx, "Content could not be loaded, please reload")
	case errors.Is(err, util.ErrViewNotFound), errors.Is(err, util.ErrViewClosed):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrQuizSubmitted):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrQuestionOutOfRange),
		errors.Is(err, util.ErrUnknownOption),
		errors.Is(err, util.ErrNoActiveLesson):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

func sessionOrAbort(ctx *gin.Context) (model.Session, bool) {
	session, ok := util.SessionFromContext(ctx)
	if !ok {
		util.Unauthorized(ctx)
	}
	return session, ok
}

type viewResponse struct {
	ID   string      `json:"id"`
	View interface{} `json:"view"`
}
