package handler

import (
	"errors"
	"net/http"

	apperrors "event-booking-seeder/pkg/app_errors"
	"event-booking-seeder/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

// ParamObjectID 解析路徑參數中的 ObjectID，格式錯誤時直接回 400
func ParamObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
		})
		return primitive.NilObjectID, false
	}
	return id, true
}

func handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrEventNotFound):
		log.Warn("Event not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Event not found",
		})
	case errors.Is(err, apperrors.ErrUserNotFound):
		log.Warn("User not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "User not found",
		})
	case errors.Is(err, apperrors.ErrRunInProgress):
		log.Warn("Run in progress")
		c.JSON(http.StatusConflict, gin.H{
			"error": "A generation run is already in progress",
		})
	case errors.Is(err, apperrors.ErrNoUsers),
		errors.Is(err, apperrors.ErrNoEvents),
		errors.Is(err, apperrors.ErrSeatPoolTooSmall),
		errors.Is(err, apperrors.ErrInvalidProfile):
		log.Error("Generation precondition failed")
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": err.Error(),
		})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}

func handleSuccess(c *gin.Context, data interface{}, statusCode int) {
	if data != nil {
		c.JSON(statusCode, data)
	} else {
		c.Status(statusCode)
	}
}
