package handler

import (
	"context"
	"net/http"

	"event-booking-seeder/internal/service"

	"github.com/gin-gonic/gin"
)

type RunRequest struct {
	Clear bool `json:"clear"`
}

type RunHandler struct {
	pipeline service.PipelineService
}

func NewRunHandler(pipeline service.PipelineService) *RunHandler {
	return &RunHandler{pipeline: pipeline}
}

func (h *RunHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("summary", h.Summary)
		router.POST("runs", h.CreateRun)
	}
}

func (h *RunHandler) Summary(c *gin.Context) {
	counts, err := h.pipeline.Summary(c)
	if err != nil {
		handleError(c, err, "Summary")
		return
	}

	handleSuccess(c, counts, http.StatusOK)
}

func (h *RunHandler) CreateRun(c *gin.Context) {
	var req RunRequest
	if c.Request.ContentLength != 0 {
		if err := BindJson(c, &req); err != nil {
			return
		}
	}

	// 用戶斷線不中止產生，避免留下一半的資料
	ctx := context.WithoutCancel(c.Request.Context())
	report, err := h.pipeline.Run(ctx, service.RunOptions{Clear: req.Clear})
	if err != nil {
		handleError(c, err, "CreateRun")
		return
	}

	handleSuccess(c, report, http.StatusCreated)
}
