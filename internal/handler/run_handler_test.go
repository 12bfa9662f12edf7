package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"event-booking-seeder/internal/handler"
	"event-booking-seeder/internal/service"
	apperrors "event-booking-seeder/pkg/app_errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupRunTestRouter(pipeline *MockPipelineService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.NewRunHandler(pipeline).RegisterRoutes(router)
	return router
}

func TestCreateRun(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		pipeline := new(MockPipelineService)
		router := setupRunTestRouter(pipeline)

		pipeline.On("Run", mock.Anything, service.RunOptions{Clear: true}).Return(&service.RunReport{
			RunID:   "run-1",
			Profile: "small",
			Cleared: true,
		}, nil).Once()

		req := createJSONHTTPRequest(http.MethodPost, "/api/v1/runs", handler.RunRequest{Clear: true})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "run-1")
		pipeline.AssertExpectations(t)
	})

	t.Run("Success - EmptyBody", func(t *testing.T) {
		pipeline := new(MockPipelineService)
		router := setupRunTestRouter(pipeline)

		pipeline.On("Run", mock.Anything, service.RunOptions{}).Return(&service.RunReport{RunID: "run-2"}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		pipeline.AssertExpectations(t)
	})

	t.Run("Failed - BindingError", func(t *testing.T) {
		pipeline := new(MockPipelineService)
		router := setupRunTestRouter(pipeline)

		req := createJSONHTTPRequest(http.MethodPost, "/api/v1/runs", InvalidJSON)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		pipeline.AssertNotCalled(t, "Run")
	})

	t.Run("Failed - ErrRunInProgress", func(t *testing.T) {
		pipeline := new(MockPipelineService)
		router := setupRunTestRouter(pipeline)

		pipeline.On("Run", mock.Anything, mock.Anything).Return(nil, apperrors.ErrRunInProgress).Once()

		req := createJSONHTTPRequest(http.MethodPost, "/api/v1/runs", handler.RunRequest{})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		pipeline.AssertExpectations(t)
	})

	preconditions := []error{
		apperrors.ErrNoUsers,
		apperrors.ErrNoEvents,
		apperrors.ErrSeatPoolTooSmall,
		apperrors.ErrInvalidProfile,
	}
	for _, cause := range preconditions {
		t.Run("Failed - "+cause.Error(), func(t *testing.T) {
			pipeline := new(MockPipelineService)
			router := setupRunTestRouter(pipeline)

			pipeline.On("Run", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("bookings phase: %w", cause)).Once()

			req := createJSONHTTPRequest(http.MethodPost, "/api/v1/runs", handler.RunRequest{})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			pipeline.AssertExpectations(t)
		})
	}

	t.Run("Failed - ErrInternalServerError", func(t *testing.T) {
		pipeline := new(MockPipelineService)
		router := setupRunTestRouter(pipeline)

		pipeline.On("Run", mock.Anything, mock.Anything).Return(nil, errors.New("insert failed")).Once()

		req := createJSONHTTPRequest(http.MethodPost, "/api/v1/runs", handler.RunRequest{})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		pipeline.AssertExpectations(t)
	})
}

func TestSummary(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		pipeline := new(MockPipelineService)
		router := setupRunTestRouter(pipeline)

		pipeline.On("Summary", mock.Anything).Return(map[string]int64{"users": 30, "total": 30}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"users":30,"total":30}`, w.Body.String())
		pipeline.AssertExpectations(t)
	})

	t.Run("Failed - ErrInternalServerError", func(t *testing.T) {
		pipeline := new(MockPipelineService)
		router := setupRunTestRouter(pipeline)

		pipeline.On("Summary", mock.Anything).Return(nil, errors.New("count failed")).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		pipeline.AssertExpectations(t)
	})
}
