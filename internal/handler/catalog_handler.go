package handler

import (
	"net/http"

	"event-booking-seeder/internal/service"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalog service.CatalogService
	booking service.BookingService
}

func NewCatalogHandler(catalog service.CatalogService, booking service.BookingService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, booking: booking}
}

func (h *CatalogHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("events/:id", h.GetEvent)
		router.GET("users/:id", h.GetUser)
		router.GET("users/:id/bookings", h.GetUserBookings)
	}
}

func (h *CatalogHandler) GetEvent(c *gin.Context) {
	id, ok := ParamObjectID(c, "id")
	if !ok {
		return
	}
	event, err := h.catalog.GetEvent(c, id)
	if err != nil {
		handleError(c, err, "GetEvent")
		return
	}

	handleSuccess(c, event, http.StatusOK)
}

func (h *CatalogHandler) GetUser(c *gin.Context) {
	id, ok := ParamObjectID(c, "id")
	if !ok {
		return
	}
	user, err := h.catalog.GetUser(c, id)
	if err != nil {
		handleError(c, err, "GetUser")
		return
	}

	handleSuccess(c, user, http.StatusOK)
}

func (h *CatalogHandler) GetUserBookings(c *gin.Context) {
	id, ok := ParamObjectID(c, "id")
	if !ok {
		return
	}
	// 先確認使用者存在，不存在回 404 而不是空陣列
	if _, err := h.catalog.GetUser(c, id); err != nil {
		handleError(c, err, "GetUserBookings")
		return
	}
	bookings, err := h.booking.ListByUser(c, id)
	if err != nil {
		handleError(c, err, "GetUserBookings")
		return
	}

	handleSuccess(c, bookings, http.StatusOK)
}
