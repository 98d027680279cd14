package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vkotelnikov/hotel-booking-backend/internal/auth"
	"github.com/vkotelnikov/hotel-booking-backend/internal/booking"
	"github.com/vkotelnikov/hotel-booking-backend/internal/pkg/request"
	"github.com/vkotelnikov/hotel-booking-backend/internal/pkg/response"
	"github.com/vkotelnikov/hotel-booking-backend/internal/room"
)

type Handler struct {
	service        *room.Service
	bookingService *booking.Service
}

func NewHandler(service *room.Service, bookingService *booking.Service) *Handler {
	return &Handler{
		service:        service,
		bookingService: bookingService,
	}
}

func (h *Handler) List(c *gin.Context) {
	var (
		rooms []*room.Room
		err   error
	)
	if c.Query("available") == "true" {
		rooms, err = h.service.ListAvailable(c.Request.Context())
	} else {
		rooms, err = h.service.ListAll(c.Request.Context())
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]RoomResponse, len(rooms))
	for i, r := range rooms {
		items[i] = NewRoomResponse(r)
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) Get(c *gin.Context) {
	r, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewRoomResponse(r))
}

// ListFree returns the rooms free over [check_in, check_out).
func (h *Handler) ListFree(c *gin.Context) {
	in, out, ok := parseDateRange(c)
	if !ok {
		return
	}

	rooms, err := h.bookingService.AvailableRooms(c.Request.Context(), in, out)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]RoomResponse, len(rooms))
	for i, r := range rooms {
		items[i] = NewRoomResponse(r)
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) Create(c *gin.Context) {
	if !auth.GetRole(c).IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return
	}

	var body CreateRoomRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	price, err := body.Price()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price_per_night"})
		return
	}

	r := &room.Room{
		Number:        body.Number,
		Type:          body.Type,
		Capacity:      body.Capacity,
		PricePerNight: price,
		Available:     true,
	}
	if body.Available != nil {
		r.Available = *body.Available
	}

	if err := h.service.Save(c.Request.Context(), r); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewRoomResponse(r))
}

func (h *Handler) Update(c *gin.Context) {
	if !auth.GetRole(c).IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return
	}

	var body UpdateRoomRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	r, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	if body.Number != nil {
		r.Number = *body.Number
	}
	if body.Type != nil {
		r.Type = *body.Type
	}
	if body.Capacity != nil {
		r.Capacity = *body.Capacity
	}
	if body.PricePerNight != nil {
		price, err := decimal.NewFromString(*body.PricePerNight)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price_per_night"})
			return
		}
		r.PricePerNight = price
	}
	if body.Available != nil {
		r.Available = *body.Available
	}

	if err := h.service.Save(c.Request.Context(), r); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewRoomResponse(r))
}

func (h *Handler) Delete(c *gin.Context) {
	actor := auth.CurrentActor(c)
	if err := h.bookingService.DeleteRoom(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// parseDateRange reads checkIn and checkOut query parameters as civil dates.
func parseDateRange(c *gin.Context) (in, out time.Time, ok bool) {
	in, err := request.ParseDate(c.Query("checkIn"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid checkIn, expected YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	out, err = request.ParseDate(c.Query("checkOut"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid checkOut, expected YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	return in, out, true
}
