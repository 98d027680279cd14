package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vkotelnikov/hotel-booking-backend/internal/auth"
	"github.com/vkotelnikov/hotel-booking-backend/internal/booking"
	"github.com/vkotelnikov/hotel-booking-backend/internal/pkg/apperror"
	"github.com/vkotelnikov/hotel-booking-backend/internal/pkg/request"
	"github.com/vkotelnikov/hotel-booking-backend/internal/pkg/response"
	"github.com/vkotelnikov/hotel-booking-backend/internal/room"
	"github.com/vkotelnikov/hotel-booking-backend/internal/user"
)

type Handler struct {
	service     *booking.Service
	roomService *room.Service
	userService *user.Service
}

func NewHandler(service *booking.Service, roomService *room.Service, userService *user.Service) *Handler {
	return &Handler{
		service:     service,
		roomService: roomService,
		userService: userService,
	}
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	in, out, ok := h.bindDates(c, body.CheckInDate, body.CheckOutDate)
	if !ok {
		return
	}

	actor := auth.CurrentActor(c)
	req := booking.CreateRequest{
		RoomID:          body.RoomID,
		UserID:          body.UserID,
		CheckIn:         in,
		CheckOut:        out,
		GuestName:       body.GuestName,
		GuestEmail:      body.GuestEmail,
		SpecialRequests: body.SpecialRequests,
	}

	b, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.render(c, actor, b))
}

func (h *Handler) Get(c *gin.Context) {
	actor := auth.CurrentActor(c)
	b, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, h.render(c, actor, b))
}

func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()
	actor := auth.CurrentActor(c)

	var (
		bookings []*booking.Booking
		err      error
	)
	switch {
	case c.Query("userId") != "":
		bookings, err = h.service.ListForUser(ctx, actor, c.Query("userId"))
	case c.Query("roomId") != "":
		bookings, err = h.service.ListByRoom(ctx, actor, c.Query("roomId"))
	case c.Query("guestEmail") != "":
		bookings, err = h.service.ListByGuestEmail(ctx, actor, c.Query("guestEmail"))
	case c.Query("email") != "":
		bookings, err = h.service.ListByAnyEmail(ctx, actor, c.Query("email"))
	case c.Query("status") != "" && c.Query("from") != "":
		bookings, err = h.listByStatusInRange(c, actor)
	case c.Query("status") == string(booking.StatusPending):
		bookings, err = h.service.ListPending(ctx, actor)
	case c.Query("status") == string(booking.StatusApproved):
		bookings, err = h.service.ListApproved(ctx, actor)
	default:
		bookings, err = h.service.ListAll(ctx, actor)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, h.renderAll(c, actor, bookings))
}

func (h *Handler) listByStatusInRange(c *gin.Context, actor booking.Actor) ([]*booking.Booking, error) {
	from, err := request.ParseDate(c.Query("from"))
	if err != nil {
		return nil, apperror.New(apperror.KindInvalidInput, "from must be a YYYY-MM-DD date")
	}
	to, err := request.ParseDate(c.Query("to"))
	if err != nil {
		return nil, apperror.New(apperror.KindInvalidInput, "to must be a YYYY-MM-DD date")
	}
	status := booking.Status(c.Query("status"))
	return h.service.ListByStatusInRange(c.Request.Context(), actor, status, from, to)
}

// ListMine returns the caller's own bookings.
func (h *Handler) ListMine(c *gin.Context) {
	actor := auth.CurrentActor(c)
	bookings, err := h.service.ListForUser(c.Request.Context(), actor, actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, h.renderAll(c, actor, bookings))
}

func (h *Handler) Update(c *gin.Context) {
	var body UpdateBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	in, out, ok := h.bindDates(c, body.CheckInDate, body.CheckOutDate)
	if !ok {
		return
	}

	actor := auth.CurrentActor(c)
	req := booking.UpdateRequest{
		CheckIn:         in,
		CheckOut:        out,
		GuestName:       body.GuestName,
		GuestEmail:      body.GuestEmail,
		SpecialRequests: body.SpecialRequests,
	}

	b, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, h.render(c, actor, b))
}

func (h *Handler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

func (h *Handler) Reject(c *gin.Context) {
	h.transition(c, h.service.Reject)
}

func (h *Handler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *Handler) Stats(c *gin.Context) {
	actor := auth.CurrentActor(c)
	stats, err := h.service.Stats(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, StatsResponse{
		Total:     stats.Total,
		Pending:   stats.Pending,
		Approved:  stats.Approved,
		Rejected:  stats.Rejected,
		Cancelled: stats.Cancelled,
		Completed: stats.Completed,
		Revenue:   stats.Revenue.StringFixed(2),
	})
}

// Availability answers whether a room is free over [checkIn, checkOut) and
// quotes the total price for the stay.
func (h *Handler) Availability(c *gin.Context) {
	roomID := c.Query("roomId")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId is required"})
		return
	}

	in, out, ok := h.bindDates(c, c.Query("checkIn"), c.Query("checkOut"))
	if !ok {
		return
	}

	ctx := c.Request.Context()
	available, err := h.service.IsAvailable(ctx, roomID, in, out)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := AvailabilityResponse{
		Available: available,
		Price:     "0.00",
		CheckIn:   request.FormatDate(in),
		CheckOut:  request.FormatDate(out),
		RoomID:    roomID,
	}
	if price, err := h.service.Quote(ctx, roomID, in, out); err == nil {
		resp.Price = price.StringFixed(2)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) transition(c *gin.Context, op func(ctx context.Context, actor booking.Actor, id string) (*booking.Booking, error)) {
	actor := auth.CurrentActor(c)
	b, err := op(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, h.render(c, actor, b))
}

func (h *Handler) bindDates(c *gin.Context, inStr, outStr string) (in, out time.Time, ok bool) {
	in, err := request.ParseDate(inStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid checkInDate, expected YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	out, err = request.ParseDate(outStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid checkOutDate, expected YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	return in, out, true
}

// render joins the room and, where the caller may see it, the owning user.
func (h *Handler) render(c *gin.Context, actor booking.Actor, b *booking.Booking) BookingResponse {
	ctx := c.Request.Context()
	r, _ := h.roomService.Get(ctx, b.RoomID)

	var u *user.User
	if actor.Role.CanModerate() || b.UserID == actor.UserID {
		u, _ = h.userService.GetByID(ctx, b.UserID)
	}
	return NewBookingResponse(b, r, u)
}

func (h *Handler) renderAll(c *gin.Context, actor booking.Actor, bookings []*booking.Booking) []BookingResponse {
	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = h.render(c, actor, b)
	}
	return items
}
