package http

import (
	"time"

	"github.com/vkotelnikov/hotel-booking-backend/internal/booking"
	"github.com/vkotelnikov/hotel-booking-backend/internal/pkg/request"
	"github.com/vkotelnikov/hotel-booking-backend/internal/room"
	roomHttp "github.com/vkotelnikov/hotel-booking-backend/internal/room/http"
	"github.com/vkotelnikov/hotel-booking-backend/internal/user"
)

// UserTag is the compact user reference embedded in booking responses.
// It is omitted for callers that may not see the owner.
type UserTag struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type BookingResponse struct {
	ID              string           `json:"id"`
	Room            roomHttp.RoomTag `json:"room"`
	User            *UserTag         `json:"user,omitempty"`
	CheckInDate     string           `json:"checkInDate"`
	CheckOutDate    string           `json:"checkOutDate"`
	GuestName       string           `json:"guestName"`
	GuestEmail      string           `json:"guestEmail"`
	SpecialRequests string           `json:"specialRequests"`
	Status          string           `json:"status"`
	CreatedAt       time.Time        `json:"createdAt"`
	TotalPrice      string           `json:"totalPrice"`
}

// NewBookingResponse renders a booking. Room and user tags are joined by the
// handler; either may be nil when the referenced record is gone.
func NewBookingResponse(b *booking.Booking, r *room.Room, u *user.User) BookingResponse {
	resp := BookingResponse{
		ID:              b.ID,
		Room:            roomHttp.RoomTag{ID: b.RoomID},
		CheckInDate:     request.FormatDate(b.CheckIn),
		CheckOutDate:    request.FormatDate(b.CheckOut),
		GuestName:       b.GuestName,
		GuestEmail:      b.GuestEmail,
		SpecialRequests: b.SpecialRequests,
		Status:          string(b.Status),
		CreatedAt:       b.CreatedAt,
		TotalPrice:      b.TotalPrice.StringFixed(2),
	}
	if r != nil {
		resp.Room = roomHttp.RoomTag{ID: r.ID, Number: r.Number, Type: r.Type}
	}
	if u != nil {
		resp.User = &UserTag{ID: u.ID, Username: u.Username}
	}
	return resp
}

type CreateBookingBody struct {
	RoomID          string `json:"roomId" binding:"required,uuid"`
	UserID          string `json:"userId" binding:"omitempty,uuid"`
	CheckInDate     string `json:"checkInDate" binding:"required"`
	CheckOutDate    string `json:"checkOutDate" binding:"required"`
	GuestName       string `json:"guestName" binding:"required"`
	GuestEmail      string `json:"guestEmail" binding:"required"`
	SpecialRequests string `json:"specialRequests"`
}

type UpdateBookingBody struct {
	CheckInDate     string `json:"checkInDate" binding:"required"`
	CheckOutDate    string `json:"checkOutDate" binding:"required"`
	GuestName       string `json:"guestName" binding:"required"`
	GuestEmail      string `json:"guestEmail" binding:"required"`
	SpecialRequests string `json:"specialRequests"`
}

type AvailabilityResponse struct {
	Available bool   `json:"available"`
	Price     string `json:"price"`
	CheckIn   string `json:"checkIn"`
	CheckOut  string `json:"checkOut"`
	RoomID    string `json:"roomId"`
}

type StatsResponse struct {
	Total     int    `json:"total"`
	Pending   int    `json:"pending"`
	Approved  int    `json:"approved"`
	Rejected  int    `json:"rejected"`
	Cancelled int    `json:"cancelled"`
	Completed int    `json:"completed"`
	Revenue   string `json:"revenue"`
}
