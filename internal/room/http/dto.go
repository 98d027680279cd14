package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vkotelnikov/hotel-booking-backend/internal/room"
)

// RoomTag is the compact room reference embedded in other responses.
type RoomTag struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Type   string `json:"type"`
}

type RoomResponse struct {
	ID            string    `json:"id"`
	Number        string    `json:"number"`
	Type          string    `json:"type"`
	Capacity      int       `json:"capacity"`
	PricePerNight string    `json:"price_per_night"`
	Available     bool      `json:"available"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewRoomResponse(r *room.Room) RoomResponse {
	return RoomResponse{
		ID:            r.ID,
		Number:        r.Number,
		Type:          r.Type,
		Capacity:      r.Capacity,
		PricePerNight: r.PricePerNight.StringFixed(2),
		Available:     r.Available,
		CreatedAt:     r.CreatedAt,
	}
}

type CreateRoomRequest struct {
	Number        string `json:"number" binding:"required"`
	Type          string `json:"type"`
	Capacity      int    `json:"capacity" binding:"required,min=1"`
	PricePerNight string `json:"price_per_night" binding:"required"`
	Available     *bool  `json:"available"`
}

// Price parses the decimal price field.
func (r *CreateRoomRequest) Price() (decimal.Decimal, error) {
	return decimal.NewFromString(r.PricePerNight)
}

type UpdateRoomRequest struct {
	Number        *string `json:"number"`
	Type          *string `json:"type"`
	Capacity      *int    `json:"capacity" binding:"omitempty,min=1"`
	PricePerNight *string `json:"price_per_night"`
	Available     *bool   `json:"available"`
}
