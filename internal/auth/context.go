package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/vkotelnikov/hotel-booking-backend/internal/booking"
	"github.com/vkotelnikov/hotel-booking-backend/internal/user"
)

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetRole returns the authenticated user's role, defaulting to USER.
func GetRole(c *gin.Context) user.Role {
	if v, ok := c.Get("userRole"); ok {
		if s, ok := v.(string); ok && user.Role(s).Valid() {
			return user.Role(s)
		}
	}
	return user.RoleUser
}

// CurrentActor assembles the booking actor from the request context.
func CurrentActor(c *gin.Context) booking.Actor {
	return booking.Actor{
		UserID: GetUserID(c),
		Role:   GetRole(c),
	}
}
