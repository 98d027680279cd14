package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkotelnikov/hotel-booking-backend/internal/api"
	"github.com/vkotelnikov/hotel-booking-backend/internal/auth"
	"github.com/vkotelnikov/hotel-booking-backend/internal/booking"
	bookingHttp "github.com/vkotelnikov/hotel-booking-backend/internal/booking/http"
	"github.com/vkotelnikov/hotel-booking-backend/internal/booking/memory"
	"github.com/vkotelnikov/hotel-booking-backend/internal/clock"
	"github.com/vkotelnikov/hotel-booking-backend/internal/room"
	"github.com/vkotelnikov/hotel-booking-backend/internal/user"
)

type testApp struct {
	router  *gin.Engine
	jwt     *auth.JWTManager
	roomSvc *room.Service
	users   *memory.Users
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	users := memory.NewUsers()
	store.UserEmail = users.EmailResolver()
	rooms := memory.NewRooms()

	roomSvc := room.NewService(rooms)
	userSvc := user.NewService(users)
	clk := clock.NewFake(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))

	log := logrus.New()
	log.SetOutput(io.Discard)

	avail := booking.NewAvailability(roomSvc, store)
	svc := booking.NewService(store, roomSvc, userSvc, avail, clk, booking.NewLogEmitter(log), log, booking.Config{})

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	router := api.NewRouter(api.Config{
		BookingService: svc,
		RoomService:    roomSvc,
		UserService:    userSvc,
		JWTManager:     jwtManager,
	})

	return &testApp{router: router, jwt: jwtManager, roomSvc: roomSvc, users: users}
}

func (a *testApp) addUser(t *testing.T, username string, role user.Role) (*user.User, string) {
	t.Helper()
	u := a.users.Add(&user.User{Username: username, Email: username + "@example.com", Role: role})
	token, err := a.jwt.GenerateAccessToken(u.ID, u.Role)
	require.NoError(t, err)
	return u, token
}

func (a *testApp) addRoom(t *testing.T, number, price string) *room.Room {
	t.Helper()
	r := &room.Room{
		Number:        number,
		Type:          "standard",
		Capacity:      2,
		PricePerNight: decimal.RequireFromString(price),
		Available:     true,
	}
	require.NoError(t, a.roomSvc.Save(context.Background(), r))
	return r
}

func (a *testApp) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	r := app.addRoom(t, "101", "100.00")
	alice, aliceToken := app.addUser(t, "alice", user.RoleUser)
	_, modToken := app.addUser(t, "mod", user.RoleModerator)

	createBody := bookingHttp.CreateBookingBody{
		RoomID:       r.ID,
		CheckInDate:  "2026-09-01",
		CheckOutDate: "2026-09-04",
		GuestName:    "Ada Lovelace",
		GuestEmail:   "ada@example.com",
	}

	var created bookingHttp.BookingResponse

	t.Run("Create requires a token", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/v1/bookings", createBody, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Create returns the booking envelope", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/v1/bookings", createBody, aliceToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "PENDING", created.Status)
		assert.Equal(t, "2026-09-01", created.CheckInDate)
		assert.Equal(t, "2026-09-04", created.CheckOutDate)
		assert.Equal(t, "300.00", created.TotalPrice)
		assert.Equal(t, "101", created.Room.Number)
		require.NotNil(t, created.User)
		assert.Equal(t, alice.ID, created.User.ID)
	})

	t.Run("Owner sees the booking under my", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/v1/bookings/my", nil, aliceToken)
		require.Equal(t, http.StatusOK, w.Code)

		var list []bookingHttp.BookingResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, created.ID, list[0].ID)
	})

	t.Run("Approve is moderator-gated", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/v1/bookings/"+created.ID+"/approve", nil, aliceToken)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = app.do(t, http.MethodPost, "/v1/bookings/"+created.ID+"/approve", nil, modToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var approved bookingHttp.BookingResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &approved))
		assert.Equal(t, "APPROVED", approved.Status)
	})

	t.Run("Availability is public and reflects the approved stay", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/v1/bookings/availability?roomId="+r.ID+"&checkIn=2026-09-02&checkOut=2026-09-03", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var avail bookingHttp.AvailabilityResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &avail))
		assert.False(t, avail.Available)
		assert.Equal(t, "100.00", avail.Price)
		assert.Equal(t, r.ID, avail.RoomID)

		w = app.do(t, http.MethodGet, "/v1/bookings/availability?roomId="+r.ID+"&checkIn=2026-09-04&checkOut=2026-09-06", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &avail))
		assert.True(t, avail.Available)
		assert.Equal(t, "200.00", avail.Price)
	})

	t.Run("Conflicting create maps to 409", func(t *testing.T) {
		conflict := createBody
		conflict.CheckInDate = "2026-09-02"
		conflict.CheckOutDate = "2026-09-05"
		w := app.do(t, http.MethodPost, "/v1/bookings", conflict, aliceToken)
		assert.Equal(t, http.StatusConflict, w.Code)

		var errResp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
		assert.NotEmpty(t, errResp["error"])
	})

	t.Run("Bad dates map to 400", func(t *testing.T) {
		bad := createBody
		bad.CheckInDate = "2026-09-10"
		bad.CheckOutDate = "2026-09-10"
		w := app.do(t, http.MethodPost, "/v1/bookings", bad, aliceToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Stats are moderator-gated", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/v1/bookings/stats", nil, aliceToken)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = app.do(t, http.MethodGet, "/v1/bookings/stats", nil, modToken)
		require.Equal(t, http.StatusOK, w.Code)

		var stats bookingHttp.StatsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal(t, 1, stats.Approved)
		assert.Equal(t, "300.00", stats.Revenue)
	})
}

func TestRoomRoutesOverHTTP(t *testing.T) {
	app := newTestApp(t)
	app.addRoom(t, "101", "100.00")
	_, userToken := app.addUser(t, "alice", user.RoleUser)
	_, adminToken := app.addUser(t, "admin", user.RoleAdmin)

	t.Run("Room list is public", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/v1/rooms", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Room creation is admin-gated", func(t *testing.T) {
		body := map[string]any{
			"number":          "102",
			"capacity":        3,
			"price_per_night": "150.00",
		}
		w := app.do(t, http.MethodPost, "/v1/rooms", body, userToken)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = app.do(t, http.MethodPost, "/v1/rooms", body, adminToken)
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("Duplicate room number maps to 409", func(t *testing.T) {
		body := map[string]any{
			"number":          "101",
			"capacity":        2,
			"price_per_night": "90.00",
		}
		w := app.do(t, http.MethodPost, "/v1/rooms", body, adminToken)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Free rooms for an interval", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/v1/rooms/free?checkIn=2026-09-01&checkOut=2026-09-03", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
	})
}
