package reservations

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing/internal/events"
	"ticketing/internal/shared/config"
	"ticketing/internal/users"
)

const testSecret = "controller-secret"

func setupEngine(t *testing.T, f *fixture) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}
	engine := gin.New()
	SetupReservationRoutes(engine.Group("/api/v1"), NewController(f.svc), cfg)
	return engine
}

func accessToken(t *testing.T, userID uuid.UUID, role users.Role) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"role":    string(role),
		"type":    "access",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func send(engine *gin.Engine, method, path, token string, headers map[string]string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors struct {
		Code string `json:"code"`
	} `json:"errors"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestReservationEndpoints(t *testing.T) {
	f := newFixture(t)
	engine := setupEngine(t, f)
	eventID, zoneID := f.addEvent(t, events.StatusPublished, 3, true, 48*time.Hour)

	buyer := uuid.New()
	token := accessToken(t, buyer, users.RoleUser)
	body := map[string]interface{}{
		"eventId":        eventID.String(),
		"audienceZoneId": zoneID.String(),
		"participants":   participants(2),
	}

	w := send(engine, http.MethodPost, "/api/v1/ticketing/reservations", "", nil, body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	headers := map[string]string{IdempotencyHeader: "checkout-42"}
	w = send(engine, http.MethodPost, "/api/v1/ticketing/reservations", token, headers, body)
	require.Equal(t, http.StatusCreated, w.Code)

	var created Reservation
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))
	assert.Len(t, created.Tickets, 2)

	// a retried request replays the first outcome
	w = send(engine, http.MethodPost, "/api/v1/ticketing/reservations", token, headers, body)
	require.Equal(t, http.StatusCreated, w.Code)
	var replayed Reservation
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &replayed))
	assert.Equal(t, created.ReservationID, replayed.ReservationID)

	w = send(engine, http.MethodGet, "/api/v1/events/"+eventID.String()+"/zones/"+zoneID.String()+"/availability?quantity=2", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var availability ZoneAvailability
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &availability))
	assert.Equal(t, 2, availability.Held)
	assert.Equal(t, 1, availability.Remaining)
	require.NotNil(t, availability.CanAccommodate)
	assert.False(t, *availability.CanAccommodate)

	w = send(engine, http.MethodPost, "/api/v1/ticketing/reservations", token, nil, body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CAPACITY_EXCEEDED", decode(t, w).Errors.Code)

	w = send(engine, http.MethodGet, "/api/v1/ticketing/reservations/"+created.ReservationID, token, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// other users cannot tell the reservation exists
	stranger := accessToken(t, uuid.New(), users.RoleUser)
	w = send(engine, http.MethodGet, "/api/v1/ticketing/reservations/"+created.ReservationID, stranger, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReservationEndpointRejections(t *testing.T) {
	f := newFixture(t)
	engine := setupEngine(t, f)
	eventID, zoneID := f.addEvent(t, events.StatusDraft, 10, true, 48*time.Hour)
	token := accessToken(t, uuid.New(), users.RoleUser)

	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
		code   string
	}{
		{
			name:   "malformed ids",
			body:   map[string]interface{}{"eventId": "nope", "audienceZoneId": zoneID.String(), "participants": participants(1)},
			status: http.StatusBadRequest,
			code:   "INVALID_REQUEST",
		},
		{
			name:   "too many participants",
			body:   map[string]interface{}{"eventId": eventID.String(), "audienceZoneId": zoneID.String(), "participants": participants(5)},
			status: http.StatusBadRequest,
			code:   "INVALID_PARTICIPANT_COUNT",
		},
		{
			name:   "event not on sale",
			body:   map[string]interface{}{"eventId": eventID.String(), "audienceZoneId": zoneID.String(), "participants": participants(1)},
			status: http.StatusUnprocessableEntity,
			code:   "EVENT_NOT_PUBLISHED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := send(engine, http.MethodPost, "/api/v1/ticketing/reservations", token, nil, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode(t, w).Errors.Code)
		})
	}

	w := send(engine, http.MethodGet, "/api/v1/events/not-a-uuid/zones/"+zoneID.String()+"/availability", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelledEventIsNotBookable(t *testing.T) {
	f := newFixture(t)
	engine := setupEngine(t, f)
	eventID, zoneID := f.addEvent(t, events.StatusCancelled, 10, true, 48*time.Hour)

	w := send(engine, http.MethodGet, "/api/v1/events/"+eventID.String()+"/zones/"+zoneID.String()+"/availability?quantity=1", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var availability ZoneAvailability
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &availability))
	assert.False(t, availability.OnSale)
	require.NotNil(t, availability.CanAccommodate)
	assert.False(t, *availability.CanAccommodate)
}
