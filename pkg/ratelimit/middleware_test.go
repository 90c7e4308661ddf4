package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestGetRateLimitType(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   RateLimitType
	}{
		{http.MethodGet, "/health", RateLimitTypeHealth},
		{http.MethodGet, "/metrics", RateLimitTypeHealth},
		{http.MethodPost, "/api/v1/ticketing/reservations", RateLimitTypeReservation},
		{http.MethodGet, "/api/v1/ticketing/reservations/:reservationId", RateLimitTypeDefault},
		{http.MethodPost, "/api/v1/ticketing/tickets/:id/validate", RateLimitTypeScan},
		{http.MethodPost, "/api/v1/events/:id/management/tickets/:ticketId/validate", RateLimitTypeScan},
		{http.MethodGet, "/api/v1/events/:id/management/tickets", RateLimitTypeAdmin},
		{http.MethodGet, "/api/v1/events/:id/statistics", RateLimitTypeAnalytics},
		{http.MethodPost, "/api/v1/auth/login", RateLimitTypeAuth},
		{http.MethodGet, "/api/v1/events", RateLimitTypePublic},
		{http.MethodPatch, "/api/v1/events/:id", RateLimitTypeDefault},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, getRateLimitType(tt.method, tt.path))
		})
	}
}

func TestGetClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.2:1234", "198.51.100.4"},
		{"garbage header", map[string]string{"X-Forwarded-For": "nope"}, "10.0.0.2:1234", "10.0.0.2"},
		{"remote only", nil, "192.0.2.1:5555", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			c.Request = req

			assert.Equal(t, tt.want, getClientIP(c))
		})
	}
}

func TestIsAllowedDisabledOrWhitelisted(t *testing.T) {
	rl := NewRateLimiter(nil, &Config{Enabled: true, ReservationRequests: 5, WhitelistedIPs: []string{"10.1.1.1"}})

	res, err := rl.IsAllowed(context.Background(), "10.1.1.1", RateLimitTypeReservation)
	assert.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 5, res.Limit)

	rl = NewRateLimiter(nil, &Config{Enabled: false, ScanRequests: 9})
	res, err = rl.IsAllowed(context.Background(), "1.2.3.4", RateLimitTypeScan)
	assert.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 9, res.Limit)
}
