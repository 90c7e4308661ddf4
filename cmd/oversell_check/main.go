// Command oversell_check fires concurrent reservations at a running server and
// verifies that the zone never hands out more tickets than it had left.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"ticketing/pkg/logger"
)

type apiResponse struct {
	StatusCode int             `json:"status_code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type availability struct {
	Remaining int  `json:"remaining"`
	Held      int  `json:"held"`
	OnSale    bool `json:"onSale"`
}

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func main() {
	var (
		baseURL  = pflag.String("base-url", "http://localhost:8080/api/v1", "API base URL")
		email    = pflag.String("email", "ada@ticketing.local", "account used to reserve")
		password = pflag.String("password", "qwerty", "account password")
		eventID  = pflag.String("event", "", "event id")
		zoneID   = pflag.String("zone", "", "audience zone id")
		requests = pflag.Int("requests", 50, "concurrent reservation attempts")
		party    = pflag.Int("party", 2, "participants per reservation")
	)
	pflag.Parse()

	log := logger.GetDefault()
	if *eventID == "" || *zoneID == "" {
		log.Error("--event and --zone are required")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	c := &client{baseURL: *baseURL, http: &http.Client{Timeout: 30 * time.Second}}
	if err := c.login(ctx, *email, *password); err != nil {
		log.Error("Login failed", slog.Any("error", err))
		os.Exit(1)
	}

	before, err := c.availability(ctx, *eventID, *zoneID)
	if err != nil {
		log.Error("Availability check failed", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("Zone before run", slog.Int("remaining", before.Remaining), slog.Int("held", before.Held))

	var created, rejected, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < *requests; i++ {
		i := i
		g.Go(func() error {
			status, err := c.reserve(gctx, *eventID, *zoneID, i, *party)
			switch {
			case err != nil:
				failed.Add(1)
			case status == http.StatusCreated:
				created.Add(1)
			case status == http.StatusConflict || status == http.StatusUnprocessableEntity:
				rejected.Add(1)
			default:
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	after, err := c.availability(ctx, *eventID, *zoneID)
	if err != nil {
		log.Error("Availability check failed", slog.Any("error", err))
		os.Exit(1)
	}

	issued := int(created.Load()) * *party
	log.Info("Run finished",
		slog.Int64("created", created.Load()),
		slog.Int64("rejected", rejected.Load()),
		slog.Int64("failed", failed.Load()),
		slog.Int("tickets_issued", issued),
		slog.Int("remaining_after", after.Remaining),
	)

	if issued > before.Remaining || after.Remaining < 0 || after.Held-before.Held != issued {
		log.Error("Capacity accounting mismatch",
			slog.Int("remaining_before", before.Remaining),
			slog.Int("held_before", before.Held),
			slog.Int("held_after", after.Held),
		)
		os.Exit(1)
	}
	log.Info("No oversell detected")
}

func (c *client) do(ctx context.Context, method, path string, body interface{}, headers map[string]string) (int, *apiResponse, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return resp.StatusCode, &out, nil
}

func (c *client) login(ctx context.Context, email, password string) error {
	status, resp, err := c.do(ctx, http.MethodPost, "/auth/login",
		map[string]string{"email": email, "password": password}, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("login returned %d: %s", status, resp.Message)
	}
	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(resp.Data, &tokens); err != nil {
		return err
	}
	c.token = tokens.AccessToken
	return nil
}

func (c *client) availability(ctx context.Context, eventID, zoneID string) (*availability, error) {
	status, resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/events/%s/zones/%s/availability", eventID, zoneID), nil, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("availability returned %d: %s", status, resp.Message)
	}
	var a availability
	if err := json.Unmarshal(resp.Data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *client) reserve(ctx context.Context, eventID, zoneID string, n, party int) (int, error) {
	participants := make([]map[string]string, party)
	for i := range participants {
		participants[i] = map[string]string{
			"firstName": fmt.Sprintf("Guest%d", i+1),
			"lastName":  fmt.Sprintf("Run%d", n),
		}
	}
	participants[0]["email"] = fmt.Sprintf("guest%d@ticketing.local", n)

	status, _, err := c.do(ctx, http.MethodPost, "/ticketing/reservations", map[string]interface{}{
		"eventId":        eventID,
		"audienceZoneId": zoneID,
		"participants":   participants,
	}, map[string]string{"X-Idempotency-Key": fmt.Sprintf("oversell-check-%d-%d", time.Now().UnixNano(), n)})
	return status, err
}
