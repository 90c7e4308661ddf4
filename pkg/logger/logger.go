package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with ticketing specific helpers
type Logger struct {
	*slog.Logger
}

// New creates a logger writing to stdout
func New() *Logger {
	return NewWithWriter(os.Stdout, os.Getenv("LOG_LEVEL"))
}

// NewWithWriter creates a logger writing to w at the given level
func NewWithWriter(w io.Writer, levelStr string) *Logger {
	level := getLogLevel(levelStr)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// text for local development, JSON everywhere else
	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID adds request ID to logger context
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("request_id", requestID))}
}

// WithUserID adds user ID to logger context
func (l *Logger) WithUserID(userID string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("user_id", userID))}
}

// WithError adds error to logger context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("error", err.Error()))}
}

// HTTP logging methods

// LogHTTPRequest logs an HTTP request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.String("user_agent", c.Request.UserAgent()),
		slog.Int("size", c.Writer.Size()),
	)
}

// LogHTTPError logs an HTTP error
func (l *Logger) LogHTTPError(c *gin.Context, err error, statusCode int) {
	l.Logger.ErrorContext(c.Request.Context(),
		"HTTP Error",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", statusCode),
		slog.String("error", err.Error()),
		slog.String("ip", c.ClientIP()),
	)
}

// Business logic logging methods

// LogEventCreated logs when an event is created
func (l *Logger) LogEventCreated(ctx context.Context, eventID, userID string) {
	l.Logger.InfoContext(ctx,
		"Event Created",
		slog.String("event_id", eventID),
		slog.String("user_id", userID),
	)
}

// LogEventStatusChanged logs an event lifecycle transition
func (l *Logger) LogEventStatusChanged(ctx context.Context, eventID, from, to string) {
	l.Logger.InfoContext(ctx,
		"Event Status Changed",
		slog.String("event_id", eventID),
		slog.String("from", from),
		slog.String("to", to),
	)
}

// LogFieldImmutable logs a write rejected by the event status gate
func (l *Logger) LogFieldImmutable(ctx context.Context, eventID, field, status string) {
	l.Logger.InfoContext(ctx,
		"Event Field Immutable",
		slog.String("event_id", eventID),
		slog.String("field", field),
		slog.String("status", status),
	)
}

// LogReservationCreated logs a successful reservation
func (l *Logger) LogReservationCreated(ctx context.Context, reservationID, eventID, zoneID string, tickets int) {
	l.Logger.InfoContext(ctx,
		"Reservation Created",
		slog.String("reservation_id", reservationID),
		slog.String("event_id", eventID),
		slog.String("zone_id", zoneID),
		slog.Int("tickets", tickets),
	)
}

// LogReservationRejected logs a reservation refused for a business reason
func (l *Logger) LogReservationRejected(ctx context.Context, eventID, zoneID, code string) {
	l.Logger.InfoContext(ctx,
		"Reservation Rejected",
		slog.String("event_id", eventID),
		slog.String("zone_id", zoneID),
		slog.String("code", code),
	)
}

// LogTicketValidated logs a successful scan
func (l *Logger) LogTicketValidated(ctx context.Context, ticketID, eventID string) {
	l.Logger.InfoContext(ctx,
		"Ticket Validated",
		slog.String("ticket_id", ticketID),
		slog.String("event_id", eventID),
	)
}

// LogTicketScanRejected logs a scan that did not admit entry
func (l *Logger) LogTicketScanRejected(ctx context.Context, ticketID, code string) {
	l.Logger.WarnContext(ctx,
		"Ticket Scan Rejected",
		slog.String("ticket_id", ticketID),
		slog.String("code", code),
	)
}

// LogTicketCancelled logs an administrative cancellation
func (l *Logger) LogTicketCancelled(ctx context.Context, ticketID, userID string) {
	l.Logger.InfoContext(ctx,
		"Ticket Cancelled",
		slog.String("ticket_id", ticketID),
		slog.String("user_id", userID),
	)
}

// LogInvariantViolation logs a broken invariant. These are bugs, never business outcomes.
func (l *Logger) LogInvariantViolation(ctx context.Context, kind string, err error, attrs ...slog.Attr) {
	args := make([]any, 0, len(attrs)+2)
	args = append(args, slog.String("kind", kind), slog.String("error", err.Error()))
	for _, a := range attrs {
		args = append(args, a)
	}
	l.Logger.ErrorContext(ctx, "Invariant Violation", args...)
}

// Security logging methods

// LogAuthSuccess logs successful authentication
func (l *Logger) LogAuthSuccess(ctx context.Context, userID, method string) {
	l.Logger.InfoContext(ctx,
		"Authentication Success",
		slog.String("user_id", userID),
		slog.String("method", method),
	)
}

// LogAuthFailure logs failed authentication
func (l *Logger) LogAuthFailure(ctx context.Context, reason, ip string) {
	l.Logger.WarnContext(ctx,
		"Authentication Failure",
		slog.String("reason", reason),
		slog.String("ip", ip),
	)
}

// LogRateLimitExceeded logs rate limit exceeded
func (l *Logger) LogRateLimitExceeded(ctx context.Context, ip, endpoint string) {
	l.Logger.WarnContext(ctx,
		"Rate Limit Exceeded",
		slog.String("ip", ip),
		slog.String("endpoint", endpoint),
	)
}

var defaultLogger = New()

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
