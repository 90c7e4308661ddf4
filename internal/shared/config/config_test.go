package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("DATABASE_URL", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorageDriverPostgres, cfg.StorageDriver)
	assert.Equal(t, "/api/v1", cfg.GetAPIBasePath())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Contains(t, cfg.Database.DSN, "dbname=ticketing_db")
	assert.Equal(t, 5*time.Second, cfg.Reservation.LockTimeout)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("JWT_EXPIRES_IN", "60")
	t.Setenv("RESERVATION_MAX_RETRIES", "not-a-number")
	t.Setenv("TICKET_VALIDATE_URL", "https://example.test/scan/")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/x")

	cfg := Load()

	assert.True(t, cfg.UsesMemoryStorage())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, time.Minute, cfg.JWT.JWTExpiresIn)
	assert.Equal(t, 3, cfg.Reservation.MaxRetries)
	assert.Equal(t, "https://example.test/scan", cfg.Ticketing.ValidateURL)
	assert.Equal(t, "postgres://u:p@db/x", cfg.Database.DSN)
}
