package constants

import (
	"fmt"
	"time"
)

// Redis keys follow ticketing:{module}:{operation}:{identifier}

// ================== CACHE TTL DURATIONS ==================

const (
	TTL_STATIC_LONG        = 24 * time.Hour
	TTL_SEMI_STATIC_MEDIUM = 2 * time.Hour
	TTL_SEMI_STATIC_QUICK  = 15 * time.Minute
	TTL_DYNAMIC_QUICK      = 2 * time.Minute
	TTL_REALTIME_SHORT     = 30 * time.Second
)

const (
	CACHE_PREFIX = "ticketing"
)

// ================== INVENTORY ==================

const (
	CACHE_KEY_STRUCTURE_DETAIL = CACHE_PREFIX + ":inventory:structure:uuid:" // + structure-id
	CACHE_KEY_AREA_TEMPLATES   = CACHE_PREFIX + ":inventory:templates:area:" // + area-id

	TTL_STRUCTURE_DETAIL = TTL_SEMI_STATIC_MEDIUM
	TTL_AREA_TEMPLATES   = TTL_SEMI_STATIC_QUICK
)

// ================== EVENTS ==================

const (
	CACHE_KEY_EVENT_DETAIL = CACHE_PREFIX + ":events:detail:uuid:" // + event-id

	TTL_EVENT_DETAIL = TTL_SEMI_STATIC_QUICK

	PATTERN_INVALIDATE_EVENT_DETAIL = CACHE_PREFIX + ":events:detail:uuid:" // + event-id + *
)

// ================== STATISTICS ==================

// Statistics tolerate staleness relative to in-flight reservations.
const (
	CACHE_KEY_EVENT_STATISTICS     = CACHE_PREFIX + ":analytics:event:uuid:"     // + event-id
	CACHE_KEY_STRUCTURE_STATISTICS = CACHE_PREFIX + ":analytics:structure:uuid:" // + structure-id

	TTL_EVENT_STATISTICS     = TTL_REALTIME_SHORT
	TTL_STRUCTURE_STATISTICS = TTL_DYNAMIC_QUICK
)

// ================== RESERVATIONS ==================

const (
	KEY_RESERVATION_IDEMPOTENCY = CACHE_PREFIX + ":reservations:idempotency:" // + user-id + ":" + key
)

// ================== KEY BUILDERS ==================

func BuildStructureDetailKey(structureID string) string {
	return CACHE_KEY_STRUCTURE_DETAIL + structureID
}

func BuildAreaTemplatesKey(areaID string) string {
	return CACHE_KEY_AREA_TEMPLATES + areaID
}

func BuildEventDetailKey(eventID string) string {
	return CACHE_KEY_EVENT_DETAIL + eventID
}

func BuildEventStatisticsKey(eventID string) string {
	return CACHE_KEY_EVENT_STATISTICS + eventID
}

func BuildStructureStatisticsKey(structureID string) string {
	return CACHE_KEY_STRUCTURE_STATISTICS + structureID
}

func BuildReservationIdempotencyKey(userID, key string) string {
	return fmt.Sprintf("%s%s:%s", KEY_RESERVATION_IDEMPOTENCY, userID, key)
}
