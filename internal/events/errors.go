package events

import (
	"fmt"

	"github.com/google/uuid"

	"ticketing/internal/shared/apperrors"
)

var (
	ErrEventNotFound      = apperrors.NotFound("EVENT_NOT_FOUND", "event not found")
	ErrZoneNotFound       = apperrors.NotFound("ZONE_NOT_FOUND", "audience zone not found for this event")
	ErrNotEventManager    = apperrors.Forbidden("NOT_EVENT_MANAGER", "you do not manage this event's structure")
	ErrInvalidDateRange   = apperrors.Invalid("INVALID_DATE_RANGE", "startDate must be before endDate")
	ErrInvalidStatus      = apperrors.Invalid("INVALID_STATUS", "unknown event status")
	ErrEventNotDeletable  = apperrors.Precondition("EVENT_NOT_DELETABLE", "only draft events can be deleted")
	ErrPublishWithoutZone = apperrors.Precondition("EVENT_HAS_NO_ZONES", "an event needs at least one audience zone to be published")
	ErrPublishEnded       = apperrors.Precondition("EVENT_ALREADY_ENDED", "an event whose end date has passed cannot be published")
	ErrInvalidDateFilter  = apperrors.Invalid("INVALID_DATE_FILTER", "date filters must be RFC3339 timestamps or YYYY-MM-DD dates")
)

type InvalidStatusTransitionError struct {
	From Status `json:"from"`
	To   Status `json:"to"`
}

func (e *InvalidStatusTransitionError) Error() string {
	return fmt.Sprintf("cannot move event from %s to %s", e.From, e.To)
}
func (e *InvalidStatusTransitionError) Kind() apperrors.Kind { return apperrors.KindPrecondition }
func (e *InvalidStatusTransitionError) Code() string         { return "INVALID_STATUS_TRANSITION" }

// ZoneConfigError rejects an audience zone whose template cannot back it
type ZoneConfigError struct {
	TemplateID  uuid.UUID `json:"templateId"`
	Reason      string    `json:"reason"`
	Allocated   int       `json:"allocated,omitempty"`
	TemplateMax int       `json:"templateMax,omitempty"`
}

func (e *ZoneConfigError) Error() string {
	return fmt.Sprintf("invalid audience zone for template %s: %s", e.TemplateID, e.Reason)
}
func (e *ZoneConfigError) Kind() apperrors.Kind { return apperrors.KindInvalid }
func (e *ZoneConfigError) Code() string         { return "INVALID_AUDIENCE_ZONE" }
