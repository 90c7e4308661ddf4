package tickets

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"ticketing/internal/shared/apperrors"
)

var (
	ErrTicketNotFound    = apperrors.NotFound("TICKET_NOT_FOUND", "ticket not found")
	ErrTicketNotForEvent = apperrors.Invalid("TICKET_NOT_FOR_EVENT", "ticket does not belong to this event")
	ErrNotTicketManager  = apperrors.Forbidden("NOT_TICKET_MANAGER", "you cannot manage tickets of this event")
	ErrInvalidStatus     = apperrors.Invalid("INVALID_TICKET_STATUS", "invalid ticket status filter")
	ErrDuplicateTicket   = apperrors.Conflict("DUPLICATE_TICKET", "ticket id already issued")

	// ErrReservationIDTaken means another batch already carries the reservation id
	ErrReservationIDTaken = apperrors.Conflict("RESERVATION_ID_TAKEN", "reservation id already in use")
)

// AlreadyUsedError is returned when a USED ticket is scanned again
type AlreadyUsedError struct {
	TicketID uuid.UUID  `json:"ticketId"`
	UsedAt   *time.Time `json:"usedAt,omitempty"`
}

func (e *AlreadyUsedError) Error() string {
	if e.UsedAt != nil {
		return fmt.Sprintf("ticket %s was already used at %s", e.TicketID, e.UsedAt.Format(time.RFC3339))
	}
	return fmt.Sprintf("ticket %s was already used", e.TicketID)
}

func (e *AlreadyUsedError) Kind() apperrors.Kind { return apperrors.KindConflict }
func (e *AlreadyUsedError) Code() string         { return "TICKET_ALREADY_USED" }

// TicketNotUsableError is returned when a CANCELLED or EXPIRED ticket is scanned
type TicketNotUsableError struct {
	TicketID      uuid.UUID `json:"ticketId"`
	CurrentStatus Status    `json:"currentStatus"`
}

func (e *TicketNotUsableError) Error() string {
	return fmt.Sprintf("ticket %s is %s and cannot be used", e.TicketID, e.CurrentStatus)
}

func (e *TicketNotUsableError) Kind() apperrors.Kind { return apperrors.KindInvalid }
func (e *TicketNotUsableError) Code() string         { return "TICKET_NOT_USABLE" }

type TicketTransitionError struct {
	From Status `json:"from"`
	To   Status `json:"to"`
}

func (e *TicketTransitionError) Error() string {
	return fmt.Sprintf("ticket cannot move from %s to %s", e.From, e.To)
}

func (e *TicketTransitionError) Kind() apperrors.Kind { return apperrors.KindPrecondition }
func (e *TicketTransitionError) Code() string         { return "INVALID_TICKET_TRANSITION" }
