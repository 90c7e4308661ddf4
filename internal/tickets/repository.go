package tickets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository is the read side of the ticket store plus the single status
// write path. Tickets are created only by the reservation engine.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Ticket, error)
	ListByReservation(ctx context.Context, reservationID string) ([]Ticket, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]Ticket, int64, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID, filters TicketFilters) ([]Ticket, int64, error)
	ListAllByEvents(ctx context.Context, eventIDs []uuid.UUID) ([]Ticket, error)

	// CountHeld counts the VALID and USED tickets of a zone
	CountHeld(ctx context.Context, zoneID uuid.UUID) (int, error)

	// Transition moves a VALID, unexpired ticket to status and stamps at.
	// It reports false when the ticket was not in that state.
	Transition(ctx context.Context, id uuid.UUID, to Status, at time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	var ticket Ticket
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return &ticket, nil
}

func (r *repository) ListByReservation(ctx context.Context, reservationID string) ([]Ticket, error) {
	var tickets []Ticket
	err := r.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("issued_at ASC, id ASC").
		Find(&tickets).Error
	if err != nil {
		return nil, fmt.Errorf("list reservation tickets: %w", err)
	}
	return tickets, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]Ticket, int64, error) {
	var (
		tickets []Ticket
		total   int64
	)

	query := r.db.WithContext(ctx).Model(&Ticket{}).Where("booked_by_user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count user tickets: %w", err)
	}

	err := query.
		Order("issued_at DESC, id ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&tickets).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list user tickets: %w", err)
	}
	return tickets, total, nil
}

func (r *repository) ListByEvent(ctx context.Context, eventID uuid.UUID, filters TicketFilters) ([]Ticket, int64, error) {
	var (
		tickets []Ticket
		total   int64
	)

	query := r.db.WithContext(ctx).Model(&Ticket{}).Where("event_id = ?", eventID)

	switch Status(filters.Status) {
	case "":
	case StatusValid:
		query = query.Where("status = ? AND event_end_date >= ?", StatusValid, filters.now)
	case StatusExpired:
		query = query.Where("status = ? AND event_end_date < ?", StatusValid, filters.now)
	default:
		query = query.Where("status = ?", filters.Status)
	}

	if filters.Search != "" {
		like := "%" + filters.Search + "%"
		query = query.Where(
			"participant_first_name ILIKE ? OR participant_last_name ILIKE ? OR participant_email ILIKE ? OR reservation_id ILIKE ? OR id::text ILIKE ?",
			like, like, like, like, like,
		)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count event tickets: %w", err)
	}

	err := query.
		Order("issued_at DESC, id ASC").
		Offset((filters.Page - 1) * filters.Limit).
		Limit(filters.Limit).
		Find(&tickets).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list event tickets: %w", err)
	}
	return tickets, total, nil
}

func (r *repository) ListAllByEvents(ctx context.Context, eventIDs []uuid.UUID) ([]Ticket, error) {
	var tickets []Ticket
	if len(eventIDs) == 0 {
		return tickets, nil
	}
	err := r.db.WithContext(ctx).
		Where("event_id IN ?", eventIDs).
		Order("issued_at ASC").
		Find(&tickets).Error
	if err != nil {
		return nil, fmt.Errorf("list tickets by events: %w", err)
	}
	return tickets, nil
}

func (r *repository) CountHeld(ctx context.Context, zoneID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Ticket{}).
		Where("audience_zone_id = ? AND status IN ?", zoneID, []Status{StatusValid, StatusUsed}).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count zone tickets: %w", err)
	}
	return int(count), nil
}

func (r *repository) Transition(ctx context.Context, id uuid.UUID, to Status, at time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": at,
	}
	switch to {
	case StatusUsed:
		updates["used_at"] = at
	case StatusCancelled:
		updates["cancelled_at"] = at
	default:
		return false, &TicketTransitionError{From: StatusValid, To: to}
	}

	// single conditional update; concurrent callers race on the row and only one matches
	res := r.db.WithContext(ctx).Model(&Ticket{}).
		Where("id = ? AND status = ? AND event_end_date >= ?", id, StatusValid, at).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("transition ticket: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
