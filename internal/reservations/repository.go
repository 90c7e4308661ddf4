package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ticketing/internal/events"
	"ticketing/internal/inventory"
	"ticketing/internal/shared/config"
	"ticketing/internal/shared/pgerrors"
	"ticketing/internal/tickets"
	"ticketing/pkg/logger"
)

// IssueFunc decides, from the zone state observed under lock, which tickets
// to write. Returning an error aborts the whole batch.
type IssueFunc func(state ZoneState) ([]tickets.Ticket, error)

type Repository interface {
	// IssueTickets runs issue and persists its tickets as one atomic step,
	// serialized against every other issuance for the same zone.
	IssueTickets(ctx context.Context, eventID, zoneID uuid.UUID, issue IssueFunc) ([]tickets.Ticket, error)

	// ReadZone is an unlocked read of a zone's state
	ReadZone(ctx context.Context, zoneID uuid.UUID) (ZoneState, error)
}

type repository struct {
	db  *gorm.DB
	cfg config.ReservationConfig
	log *logger.Logger
}

func NewRepository(db *gorm.DB, cfg config.ReservationConfig) Repository {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &repository{db: db, cfg: cfg, log: logger.GetDefault()}
}

func (r *repository) IssueTickets(ctx context.Context, eventID, zoneID uuid.UUID, issue IssueFunc) ([]tickets.Ticket, error) {
	var issued []tickets.Ticket

	for attempt := 0; ; attempt++ {
		var err error
		issued, err = r.issueOnce(ctx, eventID, zoneID, issue)
		if err == nil || !pgerrors.IsTransient(err) || attempt >= r.cfg.MaxRetries {
			return issued, err
		}

		delay := r.cfg.RetryBackoff * time.Duration(1<<attempt)
		r.log.WarnContext(ctx, "Reservation contention, retrying",
			"zone_id", zoneID.String(),
			"attempt", attempt+1,
			"sqlstate", pgerrors.Code(err),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (r *repository) issueOnce(ctx context.Context, eventID, zoneID uuid.UUID, issue IssueFunc) ([]tickets.Ticket, error) {
	var batch []tickets.Ticket

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.cfg.LockTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.cfg.LockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to set lock timeout: %w", err)
			}
		}

		state, err := lockZone(tx, eventID, zoneID)
		if err != nil {
			return err
		}

		batch, err = issue(state)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := claimReservationID(tx, batch[0].ReservationID); err != nil {
			return err
		}

		result := tx.Create(&batch)
		if result.Error != nil {
			return fmt.Errorf("failed to insert tickets: %w", result.Error)
		}
		if result.RowsAffected != int64(len(batch)) {
			return &inventory.InvariantViolationError{
				Invariant: inventory.InvariantPartialBatch,
				Detail:    fmt.Sprintf("inserted %d of %d tickets", result.RowsAffected, len(batch)),
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// lockZone takes the event row FOR SHARE, so status changes wait for
// in-flight issuance, and the zone row FOR UPDATE, which serializes
// issuance per zone.
func lockZone(tx *gorm.DB, eventID, zoneID uuid.UUID) (ZoneState, error) {
	var state ZoneState

	var event events.Event
	err := tx.Clauses(clause.Locking{Strength: "SHARE"}).First(&event, "id = ?", eventID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return state, nil
		}
		return state, fmt.Errorf("failed to lock event: %w", err)
	}
	state.Event = &event

	var zone events.EventAudienceZone
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&zone, "id = ? AND event_id = ?", zoneID, eventID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return state, nil
		}
		return state, fmt.Errorf("failed to lock audience zone: %w", err)
	}
	state.Zone = &zone

	held, err := countHeld(tx, zoneID)
	if err != nil {
		return state, err
	}
	state.Held = held
	return state, nil
}

// claimReservationID holds a transaction-scoped advisory lock on the id, so
// batches racing on the same id across zones are serialized, then checks no
// stored ticket carries it yet.
func claimReservationID(tx *gorm.DB, reservationID string) error {
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", reservationID).Error; err != nil {
		return fmt.Errorf("failed to lock reservation id: %w", err)
	}

	var taken int64
	err := tx.Model(&tickets.Ticket{}).Where("reservation_id = ?", reservationID).Limit(1).Count(&taken).Error
	if err != nil {
		return fmt.Errorf("failed to check reservation id: %w", err)
	}
	if taken > 0 {
		return tickets.ErrReservationIDTaken
	}
	return nil
}

func countHeld(tx *gorm.DB, zoneID uuid.UUID) (int, error) {
	var held int64
	err := tx.Model(&tickets.Ticket{}).
		Where("audience_zone_id = ? AND status IN ?", zoneID, []tickets.Status{tickets.StatusValid, tickets.StatusUsed}).
		Count(&held).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count zone tickets: %w", err)
	}
	return int(held), nil
}

func (r *repository) ReadZone(ctx context.Context, zoneID uuid.UUID) (ZoneState, error) {
	var state ZoneState
	db := r.db.WithContext(ctx)

	var zone events.EventAudienceZone
	if err := db.First(&zone, "id = ?", zoneID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return state, events.ErrZoneNotFound
		}
		return state, fmt.Errorf("failed to load audience zone: %w", err)
	}

	var event events.Event
	if err := db.First(&event, "id = ?", zone.EventID).Error; err != nil {
		return state, fmt.Errorf("failed to load zone event: %w", err)
	}

	held, err := countHeld(db, zoneID)
	if err != nil {
		return state, err
	}
	return ZoneState{Event: &event, Zone: &zone, Held: held}, nil
}
