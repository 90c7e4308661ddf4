package reservations

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"ticketing/internal/events"
	"ticketing/internal/tickets"
)

// MemoryRepository issues tickets against the in-memory event and ticket
// stores. Lock order: event read lock, then zone mutex, then ticket store.
type MemoryRepository struct {
	events  *events.MemoryRepository
	tickets *tickets.MemoryRepository

	mu    sync.Mutex
	zones map[uuid.UUID]*sync.Mutex
}

func NewMemoryRepository(eventRepo *events.MemoryRepository, ticketRepo *tickets.MemoryRepository) *MemoryRepository {
	return &MemoryRepository{
		events:  eventRepo,
		tickets: ticketRepo,
		zones:   make(map[uuid.UUID]*sync.Mutex),
	}
}

func (r *MemoryRepository) zoneLock(zoneID uuid.UUID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.zones[zoneID]
	if !ok {
		lock = &sync.Mutex{}
		r.zones[zoneID] = lock
	}
	return lock
}

func (r *MemoryRepository) IssueTickets(ctx context.Context, eventID, zoneID uuid.UUID, issue IssueFunc) ([]tickets.Ticket, error) {
	var issued []tickets.Ticket

	err := r.events.WithEvent(ctx, eventID, func(event *events.Event) error {
		if event == nil {
			_, err := issue(ZoneState{})
			return err
		}
		zone, ok := event.Zone(zoneID)
		if !ok {
			_, err := issue(ZoneState{Event: event})
			return err
		}

		lock := r.zoneLock(zoneID)
		lock.Lock()
		defer lock.Unlock()

		held, err := r.tickets.CountHeld(ctx, zoneID)
		if err != nil {
			return err
		}
		batch, err := issue(ZoneState{Event: event, Zone: zone, Held: held})
		if err != nil {
			return err
		}
		if err := r.tickets.InsertBatch(ctx, batch); err != nil {
			return err
		}
		issued = batch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return issued, nil
}

func (r *MemoryRepository) ReadZone(ctx context.Context, zoneID uuid.UUID) (ZoneState, error) {
	event, zone, err := r.events.FindZone(ctx, zoneID)
	if err != nil {
		return ZoneState{}, err
	}
	held, err := r.tickets.CountHeld(ctx, zoneID)
	if err != nil {
		return ZoneState{}, err
	}
	return ZoneState{Event: event, Zone: zone, Held: held}, nil
}
