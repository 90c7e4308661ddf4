package tickets

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// MemoryRepository keeps tickets in process. InsertBatch is how the in-memory
// reservation engine writes; it is not part of Repository.
type MemoryRepository struct {
	mu      sync.RWMutex
	tickets map[uuid.UUID]Ticket
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tickets: make(map[uuid.UUID]Ticket)}
}

// InsertBatch stores all tickets or none of them. A batch may not reuse the
// reservation id of tickets already stored.
func (r *MemoryRepository) InsertBatch(ctx context.Context, batch []Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range batch {
		if _, exists := r.tickets[t.ID]; exists {
			return ErrDuplicateTicket
		}
	}
	reservationIDs := lo.Associate(batch, func(t Ticket) (string, struct{}) { return t.ReservationID, struct{}{} })
	for _, t := range r.tickets {
		if _, taken := reservationIDs[t.ReservationID]; taken {
			return ErrReservationIDTaken
		}
	}
	for _, t := range batch {
		r.tickets[t.ID] = t
	}
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tickets[id]
	if !ok {
		return nil, ErrTicketNotFound
	}
	return &t, nil
}

func (r *MemoryRepository) ListByReservation(ctx context.Context, reservationID string) ([]Ticket, error) {
	matched := r.filter(func(t Ticket) bool { return t.ReservationID == reservationID })
	sort.Slice(matched, func(i, j int) bool { return lessIssued(matched[i], matched[j]) })
	return matched, nil
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]Ticket, int64, error) {
	matched := r.filter(func(t Ticket) bool {
		return t.BookedByUserID != nil && *t.BookedByUserID == userID
	})
	sort.Slice(matched, func(i, j int) bool { return lessIssued(matched[j], matched[i]) })
	return pageOf(matched, page, limit), int64(len(matched)), nil
}

func (r *MemoryRepository) ListByEvent(ctx context.Context, eventID uuid.UUID, filters TicketFilters) ([]Ticket, int64, error) {
	search := strings.ToLower(filters.Search)
	matched := r.filter(func(t Ticket) bool {
		if t.EventID != eventID {
			return false
		}
		if filters.Status != "" && t.EffectiveStatus(filters.now) != Status(filters.Status) {
			return false
		}
		if search == "" {
			return true
		}
		return lo.SomeBy([]string{
			t.Participant.FirstName, t.Participant.LastName, t.Participant.Email, t.ReservationID, t.ID.String(),
		}, func(s string) bool { return strings.Contains(strings.ToLower(s), search) })
	})
	sort.Slice(matched, func(i, j int) bool { return lessIssued(matched[j], matched[i]) })
	return pageOf(matched, filters.Page, filters.Limit), int64(len(matched)), nil
}

func (r *MemoryRepository) ListAllByEvents(ctx context.Context, eventIDs []uuid.UUID) ([]Ticket, error) {
	matched := r.filter(func(t Ticket) bool { return lo.Contains(eventIDs, t.EventID) })
	sort.Slice(matched, func(i, j int) bool { return lessIssued(matched[i], matched[j]) })
	return matched, nil
}

func (r *MemoryRepository) CountHeld(ctx context.Context, zoneID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.CountBy(lo.Values(r.tickets), func(t Ticket) bool {
		return t.AudienceZoneID == zoneID && t.Status.HoldsCapacity()
	}), nil
}

func (r *MemoryRepository) Transition(ctx context.Context, id uuid.UUID, to Status, at time.Time) (bool, error) {
	if to != StatusUsed && to != StatusCancelled {
		return false, &TicketTransitionError{From: StatusValid, To: to}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok || t.EffectiveStatus(at) != StatusValid {
		return false, nil
	}
	t.Status = to
	t.UpdatedAt = at
	if to == StatusUsed {
		t.UsedAt = &at
	} else {
		t.CancelledAt = &at
	}
	r.tickets[id] = t
	return true, nil
}

func (r *MemoryRepository) filter(keep func(Ticket) bool) []Ticket {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Ticket, 0)
	for _, t := range r.tickets {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func lessIssued(a, b Ticket) bool {
	if a.IssuedAt.Equal(b.IssuedAt) {
		return a.ID.String() < b.ID.String()
	}
	return a.IssuedAt.Before(b.IssuedAt)
}

func pageOf(items []Ticket, page, limit int) []Ticket {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []Ticket{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
