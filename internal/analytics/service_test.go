package analytics

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing/internal/events"
	"ticketing/internal/inventory"
	"ticketing/internal/shared/apperrors"
	"ticketing/internal/tickets"
	"ticketing/internal/users"
)

type fakeEvents struct {
	byID map[uuid.UUID]*events.Event
}

func (f *fakeEvents) GetByID(_ context.Context, id uuid.UUID) (*events.Event, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, events.ErrEventNotFound
	}
	return e, nil
}

func (f *fakeEvents) ListByStructure(_ context.Context, structureID uuid.UUID) ([]events.Event, error) {
	var out []events.Event
	for _, e := range f.byID {
		if e.StructureID == structureID {
			out = append(out, *e)
		}
	}
	return out, nil
}

type fakeTickets struct {
	byEvent map[uuid.UUID][]tickets.Ticket
	calls   atomic.Int32
}

func (f *fakeTickets) ListAllByEvents(_ context.Context, ids []uuid.UUID) ([]tickets.Ticket, error) {
	f.calls.Add(1)
	var out []tickets.Ticket
	for _, id := range ids {
		out = append(out, f.byEvent[id]...)
	}
	return out, nil
}

type fakeStructures map[uuid.UUID]bool

func (f fakeStructures) GetStructureByID(_ context.Context, id uuid.UUID) (*inventory.Structure, error) {
	if !f[id] {
		return nil, inventory.ErrStructureNotFound
	}
	return &inventory.Structure{ID: id}, nil
}

type serviceFixture struct {
	svc       *service
	tickets   *fakeTickets
	structure uuid.UUID
	event     *events.Event
	organizer users.Actor
}

func newServiceFixture(t *testing.T, extraEvents int) *serviceFixture {
	t.Helper()

	structure := uuid.New()
	evs := &fakeEvents{byID: map[uuid.UUID]*events.Event{}}
	tix := &fakeTickets{byEvent: map[uuid.UUID][]tickets.Ticket{}}

	event := twoZoneEvent(day.Add(24 * time.Hour))
	event.StructureID = structure
	evs.byID[event.ID] = event
	tix.byEvent[event.ID] = []tickets.Ticket{
		ticketFor(event, 0, "RES-A", tickets.StatusValid, day),
		ticketFor(event, 1, "RES-B", tickets.StatusUsed, day),
	}
	for i := 0; i < extraEvents; i++ {
		extra := twoZoneEvent(day.Add(time.Duration(i+2) * 24 * time.Hour))
		extra.StructureID = structure
		evs.byID[extra.ID] = extra
		tix.byEvent[extra.ID] = []tickets.Ticket{ticketFor(extra, 0, "RES-X", tickets.StatusValid, day)}
	}

	svc := NewService(evs, tix, fakeStructures{structure: true}, nil).(*service)
	svc.now = func() time.Time { return day }

	return &serviceFixture{
		svc:       svc,
		tickets:   tix,
		structure: structure,
		event:     event,
		organizer: users.Actor{UserID: uuid.New(), Role: users.RoleOrganizer, StructureID: &structure},
	}
}

func TestGetEventStatistics(t *testing.T) {
	f := newServiceFixture(t, 0)

	stats, err := f.svc.GetEventStatistics(context.Background(), f.organizer, f.event.ID)
	require.NoError(t, err)

	assert.Equal(t, f.event.ID, stats.EventID)
	assert.Equal(t, 2, stats.AttributedTicketsAmount)
	assert.Equal(t, 1, stats.ScannedTicketsNumber)
	assert.Equal(t, 2, stats.UniqueReservationAmount)
}

func TestEventStatisticsAuthorization(t *testing.T) {
	f := newServiceFixture(t, 0)
	other := uuid.New()

	cases := []struct {
		name  string
		actor users.Actor
		check func(error) bool
	}{
		{"scanner", users.Actor{UserID: uuid.New(), Role: users.RoleScanner, StructureID: &f.structure}, apperrors.IsForbidden},
		{"organizer of another structure", users.Actor{UserID: uuid.New(), Role: users.RoleOrganizer, StructureID: &other}, apperrors.IsForbidden},
		{"plain user", users.Actor{UserID: uuid.New(), Role: users.RoleUser}, apperrors.IsForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.GetEventStatistics(context.Background(), tc.actor, f.event.ID)
			require.Error(t, err)
			assert.True(t, tc.check(err), "got %v", err)
		})
	}

	admin := users.Actor{UserID: uuid.New(), Role: users.RoleAdmin}
	_, err := f.svc.GetEventStatistics(context.Background(), admin, f.event.ID)
	assert.NoError(t, err)
}

func TestEventStatisticsUnknownEvent(t *testing.T) {
	f := newServiceFixture(t, 0)

	_, err := f.svc.GetEventStatistics(context.Background(), f.organizer, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetStructureStatistics(t *testing.T) {
	f := newServiceFixture(t, 9)

	stats, err := f.svc.GetStructureStatistics(context.Background(), f.organizer, f.structure)
	require.NoError(t, err)

	assert.Len(t, stats.Events, 10)
	assert.Equal(t, 11, stats.TotalTicketsReserved)
	assert.Equal(t, 10, stats.UpcomingEventsCount)
	assert.EqualValues(t, 10, f.tickets.calls.Load())
}

func TestStructureStatisticsErrors(t *testing.T) {
	f := newServiceFixture(t, 0)

	_, err := f.svc.GetStructureStatistics(context.Background(), f.organizer, uuid.New())
	assert.True(t, apperrors.IsForbidden(err))

	admin := users.Actor{UserID: uuid.New(), Role: users.RoleAdmin}
	_, err = f.svc.GetStructureStatistics(context.Background(), admin, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}
