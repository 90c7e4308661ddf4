package reservations

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing/internal/events"
	"ticketing/internal/inventory"
	"ticketing/internal/shared/apperrors"
	"ticketing/internal/shared/config"
	"ticketing/internal/tickets"
	"ticketing/internal/users"
)

type fixture struct {
	svc       *service
	events    *events.MemoryRepository
	tickets   *tickets.MemoryRepository
	structure uuid.UUID
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	eventRepo := events.NewMemoryRepository()
	ticketRepo := tickets.NewMemoryRepository()
	cfg := &config.Config{
		Reservation: config.ReservationConfig{IdempotencyTTL: time.Hour},
		Ticketing:   config.TicketingConfig{ValidateURL: "https://tickets.test/validate"},
	}

	svc := NewService(Dependencies{
		Repo:    NewMemoryRepository(eventRepo, ticketRepo),
		Tickets: ticketRepo,
	}, cfg).(*service)
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	return &fixture{svc: svc, events: eventRepo, tickets: ticketRepo, structure: uuid.New(), now: now}
}

// addEvent stores an event with a single zone and returns both ids
func (f *fixture) addEvent(t *testing.T, status events.Status, capacity int, active bool, endsIn time.Duration) (uuid.UUID, uuid.UUID) {
	t.Helper()
	event := &events.Event{
		StructureID: f.structure,
		Name:        "Open Air",
		StartDate:   f.now.Add(endsIn - 4*time.Hour),
		EndDate:     f.now.Add(endsIn),
		Address:     inventory.Address{Street: "Quai", City: "Nantes", Country: "France"},
		Status:      status,
		AudienceZones: []events.EventAudienceZone{{
			TemplateID:        uuid.New(),
			AreaID:            uuid.New(),
			Name:              "Pit",
			AllocatedCapacity: capacity,
			SeatingType:       inventory.SeatingStanding,
			IsActive:          active,
		}},
	}
	require.NoError(t, f.events.Create(context.Background(), event))
	return event.ID, event.AudienceZones[0].ID
}

func participants(n int) []Participant {
	out := make([]Participant, n)
	for i := range out {
		out[i] = Participant{FirstName: fmt.Sprintf("Guest%d", i), LastName: "Doe", Email: fmt.Sprintf("guest%d@example.com", i)}
	}
	return out
}

func (f *fixture) held(t *testing.T, zoneID uuid.UUID) int {
	t.Helper()
	n, err := f.tickets.CountHeld(context.Background(), zoneID)
	require.NoError(t, err)
	return n
}

func TestCreateReservationIssuesTickets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	eventID, zoneID := f.addEvent(t, events.StatusPublished, 10, true, 48*time.Hour)
	booker := uuid.New()

	res, err := f.svc.CreateReservation(ctx, CreateReservationCommand{
		EventID: eventID, AudienceZoneID: zoneID, Participants: participants(3), BookedBy: &booker,
	})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^RES-[0-9A-F]{8}$`), res.ReservationID)
	assert.True(t, res.ReservationDate.Equal(f.now))
	require.Len(t, res.Tickets, 3)

	seen := map[uuid.UUID]bool{}
	for _, ticket := range res.Tickets {
		assert.False(t, seen[ticket.ID])
		seen[ticket.ID] = true
		assert.Equal(t, tickets.StatusValid, ticket.Status)
		assert.Equal(t, res.ReservationID, ticket.ReservationID)
		assert.Equal(t, "https://tickets.test/validate/"+ticket.ID.String(), ticket.QRCodeValue)
		assert.Equal(t, "Open Air", ticket.EventSnapshot.Name)
		assert.Equal(t, f.structure, ticket.EventSnapshot.StructureID)
		assert.Equal(t, "Pit", ticket.AudienceZoneSnapshot.Name)
		assert.Equal(t, booker, *ticket.BookedByUserID)
	}
	assert.Equal(t, 3, f.held(t, zoneID))

	remaining, err := f.svc.RemainingCapacity(ctx, zoneID)
	require.NoError(t, err)
	assert.Equal(t, 7, remaining)
}

func TestTwoConcurrentPairsForTwoSeats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	eventID, zoneID := f.addEvent(t, events.StatusPublished, 2, true, 48*time.Hour)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.svc.CreateReservation(ctx, CreateReservationCommand{
				EventID: eventID, AudienceZoneID: zoneID, Participants: participants(2),
			})
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var cee *CapacityExceededError
		require.ErrorAs(t, err, &cee)
		assert.Equal(t, 2, cee.Requested)
		assert.Equal(t, 0, cee.Remaining)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 2, f.held(t, zoneID))
}

func TestConcurrentReservationsNeverOversell(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	const capacity = 25
	eventID, zoneID := f.addEvent(t, events.StatusPublished, capacity, true, 48*time.Hour)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		issued int
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			res, err := f.svc.CreateReservation(ctx, CreateReservationCommand{
				EventID: eventID, AudienceZoneID: zoneID, Participants: participants(n),
			})
			if err != nil {
				var cee *CapacityExceededError
				assert.ErrorAs(t, err, &cee)
				return
			}
			mu.Lock()
			issued += len(res.Tickets)
			mu.Unlock()
		}(i%MaxParticipants + 1)
	}
	wg.Wait()

	assert.LessOrEqual(t, issued, capacity)
	assert.Equal(t, issued, f.held(t, zoneID))
}

func TestPreconditionsIssueNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	published, zone := f.addEvent(t, events.StatusPublished, 5, true, 48*time.Hour)
	draft, draftZone := f.addEvent(t, events.StatusDraft, 5, true, 48*time.Hour)
	inactive, inactiveZone := f.addEvent(t, events.StatusPublished, 5, false, 48*time.Hour)
	ended, endedZone := f.addEvent(t, events.StatusPublished, 5, true, -time.Hour)

	cases := []struct {
		name   string
		cmd    CreateReservationCommand
		assert func(t *testing.T, err error)
	}{
		{
			name: "no participants",
			cmd:  CreateReservationCommand{EventID: published, AudienceZoneID: zone},
			assert: func(t *testing.T, err error) {
				var e *InvalidParticipantCountError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, 0, e.Count)
			},
		},
		{
			name: "five participants",
			cmd:  CreateReservationCommand{EventID: published, AudienceZoneID: zone, Participants: participants(5)},
			assert: func(t *testing.T, err error) {
				var e *InvalidParticipantCountError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, 5, e.Count)
			},
		},
		{
			name: "malformed email",
			cmd: CreateReservationCommand{EventID: published, AudienceZoneID: zone, Participants: []Participant{
				{FirstName: "Ada", Email: "ada@example.com"}, {FirstName: "Bob", Email: "not-an-email"},
			}},
			assert: func(t *testing.T, err error) {
				var e *ValidationError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, 1, e.Index)
				assert.Equal(t, "email", e.Field)
			},
		},
		{
			name: "blank name",
			cmd: CreateReservationCommand{EventID: published, AudienceZoneID: zone, Participants: []Participant{
				{FirstName: "  ", Email: "ada@example.com"},
			}},
			assert: func(t *testing.T, err error) {
				var e *ValidationError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, "firstName", e.Field)
			},
		},
		{
			name: "primary without email",
			cmd: CreateReservationCommand{EventID: published, AudienceZoneID: zone, Participants: []Participant{
				{FirstName: "Ada"}, {FirstName: "Bob", Email: "bob@example.com"},
			}},
			assert: func(t *testing.T, err error) {
				var e *ValidationError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, 0, e.Index)
			},
		},
		{
			name: "unknown event",
			cmd:  CreateReservationCommand{EventID: uuid.New(), AudienceZoneID: zone, Participants: participants(1)},
			assert: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, events.ErrEventNotFound)
			},
		},
		{
			name: "draft event",
			cmd:  CreateReservationCommand{EventID: draft, AudienceZoneID: draftZone, Participants: participants(1)},
			assert: func(t *testing.T, err error) {
				var e *EventNotPublishedError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, events.StatusDraft, e.Status)
				assert.True(t, apperrors.IsPrecondition(err))
			},
		},
		{
			name: "zone of another event",
			cmd:  CreateReservationCommand{EventID: published, AudienceZoneID: draftZone, Participants: participants(1)},
			assert: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, events.ErrZoneNotFound)
			},
		},
		{
			name: "inactive zone",
			cmd:  CreateReservationCommand{EventID: inactive, AudienceZoneID: inactiveZone, Participants: participants(1)},
			assert: func(t *testing.T, err error) {
				var e *ZoneInactiveError
				require.ErrorAs(t, err, &e)
			},
		},
		{
			name: "ended event",
			cmd:  CreateReservationCommand{EventID: ended, AudienceZoneID: endedZone, Participants: participants(1)},
			assert: func(t *testing.T, err error) {
				var e *EventEndedError
				require.ErrorAs(t, err, &e)
			},
		},
		{
			name: "over capacity",
			cmd:  CreateReservationCommand{EventID: published, AudienceZoneID: zone, Participants: participants(4)},
			assert: func(t *testing.T, err error) {
				var e *CapacityExceededError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, CapacityExceededError{Requested: 4, Remaining: 3}, *e)
				assert.True(t, apperrors.IsConflict(err))
			},
		},
	}

	// leave 3 places in the published zone for the capacity case
	_, err := f.svc.CreateReservation(ctx, CreateReservationCommand{EventID: published, AudienceZoneID: zone, Participants: participants(2)})
	require.NoError(t, err)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := f.svc.CreateReservation(ctx, tc.cmd)
			require.Error(t, err)
			assert.Nil(t, res)
			tc.assert(t, err)
		})
	}

	assert.Equal(t, 2, f.held(t, zone))
	for _, z := range []uuid.UUID{draftZone, inactiveZone, endedZone} {
		assert.Zero(t, f.held(t, z))
	}
}

func TestIdempotentRetryReturnsOriginal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	eventID, zoneID := f.addEvent(t, events.StatusPublished, 10, true, 48*time.Hour)
	booker := uuid.New()

	cmd := CreateReservationCommand{
		EventID: eventID, AudienceZoneID: zoneID, Participants: participants(2),
		BookedBy: &booker, IdempotencyKey: "checkout-42",
	}
	first, err := f.svc.CreateReservation(ctx, cmd)
	require.NoError(t, err)
	second, err := f.svc.CreateReservation(ctx, cmd)
	require.NoError(t, err)

	assert.Equal(t, first.ReservationID, second.ReservationID)
	assert.Len(t, second.Tickets, 2)
	assert.Equal(t, 2, f.held(t, zoneID))

	// a failed attempt releases its key
	failing := cmd
	failing.IdempotencyKey = "checkout-43"
	failing.AudienceZoneID = uuid.New()
	_, err = f.svc.CreateReservation(ctx, failing)
	require.ErrorIs(t, err, events.ErrZoneNotFound)
	failing.AudienceZoneID = zoneID
	retried, err := f.svc.CreateReservation(ctx, failing)
	require.NoError(t, err)
	assert.NotEqual(t, first.ReservationID, retried.ReservationID)
	assert.Equal(t, 4, f.held(t, zoneID))
}

func TestSnapshotsSurviveEventEdits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	eventID, zoneID := f.addEvent(t, events.StatusPublished, 10, true, 48*time.Hour)

	res, err := f.svc.CreateReservation(ctx, CreateReservationCommand{EventID: eventID, AudienceZoneID: zoneID, Participants: participants(1)})
	require.NoError(t, err)

	_, err = f.events.Update(ctx, eventID, func(e *events.Event) (bool, error) {
		e.Name = "Renamed"
		e.Tags = []string{"late-change"}
		return false, nil
	})
	require.NoError(t, err)

	stored, err := f.tickets.GetByID(ctx, res.Tickets[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Open Air", stored.EventSnapshot.Name)
	assert.Equal(t, res.Tickets[0].EventSnapshot, stored.EventSnapshot)
}

func TestGetReservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	eventID, zoneID := f.addEvent(t, events.StatusPublished, 10, true, 48*time.Hour)
	booker := users.Actor{UserID: uuid.New(), Role: users.RoleUser}

	res, err := f.svc.CreateReservation(ctx, CreateReservationCommand{
		EventID: eventID, AudienceZoneID: zoneID, Participants: participants(2), BookedBy: &booker.UserID,
	})
	require.NoError(t, err)

	got, err := f.svc.GetReservation(ctx, booker, res.ReservationID)
	require.NoError(t, err)
	assert.Len(t, got.Tickets, 2)

	scanner := users.Actor{UserID: uuid.New(), Role: users.RoleScanner, StructureID: &f.structure}
	_, err = f.svc.GetReservation(ctx, scanner, res.ReservationID)
	require.NoError(t, err)

	stranger := users.Actor{UserID: uuid.New(), Role: users.RoleUser}
	_, err = f.svc.GetReservation(ctx, stranger, res.ReservationID)
	assert.ErrorIs(t, err, ErrReservationNotFound)

	_, err = f.svc.GetReservation(ctx, booker, "RES-00000000")
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestReservationIDCollisionDrawsAgain(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	eventID, zoneID := f.addEvent(t, events.StatusPublished, 10, true, 48*time.Hour)

	ids := []string{"RES-AAAAAAAA", "RES-AAAAAAAA", "RES-BBBBBBBB"}
	f.svc.newReservationID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	alice := users.Actor{UserID: uuid.New(), Role: users.RoleUser}
	bob := users.Actor{UserID: uuid.New(), Role: users.RoleUser}

	first, err := f.svc.CreateReservation(ctx, CreateReservationCommand{
		EventID: eventID, AudienceZoneID: zoneID, Participants: participants(1), BookedBy: &alice.UserID,
	})
	require.NoError(t, err)
	assert.Equal(t, "RES-AAAAAAAA", first.ReservationID)

	second, err := f.svc.CreateReservation(ctx, CreateReservationCommand{
		EventID: eventID, AudienceZoneID: zoneID, Participants: participants(2), BookedBy: &bob.UserID,
	})
	require.NoError(t, err)
	assert.Equal(t, "RES-BBBBBBBB", second.ReservationID)

	got, err := f.svc.GetReservation(ctx, alice, first.ReservationID)
	require.NoError(t, err)
	require.Len(t, got.Tickets, 1)
	assert.Equal(t, alice.UserID, *got.Tickets[0].BookedByUserID)

	_, err = f.svc.GetReservation(ctx, bob, first.ReservationID)
	assert.ErrorIs(t, err, ErrReservationNotFound)

	held, err := f.tickets.CountHeld(ctx, zoneID)
	require.NoError(t, err)
	assert.Equal(t, 3, held)
}

func TestReservationIDCollisionGivesUp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	eventID, zoneID := f.addEvent(t, events.StatusPublished, 10, true, 48*time.Hour)
	f.svc.newReservationID = func() string { return "RES-CCCCCCCC" }

	_, err := f.svc.CreateReservation(ctx, CreateReservationCommand{EventID: eventID, AudienceZoneID: zoneID, Participants: participants(1)})
	require.NoError(t, err)

	_, err = f.svc.CreateReservation(ctx, CreateReservationCommand{EventID: eventID, AudienceZoneID: zoneID, Participants: participants(2)})
	assert.ErrorIs(t, err, tickets.ErrReservationIDTaken)

	held, err := f.tickets.CountHeld(ctx, zoneID)
	require.NoError(t, err)
	assert.Equal(t, 1, held)
}

func TestAvailability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	eventID, zoneID := f.addEvent(t, events.StatusPublished, 3, true, 48*time.Hour)

	_, err := f.svc.CreateReservation(ctx, CreateReservationCommand{EventID: eventID, AudienceZoneID: zoneID, Participants: participants(2)})
	require.NoError(t, err)

	availability, err := f.svc.GetAvailability(ctx, eventID, zoneID)
	require.NoError(t, err)
	assert.Equal(t, 3, availability.AllocatedCapacity)
	assert.Equal(t, 2, availability.Held)
	assert.Equal(t, 1, availability.Remaining)
	assert.True(t, availability.OnSale)

	ok, err := f.svc.CanAccommodate(ctx, zoneID, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.svc.CanAccommodate(ctx, zoneID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.svc.GetAvailability(ctx, uuid.New(), zoneID)
	assert.ErrorIs(t, err, events.ErrZoneNotFound)

	_, ended := f.addEvent(t, events.StatusPublished, 3, true, -time.Hour)
	ok, err = f.svc.CanAccommodate(ctx, ended, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanAccommodateRequiresPublishedEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, status := range []events.Status{events.StatusDraft, events.StatusPendingApproval, events.StatusCancelled, events.StatusCompleted} {
		t.Run(string(status), func(t *testing.T) {
			_, zoneID := f.addEvent(t, status, 10, true, 48*time.Hour)
			ok, err := f.svc.CanAccommodate(ctx, zoneID, 1)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}

	_, zoneID := f.addEvent(t, events.StatusPublished, 10, true, 48*time.Hour)
	for _, n := range []int{0, -5} {
		ok, err := f.svc.CanAccommodate(ctx, zoneID, n)
		require.NoError(t, err)
		assert.False(t, ok, "n=%d", n)
	}
}

func TestCancelledEventAvailability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	eventID, zoneID := f.addEvent(t, events.StatusCancelled, 10, true, 48*time.Hour)

	availability, err := f.svc.GetAvailability(ctx, eventID, zoneID)
	require.NoError(t, err)
	assert.Equal(t, 10, availability.Remaining)
	assert.False(t, availability.OnSale)
}

func TestOversoldZoneIsAnInvariantViolation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	eventID, zoneID := f.addEvent(t, events.StatusPublished, 1, true, 48*time.Hour)

	// bypass the engine to fabricate an impossible state
	rogue := make([]tickets.Ticket, 2)
	for i := range rogue {
		rogue[i] = tickets.Ticket{ID: uuid.New(), EventID: eventID, AudienceZoneID: zoneID, Status: tickets.StatusValid}
	}
	require.NoError(t, f.tickets.InsertBatch(ctx, rogue))

	_, err := f.svc.RemainingCapacity(ctx, zoneID)
	var violation *inventory.InvariantViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, inventory.InvariantZoneCapacity, violation.Invariant)

	_, err = f.svc.CreateReservation(ctx, CreateReservationCommand{EventID: eventID, AudienceZoneID: zoneID, Participants: participants(1)})
	require.ErrorAs(t, err, &violation)
	assert.True(t, apperrors.IsInvariant(err))
	assert.Equal(t, 2, f.held(t, zoneID))
}
