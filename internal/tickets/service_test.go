package tickets

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing/internal/events"
	"ticketing/internal/notifications"
	"ticketing/internal/users"
	"ticketing/pkg/logger"
	"ticketing/pkg/metrics"
)

type eventLookupFunc func(ctx context.Context, id uuid.UUID) (*events.Event, error)

func (f eventLookupFunc) GetByID(ctx context.Context, id uuid.UUID) (*events.Event, error) {
	return f(ctx, id)
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []*notifications.TicketLifecycleEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e *notifications.TicketLifecycleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	svc       *service
	repo      *MemoryRepository
	pub       *recordingPublisher
	structure uuid.UUID
	eventID   uuid.UUID
	scanner   users.Actor
	organizer users.Actor
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	structure := uuid.New()
	eventID := uuid.New()
	repo := NewMemoryRepository()
	pub := &recordingPublisher{}
	lookup := eventLookupFunc(func(_ context.Context, id uuid.UUID) (*events.Event, error) {
		if id != eventID {
			return nil, events.ErrEventNotFound
		}
		return &events.Event{ID: eventID, StructureID: structure}, nil
	})

	now := time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)
	svc := NewService(repo, lookup, pub, nil).(*service)
	svc.now = func() time.Time { return now }

	return &fixture{
		svc:       svc,
		repo:      repo,
		pub:       pub,
		structure: structure,
		eventID:   eventID,
		scanner:   users.Actor{UserID: uuid.New(), Role: users.RoleScanner, StructureID: &structure},
		organizer: users.Actor{UserID: uuid.New(), Role: users.RoleOrganizer, StructureID: &structure},
		now:       now,
	}
}

func (f *fixture) issue(t *testing.T, endsIn time.Duration, holder uuid.UUID, first string) Ticket {
	t.Helper()
	end := f.now.Add(endsIn)
	ticket := Ticket{
		ID:             uuid.New(),
		ReservationID:  "RES-" + strings.ToUpper(first),
		EventID:        f.eventID,
		AudienceZoneID: uuid.New(),
		BookedByUserID: &holder,
		Status:         StatusValid,
		Participant:    Participant{FirstName: first, LastName: "Doe", Email: first + "@example.com"},
		EventSnapshot: EventSnapshot{
			EventID:     f.eventID,
			StructureID: f.structure,
			Name:        "Night Show",
			StartDate:   end.Add(-3 * time.Hour),
			EndDate:     end,
		},
		AudienceZoneSnapshot: AudienceZoneSnapshot{Name: "Floor"},
		EventEndDate:         end,
		IssuedAt:             f.now.Add(-24 * time.Hour),
	}
	require.NoError(t, f.repo.InsertBatch(context.Background(), []Ticket{ticket}))
	return ticket
}

func TestEffectiveStatus(t *testing.T) {
	end := time.Date(2026, 6, 1, 23, 0, 0, 0, time.UTC)
	ticket := Ticket{Status: StatusValid, EventEndDate: end}

	assert.Equal(t, StatusValid, ticket.EffectiveStatus(end.Add(-time.Minute)))
	assert.Equal(t, StatusValid, ticket.EffectiveStatus(end))
	assert.Equal(t, StatusExpired, ticket.EffectiveStatus(end.Add(time.Second)))

	ticket.Status = StatusUsed
	assert.Equal(t, StatusUsed, ticket.EffectiveStatus(end.Add(time.Hour)))
	ticket.Status = StatusCancelled
	assert.Equal(t, StatusCancelled, ticket.EffectiveStatus(end.Add(time.Hour)))
}

func TestTransitionsAreAbsorbing(t *testing.T) {
	assert.True(t, CanTransition(StatusValid, StatusUsed))
	assert.True(t, CanTransition(StatusValid, StatusCancelled))
	for _, from := range []Status{StatusUsed, StatusCancelled, StatusExpired} {
		for _, to := range []Status{StatusValid, StatusUsed, StatusCancelled, StatusExpired} {
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestValidateThenAlreadyUsed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.issue(t, 3*time.Hour, uuid.New(), "ada")

	used, err := f.svc.Validate(ctx, f.scanner, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusUsed, used.Status)
	require.NotNil(t, used.UsedAt)
	assert.True(t, used.UsedAt.Equal(f.now))

	_, err = f.svc.Validate(ctx, f.scanner, ticket.ID)
	var already *AlreadyUsedError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, ticket.ID, already.TicketID)

	require.Len(t, f.pub.messages, 1)
	assert.Equal(t, notifications.TypeTicketValidated, f.pub.messages[0].Type)
	assert.Equal(t, ticket.ReservationID, f.pub.messages[0].PartitionKey())
}

func TestConcurrentScansAdmitOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.issue(t, 3*time.Hour, uuid.New(), "grace")

	const scanners = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Validate(ctx, f.scanner, ticket.ID)
			mu.Lock()
			defer mu.Unlock()
			var already *AlreadyUsedError
			switch {
			case err == nil:
				successes++
			case assert.ErrorAs(t, err, &already):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, scanners-1, conflicts)
}

func TestExpiredTicketIsNotUsable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.issue(t, -time.Hour, uuid.New(), "alan")

	got, err := f.svc.GetTicket(ctx, f.scanner, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)

	_, err = f.svc.Validate(ctx, f.scanner, ticket.ID)
	var unusable *TicketNotUsableError
	require.ErrorAs(t, err, &unusable)
	assert.Equal(t, StatusExpired, unusable.CurrentStatus)

	stored, err := f.repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusValid, stored.Status, "expiry is derived, never written")
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.issue(t, 3*time.Hour, uuid.New(), "linus")

	_, err := f.svc.Cancel(ctx, f.scanner, ticket.ID)
	assert.ErrorIs(t, err, ErrNotTicketManager)

	cancelled, err := f.svc.Cancel(ctx, f.organizer, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	_, err = f.svc.Cancel(ctx, f.organizer, ticket.ID)
	var tte *TicketTransitionError
	require.ErrorAs(t, err, &tte)
	assert.Equal(t, StatusCancelled, tte.From)

	_, err = f.svc.Validate(ctx, f.scanner, ticket.ID)
	var unusable *TicketNotUsableError
	require.ErrorAs(t, err, &unusable)
	assert.Equal(t, StatusCancelled, unusable.CurrentStatus)

	used := f.issue(t, 3*time.Hour, uuid.New(), "ken")
	_, err = f.svc.Validate(ctx, f.scanner, used.ID)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, f.organizer, used.ID)
	require.ErrorAs(t, err, &tte)
	assert.Equal(t, StatusUsed, tte.From)
}

func TestScanAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.issue(t, 3*time.Hour, uuid.New(), "barbara")

	elsewhere := uuid.New()
	foreign := users.Actor{UserID: uuid.New(), Role: users.RoleScanner, StructureID: &elsewhere}
	_, err := f.svc.Validate(ctx, foreign, ticket.ID)
	assert.ErrorIs(t, err, ErrNotTicketManager)

	_, err = f.svc.ValidateForEvent(ctx, f.scanner, uuid.New(), ticket.ID)
	assert.ErrorIs(t, err, ErrTicketNotForEvent)

	_, err = f.svc.ValidateForEvent(ctx, f.scanner, f.eventID, uuid.New())
	assert.ErrorIs(t, err, ErrTicketNotFound)

	validated, err := f.svc.ValidateForEvent(ctx, f.scanner, f.eventID, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusUsed, validated.Status)
}

func TestTicketProjections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	holder := users.Actor{UserID: uuid.New(), Role: users.RoleUser}

	f.issue(t, 3*time.Hour, holder.UserID, "margaret")
	f.issue(t, -time.Hour, holder.UserID, "dennis")
	other := f.issue(t, 3*time.Hour, uuid.New(), "edsger")

	page, err := f.svc.ListMyTickets(ctx, holder, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	_, err = f.svc.GetTicket(ctx, holder, other.ID)
	assert.ErrorIs(t, err, ErrTicketNotFound)

	page, err = f.svc.ListEventTickets(ctx, f.scanner, f.eventID, TicketFilters{Status: "expired"})
	require.NoError(t, err)
	items := page.Items.([]Ticket)
	require.Len(t, items, 1)
	assert.Equal(t, "dennis", items[0].Participant.FirstName)
	assert.Equal(t, StatusExpired, items[0].Status)

	page, err = f.svc.ListEventTickets(ctx, f.scanner, f.eventID, TicketFilters{Status: "VALID"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = f.svc.ListEventTickets(ctx, f.scanner, f.eventID, TicketFilters{Search: "EDSGER"})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, other.ID, page.Items.([]Ticket)[0].ID)

	_, err = f.svc.ListEventTickets(ctx, f.scanner, f.eventID, TicketFilters{Status: "REFUNDED"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.svc.ListEventTickets(ctx, holder, f.eventID, TicketFilters{})
	assert.ErrorIs(t, err, ErrNotTicketManager)
}

// failingTransitions stores tickets in memory but cannot write status changes
type failingTransitions struct {
	*MemoryRepository
	err error
}

func (r failingTransitions) Transition(context.Context, uuid.UUID, Status, time.Time) (bool, error) {
	return false, r.err
}

func TestScanStorageFailureIsCountedAsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.issue(t, 3*time.Hour, uuid.New(), "frances")

	var logs bytes.Buffer
	storageErr := errors.New("connection reset")
	f.svc.repo = failingTransitions{MemoryRepository: f.repo, err: storageErr}
	f.svc.log = logger.NewWithWriter(&logs, "info")

	rejected := metrics.ScansTotal.WithLabelValues("INTERNAL_ERROR")
	before := testutil.ToFloat64(rejected)

	_, err := f.svc.Validate(ctx, f.scanner, ticket.ID)
	require.ErrorIs(t, err, storageErr)

	assert.Equal(t, before+1, testutil.ToFloat64(rejected))
	assert.Contains(t, logs.String(), "Ticket Scan Rejected")
	assert.Contains(t, logs.String(), ticket.ID.String())
	assert.Empty(t, f.pub.messages)
}

func TestInsertBatchRejectsReusedReservationID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.issue(t, 3*time.Hour, uuid.New(), "hedy")

	reused := first
	reused.ID = uuid.New()
	err := f.repo.InsertBatch(ctx, []Ticket{reused})
	assert.ErrorIs(t, err, ErrReservationIDTaken)

	list, err := f.repo.ListByReservation(ctx, first.ReservationID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
