package reservations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"ticketing/internal/events"
	"ticketing/internal/inventory"
	"ticketing/internal/notifications"
	"ticketing/internal/shared/apperrors"
	"ticketing/internal/shared/config"
	"ticketing/internal/shared/constants"
	"ticketing/internal/tickets"
	"ticketing/internal/users"
	"ticketing/pkg/cache"
	"ticketing/pkg/logger"
	"ticketing/pkg/metrics"
)

type Service interface {
	CreateReservation(ctx context.Context, cmd CreateReservationCommand) (*Reservation, error)
	GetReservation(ctx context.Context, actor users.Actor, reservationID string) (*Reservation, error)

	RemainingCapacity(ctx context.Context, zoneID uuid.UUID) (int, error)
	CanAccommodate(ctx context.Context, zoneID uuid.UUID, n int) (bool, error)
	GetAvailability(ctx context.Context, eventID, zoneID uuid.UUID) (*ZoneAvailability, error)
}

type Dependencies struct {
	Repo        Repository
	Tickets     tickets.Repository
	Idempotency IdempotencyStore
	Publisher   notifications.Publisher
	Cache       cache.Service
}

type service struct {
	repo        Repository
	tickets     tickets.Repository
	idempotency IdempotencyStore
	publisher   notifications.Publisher
	cache       cache.Service
	validate    *validator.Validate
	cfg         *config.Config
	log         *logger.Logger
	now         func() time.Time

	newReservationID func() string
}

func NewService(deps Dependencies, cfg *config.Config) Service {
	if deps.Idempotency == nil {
		deps.Idempotency = NewMemoryIdempotencyStore()
	}
	if deps.Publisher == nil {
		deps.Publisher = notifications.NewNopPublisher()
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewNoopService()
	}
	return &service{
		repo:        deps.Repo,
		tickets:     deps.Tickets,
		idempotency: deps.Idempotency,
		publisher:   deps.Publisher,
		cache:       deps.Cache,
		validate:    validator.New(),
		cfg:         cfg,
		log:         logger.GetDefault(),
		now:         time.Now,

		newReservationID: NewReservationID,
	}
}

func (s *service) CreateReservation(ctx context.Context, cmd CreateReservationCommand) (*Reservation, error) {
	started := time.Now()
	defer func() { metrics.ReservationDuration.Observe(time.Since(started).Seconds()) }()

	if err := s.checkParticipants(cmd.Participants); err != nil {
		return nil, s.reject(ctx, cmd, err)
	}

	key, err := idempotencyKey(cmd)
	if err != nil {
		return nil, s.reject(ctx, cmd, err)
	}
	if key != "" {
		existing, err := s.idempotency.Claim(ctx, key, s.cfg.Reservation.IdempotencyTTL)
		if err != nil {
			return nil, err
		}
		switch existing {
		case "":
		case pendingMarker:
			return nil, ErrReservationInFlight
		default:
			return s.loadReservation(ctx, existing)
		}
	}

	reservation, err := s.issue(ctx, cmd)
	if key != "" {
		if err != nil {
			if relErr := s.idempotency.Release(ctx, key); relErr != nil {
				s.log.WarnContext(ctx, "failed to release idempotency key", "error", relErr)
			}
		} else if cErr := s.idempotency.Complete(ctx, key, reservation.ReservationID, s.cfg.Reservation.IdempotencyTTL); cErr != nil {
			s.log.WarnContext(ctx, "failed to store idempotency result", "error", cErr)
		}
	}
	if err != nil {
		return nil, s.reject(ctx, cmd, err)
	}

	s.afterIssue(ctx, reservation)
	return reservation, nil
}

// issue retries with a fresh reservation id when the drawn one is already in use
func (s *service) issue(ctx context.Context, cmd CreateReservationCommand) (*Reservation, error) {
	for attempt := 1; ; attempt++ {
		reservation, err := s.issueAs(ctx, cmd, s.newReservationID())
		if !errors.Is(err, tickets.ErrReservationIDTaken) || attempt >= maxReservationIDAttempts {
			return reservation, err
		}
		s.log.WarnContext(ctx, "Reservation id collision, drawing a new one", "attempt", attempt)
	}
}

func (s *service) issueAs(ctx context.Context, cmd CreateReservationCommand, reservationID string) (*Reservation, error) {
	requested := len(cmd.Participants)
	now := s.now().UTC()

	issued, err := s.repo.IssueTickets(ctx, cmd.EventID, cmd.AudienceZoneID, func(state ZoneState) ([]tickets.Ticket, error) {
		switch {
		case state.Event == nil:
			return nil, events.ErrEventNotFound
		case state.Event.Status != events.StatusPublished:
			return nil, &EventNotPublishedError{EventID: state.Event.ID, Status: state.Event.Status}
		case state.Zone == nil:
			return nil, events.ErrZoneNotFound
		case !state.Zone.IsActive:
			return nil, &ZoneInactiveError{ZoneID: state.Zone.ID}
		case state.Event.HasEnded(now):
			return nil, &EventEndedError{EventID: state.Event.ID, EndDate: state.Event.EndDate}
		}

		remaining, err := inventory.Remaining(state.Zone.AllocatedCapacity, state.Held)
		if err != nil {
			return nil, err
		}
		if remaining < requested {
			return nil, &CapacityExceededError{Requested: requested, Remaining: remaining}
		}
		return s.buildTickets(reservationID, state, cmd, now), nil
	})
	if err != nil {
		return nil, err
	}

	if len(issued) != requested {
		return nil, &inventory.InvariantViolationError{
			Invariant: inventory.InvariantPartialBatch,
			Detail:    "reservation " + reservationID + " issued an incomplete batch",
		}
	}

	return &Reservation{
		ReservationID:   reservationID,
		EventID:         cmd.EventID,
		AudienceZoneID:  cmd.AudienceZoneID,
		Tickets:         issued,
		ReservationDate: now,
	}, nil
}

func (s *service) buildTickets(reservationID string, state ZoneState, cmd CreateReservationCommand, now time.Time) []tickets.Ticket {
	event, zone := state.Event, state.Zone

	eventSnapshot := tickets.EventSnapshot{
		EventID:      event.ID,
		StructureID:  event.StructureID,
		Name:         event.Name,
		StartDate:    event.StartDate,
		EndDate:      event.EndDate,
		Address:      event.Address,
		MainPhotoURL: event.MainPhotoURL,
	}
	zoneSnapshot := tickets.AudienceZoneSnapshot{
		AudienceZoneID: zone.ID,
		Name:           zone.Name,
		SeatingType:    zone.SeatingType,
	}

	return lo.Map(cmd.Participants, func(p Participant, _ int) tickets.Ticket {
		id := uuid.New()
		return tickets.Ticket{
			ID:             id,
			ReservationID:  reservationID,
			EventID:        event.ID,
			AudienceZoneID: zone.ID,
			BookedByUserID: cmd.BookedBy,
			QRCodeValue:    s.cfg.Ticketing.ValidateURL + "/" + id.String(),
			Status:         tickets.StatusValid,
			Participant: tickets.Participant{
				FirstName: strings.TrimSpace(p.FirstName),
				LastName:  strings.TrimSpace(p.LastName),
				Email:     strings.ToLower(strings.TrimSpace(p.Email)),
			},
			EventSnapshot:        eventSnapshot,
			AudienceZoneSnapshot: zoneSnapshot,
			EventEndDate:         event.EndDate,
			IssuedAt:             now,
			UpdatedAt:            now,
		}
	})
}

// checkParticipants enforces the 1..4 bound and participant syntax. Only the
// primary participant must carry an e-mail address.
func (s *service) checkParticipants(participants []Participant) error {
	if n := len(participants); n < MinParticipants || n > MaxParticipants {
		return &InvalidParticipantCountError{Count: n, Min: MinParticipants, Max: MaxParticipants}
	}

	for i, p := range participants {
		p.FirstName = strings.TrimSpace(p.FirstName)
		p.Email = strings.TrimSpace(p.Email)
		if err := s.validate.Struct(p); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				return &ValidationError{Index: i, Field: jsonField(verrs[0].Field()), Reason: "failed " + verrs[0].Tag()}
			}
			return &ValidationError{Index: i, Reason: err.Error()}
		}
		if i == 0 && p.Email == "" {
			return &ValidationError{Index: 0, Field: "email", Reason: "is required for the primary participant"}
		}
	}
	return nil
}

func jsonField(name string) string {
	switch name {
	case "FirstName":
		return "firstName"
	case "LastName":
		return "lastName"
	case "Email":
		return "email"
	}
	return name
}

func idempotencyKey(cmd CreateReservationCommand) (string, error) {
	key := strings.TrimSpace(cmd.IdempotencyKey)
	if key == "" {
		return "", nil
	}
	if len(key) > 128 {
		return "", ErrInvalidIdempotencyKey
	}
	owner := "anonymous"
	if cmd.BookedBy != nil {
		owner = cmd.BookedBy.String()
	}
	return owner + ":" + key, nil
}

// reject records a failed reservation. Invariant violations are logged
// apart from business outcomes.
func (s *service) reject(ctx context.Context, cmd CreateReservationCommand, err error) error {
	s.reportInvariant(ctx, err)

	code := apperrors.CodeOf(err)
	metrics.ReservationsTotal.WithLabelValues(code).Inc()
	s.log.LogReservationRejected(ctx, cmd.EventID.String(), cmd.AudienceZoneID.String(), code)
	return err
}

func (s *service) afterIssue(ctx context.Context, r *Reservation) {
	metrics.ReservationsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	metrics.TicketsIssuedTotal.Add(float64(len(r.Tickets)))
	s.log.LogReservationCreated(ctx, r.ReservationID, r.EventID.String(), r.AudienceZoneID.String(), len(r.Tickets))

	if err := s.cache.Delete(ctx, constants.BuildEventStatisticsKey(r.EventID.String())); err != nil {
		s.log.WarnContext(ctx, "failed to invalidate statistics", "event_id", r.EventID.String(), "error", err)
	}

	first := r.Tickets[0]
	msg := notifications.NewTicketLifecycleEvent(notifications.TypeTicketIssued, r.ReservationID, r.EventID)
	msg.EventName = first.EventSnapshot.Name
	msg.EventStart = first.EventSnapshot.StartDate
	msg.ZoneName = first.AudienceZoneSnapshot.Name
	msg.TicketIDs = lo.Map(r.Tickets, func(t tickets.Ticket, _ int) uuid.UUID { return t.ID })
	msg.Recipients = lo.UniqBy(
		lo.FilterMap(r.Tickets, func(t tickets.Ticket, _ int) (notifications.Recipient, bool) {
			return notifications.Recipient{Email: t.Participant.Email, Name: t.Participant.FullName()}, t.Participant.Email != ""
		}),
		func(rc notifications.Recipient) string { return rc.Email },
	)
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.log.WarnContext(ctx, "failed to publish reservation", "reservation_id", r.ReservationID, "error", err)
	}
}

func (s *service) GetReservation(ctx context.Context, actor users.Actor, reservationID string) (*Reservation, error) {
	reservation, err := s.loadReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	holder := lo.EveryBy(reservation.Tickets, func(t tickets.Ticket) bool {
		return t.BookedByUserID != nil && *t.BookedByUserID == actor.UserID
	})
	if !holder && !actor.CanScanFor(reservation.Tickets[0].EventSnapshot.StructureID) {
		return nil, ErrReservationNotFound
	}
	return reservation, nil
}

func (s *service) loadReservation(ctx context.Context, reservationID string) (*Reservation, error) {
	list, err := s.tickets.ListByReservation(ctx, strings.ToUpper(strings.TrimSpace(reservationID)))
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrReservationNotFound
	}

	now := s.now()
	first := list[0]
	return &Reservation{
		ReservationID:   first.ReservationID,
		EventID:         first.EventID,
		AudienceZoneID:  first.AudienceZoneID,
		Tickets:         lo.Map(list, func(t tickets.Ticket, _ int) tickets.Ticket { return t.Projected(now) }),
		ReservationDate: first.IssuedAt,
	}, nil
}

func (s *service) RemainingCapacity(ctx context.Context, zoneID uuid.UUID) (int, error) {
	state, err := s.repo.ReadZone(ctx, zoneID)
	if err != nil {
		return 0, err
	}
	remaining, err := inventory.Remaining(state.Zone.AllocatedCapacity, state.Held)
	if err != nil {
		s.reportInvariant(ctx, err)
		return 0, err
	}
	return remaining, nil
}

func (s *service) CanAccommodate(ctx context.Context, zoneID uuid.UUID, n int) (bool, error) {
	state, err := s.repo.ReadZone(ctx, zoneID)
	if err != nil {
		return false, err
	}
	ok, err := inventory.CanAccommodate(zoneCapacity(state), n, s.now())
	if err != nil {
		s.reportInvariant(ctx, err)
		return false, err
	}
	return ok, nil
}

func (s *service) GetAvailability(ctx context.Context, eventID, zoneID uuid.UUID) (*ZoneAvailability, error) {
	state, err := s.repo.ReadZone(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	if state.Event.ID != eventID {
		return nil, events.ErrZoneNotFound
	}
	if !state.Event.Status.IsPublic() {
		return nil, events.ErrEventNotFound
	}

	capacity := zoneCapacity(state)
	remaining, err := capacity.Remaining()
	if err != nil {
		s.reportInvariant(ctx, err)
		return nil, err
	}
	onSale, err := inventory.CanAccommodate(capacity, 1, s.now())
	if err != nil {
		return nil, err
	}
	return &ZoneAvailability{
		EventID:           eventID,
		AudienceZoneID:    zoneID,
		Name:              state.Zone.Name,
		AllocatedCapacity: state.Zone.AllocatedCapacity,
		Held:              state.Held,
		Remaining:         remaining,
		IsActive:          state.Zone.IsActive,
		OnSale:            onSale,
	}, nil
}

func (s *service) reportInvariant(ctx context.Context, err error) {
	var violation *inventory.InvariantViolationError
	if errors.As(err, &violation) {
		metrics.InvariantViolationsTotal.WithLabelValues(violation.Invariant).Inc()
		s.log.LogInvariantViolation(ctx, violation.Invariant, err)
	}
}

func zoneCapacity(state ZoneState) inventory.ZoneCapacity {
	return inventory.ZoneCapacity{
		Allocated: state.Zone.AllocatedCapacity,
		Held:      state.Held,
		Active:    state.Zone.IsActive,
		OnSale:    state.Event.Status == events.StatusPublished,
		EventEnd:  state.Event.EndDate,
	}
}
