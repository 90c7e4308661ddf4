package tickets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"ticketing/internal/events"
	"ticketing/internal/notifications"
	"ticketing/internal/shared/apperrors"
	"ticketing/internal/shared/constants"
	"ticketing/internal/shared/utils/response"
	"ticketing/internal/users"
	"ticketing/pkg/cache"
	"ticketing/pkg/logger"
	"ticketing/pkg/metrics"
)

// EventLookup resolves the event a ticket listing is scoped to
type EventLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*events.Event, error)
}

type Service interface {
	GetTicket(ctx context.Context, actor users.Actor, id uuid.UUID) (*Ticket, error)
	ListMyTickets(ctx context.Context, actor users.Actor, page, limit int) (*response.Page, error)
	ListEventTickets(ctx context.Context, actor users.Actor, eventID uuid.UUID, filters TicketFilters) (*response.Page, error)

	// Validate marks a VALID ticket as USED. Of two concurrent scans of the
	// same ticket exactly one succeeds.
	Validate(ctx context.Context, actor users.Actor, id uuid.UUID) (*Ticket, error)
	ValidateForEvent(ctx context.Context, actor users.Actor, eventID, id uuid.UUID) (*Ticket, error)
	Cancel(ctx context.Context, actor users.Actor, id uuid.UUID) (*Ticket, error)
}

type service struct {
	repo      Repository
	events    EventLookup
	publisher notifications.Publisher
	cache     cache.Service
	log       *logger.Logger
	now       func() time.Time
}

func NewService(repo Repository, eventLookup EventLookup, publisher notifications.Publisher, cacheService cache.Service) Service {
	if publisher == nil {
		publisher = notifications.NewNopPublisher()
	}
	if cacheService == nil {
		cacheService = cache.NewNoopService()
	}
	return &service{
		repo:      repo,
		events:    eventLookup,
		publisher: publisher,
		cache:     cacheService,
		log:       logger.GetDefault(),
		now:       time.Now,
	}
}

func (s *service) GetTicket(ctx context.Context, actor users.Actor, id uuid.UUID) (*Ticket, error) {
	ticket, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isHolder(actor, ticket) && !actor.CanScanFor(ticket.EventSnapshot.StructureID) {
		return nil, ErrTicketNotFound
	}
	projected := ticket.Projected(s.now())
	return &projected, nil
}

func (s *service) ListMyTickets(ctx context.Context, actor users.Actor, page, limit int) (*response.Page, error) {
	page, limit = normalizePaging(page, limit)
	tickets, total, err := s.repo.ListByUser(ctx, actor.UserID, page, limit)
	if err != nil {
		return nil, err
	}
	result := response.NewPage(s.project(tickets), page, limit, total)
	return &result, nil
}

func (s *service) ListEventTickets(ctx context.Context, actor users.Actor, eventID uuid.UUID, filters TicketFilters) (*response.Page, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !actor.CanScanFor(event.StructureID) {
		return nil, ErrNotTicketManager
	}

	filters.Status = strings.ToUpper(strings.TrimSpace(filters.Status))
	if filters.Status != "" && !Status(filters.Status).IsValid() {
		return nil, ErrInvalidStatus
	}
	filters.Search = strings.TrimSpace(filters.Search)
	filters.Page, filters.Limit = normalizePaging(filters.Page, filters.Limit)
	filters.now = s.now()

	tickets, total, err := s.repo.ListByEvent(ctx, eventID, filters)
	if err != nil {
		return nil, err
	}
	result := response.NewPage(s.project(tickets), filters.Page, filters.Limit, total)
	return &result, nil
}

func (s *service) Validate(ctx context.Context, actor users.Actor, id uuid.UUID) (*Ticket, error) {
	return s.validate(ctx, actor, uuid.Nil, id)
}

func (s *service) ValidateForEvent(ctx context.Context, actor users.Actor, eventID, id uuid.UUID) (*Ticket, error) {
	return s.validate(ctx, actor, eventID, id)
}

func (s *service) validate(ctx context.Context, actor users.Actor, eventID, id uuid.UUID) (*Ticket, error) {
	ticket, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.rejectScan(ctx, id, err)
		return nil, err
	}
	if !actor.CanScanFor(ticket.EventSnapshot.StructureID) {
		s.rejectScan(ctx, id, ErrNotTicketManager)
		return nil, ErrNotTicketManager
	}
	if eventID != uuid.Nil && ticket.EventID != eventID {
		s.rejectScan(ctx, id, ErrTicketNotForEvent)
		return nil, ErrTicketNotForEvent
	}

	now := s.now()
	ok, err := s.repo.Transition(ctx, id, StatusUsed, now)
	if err != nil {
		s.rejectScan(ctx, id, err)
		return nil, err
	}
	if !ok {
		err := s.scanConflict(ctx, id, now)
		s.rejectScan(ctx, id, err)
		return nil, err
	}

	ticket.Status = StatusUsed
	ticket.UsedAt = &now
	ticket.UpdatedAt = now

	metrics.ScansTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.log.LogTicketValidated(ctx, id.String(), ticket.EventID.String())
	s.afterTransition(ctx, notifications.TypeTicketValidated, ticket)
	return ticket, nil
}

// scanConflict explains why a scan lost: the ticket is no longer VALID
func (s *service) scanConflict(ctx context.Context, id uuid.UUID, now time.Time) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	switch st := current.EffectiveStatus(now); st {
	case StatusUsed:
		return &AlreadyUsedError{TicketID: id, UsedAt: current.UsedAt}
	case StatusCancelled, StatusExpired:
		return &TicketNotUsableError{TicketID: id, CurrentStatus: st}
	default:
		return fmt.Errorf("ticket %s is %s but could not be marked used", id, st)
	}
}

func (s *service) rejectScan(ctx context.Context, id uuid.UUID, err error) {
	code := apperrors.CodeOf(err)
	metrics.ScansTotal.WithLabelValues(code).Inc()
	s.log.LogTicketScanRejected(ctx, id.String(), code)
}

func (s *service) Cancel(ctx context.Context, actor users.Actor, id uuid.UUID) (*Ticket, error) {
	ticket, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageStructure(ticket.EventSnapshot.StructureID) {
		return nil, ErrNotTicketManager
	}

	now := s.now()
	if from := ticket.EffectiveStatus(now); !CanTransition(from, StatusCancelled) {
		return nil, &TicketTransitionError{From: from, To: StatusCancelled}
	}

	ok, err := s.repo.Transition(ctx, id, StatusCancelled, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, &TicketTransitionError{From: current.EffectiveStatus(now), To: StatusCancelled}
	}

	ticket.Status = StatusCancelled
	ticket.CancelledAt = &now
	ticket.UpdatedAt = now

	s.log.LogTicketCancelled(ctx, id.String(), actor.UserID.String())
	s.afterTransition(ctx, notifications.TypeTicketCancelled, ticket)
	return ticket, nil
}

func (s *service) afterTransition(ctx context.Context, kind notifications.LifecycleType, ticket *Ticket) {
	if err := s.cache.Delete(ctx, constants.BuildEventStatisticsKey(ticket.EventID.String())); err != nil {
		s.log.WarnContext(ctx, "failed to invalidate statistics", "event_id", ticket.EventID.String(), "error", err)
	}

	msg := notifications.NewTicketLifecycleEvent(kind, ticket.ReservationID, ticket.EventID)
	msg.EventName = ticket.EventSnapshot.Name
	msg.EventStart = ticket.EventSnapshot.StartDate
	msg.ZoneName = ticket.AudienceZoneSnapshot.Name
	msg.TicketIDs = []uuid.UUID{ticket.ID}
	msg.Recipients = []notifications.Recipient{{Email: ticket.Participant.Email, Name: ticket.Participant.FullName()}}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.log.WarnContext(ctx, "failed to publish ticket lifecycle event",
			"type", string(kind), "ticket_id", ticket.ID.String(), "error", err)
	}
}

func (s *service) project(tickets []Ticket) []Ticket {
	now := s.now()
	return lo.Map(tickets, func(t Ticket, _ int) Ticket { return t.Projected(now) })
}

func isHolder(actor users.Actor, t *Ticket) bool {
	return t.BookedByUserID != nil && *t.BookedByUserID == actor.UserID
}

func normalizePaging(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return page, limit
}
