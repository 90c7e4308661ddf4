package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ticketing/internal/events"
	"ticketing/internal/inventory"
	"ticketing/internal/shared/constants"
	"ticketing/internal/tickets"
	"ticketing/internal/users"
	"ticketing/pkg/cache"
	"ticketing/pkg/logger"
)

// maxParallelLoads bounds the per-event ticket loads of a structure dashboard
const maxParallelLoads = 4

type EventSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*events.Event, error)
	ListByStructure(ctx context.Context, structureID uuid.UUID) ([]events.Event, error)
}

type TicketSource interface {
	ListAllByEvents(ctx context.Context, eventIDs []uuid.UUID) ([]tickets.Ticket, error)
}

type StructureLookup interface {
	GetStructureByID(ctx context.Context, id uuid.UUID) (*inventory.Structure, error)
}

// Service computes read-only projections over events and tickets.
// Results are cached briefly and may lag behind in-flight reservations.
type Service interface {
	GetEventStatistics(ctx context.Context, actor users.Actor, eventID uuid.UUID) (*EventStatistics, error)
	GetStructureStatistics(ctx context.Context, actor users.Actor, structureID uuid.UUID) (*StructureStatistics, error)
}

type service struct {
	events     EventSource
	tickets    TicketSource
	structures StructureLookup
	cache      cache.Service
	log        *logger.Logger
	now        func() time.Time
}

func NewService(eventSource EventSource, ticketSource TicketSource, structures StructureLookup, cacheService cache.Service) Service {
	if cacheService == nil {
		cacheService = cache.NewNoopService()
	}
	return &service{
		events:     eventSource,
		tickets:    ticketSource,
		structures: structures,
		cache:      cacheService,
		log:        logger.GetDefault(),
		now:        time.Now,
	}
}

func (s *service) GetEventStatistics(ctx context.Context, actor users.Actor, eventID uuid.UUID) (*EventStatistics, error) {
	var (
		event *events.Event
		list  []tickets.Ticket
	)

	// The event and its tickets are independent reads.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		event, err = s.events.GetByID(gctx, eventID)
		return err
	})
	g.Go(func() error {
		var err error
		list, err = s.tickets.ListAllByEvents(gctx, []uuid.UUID{eventID})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !actor.CanManageStructure(event.StructureID) {
		return nil, events.ErrNotEventManager
	}

	var stats EventStatistics
	err := s.cache.GetOrSet(ctx, constants.BuildEventStatisticsKey(eventID.String()), constants.TTL_EVENT_STATISTICS,
		func(ctx context.Context) (interface{}, error) {
			return computeEventStatistics(event, list, s.now()), nil
		}, &stats)
	if err != nil {
		return nil, fmt.Errorf("failed to build event statistics: %w", err)
	}

	s.log.DebugContext(ctx, "event statistics served",
		"event_id", eventID,
		"attributed", stats.AttributedTicketsAmount,
		"scanned", stats.ScannedTicketsNumber,
	)
	return &stats, nil
}

func (s *service) GetStructureStatistics(ctx context.Context, actor users.Actor, structureID uuid.UUID) (*StructureStatistics, error) {
	if !actor.CanManageStructure(structureID) {
		return nil, inventory.ErrNotStructureManager
	}
	if _, err := s.structures.GetStructureByID(ctx, structureID); err != nil {
		return nil, err
	}

	var stats StructureStatistics
	err := s.cache.GetOrSet(ctx, constants.BuildStructureStatisticsKey(structureID.String()), constants.TTL_STRUCTURE_STATISTICS,
		func(ctx context.Context) (interface{}, error) {
			return s.buildStructureStatistics(ctx, structureID)
		}, &stats)
	if err != nil {
		return nil, fmt.Errorf("failed to build structure statistics: %w", err)
	}
	return &stats, nil
}

func (s *service) buildStructureStatistics(ctx context.Context, structureID uuid.UUID) (*StructureStatistics, error) {
	list, err := s.events.ListByStructure(ctx, structureID)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	byEvent := make(map[uuid.UUID][]tickets.Ticket, len(list))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i := range list {
		eventID := list[i].ID
		g.Go(func() error {
			eventTickets, err := s.tickets.ListAllByEvents(gctx, []uuid.UUID{eventID})
			if err != nil {
				return fmt.Errorf("event %s: %w", eventID, err)
			}
			mu.Lock()
			byEvent[eventID] = eventTickets
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return computeStructureStatistics(structureID, list, byEvent, s.now()), nil
}
