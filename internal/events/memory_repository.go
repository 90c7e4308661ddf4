package events

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// MemoryRepository keeps events in process memory. Writers take the lock
// exclusively; WithEvent holds it shared so a status change cannot
// interleave with a reservation reading the event.
type MemoryRepository struct {
	mu     sync.RWMutex
	events map[uuid.UUID]Event
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{events: make(map[uuid.UUID]Event)}
}

func cloneEvent(e Event) Event {
	e.Categories = append([]string(nil), e.Categories...)
	e.Tags = append([]string(nil), e.Tags...)
	e.Images = append([]string(nil), e.Images...)
	e.AudienceZones = append([]EventAudienceZone(nil), e.AudienceZones...)
	return e
}

func (r *MemoryRepository) Create(ctx context.Context, event *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	assignZoneIDs(event)
	now := time.Now().UTC()
	event.CreatedAt, event.UpdatedAt = now, now
	for i := range event.AudienceZones {
		event.AudienceZones[i].CreatedAt = now
	}
	r.events[event.ID] = cloneEvent(*event)
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	e = cloneEvent(e)
	return &e, nil
}

// WithEvent runs fn with a copy of the event while status changes are held off
func (r *MemoryRepository) WithEvent(ctx context.Context, id uuid.UUID, fn func(*Event) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.events[id]
	if !ok {
		return fn(nil)
	}
	e = cloneEvent(e)
	return fn(&e)
}

// FindZone returns the event owning zoneID together with the zone
func (r *MemoryRepository) FindZone(ctx context.Context, zoneID uuid.UUID) (*Event, *EventAudienceZone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.events {
		e = cloneEvent(e)
		if zone, ok := e.Zone(zoneID); ok {
			return &e, zone, nil
		}
	}
	return nil, nil, ErrZoneNotFound
}

func (r *MemoryRepository) List(ctx context.Context, filters EventFilters) ([]Event, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := strings.ToLower(filters.Query)
	matched := lo.Filter(lo.Values(r.events), func(e Event, _ int) bool {
		if query != "" && !strings.Contains(strings.ToLower(e.Name), query) &&
			!strings.Contains(strings.ToLower(e.ShortDescription), query) &&
			!strings.Contains(strings.ToLower(e.FullDescription), query) {
			return false
		}
		if len(filters.Categories) > 0 && len(lo.Intersect(e.Categories, filters.Categories)) == 0 {
			return false
		}
		if len(filters.Tags) > 0 && len(lo.Intersect(e.Tags, filters.Tags)) == 0 {
			return false
		}
		if filters.startAfter != nil && e.StartDate.Before(*filters.startAfter) {
			return false
		}
		if filters.startBefore != nil && !e.StartDate.Before(*filters.startBefore) {
			return false
		}
		if len(filters.statuses) > 0 && !lo.Contains(filters.statuses, e.Status) {
			return false
		}
		if filters.DisplayOnHomepage != nil && e.DisplayOnHomepage != *filters.DisplayOnHomepage {
			return false
		}
		if filters.IsFeatured != nil && e.IsFeaturedEvent != *filters.IsFeatured {
			return false
		}
		if filters.structureUUID != nil && e.StructureID != *filters.structureUUID {
			return false
		}
		if filters.City != "" && !strings.EqualFold(e.Address.City, filters.City) {
			return false
		}
		return true
	})
	sort.Slice(matched, func(i, j int) bool { return matched[i].StartDate.Before(matched[j].StartDate) })

	total := int64(len(matched))
	start := (filters.Page - 1) * filters.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := lo.Min([]int{start + filters.Limit, len(matched)})
	return lo.Map(matched[start:end], func(e Event, _ int) Event { return cloneEvent(e) }), total, nil
}

func (r *MemoryRepository) ListByStructure(ctx context.Context, structureID uuid.UUID) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]Event, 0)
	for _, e := range r.events {
		if e.StructureID == structureID {
			events = append(events, cloneEvent(e))
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartDate.Before(events[j].StartDate) })
	return events, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id uuid.UUID, fn UpdateFunc) (*Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	event := cloneEvent(stored)
	replaceZones, err := fn(&event)
	if err != nil {
		return nil, err
	}

	// identity and lifecycle fields are not written through Update
	event.ID, event.StructureID, event.Status = stored.ID, stored.StructureID, stored.Status
	event.CreatedBy, event.CreatedAt = stored.CreatedBy, stored.CreatedAt
	event.UpdatedAt = time.Now().UTC()
	if replaceZones {
		for i := range event.AudienceZones {
			event.AudienceZones[i].ID = uuid.Nil
			event.AudienceZones[i].CreatedAt = event.UpdatedAt
		}
		assignZoneIDs(&event)
	} else {
		event.AudienceZones = stored.AudienceZones
	}

	r.events[id] = cloneEvent(event)
	return &event, nil
}

func (r *MemoryRepository) TransitionStatus(ctx context.Context, id uuid.UUID, to Status, check func(*Event) error) (*Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	event := cloneEvent(stored)
	if err := check(&event); err != nil {
		return nil, err
	}
	stored.Status = to
	stored.UpdatedAt = time.Now().UTC()
	r.events[id] = stored

	event.Status = to
	event.UpdatedAt = stored.UpdatedAt
	return &event, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID, check func(*Event) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.events[id]
	if !ok {
		return ErrEventNotFound
	}
	event := cloneEvent(stored)
	if err := check(&event); err != nil {
		return err
	}
	delete(r.events, id)
	return nil
}

// AreaInUse reports whether any event zone sits in the area
func (r *MemoryRepository) AreaInUse(ctx context.Context, areaID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.events {
		if lo.ContainsBy(e.AudienceZones, func(z EventAudienceZone) bool { return z.AreaID == areaID }) {
			return true, nil
		}
	}
	return false, nil
}

// TemplateInUse reports whether any event zone was built from the template
func (r *MemoryRepository) TemplateInUse(ctx context.Context, templateID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.events {
		if lo.ContainsBy(e.AudienceZones, func(z EventAudienceZone) bool { return z.TemplateID == templateID }) {
			return true, nil
		}
	}
	return false, nil
}
