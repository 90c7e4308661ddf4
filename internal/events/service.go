package events

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"ticketing/internal/inventory"
	"ticketing/internal/shared/constants"
	"ticketing/internal/shared/utils/response"
	"ticketing/internal/users"
	"ticketing/pkg/cache"
	"ticketing/pkg/logger"
)

// Inventory is the part of the inventory service events depend on
type Inventory interface {
	GetStructure(ctx context.Context, id uuid.UUID) (*inventory.StructureDetail, error)
	ResolveTemplate(ctx context.Context, templateID uuid.UUID) (*inventory.AudienceZoneTemplate, *inventory.Area, error)
}

type Service interface {
	CreateEvent(ctx context.Context, actor users.Actor, req CreateEventRequest) (*Event, error)
	// GetEvent hides unpublished events from anyone who does not manage them
	GetEvent(ctx context.Context, viewer *users.Actor, id uuid.UUID) (*Event, error)
	ListEvents(ctx context.Context, viewer *users.Actor, filters EventFilters) (*response.Page, error)
	UpdateEvent(ctx context.Context, actor users.Actor, id uuid.UUID, req UpdateEventRequest) (*Event, error)
	ChangeStatus(ctx context.Context, actor users.Actor, id uuid.UUID, to Status) (*Event, error)
	DeleteEvent(ctx context.Context, actor users.Actor, id uuid.UUID) error
	GetMutableFields(ctx context.Context, actor users.Actor, id uuid.UUID) (*MutableFieldsResponse, error)
}

type service struct {
	repo      Repository
	inventory Inventory
	cache     cache.Service
	log       *logger.Logger
	now       func() time.Time
}

func NewService(repo Repository, inv Inventory, cacheService cache.Service) Service {
	if cacheService == nil {
		cacheService = cache.NewNoopService()
	}
	return &service{
		repo:      repo,
		inventory: inv,
		cache:     cacheService,
		log:       logger.GetDefault(),
		now:       time.Now,
	}
}

func (s *service) CreateEvent(ctx context.Context, actor users.Actor, req CreateEventRequest) (*Event, error) {
	structureID, err := uuid.Parse(req.StructureID)
	if err != nil {
		return nil, inventory.ErrStructureNotFound
	}
	if !actor.CanManageStructure(structureID) {
		return nil, ErrNotEventManager
	}
	if _, err := s.inventory.GetStructure(ctx, structureID); err != nil {
		return nil, err
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, ErrInvalidDateRange
	}

	zones, err := s.buildZones(ctx, structureID, req.AudienceZones)
	if err != nil {
		return nil, err
	}

	event := &Event{
		StructureID:       structureID,
		Name:              strings.TrimSpace(req.Name),
		Categories:        normalizeList(req.Categories),
		ShortDescription:  req.ShortDescription,
		FullDescription:   req.FullDescription,
		Tags:              normalizeList(req.Tags),
		StartDate:         req.StartDate.UTC(),
		EndDate:           req.EndDate.UTC(),
		Address:           req.Address.toModel(),
		DisplayOnHomepage: req.DisplayOnHomepage,
		IsFeaturedEvent:   req.IsFeaturedEvent,
		MainPhotoURL:      req.MainPhotoURL,
		Images:            lo.Uniq(req.Images),
		Status:            StatusDraft,
		AudienceZones:     zones,
		CreatedBy:         actor.UserID,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}

	s.log.LogEventCreated(ctx, event.ID.String(), actor.UserID.String())
	return event, nil
}

func (s *service) GetEvent(ctx context.Context, viewer *users.Actor, id uuid.UUID) (*Event, error) {
	var event Event
	err := s.cache.GetOrSet(ctx, constants.BuildEventDetailKey(id.String()), constants.TTL_EVENT_DETAIL,
		func(ctx context.Context) (interface{}, error) {
			return s.repo.GetByID(ctx, id)
		}, &event)
	if err != nil {
		return nil, err
	}
	if !event.Status.IsPublic() && !canManage(viewer, event.StructureID) {
		return nil, ErrEventNotFound
	}
	return &event, nil
}

func (s *service) ListEvents(ctx context.Context, viewer *users.Actor, filters EventFilters) (*response.Page, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	filters.Categories = splitCSV(filters.Categories)
	filters.Tags = splitCSV(filters.Tags)

	if filters.StartDateAfter != "" {
		t, err := parseDateFilter(filters.StartDateAfter)
		if err != nil {
			return nil, err
		}
		filters.startAfter = &t
	}
	if filters.StartDateBefore != "" {
		t, err := parseDateFilter(filters.StartDateBefore)
		if err != nil {
			return nil, err
		}
		filters.startBefore = &t
	}
	if filters.StructureID != "" {
		id, err := uuid.Parse(filters.StructureID)
		if err != nil {
			return nil, inventory.ErrStructureNotFound
		}
		filters.structureUUID = &id
	}

	var requested []Status
	for _, raw := range splitCSV([]string{filters.Status}) {
		st := Status(strings.ToUpper(raw))
		if !st.IsValid() {
			return nil, ErrInvalidStatus
		}
		requested = append(requested, st)
	}

	seesAll := viewer != nil && (viewer.IsAdmin() ||
		(filters.structureUUID != nil && viewer.CanManageStructure(*filters.structureUUID)))
	switch {
	case seesAll:
		filters.statuses = requested
	case len(requested) == 0:
		filters.statuses = []Status{StatusPublished, StatusCompleted, StatusCancelled}
	default:
		filters.statuses = lo.Filter(requested, func(st Status, _ int) bool { return st.IsPublic() })
		if len(filters.statuses) == 0 {
			page := response.NewPage([]Event{}, filters.Page, filters.Limit, 0)
			return &page, nil
		}
	}

	events, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	page := response.NewPage(events, filters.Page, filters.Limit, total)
	return &page, nil
}

func (s *service) UpdateEvent(ctx context.Context, actor users.Actor, id uuid.UUID, req UpdateEventRequest) (*Event, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageStructure(current.StructureID) {
		return nil, ErrNotEventManager
	}

	var zones []EventAudienceZone
	if req.AudienceZones != nil {
		zones, err = s.buildZones(ctx, current.StructureID, *req.AudienceZones)
		if err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, id, func(e *Event) (bool, error) {
		changed := changedFields(e, req, zones)
		if err := CheckWrite(e.Status, changed...); err != nil {
			var fie *FieldImmutableError
			if errors.As(err, &fie) {
				s.log.LogFieldImmutable(ctx, e.ID.String(), fie.Field, string(fie.Status))
			}
			return false, err
		}
		replaceZones := lo.Contains(changed, FieldAudienceZones)
		applyUpdate(e, req, zones, replaceZones)
		if !e.StartDate.Before(e.EndDate) {
			return false, ErrInvalidDateRange
		}
		return replaceZones, nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return updated, nil
}

func (s *service) ChangeStatus(ctx context.Context, actor users.Actor, id uuid.UUID, to Status) (*Event, error) {
	if !to.IsValid() {
		return nil, ErrInvalidStatus
	}

	var from Status
	updated, err := s.repo.TransitionStatus(ctx, id, to, func(e *Event) error {
		if !actor.CanManageStructure(e.StructureID) {
			return ErrNotEventManager
		}
		from = e.Status
		if !CanTransition(e.Status, to) {
			return &InvalidStatusTransitionError{From: e.Status, To: to}
		}
		if to == StatusPublished {
			if len(e.AudienceZones) == 0 {
				return ErrPublishWithoutZone
			}
			if e.HasEnded(s.now()) {
				return ErrPublishEnded
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.LogEventStatusChanged(ctx, id.String(), string(from), string(to))
	s.invalidate(ctx, id)
	return updated, nil
}

func (s *service) DeleteEvent(ctx context.Context, actor users.Actor, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id, func(e *Event) error {
		if !actor.CanManageStructure(e.StructureID) {
			return ErrNotEventManager
		}
		if e.Status != StatusDraft {
			return ErrEventNotDeletable
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *service) GetMutableFields(ctx context.Context, actor users.Actor, id uuid.UUID) (*MutableFieldsResponse, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageStructure(event.StructureID) {
		return nil, ErrNotEventManager
	}

	resp := &MutableFieldsResponse{
		EventID:            event.ID.String(),
		Status:             event.Status,
		MutableFields:      []string{},
		ImmutableFields:    []string{},
		AllowedTransitions: AllowedTransitions(event.Status),
	}
	for _, f := range AllFields() {
		if IsFieldMutable(event.Status, f) {
			resp.MutableFields = append(resp.MutableFields, f.String())
		} else {
			resp.ImmutableFields = append(resp.ImmutableFields, f.String())
		}
	}
	return resp, nil
}

func (s *service) buildZones(ctx context.Context, structureID uuid.UUID, reqs []ZoneConfigRequest) ([]EventAudienceZone, error) {
	zones := make([]EventAudienceZone, 0, len(reqs))
	for _, zr := range reqs {
		templateID, err := uuid.Parse(zr.TemplateID)
		if err != nil {
			return nil, &ZoneConfigError{Reason: "template id is not a valid uuid"}
		}

		template, area, err := s.inventory.ResolveTemplate(ctx, templateID)
		if err != nil {
			if errors.Is(err, inventory.ErrTemplateNotFound) || errors.Is(err, inventory.ErrAreaNotFound) {
				return nil, &ZoneConfigError{TemplateID: templateID, Reason: "template not found"}
			}
			return nil, err
		}
		if area.StructureID != structureID {
			return nil, &ZoneConfigError{TemplateID: templateID, Reason: "template belongs to another structure"}
		}
		if !template.IsActive || !area.IsActive {
			return nil, &ZoneConfigError{TemplateID: templateID, Reason: "template or its area is inactive"}
		}
		if zr.AllocatedCapacity > template.MaxCapacity {
			return nil, &ZoneConfigError{
				TemplateID:  templateID,
				Reason:      "allocated capacity exceeds the template capacity",
				Allocated:   zr.AllocatedCapacity,
				TemplateMax: template.MaxCapacity,
			}
		}

		zone := EventAudienceZone{
			TemplateID:        template.ID,
			AreaID:            area.ID,
			Name:              strings.TrimSpace(zr.Name),
			AllocatedCapacity: zr.AllocatedCapacity,
			SeatingType:       template.SeatingType,
			IsActive:          lo.FromPtrOr(zr.IsActive, true),
		}
		if zone.Name == "" {
			zone.Name = template.Name
		}
		if zr.SeatingType != "" {
			zone.SeatingType = inventory.SeatingType(zr.SeatingType)
		}
		zones = append(zones, zone)
	}
	sortZones(zones)
	return zones, nil
}

func (s *service) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.DeletePattern(ctx, constants.PATTERN_INVALIDATE_EVENT_DETAIL+id.String()+"*"); err != nil {
		s.log.WarnContext(ctx, "failed to invalidate event cache", "event_id", id.String(), "error", err)
	}
}

// changedFields lists the gated fields the request would actually change
func changedFields(e *Event, req UpdateEventRequest, zones []EventAudienceZone) []Field {
	var changed []Field
	if req.Name != nil && strings.TrimSpace(*req.Name) != e.Name {
		changed = append(changed, FieldName)
	}
	if req.Categories != nil && !sameList(normalizeList(*req.Categories), e.Categories) {
		changed = append(changed, FieldCategories)
	}
	if (req.ShortDescription != nil && *req.ShortDescription != e.ShortDescription) ||
		(req.FullDescription != nil && *req.FullDescription != e.FullDescription) {
		changed = append(changed, FieldDescription)
	}
	if req.Tags != nil && !sameList(normalizeList(*req.Tags), e.Tags) {
		changed = append(changed, FieldTags)
	}
	if req.StartDate != nil && !req.StartDate.Equal(e.StartDate) {
		changed = append(changed, FieldStartDate)
	}
	if req.EndDate != nil && !req.EndDate.Equal(e.EndDate) {
		changed = append(changed, FieldEndDate)
	}
	if req.Address != nil && req.Address.toModel() != e.Address {
		changed = append(changed, FieldAddress)
	}
	if req.AudienceZones != nil && !sameZones(zones, e.AudienceZones) {
		changed = append(changed, FieldAudienceZones)
	}
	if req.DisplayOnHomepage != nil && *req.DisplayOnHomepage != e.DisplayOnHomepage {
		changed = append(changed, FieldDisplayOnHomepage)
	}
	if req.IsFeaturedEvent != nil && *req.IsFeaturedEvent != e.IsFeaturedEvent {
		changed = append(changed, FieldIsFeaturedEvent)
	}
	if (req.MainPhotoURL != nil && *req.MainPhotoURL != e.MainPhotoURL) ||
		(req.Images != nil && !sameList(lo.Uniq(*req.Images), e.Images)) {
		changed = append(changed, FieldImages)
	}
	return changed
}

func applyUpdate(e *Event, req UpdateEventRequest, zones []EventAudienceZone, replaceZones bool) {
	if req.Name != nil {
		e.Name = strings.TrimSpace(*req.Name)
	}
	if req.Categories != nil {
		e.Categories = normalizeList(*req.Categories)
	}
	if req.ShortDescription != nil {
		e.ShortDescription = *req.ShortDescription
	}
	if req.FullDescription != nil {
		e.FullDescription = *req.FullDescription
	}
	if req.Tags != nil {
		e.Tags = normalizeList(*req.Tags)
	}
	if req.StartDate != nil {
		e.StartDate = req.StartDate.UTC()
	}
	if req.EndDate != nil {
		e.EndDate = req.EndDate.UTC()
	}
	if req.Address != nil {
		e.Address = req.Address.toModel()
	}
	if replaceZones {
		e.AudienceZones = zones
	}
	if req.DisplayOnHomepage != nil {
		e.DisplayOnHomepage = *req.DisplayOnHomepage
	}
	if req.IsFeaturedEvent != nil {
		e.IsFeaturedEvent = *req.IsFeaturedEvent
	}
	if req.MainPhotoURL != nil {
		e.MainPhotoURL = *req.MainPhotoURL
	}
	if req.Images != nil {
		e.Images = lo.Uniq(*req.Images)
	}
}

func canManage(viewer *users.Actor, structureID uuid.UUID) bool {
	return viewer != nil && viewer.CanManageStructure(structureID)
}

func normalizeList(items []string) []string {
	out := lo.Uniq(lo.FilterMap(items, func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	}))
	if out == nil {
		return []string{}
	}
	return out
}

func sameList(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sortZones(zones []EventAudienceZone) {
	sort.SliceStable(zones, func(i, j int) bool { return zones[i].Name < zones[j].Name })
}

// sameZones compares zone definitions, ignoring generated ids
func sameZones(a, b []EventAudienceZone) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].TemplateID != b[i].TemplateID || a[i].Name != b[i].Name ||
			a[i].AllocatedCapacity != b[i].AllocatedCapacity || a[i].SeatingType != b[i].SeatingType ||
			a[i].IsActive != b[i].IsActive {
			return false
		}
	}
	return true
}

func splitCSV(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseDateFilter(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, ErrInvalidDateFilter
}
