package inventory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// UsageChecker reports whether event zones still reference inventory rows.
// In Postgres the foreign keys do this; the memory store asks the events store.
type UsageChecker interface {
	AreaInUse(ctx context.Context, areaID uuid.UUID) (bool, error)
	TemplateInUse(ctx context.Context, templateID uuid.UUID) (bool, error)
}

// MemoryRepository keeps inventory in process memory. A single mutex
// serializes writes, which gives the same guarantee as the area row lock.
type MemoryRepository struct {
	mu         sync.RWMutex
	structures map[uuid.UUID]Structure
	areas      map[uuid.UUID]Area
	templates  map[uuid.UUID]AudienceZoneTemplate
	usage      UsageChecker
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		structures: make(map[uuid.UUID]Structure),
		areas:      make(map[uuid.UUID]Area),
		templates:  make(map[uuid.UUID]AudienceZoneTemplate),
	}
}

func (r *MemoryRepository) SetUsageChecker(usage UsageChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usage = usage
}

func (r *MemoryRepository) CreateStructure(ctx context.Context, structure *Structure) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if structure.ID == uuid.Nil {
		structure.ID = uuid.New()
	}
	now := time.Now().UTC()
	structure.CreatedAt, structure.UpdatedAt = now, now
	r.structures[structure.ID] = *structure
	return nil
}

func (r *MemoryRepository) GetStructureByID(ctx context.Context, id uuid.UUID) (*Structure, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.structures[id]
	if !ok {
		return nil, ErrStructureNotFound
	}
	return &s, nil
}

func (r *MemoryRepository) ListStructures(ctx context.Context, filters StructureFilters) ([]Structure, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(filters.Search)
	var matched []Structure
	for _, s := range r.structures {
		if search != "" && !strings.Contains(strings.ToLower(s.Name), search) &&
			!strings.Contains(strings.ToLower(s.Description), search) {
			continue
		}
		if filters.City != "" && !strings.EqualFold(s.Address.City, filters.City) {
			continue
		}
		matched = append(matched, s)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	return paginate(matched, filters.Page, filters.Limit), int64(len(matched)), nil
}

func (r *MemoryRepository) UpdateStructure(ctx context.Context, structure *Structure) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.structures[structure.ID]
	if !ok {
		return ErrStructureNotFound
	}
	structure.CreatedBy = existing.CreatedBy
	structure.CreatedAt = existing.CreatedAt
	structure.UpdatedAt = time.Now().UTC()
	r.structures[structure.ID] = *structure
	return nil
}

func (r *MemoryRepository) CreateArea(ctx context.Context, area *Area) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.structures[area.StructureID]; !ok {
		return ErrStructureNotFound
	}
	if area.ID == uuid.Nil {
		area.ID = uuid.New()
	}
	now := time.Now().UTC()
	area.CreatedAt, area.UpdatedAt = now, now
	r.areas[area.ID] = *area
	return nil
}

func (r *MemoryRepository) GetAreaByID(ctx context.Context, id uuid.UUID) (*Area, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.areas[id]
	if !ok {
		return nil, ErrAreaNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) ListAreasByStructure(ctx context.Context, structureID uuid.UUID) ([]Area, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	areas := make([]Area, 0)
	for _, a := range r.areas {
		if a.StructureID == structureID {
			areas = append(areas, a)
		}
	}
	sort.Slice(areas, func(i, j int) bool { return areas[i].Name < areas[j].Name })
	return areas, nil
}

func (r *MemoryRepository) UpdateArea(ctx context.Context, id uuid.UUID, fn func(*Area) error) (*Area, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	area, ok := r.areas[id]
	if !ok {
		return nil, ErrAreaNotFound
	}
	if err := fn(&area); err != nil {
		return nil, err
	}
	if err := CheckAreaAllocation(&area, r.templateCapacityLocked(id, uuid.Nil), 0); err != nil {
		return nil, err
	}
	area.UpdatedAt = time.Now().UTC()
	r.areas[id] = area
	return &area, nil
}

func (r *MemoryRepository) DeleteArea(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.areas[id]; !ok {
		return ErrAreaNotFound
	}
	if r.usage != nil {
		inUse, err := r.usage.AreaInUse(ctx, id)
		if err != nil {
			return err
		}
		if inUse {
			return &AreaInUseError{AreaID: id}
		}
	}
	for tid, t := range r.templates {
		if t.AreaID == id {
			delete(r.templates, tid)
		}
	}
	delete(r.areas, id)
	return nil
}

func (r *MemoryRepository) CreateTemplate(ctx context.Context, template *AudienceZoneTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	area, ok := r.areas[template.AreaID]
	if !ok {
		return ErrAreaNotFound
	}
	if err := CheckAreaAllocation(&area, r.templateCapacityLocked(area.ID, uuid.Nil), template.MaxCapacity); err != nil {
		return err
	}
	if template.ID == uuid.Nil {
		template.ID = uuid.New()
	}
	now := time.Now().UTC()
	template.CreatedAt, template.UpdatedAt = now, now
	r.templates[template.ID] = *template
	return nil
}

func (r *MemoryRepository) GetTemplateByID(ctx context.Context, id uuid.UUID) (*AudienceZoneTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[id]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	return &t, nil
}

func (r *MemoryRepository) ListTemplatesByArea(ctx context.Context, areaID uuid.UUID) ([]AudienceZoneTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	templates := make([]AudienceZoneTemplate, 0)
	for _, t := range r.templates {
		if t.AreaID == areaID {
			templates = append(templates, t)
		}
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	return templates, nil
}

func (r *MemoryRepository) UpdateTemplate(ctx context.Context, id uuid.UUID, fn func(*AudienceZoneTemplate) error) (*AudienceZoneTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	template, ok := r.templates[id]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	area, ok := r.areas[template.AreaID]
	if !ok {
		return nil, ErrAreaNotFound
	}
	if err := fn(&template); err != nil {
		return nil, err
	}
	if err := CheckAreaAllocation(&area, r.templateCapacityLocked(area.ID, id), template.MaxCapacity); err != nil {
		return nil, err
	}
	template.UpdatedAt = time.Now().UTC()
	r.templates[id] = template
	return &template, nil
}

func (r *MemoryRepository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.templates[id]; !ok {
		return ErrTemplateNotFound
	}
	if r.usage != nil {
		inUse, err := r.usage.TemplateInUse(ctx, id)
		if err != nil {
			return err
		}
		if inUse {
			return &TemplateInUseError{TemplateID: id}
		}
	}
	delete(r.templates, id)
	return nil
}

func (r *MemoryRepository) templateCapacityLocked(areaID, exclude uuid.UUID) int {
	total := 0
	for id, t := range r.templates {
		if t.AreaID == areaID && id != exclude {
			total += t.MaxCapacity
		}
	}
	return total
}

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return items
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
