package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ticketing/internal/shared/pgerrors"
)

// UpdateFunc mutates a locked event. It reports whether the audience zones
// were replaced so the repository rewrites them.
type UpdateFunc func(e *Event) (replaceZones bool, err error)

type Repository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	List(ctx context.Context, filters EventFilters) ([]Event, int64, error)
	ListByStructure(ctx context.Context, structureID uuid.UUID) ([]Event, error)
	Update(ctx context.Context, id uuid.UUID, fn UpdateFunc) (*Event, error)
	// TransitionStatus moves the event to `to` only if the stored status is
	// still the one check saw.
	TransitionStatus(ctx context.Context, id uuid.UUID, to Status, check func(*Event) error) (*Event, error)
	Delete(ctx context.Context, id uuid.UUID, check func(*Event) error) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, event *Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	assignZoneIDs(event)

	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		if pgerrors.IsForeignKeyViolation(err) {
			return &ZoneConfigError{Reason: "referenced structure, area or template no longer exists"}
		}
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	return getEvent(r.db.WithContext(ctx), id)
}

func getEvent(db *gorm.DB, id uuid.UUID) (*Event, error) {
	var event Event
	err := db.Preload("AudienceZones", func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC")
	}).First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

func lockEvent(tx *gorm.DB, id uuid.UUID) (*Event, error) {
	var event Event
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}
	if err := tx.Where("event_id = ?", id).Order("name ASC").Find(&event.AudienceZones).Error; err != nil {
		return nil, fmt.Errorf("failed to load audience zones: %w", err)
	}
	return &event, nil
}

func (r *repository) List(ctx context.Context, filters EventFilters) ([]Event, int64, error) {
	var events []Event
	var total int64

	db := r.db.WithContext(ctx).Model(&Event{})

	if filters.Query != "" {
		term := "%" + strings.ToLower(filters.Query) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(short_description) LIKE ? OR LOWER(full_description) LIKE ?",
			term, term, term)
	}
	if len(filters.Categories) > 0 {
		db = db.Where("EXISTS (SELECT 1 FROM jsonb_array_elements_text(categories) c WHERE c IN ?)", filters.Categories)
	}
	if len(filters.Tags) > 0 {
		db = db.Where("EXISTS (SELECT 1 FROM jsonb_array_elements_text(tags) t WHERE t IN ?)", filters.Tags)
	}
	if filters.startAfter != nil {
		db = db.Where("start_date >= ?", *filters.startAfter)
	}
	if filters.startBefore != nil {
		db = db.Where("start_date < ?", *filters.startBefore)
	}
	if len(filters.statuses) > 0 {
		db = db.Where("status IN ?", filters.statuses)
	}
	if filters.DisplayOnHomepage != nil {
		db = db.Where("display_on_homepage = ?", *filters.DisplayOnHomepage)
	}
	if filters.IsFeatured != nil {
		db = db.Where("is_featured_event = ?", *filters.IsFeatured)
	}
	if filters.structureUUID != nil {
		db = db.Where("structure_id = ?", *filters.structureUUID)
	}
	if filters.City != "" {
		db = db.Where("LOWER(address_city) = ?", strings.ToLower(filters.City))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	offset := (filters.Page - 1) * filters.Limit
	err := db.Preload("AudienceZones").
		Order("start_date ASC").
		Offset(offset).
		Limit(filters.Limit).
		Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	return events, total, nil
}

func (r *repository) ListByStructure(ctx context.Context, structureID uuid.UUID) ([]Event, error) {
	var events []Event
	err := r.db.WithContext(ctx).
		Preload("AudienceZones").
		Where("structure_id = ?", structureID).
		Order("start_date ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list structure events: %w", err)
	}
	return events, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, fn UpdateFunc) (*Event, error) {
	var updated *Event
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := lockEvent(tx, id)
		if err != nil {
			return err
		}

		replaceZones, err := fn(event)
		if err != nil {
			return err
		}

		if err := tx.Model(event).Omit(clause.Associations, "id", "structure_id", "status", "created_by", "created_at").
			Select("*").Updates(event).Error; err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}

		if replaceZones {
			if err := tx.Where("event_id = ?", id).Delete(&EventAudienceZone{}).Error; err != nil {
				if pgerrors.IsForeignKeyViolation(err) {
					// tickets already reference a zone
					return &FieldImmutableError{Field: FieldAudienceZones.String(), Status: event.Status}
				}
				return fmt.Errorf("failed to replace audience zones: %w", err)
			}
			assignZoneIDs(event)
			if len(event.AudienceZones) > 0 {
				if err := tx.Create(&event.AudienceZones).Error; err != nil {
					return fmt.Errorf("failed to create audience zones: %w", err)
				}
			}
		}

		updated, err = getEvent(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, to Status, check func(*Event) error) (*Event, error) {
	var updated *Event
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := lockEvent(tx, id)
		if err != nil {
			return err
		}
		if err := check(event); err != nil {
			return err
		}

		from := event.Status
		result := tx.Model(&Event{}).
			Where("id = ? AND status = ?", id, from).
			Update("status", to)
		if result.Error != nil {
			return fmt.Errorf("failed to update event status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return &InvalidStatusTransitionError{From: from, To: to}
		}

		event.Status = to
		updated = event
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID, check func(*Event) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := lockEvent(tx, id)
		if err != nil {
			return err
		}
		if err := check(event); err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&EventAudienceZone{}).Error; err != nil {
			return fmt.Errorf("failed to delete audience zones: %w", err)
		}
		if err := tx.Delete(&Event{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
		return nil
	})
}

func assignZoneIDs(event *Event) {
	for i := range event.AudienceZones {
		if event.AudienceZones[i].ID == uuid.Nil {
			event.AudienceZones[i].ID = uuid.New()
		}
		event.AudienceZones[i].EventID = event.ID
	}
}
