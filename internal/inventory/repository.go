package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ticketing/internal/shared/pgerrors"
)

// Repository interface for structure, area and zone template operations
type Repository interface {
	// Structures
	CreateStructure(ctx context.Context, structure *Structure) error
	GetStructureByID(ctx context.Context, id uuid.UUID) (*Structure, error)
	ListStructures(ctx context.Context, filters StructureFilters) ([]Structure, int64, error)
	UpdateStructure(ctx context.Context, structure *Structure) error

	// Areas
	CreateArea(ctx context.Context, area *Area) error
	GetAreaByID(ctx context.Context, id uuid.UUID) (*Area, error)
	ListAreasByStructure(ctx context.Context, structureID uuid.UUID) ([]Area, error)
	// UpdateArea applies fn to the locked area row and rejects a capacity
	// below what the area's templates already claim.
	UpdateArea(ctx context.Context, id uuid.UUID, fn func(*Area) error) (*Area, error)
	DeleteArea(ctx context.Context, id uuid.UUID) error

	// Audience zone templates. Create and update lock the parent area so the
	// capacity sum is checked against a stable set of templates.
	CreateTemplate(ctx context.Context, template *AudienceZoneTemplate) error
	GetTemplateByID(ctx context.Context, id uuid.UUID) (*AudienceZoneTemplate, error)
	ListTemplatesByArea(ctx context.Context, areaID uuid.UUID) ([]AudienceZoneTemplate, error)
	UpdateTemplate(ctx context.Context, id uuid.UUID, fn func(*AudienceZoneTemplate) error) (*AudienceZoneTemplate, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// ============= STRUCTURES =============

func (r *repository) CreateStructure(ctx context.Context, structure *Structure) error {
	if structure.ID == uuid.Nil {
		structure.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(structure).Error; err != nil {
		return fmt.Errorf("failed to create structure: %w", err)
	}
	return nil
}

func (r *repository) GetStructureByID(ctx context.Context, id uuid.UUID) (*Structure, error) {
	var structure Structure
	if err := r.db.WithContext(ctx).First(&structure, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStructureNotFound
		}
		return nil, fmt.Errorf("failed to get structure: %w", err)
	}
	return &structure, nil
}

func (r *repository) ListStructures(ctx context.Context, filters StructureFilters) ([]Structure, int64, error) {
	var structures []Structure
	var total int64

	query := r.db.WithContext(ctx).Model(&Structure{})
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if filters.City != "" {
		query = query.Where("address_city ILIKE ?", filters.City)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count structures: %w", err)
	}

	offset := (filters.Page - 1) * filters.Limit
	if err := query.Order("name ASC").Offset(offset).Limit(filters.Limit).Find(&structures).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list structures: %w", err)
	}
	return structures, total, nil
}

func (r *repository) UpdateStructure(ctx context.Context, structure *Structure) error {
	result := r.db.WithContext(ctx).Model(structure).Select("*").Omit("id", "created_by", "created_at").Updates(structure)
	if result.Error != nil {
		return fmt.Errorf("failed to update structure: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStructureNotFound
	}
	return nil
}

// ============= AREAS =============

func (r *repository) CreateArea(ctx context.Context, area *Area) error {
	if area.ID == uuid.Nil {
		area.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(area).Error; err != nil {
		if pgerrors.IsForeignKeyViolation(err) {
			return ErrStructureNotFound
		}
		return fmt.Errorf("failed to create area: %w", err)
	}
	return nil
}

func (r *repository) GetAreaByID(ctx context.Context, id uuid.UUID) (*Area, error) {
	var area Area
	if err := r.db.WithContext(ctx).First(&area, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAreaNotFound
		}
		return nil, fmt.Errorf("failed to get area: %w", err)
	}
	return &area, nil
}

func (r *repository) ListAreasByStructure(ctx context.Context, structureID uuid.UUID) ([]Area, error) {
	var areas []Area
	err := r.db.WithContext(ctx).
		Where("structure_id = ?", structureID).
		Order("name ASC").
		Find(&areas).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}
	return areas, nil
}

func (r *repository) UpdateArea(ctx context.Context, id uuid.UUID, fn func(*Area) error) (*Area, error) {
	var updated Area
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		area, err := lockArea(tx, id)
		if err != nil {
			return err
		}
		if err := fn(area); err != nil {
			return err
		}

		allocated, err := sumTemplateCapacity(tx, id, uuid.Nil)
		if err != nil {
			return err
		}
		if err := CheckAreaAllocation(area, allocated, 0); err != nil {
			return err
		}

		if err := tx.Model(area).Select("name", "description", "max_capacity", "is_active").Updates(area).Error; err != nil {
			return fmt.Errorf("failed to update area: %w", err)
		}
		updated = *area
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *repository) DeleteArea(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockArea(tx, id); err != nil {
			return err
		}
		// event zones reference areas and templates with ON DELETE RESTRICT
		if err := tx.Delete(&AudienceZoneTemplate{}, "area_id = ?", id).Error; err != nil {
			if pgerrors.IsForeignKeyViolation(err) {
				return &AreaInUseError{AreaID: id}
			}
			return fmt.Errorf("failed to delete area templates: %w", err)
		}
		if err := tx.Delete(&Area{}, "id = ?", id).Error; err != nil {
			if pgerrors.IsForeignKeyViolation(err) {
				return &AreaInUseError{AreaID: id}
			}
			return fmt.Errorf("failed to delete area: %w", err)
		}
		return nil
	})
}

// ============= TEMPLATES =============

func (r *repository) CreateTemplate(ctx context.Context, template *AudienceZoneTemplate) error {
	if template.ID == uuid.Nil {
		template.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		area, err := lockArea(tx, template.AreaID)
		if err != nil {
			return err
		}
		allocated, err := sumTemplateCapacity(tx, area.ID, uuid.Nil)
		if err != nil {
			return err
		}
		if err := CheckAreaAllocation(area, allocated, template.MaxCapacity); err != nil {
			return err
		}
		if err := tx.Create(template).Error; err != nil {
			return fmt.Errorf("failed to create zone template: %w", err)
		}
		return nil
	})
}

func (r *repository) GetTemplateByID(ctx context.Context, id uuid.UUID) (*AudienceZoneTemplate, error) {
	var template AudienceZoneTemplate
	if err := r.db.WithContext(ctx).First(&template, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get zone template: %w", err)
	}
	return &template, nil
}

func (r *repository) ListTemplatesByArea(ctx context.Context, areaID uuid.UUID) ([]AudienceZoneTemplate, error) {
	var templates []AudienceZoneTemplate
	err := r.db.WithContext(ctx).
		Where("area_id = ?", areaID).
		Order("name ASC").
		Find(&templates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list zone templates: %w", err)
	}
	return templates, nil
}

func (r *repository) UpdateTemplate(ctx context.Context, id uuid.UUID, fn func(*AudienceZoneTemplate) error) (*AudienceZoneTemplate, error) {
	var updated AudienceZoneTemplate
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var template AudienceZoneTemplate
		if err := tx.First(&template, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTemplateNotFound
			}
			return fmt.Errorf("failed to get zone template: %w", err)
		}

		area, err := lockArea(tx, template.AreaID)
		if err != nil {
			return err
		}
		if err := fn(&template); err != nil {
			return err
		}

		allocated, err := sumTemplateCapacity(tx, area.ID, template.ID)
		if err != nil {
			return err
		}
		if err := CheckAreaAllocation(area, allocated, template.MaxCapacity); err != nil {
			return err
		}

		if err := tx.Model(&template).Select("name", "max_capacity", "seating_type", "is_active").Updates(&template).Error; err != nil {
			return fmt.Errorf("failed to update zone template: %w", err)
		}
		updated = template
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *repository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&AudienceZoneTemplate{}, "id = ?", id)
	if result.Error != nil {
		if pgerrors.IsForeignKeyViolation(result.Error) {
			return &TemplateInUseError{TemplateID: id}
		}
		return fmt.Errorf("failed to delete zone template: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func lockArea(tx *gorm.DB, id uuid.UUID) (*Area, error) {
	var area Area
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&area, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAreaNotFound
		}
		return nil, fmt.Errorf("failed to lock area: %w", err)
	}
	return &area, nil
}

// sumTemplateCapacity sums template capacities of an area, skipping exclude
func sumTemplateCapacity(tx *gorm.DB, areaID, exclude uuid.UUID) (int, error) {
	var total int
	query := tx.Model(&AudienceZoneTemplate{}).
		Select("COALESCE(SUM(max_capacity), 0)").
		Where("area_id = ?", areaID)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	if err := query.Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to sum zone template capacity: %w", err)
	}
	return total, nil
}
