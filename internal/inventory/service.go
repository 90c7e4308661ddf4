package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"ticketing/internal/shared/constants"
	"ticketing/internal/shared/utils/response"
	"ticketing/internal/users"
	"ticketing/pkg/cache"
	"ticketing/pkg/logger"
)

type Service interface {
	// Structures
	CreateStructure(ctx context.Context, actor users.Actor, req CreateStructureRequest) (*Structure, error)
	GetStructure(ctx context.Context, id uuid.UUID) (*StructureDetail, error)
	ListStructures(ctx context.Context, filters StructureFilters) (*response.Page, error)
	UpdateStructure(ctx context.Context, actor users.Actor, id uuid.UUID, req UpdateStructureRequest) (*Structure, error)

	// Areas
	CreateArea(ctx context.Context, actor users.Actor, structureID uuid.UUID, req CreateAreaRequest) (*Area, error)
	GetArea(ctx context.Context, id uuid.UUID) (*Area, error)
	ListAreas(ctx context.Context, structureID uuid.UUID) ([]Area, error)
	UpdateArea(ctx context.Context, actor users.Actor, id uuid.UUID, req UpdateAreaRequest) (*Area, error)
	DeleteArea(ctx context.Context, actor users.Actor, id uuid.UUID) error

	// Audience zone templates
	CreateTemplate(ctx context.Context, actor users.Actor, areaID uuid.UUID, req CreateTemplateRequest) (*AudienceZoneTemplate, error)
	ListTemplates(ctx context.Context, areaID uuid.UUID) ([]AudienceZoneTemplate, error)
	UpdateTemplate(ctx context.Context, actor users.Actor, id uuid.UUID, req UpdateTemplateRequest) (*AudienceZoneTemplate, error)
	DeleteTemplate(ctx context.Context, actor users.Actor, id uuid.UUID) error

	// ResolveTemplate returns a template together with the area it belongs to
	ResolveTemplate(ctx context.Context, templateID uuid.UUID) (*AudienceZoneTemplate, *Area, error)
}

type service struct {
	repo  Repository
	cache cache.Service
	log   *logger.Logger
}

func NewService(repo Repository, cacheService cache.Service) Service {
	if cacheService == nil {
		cacheService = cache.NewNoopService()
	}
	return &service{repo: repo, cache: cacheService, log: logger.GetDefault()}
}

// ============= STRUCTURES =============

func (s *service) CreateStructure(ctx context.Context, actor users.Actor, req CreateStructureRequest) (*Structure, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotStructureManager
	}

	structure := &Structure{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Address:     req.Address.toModel(),
		Phone:       req.Phone,
		Email:       strings.ToLower(req.Email),
		WebsiteURL:  req.WebsiteURL,
		CreatedBy:   actor.UserID,
	}
	if err := s.repo.CreateStructure(ctx, structure); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Structure Created", "structure_id", structure.ID.String(), "user_id", actor.UserID.String())
	return structure, nil
}

func (s *service) GetStructure(ctx context.Context, id uuid.UUID) (*StructureDetail, error) {
	var detail StructureDetail
	err := s.cache.GetOrSet(ctx, constants.BuildStructureDetailKey(id.String()), constants.TTL_STRUCTURE_DETAIL,
		func(ctx context.Context) (interface{}, error) {
			return s.loadStructureDetail(ctx, id)
		}, &detail)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (s *service) loadStructureDetail(ctx context.Context, id uuid.UUID) (*StructureDetail, error) {
	structure, err := s.repo.GetStructureByID(ctx, id)
	if err != nil {
		return nil, err
	}
	areas, err := s.repo.ListAreasByStructure(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &StructureDetail{Structure: *structure, Areas: make([]AreaDetail, 0, len(areas))}
	for _, area := range areas {
		templates, err := s.repo.ListTemplatesByArea(ctx, area.ID)
		if err != nil {
			return nil, err
		}
		detail.Areas = append(detail.Areas, AreaDetail{
			Area:      area,
			Templates: templates,
			AllocatedCapacity: lo.SumBy(templates, func(t AudienceZoneTemplate) int {
				return t.MaxCapacity
			}),
		})
	}
	return detail, nil
}

func (s *service) ListStructures(ctx context.Context, filters StructureFilters) (*response.Page, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.Limit <= 0 {
		filters.Limit = 20
	}

	structures, total, err := s.repo.ListStructures(ctx, filters)
	if err != nil {
		return nil, err
	}
	page := response.NewPage(structures, filters.Page, filters.Limit, total)
	return &page, nil
}

func (s *service) UpdateStructure(ctx context.Context, actor users.Actor, id uuid.UUID, req UpdateStructureRequest) (*Structure, error) {
	structure, err := s.repo.GetStructureByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageStructure(structure.ID) {
		return nil, ErrNotStructureManager
	}

	if req.Name != nil {
		structure.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		structure.Description = *req.Description
	}
	if req.Address != nil {
		structure.Address = req.Address.toModel()
	}
	if req.Phone != nil {
		structure.Phone = *req.Phone
	}
	if req.Email != nil {
		structure.Email = strings.ToLower(*req.Email)
	}
	if req.WebsiteURL != nil {
		structure.WebsiteURL = *req.WebsiteURL
	}

	if err := s.repo.UpdateStructure(ctx, structure); err != nil {
		return nil, err
	}
	s.invalidateStructure(ctx, id)
	return structure, nil
}

// ============= AREAS =============

func (s *service) CreateArea(ctx context.Context, actor users.Actor, structureID uuid.UUID, req CreateAreaRequest) (*Area, error) {
	if _, err := s.repo.GetStructureByID(ctx, structureID); err != nil {
		return nil, err
	}
	if !actor.CanManageStructure(structureID) {
		return nil, ErrNotStructureManager
	}

	area := &Area{
		StructureID: structureID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		MaxCapacity: req.MaxCapacity,
		IsActive:    lo.FromPtrOr(req.IsActive, true),
	}
	if err := s.repo.CreateArea(ctx, area); err != nil {
		return nil, err
	}
	s.invalidateStructure(ctx, structureID)
	return area, nil
}

func (s *service) GetArea(ctx context.Context, id uuid.UUID) (*Area, error) {
	return s.repo.GetAreaByID(ctx, id)
}

func (s *service) ListAreas(ctx context.Context, structureID uuid.UUID) ([]Area, error) {
	if _, err := s.repo.GetStructureByID(ctx, structureID); err != nil {
		return nil, err
	}
	return s.repo.ListAreasByStructure(ctx, structureID)
}

func (s *service) UpdateArea(ctx context.Context, actor users.Actor, id uuid.UUID, req UpdateAreaRequest) (*Area, error) {
	area, err := s.authorizeArea(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateArea(ctx, id, func(a *Area) error {
		if req.Name != nil {
			a.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			a.Description = *req.Description
		}
		if req.MaxCapacity != nil {
			a.MaxCapacity = *req.MaxCapacity
		}
		if req.IsActive != nil {
			a.IsActive = *req.IsActive
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateStructure(ctx, area.StructureID)
	return updated, nil
}

func (s *service) DeleteArea(ctx context.Context, actor users.Actor, id uuid.UUID) error {
	area, err := s.authorizeArea(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteArea(ctx, id); err != nil {
		return err
	}
	s.invalidateStructure(ctx, area.StructureID)
	return nil
}

// ============= TEMPLATES =============

func (s *service) CreateTemplate(ctx context.Context, actor users.Actor, areaID uuid.UUID, req CreateTemplateRequest) (*AudienceZoneTemplate, error) {
	area, err := s.authorizeArea(ctx, actor, areaID)
	if err != nil {
		return nil, err
	}

	seating := SeatingType(strings.ToUpper(req.SeatingType))
	if !seating.IsValid() {
		return nil, ErrInvalidSeatingType
	}

	template := &AudienceZoneTemplate{
		AreaID:      areaID,
		Name:        strings.TrimSpace(req.Name),
		MaxCapacity: req.MaxCapacity,
		SeatingType: seating,
		IsActive:    lo.FromPtrOr(req.IsActive, true),
	}
	if err := s.repo.CreateTemplate(ctx, template); err != nil {
		return nil, err
	}
	s.invalidateStructure(ctx, area.StructureID)
	return template, nil
}

func (s *service) ListTemplates(ctx context.Context, areaID uuid.UUID) ([]AudienceZoneTemplate, error) {
	if _, err := s.repo.GetAreaByID(ctx, areaID); err != nil {
		return nil, err
	}

	var templates []AudienceZoneTemplate
	err := s.cache.GetOrSet(ctx, constants.BuildAreaTemplatesKey(areaID.String()), constants.TTL_AREA_TEMPLATES,
		func(ctx context.Context) (interface{}, error) {
			return s.repo.ListTemplatesByArea(ctx, areaID)
		}, &templates)
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (s *service) UpdateTemplate(ctx context.Context, actor users.Actor, id uuid.UUID, req UpdateTemplateRequest) (*AudienceZoneTemplate, error) {
	template, err := s.repo.GetTemplateByID(ctx, id)
	if err != nil {
		return nil, err
	}
	area, err := s.authorizeArea(ctx, actor, template.AreaID)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateTemplate(ctx, id, func(t *AudienceZoneTemplate) error {
		if req.Name != nil {
			t.Name = strings.TrimSpace(*req.Name)
		}
		if req.MaxCapacity != nil {
			t.MaxCapacity = *req.MaxCapacity
		}
		if req.SeatingType != nil {
			seating := SeatingType(strings.ToUpper(*req.SeatingType))
			if !seating.IsValid() {
				return ErrInvalidSeatingType
			}
			t.SeatingType = seating
		}
		if req.IsActive != nil {
			t.IsActive = *req.IsActive
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateStructure(ctx, area.StructureID)
	return updated, nil
}

func (s *service) DeleteTemplate(ctx context.Context, actor users.Actor, id uuid.UUID) error {
	template, err := s.repo.GetTemplateByID(ctx, id)
	if err != nil {
		return err
	}
	area, err := s.authorizeArea(ctx, actor, template.AreaID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteTemplate(ctx, id); err != nil {
		return err
	}
	s.invalidateStructure(ctx, area.StructureID)
	return nil
}

func (s *service) ResolveTemplate(ctx context.Context, templateID uuid.UUID) (*AudienceZoneTemplate, *Area, error) {
	template, err := s.repo.GetTemplateByID(ctx, templateID)
	if err != nil {
		return nil, nil, err
	}
	area, err := s.repo.GetAreaByID(ctx, template.AreaID)
	if err != nil {
		return nil, nil, err
	}
	return template, area, nil
}

func (s *service) authorizeArea(ctx context.Context, actor users.Actor, areaID uuid.UUID) (*Area, error) {
	area, err := s.repo.GetAreaByID(ctx, areaID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageStructure(area.StructureID) {
		return nil, ErrNotStructureManager
	}
	return area, nil
}

func (s *service) invalidateStructure(ctx context.Context, structureID uuid.UUID) {
	if err := s.cache.Delete(ctx, constants.BuildStructureDetailKey(structureID.String())); err != nil {
		s.log.WarnContext(ctx, "failed to invalidate structure cache", "structure_id", structureID.String(), "error", err)
	}
	// template lists are keyed by area; drop them all for simplicity
	if err := s.cache.DeletePattern(ctx, constants.CACHE_KEY_AREA_TEMPLATES+"*"); err != nil {
		s.log.WarnContext(ctx, "failed to invalidate template cache", "error", err)
	}
}
