package inventory

import (
	"fmt"

	"github.com/google/uuid"

	"ticketing/internal/shared/apperrors"
)

var (
	ErrStructureNotFound   = apperrors.NotFound("STRUCTURE_NOT_FOUND", "structure not found")
	ErrAreaNotFound        = apperrors.NotFound("AREA_NOT_FOUND", "area not found")
	ErrTemplateNotFound    = apperrors.NotFound("ZONE_TEMPLATE_NOT_FOUND", "audience zone template not found")
	ErrNotStructureManager = apperrors.Forbidden("NOT_STRUCTURE_MANAGER", "you do not manage this structure")
	ErrInvalidSeatingType  = apperrors.Invalid("INVALID_SEATING_TYPE", "seating type must be SEATED, STANDING or MIXED")
)

// AreaCapacityExceededError is returned when the templates of an area would
// claim more than the area holds.
type AreaCapacityExceededError struct {
	AreaID    uuid.UUID `json:"areaId"`
	AreaMax   int       `json:"areaMax"`
	Allocated int       `json:"allocated"`
	Requested int       `json:"requested"`
}

func (e *AreaCapacityExceededError) Error() string {
	return fmt.Sprintf("area %s capacity exceeded: max %d, already allocated %d, requested %d",
		e.AreaID, e.AreaMax, e.Allocated, e.Requested)
}
func (e *AreaCapacityExceededError) Kind() apperrors.Kind { return apperrors.KindConflict }
func (e *AreaCapacityExceededError) Code() string         { return "AREA_CAPACITY_EXCEEDED" }

type AreaInUseError struct {
	AreaID uuid.UUID `json:"areaId"`
}

func (e *AreaInUseError) Error() string {
	return fmt.Sprintf("area %s is referenced by an event", e.AreaID)
}
func (e *AreaInUseError) Kind() apperrors.Kind { return apperrors.KindConflict }
func (e *AreaInUseError) Code() string         { return "AREA_IN_USE" }

type TemplateInUseError struct {
	TemplateID uuid.UUID `json:"templateId"`
}

func (e *TemplateInUseError) Error() string {
	return fmt.Sprintf("audience zone template %s is referenced by an event", e.TemplateID)
}
func (e *TemplateInUseError) Kind() apperrors.Kind { return apperrors.KindConflict }
func (e *TemplateInUseError) Code() string         { return "ZONE_TEMPLATE_IN_USE" }

// InvariantViolationError signals state that must never exist. It is a bug,
// never a business outcome.
type InvariantViolationError struct {
	Invariant string `json:"invariant"`
	Detail    string `json:"detail"`
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violated (%s): %s", e.Invariant, e.Detail)
}
func (e *InvariantViolationError) Kind() apperrors.Kind { return apperrors.KindInvariant }
func (e *InvariantViolationError) Code() string         { return "INVARIANT_VIOLATION" }
