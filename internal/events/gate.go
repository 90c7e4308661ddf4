package events

import (
	"fmt"

	"ticketing/internal/shared/apperrors"
)

// Field is an event attribute whose mutability depends on the event status
type Field int

const (
	FieldName Field = iota
	FieldCategories
	FieldDescription
	FieldTags
	FieldStartDate
	FieldEndDate
	FieldAddress
	FieldAudienceZones
	FieldDisplayOnHomepage
	FieldIsFeaturedEvent
	FieldImages

	fieldCount
)

var fieldNames = [fieldCount]string{
	FieldName:              "name",
	FieldCategories:        "categories",
	FieldDescription:       "description",
	FieldTags:              "tags",
	FieldStartDate:         "startDate",
	FieldEndDate:           "endDate",
	FieldAddress:           "address",
	FieldAudienceZones:     "audienceZones",
	FieldDisplayOnHomepage: "displayOnHomepage",
	FieldIsFeaturedEvent:   "isFeaturedEvent",
	FieldImages:            "images",
}

func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

func ParseField(name string) (Field, bool) {
	for i, n := range fieldNames {
		if n == name {
			return Field(i), true
		}
	}
	return 0, false
}

func AllFields() []Field {
	fields := make([]Field, fieldCount)
	for i := range fields {
		fields[i] = Field(i)
	}
	return fields
}

// mutability[row][field]. Rows left out of the literal deny every field.
var mutability = [statusCount][fieldCount]bool{
	rowDraft: {
		FieldName:              true,
		FieldCategories:        true,
		FieldDescription:       true,
		FieldTags:              true,
		FieldStartDate:         true,
		FieldEndDate:           true,
		FieldAddress:           true,
		FieldAudienceZones:     true,
		FieldDisplayOnHomepage: true,
		FieldIsFeaturedEvent:   true,
		FieldImages:            true,
	},
	rowPublished: {
		FieldCategories:        true,
		FieldDescription:       true,
		FieldTags:              true,
		FieldDisplayOnHomepage: true,
		FieldIsFeaturedEvent:   true,
		FieldImages:            true,
	},
}

// IsFieldMutable reports whether field may be written while the event is in status
func IsFieldMutable(status Status, field Field) bool {
	row, ok := status.index()
	if !ok || field < 0 || field >= fieldCount {
		return false
	}
	return mutability[row][field]
}

func MutableFields(status Status) []Field {
	var fields []Field
	for _, f := range AllFields() {
		if IsFieldMutable(status, f) {
			fields = append(fields, f)
		}
	}
	return fields
}

// CheckWrite rejects the first field that status does not allow writing
func CheckWrite(status Status, fields ...Field) error {
	for _, f := range fields {
		if !IsFieldMutable(status, f) {
			return &FieldImmutableError{Field: f.String(), Status: status}
		}
	}
	return nil
}

type FieldImmutableError struct {
	Field  string `json:"field"`
	Status Status `json:"status"`
}

func (e *FieldImmutableError) Error() string {
	return fmt.Sprintf("field %q cannot be modified while the event is %s", e.Field, e.Status)
}
func (e *FieldImmutableError) Kind() apperrors.Kind { return apperrors.KindConflict }
func (e *FieldImmutableError) Code() string         { return "FIELD_IMMUTABLE" }
