package inventory

// StructureDetail is a structure with its areas and their templates
type StructureDetail struct {
	Structure
	Areas []AreaDetail `json:"areas"`
}

type AreaDetail struct {
	Area
	Templates         []AudienceZoneTemplate `json:"templates"`
	AllocatedCapacity int                    `json:"allocatedCapacity"`
}
