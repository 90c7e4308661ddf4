package inventory

import (
	"time"

	"github.com/google/uuid"
)

type SeatingType string

const (
	SeatingSeated   SeatingType = "SEATED"
	SeatingStanding SeatingType = "STANDING"
	SeatingMixed    SeatingType = "MIXED"
)

func (s SeatingType) IsValid() bool {
	switch s {
	case SeatingSeated, SeatingStanding, SeatingMixed:
		return true
	}
	return false
}

type Address struct {
	Street  string `json:"street" gorm:"size:255"`
	Number  string `json:"number,omitempty" gorm:"size:20"`
	City    string `json:"city" gorm:"size:120;index"`
	ZipCode string `json:"zipCode,omitempty" gorm:"size:20"`
	Country string `json:"country" gorm:"size:120"`
}

// Structure is a venue or organizer owning physical areas
type Structure struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `json:"name" gorm:"not null;size:255"`
	Description string    `json:"description" gorm:"type:text"`
	Address     Address   `json:"address" gorm:"embedded;embeddedPrefix:address_"`
	Phone       string    `json:"phone,omitempty" gorm:"size:50"`
	Email       string    `json:"email,omitempty" gorm:"size:255"`
	WebsiteURL  string    `json:"websiteUrl,omitempty" gorm:"size:500"`
	CreatedBy   uuid.UUID `json:"createdBy" gorm:"type:uuid;not null"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Area is a physical space of a structure
type Area struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StructureID uuid.UUID `json:"structureId" gorm:"type:uuid;not null;index"`
	Name        string    `json:"name" gorm:"not null;size:255"`
	Description string    `json:"description" gorm:"type:text"`
	MaxCapacity int       `json:"maxCapacity" gorm:"not null;check:chk_areas_max_capacity,max_capacity > 0"`
	IsActive    bool      `json:"isActive" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// AudienceZoneTemplate is a reusable zone definition inside an area
type AudienceZoneTemplate struct {
	ID          uuid.UUID   `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AreaID      uuid.UUID   `json:"areaId" gorm:"type:uuid;not null;index"`
	Name        string      `json:"name" gorm:"not null;size:255"`
	MaxCapacity int         `json:"maxCapacity" gorm:"not null;check:chk_zone_templates_max_capacity,max_capacity > 0"`
	SeatingType SeatingType `json:"seatingType" gorm:"type:varchar(20);not null"`
	IsActive    bool        `json:"isActive" gorm:"not null;default:true"`
	CreatedAt   time.Time   `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time   `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (AudienceZoneTemplate) TableName() string { return "audience_zone_templates" }

type StructureFilters struct {
	Search string `form:"query"`
	City   string `form:"city"`
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=20" binding:"min=1,max=100"`
}
