package events

import (
	"time"

	"github.com/google/uuid"

	"ticketing/internal/inventory"
)

type Event struct {
	ID                uuid.UUID         `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StructureID       uuid.UUID         `json:"structureId" gorm:"type:uuid;not null;index"`
	Name              string            `json:"name" gorm:"not null;size:255"`
	Categories        []string          `json:"categories" gorm:"type:jsonb;serializer:json"`
	ShortDescription  string            `json:"shortDescription" gorm:"size:500"`
	FullDescription   string            `json:"fullDescription" gorm:"type:text"`
	Tags              []string          `json:"tags" gorm:"type:jsonb;serializer:json"`
	StartDate         time.Time         `json:"startDate" gorm:"not null;index"`
	EndDate           time.Time         `json:"endDate" gorm:"not null"`
	Address           inventory.Address `json:"address" gorm:"embedded;embeddedPrefix:address_"`
	DisplayOnHomepage bool              `json:"displayOnHomepage" gorm:"not null;default:false"`
	IsFeaturedEvent   bool              `json:"isFeaturedEvent" gorm:"not null;default:false"`
	MainPhotoURL      string            `json:"mainPhotoUrl" gorm:"size:500"`
	Images            []string          `json:"images" gorm:"type:jsonb;serializer:json"`
	Status            Status            `json:"status" gorm:"type:varchar(20);not null;default:'DRAFT';index"`

	AudienceZones []EventAudienceZone `json:"audienceZones" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`

	CreatedBy uuid.UUID `json:"createdBy" gorm:"type:uuid;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// EventAudienceZone is the per-event instance of a zone template; tickets
// are sold against it.
type EventAudienceZone struct {
	ID                uuid.UUID             `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	EventID           uuid.UUID             `json:"eventId" gorm:"type:uuid;not null;index"`
	TemplateID        uuid.UUID             `json:"templateId" gorm:"type:uuid;not null;index"`
	AreaID            uuid.UUID             `json:"areaId" gorm:"type:uuid;not null;index"`
	Name              string                `json:"name" gorm:"not null;size:255"`
	AllocatedCapacity int                   `json:"allocatedCapacity" gorm:"not null;check:chk_event_zones_allocated,allocated_capacity > 0"`
	SeatingType       inventory.SeatingType `json:"seatingType" gorm:"type:varchar(20);not null"`
	IsActive          bool                  `json:"isActive" gorm:"not null;default:true"`
	CreatedAt         time.Time             `json:"createdAt" gorm:"autoCreateTime"`
}

func (EventAudienceZone) TableName() string { return "event_audience_zones" }

func (e *Event) Zone(zoneID uuid.UUID) (*EventAudienceZone, bool) {
	for i := range e.AudienceZones {
		if e.AudienceZones[i].ID == zoneID {
			return &e.AudienceZones[i], true
		}
	}
	return nil, false
}

// HasEnded reports whether the event window is over at now
func (e *Event) HasEnded(now time.Time) bool {
	return !now.Before(e.EndDate)
}

type EventFilters struct {
	Query             string   `form:"query"`
	Categories        []string `form:"categories"`
	Tags              []string `form:"tags"`
	StartDateAfter    string   `form:"startDateAfter"`
	StartDateBefore   string   `form:"startDateBefore"`
	Status            string   `form:"status"`
	DisplayOnHomepage *bool    `form:"displayOnHomepage"`
	IsFeatured        *bool    `form:"isFeatured"`
	StructureID       string   `form:"structureId" binding:"omitempty,uuid"`
	City              string   `form:"city"`
	Page              int      `form:"page,default=1" binding:"min=1"`
	Limit             int      `form:"limit,default=20" binding:"min=1,max=100"`

	// resolved by the service
	startAfter    *time.Time
	startBefore   *time.Time
	statuses      []Status
	structureUUID *uuid.UUID
}
