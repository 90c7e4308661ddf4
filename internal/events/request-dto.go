package events

import (
	"time"

	"ticketing/internal/inventory"
)

type AddressRequest struct {
	Street  string `json:"street" binding:"required,max=255"`
	Number  string `json:"number" binding:"max=20"`
	City    string `json:"city" binding:"required,max=120"`
	ZipCode string `json:"zipCode" binding:"max=20"`
	Country string `json:"country" binding:"required,max=120"`
}

func (a AddressRequest) toModel() inventory.Address {
	return inventory.Address{Street: a.Street, Number: a.Number, City: a.City, ZipCode: a.ZipCode, Country: a.Country}
}

// ZoneConfigRequest instantiates a zone template for the event
type ZoneConfigRequest struct {
	TemplateID        string `json:"templateId" binding:"required,uuid"`
	Name              string `json:"name" binding:"max=255"`
	AllocatedCapacity int    `json:"allocatedCapacity" binding:"required,min=1"`
	SeatingType       string `json:"seatingType" binding:"omitempty,oneof=SEATED STANDING MIXED"`
	IsActive          *bool  `json:"isActive"`
}

type CreateEventRequest struct {
	StructureID       string              `json:"structureId" binding:"required,uuid"`
	Name              string              `json:"name" binding:"required,min=3,max=255"`
	Categories        []string            `json:"categories" binding:"max=10,dive,min=1,max=60"`
	ShortDescription  string              `json:"shortDescription" binding:"max=500"`
	FullDescription   string              `json:"fullDescription" binding:"max=10000"`
	Tags              []string            `json:"tags" binding:"max=20,dive,min=1,max=60"`
	StartDate         time.Time           `json:"startDate" binding:"required"`
	EndDate           time.Time           `json:"endDate" binding:"required"`
	Address           AddressRequest      `json:"address" binding:"required"`
	DisplayOnHomepage bool                `json:"displayOnHomepage"`
	IsFeaturedEvent   bool                `json:"isFeaturedEvent"`
	MainPhotoURL      string              `json:"mainPhotoUrl" binding:"omitempty,url"`
	Images            []string            `json:"images" binding:"max=30,dive,url"`
	AudienceZones     []ZoneConfigRequest `json:"audienceZones" binding:"dive"`
}

// UpdateEventRequest is a partial update; absent fields are left alone
type UpdateEventRequest struct {
	Name              *string              `json:"name" binding:"omitempty,min=3,max=255"`
	Categories        *[]string            `json:"categories" binding:"omitempty,max=10,dive,min=1,max=60"`
	ShortDescription  *string              `json:"shortDescription" binding:"omitempty,max=500"`
	FullDescription   *string              `json:"fullDescription" binding:"omitempty,max=10000"`
	Tags              *[]string            `json:"tags" binding:"omitempty,max=20,dive,min=1,max=60"`
	StartDate         *time.Time           `json:"startDate"`
	EndDate           *time.Time           `json:"endDate"`
	Address           *AddressRequest      `json:"address"`
	DisplayOnHomepage *bool                `json:"displayOnHomepage"`
	IsFeaturedEvent   *bool                `json:"isFeaturedEvent"`
	MainPhotoURL      *string              `json:"mainPhotoUrl" binding:"omitempty,url"`
	Images            *[]string            `json:"images" binding:"omitempty,max=30,dive,url"`
	AudienceZones     *[]ZoneConfigRequest `json:"audienceZones" binding:"omitempty,dive"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=DRAFT PENDING_APPROVAL PUBLISHED CANCELLED COMPLETED ARCHIVED"`
}
