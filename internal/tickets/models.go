package tickets

import (
	"time"

	"github.com/google/uuid"

	"ticketing/internal/inventory"
)

type Status string

const (
	StatusValid     Status = "VALID"
	StatusUsed      Status = "USED"
	StatusCancelled Status = "CANCELLED"
	// StatusExpired is never stored; see Ticket.EffectiveStatus
	StatusExpired Status = "EXPIRED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusValid, StatusUsed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// HoldsCapacity reports whether a stored status consumes a seat in its zone
func (s Status) HoldsCapacity() bool {
	return s == StatusValid || s == StatusUsed
}

type Participant struct {
	FirstName string `gorm:"type:varchar(100);not null" json:"firstName"`
	LastName  string `gorm:"type:varchar(100);not null" json:"lastName"`
	Email     string `gorm:"type:varchar(255);not null;index" json:"email"`
}

func (p Participant) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// EventSnapshot is the event as it was when the ticket was issued
type EventSnapshot struct {
	EventID      uuid.UUID         `json:"eventId"`
	StructureID  uuid.UUID         `json:"structureId"`
	Name         string            `json:"name"`
	StartDate    time.Time         `json:"startDate"`
	EndDate      time.Time         `json:"endDate"`
	Address      inventory.Address `json:"address"`
	MainPhotoURL string            `json:"mainPhotoUrl,omitempty"`
}

type AudienceZoneSnapshot struct {
	AudienceZoneID uuid.UUID             `json:"audienceZoneId"`
	Name           string                `json:"name"`
	SeatingType    inventory.SeatingType `json:"seatingType"`
}

type Ticket struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ReservationID  string     `gorm:"type:varchar(20);index;not null" json:"reservationId"`
	EventID        uuid.UUID  `gorm:"type:uuid;index:idx_tickets_zone_status,priority:1;not null" json:"eventId"`
	AudienceZoneID uuid.UUID  `gorm:"type:uuid;index:idx_tickets_zone_status,priority:2;not null" json:"audienceZoneId"`
	BookedByUserID *uuid.UUID `gorm:"type:uuid;index" json:"bookedByUserId,omitempty"`
	QRCodeValue    string     `gorm:"type:varchar(512);not null" json:"qrCodeValue"`
	Status         Status     `gorm:"type:varchar(20);index:idx_tickets_zone_status,priority:3;not null;default:'VALID'" json:"status"`

	Participant          Participant          `gorm:"embedded;embeddedPrefix:participant_" json:"participant"`
	EventSnapshot        EventSnapshot        `gorm:"type:jsonb;serializer:json;not null" json:"eventSnapshot"`
	AudienceZoneSnapshot AudienceZoneSnapshot `gorm:"type:jsonb;serializer:json;not null" json:"audienceZoneSnapshot"`

	// copied out of the snapshot so the expiry guard can run in SQL
	EventEndDate time.Time `gorm:"not null;index" json:"-"`

	IssuedAt    time.Time  `gorm:"not null" json:"issuedAt"`
	UsedAt      *time.Time `json:"usedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Ticket) TableName() string {
	return "tickets"
}

// EffectiveStatus is the status every reader reports: a VALID ticket whose
// event has ended reads as EXPIRED.
func (t *Ticket) EffectiveStatus(now time.Time) Status {
	if t.Status == StatusValid && now.After(t.EventEndDate) {
		return StatusExpired
	}
	return t.Status
}

// Projected returns a copy whose Status is the effective status at now
func (t Ticket) Projected(now time.Time) Ticket {
	t.Status = t.EffectiveStatus(now)
	return t
}

type TicketFilters struct {
	Status string `form:"status"`
	Search string `form:"search"`
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=20" binding:"min=1,max=100"`

	now time.Time
}
