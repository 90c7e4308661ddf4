package users

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "USER"
	RoleOrganizer Role = "ORGANIZER"
	RoleScanner   Role = "SCANNER"
	RoleAdmin     Role = "ADMIN"
)

type User struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	FirstName   string     `json:"first_name" gorm:"not null"`
	LastName    string     `json:"last_name" gorm:"not null"`
	Password    string     `json:"-" gorm:"not null"`
	Role        Role       `json:"role" gorm:"type:varchar(20);not null;default:'USER'"`
	Email       string     `json:"email" gorm:"uniqueIndex;not null"`
	StructureID *uuid.UUID `json:"structure_id,omitempty" gorm:"type:uuid;index"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func IsValidRole(role string) bool {
	switch Role(role) {
	case RoleUser, RoleOrganizer, RoleScanner, RoleAdmin:
		return true
	default:
		return false
	}
}

// Actor is the authenticated caller as seen by the domain services
type Actor struct {
	UserID      uuid.UUID
	Role        Role
	StructureID *uuid.UUID
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanManageStructure reports whether the actor administers the structure.
// Admins manage every structure; organizers only their own.
func (a Actor) CanManageStructure(structureID uuid.UUID) bool {
	if a.IsAdmin() {
		return true
	}
	return a.Role == RoleOrganizer && a.StructureID != nil && *a.StructureID == structureID
}

// CanScanFor reports whether the actor may validate tickets at the structure's events
func (a Actor) CanScanFor(structureID uuid.UUID) bool {
	if a.CanManageStructure(structureID) {
		return true
	}
	return a.Role == RoleScanner && a.StructureID != nil && *a.StructureID == structureID
}
