package database

import (
	"fmt"

	"gorm.io/gorm"

	"ticketing/internal/events"
	"ticketing/internal/inventory"
	"ticketing/internal/tickets"
	"ticketing/internal/users"
)

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&users.User{},
		&inventory.Structure{},
		&inventory.Area{},
		&inventory.AudienceZoneTemplate{},
		&events.Event{},
		&events.EventAudienceZone{},
		&tickets.Ticket{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return MigrateConstraints(db)
}
