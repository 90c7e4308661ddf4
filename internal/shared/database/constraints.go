package database

import (
	"fmt"

	"gorm.io/gorm"
)

type constraint struct {
	table string
	name  string
	ddl   string
}

// Deleting inventory or events that tickets still point at must fail at the
// database, whatever the service layer checked before.
var constraints = []constraint{
	{"areas", "fk_areas_structure",
		"FOREIGN KEY (structure_id) REFERENCES structures(id) ON DELETE RESTRICT"},
	{"audience_zone_templates", "fk_zone_templates_area",
		"FOREIGN KEY (area_id) REFERENCES areas(id) ON DELETE RESTRICT"},
	{"events", "fk_events_structure",
		"FOREIGN KEY (structure_id) REFERENCES structures(id) ON DELETE RESTRICT"},
	{"event_audience_zones", "fk_event_zones_event",
		"FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE"},
	{"event_audience_zones", "fk_event_zones_template",
		"FOREIGN KEY (template_id) REFERENCES audience_zone_templates(id) ON DELETE RESTRICT"},
	{"event_audience_zones", "fk_event_zones_area",
		"FOREIGN KEY (area_id) REFERENCES areas(id) ON DELETE RESTRICT"},
	{"tickets", "fk_tickets_event",
		"FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE RESTRICT"},
	{"tickets", "fk_tickets_zone",
		"FOREIGN KEY (audience_zone_id) REFERENCES event_audience_zones(id) ON DELETE RESTRICT"},
	{"tickets", "chk_tickets_status",
		"CHECK (status IN ('VALID', 'USED', 'CANCELLED'))"},
	{"tickets", "chk_tickets_used_at",
		"CHECK (status <> 'USED' OR used_at IS NOT NULL)"},
	{"events", "chk_events_status",
		"CHECK (status IN ('DRAFT', 'PENDING_APPROVAL', 'PUBLISHED', 'CANCELLED', 'COMPLETED', 'ARCHIVED'))"},
	{"events", "chk_events_dates",
		"CHECK (end_date > start_date)"},
	{"users", "chk_users_role",
		"CHECK (role IN ('USER', 'ORGANIZER', 'SCANNER', 'ADMIN'))"},
}

// MigrateConstraints adds the foreign keys and checks AutoMigrate leaves out.
// Each one is added only when missing so the step can run on every start.
func MigrateConstraints(db *gorm.DB) error {
	for _, c := range constraints {
		var exists bool
		err := db.Raw(
			`SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)`, c.name,
		).Scan(&exists).Error
		if err != nil {
			return fmt.Errorf("lookup constraint %s: %w", c.name, err)
		}
		if exists {
			continue
		}
		if err := db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD CONSTRAINT %s %s`, c.table, c.name, c.ddl)).Error; err != nil {
			return fmt.Errorf("add constraint %s: %w", c.name, err)
		}
	}

	// backs the held-capacity count taken under the zone lock
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_tickets_zone_held
		ON tickets (audience_zone_id)
		WHERE status IN ('VALID', 'USED')
	`).Error
}
