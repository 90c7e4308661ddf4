package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"ticketing/internal/events"
	"ticketing/internal/inventory"
	"ticketing/internal/shared/config"
	"ticketing/internal/shared/database"
	"ticketing/internal/users"
	"ticketing/pkg/cache"
	"ticketing/pkg/logger"
)

const seedPassword = "qwerty"

type Seeder struct {
	db        *database.DB
	inventory inventory.Service
	events    events.Service
	log       *logger.Logger
}

func main() {
	_ = godotenv.Load()
	log := logger.GetDefault()

	cfg := config.Load()
	if cfg.UsesMemoryStorage() {
		log.Error("Seeding needs the postgres storage driver")
		os.Exit(1)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Error("Failed to initialize database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	inventoryService := inventory.NewService(inventory.NewRepository(db.PostgreSQL), cache.NewNoopService())
	seeder := &Seeder{
		db:        db,
		inventory: inventoryService,
		events:    events.NewService(events.NewRepository(db.PostgreSQL), inventoryService, cache.NewNoopService()),
		log:       log,
	}

	ctx := context.Background()
	if err := seeder.CleanDatabase(ctx); err != nil {
		log.Error("Failed to clean database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := seeder.SeedAll(ctx); err != nil {
		log.Error("Failed to seed database", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("Seeding completed", slog.String("password", seedPassword))
}

// CleanDatabase empties every table, children first
func (s *Seeder) CleanDatabase(ctx context.Context) error {
	tables := []string{
		"tickets",
		"event_audience_zones",
		"events",
		"audience_zone_templates",
		"areas",
		"structures",
		"users",
	}
	for _, table := range tables {
		if err := s.db.PostgreSQL.WithContext(ctx).Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}
	if s.db.Redis != nil {
		if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
			s.log.Warn("Failed to clear Redis", slog.Any("error", err))
		}
	}
	return nil
}

func (s *Seeder) SeedAll(ctx context.Context) error {
	admin := users.Actor{UserID: uuid.New(), Role: users.RoleAdmin}

	structure, err := s.inventory.CreateStructure(ctx, admin, inventory.CreateStructureRequest{
		Name:        "Le Grand Hall",
		Description: "Concert hall with a standing floor and a seated balcony",
		Address:     inventory.AddressRequest{Street: "Rue de la Musique", Number: "12", City: "Lyon", ZipCode: "69002", Country: "France"},
		Email:       "contact@grandhall.example",
	})
	if err != nil {
		return fmt.Errorf("create structure: %w", err)
	}

	if err := s.SeedUsers(ctx, admin.UserID, structure.ID); err != nil {
		return err
	}

	area, err := s.inventory.CreateArea(ctx, admin, structure.ID, inventory.CreateAreaRequest{
		Name:        "Main room",
		MaxCapacity: 1200,
	})
	if err != nil {
		return fmt.Errorf("create area: %w", err)
	}

	floor, err := s.inventory.CreateTemplate(ctx, admin, area.ID, inventory.CreateTemplateRequest{
		Name: "Floor", MaxCapacity: 900, SeatingType: string(inventory.SeatingStanding),
	})
	if err != nil {
		return fmt.Errorf("create floor template: %w", err)
	}
	balcony, err := s.inventory.CreateTemplate(ctx, admin, area.ID, inventory.CreateTemplateRequest{
		Name: "Balcony", MaxCapacity: 300, SeatingType: string(inventory.SeatingSeated),
	})
	if err != nil {
		return fmt.Errorf("create balcony template: %w", err)
	}

	start := time.Now().UTC().Add(30 * 24 * time.Hour).Truncate(time.Hour)
	seeds := []struct {
		name       string
		categories []string
		offset     time.Duration
		publish    bool
	}{
		{"Spring Jazz Night", []string{"music", "jazz"}, 0, true},
		{"Stand-up Marathon", []string{"comedy"}, 7 * 24 * time.Hour, true},
		{"Summer Opera Gala", []string{"music", "opera"}, 21 * 24 * time.Hour, false},
	}

	for _, seed := range seeds {
		eventStart := start.Add(seed.offset)
		event, err := s.events.CreateEvent(ctx, admin, events.CreateEventRequest{
			StructureID:      structure.ID.String(),
			Name:             seed.name,
			Categories:       seed.categories,
			ShortDescription: seed.name + " at " + structure.Name,
			StartDate:        eventStart,
			EndDate:          eventStart.Add(4 * time.Hour),
			Address:          events.AddressRequest{Street: "Rue de la Musique", Number: "12", City: "Lyon", ZipCode: "69002", Country: "France"},
			AudienceZones: []events.ZoneConfigRequest{
				{TemplateID: floor.ID.String(), AllocatedCapacity: 600},
				{TemplateID: balcony.ID.String(), AllocatedCapacity: 250},
			},
		})
		if err != nil {
			return fmt.Errorf("create event %q: %w", seed.name, err)
		}
		if seed.publish {
			if _, err := s.events.ChangeStatus(ctx, admin, event.ID, events.StatusPublished); err != nil {
				return fmt.Errorf("publish event %q: %w", seed.name, err)
			}
		}
		s.log.Info("Seeded event", slog.String("name", seed.name), slog.Bool("published", seed.publish))
	}
	return nil
}

// SeedUsers creates one account per role; staff accounts are bound to the structure
func (s *Seeder) SeedUsers(ctx context.Context, adminID, structureID uuid.UUID) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	accounts := []struct {
		first, last, email string
		role               users.Role
		structure          *uuid.UUID
	}{
		{"Admin", "User", "admin@ticketing.local", users.RoleAdmin, nil},
		{"Olivia", "Organizer", "organizer@ticketing.local", users.RoleOrganizer, &structureID},
		{"Sam", "Scanner", "scanner@ticketing.local", users.RoleScanner, &structureID},
		{"Ada", "Lovelace", "ada@ticketing.local", users.RoleUser, nil},
	}

	for i, a := range accounts {
		user := users.User{
			ID:          uuid.New(),
			FirstName:   a.first,
			LastName:    a.last,
			Email:       a.email,
			Password:    string(hashed),
			Role:        a.role,
			StructureID: a.structure,
		}
		if i == 0 {
			user.ID = adminID
		}
		if err := s.db.PostgreSQL.WithContext(ctx).Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user %s: %w", a.email, err)
		}
		s.log.Info("Seeded user", slog.String("email", a.email), slog.String("role", string(a.role)))
	}
	return nil
}
