// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ticketing/internal/analytics"
	"ticketing/internal/auth"
	"ticketing/internal/events"
	"ticketing/internal/inventory"
	"ticketing/internal/notifications"
	"ticketing/internal/reservations"
	"ticketing/internal/shared/config"
	"ticketing/internal/shared/database"
	"ticketing/internal/tickets"
	"ticketing/pkg/cache"
	"ticketing/pkg/logger"
)

// repositories is the storage backend chosen at startup
type repositories struct {
	auth         auth.Repository
	inventory    inventory.Repository
	events       events.Repository
	tickets      tickets.Repository
	reservations reservations.Repository
	idempotency  reservations.IdempotencyStore
}

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	cache     cache.Service
	publisher notifications.Publisher
	repos     repositories
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, publisher notifications.Publisher) *Router {
	r := &Router{
		config:    cfg,
		db:        db,
		cache:     cache.NewNoopService(),
		publisher: publisher,
	}
	if db.Redis != nil {
		r.cache = cache.NewService(db.Redis)
	}
	if cfg.UsesMemoryStorage() {
		r.repos = memoryRepositories()
	} else {
		r.repos = postgresRepositories(cfg, db)
	}
	if db.Redis != nil {
		r.repos.idempotency = reservations.NewRedisIdempotencyStore(db.Redis)
	}
	return r
}

func memoryRepositories() repositories {
	inventoryRepo := inventory.NewMemoryRepository()
	eventRepo := events.NewMemoryRepository()
	inventoryRepo.SetUsageChecker(eventRepo)
	ticketRepo := tickets.NewMemoryRepository()

	logger.GetDefault().Warn("Using in-memory storage, data is lost on restart")
	return repositories{
		auth:         auth.NewMemoryRepository(),
		inventory:    inventoryRepo,
		events:       eventRepo,
		tickets:      ticketRepo,
		reservations: reservations.NewMemoryRepository(eventRepo, ticketRepo),
		idempotency:  reservations.NewMemoryIdempotencyStore(),
	}
}

func postgresRepositories(cfg *config.Config, db *database.DB) repositories {
	pg := db.PostgreSQL
	return repositories{
		auth:         auth.NewRepository(pg),
		inventory:    inventory.NewRepository(pg),
		events:       events.NewRepository(pg),
		tickets:      tickets.NewRepository(pg),
		reservations: reservations.NewRepository(pg, cfg.Reservation),
		idempotency:  reservations.NewMemoryIdempotencyStore(),
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAuthRoutes(api)

		inventoryService := r.setupInventoryRoutes(api)
		r.setupEventRoutes(api, inventoryService)
		r.setupTicketRoutes(api)
		r.setupReservationRoutes(api)
		r.setupAnalyticsRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "ticketing-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"storage":   r.config.StorageDriver,
			"timestamp": time.Now(),
			"service":   "ticketing-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})

	if r.config.Metrics.Enabled {
		engine.GET(r.config.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}
}

func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authService := auth.NewService(r.repos.auth, r.config)
	authController := auth.NewController(authService)
	auth.NewRouter(authController, r.config).SetupRoutes(rg)
}

func (r *Router) setupInventoryRoutes(rg *gin.RouterGroup) inventory.Service {
	inventoryService := inventory.NewService(r.repos.inventory, r.cache)
	inventory.SetupInventoryRoutes(rg, inventory.NewController(inventoryService), r.config)
	return inventoryService
}

func (r *Router) setupEventRoutes(rg *gin.RouterGroup, inv events.Inventory) {
	eventService := events.NewService(r.repos.events, inv, r.cache)
	events.SetupEventRoutes(rg, events.NewController(eventService), r.config)
}

func (r *Router) setupTicketRoutes(rg *gin.RouterGroup) {
	ticketService := tickets.NewService(r.repos.tickets, r.repos.events, r.publisher, r.cache)
	tickets.SetupTicketRoutes(rg, tickets.NewController(ticketService), r.config)
}

func (r *Router) setupReservationRoutes(rg *gin.RouterGroup) {
	reservationService := reservations.NewService(reservations.Dependencies{
		Repo:        r.repos.reservations,
		Tickets:     r.repos.tickets,
		Idempotency: r.repos.idempotency,
		Publisher:   r.publisher,
		Cache:       r.cache,
	}, r.config)
	reservations.SetupReservationRoutes(rg, reservations.NewController(reservationService), r.config)
}

func (r *Router) setupAnalyticsRoutes(rg *gin.RouterGroup) {
	analyticsService := analytics.NewService(r.repos.events, r.repos.tickets, r.repos.inventory, r.cache)
	analytics.SetupAnalyticsRoutes(rg, analytics.NewController(analyticsService), r.config)
}
