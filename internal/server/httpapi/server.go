// Package httpapi exposes the application services over a Fiber HTTP API.
package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"milklog/internal/service"
)

// TokenParser validates bearer tokens issued by the auth service.
type TokenParser interface {
	ParseToken(token string) (*service.Claims, error)
}

// Server wires services into HTTP routes.
type Server struct {
	app    *fiber.App
	log    *zap.Logger
	tokens TokenParser

	auth    service.AuthService
	records service.RecordService
	reports service.ReportService
	cows    service.CowService
	events  service.EventService
	admin   service.AdminService
}

// Options carries Server construction dependencies.
type Options struct {
	Log         *zap.Logger
	Tokens      TokenParser
	Auth        service.AuthService
	Records     service.RecordService
	Reports     service.ReportService
	Cows        service.CowService
	Events      service.EventService
	Admin       service.AdminService
	CORSOrigins string
}

// New builds the Fiber app with all routes registered.
func New(opts Options) *Server {
	s := &Server{
		log:     opts.Log,
		tokens:  opts.Tokens,
		auth:    opts.Auth,
		records: opts.Records,
		reports: opts.Reports,
		cows:    opts.Cows,
		events:  opts.Events,
		admin:   opts.Admin,
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          s.errorHandler,
		DisableStartupMessage: true,
	})
	app.Use(s.recoverMiddleware)
	app.Use(s.loggingMiddleware)
	if opts.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: opts.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
			AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		}))
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	api := app.Group("/api")
	api.Post("/auth/register", s.handleRegister)
	api.Post("/auth/login", s.handleLogin)
	api.Post("/auth/login-external", s.handleLoginExternal)

	protected := api.Group("", s.authMiddleware)

	protected.Post("/records", s.handleAddRecord)
	protected.Get("/records", s.handleRecentRecords)
	protected.Put("/records/:id", s.handleUpdateRecord)
	protected.Delete("/records/:id", s.handleDeleteRecord)
	protected.Post("/records/:id/restore", s.handleRestoreRecord)
	protected.Post("/records/bulk", s.handleBulkAdd)
	protected.Post("/records/import", s.handleImportCSV)

	protected.Get("/pivot", s.handlePivot)
	protected.Get("/export.csv", s.handleExportCSV)
	protected.Get("/export.xlsx", s.handleExportXLSX)

	protected.Post("/cows", s.handleUpsertCow)
	protected.Get("/cows", s.handleListCows)

	protected.Post("/health-events", s.handleAddHealthEvent)
	protected.Get("/health-events", s.handleListHealthEvents)
	protected.Post("/breeding-events", s.handleAddBreedingEvent)
	protected.Get("/breeding-events", s.handleListBreedingEvents)
	protected.Get("/alerts", s.handleAlerts)

	adminGrp := protected.Group("/admin", s.requireAdmin)
	adminGrp.Post("/claim-legacy", s.handleClaimLegacy)
	adminGrp.Get("/users", s.handleListUsers)

	s.app = app
	return s
}

// App returns the underlying Fiber app (used by tests and Listen).
func (s *Server) App() *fiber.App { return s.app }

// Listen blocks serving HTTP on addr.
func (s *Server) Listen(addr string) error { return s.app.Listen(addr) }

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown() error { return s.app.Shutdown() }
