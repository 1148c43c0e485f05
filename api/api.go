package api

import (
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/parley/api/mcp"
	"github.com/papercomputeco/parley/pkg/bot"
	"github.com/papercomputeco/parley/pkg/brain"
	"github.com/papercomputeco/parley/pkg/logger"
	"github.com/papercomputeco/parley/pkg/metrics"
)

// Deps are the collaborators served by the API.
type Deps struct {
	Bot   *bot.Bot
	Brain *brain.Brain

	// Metrics is optional. When set, /metrics is exposed and every request
	// is counted.
	Metrics *metrics.Collector

	// MCP is optional. When set, it is mounted on /mcp.
	MCP *mcp.Server

	Logger *slog.Logger
}

// Server is the API server for computing understandings and reading the
// brain.
type Server struct {
	config    Config
	bot       *bot.Bot
	brain     *brain.Brain
	metrics   *metrics.Collector
	logger    *slog.Logger
	validator *validator.Validate
	app       *fiber.App
}

// NewServer creates a new API server.
func NewServer(config Config, deps Deps) (*Server, error) {
	if deps.Bot == nil {
		return nil, errors.New("bot is required")
	}
	if deps.Brain == nil {
		return nil, errors.New("brain is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		bot:       deps.Bot,
		brain:     deps.Brain,
		metrics:   deps.Metrics,
		logger:    logger.OrNop(deps.Logger),
		validator: validator.New(validator.WithRequiredStructEnabled()),
		app:       app,
	}

	if s.metrics != nil {
		app.Use(s.recordRequest)
		app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	}

	app.Get("/ping", s.handlePing)
	app.Post("/understand", s.handleUnderstand)
	app.Get("/users", s.handleListUsers)
	app.Get("/users/:id", s.handleGetUser)
	app.Get("/users/:id/conversation", s.handleGetConversation)

	if deps.MCP != nil {
		app.All("/mcp", adaptor.HTTPHandler(deps.MCP.Handler()))
	}

	return s, nil
}

// recordRequest counts every request by its matched route.
func (s *Server) recordRequest(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}

	route := c.Route().Path
	s.metrics.RecordHTTPRequest(c.Method(), route, status, time.Since(start))
	return err
}

// App returns the underlying fiber app, used by tests to issue requests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
