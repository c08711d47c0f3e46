// Package api serves the recruitment engine over HTTP.
package api

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/ppelicano/laokas-smart-contract/common"
	"github.com/ppelicano/laokas-smart-contract/recruitment"
	"github.com/ppelicano/laokas-smart-contract/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	headerCaller = "X-Caller"
	headerAPIKey = "X-API-Key"
)

// Prm groups Server parameters.
type Prm struct {
	Logger *zap.Logger
	Engine *recruitment.Engine

	// Requests without this key in X-API-Key header are rejected. Empty key
	// disables the check.
	APIKey string

	// Served on /metrics if set.
	Gatherer prometheus.Gatherer

	// Tokens available for whitelisting and sandbox routes.
	Tokens map[common.Symbol]*token.Token
}

// Server is an HTTP front of the engine.
type Server struct {
	log    *zap.Logger
	engine *recruitment.Engine
	tokens map[common.Symbol]*token.Token

	app *fiber.App
}

// New returns Server with all routes registered.
func New(prm Prm) *Server {
	s := &Server{
		log:    prm.Logger,
		engine: prm.Engine,
		tokens: prm.Tokens,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if prm.Gatherer != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(prm.Gatherer, promhttp.HandlerOpts{})))
	}

	r := s.app.Group("/", apiKeyGuard(prm.APIKey))

	r.Get("/assets", s.listAssets)
	r.Get("/assets/:symbol", s.getAsset)
	r.Post("/assets", s.whitelist)

	r.Post("/deposits/initial", s.initialDeposit)
	r.Post("/deposits/final", s.finalDeposit)
	r.Post("/withdrawals", s.withdraw)

	r.Get("/accounts/:address/:symbol", s.getAccount)
	r.Get("/accounts/:address/:symbol/refunds", s.listRefunds)
	r.Get("/accounts/:address/:symbol/refunds/:index", s.getRefund)

	r.Post("/sandbox/tokens/:symbol/approve", s.approve)
	r.Get("/sandbox/tokens/:symbol/balances/:address", s.tokenBalance)

	return s
}

// App returns underlying fiber application.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves HTTP requests on the address until Shutdown.
func (s *Server) Listen(addr string) error {
	s.log.Info("serving HTTP API", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown stops the server waiting for active requests.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func apiKeyGuard(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return c.Next()
		}
		if subtle.ConstantTimeCompare([]byte(c.Get(headerAPIKey)), []byte(key)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid API key")
		}
		return c.Next()
	}
}
