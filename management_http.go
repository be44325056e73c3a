package purgecache

import (
	"context"
	"net"
	"time"

	"github.com/goccy/go-json"
	fiber "github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/hyp3rd/ewrap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hyp3rd/purgecache/internal/sentinel"
	"github.com/hyp3rd/purgecache/pkg/stats"
)

// ManagementHTTPOption configures the management HTTP server.
type ManagementHTTPOption func(*ManagementHTTPServer)

// ManagementHTTPServer holds Fiber app and settings.
type ManagementHTTPServer struct {
	addr         string
	app          *fiber.App
	readTimeout  time.Duration
	writeTimeout time.Duration
	authFunc     func(fiber.Ctx) error
	gatherer     prometheus.Gatherer
	ln           net.Listener
	started      bool
}

// WithMgmtAuth sets an auth function (return error to block).
func WithMgmtAuth(fn func(fiber.Ctx) error) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) { s.authFunc = fn }
}

// WithMgmtMetrics exposes the metrics of gatherer in the Prometheus format on /metrics.
func WithMgmtMetrics(gatherer prometheus.Gatherer) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) { s.gatherer = gatherer }
}

// WithMgmtReadTimeout sets read timeout.
func WithMgmtReadTimeout(d time.Duration) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) { s.readTimeout = d }
}

// WithMgmtWriteTimeout sets write timeout.
func WithMgmtWriteTimeout(d time.Duration) ManagementHTTPOption {
	return func(s *ManagementHTTPServer) { s.writeTimeout = d }
}

const (
	defaultReadTimeout  = 5 * time.Second
	defaultWriteTimeout = 5 * time.Second
)

// NewManagementHTTPServer builds an HTTP server holder (lazy start).
func NewManagementHTTPServer(addr string, opts ...ManagementHTTPOption) *ManagementHTTPServer {
	srv := &ManagementHTTPServer{
		addr:         addr,
		readTimeout:  defaultReadTimeout,
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts { // apply options
		opt(srv)
	}

	srv.app = fiber.New(fiber.Config{
		ReadTimeout:  srv.readTimeout,
		WriteTimeout: srv.writeTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return srv
}

// managementCache is the part of the cache the endpoints drive.
type managementCache interface {
	GetStats() stats.Stats
	Count(ctx context.Context) int
	Allocation() int64
	MaxSize() int
	FillFactor() float64
	Debug() bool
	GetItem(ctx context.Context, key string) (any, bool)
	RemoveItem(ctx context.Context, key string) (any, bool)
	Purge(ctx context.Context) error
	Clear(ctx context.Context) error
}

// Start launches listener (idempotent). Caller provides cache for handler wiring.
func (s *ManagementHTTPServer) Start(ctx context.Context, mc managementCache) error {
	if s.started { // idempotent
		return nil
	}

	// handlers outlive the start context
	s.mountRoutes(context.WithoutCancel(ctx), mc)

	lc := net.ListenConfig{}

	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return ewrap.Wrap(err, "mgmt listen")
	}

	s.ln = ln

	go func() {
		_ = s.app.Listener(ln)
	}()

	s.started = true

	return nil
}

// Address returns the bound address (useful when passing ":0" for ephemeral port). Empty if not started yet.
func (s *ManagementHTTPServer) Address() string {
	if s.ln == nil {
		return ""
	}

	return s.ln.Addr().String()
}

// Shutdown stops the server.
func (s *ManagementHTTPServer) Shutdown(ctx context.Context) error {
	if !s.started {
		return nil
	}

	ch := make(chan error, 1)

	go func() {
		ch <- s.app.Shutdown()
	}()

	select {
	case <-ctx.Done():
		return sentinel.ErrMgmtHTTPShutdownTimeout
	case err := <-ch:
		return err
	}
}

// mountRoutes registers endpoints onto the Fiber app.
func (s *ManagementHTTPServer) mountRoutes(ctx context.Context, mc managementCache) {
	useAuth := s.wrapAuth
	s.registerBasic(ctx, useAuth, mc)
	s.registerItems(ctx, useAuth, mc)
	s.registerControl(ctx, useAuth, mc)
}

// wrapAuth returns an auth-wrapped handler if authFunc provided.
func (s *ManagementHTTPServer) wrapAuth(handler fiber.Handler) fiber.Handler { //nolint:ireturn
	if s.authFunc == nil {
		return handler
	}

	return func(fiberCtx fiber.Ctx) error {
		authErr := s.authFunc(fiberCtx)
		if authErr != nil {
			return authErr
		}

		return handler(fiberCtx)
	}
}

func (s *ManagementHTTPServer) registerBasic(ctx context.Context, useAuth func(fiber.Handler) fiber.Handler, mc managementCache) {
	s.app.Get("/health", useAuth(func(fiberCtx fiber.Ctx) error { return fiberCtx.SendString("ok") }))
	s.app.Get("/stats", useAuth(func(fiberCtx fiber.Ctx) error { return fiberCtx.JSON(mc.GetStats()) }))
	s.app.Get("/config", useAuth(func(fiberCtx fiber.Ctx) error {
		return fiberCtx.JSON(fiber.Map{
			"maxSize":    mc.MaxSize(),
			"fillFactor": mc.FillFactor(),
			"debug":      mc.Debug(),
			"count":      mc.Count(ctx),
			"allocation": mc.Allocation(),
		})
	}))

	if s.gatherer != nil {
		s.app.Get("/metrics", useAuth(adaptor.HTTPHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))))
	}
}

func (s *ManagementHTTPServer) registerItems(ctx context.Context, useAuth func(fiber.Handler) fiber.Handler, mc managementCache) {
	s.app.Get("/items/:key", useAuth(func(fiberCtx fiber.Ctx) error {
		key := fiberCtx.Params("key")

		value, ok := mc.GetItem(ctx, key)
		if !ok {
			return fiberCtx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "key not found"})
		}

		return fiberCtx.JSON(fiber.Map{"key": key, "value": value})
	}))
	s.app.Delete("/items/:key", useAuth(func(fiberCtx fiber.Ctx) error {
		if _, ok := mc.RemoveItem(ctx, fiberCtx.Params("key")); !ok {
			return fiberCtx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "key not found"})
		}

		return fiberCtx.SendStatus(fiber.StatusNoContent)
	}))
}

func (s *ManagementHTTPServer) registerControl(ctx context.Context, useAuth func(fiber.Handler) fiber.Handler, mc managementCache) {
	s.app.Post("/purge", useAuth(func(fiberCtx fiber.Ctx) error {
		purgeErr := mc.Purge(ctx)
		if purgeErr != nil {
			return purgeErr
		}

		return fiberCtx.SendStatus(fiber.StatusAccepted)
	}))
	s.app.Post("/clear", useAuth(func(fiberCtx fiber.Ctx) error {
		clearErr := mc.Clear(ctx)
		if clearErr != nil {
			return clearErr
		}

		return fiberCtx.SendStatus(fiber.StatusOK)
	}))
}
