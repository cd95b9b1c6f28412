package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/agent/core"
	"github.com/mohammad-safakhou/researcher/internal/memory/episodic"
	"github.com/mohammad-safakhou/researcher/internal/memory/semantic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Researcher runs research sessions.
type Researcher interface {
	Research(ctx context.Context, query string) (core.Result, error)
	Active() []core.ProcessingStatus
}

// SessionReader is the read side of episodic memory.
type SessionReader interface {
	Sessions() []episodic.Session
	SessionHistory(id string) (episodic.Session, bool)
	AgentStats() episodic.Stats
}

// MemoryReader is the read side of semantic memory.
type MemoryReader interface {
	Find(query string, topK int, mode string) ([]semantic.Record, error)
	Stats(ctx context.Context) semantic.Stats
}

// ReportLister lists saved report files, newest first.
type ReportLister interface {
	List() ([]string, error)
}

// MetricsSource provides the prometheus handler served on /metrics.
type MetricsSource interface {
	Handler() http.Handler
}

// Deps are the components served by the API. Researcher, Sessions and
// Memory are required.
type Deps struct {
	Config     *config.Config
	Researcher Researcher
	Sessions   SessionReader
	Memory     MemoryReader
	Reports    ReportLister
	Metrics    MetricsSource
	Logger     *log.Logger
}

// New builds the echo instance with every route registered.
func New(d Deps) (*echo.Echo, error) {
	if d.Researcher == nil || d.Sessions == nil || d.Memory == nil {
		return nil, errors.New("server: researcher, sessions and memory are required")
	}
	if d.Config == nil {
		d.Config = config.Default()
	}
	if d.Logger == nil {
		d.Logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	// Unified HTTP error handler with structured JSON and logging
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		d.Logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	} else {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	api := e.Group("/api")
	timeout := d.Config.General.DefaultTimeout
	(&ResearchHandler{Researcher: d.Researcher, Timeout: timeout, Logger: d.Logger}).Register(api.Group("/research"))
	(&SessionsHandler{Sessions: d.Sessions}).Register(api.Group("/sessions"))
	NewMemoryHandler(d.Config, d.Memory, d.Logger).Register(api.Group("/memory"))
	(&OpsHandler{Config: d.Config, Sessions: d.Sessions, Memory: d.Memory, Reports: d.Reports}).Register(api)
	return e, nil
}

// Run serves the API on addr until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, addr string, d Deps) error {
	e, err := New(d)
	if err != nil {
		return err
	}
	if addr == "" && d.Config != nil {
		addr = d.Config.Server.Address
	}
	if addr == "" {
		addr = ":8080"
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
