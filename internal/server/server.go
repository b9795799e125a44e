package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autofyn/linkedgen/config"
	"github.com/autofyn/linkedgen/internal/runtime"
)

// Run builds the full runtime and serves the HTTP API on the configured
// address. It blocks until the listener fails.
func Run(cfg *config.Config) error {
	ctx := context.Background()

	if cfg.Storage.Postgres.Enabled() {
		// Best-effort schema upkeep; real connection trouble surfaces in
		// runtime.New below.
		_ = Migrate("file://migrations", cfg.Storage.Postgres.DSN(), "up", 0)
	}

	rt, err := runtime.New(ctx, cfg, log.New(log.Writer(), "[AGENT] ", log.LstdFlags))
	if err != nil {
		return err
	}
	defer rt.Close()

	e := newRouter(rt)

	if cfg.Scheduler.Enabled {
		sched := &Scheduler{Rt: rt, Stop: make(chan struct{})}
		sched.Start()
		defer close(sched.Stop)
	}

	log.Printf("listening on %s", cfg.Server.Address)
	return e.Start(cfg.Server.Address)
}

func newRouter(rt *runtime.Runtime) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Api-Secret"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("")
	api.Use(requireSecret(rt.Config.Server.APISecret))
	rh := &RunsHandler{rt: rt, logger: baseLogger}
	rh.Register(api)

	return e
}
