package main

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"smartlink/cache"
	"smartlink/config"
	link "smartlink/handlers/link"
	"smartlink/helpers"
	"smartlink/platform"
	"smartlink/store"
	"smartlink/web"
	"smartlink/workers"
)

const version = "1.0.0"

type Server struct {
	E    *echo.Echo
	Log  *zap.Logger
	Cfg  *config.Config
	AASA []byte

	Store     *store.Store
	Links     *cache.Links
	Worker    *workers.ClickWorker
	Platforms *platform.Resolver
}

func NewServer(cfg *config.Config, log *zap.Logger, st *store.Store, links *cache.Links, worker *workers.ClickWorker, platforms *platform.Resolver, aasa []byte) *Server {
	e := echo.New()

	// essential middleware only
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	e.Renderer = web.NewRenderer()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		E:         e,
		Log:       log,
		Cfg:       cfg,
		AASA:      aasa,
		Store:     st,
		Links:     links,
		Worker:    worker,
		Platforms: platforms,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.E.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})

	s.E.GET("/apple-app-site-association", s.serveAASA)
	s.E.GET("/.well-known/apple-app-site-association", s.serveAASA)

	l := link.New(s.Store, s.Links, s.Worker, s.Platforms, s.Log, s.Cfg.BaseHost)

	createLimiter := helpers.NewRateLimiter(30, time.Minute)
	redirectLimiter := helpers.NewRateLimiter(100, time.Minute)
	statsLimiter := helpers.NewRateLimiter(10, time.Minute)

	apiKey := helpers.APIKeyAuth(s.Cfg.APIKey)

	s.E.GET("/", l.Home)
	s.E.GET("/:slug", l.Redirect, redirectLimiter.Middleware)
	s.E.HEAD("/:slug", l.Redirect, redirectLimiter.Middleware)

	s.E.POST("/api/links", l.Create, apiKey, createLimiter.Middleware)
	s.E.GET("/api/links/:slug/stats", l.Stats, apiKey, statsLimiter.Middleware)
}

func (s *Server) serveAASA(c echo.Context) error {
	if len(s.AASA) == 0 {
		return c.NoContent(http.StatusNotFound)
	}
	return c.Blob(http.StatusOK, "application/json", s.AASA)
}

func (s *Server) Start(addr string) error {
	s.Log.Info("server starting", zap.String("addr", addr))
	return s.E.Start(addr)
}
