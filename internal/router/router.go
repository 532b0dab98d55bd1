package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/campus-events/gatepass/internal/config"
	"github.com/campus-events/gatepass/internal/handler"
	"github.com/campus-events/gatepass/internal/middleware"
	"github.com/campus-events/gatepass/internal/model"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Events *handler.EventHandler
	Passes *handler.PassHandler
	Scan   *handler.ScanHandler
}

// Register wires the full route table onto e.
//
// Three tiers: public browse routes with response caching, authenticated
// booking routes, and scanner routes behind a role gate. Scan responses are
// never cached; a stale HIT could show a consumed entry as fresh, so the
// cache middleware is attached only to the public group.
func Register(e *echo.Echo, h Handlers, cfg *config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Public catalog browsing. Guests compare events before signing in, so
	// these carry no JWT and are the only cached routes.
	pub := e.Group("/v1", cache)
	pub.GET("/events", h.Events.List)
	pub.GET("/events/:id", h.Events.Get)

	// Authenticated holder routes: booking and recovery lookups.
	auth := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), rateLimit)
	auth.POST("/passes", h.Passes.Book)
	auth.POST("/passes/lookup", h.Passes.Lookup)
	auth.GET("/passes/:uuid/summary", h.Scan.Summary)
	auth.GET("/passes/:uuid/entries/:entry_id", h.Scan.EntryDetail)
	auth.POST("/events", h.Events.Create)

	// Door-side routes. The role gate here is the first line; Redeem
	// re-checks the actor against the pass's event inside the handler.
	scan := e.Group(
		"/v1/scan",
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleEventManager),
		rateLimit,
	)
	scan.POST("/authorize", h.Scan.Authorize)
	scan.POST("/redeem", h.Scan.Redeem)
}
