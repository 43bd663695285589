// Package router wires handlers and middleware onto echo routes.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/desert-paths/internal/config"
	"github.com/iliyamo/desert-paths/internal/handler"
	"github.com/iliyamo/desert-paths/internal/logger"
	"github.com/iliyamo/desert-paths/internal/middleware"
	"github.com/iliyamo/desert-paths/internal/model"
)

// Deps bundles everything the routes need.  Redis is optional; without
// it rate limiting and caching are pass-through.
type Deps struct {
	JWTSecret   string
	MockGateway bool
	DB          handler.Pinger
	Redis       *redis.Client
	RateLimit   config.RateLimitConfig
	Cache       config.CacheConfig
	Log         *logger.Logger

	Auth     *handler.AuthHandler
	Catalog  *handler.CatalogHandler
	Bookings *handler.BookingHandler
	Payments *handler.PaymentHandler
	Admin    *handler.AdminHandler
}

// Register mounts every route on e.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health(d.DB))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/v1", middleware.NewTokenBucket(d.RateLimit, d.Redis, d.JWTSecret, d.Log))

	registerPublic(v1, d)
	registerAuth(v1, d)
	registerPayments(v1, d)

	customer := v1.Group("", middleware.JWTAuth(d.JWTSecret))
	registerCustomer(customer, d)

	admin := v1.Group("/admin", middleware.JWTAuth(d.JWTSecret), middleware.RequireRole(model.RoleAdmin, model.RoleManager))
	registerAdmin(admin, d)
}

func registerPublic(g *echo.Group, d Deps) {
	cached := g.Group("", middleware.NewRedisCache(d.Cache, d.Redis))
	cached.GET("/lands", d.Catalog.ListLands)
	cached.GET("/lands/:slug", d.Catalog.GetLand)
	cached.GET("/journeys", d.Catalog.ListJourneys)
	cached.GET("/journeys/:slug", d.Catalog.GetJourney)
	cached.GET("/styles", d.Catalog.ListStyles)
	cached.GET("/journeys/:id/reviews", d.Catalog.ListReviews)
}

func registerAuth(g *echo.Group, d Deps) {
	a := g.Group("/auth")
	a.POST("/register", d.Auth.Register)
	a.POST("/login", d.Auth.Login)
	a.POST("/refresh", d.Auth.Refresh)
	a.POST("/logout", d.Auth.Logout)

	g.GET("/me", d.Auth.Me, middleware.JWTAuth(d.JWTSecret))
}

func registerPayments(g *echo.Group, d Deps) {
	p := g.Group("/payments")
	p.POST("/callback", d.Payments.Callback)
	p.GET("/return", d.Payments.Return)
	p.POST("/return", d.Payments.Return)
	if d.MockGateway {
		p.GET("/mock/checkout", d.Payments.MockCheckout)
		p.POST("/mock/complete", d.Payments.MockComplete)
	}
}

func registerCustomer(g *echo.Group, d Deps) {
	g.POST("/bookings", d.Bookings.Create)
	g.GET("/my-bookings", d.Bookings.ListMine)
	g.GET("/bookings/:id", d.Bookings.Get)
	g.POST("/bookings/:id/cancel", d.Bookings.Cancel)
	g.POST("/bookings/:id/pay", d.Bookings.Pay)
	g.GET("/journeys/:id/can-review", d.Bookings.CanReview)
	g.POST("/journeys/:id/reviews", d.Bookings.SubmitReview)
}

func registerAdmin(g *echo.Group, d Deps) {
	h := d.Admin
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	g.GET("/dashboard", h.Dashboard)

	g.GET("/bookings", h.ListBookings)
	g.GET("/bookings/:id", h.GetBooking)
	g.POST("/bookings/:id/confirm", h.ConfirmBooking)
	g.POST("/bookings/:id/cancel", h.CancelBooking)
	g.POST("/bookings/:id/mark-paid", h.MarkPaid)
	g.POST("/bookings/:id/complete", h.CompleteBooking)
	g.PUT("/bookings/:id/notes", h.SetNotes)

	g.GET("/reviews", h.ListReviews)
	g.POST("/reviews/:id/approve", h.ApproveReview)
	g.DELETE("/reviews/:id", h.DeleteReview)

	g.GET("/lands", h.ListLands)
	g.POST("/lands", h.CreateLand)
	g.PUT("/lands/:id", h.UpdateLand)
	g.DELETE("/lands/:id", h.DeleteLand, adminOnly)

	g.GET("/journeys", h.ListJourneys)
	g.POST("/journeys", h.CreateJourney)
	g.PUT("/journeys/:id", h.UpdateJourney)
	g.DELETE("/journeys/:id", h.DeleteJourney, adminOnly)

	g.GET("/users", h.ListUsers)
	g.POST("/users/:id/toggle-block", h.ToggleBlock)
	g.POST("/users/:id/promote", h.Promote, adminOnly)
	g.POST("/users/:id/demote", h.Demote, adminOnly)
}
