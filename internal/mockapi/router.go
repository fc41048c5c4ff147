// Package mockapi is a development backend implementing the ratings REST
// API in memory. ratingctl and the end-to-end tests run against it.
package mockapi

import (
	"context"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/storerate/rating-client/internal/core/domain"
	"github.com/storerate/rating-client/internal/mockapi/handler"
	"github.com/storerate/rating-client/internal/mockapi/memdb"
	"github.com/storerate/rating-client/internal/mockapi/middleware"
)

// Seed is an account created at startup.
type Seed struct {
	Name     string
	Email    string
	Password string
	Address  string
	Role     domain.Role
}

type Options struct {
	JWTSecret string
	TokenTTL  time.Duration
	Seeds     []Seed
	// BcryptCost is lowered by tests; zero means bcrypt.DefaultCost.
	BcryptCost int
	// Registry receives the HTTP metrics; a fresh one is made when nil.
	Registry *prometheus.Registry
	Log      zerolog.Logger
}

// DefaultSeeds is the administrator available on a fresh backend.
var DefaultSeeds = []Seed{{
	Name:     "Platform Administrator Account",
	Email:    "admin@example.com",
	Password: "Admin@1234",
	Address:  "1 Admin Way",
	Role:     domain.RoleAdmin,
}}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(ctx context.Context, opts Options) (*echo.Echo, error) {
	db := memdb.New(memdb.Options{BcryptCost: opts.BcryptCost})
	for _, s := range opts.Seeds {
		if _, err := db.CreateAccount(ctx, domain.NewUserProfile{
			Name: s.Name, Email: s.Email, Password: s.Password, Address: s.Address, Role: s.Role,
		}); err != nil {
			return nil, err
		}
	}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "mockapi",
		Registerer: reg,
	}))
	e.Use(requestLogger(opts.Log))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(db, middleware.NewIssuer(opts.JWTSecret, opts.TokenTTL))
	adminHandler := handler.NewAdminHandler(db)
	userHandler := handler.NewUserHandler(db)
	ownerHandler := handler.NewOwnerHandler(db)
	healthHandler := handler.NewHealthHandler(db)
	auth := middleware.Auth(opts.JWTSecret)

	// --- Auth routes ---
	e.POST("/auth/signup", authHandler.Signup)
	e.POST("/auth/login", authHandler.Login)
	e.PUT("/auth/password", authHandler.UpdatePassword, auth, middleware.Gate(domain.OpUpdatePassword))

	// --- Role routes ---
	// Each route is gated on the operation it serves; the role table decides
	// which roles reach it.
	admin := e.Group("/admin", auth)
	admin.GET("/users", adminHandler.ListUsers, middleware.Gate(domain.OpListUsers))
	admin.POST("/users", adminHandler.CreateUser, middleware.Gate(domain.OpCreateUser))
	admin.GET("/stores", adminHandler.ListStores, middleware.Gate(domain.OpListStores))
	admin.POST("/stores", adminHandler.CreateStore, middleware.Gate(domain.OpCreateStore))
	admin.GET("/owners", adminHandler.ListOwners, middleware.Gate(domain.OpListOwners))
	admin.GET("/dashboard", adminHandler.Dashboard, middleware.Gate(domain.OpDashboard))

	user := e.Group("/user", auth)
	user.GET("/stores", userHandler.ListStores, middleware.Gate(domain.OpListStores))
	user.POST("/ratings", userHandler.SubmitRating, middleware.Gate(domain.OpSubmitRating))

	owner := e.Group("/owner", auth)
	owner.GET("/dashboard", ownerHandler.Dashboard, middleware.Gate(domain.OpDashboard))
	owner.GET("/ratings", ownerHandler.Ratings, middleware.Gate(domain.OpOwnerRatings))

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg}))

	return e, nil
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			log.Info().
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Int("status", c.Response().Status).
				Dur("elapsed", time.Since(start)).
				Msg("request")
			return nil
		}
	}
}
