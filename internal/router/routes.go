package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/leadscout/api/internal/auth"
	"github.com/octobees/leadscout/api/internal/config"
	"github.com/octobees/leadscout/api/internal/handler"
	middlewarepkg "github.com/octobees/leadscout/api/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Auth   *handler.AuthHandler
	Users  *handler.UserAdminHandler
	Places *handler.PlacesHandler
	Search *handler.SearchHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	e.POST("/auth/register", handlers.Auth.Register)
	e.POST("/auth/login", handlers.Auth.Login)
	e.GET("/places", handlers.Places.List)

	secured := e.Group("")
	secured.Use(middlewarepkg.JWT(jwtManager))

	admin := secured.Group("/admin", middlewarepkg.RequireRole("admin"))
	admin.GET("/users", handlers.Users.List)
	admin.POST("/users", handlers.Users.Create)
	admin.PATCH("/users/:id", handlers.Users.Update)
	admin.DELETE("/users/:id", handlers.Users.Delete)

	secured.POST("/search", handlers.Search.Search, middlewarepkg.SearchRateLimiter(cfg.RateLimitSearch))
	secured.POST("/enrich", handlers.Search.Enrich)
}
