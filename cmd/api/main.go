package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/octobees/leadscout/api/internal/auth"
	"github.com/octobees/leadscout/api/internal/config"
	"github.com/octobees/leadscout/api/internal/database"
	"github.com/octobees/leadscout/api/internal/enrich"
	"github.com/octobees/leadscout/api/internal/handler"
	middlewarepkg "github.com/octobees/leadscout/api/internal/middleware"
	"github.com/octobees/leadscout/api/internal/places"
	"github.com/octobees/leadscout/api/internal/repository"
	"github.com/octobees/leadscout/api/internal/router"
	"github.com/octobees/leadscout/api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer pool.Close()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	usersRepo := repository.NewPGXUsersRepository(pool)
	placesRepo := repository.NewPGXPlacesRepository(pool)

	placesClient, err := places.NewClient(cfg.PlacesAPIKey)
	if err != nil {
		log.Fatalf("failed to build places client: %v", err)
	}
	enhancer := places.NewEnhancer(placesClient)

	enricher := enrich.NewOrchestrator(
		enrich.Mode(cfg.EnrichmentMode),
		enrichmentSourceOptions(cfg)...,
	)

	authService := service.NewAuthService(usersRepo, jwtManager)
	userService := service.NewUserService(usersRepo)
	placesService := service.NewPlacesService(placesRepo)
	searchService := service.NewSearchService(placesRepo, placesClient, enhancer, enricher, cfg.CacheFreshness)

	handlers := router.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		Users:  handler.NewUserAdminHandler(userService),
		Places: handler.NewPlacesHandler(placesService),
		Search: handler.NewSearchHandler(searchService),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging())
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, jwtManager, handlers)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

// enrichmentSourceOptions wires only the data sources that have credentials
// configured. A nil concrete client must never be handed to the orchestrator
// as a non-nil interface.
func enrichmentSourceOptions(cfg *config.Config) []enrich.Option {
	opts := []enrich.Option{
		enrich.WithBudget(cfg.EnrichmentBudget),
		enrich.WithPhoneRegion(cfg.PhoneRegion),
		enrich.WithResolver(enrich.SystemDNSResolver{}),
	}
	if primary := enrich.NewCompanyDataClient("company_data", cfg.CompanyData.APIKey, cfg.CompanyData.BaseURL, nil); primary != nil {
		opts = append(opts, enrich.WithPrimarySource(primary))
	}
	if secondary := enrich.NewCompanyDataClient("company_data_fallback", cfg.CompanyDataFallback.APIKey, cfg.CompanyDataFallback.BaseURL, nil); secondary != nil {
		opts = append(opts, enrich.WithSecondarySource(secondary))
	}
	if legal := enrich.NewLegalRegistryClient(cfg.LegalRegistry.APIKey, cfg.LegalRegistry.BaseURL, nil); legal != nil {
		opts = append(opts, enrich.WithLegalSource(legal))
	}
	return opts
}
