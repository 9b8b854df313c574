package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nutrihelper/backend/config"
	httpDelivery "github.com/nutrihelper/backend/internal/delivery/http"
	"github.com/nutrihelper/backend/internal/domain"
	"github.com/nutrihelper/backend/internal/infrastructure/cache"
	"github.com/nutrihelper/backend/internal/infrastructure/journal"
	"github.com/nutrihelper/backend/internal/infrastructure/localstore"
	"github.com/nutrihelper/backend/internal/infrastructure/openai"
	"github.com/nutrihelper/backend/internal/infrastructure/openfoodfacts"
	"github.com/nutrihelper/backend/internal/usecase"
)

// App is the wired dependency graph shared by the server and the CLI
type App struct {
	Config            *config.Config
	Logger            *zap.Logger
	Resolver          *usecase.Resolver
	Foods             *usecase.FoodService
	Journal           *journal.FileJournal
	DefaultPreference domain.Preference
}

// New builds every component once from configuration
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	pref, err := domain.ParsePreference(cfg.Resolver.DefaultProvider)
	if err != nil {
		return nil, err
	}

	memo, err := cache.NewMemoryCache[*domain.NutritionFacts](cfg.Cache.Size)
	if err != nil {
		return nil, fmt.Errorf("create remote cache: %w", err)
	}

	offClient := openfoodfacts.NewClient(openfoodfacts.ClientConfig{
		BaseURL:           cfg.OpenFoodFacts.BaseURL,
		Timeout:           cfg.OpenFoodFacts.Timeout,
		PageSize:          cfg.OpenFoodFacts.PageSize,
		UserAgent:         cfg.OpenFoodFacts.UserAgent,
		RequestsPerMinute: cfg.OpenFoodFacts.RequestsPerMinute,
	}, logger)
	remote := openfoodfacts.NewProvider(offClient, memo, logger)

	// must stay a nil interface when no key is configured
	var generative domain.GenerativeProvider
	if cfg.HasOpenAI() {
		generative = openai.NewClient(openai.Config{
			APIKey:             cfg.OpenAI.APIKey,
			BaseURL:            cfg.OpenAI.BaseURL,
			Model:              cfg.OpenAI.Model,
			Timeout:            cfg.OpenAI.Timeout,
			ConsiderQuantities: cfg.OpenAI.ConsiderQuantities,
		}, logger)
		logger.Info("generative provider enabled", zap.String("model", cfg.OpenAI.Model))
	} else {
		logger.Info("no OpenAI key configured, using food databases only",
			zap.String("defaultProvider", string(pref)))
	}

	store := localstore.Load(cfg.Storage.CustomFoodsPath, logger)
	j := journal.NewFileJournal(cfg.Storage.HistoryPath, cfg.Storage.ErrorLogPath, logger)

	resolver := usecase.NewResolver(generative, remote, store, j, usecase.ResolverConfig{
		FallbackOnAnyGenerativeError: cfg.Resolver.FallbackOnAnyGenerativeError,
	}, logger)

	return &App{
		Config:            cfg,
		Logger:            logger,
		Resolver:          resolver,
		Foods:             usecase.NewFoodService(store, logger),
		Journal:           j,
		DefaultPreference: pref,
	}, nil
}

// Router builds the HTTP router
func (a *App) Router() *gin.Engine {
	handler := httpDelivery.NewHandler(a.Resolver, a.Foods, a.Journal, a.DefaultPreference, a.Logger)
	return httpDelivery.SetupRouter(a.Config, handler, a.Logger)
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down gracefully
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", a.Config.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down server", zap.Duration("timeout", a.Config.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
