// Package app contains the application setup for the storefront.
package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/widyakumara/bakeshop/internal/catalog"
	"github.com/widyakumara/bakeshop/internal/config"
	"github.com/widyakumara/bakeshop/internal/store"
	"github.com/widyakumara/bakeshop/internal/transport/rest"
	"github.com/widyakumara/bakeshop/pkg/server"
)

type Dependencies struct {
	Catalog catalog.Service
	Store   *store.Store
	Logger  *slog.Logger
}

func SetupDependencies(cfg *config.Config, logger *slog.Logger) *Dependencies {
	catalogClient := catalog.NewClient(cfg.Catalog, logger)
	st := store.New(catalogClient, cfg.Store.MaxOrders, logger)

	return &Dependencies{
		Catalog: catalogClient,
		Store:   st,
		Logger:  logger,
	}
}

// SetupHttpHandler initializes the HTTP routes for the storefront.
// Also used by tests to exercise the full middleware chain.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the storefront application.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	storefrontHandler := rest.NewHandler(deps.Store, deps.Logger)
	storefrontHandler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures an HTTP server for the storefront.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
