package api

import (
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/placedir/server/internal/api/handlers"
	"github.com/placedir/server/internal/api/middleware"
	"github.com/placedir/server/internal/auth"
	"github.com/placedir/server/internal/config"
	"github.com/placedir/server/internal/domain/places"
	"github.com/placedir/server/internal/domain/users"
	"github.com/placedir/server/internal/metrics"
	"github.com/placedir/server/internal/storage/postgres"
)

// BuildInfo carries the ldflags-injected build metadata down to the version
// and health endpoints.
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

func NewRouter(cfg config.Config, logger zerolog.Logger, pool *pgxpool.Pool, build BuildInfo) (http.Handler, error) {
	repo, err := postgres.NewRepository(pool, cfg.Database.QueryTimeout)
	if err != nil {
		return nil, fmt.Errorf("init repository: %w", err)
	}
	signer, err := auth.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
	if err != nil {
		return nil, fmt.Errorf("init token signer: %w", err)
	}

	service := places.NewService(repo.Places(), repo.Search(), repo.Keywords(), places.ServiceOptions{
		DegradeOnStoreError: cfg.Search.DegradeOnStoreError,
	})
	usersService := users.NewService(repo.Users(), signer)

	return buildRouter(cfg, logger, pool, service, usersService, signer, build), nil
}

func buildRouter(cfg config.Config, logger zerolog.Logger, pool *pgxpool.Pool, service *places.Service, usersService *users.Service, signer *auth.Signer, build BuildInfo) http.Handler {
	searchHandler := handlers.NewSearchHandler(service, cfg.Environment)
	placesHandler := handlers.NewPlacesHandler(service, cfg.Environment)
	keywordsHandler := handlers.NewKeywordsHandler(service, cfg.Environment)
	authHandler := handlers.NewAuthHandler(usersService, cfg.Environment)
	checker := handlers.NewHealthChecker(pool, build.Version, build.GitCommit)

	requireAuth := middleware.RequireAuth(signer, cfg.Environment)
	requireAdmin := middleware.RequireAdmin(signer, cfg.Environment)
	adminTier := middleware.WithRateLimitTierHandler(middleware.TierAdmin)
	loginTier := middleware.WithRateLimitTierHandler(middleware.TierLogin)

	// One limiter store shared by every route. The tier wrapper must run
	// before the limiter reads the tier from context, so limiting is applied
	// per route, not around the whole mux.
	rateLimit := middleware.RateLimit(cfg.RateLimit)
	public := func(h http.HandlerFunc) http.Handler { return rateLimit(h) }
	authed := func(h http.HandlerFunc) http.Handler { return rateLimit(requireAuth(h)) }
	admin := func(h http.HandlerFunc) http.Handler { return adminTier(rateLimit(requireAdmin(h))) }
	login := func(h http.HandlerFunc) http.Handler { return loginTier(rateLimit(h)) }

	mux := http.NewServeMux()

	mux.Handle("GET /healthz", handlers.Healthz())
	mux.Handle("GET /readyz", handlers.Readyz(pool))
	mux.Handle("GET /health", checker.Health())
	mux.Handle("GET /version", VersionHandler(build.Version, build.GitCommit, build.BuildDate))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// Discovery endpoints. The main search accepts POST for filter payloads
	// that outgrow a query string; the shortcuts are GET only.
	mux.Handle("GET /api/v1/places/search", public(searchHandler.Search))
	mux.Handle("POST /api/v1/places/search", public(searchHandler.Search))
	mux.Handle("GET /api/v1/places/search/location", public(searchHandler.Location))
	mux.Handle("POST /api/v1/places/search/location", public(searchHandler.Location))
	mux.Handle("GET /api/v1/places/search/region", public(searchHandler.Region))
	mux.Handle("POST /api/v1/places/search/region", public(searchHandler.Region))
	mux.Handle("GET /api/v1/places/search/popular", public(searchHandler.Popular))
	mux.Handle("GET /api/v1/places/search/recent", public(searchHandler.Recent))
	mux.Handle("GET /api/v1/places/search/count", public(searchHandler.Count))
	mux.Handle("POST /api/v1/places/search/count", public(searchHandler.Count))

	mux.Handle("POST /api/v1/auth/login", login(authHandler.Login))

	mux.Handle("GET /api/v1/keywords", public(keywordsHandler.List))
	mux.Handle("GET /api/v1/places/{id}", public(placesHandler.Get))

	mux.Handle("POST /api/v1/places", authed(placesHandler.Register))
	mux.Handle("PUT /api/v1/places/{id}", authed(placesHandler.Update))
	mux.Handle("DELETE /api/v1/places/{id}", authed(placesHandler.Delete))
	mux.Handle("POST /api/v1/places/{id}/activate", authed(placesHandler.Activate))
	mux.Handle("POST /api/v1/places/{id}/deactivate", authed(placesHandler.Deactivate))
	mux.Handle("PUT /api/v1/places/{id}/images", authed(placesHandler.ReplaceImages))

	mux.Handle("POST /api/v1/admin/places/{id}/approve", admin(placesHandler.Approve))
	mux.Handle("POST /api/v1/admin/places/{id}/reject", admin(placesHandler.Reject))

	var handler http.Handler = mux
	handler = middleware.CORS(cfg.CORS, logger)(handler)
	handler = middleware.SecurityHeaders()(handler)
	handler = metrics.InstrumentHandler(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)
	return handler
}
