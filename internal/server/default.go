package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	"github.com/coursecraft/platform/modules/intake/domain/catalog"
	intakepersistence "github.com/coursecraft/platform/modules/intake/infrastructure/persistence"
	"github.com/coursecraft/platform/modules/intake/presentation/controllers"
	"github.com/coursecraft/platform/modules/intake/services"
	workspacepersistence "github.com/coursecraft/platform/modules/workspace/infrastructure/persistence"
	workspaceservices "github.com/coursecraft/platform/modules/workspace/services"
	"github.com/coursecraft/platform/pkg/application"
	"github.com/coursecraft/platform/pkg/configuration"
	"github.com/coursecraft/platform/pkg/constants"
	"github.com/coursecraft/platform/pkg/httpapi"
	"github.com/coursecraft/platform/pkg/metrics"
	"github.com/coursecraft/platform/pkg/middleware"
	"github.com/coursecraft/platform/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

// Default assembles the full HTTP server: middleware stack, repositories,
// services and controllers.
func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	conf := options.Configuration
	app := options.Application

	resolver, err := loadCatalog(conf)
	if err != nil {
		return nil, err
	}

	tokenRepo := intakepersistence.NewTokenRepository()
	submissionRepo := intakepersistence.NewSubmissionRepository()
	responseRepo := intakepersistence.NewResponseRepository()
	workspaceRepo := workspacepersistence.NewWorkspaceRepository()

	authorizer := workspaceservices.NewAuthorizerService(workspaceRepo)
	tokenSvc := services.NewTokenService(tokenRepo, submissionRepo, resolver, authorizer)
	intakeSvc := services.NewIntakeService(services.IntakeServiceConfig{
		Tokens:      tokenSvc,
		TokenRepo:   tokenRepo,
		Submissions: submissionRepo,
		Responses:   responseRepo,
		Catalog:     resolver,
		Workspaces:  workspaceRepo,
		Publisher:   app.EventPublisher(),
	})
	reviewSvc := services.NewReviewService(
		submissionRepo, responseRepo, tokenRepo, resolver, authorizer, app.EventPublisher(),
	)

	app.RegisterMiddleware(
		middleware.WithLogger(options.Logger),
		middleware.Provide(constants.AppKey, app),
		middleware.Provide(constants.PoolKey, options.Pool),
		middleware.Cors(conf.Origin),
		middleware.GatewayAuth(),
		middleware.RequestParams(),
	)

	app.RegisterControllers(
		controllers.NewIntakeAPIController(intakeSvc, intakeRateLimiter(conf, options.Logger)),
		controllers.NewReviewAPIController(tokenSvc, reviewSvc, conf.Intake.TokenTTL),
	)
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	return server.NewHTTPServer(app, notFound(), methodNotAllowed()), nil
}

func loadCatalog(conf *configuration.Configuration) (catalog.Resolver, error) {
	if conf.Intake.CatalogPath != "" {
		return catalog.LoadFile(conf.Intake.CatalogPath)
	}
	return catalog.Default(), nil
}

// intakeRateLimiter throttles respondent routes per token, falling back to
// the client IP for malformed paths. Returns nil when disabled.
func intakeRateLimiter(conf *configuration.Configuration, logger *logrus.Logger) mux.MiddlewareFunc {
	if !conf.RateLimit.Enabled {
		return nil
	}

	var store limiter.Store
	if conf.RateLimit.Storage == "redis" {
		redisStore, err := middleware.NewRedisStore(conf.RateLimit.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("redis rate limit store unavailable, using memory store")
			store = middleware.NewMemoryStore()
		} else {
			store = redisStore
		}
	} else {
		store = middleware.NewMemoryStore()
	}

	return middleware.RateLimit(middleware.RateLimitConfig{
		Requests: conf.RateLimit.IntakeRequests,
		Period:   conf.RateLimit.IntakePeriod,
		Store:    store,
		KeyFunc:  middleware.TokenOrIPKey,
	})
}

func notFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	})
}

func methodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})
}
