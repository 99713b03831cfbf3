package application

import (
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/coursecraft/platform/pkg/eventbus"
)

// Controller is a self-registering group of HTTP routes.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}

// Application is the composition root shared by controllers and services.
type Application interface {
	Controllers() []Controller
	RegisterControllers(controllers ...Controller)
	Middleware() []mux.MiddlewareFunc
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	EventPublisher() eventbus.EventBus
	Pool() *pgxpool.Pool
	Logger() *logrus.Logger
}

func New(pool *pgxpool.Pool, publisher eventbus.EventBus, logger *logrus.Logger) Application {
	return &application{
		pool:      pool,
		publisher: publisher,
		logger:    logger,
	}
}

type application struct {
	pool        *pgxpool.Pool
	publisher   eventbus.EventBus
	logger      *logrus.Logger
	controllers []Controller
	middleware  []mux.MiddlewareFunc
}

func (a *application) Controllers() []Controller {
	return a.controllers
}

func (a *application) RegisterControllers(controllers ...Controller) {
	a.controllers = append(a.controllers, controllers...)
}

func (a *application) Middleware() []mux.MiddlewareFunc {
	return a.middleware
}

func (a *application) RegisterMiddleware(middleware ...mux.MiddlewareFunc) {
	a.middleware = append(a.middleware, middleware...)
}

func (a *application) EventPublisher() eventbus.EventBus {
	return a.publisher
}

func (a *application) Pool() *pgxpool.Pool {
	return a.pool
}

func (a *application) Logger() *logrus.Logger {
	return a.logger
}
