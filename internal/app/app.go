package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/minesweeper-engine/internal/config"
	"github.com/vancomm/minesweeper-engine/internal/database"
	"github.com/vancomm/minesweeper-engine/internal/middleware"
	"github.com/vancomm/minesweeper-engine/internal/repository"
)

type App struct {
	cfg      *config.Config
	log      logrus.FieldLogger
	router   *http.ServeMux
	sessions repository.Sessions
	jwt      *config.JWT
	ws       *config.WebSocket
	newRand  func() *rand.Rand
}

func New(cfg *config.Config, log logrus.FieldLogger) *App {
	app := &App{
		cfg:     cfg,
		log:     log,
		router:  http.NewServeMux(),
		newRand: createRand,
	}
	return app
}

// OpenSessions opens the configured session store, migrating postgres first.
func OpenSessions(ctx context.Context, cfg config.StorageConfig) (repository.Sessions, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		dbURL, err := cfg.PostgresURL()
		if err != nil {
			return nil, err
		}
		pool, err := database.ConnectAndMigrate(ctx, dbURL, database.Migrations)
		if err != nil {
			return nil, fmt.Errorf("unable to connect to db: %w", err)
		}
		return &poolSessions{repository.NewPostgres(pool), pool.Close}, nil
	case config.DriverSQLite:
		store, err := repository.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// poolSessions closes the pool it was opened with.
type poolSessions struct {
	*repository.Postgres
	closePool func()
}

func (p *poolSessions) Close() error {
	p.closePool()
	return nil
}

func (a *App) setup(ctx context.Context) error {
	sessions, err := OpenSessions(ctx, a.cfg.Storage)
	if err != nil {
		return err
	}
	a.sessions = sessions

	jwt, err := config.NewJWT(a.cfg.Jwt)
	if err != nil {
		return err
	}
	a.jwt = jwt
	a.ws = config.NewWebSocket(a.cfg.AllowedOrigins)

	a.loadRoutes()
	return nil
}

func (a *App) handler() http.Handler {
	return middleware.Wrap(
		a.router,
		middleware.SessionToken(a.log, a.jwt),
		middleware.Cors(a.cfg.AllowedOrigins),
		middleware.Logging(a.log),
	)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Start(ctx context.Context) error {
	if err := a.setup(ctx); err != nil {
		return err
	}
	defer a.sessions.Close()

	server := &http.Server{
		Addr:    a.cfg.Addr,
		Handler: a.handler(),
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}

	a.log.Infof("ready to serve @ %s", a.cfg.Addr)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
