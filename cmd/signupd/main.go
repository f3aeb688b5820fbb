package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-signup"
	"github.com/goliatone/go-signup/activitymap"
	"github.com/goliatone/go-signup/middleware/routeguard"
	"github.com/goliatone/go-signup/provider/auth0"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config     *signup.ServiceConfig
	bunDB      *bun.DB
	repo       signup.RepositoryManager
	identities signup.IdentityStore
	tokens     *signup.TokenService
	metrics    *signup.MetricsCollector
	registry   *prometheus.Registry
	srv        router.Server[*fiber.App]
	logger     *glog.BaseLogger
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("signupd"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := signup.LoadServiceConfig()
	if err != nil {
		lgr.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	fmt.Println("============")
	fmt.Println(print.MaybeSecureJSON(cfg))
	fmt.Println("============")

	ctx := context.Background()

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithIdentityStore(ctx, app); err != nil {
		panic(err)
	}

	WithMetrics(app)

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	metricsSrv := ServeMetrics(app)

	go func() {
		if err := app.srv.Serve(cfg.HTTPAddr); err != nil {
			app.GetLogger("signupd").Error("http server stopped", "error", err)
		}
	}()

	sig := WaitExitSignal()
	app.GetLogger("signupd").Info("shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = app.srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	_ = app.bunDB.Close()
}

// WithPersistence opens the database, applies migrations and builds the
// SQL stores.
func WithPersistence(ctx context.Context, app *App) error {
	cfg := app.config

	var (
		db            *sql.DB
		err           error
		gooseDialect  string
		bunDB         *bun.DB
		persistLogger = app.GetLogger("persistence")
	)

	switch cfg.DBDriver {
	case "postgres":
		db, err = sql.Open("pgx", cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("db open error: %w", err)
		}
		gooseDialect = "postgres"
		bunDB = bun.NewDB(db, pgdialect.New())
	default:
		db, err = sql.Open(sqliteshim.ShimName, cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("db open error: %w", err)
		}
		gooseDialect = "sqlite3"
		bunDB = bun.NewDB(db, sqlitedialect.New())
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping error: %w", err)
	}

	if err := signup.Migrate(ctx, db, gooseDialect); err != nil {
		return err
	}

	persistLogger.Info("migrations applied", "driver", cfg.DBDriver)

	repo := signup.NewRepositoryManager(bunDB, signup.BcryptHasher{})
	if err := repo.Validate(); err != nil {
		return err
	}

	app.bunDB = bunDB
	app.repo = repo
	app.identities = repo.Identities()

	return nil
}

// WithIdentityStore swaps the SQL identity store for Auth0 when configured.
func WithIdentityStore(ctx context.Context, app *App) error {
	cfg := app.config
	if cfg.IdentityProvider != "auth0" {
		return nil
	}

	store, err := auth0.NewIdentityStore(ctx, auth0.Config{
		Domain:       cfg.Auth0Domain,
		ClientID:     cfg.Auth0ClientID,
		ClientSecret: cfg.Auth0ClientSecret,
		Connection:   cfg.Auth0Connection,
	}, auth0.WithLogger(app.GetLogger("auth0")))
	if err != nil {
		return err
	}

	app.identities = store
	return nil
}

func WithMetrics(app *App) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app.registry = registry
	app.metrics = signup.NewMetricsCollector(registry)
}

func WithHTTPServer(ctx context.Context, app *App) error {
	cfg := app.config
	sink := activitymap.LogSink(app.GetLogger("activity"))

	app.tokens = signup.NewTokenServiceFromConfig(cfg, app.GetLogger("tokens"))

	checker := signup.NewAvailabilityChecker(
		app.repo.Profiles(),
		signup.WithAvailabilityLogger(app.GetLogger("availability")),
		signup.WithAvailabilityMetrics(app.metrics),
	)

	accounts := signup.NewCreateAccountHandler(
		app.identities,
		app.repo.Profiles(),
		signup.WithCreateAccountLogger(app.GetLogger("provisioning")),
		signup.WithCreateAccountActivitySink(sink),
		signup.WithCreateAccountMetrics(app.metrics),
	)

	sessions := signup.NewSessionEstablisher(
		app.identities,
		app.repo.Profiles(),
		app.tokens,
		signup.WithLoginLogger(app.GetLogger("sessions")),
		signup.WithLoginActivitySink(sink),
		signup.WithLoginMetrics(app.metrics),
	)

	enrollment := signup.NewEnrollment(
		accounts,
		sessions,
		cfg.GetLandingPath(),
		cfg.GetSignInPath(),
		app.GetLogger("enrollment"),
	)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: true,
			StrictRouting:     false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	srv.Router().Use(routeguard.New(routeguard.Config{
		Rules: routeguard.Rules{
			Protected:        cfg.GetProtectedPaths(),
			AuthOnly:         cfg.GetAuthOnlyPaths(),
			SignInPath:       cfg.GetSignInPath(),
			LandingPath:      cfg.GetLandingPath(),
			RedirectQueryKey: cfg.GetRedirectQueryKey(),
		},
		CookieName: cfg.GetCookieName(),
		Validator: routeguard.SessionValidatorFunc(func(token string) (any, error) {
			return app.tokens.SessionFor(token)
		}),
		ContextKey: "session",
		Logger:     app.GetLogger("routeguard"),
	}))

	signup.RegisterSignupRoutes(srv.Router(),
		signup.WithControllerLogger(app.GetLogger("signup:http")),
		signup.WithControllerConfig(cfg),
		signup.WithEnrollment(enrollment),
		signup.WithChecker(checker),
		signup.WithSessions(sessions),
		signup.WithRateLimiter(signup.NewRateLimiter(cfg.AvailabilityPerSec, cfg.AvailabilityBurst)),
	)

	app.srv = srv

	return nil
}

// ServeMetrics exposes the registry on its own listener.
func ServeMetrics(app *App) *http.Server {
	srv := &http.Server{
		Addr:              app.config.MetricsAddr,
		Handler:           signup.MetricsHandler(app.registry, app.bunDB.PingContext),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.GetLogger("metrics").Error("metrics listener stopped", "error", err)
		}
	}()

	return srv
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
