package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-account"
	"github.com/goliatone/go-account/activity/natssink"
	"github.com/goliatone/go-account/config"
	"github.com/goliatone/go-account/mailer/sendgrid"
	"github.com/goliatone/go-account/persistence"
	"github.com/goliatone/go-account/ratelimit"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	cfg    *config.Config
	logger *account.SlogLogger
	db     *bun.DB
	redis  *redis.Client
	nats   *nats.Conn
	svc    *account.Service
	srv    router.Server[*fiber.App]
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}

	if err := app.run(ctx); err != nil {
		app.logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *account.SlogLogger {
	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return account.NewSlogLogger(slog.New(handler)).With("service", "accountd")
}

func newApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{cfg: cfg, logger: newLogger(cfg)}
	app.logger.Debug("configuration loaded", "config", print.MaybePrettyJSON(cfg.Redacted()))

	client, err := persistence.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	db := client.DB()
	app.db = db

	if cfg.Database.Migrate {
		if err := persistence.Migrate(ctx, db); err != nil {
			app.close()
			return nil, err
		}
	}

	repo := account.NewRepositoryManager(db)
	repo.MustValidate()

	opts := []account.Option{
		account.WithConfig(cfg),
		account.WithLogger(app.logger.With("component", "lifecycle")),
	}

	if cfg.NATS.URL != "" {
		nc, err := natssink.Connect(cfg.NATS.URL, "accountd")
		if err != nil {
			app.close()
			return nil, err
		}
		app.nats = nc
		opts = append(opts, account.WithActivitySink(natssink.New(nc, cfg.NATS.SubjectPrefix)))
	}

	tokens := account.NewTokenServiceFromConfig(cfg, app.logger.With("component", "tokens"))
	app.svc = account.NewService(repo, app.notifier(), tokens, opts...)

	httpLogger := app.logger.With("component", "http")
	app.srv = router.NewFiberAdapter(func(*fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:      "accountd",
			ErrorHandler: account.NewFiberErrorHandler(httpLogger),
		}))
	})

	errorHandler := account.NewErrorHandler(httpLogger)
	routes := []account.AuthControllerOption{
		account.WithControllerLogger(app.logger.With("component", "controller")),
		account.WithErrorHandler(errorHandler),
		account.WithProtectedRoute(account.ProtectedRoute(tokens, "user", errorHandler), "user"),
	}
	if throttle := app.throttle(errorHandler); throttle != nil {
		routes = append(routes, account.WithThrottle(throttle))
	}

	account.RegisterAuthRoutes(app.srv.Router().Group(cfg.APIPrefix+"/auth"), app.svc, routes...)

	return app, nil
}

func (a *App) notifier() account.Notifier {
	if a.cfg.SendGrid.APIKey == "" {
		a.logger.Warn("SENDGRID_API_KEY not set, notifications are only logged")
		return account.NewLogNotifier(a.logger.With("component", "mailer"), a.cfg.Client.URL)
	}

	return sendgrid.New(sendgrid.Config{
		APIKey:            a.cfg.SendGrid.APIKey,
		Host:              a.cfg.SendGrid.Host,
		FromEmail:         a.cfg.SendGrid.FromEmail,
		FromName:          a.cfg.SendGrid.FromName,
		ConfirmTemplateID: a.cfg.SendGrid.ConfirmTemplateID,
		ResetTemplateID:   a.cfg.SendGrid.ResetTemplateID,
		ClientURL:         a.cfg.Client.URL,
	}, a.logger.With("component", "mailer"))
}

func (a *App) throttle(errorHandler router.ErrorHandler) router.MiddlewareFunc {
	if a.cfg.Redis.Addr == "" {
		return nil
	}

	a.redis = redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})

	limiter := ratelimit.New(a.redis, a.cfg.Redis.RatePrefix, a.cfg.Redis.RateMax, a.cfg.Redis.RateWindow)

	return ratelimit.NewMiddleware(ratelimit.Config{
		Limiter:  limiter,
		FailOpen: a.cfg.Redis.FailOpen,
		LimitReached: func(ctx router.Context) error {
			return errorHandler(ctx, account.ErrTooManyRequests)
		},
		OnError: func(ctx router.Context, err error) {
			a.logger.Warn("rate limiter unavailable", "path", ctx.Path(), "error", err)
		},
	})
}

func (a *App) run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", a.cfg.HTTPAddr)
		errCh <- a.srv.Serve(a.cfg.HTTPAddr)
	}()

	var err error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case err = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if serr := a.srv.Shutdown(shutdownCtx); serr != nil {
		err = errors.Join(err, serr)
	}

	// let queued reset mails go out before closing
	a.svc.Wait()
	a.close()

	return err
}

func (a *App) close() {
	if a.nats != nil {
		if err := a.nats.Drain(); err != nil {
			a.logger.Warn("nats drain failed", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis close failed", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("database close failed", "error", err)
		}
	}
}
