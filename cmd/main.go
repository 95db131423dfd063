// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/coursecast/internal/cache"
	"github.com/Shivanand-hulikatti/coursecast/internal/config"
	"github.com/Shivanand-hulikatti/coursecast/internal/database"
	"github.com/Shivanand-hulikatti/coursecast/internal/handler"
	"github.com/Shivanand-hulikatti/coursecast/internal/metrics"
	"github.com/Shivanand-hulikatti/coursecast/internal/repository"
	"github.com/Shivanand-hulikatti/coursecast/internal/repository/memstore"
	"github.com/Shivanand-hulikatti/coursecast/internal/service"
	"github.com/Shivanand-hulikatti/coursecast/internal/session"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
)

func main() {
	app := &cli.App{
		Name:  "coursecast",
		Usage: "live golf tournament scoreboard",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "path to the YAML configuration file"},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file loaded before the configuration"},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("coursecast failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	if err := config.LoadDotEnv(c.String("env-file")); err != nil {
		return nil, err
	}
	return config.Load(c.String("config"))
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// ─── serve ────────────────────────────────────────────────────────────────────

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "migrate", Usage: "apply pending migrations before serving"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return serve(c.Context, cfg, c.Bool("migrate"))
		},
	}
}

type stores struct {
	courses     repository.CourseStore
	tournaments repository.TournamentStore
	teams       repository.TeamStore
	close       func()
}

func openStores(ctx context.Context, cfg *config.Config, migrate bool, logger *slog.Logger) (*stores, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		m := memstore.New()
		return &stores{courses: m.Courses(), tournaments: m.Tournaments(), teams: m.Teams(), close: func() {}}, nil
	}

	if migrate {
		if err := runMigrations(cfg.Postgres.URL(), logger); err != nil {
			return nil, err
		}
	}

	pool, err := database.NewPool(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	logger.Info("connected to PostgreSQL", slog.String("host", cfg.Postgres.Host))
	return &stores{
		courses:     repository.NewCourseRepository(pool),
		tournaments: repository.NewTournamentRepository(pool),
		teams:       repository.NewTeamRepository(pool),
		close:       pool.Close,
	}, nil
}

func openCache(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (cache.Scoreboard, func()) {
	if cfg.Addr == "" {
		return cache.Nop{}, func() {}
	}
	rc, err := cache.Dial(ctx, cfg)
	if err != nil {
		logger.Warn("scoreboard cache unavailable, reading through to the store",
			slog.String("addr", cfg.Addr), slog.Any("error", err))
		return cache.Nop{}, func() {}
	}
	logger.Info("scoreboard cache enabled", slog.String("addr", cfg.Addr), slog.Duration("ttl", cfg.TTL))
	return rc, func() { _ = rc.Close() }
}

func sessionSecret(cfg config.SessionConfig, logger *slog.Logger) (string, error) {
	if cfg.Secret != "" {
		return cfg.Secret, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	logger.Warn("SESSION_SECRET is not set, using a random secret; sessions will not survive a restart")
	return hex.EncodeToString(buf), nil
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	// ── 1. Storage ────────────────────────────────────────────────────────
	st, err := openStores(ctx, cfg, migrate, logger)
	if err != nil {
		return err
	}
	defer st.close()

	snapshots, closeCache := openCache(ctx, cfg.Redis, logger)
	defer closeCache()

	secret, err := sessionSecret(cfg.Session, logger)
	if err != nil {
		return err
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	m := metrics.New()
	tel := service.Telemetry{Logger: logger, Tracer: otel.Tracer("coursecast"), Metrics: m}
	issuer := session.NewIssuer(secret, cfg.Session.TTL)

	h := handler.NewScoreHandler(
		service.NewCourseService(st.courses, tel),
		service.NewTournamentService(st.tournaments, st.courses, issuer, tel),
		service.NewTeamService(st.tournaments, st.teams, issuer, snapshots, tel),
		service.NewScoreboardService(st.tournaments, st.courses, st.teams, snapshots, cfg.Scoreboard.RefreshInterval, tel),
		logger,
	)

	// ── 3. Build the router ───────────────────────────────────────────────
	router := handler.NewRouter(handler.Deps{
		Handler: h,
		Issuer:  issuer,
		Metrics: m,
		Logger:  logger,
		HTTP:    cfg.HTTP,
	})

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.HTTP.Addr), slog.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Block until SIGINT or SIGTERM, or the listener fails.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// ─── migrate ──────────────────────────────────────────────────────────────────

func runMigrations(url string, logger *slog.Logger) error {
	m, err := database.NewMigrator(url)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}

func migrateCommand() *cli.Command {
	withMigrator := func(fn func(*database.Migrator) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			m, err := database.NewMigrator(cfg.Postgres.URL())
			if err != nil {
				return err
			}
			defer m.Close()
			return fn(m)
		}
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: withMigrator(func(m *database.Migrator) error {
					if err := m.Up(); err != nil {
						return err
					}
					fmt.Println("database is up to date")
					return nil
				}),
			},
			{
				Name:  "down",
				Usage: "roll back the last migration",
				Action: withMigrator(func(m *database.Migrator) error {
					if err := m.Down(); err != nil {
						return err
					}
					fmt.Println("rolled back one migration")
					return nil
				}),
			},
			{
				Name:  "version",
				Usage: "print the current schema version",
				Action: withMigrator(func(m *database.Migrator) error {
					version, dirty, ok, err := m.Version()
					if err != nil {
						return err
					}
					if !ok {
						fmt.Println("no migrations applied")
						return nil
					}
					fmt.Printf("version %d (dirty: %t)\n", version, dirty)
					return nil
				}),
			},
		},
	}
}
