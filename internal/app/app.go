package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"base42/internal/config"
	"base42/internal/middleware"
	"base42/internal/repo"
	"base42/migrations"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type App struct {
	cfg    config.Config
	log    *logrus.Entry
	db     *pgxpool.Pool
	redis  *redis.Client
	router *gin.Engine
}

func New(cfg config.Config, log *logrus.Entry) (*App, error) {
	a := &App{cfg: cfg, log: log}

	todoRepo, err := a.newTodoRepo()
	if err != nil {
		return nil, err
	}

	if cfg.Redis.Enabled() {
		rdb, err := newRedis(cfg.Redis)
		if err != nil {
			a.closeDB()
			return nil, err
		}
		a.redis = rdb
		log.WithField("addr", cfg.Redis.Addr).Info("redis cache enabled")
	}

	a.router = newRouter(cfg, log, todoRepo, a.redis)
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// Close releases the Redis client and the Postgres pool. Pool shutdown waits
// for checked-out connections, so it gives up once ctx is done.
func (a *App) Close(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		var err error
		if a.redis != nil {
			err = a.redis.Close()
		}
		a.closeDB()
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close redis: %w", err)
		}
		return nil
	case <-ctx.Done():
		a.log.Warn("resources still closing after shutdown deadline")
		return fmt.Errorf("close: %w", ctx.Err())
	}
}

func (a *App) closeDB() {
	if a.db != nil {
		a.db.Close()
	}
}

// newTodoRepo builds the backing store named by STORE_DRIVER.
func (a *App) newTodoRepo() (repo.TodoRepo, error) {
	switch a.cfg.Store.Driver {
	case config.StorePostgres:
		if a.cfg.PG.Migrate {
			if err := runMigrations(a.cfg.PG.DSN); err != nil {
				return nil, err
			}
		}
		db, err := newPostgres(a.cfg.PG.DSN)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.log.Info("using postgres todo store")
		return repo.NewPGTodoRepo(db), nil

	case config.StoreQuery:
		a.log.WithField("timeout", a.cfg.Query.Timeout.Duration()).Info("using remote query todo store")
		client := &http.Client{Timeout: a.cfg.Query.Timeout.Duration()}
		return repo.NewQueryTodoRepo(a.cfg.Query.URL, client), nil

	case config.StoreMemory:
		r := repo.NewMemoryTodoRepo()
		if a.cfg.Store.Seed {
			r.Seed()
		}
		a.log.WithField("seeded", a.cfg.Store.Seed).Info("using in-memory todo store")
		return r, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", a.cfg.Store.Driver)
}

func newPostgres(dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return pool, nil
}

func newRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

func runMigrations(dsn string) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("goose open db: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func newRouter(cfg config.Config, log *logrus.Entry, todoRepo repo.TodoRepo, rdb *redis.Client) *gin.Engine {
	if cfg.App.Env == "prod" || cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logging(log),
		middleware.Metrics(),
	)
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:              []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:             []string{"Content-Length", "Content-Type", middleware.HeaderRequestID},
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	}))
	r.Use(middleware.Preflight())

	Setup(r, cfg, log, todoRepo, rdb)
	return r
}
