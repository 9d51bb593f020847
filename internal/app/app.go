package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ovestreet/storefront-backend/internal/cart"
	"github.com/ovestreet/storefront-backend/internal/db"
	"github.com/ovestreet/storefront-backend/internal/faultbus"
	"github.com/ovestreet/storefront-backend/internal/observability"
	"github.com/ovestreet/storefront-backend/internal/platform/envutil"
	"github.com/ovestreet/storefront-backend/internal/platform/logger"
	"github.com/ovestreet/storefront-backend/internal/sse"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Bus      *faultbus.Bus
	Hub      *sse.Hub

	redis        *goredis.Client
	bridge       *faultbus.RedisBridge
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := envutil.Str("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	bus := faultbus.New(log)
	hub := sse.NewHub(log, bus)

	// Without redis the cart degrades to in-process slots and fault events
	// stay local. Fine for development, not for a multi-replica deploy.
	var rdb *goredis.Client
	var bridge *faultbus.RedisBridge
	var slots cart.SlotFactory
	if cfg.RedisAddr != "" {
		rdb = goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		slots = cart.NewRedisSlotFactory(rdb)
		bridge = faultbus.NewRedisBridge(log, rdb, bus, "")
	} else {
		log.Warn("REDIS_ADDR not set; using in-process cart slots")
		slots = cart.NewMemSlotFactory()
	}

	repoSet := wireRepos(theDB, log)
	serviceSet := wireServices(theDB, log, bus, repoSet)
	handlerSet := wireHandlers(log, serviceSet, slots, hub)
	mw := wireMiddleware(log, cfg)
	router := wireRouter(cfg, handlerSet, mw)

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Repos:    repoSet,
		Services: serviceSet,
		Bus:      bus,
		Hub:      hub,
		redis:    rdb,
		bridge:   bridge,
	}, nil
}

func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.otelShutdown = observability.InitOTel(ctx, a.Log, observability.OtelConfig{
		ServiceName: "storefront",
		Environment: a.Cfg.Environment,
		Version:     a.Cfg.Version,
	})
	observability.Current().StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	if addr == "" {
		addr = a.Cfg.HTTPAddr
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.bridge != nil {
		a.bridge.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.otelShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), envutil.Seconds("SHUTDOWN_TIMEOUT", 5))
		_ = a.otelShutdown(shutdownCtx)
		cancel()
		a.otelShutdown = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
