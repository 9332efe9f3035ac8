package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/clinic-serial-booking/internal/api"
	"github.com/hackgods/clinic-serial-booking/internal/appointment"
	"github.com/hackgods/clinic-serial-booking/internal/availability"
	"github.com/hackgods/clinic-serial-booking/internal/config"
	"github.com/hackgods/clinic-serial-booking/internal/db"
	redisclient "github.com/hackgods/clinic-serial-booking/internal/redis"
	"github.com/hackgods/clinic-serial-booking/internal/schedule"
)

var version = "dev"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s timezone=%s", cfg.Env, cfg.HTTPPort, cfg.Location)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.PoolOptions())
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	if cfg.AutoMigrate {
		if err := db.Migrate(rootCtx, pgPool); err != nil {
			log.Fatalf("migration error: %v", err)
		}
		log.Println("schema applied")
	}

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(rootCtx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	policy := schedule.NewPolicy(cfg.Location)

	var cache availability.Cache
	if cfg.AvailabilityCacheTTL > 0 {
		cache = redisclient.NewAvailabilityCache(rdb, cfg.AvailabilityCacheTTL)
	}
	gate := availability.NewGate(availability.NewPgRepository(pgPool, policy), cache, policy)

	repo := appointment.NewPgRepository(pgPool, policy)
	locker := redisclient.NewRedisLocker(rdb, cfg.LockTTL, cfg.LockWait)
	svc := appointment.NewService(repo, gate, locker, policy, cfg)

	health := api.NewHealthHandler(map[string]api.ReadinessCheck{
		"postgres": pgPool.Ping,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}, []string{"postgres", "redis"}, cfg.Env, version)

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: api.NewRouter(api.RouterConfig{
			Bookings:     svc,
			Availability: gate,
			Policy:       policy,
			Health:       health,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()

	log.Println("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
}
