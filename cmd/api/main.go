package main

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"convene/internal/archive"
	"convene/internal/config"
	"convene/internal/database"
	"convene/internal/orchestrator"
	"convene/internal/provider"
	"convene/internal/registry"
	"convene/internal/rooms"
	"convene/internal/server"
	"convene/internal/ws"
)

func main() {
	cfg := config.Load()

	log := logrus.New()
	if cfg.Env == "dev" {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	catalog := rooms.NewCatalog(rooms.PoolSizes{
		Dyad:  cfg.DyadRooms,
		Triad: cfg.TriadRooms,
		Quad:  cfg.QuadRooms,
		Kiva:  cfg.KivaRooms,
	}, cfg.RoomDomain)
	tracker := rooms.NewTracker(catalog)

	var prov rooms.Provider
	if cfg.ProviderBaseURL != "" {
		prov = provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey, cfg.RoomDomain, log.WithField("component", "provider"))
	}

	allocator := rooms.NewAllocator(catalog, tracker, prov, log.WithField("component", "allocator"))
	allocator.Shuffle = cfg.ShuffleParticipants

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis connect error: %v", err)
	}
	cancel()

	store := registry.NewRedisStore(redisClient, time.Duration(cfg.SessionTTLHours)*time.Hour, log.WithField("component", "store"))

	// Archive is optional; without a DSN released sessions are simply gone.
	var arch registry.Archiver
	if cfg.ArchiveDSN != "" {
		db, err := database.Connect(cfg.ArchiveDSN)
		if err != nil {
			log.Fatalf("archive DB connect error: %v", err)
		}
		if err := database.RunMigrations(db, "migrations"); err != nil {
			log.Fatalf("migrations error: %v", err)
		}
		arch = archive.New(db, log.WithField("component", "archive"))
	}

	reg := registry.New(store, tracker, allocator, arch, log.WithField("component", "registry"))
	orc := orchestrator.New(orchestrator.DefaultPlan, reg, log.WithField("component", "orchestrator"))

	hubs := ws.NewHubs(log.WithField("component", "ws"))
	notifier := ws.NewNotifier(store, hubs, log.WithField("component", "notifier"))
	go func() {
		if err := notifier.Run(context.Background()); err != nil {
			log.Fatalf("notifier error: %v", err)
		}
	}()

	srv := server.NewServer(":"+cfg.Port, cfg.JWTSecret, cfg.JWTTTLHrs, reg, orc, tracker, hubs, log)
	if err := srv.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
