package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/tracknest/tracknest/internal/api"
	"github.com/tracknest/tracknest/internal/cache"
	"github.com/tracknest/tracknest/internal/config"
	"github.com/tracknest/tracknest/internal/db"
	"github.com/tracknest/tracknest/internal/jobs"
	"github.com/tracknest/tracknest/internal/repository"
	"github.com/tracknest/tracknest/internal/scheduler"
	"github.com/tracknest/tracknest/internal/version"
)

func main() {
	ver := version.Load()
	log.Printf("TrackNest %s starting...", ver.Version)

	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(database, "migrations"); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	cfg.MergeFromDB(database)

	statsCache := cache.NewStatsCache(cfg.RedisAddr, time.Duration(cfg.StatsCacheTTL)*time.Minute)
	defer statsCache.Close()

	jobQueue := jobs.NewQueue(cfg.RedisAddr)
	defer jobQueue.Stop()

	srv, err := api.NewServer(cfg, database, jobQueue, statsCache)
	if err != nil {
		log.Fatalf("server setup failed: %v", err)
	}

	listRepo := repository.NewListRepository(database)
	statsRepo := repository.NewStatsRepository(database)
	platformRepo := repository.NewPlatformRepository(database)
	jobs.RegisterHandlers(jobQueue, database, listRepo, statsRepo, platformRepo, statsCache, srv.Hub())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := jobQueue.Start(ctx); err != nil {
		log.Fatalf("job queue failed to start: %v", err)
	}

	sched := scheduler.New(jobQueue, repository.NewSettingsRepository(database))
	if err := sched.Start(); err != nil {
		log.Fatalf("scheduler failed to start: %v", err)
	}
	defer sched.Stop()

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%d", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
}
