package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"cdr.dev/slog"
	"cdr.dev/slog/sloggers/sloghuman"
	gorilla "github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/mvavassori/picostats/config"
	"github.com/mvavassori/picostats/db"
	"github.com/mvavassori/picostats/ratelimit"
	"github.com/mvavassori/picostats/services"
)

func main() {
	ctx := context.Background()
	log := slog.Make(sloghuman.Sink(os.Stderr))

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(ctx, "invalid configuration", slog.Error(err))
	}

	// db initialization
	postgres, err := db.CreatePostgresConnection()
	if err != nil {
		log.Fatal(ctx, "postgres connection failed", slog.Error(err))
	}
	defer postgres.Close()

	if err := db.InitSchema(postgres); err != nil {
		log.Fatal(ctx, "schema bootstrap failed", slog.Error(err))
	}

	// GeoIP is optional: without it every view lands in country "Unknown"
	// and visitor hashes key on site+date alone.
	geoip, err := db.CreateGeoIPConnection(cfg.GeoIPDBPath)
	if err != nil {
		log.Warn(ctx, "geoip database unavailable, locations will be unknown", slog.Error(err))
		geoip = nil
	} else {
		defer geoip.Close()
	}

	sites := services.NewSiteService(postgres, cfg.AllowedSites)
	sessions := services.NewSessionService(postgres)
	limiter := ratelimit.New(cfg.Secret, cfg.RateLimitRequests, cfg.RateLimitWindow)

	// nightly aggregation + retention
	aggregator := services.NewAggregator(postgres, sessions, log, services.AggregatorConfig{
		RetentionDays:     cfg.RetentionDays,
		SessionTimeout:    cfg.SessionTimeout,
		TopPagesLimit:     cfg.TopPagesLimit,
		TopReferrersLimit: cfg.TopReferrersLimit,
	})
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.AggregateCron, func() {
		if err := aggregator.Run(ctx, time.Now()); err != nil {
			log.Error(ctx, "aggregation run failed", slog.Error(err))
		}
	})
	if err != nil {
		log.Fatal(ctx, "invalid aggregation schedule", slog.F("cron", cfg.AggregateCron), slog.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := SetupRouter(log, cfg, postgres, geoip, sites, sessions, limiter)

	address := fmt.Sprintf(":%d", cfg.Port)
	log.Info(ctx, "collector listening", slog.F("address", address))

	err = http.ListenAndServe(address, gorilla.CORS(
		gorilla.AllowedOrigins([]string{"*"}),
		gorilla.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		gorilla.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(router))
	if err != nil {
		log.Fatal(ctx, "server stopped", slog.Error(err))
	}
}
