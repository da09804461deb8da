package main

import (
	"database/sql"

	"cdr.dev/slog"
	"github.com/gorilla/mux"
	"github.com/oschwald/geoip2-golang"

	"github.com/mvavassori/picostats/config"
	"github.com/mvavassori/picostats/handlers"
	"github.com/mvavassori/picostats/middleware"
	"github.com/mvavassori/picostats/ratelimit"
	"github.com/mvavassori/picostats/services"
)

func SetupRouter(
	log slog.Logger,
	cfg *config.Config,
	postgres *sql.DB,
	geoip *geoip2.Reader,
	sites *services.SiteService,
	sessions *services.SessionService,
	limiter *ratelimit.Limiter,
) *mux.Router {
	router := mux.NewRouter()

	collect := handlers.NewCollectHandler(log, cfg, postgres, geoip, sites, sessions, limiter)
	stats := handlers.NewStatsHandler(log, cfg, postgres)

	// ingestion routes
	router.HandleFunc("/collect", collect.Collect()).Methods("GET", "POST")
	router.HandleFunc("/event", collect.Event()).Methods("GET", "POST")

	// read routes
	router.Handle("/stats", middleware.DashboardAuth(cfg)(stats.Stats())).Methods("GET")

	// auth routes
	router.HandleFunc("/api/login", handlers.Login(cfg)).Methods("POST")

	// static tracking script
	router.HandleFunc("/track.js", handlers.TrackScript()).Methods("GET")

	return router
}
