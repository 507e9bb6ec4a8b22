package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"geoattend/internal/attendance"
	attendancehandler "geoattend/internal/attendance/handler"
	attendancemetrics "geoattend/internal/attendance/metrics"
	attmemory "geoattend/internal/attendance/store/memory"
	attpostgres "geoattend/internal/attendance/store/postgres"
	"geoattend/internal/audit"
	auditkafka "geoattend/internal/audit/sink/kafka"
	auditmemory "geoattend/internal/audit/store/memory"
	"geoattend/internal/geofence"
	geofencehandler "geoattend/internal/geofence/handler"
	geofencemetrics "geoattend/internal/geofence/metrics"
	zonememory "geoattend/internal/geofence/store/memory"
	zonepostgres "geoattend/internal/geofence/store/postgres"
	"geoattend/internal/geofence/store/rediscache"
	jwttoken "geoattend/internal/jwt_token"
	"geoattend/internal/platform/config"
	"geoattend/internal/platform/httpserver"
	"geoattend/internal/platform/logger"
	platformredis "geoattend/internal/platform/redis"
	httptransport "geoattend/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	refZone, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Error("invalid GEOATTEND_TIMEZONE", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	// Storage: postgres when DATABASE_URL is set, in-memory otherwise.
	var (
		zoneStore   geofence.Store
		recordStore attendance.Store
		db          *sql.DB
	)
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("database ping failed", "error", err)
			os.Exit(1)
		}
		zoneStore = zonepostgres.New(db)
		recordStore = attpostgres.New(db, refZone)
		log.Info("using postgres storage")
	} else {
		zoneStore = zonememory.New()
		recordStore = attmemory.New(refZone)
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	// Optional active-zone cache in front of the zone store.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		zoneStore = rediscache.New(zoneStore, redisClient, cfg.Redis.ZoneCacheTTL, log)
		log.Info("active-zone cache enabled")
	}

	// Audit trail: async publisher over the in-memory store, with an
	// optional Kafka sink for external consumers.
	auditOpts := []audit.Option{audit.WithAsyncBuffer(256)}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := auditkafka.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("failed to start kafka audit sink", "error", err)
			os.Exit(1)
		}
		auditOpts = append(auditOpts, audit.WithSink(sink))
		log.Info("kafka audit sink enabled", "topic", cfg.Kafka.Topic)
	}
	auditPub := audit.NewPublisher(auditmemory.NewInMemoryStore(), auditOpts...)
	defer auditPub.Close()

	zones, err := geofence.New(zoneStore,
		geofence.WithReferenceZone(refZone),
		geofence.WithLogger(log),
		geofence.WithMetrics(geofencemetrics.New()),
		geofence.WithAuditPublisher(auditPub),
	)
	if err != nil {
		log.Error("failed to build geofence service", "error", err)
		os.Exit(1)
	}

	decider, err := attendance.New(zones, recordStore, refZone,
		attendance.WithLogger(log),
		attendance.WithMetrics(attendancemetrics.New()),
		attendance.WithAuditPublisher(auditPub),
	)
	if err != nil {
		log.Error("failed to build attendance service", "error", err)
		os.Exit(1)
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "geoattend", "geoattend-api")

	var health []httptransport.HealthChecker
	if db != nil {
		health = append(health, pingChecker{name: "postgres", ping: db.Ping})
	}
	if redisClient != nil {
		health = append(health, pingChecker{name: "redis", ping: func() error {
			return redisClient.Health(context.Background())
		}})
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		JWTValidator: jwttoken.NewJWTServiceAdapter(jwtService),
		Attendance:   attendancehandler.New(decider, log),
		Geofence:     geofencehandler.New(zones, log),
		Health:       health,
	})

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting geoattend", "addr", cfg.Addr, "timezone", cfg.Timezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// pingChecker adapts a dependency ping into the router's health interface.
type pingChecker struct {
	name string
	ping func() error
}

func (p pingChecker) Name() string  { return p.name }
func (p pingChecker) Healthy() bool { return p.ping() == nil }
