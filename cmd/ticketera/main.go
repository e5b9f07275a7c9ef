package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"ticketera/config"
	"ticketera/engine"
	"ticketera/messaging"
	"ticketera/realtime"
	"ticketera/store"
	"ticketera/substate"
	"ticketera/www"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "ticketera.yaml", "path to config file")
	flag.Parse()

	if *showVersion {
		fmt.Println("ticketera", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := newLogger(&cfg.Log)
	zlog.Logger = log

	// Database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	log.Info().Str("driver", cfg.Database.Driver).Msg("database open")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	var cache substate.Cache
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis not available, subscriptions served from sql")
	} else {
		cache = substate.NewRedisStore(redisClient, 0)
		log.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}
	cancel()

	subs := substate.NewManager(db, cache, cfg.Subscription.PeriodDays, log.With().Str("component", "substate").Logger())

	// Messaging client
	msgClient := messaging.NewClient(&cfg.Messaging)
	if err := msgClient.Connect(); err != nil {
		log.Warn().Err(err).Str("backend", cfg.Messaging.Backend).Msg("messaging connect failed")
	} else {
		log.Info().Str("backend", msgClient.Backend()).Msg("messaging connected")
	}
	defer msgClient.Close()

	hub := realtime.NewHub(0, log.With().Str("component", "realtime").Logger())

	// Engine
	eng := engine.New(engine.Config{
		AppConfig:  cfg,
		ConfigPath: *configPath,
		DB:         db,
		Subs:       subs,
		MsgClient:  msgClient,
		Hub:        hub,
		Log:        log,
	})
	eng.Start()
	defer eng.Stop()

	// Outbox drainer (ticket and order events out to the bus)
	drainer := messaging.NewOutboxDrainer(db, msgClient, cfg.Messaging.OutboxDrainInterval, cfg.Messaging.OutboxBatch,
		log.With().Str("component", "messaging").Logger(),
		messaging.WithMaxAttempts(cfg.Messaging.OutboxMaxAttempts),
		messaging.WithRetention(cfg.Messaging.OutboxRetention))
	drainer.Start()
	defer drainer.Stop()

	// Web server
	handler, stopWeb := www.NewRouter(eng, log.With().Str("component", "www").Logger())

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("web server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("web server")
		}
	}()

	log.Info().Str("version", Version).Msg("ready")

	// SIGHUP reloads the messaging section; anything else shuts down
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range sigCh {
		if sig != syscall.SIGHUP {
			break
		}
		next, err := config.Load(*configPath)
		if err != nil {
			log.Warn().Err(err).Msg("reload config")
			continue
		}
		eng.ReconfigureMessaging(&next.Messaging)
	}

	log.Info().Msg("shutting down")
	stopWeb()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("web shutdown")
	}

	log.Info().Msg("stopped")
}

func newLogger(cfg *config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	var l zerolog.Logger
	if cfg.Pretty {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		l = zerolog.New(os.Stderr)
	}
	return l.Level(level).With().Timestamp().Str("service", "ticketera").Logger()
}
