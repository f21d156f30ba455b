package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rowett/primedigitsum/internal/api"
	"github.com/rowett/primedigitsum/internal/digitsum"
	"github.com/rowett/primedigitsum/internal/metrics"
	"github.com/rowett/primedigitsum/internal/platform/config"
	"github.com/rowett/primedigitsum/internal/platform/logger"
	"github.com/rowett/primedigitsum/internal/store"
)

type settings struct {
	Addr            string
	DBPath          string
	MaxRadix        uint32
	MaxSpan         uint64
	Workers         int
	ShutdownTimeout time.Duration
}

// loadSettings reads SERVER_* variables and DB_PATH
func loadSettings(env config.Conf) (settings, error) {
	srv := env.Prefix("SERVER_")

	addr, err := srv.Port("PORT", 8080)
	if err != nil {
		return settings{}, err
	}

	maxRadix := srv.MayInt("MAX_RADIX", int(digitsum.MaxRadix))
	if maxRadix < int(digitsum.MinRadix) || maxRadix > int(digitsum.MaxRadix) {
		return settings{}, fmt.Errorf("SERVER_MAX_RADIX %d must be in the range %d to %d",
			maxRadix, digitsum.MinRadix, digitsum.MaxRadix)
	}

	return settings{
		Addr:            addr,
		DBPath:          env.MayString("DB_PATH", "./ds.db"),
		MaxRadix:        uint32(maxRadix),
		MaxSpan:         srv.MayUint64("MAX_SPAN", 10_000_000),
		Workers:         srv.MayInt("WORKERS", 0),
		ShutdownTimeout: srv.MayDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}, nil
}

func main() {
	logger.Init(logger.FromEnv())
	log := logger.Named("server")

	cfg, err := loadSettings(config.New())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	log.Info().Str("path", cfg.DBPath).Msg("connecting to database")
	db, err := store.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()
	if err := store.EnsureSchema(db); err != nil {
		log.Fatal().Err(err).Msg("failed to create schema")
	}

	start := time.Now()
	oracle, err := digitsum.Build(ctx, cfg.MaxRadix, cfg.Workers)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build lookup tables")
	}
	recorder := metrics.NewRecorder()
	recorder.SetTableBytes(oracle.Tables().Bytes())
	log.Info().
		Uint32("maxRadix", cfg.MaxRadix).
		Uint64("bytes", oracle.Tables().Bytes()).
		Dur("took", time.Since(start)).
		Msg("lookup tables ready")

	server := api.NewServer(db, oracle, recorder, cfg.MaxSpan)

	mux := chi.NewMux()
	mux.Use(middleware.RequestID, middleware.Recoverer)
	h := api.HandlerFromMux(server, mux)

	s := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.Addr).Msg("starting server")
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}
