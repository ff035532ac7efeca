// main.go - Review submission daemon.
//
// Wires the privacy-transform pipeline behind an HTTP API:
//   - POST /v1/submissions runs verification, redaction, and commitment
//     derivation, spends the nullifier, and returns the public triple
//   - GET /v1/submissions/{id} returns a stored record
//   - /healthz and /metrics expose operational state
//
// The nullifier registry is Redis-backed when redis_url is configured,
// otherwise a JSON ledger file. With enable_proofs the Groth16 keys for
// the review circuit are compiled and cached under key_dir at startup.
package main

import (
	"context"
	"errors"
	"flag"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"zkreview/internal/metrics"
	"zkreview/internal/registry"
	"zkreview/internal/server"
	"zkreview/internal/submission"
)

const version = "0.2.0"

// bigZero probes the registry without spending anything.
var bigZero = big.NewInt(0)

func main() {
	configPath := flag.String("config", "zkreviewd.json", "path to the configuration file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, closeLog, err := NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closeLog()

	log.Info().Str("version", version).Msg("zkreviewd starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Nullifier registry
	var (
		reg    registry.Registry
		ledger *registry.Ledger
	)
	if cfg.RedisURL != "" {
		redisReg, err := registry.NewRedisRegistry(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis registry unavailable")
		}
		defer redisReg.Close()
		reg = redisReg
		log.Info().Msg("using redis nullifier registry")
	} else {
		if l, err := registry.LoadLedgerFromFile(cfg.LedgerPath); err == nil {
			ledger = l
			log.Info().Int("spent", ledger.Size()).Str("path", cfg.LedgerPath).Msg("nullifier ledger loaded")
		} else {
			ledger = registry.NewLedger()
			log.Info().Str("path", cfg.LedgerPath).Msg("starting with empty nullifier ledger")
		}
		reg = ledger
	}

	// Proof layer: compile the circuit and cache Groth16 keys.
	var prover *server.Prover
	if cfg.EnableProofs {
		if err := os.MkdirAll(cfg.KeyDir, 0755); err != nil {
			log.Fatal().Err(err).Msg("key directory creation failed")
		}
		start := time.Now()
		ccs, err := submission.Compile()
		if err != nil {
			log.Fatal().Err(err).Msg("review circuit compilation failed")
		}
		log.Info().Dur("elapsed", time.Since(start)).Msg("review circuit compiled")

		start = time.Now()
		pkPath := filepath.Join(cfg.KeyDir, "review_pk.bin")
		vkPath := filepath.Join(cfg.KeyDir, "review_vk.bin")
		pk, _, err := submission.SetupOrLoadKeys(ccs, pkPath, vkPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Groth16 key setup failed")
		}
		log.Info().Dur("elapsed", time.Since(start)).Msg("Groth16 keys ready")
		prover = server.NewProver(ccs, pk)
	}

	m := metrics.New()
	limiter := server.NewClientRateLimiter(cfg.RateLimitBurst, cfg.RateLimitRefill,
		time.Duration(cfg.RateLimitPeriodSeconds)*time.Second)
	handler := server.NewHandler(reg, limiter, m, log)
	if prover != nil {
		handler.WithProver(prover)
	}

	health := NewHealthChecker(version)
	health.RegisterComponent("registry", func() error {
		_, err := reg.Seen(context.Background(), bigZero)
		return err
	})

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	handler.RegisterRoutes(router)
	router.Get("/healthz", health.Handler())
	router.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown did not complete cleanly")
	}

	if ledger != nil {
		if err := ledger.SaveToFile(cfg.LedgerPath); err != nil {
			log.Error().Err(err).Msg("nullifier ledger save failed")
		} else {
			log.Info().Int("spent", ledger.Size()).Msg("nullifier ledger saved")
		}
	}
}
