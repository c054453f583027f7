package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/condenses/validator/config"
	"github.com/condenses/validator/internal/clients"
	"github.com/condenses/validator/internal/diag"
	"github.com/condenses/validator/internal/forward"
	"github.com/condenses/validator/internal/ledger"
	"github.com/condenses/validator/internal/metrics"
	"github.com/condenses/validator/internal/scheduler"
	"github.com/condenses/validator/internal/signer"
	"github.com/condenses/validator/internal/validate"
	"github.com/condenses/validator/internal/weights"
	"github.com/condenses/validator/pkg/logger"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "1.0.0"
	buildTime  = "unknown"
)

// nopSink stands in when no reporting sink is configured.
type nopSink struct{}

func (nopSink) Report(ctx context.Context, report forward.BatchReport) error { return nil }

func main() {
	flag.Parse()

	log := logger.NewLogger("validator")
	log.Info("Starting validator node", "version", version, "build_time", buildTime)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics server
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Port)
		go func() {
			if err := metricsServer.Start(); err != nil {
				log.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Scoring ledger
	log.Info("Connecting to Redis", "host", cfg.Redis.Host, "port", cfg.Redis.Port)
	redisClient, err := ledger.NewClient(ledger.Config{
		Address:  cfg.Redis.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	scoringLedger := ledger.New(redisClient, cfg.Validating.ScoringInterval.Std())
	defer scoringLedger.Close()

	if cfg.Redis.FlushOnStart {
		log.Info("Flushing scoring ledger")
		if err := scoringLedger.Reset(ctx); err != nil {
			log.Error("Failed to flush scoring ledger", "error", err)
			os.Exit(1)
		}
	}

	// Request signer
	var requestSigner *signer.Signer
	if cfg.Signer.KeyFile != "" {
		requestSigner, err = signer.LoadSeed(cfg.Signer.KeyFile)
		if err != nil {
			log.Error("Failed to load signing key", "error", err)
			os.Exit(1)
		}
		log.Info("Loaded signing key", "identity", requestSigner.Identity())
	} else {
		log.Warn("No signing key configured, outgoing requests are unsigned")
	}

	// Service clients
	reqTimeout := cfg.Services.RequestTimeout.Std()
	admission := clients.NewAdmissionClient(cfg.Services.AdmissionURL, reqTimeout, requestSigner)
	synthesizer := clients.NewSynthesizerClient(cfg.Services.SynthesizerURL, reqTimeout, requestSigner)
	resolver := clients.NewResolverClient(cfg.Services.ResolverURL, reqTimeout, requestSigner)
	transport := clients.NewWorkerTransport(cfg.Validating.DispatchTimeout.Std(), logger.NewLogger("transport"))
	oracle := clients.NewOracleClient(cfg.Services.OracleURL, cfg.Validating.ScoringTimeout.Std(), requestSigner)
	weightsClient := clients.NewWeightsClient(cfg.Services.WeightsURL, reqTimeout, requestSigner)

	var sink forward.Sink = nopSink{}
	if cfg.Services.SinkURL != "" {
		sink = clients.NewSinkClient(cfg.Services.SinkURL, reqTimeout, requestSigner)
	} else {
		log.Warn("No reporting sink configured, batch reports are discarded")
	}

	// Forward-cycle runner
	runner := forward.NewRunner(
		forward.Options{
			BatchSize:              cfg.Validating.BatchSize,
			TopFraction:            cfg.Validating.TopFraction,
			AcceptableConsumedRate: cfg.Validating.AcceptableConsumedRate,
			AdmissionTimeout:       cfg.Validating.AdmissionTimeout.Std(),
			TaskTimeout:            cfg.Validating.TaskTimeout.Std(),
			DispatchTimeout:        cfg.Validating.DispatchTimeout.Std(),
			ScoringTimeout:         cfg.Validating.ScoringTimeout.Std(),
			MaxScoringCount:        cfg.Validating.MaxScoringCount,
		},
		admission,
		synthesizer,
		resolver,
		transport,
		oracle,
		sink,
		scoringLedger,
		validate.New(cfg.Validating.MaxCompressRate),
		cfg.Validating.MaxConcurrentScoring,
		logger.NewLogger("forward"),
	)

	sched := scheduler.New(
		runner,
		cfg.Validating.ForwardInterval.Std(),
		cfg.Validating.ConcurrentForward,
		cfg.Validating.QueueSize,
		logger.NewLogger("scheduler"),
	)

	aggregator := weights.New(
		admission,
		weightsClient,
		cfg.Weights.Interval.Std(),
		cfg.Weights.NetworkID,
		cfg.Weights.Version,
		logger.NewLogger("weights"),
	)

	// Diagnostics API
	var diagServer *diag.Server
	if cfg.Diag.Enabled {
		diagServer = diag.NewServer(cfg.Diag.Port, scoringLedger, logger.NewLogger("diag"))
		go func() {
			if err := diagServer.Start(); err != nil {
				log.Error("Diagnostics server failed", "error", err)
			}
		}()
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting forward scheduler",
			"interval", cfg.Validating.ForwardInterval.Std(),
			"workers", cfg.Validating.ConcurrentForward,
		)
		sched.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting weight aggregator", "interval", cfg.Weights.Interval.Std())
		aggregator.Run(ctx)
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info("Received interrupt signal, shutting down gracefully")

	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if diagServer != nil {
		if err := diagServer.Stop(shutdownCtx); err != nil {
			log.Error("Failed to stop diagnostics server gracefully", "error", err)
		}
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			log.Error("Failed to stop metrics server gracefully", "error", err)
		}
	}

	admission.Close()
	synthesizer.Close()
	resolver.Close()
	transport.Close()
	oracle.Close()
	weightsClient.Close()

	log.Info("Validator node stopped successfully")
}
