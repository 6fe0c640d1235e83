package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/halcyor/remedy/internal/config"
	"github.com/halcyor/remedy/internal/coordinator"
	"github.com/halcyor/remedy/internal/docker"
	"github.com/halcyor/remedy/internal/health"
	"github.com/halcyor/remedy/internal/healthcheck"
	"github.com/halcyor/remedy/internal/logging"
	"github.com/halcyor/remedy/internal/metrics"
	"github.com/halcyor/remedy/internal/monitor"
	"github.com/halcyor/remedy/internal/notify"
	"github.com/halcyor/remedy/internal/server"
	"github.com/halcyor/remedy/internal/workload"
)

func main() {
	logger := logging.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("configuration error")
	}
	logger = logging.NewWithLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Dur("poll_interval", cfg.PollInterval).
		Bool("dry_run", cfg.DryRun).
		Msg("remedy starting")

	specs, rosterSource := loadRoster(ctx, logger, cfg)

	var dockerClient docker.Client
	if needsDocker(specs) {
		engine, err := docker.NewEngineClient(cfg.DockerHost, 0)
		if err != nil {
			logger.Fatal().Err(err).Msg("docker client init failed")
		}
		if err := engine.Ping(ctx); err != nil {
			logger.Fatal().Err(err).Msg("docker engine unreachable")
		}
		defer engine.Close()
		dockerClient = engine
		logger.Info().Str("host", cfg.DockerHost).Msg("docker engine connected")
	}

	mx := metrics.New()

	mon := monitor.New(logger, monitor.WithMetrics(mx))
	reporter := health.NewReporter(mon,
		health.WithLogger(logger),
		health.WithMetrics(mx),
		health.WithNotifier(buildNotifier(logger, cfg)),
	)
	mon.SetSink(reporter)

	deps := workload.BuildDeps{Docker: dockerClient, Logger: logger}
	for _, spec := range specs {
		w, err := workload.FromSpec(spec, deps)
		if err != nil {
			logger.Fatal().Err(err).Str("service", spec.Name).Msg("workload build failed")
		}
		var opts []monitor.RegisterOption
		if spec.ClearStateOnRestart {
			opts = append(opts, monitor.WithClearStateOnRestart())
		}
		if err := mon.Register(w, opts...); err != nil {
			logger.Fatal().Err(err).Str("service", spec.Name).Msg("workload registration failed")
		}
	}
	logger.Info().Int("services", len(specs)).Str("roster", rosterSource).Msg("workloads registered")

	go reporter.Run(ctx)

	tracker := healthcheck.NewTracker()
	server.Start(ctx, logger, cfg.PollInterval, tracker, reporter, mx, cfg.HealthPort, cfg.MetricsPort)

	coord := coordinator.New(logger, cfg.PollInterval, mon,
		coordinator.WithTracker(tracker),
		coordinator.WithMetrics(mx),
	)
	if err := coord.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("coordinator failed")
	}

	logger.Info().Msg("remedy stopped")
}

// loadRoster resolves the workload roster from the configured source, or
// falls back to the built-in demo roster.
func loadRoster(ctx context.Context, logger zerolog.Logger, cfg config.Config) ([]config.WorkloadSpec, string) {
	switch {
	case cfg.WorkloadsFile != "":
		src, err := workload.LoadSource(ctx, cfg.WorkloadsFile)
		if err != nil {
			logger.Fatal().Err(err).Str("source", cfg.WorkloadsFile).Msg("roster load failed")
		}
		specs, err := config.ParseWorkloads(src.Body)
		if err != nil {
			logger.Fatal().Err(err).Str("source", cfg.WorkloadsFile).Msg("roster parse failed")
		}
		logger.Info().Str("source", cfg.WorkloadsFile).Str("digest", src.Digest).Msg("roster loaded")
		return specs, cfg.WorkloadsFile
	case cfg.ComposeFile != "":
		src, err := workload.LoadSource(ctx, cfg.ComposeFile)
		if err != nil {
			logger.Fatal().Err(err).Str("source", cfg.ComposeFile).Msg("compose load failed")
		}
		specs, err := workload.ParseComposeWorkloads(ctx, src.Body, "")
		if err != nil {
			logger.Fatal().Err(err).Str("source", cfg.ComposeFile).Msg("compose parse failed")
		}
		logger.Info().Str("source", cfg.ComposeFile).Str("digest", src.Digest).Msg("compose roster loaded")
		return specs, cfg.ComposeFile
	default:
		logger.Info().Msg("no roster configured, using demo workloads")
		return config.DefaultWorkloads(), "builtin"
	}
}

func needsDocker(specs []config.WorkloadSpec) bool {
	for _, spec := range specs {
		if spec.Kind == config.WorkloadContainer {
			return true
		}
	}
	return false
}

// buildNotifier assembles the alert pipeline from configuration.
func buildNotifier(logger zerolog.Logger, cfg config.Config) notify.Notifier {
	sinks := []notify.Notifier{
		notify.NewLogNotifier(logger),
		notify.NewSlackNotifier(logger, cfg.SlackWebhookURL),
	}
	webhook, err := notify.NewWebhookNotifier(logger, cfg.AlertWebhookURL, "")
	if err != nil {
		logger.Fatal().Err(err).Msg("webhook notifier init failed")
	}
	if webhook != nil {
		sinks = append(sinks, webhook)
	}

	var notifier notify.Notifier = notify.NewMultiNotifier(sinks...)
	if cfg.DryRun {
		notifier = notify.NewDryRunNotifier(logger, notifier)
	}
	return notifier
}
