package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	weatherrelay "station-relay/agents/weather-relay"
	"station-relay/shared/config"
	"station-relay/shared/logging"
	"station-relay/shared/mqtt"
	"station-relay/shared/scheduler"
)

var version = "dev"

const appName = "weather-relay"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code. Deferred cleanup has finished by the
// time it returns.
func run(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 1
	}

	logger := logging.New(cfg.Logging, version, appName)
	slog.SetDefault(logger)

	logger.Info("starting", "version", version, "env", cfg.Logging.AppEnv, "log_level", cfg.Logging.SlogLevel().String())

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var opts []weatherrelay.Option
	if cfg.MQTT.Broker != "" {
		publisher := mqtt.NewPublisher(cfg.MQTT, logger)
		go func() {
			if err := publisher.Connect(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("mqtt connect failed", "error", err)
			}
		}()
		defer publisher.Disconnect()
		opts = append(opts, weatherrelay.WithMirror(publisher))
	}

	agent := weatherrelay.NewWeatherRelayAgent(cfg, logger, opts...)
	s := scheduler.New(cfg, agent, logger)

	if len(args) > 0 && args[0] == "--once" {
		logger.Info("running once")
		if err := agent.Initialize(); err != nil {
			logger.Error("failed to initialize agent", "error", err)
			return 1
		}
		if err := s.RunOnce(ctx); err != nil {
			logger.Error("run failed", "error", err)
			return 1
		}
		return 0
	}

	if cfg.Schedule != "" {
		err = s.Start(ctx)
	} else {
		err = s.Run(ctx, cfg.Interval())
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler failed", "error", err)
		return 1
	}

	logger.Info("shutting down")
	return 0
}
