package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/mpcrecovery/envconfig/config"
	"github.com/mpcrecovery/envconfig/pkg/logger"
)

func main() {
	configPath := pflag.String("config", "", "path to an environment config file (default: ./config.yaml or ./config/config.yaml)")
	printCanonical := pflag.Bool("print", false, "write the canonical YAML form of the validated config to stdout")
	pflag.Parse()

	if err := run(*configPath, *printCanonical, os.Stdout); err != nil {
		slog.Error("failed to load environment config", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(path string, printCanonical bool, out io.Writer) error {
	var (
		cfg *config.EnvironmentConfig
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	log := logger.New(cfg.OpenTelemetryLevel, cfg.Env)
	log.Info("environment config is valid",
		slog.String("project", cfg.Project),
		slog.String("docker_image", cfg.DockerImage),
		slog.Int("signers", len(cfg.SignerConfigs)),
		slog.String("otlp_endpoint", cfg.OTLPEndpoint),
	)

	if printCanonical {
		data, err := cfg.YAML()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "%s", data); err != nil {
			return err
		}
	}

	return nil
}
