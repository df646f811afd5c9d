package main

import (
	"log/slog"
	"os"

	"github.com/wtnb75/prestatic"
	"github.com/xplshn/tracerr2"
	"gopkg.in/yaml.v3"
)

const (
	defaultListen = ":8800"
	// LevelTrace sits below Debug, for -vvv.
	LevelTrace = slog.Level(-8)
)

type serverConfig struct {
	Dir               string `yaml:"dir"`
	Listen            string `yaml:"listen"`
	Verbose           int    `yaml:"verbose"`
	prestatic.Options `yaml:",inline"`
}

// loadConfig reads a YAML config file; ${VAR} references are expanded from
// the environment before parsing.
func loadConfig(path string, logger *slog.Logger) (*serverConfig, error) {
	logger.Info("loading configuration file", "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, tracerr.Wrapf(err, "error reading config file %s", path)
	}
	var cfg serverConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, tracerr.Wrapf(err, "error parsing YAML file %s", path)
	}
	if cfg.Listen == "" {
		cfg.Listen = defaultListen
	}
	return &cfg, nil
}

func logLevel(verbose int) slog.Level {
	switch {
	case verbose <= 0:
		return slog.LevelWarn
	case verbose == 1:
		return slog.LevelInfo
	case verbose == 2:
		return slog.LevelDebug
	}
	return LevelTrace
}

func newLogger(verbose int) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(verbose)}))
}
