// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"pdf-rag/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup installs the global logger described by cfg and returns it.
func Setup(cfg config.LogConfig) zerolog.Logger {
	return setup(cfg, os.Stdout)
}

func setup(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Caller().Logger()
	zerolog.DefaultContextLogger = &log.Logger
	return log.Logger
}
