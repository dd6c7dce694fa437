package app

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

type Runner func(ctx context.Context) error

// NewLogger writes human readable lines to w at the given level.
func NewLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Run executes run until it returns or the process receives SIGINT or
// SIGTERM, and converts the outcome into an exit code. On a signal the
// runner's context is cancelled and Run waits for it to return.
func Run(name string, logger zerolog.Logger, run Runner) int {
	log := logger.With().Str("command", name).Logger()
	log.Debug().Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	switch {
	case err == nil:
		log.Debug().Msg("done")
		return 0
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		log.Info().Msg("interrupted")
		return 0
	default:
		log.Error().Err(err).Msg("failed")
		return 1
	}
}
