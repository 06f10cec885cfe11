package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process-wide logger. Dev environments get a human
// console writer, everything else gets JSON on stderr.
func New(env string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	if env == "dev" {
		out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
		return zerolog.New(out).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
