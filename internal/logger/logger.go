package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Setup returns the process logger. Output is JSON lines unless debug or console
// output is requested, in which case a human readable console writer is used.
func Setup(out io.Writer, debug, console bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()

	if debug || console {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.Kitchen)
		}})
	}

	if debug {
		logger = logger.With().Caller().Stack().Logger()
	}

	return logger
}
