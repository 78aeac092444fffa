package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds the process logger. Development gets the console writer;
// everything else logs JSON lines to stdout.
func New(environment, component string) zerolog.Logger {
	var l zerolog.Logger
	if strings.EqualFold(environment, "development") || strings.EqualFold(environment, "dev") {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	} else {
		l = zerolog.New(os.Stdout)
	}
	return l.With().Timestamp().Str("component", component).Logger()
}
