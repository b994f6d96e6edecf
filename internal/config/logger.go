package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var logLevels = map[string]zerolog.Level{
	"TRACE":   zerolog.TraceLevel,
	"DEBUG":   zerolog.DebugLevel,
	"INFO":    zerolog.InfoLevel,
	"WARNING": zerolog.WarnLevel,
	"ERROR":   zerolog.ErrorLevel,
}

// NewLogger builds the service logger. The TEXT format writes human readable lines, the
// JSON format writes one JSON object per record.
func NewLogger(out io.Writer, level, format string) (zerolog.Logger, error) {

	lvl, ok := logLevels[strings.ToUpper(level)]
	if !ok {
		return zerolog.Nop(), errors.Errorf("unknown log level %q", level)
	}

	switch strings.ToUpper(format) {
	case "TEXT":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	case "JSON":
	default:
		return zerolog.Nop(), errors.Errorf("unknown log format %q", format)
	}

	return zerolog.New(out).With().Timestamp().Logger().Level(lvl), nil
}

// ZerologAdapter implements fasthttp.Logger
type ZerologAdapter struct {
	Logger zerolog.Logger
}

func (z *ZerologAdapter) Printf(msg string, args ...any) {
	z.Logger.Error().Msg(strings.TrimSpace(fmt.Sprintf(msg, args...)))
}
