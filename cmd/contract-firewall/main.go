package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/wallarm/contract-firewall/cmd/contract-firewall/internal/handlers"
)

const (
	logPrefix = "main"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, NoColor: true, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().
		Level(zerolog.DebugLevel)

	if err := handlers.Run(logger); err != nil {
		logger.Error().Msgf("%s: error: %s", logPrefix, err)
		os.Exit(1)
	}
}
