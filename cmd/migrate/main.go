package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/telecare/auth-server/internal/config"
	"github.com/telecare/auth-server/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", migrate.DirectionUp, "migration direction: up or down")
	flag.Parse()

	c, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	if err := migrate.Run(c.GetDatabaseURL(), *direction); err != nil {
		log.Error().Err(err).Str("direction", *direction).Msg("migration failed")
		os.Exit(1)
	}
	log.Info().Str("direction", *direction).Msg("migrations applied")
}
