// Command gentoken mints an operator token pair. Operators are managed by an
// external identity provider; this is how the first administrador gets in.
//
//	gentoken -nombre "Rosa" -rol administrador [-id UUID]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"acopio/internal/config"
	"acopio/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		id     string
		nombre string
		rol    string
	)
	flag.StringVar(&id, "id", "", "operator id (random when empty)")
	flag.StringVar(&nombre, "nombre", "Administrador", "operator display name")
	flag.StringVar(&rol, "rol", service.RolAdministrador, "cajero | administrador")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	operadorID := uuid.New()
	if id != "" {
		if operadorID, err = uuid.Parse(id); err != nil {
			log.Fatal().Err(err).Msg("invalid -id")
		}
	}

	tokens, err := service.NewAuthService(cfg).Emitir(context.Background(), operadorID, nombre, rol)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to mint token")
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(tokens)
}
