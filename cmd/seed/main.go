// Command seed loads the product directory (and, on postgres, the base rows
// the ledger needs). Safe to run repeatedly: products are upserted by name.
package main

import (
	"context"
	"os"
	"time"

	"acopio/internal/config"
	"acopio/internal/infra"
	"acopio/internal/model"
	"acopio/internal/repository"
	"acopio/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var productos = []model.Producto{
	{
		Nombre:        "Café pergamino",
		NivelesSecado: []string{"humedo", "oreado", "seco"},
		Calidades:     []string{"primera", "segunda", "descarte"},
		PermiteSacos:  true,
		Activo:        true,
	},
	{
		Nombre:        "Cacao",
		NivelesSecado: []string{"baba", "semiseco", "seco"},
		Calidades:     []string{"primera", "segunda"},
		PermiteSacos:  true,
		Activo:        true,
	},
	{
		Nombre:       "Maíz amarillo",
		Calidades:    []string{"primera", "segunda"},
		PermiteSacos: true,
		Activo:       true,
	},
	{
		Nombre: "Achiote",
		Activo: true,
	},
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := infra.SembrarBase(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to seed base rows")
	}
	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, product cache not invalidated")
		rdb = nil
	}

	svc := service.NewProductoService(repository.NewProductoRepository(db), rdb)
	for i := range productos {
		if err := svc.Registrar(ctx, &productos[i]); err != nil {
			log.Fatal().Err(err).Str("producto", productos[i].Nombre).Msg("failed to seed product")
		}
		log.Info().Str("producto", productos[i].Nombre).Msg("producto registrado")
	}
}
