// Command migrate applies the PostgreSQL schema in migrations/.
//
//	migrate [-path dir] up | down | steps N | version | force V
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"acopio/internal/config"
	"acopio/internal/infra"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var migrationsPath string
	flag.StringVar(&migrationsPath, "path", "", "Path to migrations directory (default: MIGRATIONS_PATH)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.DBDriver == "sqlite" {
		log.Fatal().Msg("sqlite schemas are created by the server on startup; migrate targets postgres")
	}
	if migrationsPath == "" {
		migrationsPath = cfg.MigrationsPath
	}

	m, err := infra.NewMigrator(cfg.DatabaseURL, migrationsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open migrations")
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close migrator")
		}
	}()

	log.Info().Str("command", command).Str("migrations_path", migrationsPath).Msg("migration CLI started")

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		n, perr := intArg(args)
		if perr != nil {
			log.Fatal().Err(perr).Msg("usage: migrate steps N")
		}
		err = m.Steps(n)
	case "force":
		v, perr := intArg(args)
		if perr != nil {
			log.Fatal().Err(perr).Msg("usage: migrate force VERSION")
		}
		err = m.Force(v)
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil {
			err = verr
			break
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("migration failed")
	}
}

func intArg(args []string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("missing argument")
	}
	return strconv.Atoi(args[1])
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate [-path dir] <command>

Commands:
  up           apply all pending migrations
  down         roll back all migrations
  steps N      apply N migrations (negative rolls back)
  version      print the current version
  force V      set the version without running migrations`)
}
