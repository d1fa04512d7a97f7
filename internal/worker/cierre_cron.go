package worker

// cierre_cron.go
// Closes sessions of previous days shortly after midnight in the shop
// timezone. With Redis available a lock keeps a single instance doing it.

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	lockCierreAutomatico = "acopio:lock:cierre_automatico"
	lockCierreTTL        = 30 * time.Second
)

// SesionCloser closes stale sessions and returns their fechas.
type SesionCloser interface {
	CerrarVencidas(ctx context.Context) ([]string, error)
}

// CierreScheduler runs the automatic close on a cron expression.
type CierreScheduler struct {
	cron   *cron.Cron
	closer SesionCloser
	locker *redislock.Client
}

// NewCierreScheduler parses expr with the standard five-field cron syntax.
// rdb may be nil, in which case no lock is taken.
func NewCierreScheduler(closer SesionCloser, rdb *redis.Client, expr string, loc *time.Location) (*CierreScheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	s := &CierreScheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		closer: closer,
	}
	if rdb != nil {
		s.locker = redislock.New(rdb)
	}
	if _, err := s.cron.AddFunc(expr, func() { s.Ejecutar(context.Background()) }); err != nil {
		return nil, err
	}
	return s, nil
}

// Start runs the scheduler until ctx is done.
func (s *CierreScheduler) Start(ctx context.Context) {
	s.cron.Start()
	log.Info().Msg("cierre automático programado")
	go func() {
		<-ctx.Done()
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
		log.Info().Msg("cierre automático detenido")
	}()
}

// Ejecutar performs one pass. Errors are logged; the next tick retries.
func (s *CierreScheduler) Ejecutar(ctx context.Context) {
	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, lockCierreAutomatico, lockCierreTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			log.Debug().Msg("cierre automático en curso en otra instancia")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("cierre automático: no se pudo tomar el lock")
			return
		}
		defer func() {
			if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				log.Warn().Err(err).Msg("cierre automático: liberar lock")
			}
		}()
	}

	fechas, err := s.closer.CerrarVencidas(ctx)
	if err != nil {
		log.Error().Err(err).Msg("cierre automático falló")
		return
	}
	if len(fechas) > 0 {
		log.Info().Strs("fechas", fechas).Msg("cierre automático completado")
	}
}
