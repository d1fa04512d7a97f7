package service

import (
	"context"
	"errors"
	"fmt"

	"acopio/internal/apierror"
	"acopio/internal/model"
	"acopio/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// runTxReintentando re-runs the whole transaction when it loses a
// unique-key race (voucher number, proveedor documento). Once the attempts
// run out the caller gets ErrConflictoConcurrente.
func runTxReintentando(ctx context.Context, db *gorm.DB, op string, fn func(tx *gorm.DB) error) error {
	var err error
	for intento := 1; intento <= maxReintentosTx; intento++ {
		err = runTx(ctx, db, fn)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		log.Warn().Str("op", op).Int("intento", intento).Err(err).Msg("clave duplicada, reintentando transacción")
	}
	log.Error().Str("op", op).Err(err).Msg("reintentos agotados por clave duplicada")
	return apierror.ErrConflictoConcurrente
}

// sesionAbiertaTx returns the open session locked for the rest of tx.
func sesionAbiertaTx(ctx context.Context, repo repository.CajaRepository, tx *gorm.DB) (*model.SesionCaja, error) {
	sesion, err := repo.FindSesionAbierta(ctx, tx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.ErrSinSesionAbierta
	}
	if err != nil {
		return nil, fmt.Errorf("buscar sesión abierta: %w", err)
	}
	return sesion, nil
}

// asentarMovimiento appends mov to sesion and moves the session's expected
// balance by the signed amount, on the caller's transaction.
func asentarMovimiento(
	ctx context.Context,
	tx *gorm.DB,
	cajaRepo repository.CajaRepository,
	movRepo repository.MovimientoCajaRepository,
	sesion *model.SesionCaja,
	mov *model.MovimientoCaja,
) error {
	if !mov.Monto.IsPositive() {
		return fmt.Errorf("%w: movimiento %s con monto %s", apierror.ErrMontoInvalido, mov.Tipo, mov.Monto)
	}
	mov.SesionCajaID = sesion.ID
	mov.Direccion = model.DireccionDeTipo(mov.Tipo)
	if err := movRepo.Append(ctx, tx, mov); err != nil {
		return fmt.Errorf("registrar movimiento de caja: %w", err)
	}
	sesion.MontoEsperado = sesion.MontoEsperado.Add(montoConSigno(mov.Direccion, mov.Monto))
	if err := cajaRepo.UpdateSesion(ctx, tx, sesion); err != nil {
		return fmt.Errorf("actualizar saldo esperado: %w", err)
	}
	return nil
}
