package repository

import (
	"context"

	"acopio/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MovimientoCajaRepository is the append-only ledger store. Writes must be
// issued on the caller's transaction so that the session balance update and
// the entry insert commit together.
type MovimientoCajaRepository interface {
	Append(ctx context.Context, tx *gorm.DB, m *model.MovimientoCaja) error
	ListBySesion(ctx context.Context, tx *gorm.DB, sesionID uuid.UUID) ([]model.MovimientoCaja, error)
	FindByReferencia(ctx context.Context, tx *gorm.DB, sesionID uuid.UUID, tipo string, referenciaID uuid.UUID) (*model.MovimientoCaja, error)
	// UpdateMontoDescripcion is reserved for the in-place rewrite of a compra entry.
	UpdateMontoDescripcion(ctx context.Context, tx *gorm.DB, id uuid.UUID, monto decimal.Decimal, descripcion string, retroactivo bool) error
}

type movimientoCajaRepo struct{ db *gorm.DB }

func NewMovimientoCajaRepository(db *gorm.DB) MovimientoCajaRepository {
	return &movimientoCajaRepo{db: db}
}

func (r *movimientoCajaRepo) Append(ctx context.Context, tx *gorm.DB, m *model.MovimientoCaja) error {
	return conn(ctx, r.db, tx).Create(m).Error
}

func (r *movimientoCajaRepo) ListBySesion(ctx context.Context, tx *gorm.DB, sesionID uuid.UUID) ([]model.MovimientoCaja, error) {
	var movs []model.MovimientoCaja
	err := conn(ctx, r.db, tx).
		Where("sesion_caja_id = ?", sesionID).
		Order("created_at ASC").
		Find(&movs).Error
	return movs, err
}

func (r *movimientoCajaRepo) FindByReferencia(ctx context.Context, tx *gorm.DB, sesionID uuid.UUID, tipo string, referenciaID uuid.UUID) (*model.MovimientoCaja, error) {
	var m model.MovimientoCaja
	err := conn(ctx, r.db, tx).
		Where("sesion_caja_id = ? AND tipo = ? AND referencia_id = ?", sesionID, tipo, referenciaID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *movimientoCajaRepo) UpdateMontoDescripcion(ctx context.Context, tx *gorm.DB, id uuid.UUID, monto decimal.Decimal, descripcion string, retroactivo bool) error {
	return conn(ctx, r.db, tx).
		Model(&model.MovimientoCaja{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"monto":              monto,
			"descripcion":        descripcion,
			"ajuste_retroactivo": retroactivo,
		}).Error
}
