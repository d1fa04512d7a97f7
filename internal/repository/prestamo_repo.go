package repository

import (
	"context"

	"acopio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PrestamoRepository interface {
	Create(ctx context.Context, tx *gorm.DB, m *model.MovimientoPrestamo) error
	ListByProveedor(ctx context.Context, proveedorID uuid.UUID) ([]model.MovimientoPrestamo, error)
}

type prestamoRepo struct{ db *gorm.DB }

func NewPrestamoRepository(db *gorm.DB) PrestamoRepository { return &prestamoRepo{db: db} }

func (r *prestamoRepo) Create(ctx context.Context, tx *gorm.DB, m *model.MovimientoPrestamo) error {
	return conn(ctx, r.db, tx).Create(m).Error
}

// ListByProveedor returns the account history, newest first.
func (r *prestamoRepo) ListByProveedor(ctx context.Context, proveedorID uuid.UUID) ([]model.MovimientoPrestamo, error) {
	var movs []model.MovimientoPrestamo
	err := r.db.WithContext(ctx).
		Where("proveedor_id = ?", proveedorID).
		Order("created_at DESC").
		Find(&movs).Error
	return movs, err
}
