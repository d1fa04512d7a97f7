package repository

import (
	"context"

	"acopio/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProveedorRepository interface {
	Create(ctx context.Context, tx *gorm.DB, p *model.Proveedor) error
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Proveedor, error)
	// LockByID reads the proveedor with a row lock; loan balance changes go through it.
	LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Proveedor, error)
	FindByDocumento(ctx context.Context, tx *gorm.DB, documento string) (*model.Proveedor, error)
	FindAnonimo(ctx context.Context, tx *gorm.DB) (*model.Proveedor, error)
	UpdateSaldoPrestamo(ctx context.Context, tx *gorm.DB, id uuid.UUID, saldo decimal.Decimal) error
	List(ctx context.Context) ([]model.Proveedor, error)
}

type proveedorRepo struct{ db *gorm.DB }

func NewProveedorRepository(db *gorm.DB) ProveedorRepository { return &proveedorRepo{db: db} }

func (r *proveedorRepo) Create(ctx context.Context, tx *gorm.DB, p *model.Proveedor) error {
	return conn(ctx, r.db, tx).Create(p).Error
}

func (r *proveedorRepo) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Proveedor, error) {
	var p model.Proveedor
	if err := conn(ctx, r.db, tx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *proveedorRepo) LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Proveedor, error) {
	var p model.Proveedor
	err := conn(ctx, r.db, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *proveedorRepo) FindByDocumento(ctx context.Context, tx *gorm.DB, documento string) (*model.Proveedor, error) {
	var p model.Proveedor
	if err := conn(ctx, r.db, tx).Where("documento = ?", documento).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *proveedorRepo) FindAnonimo(ctx context.Context, tx *gorm.DB) (*model.Proveedor, error) {
	var p model.Proveedor
	if err := conn(ctx, r.db, tx).Where("es_anonimo = ?", true).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *proveedorRepo) UpdateSaldoPrestamo(ctx context.Context, tx *gorm.DB, id uuid.UUID, saldo decimal.Decimal) error {
	return conn(ctx, r.db, tx).
		Model(&model.Proveedor{}).
		Where("id = ?", id).
		Update("saldo_prestamo", saldo).Error
}

func (r *proveedorRepo) List(ctx context.Context) ([]model.Proveedor, error) {
	var proveedores []model.Proveedor
	err := r.db.WithContext(ctx).Where("activo = ?", true).Order("nombre ASC").Find(&proveedores).Error
	return proveedores, err
}
