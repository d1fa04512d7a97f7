package repository

import (
	"context"

	"acopio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CompraRepository interface {
	// Create inserts the compra together with its items.
	Create(ctx context.Context, tx *gorm.DB, c *model.Compra) error
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Compra, error)
	// LockByID loads the compra with its items, locking the header row.
	LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Compra, error)
	UpdateCabecera(ctx context.Context, tx *gorm.DB, c *model.Compra) error
	UpdateItem(ctx context.Context, tx *gorm.DB, item *model.CompraItem) error
	ListBySesion(ctx context.Context, sesionID uuid.UUID) ([]model.Compra, error)
	DB() *gorm.DB
}

type compraRepo struct{ db *gorm.DB }

func NewCompraRepository(db *gorm.DB) CompraRepository { return &compraRepo{db: db} }

func (r *compraRepo) DB() *gorm.DB { return r.db }

func itemsOrdenados(db *gorm.DB) *gorm.DB { return db.Order("linea ASC") }

func (r *compraRepo) Create(ctx context.Context, tx *gorm.DB, c *model.Compra) error {
	return conn(ctx, r.db, tx).Omit("Proveedor").Create(c).Error
}

func (r *compraRepo) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Compra, error) {
	var c model.Compra
	err := conn(ctx, r.db, tx).
		Preload("Items", itemsOrdenados).
		Preload("Items.Producto").
		Preload("Proveedor").
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *compraRepo) LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Compra, error) {
	var c model.Compra
	err := conn(ctx, r.db, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	if err := conn(ctx, r.db, tx).Where("compra_id = ?", id).Order("linea ASC").Find(&c.Items).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *compraRepo) UpdateCabecera(ctx context.Context, tx *gorm.DB, c *model.Compra) error {
	return conn(ctx, r.db, tx).Omit(clause.Associations).Save(c).Error
}

func (r *compraRepo) UpdateItem(ctx context.Context, tx *gorm.DB, item *model.CompraItem) error {
	return conn(ctx, r.db, tx).Omit(clause.Associations).Save(item).Error
}

func (r *compraRepo) ListBySesion(ctx context.Context, sesionID uuid.UUID) ([]model.Compra, error) {
	var compras []model.Compra
	err := r.db.WithContext(ctx).
		Preload("Items", itemsOrdenados).
		Preload("Proveedor").
		Where("sesion_caja_id = ?", sesionID).
		Order("numero_voucher ASC").
		Find(&compras).Error
	return compras, err
}
