package repository

import (
	"context"

	"acopio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CajaRepository persists cash sessions. Every method accepts an optional
// transaction; state-changing calls are always made with one.
type CajaRepository interface {
	CreateSesion(ctx context.Context, tx *gorm.DB, s *model.SesionCaja) error
	FindSesionByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.SesionCaja, error)
	FindSesionByFecha(ctx context.Context, tx *gorm.DB, fecha string) (*model.SesionCaja, error)
	// FindSesionAbierta returns the open session, locked for update when tx is set.
	FindSesionAbierta(ctx context.Context, tx *gorm.DB) (*model.SesionCaja, error)
	ListSesionesAbiertasAntesDe(ctx context.Context, tx *gorm.DB, fecha string) ([]model.SesionCaja, error)
	LockSesion(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.SesionCaja, error)
	UpdateSesion(ctx context.Context, tx *gorm.DB, s *model.SesionCaja) error
	ListSesiones(ctx context.Context, page, limit int) ([]model.SesionCaja, int64, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) DB() *gorm.DB { return r.db }

func (r *cajaRepo) CreateSesion(ctx context.Context, tx *gorm.DB, s *model.SesionCaja) error {
	return conn(ctx, r.db, tx).Create(s).Error
}

func (r *cajaRepo) FindSesionByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	if err := conn(ctx, r.db, tx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cajaRepo) FindSesionByFecha(ctx context.Context, tx *gorm.DB, fecha string) (*model.SesionCaja, error) {
	var s model.SesionCaja
	if err := conn(ctx, r.db, tx).Where("fecha = ?", fecha).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cajaRepo) FindSesionAbierta(ctx context.Context, tx *gorm.DB) (*model.SesionCaja, error) {
	q := conn(ctx, r.db, tx)
	if tx != nil {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var s model.SesionCaja
	err := q.Where("estado = ?", model.EstadoAbierta).Order("fecha DESC").First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cajaRepo) ListSesionesAbiertasAntesDe(ctx context.Context, tx *gorm.DB, fecha string) ([]model.SesionCaja, error) {
	var sesiones []model.SesionCaja
	err := conn(ctx, r.db, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("estado = ? AND fecha < ?", model.EstadoAbierta, fecha).
		Order("fecha ASC").
		Find(&sesiones).Error
	return sesiones, err
}

func (r *cajaRepo) LockSesion(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := conn(ctx, r.db, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cajaRepo) UpdateSesion(ctx context.Context, tx *gorm.DB, s *model.SesionCaja) error {
	return conn(ctx, r.db, tx).Save(s).Error
}

func (r *cajaRepo) ListSesiones(ctx context.Context, page, limit int) ([]model.SesionCaja, int64, error) {
	var sesiones []model.SesionCaja
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.SesionCaja{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.WithContext(ctx).Order("fecha DESC").Offset((page - 1) * limit).Limit(limit).Find(&sesiones).Error
	return sesiones, total, err
}
