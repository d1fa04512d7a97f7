// Package testutil builds throwaway SQLite databases and fixtures for
// package tests.
package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"acopio/internal/infra"
	"acopio/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated and seeded SQLite database living in t.TempDir().
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := infra.OpenSQLite(filepath.Join(t.TempDir(), "acopio.db"))
	require.NoError(t, err)
	require.NoError(t, infra.PrepararSQLite(context.Background(), db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Reloj is a settable clock for services that take WithClock.
type Reloj struct {
	mu sync.Mutex
	t  time.Time
}

func NewReloj(t time.Time) *Reloj { return &Reloj{t: t} }

func (r *Reloj) Now() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.t
}

func (r *Reloj) Set(t time.Time) {
	r.mu.Lock()
	r.t = t
	r.mu.Unlock()
}

func (r *Reloj) Avanzar(d time.Duration) {
	r.mu.Lock()
	r.t = r.t.Add(d)
	r.mu.Unlock()
}

// CrearProducto inserts an active product.
func CrearProducto(t testing.TB, db *gorm.DB, nombre string, niveles, calidades []string, sacos bool) *model.Producto {
	t.Helper()
	p := &model.Producto{
		Nombre:        nombre,
		NivelesSecado: niveles,
		Calidades:     calidades,
		PermiteSacos:  sacos,
		Activo:        true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CrearProveedor inserts an identified proveedor with no loan balance.
func CrearProveedor(t testing.TB, db *gorm.DB, documento, nombre string) *model.Proveedor {
	t.Helper()
	p := &model.Proveedor{Documento: documento, Nombre: nombre, Activo: true}
	require.NoError(t, db.Create(p).Error)
	return p
}

// Anonimo returns the seeded anonymous proveedor.
func Anonimo(t testing.TB, db *gorm.DB) *model.Proveedor {
	t.Helper()
	var p model.Proveedor
	require.NoError(t, db.Where("es_anonimo = ?", true).First(&p).Error)
	return &p
}
