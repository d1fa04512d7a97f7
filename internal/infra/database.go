package infra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"acopio/internal/config"
	"acopio/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the ledger database selected by DB_DRIVER.
//
// PostgreSQL is the production store; its schema is owned by the SQL files in
// migrations/ (see Migrator). SQLite serves single-till installs and tests; its
// schema is created with AutoMigrate by PrepararSQLite.
//
// TranslateError is enabled on both so unique violations surface as
// gorm.ErrDuplicatedKey regardless of driver.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}

	switch cfg.DBDriver {
	case "postgres", "":
		db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), gcfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		return db, nil

	case "sqlite":
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := PrepararSQLite(context.Background(), db); err != nil {
			return nil, err
		}
		return db, nil

	default:
		return nil, fmt.Errorf("DB_DRIVER %q no soportado (postgres | sqlite)", cfg.DBDriver)
	}
}

// OpenSQLite opens (creating if needed) a SQLite file with foreign keys on.
// A single connection serialises writers, which is what a one-till shop needs
// and what SQLite's locking model expects.
func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}
	dsn := path + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// PrepararSQLite creates the schema with AutoMigrate and seeds the rows the
// ledger expects to exist: the voucher counter and the anonymous proveedor.
func PrepararSQLite(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&model.Producto{},
		&model.Proveedor{},
		&model.SesionCaja{},
		&model.MovimientoCaja{},
		&model.Compra{},
		&model.CompraItem{},
		&model.MovimientoPrestamo{},
		&model.ContadorVoucher{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return SembrarBase(ctx, db)
}

// SembrarBase inserts the voucher counter row and the anonymous proveedor
// when missing. Safe to call repeatedly.
func SembrarBase(ctx context.Context, db *gorm.DB) error {
	q := db.WithContext(ctx)

	var contador model.ContadorVoucher
	err := q.Where("id = ?", 1).First(&contador).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := q.Create(&model.ContadorVoucher{ID: 1, Siguiente: 1}).Error; err != nil {
			return fmt.Errorf("seed contador_voucher: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("seed contador_voucher: %w", err)
	}

	var anonimo model.Proveedor
	err = q.Where("documento = ?", model.DocumentoAnonimo).First(&anonimo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		anonimo = model.Proveedor{
			Documento: model.DocumentoAnonimo,
			Nombre:    "Anónimo",
			EsAnonimo: true,
			Activo:    true,
		}
		if err := q.Create(&anonimo).Error; err != nil {
			return fmt.Errorf("seed proveedor anónimo: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("seed proveedor anónimo: %w", err)
	}
	return nil
}
