package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DocumentoAnonimo identifies the placeholder proveedor used for walk-in sellers.
const DocumentoAnonimo = "00000000"

// Proveedor represents a seller of raw product.
// SaldoPrestamo caches the running balance of the latest MovimientoPrestamo and
// is only written by the loan tracker inside the same transaction.
type Proveedor struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Documento     string          `gorm:"type:varchar(11);uniqueIndex;not null"`
	Nombre        string          `gorm:"not null"`
	Telefono      *string
	EsAnonimo     bool            `gorm:"not null;default:false"`
	SaldoPrestamo decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Activo        bool            `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Proveedor) TableName() string { return "proveedores" }

func (p *Proveedor) BeforeCreate(*gorm.DB) error {
	asignarID(&p.ID)
	return nil
}
