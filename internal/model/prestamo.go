package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tipos de MovimientoPrestamo.
const (
	PrestamoOtorgado = "prestamo"
	PrestamoPago     = "pago"
)

// MovimientoPrestamo is one loan or repayment event of a proveedor.
// Saldo is the running balance right after the event.
type MovimientoPrestamo struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProveedorID  uuid.UUID       `gorm:"type:uuid;index;not null"`
	SesionCajaID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Tipo         string          `gorm:"type:varchar(10);not null"`
	Monto        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Saldo        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descripcion  string
	CreatedAt    time.Time
}

func (MovimientoPrestamo) TableName() string { return "movimientos_prestamo" }

func (m *MovimientoPrestamo) BeforeCreate(*gorm.DB) error {
	asignarID(&m.ID)
	return nil
}
