package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Estados de SesionCaja.
const (
	EstadoAbierta       = "abierta"
	EstadoCerradaManual = "cerrada_manual"
	EstadoCerradaAuto   = "cerrada_auto"
)

// SesionCaja is the cash register of one calendar day.
// Fecha is the day in the shop timezone (YYYY-MM-DD) and is unique, so a day
// can be opened at most once; a closed day can only be reopened.
type SesionCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Fecha        string          `gorm:"type:varchar(10);uniqueIndex;not null"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null"`
	MontoInicial decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// MontoEsperado = MontoInicial + SUM(ingresos) - SUM(egresos), kept current on every movement
	MontoEsperado decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	MontoContado  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Desvio        *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Estado        string           `gorm:"type:varchar(20);not null;default:'abierta';index"`
	Observaciones *string
	OpenedAt      time.Time
	ClosedAt      *time.Time
}

func (SesionCaja) TableName() string { return "sesiones_caja" }

func (s *SesionCaja) BeforeCreate(*gorm.DB) error {
	asignarID(&s.ID)
	return nil
}

// Abierta reports whether money can still be moved against the session.
func (s *SesionCaja) Abierta() bool { return s.Estado == EstadoAbierta }

// Tipos de MovimientoCaja.
const (
	TipoCompra         = "compra"
	TipoVenta          = "venta"
	TipoPrestamo       = "prestamo"
	TipoPagoPrestamo   = "pago_prestamo"
	TipoInyeccion      = "inyeccion"
	TipoRetiro         = "retiro"
	TipoGastoOperativo = "gasto_operativo"
)

// Direcciones de MovimientoCaja.
const (
	DireccionIngreso = "ingreso"
	DireccionEgreso  = "egreso"
)

// DireccionDeTipo returns the cash direction implied by a movement type.
func DireccionDeTipo(tipo string) string {
	switch tipo {
	case TipoVenta, TipoPagoPrestamo, TipoInyeccion:
		return DireccionIngreso
	default:
		return DireccionEgreso
	}
}

// MovimientoCaja is one money movement recorded against a SesionCaja.
// Monto is always positive; Direccion carries the sign.
// Rows are never deleted. The only in-place update allowed is the
// amount/description rewrite done when the owning compra is edited.
type MovimientoCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SesionCajaID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Tipo         string          `gorm:"type:varchar(20);not null"`
	Direccion    string          `gorm:"type:varchar(10);not null"`
	Monto        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descripcion  string          `gorm:"not null"`
	// ReferenciaID links to the originating Compra or MovimientoPrestamo
	ReferenciaID      *uuid.UUID `gorm:"type:uuid;index"`
	AjusteRetroactivo bool       `gorm:"not null;default:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (MovimientoCaja) TableName() string { return "movimientos_caja" }

func (m *MovimientoCaja) BeforeCreate(*gorm.DB) error {
	asignarID(&m.ID)
	return nil
}

// EsIngreso reports whether the movement adds cash to the register.
func (m MovimientoCaja) EsIngreso() bool { return m.Direccion == DireccionIngreso }
