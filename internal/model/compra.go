package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Modos de pesaje de un CompraItem.
const (
	ModoPesajeBalanza = "balanza"
	ModoPesajeSacos   = "sacos"
)

// Compra is a purchase voucher covering one or more items bought from a single proveedor.
// Total is always the sum of the item subtotals.
type Compra struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	NumeroVoucher string          `gorm:"type:varchar(20);uniqueIndex;not null"`
	ProveedorID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	SesionCajaID  uuid.UUID       `gorm:"type:uuid;index;not null"`
	UsuarioID     uuid.UUID       `gorm:"type:uuid;not null"`
	PesoTotal     decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Editada       bool            `gorm:"not null;default:false"`
	EditadaAt     *time.Time
	// AjusteRetroactivo is set when the compra was edited after its session closed
	AjusteRetroactivo bool `gorm:"not null;default:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Items     []CompraItem `gorm:"foreignKey:CompraID"`
	Proveedor *Proveedor   `gorm:"foreignKey:ProveedorID"`
}

func (c *Compra) BeforeCreate(*gorm.DB) error {
	asignarID(&c.ID)
	return nil
}

// CompraItem is one weighed line of a Compra. Items are edited in place and
// never added or removed after the compra is created.
type CompraItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CompraID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	Linea          int             `gorm:"not null"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null"`
	NivelSecado    string          `gorm:"type:varchar(30)"`
	Calidad        string          `gorm:"type:varchar(30)"`
	ModoPesaje     string          `gorm:"type:varchar(20);not null;default:'balanza'"`
	PesoBruto      decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	DescuentoPeso  decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	PesoNeto       decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (i *CompraItem) BeforeCreate(*gorm.DB) error {
	asignarID(&i.ID)
	return nil
}

// ContadorVoucher is the single-row counter behind compra voucher numbers.
// Siguiente is the number the next compra will receive.
type ContadorVoucher struct {
	ID        int   `gorm:"primaryKey"`
	Siguiente int64 `gorm:"not null;default:1"`
}

func (ContadorVoucher) TableName() string { return "contador_voucher" }
