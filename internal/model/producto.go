package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Producto is a commodity the shop buys (coffee, cacao, corn…).
// The directory is maintained outside the ledger; purchases only read it to
// validate drying level, quality grade and weighing mode of each item.
type Producto struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nombre string    `gorm:"uniqueIndex;not null"`
	// Empty lists mean the product does not grade by that attribute
	NivelesSecado []string `gorm:"serializer:json;type:text"`
	Calidades     []string `gorm:"serializer:json;type:text"`
	PermiteSacos  bool     `gorm:"not null;default:false"`
	Activo        bool     `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p *Producto) BeforeCreate(*gorm.DB) error {
	asignarID(&p.ID)
	return nil
}

// AceptaNivelSecado reports whether nivel is valid for the product.
func (p *Producto) AceptaNivelSecado(nivel string) bool {
	if len(p.NivelesSecado) == 0 {
		return nivel == ""
	}
	return slices.Contains(p.NivelesSecado, nivel)
}

// AceptaCalidad reports whether calidad is valid for the product.
func (p *Producto) AceptaCalidad(calidad string) bool {
	if len(p.Calidades) == 0 {
		return calidad == ""
	}
	return slices.Contains(p.Calidades, calidad)
}

// AceptaModoPesaje reports whether the product can be weighed with modo.
func (p *Producto) AceptaModoPesaje(modo string) bool {
	switch modo {
	case ModoPesajeBalanza:
		return true
	case ModoPesajeSacos:
		return p.PermiteSacos
	default:
		return false
	}
}
