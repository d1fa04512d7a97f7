package dto

import "github.com/shopspring/decimal"

// MovimientoPrestamoRequest is shared by loan issue and loan payment.
type MovimientoPrestamoRequest struct {
	ProveedorID string          `json:"proveedor_id" validate:"required,uuid"`
	Monto       decimal.Decimal `json:"monto"        validate:"required,gt=0"`
	Descripcion string          `json:"descripcion"  validate:"max=255"`
}

type MovimientoPrestamoResponse struct {
	ID           string          `json:"id"`
	ProveedorID  string          `json:"proveedor_id"`
	SesionCajaID string          `json:"sesion_caja_id"`
	Tipo         string          `json:"tipo"` // prestamo | pago
	Monto        decimal.Decimal `json:"monto"`
	Saldo        decimal.Decimal `json:"saldo"`
	Descripcion  string          `json:"descripcion"`
	CreatedAt    string          `json:"created_at"`
}

type EstadoCuentaResponse struct {
	Proveedor   ProveedorResponse            `json:"proveedor"`
	Saldo       decimal.Decimal              `json:"saldo"`
	Movimientos []MovimientoPrestamoResponse `json:"movimientos"`
}
