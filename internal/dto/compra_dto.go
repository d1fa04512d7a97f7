package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type NuevoProveedorInput struct {
	Documento string  `json:"documento" validate:"required,numeric,min=8,max=11"`
	Nombre    *string `json:"nombre"    validate:"omitempty,min=2,max=150"`
	Telefono  *string `json:"telefono"  validate:"omitempty,max=20"`
}

type CompraItemInput struct {
	ProductoID     string          `json:"producto_id"     validate:"required,uuid"`
	NivelSecado    string          `json:"nivel_secado"    validate:"max=30"`
	Calidad        string          `json:"calidad"         validate:"max=30"`
	ModoPesaje     string          `json:"modo_pesaje"     validate:"required,oneof=balanza sacos"`
	PesoBruto      decimal.Decimal `json:"peso_bruto"      validate:"required,gt=0"`
	DescuentoPeso  decimal.Decimal `json:"descuento_peso"  validate:"min=0"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"required,gt=0"`
}

// RegistrarCompraRequest identifies the seller with exactly one of
// ProveedorID, NuevoProveedor or Anonimo.
type RegistrarCompraRequest struct {
	ProveedorID    *string              `json:"proveedor_id"    validate:"omitempty,uuid"`
	NuevoProveedor *NuevoProveedorInput `json:"nuevo_proveedor" validate:"omitempty"`
	Anonimo        bool                 `json:"anonimo"`
	Items          []CompraItemInput    `json:"items"           validate:"required,min=1,dive"`
}

type EditarCompraItemInput struct {
	ID string `json:"id" validate:"required,uuid"`
	CompraItemInput
}

type EditarCompraRequest struct {
	// Keeps the current proveedor when nil
	ProveedorID *string                 `json:"proveedor_id" validate:"omitempty,uuid"`
	Items       []EditarCompraItemInput `json:"items"        validate:"required,min=1,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CompraItemResponse struct {
	ID             string          `json:"id"`
	Linea          int             `json:"linea"`
	ProductoID     string          `json:"producto_id"`
	Producto       string          `json:"producto,omitempty"`
	NivelSecado    string          `json:"nivel_secado"`
	Calidad        string          `json:"calidad"`
	ModoPesaje     string          `json:"modo_pesaje"`
	PesoBruto      decimal.Decimal `json:"peso_bruto"`
	DescuentoPeso  decimal.Decimal `json:"descuento_peso"`
	PesoNeto       decimal.Decimal `json:"peso_neto"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type CompraResponse struct {
	ID                string               `json:"id"`
	NumeroVoucher     string               `json:"numero_voucher"`
	ProveedorID       string               `json:"proveedor_id"`
	Proveedor         string               `json:"proveedor,omitempty"`
	SesionCajaID      string               `json:"sesion_caja_id"`
	PesoTotal         decimal.Decimal      `json:"peso_total"`
	Total             decimal.Decimal      `json:"total"`
	Editada           bool                 `json:"editada"`
	EditadaAt         *string              `json:"editada_at"`
	AjusteRetroactivo bool                 `json:"ajuste_retroactivo"`
	CreatedAt         string               `json:"created_at"`
	Items             []CompraItemResponse `json:"items"`
	Advertencias      []string             `json:"advertencias,omitempty"`
}
