package dto

import "github.com/shopspring/decimal"

type ProveedorResponse struct {
	ID            string          `json:"id"`
	Documento     string          `json:"documento"`
	Nombre        string          `json:"nombre"`
	Telefono      *string         `json:"telefono"`
	EsAnonimo     bool            `json:"es_anonimo"`
	SaldoPrestamo decimal.Decimal `json:"saldo_prestamo"`
}

// ConsultaDocumentoResponse answers a DNI/RUC lookup. When the document
// already belongs to a proveedor, ProveedorID is set and no external call is made.
type ConsultaDocumentoResponse struct {
	Documento    string   `json:"documento"`
	Nombre       string   `json:"nombre"`
	Encontrado   bool     `json:"encontrado"`
	ProveedorID  *string  `json:"proveedor_id"`
	Advertencias []string `json:"advertencias,omitempty"`
}
