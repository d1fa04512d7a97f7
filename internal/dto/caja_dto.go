package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	MontoInicial decimal.Decimal `json:"monto_inicial" validate:"min=0"`
}

type CerrarCajaRequest struct {
	MontoContado  decimal.Decimal `json:"monto_contado" validate:"min=0"`
	Observaciones *string         `json:"observaciones"`
}

// MovimientoManualRequest covers the movements an operator records by hand.
// Compras and préstamos generate their own movements.
type MovimientoManualRequest struct {
	Tipo        string          `json:"tipo"        validate:"required,oneof=inyeccion retiro gasto_operativo venta"`
	Monto       decimal.Decimal `json:"monto"       validate:"required,gt=0"`
	Descripcion string          `json:"descripcion" validate:"required,min=3,max=255"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SesionCajaResponse struct {
	ID            string           `json:"id"`
	Fecha         string           `json:"fecha"`
	UsuarioID     string           `json:"usuario_id"`
	MontoInicial  decimal.Decimal  `json:"monto_inicial"`
	MontoEsperado decimal.Decimal  `json:"monto_esperado"`
	MontoContado  *decimal.Decimal `json:"monto_contado"`
	Desvio        *decimal.Decimal `json:"desvio"`
	Estado        string           `json:"estado"` // abierta | cerrada_manual | cerrada_auto
	Observaciones *string          `json:"observaciones"`
	OpenedAt      string           `json:"opened_at"`
	ClosedAt      *string          `json:"closed_at"`
	// Stale sessions force-closed while opening this one
	AutoCerradas []string `json:"sesiones_auto_cerradas,omitempty"`
}

type MovimientoCajaResponse struct {
	ID                string          `json:"id"`
	Tipo              string          `json:"tipo"`
	Direccion         string          `json:"direccion"` // ingreso | egreso
	Monto             decimal.Decimal `json:"monto"`
	Descripcion       string          `json:"descripcion"`
	ReferenciaID      *string         `json:"referencia_id"`
	AjusteRetroactivo bool            `json:"ajuste_retroactivo"`
	CreatedAt         string          `json:"created_at"`
}

type TotalTipoMovimiento struct {
	Tipo      string          `json:"tipo"`
	Direccion string          `json:"direccion"`
	Cantidad  int             `json:"cantidad"`
	Total     decimal.Decimal `json:"total"`
}

type ReporteCajaResponse struct {
	Sesion        SesionCajaResponse       `json:"sesion"`
	TotalIngresos decimal.Decimal          `json:"total_ingresos"`
	TotalEgresos  decimal.Decimal          `json:"total_egresos"`
	PorTipo       []TotalTipoMovimiento    `json:"por_tipo"`
	Movimientos   []MovimientoCajaResponse `json:"movimientos"`
	Advertencias  []string                 `json:"advertencias,omitempty"`
}

type HistorialCajaResponse struct {
	Data  []SesionCajaResponse `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}
