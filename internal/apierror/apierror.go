// Package apierror provides standardized error response structures for the API
// and the typed domain failures raised by the ledger services.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import "net/http"

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// Kind groups domain failures by how the caller is expected to react.
type Kind string

const (
	// KindInvariante: the request breaks a business rule; the user must correct it.
	KindInvariante Kind = "invariante"
	// KindNoEncontrado: a referenced entity does not exist.
	KindNoEncontrado Kind = "no_encontrado"
	// KindIntegridad: persisted data is inconsistent; operators must be alerted.
	KindIntegridad Kind = "integridad"
)

// DomainError is a typed, user-presentable failure. Instances are package
// level sentinels so callers compare them with errors.Is.
type DomainError struct {
	Code    string
	Kind    Kind
	Message string
}

func (e *DomainError) Error() string { return e.Message }

// Status maps the error to its HTTP status code.
func (e *DomainError) Status() int {
	switch e.Kind {
	case KindNoEncontrado:
		return http.StatusNotFound
	case KindIntegridad:
		return http.StatusInternalServerError
	default:
		return http.StatusConflict
	}
}

// Body returns the response envelope for the error.
func (e *DomainError) Body() *APIError {
	return &APIError{Detail: e.Message, Code: e.Code}
}

func invariante(code, msg string) *DomainError {
	return &DomainError{Code: code, Kind: KindInvariante, Message: msg}
}

func noEncontrado(code, msg string) *DomainError {
	return &DomainError{Code: code, Kind: KindNoEncontrado, Message: msg}
}

var (
	ErrSesionYaAbiertaHoy    = invariante("SESION_YA_ABIERTA_HOY", "Ya existe una sesión de caja para el día de hoy")
	ErrSinSesionAbierta      = invariante("SIN_SESION_ABIERTA", "No hay sesión de caja abierta")
	ErrSesionOtroDia         = invariante("SESION_OTRO_DIA", "La sesión de caja no corresponde al día de hoy")
	ErrSesionYaAbierta       = invariante("SESION_YA_ABIERTA", "La sesión de caja ya está abierta")
	ErrVentanaEdicionVencida = invariante("VENTANA_EDICION_VENCIDA", "El plazo para editar la compra ha vencido")
	ErrCantidadItemsDistinta = invariante("CANTIDAD_ITEMS_DISTINTA", "La edición debe incluir exactamente los mismos ítems de la compra")
	ErrItemDesconocido       = invariante("ITEM_DESCONOCIDO", "El ítem no pertenece a la compra")
	ErrItemInvalido          = invariante("ITEM_INVALIDO", "Ítem de compra inválido")
	ErrProveedorAnonimo      = invariante("PROVEEDOR_ANONIMO", "El proveedor anónimo no puede recibir préstamos")
	ErrSinSaldoPendiente     = invariante("SIN_SALDO_PENDIENTE", "El proveedor no tiene saldo de préstamo pendiente")
	ErrPagoExcedeSaldo       = invariante("PAGO_EXCEDE_SALDO", "El pago excede el saldo pendiente del proveedor")
	ErrProveedorAmbiguo      = invariante("PROVEEDOR_AMBIGUO", "Indique exactamente uno de proveedor_id, nuevo_proveedor o anonimo")
	ErrMontoInvalido         = invariante("MONTO_INVALIDO", "Monto inválido")
	ErrTipoMovimiento        = invariante("TIPO_MOVIMIENTO_INVALIDO", "Tipo de movimiento manual inválido")
	ErrConflictoConcurrente  = invariante("CONFLICTO_CONCURRENTE", "La operación coincidió con otra simultánea, intente nuevamente")

	ErrSesionNoEncontrada    = noEncontrado("SESION_NO_ENCONTRADA", "Sesión de caja no encontrada")
	ErrCompraNoEncontrada    = noEncontrado("COMPRA_NO_ENCONTRADA", "Compra no encontrada")
	ErrProveedorNoEncontrado = noEncontrado("PROVEEDOR_NO_ENCONTRADO", "Proveedor no encontrado")
	ErrProductoNoEncontrado  = noEncontrado("PRODUCTO_NO_ENCONTRADO", "Producto no encontrado o inactivo")

	ErrMovimientoHuerfano = &DomainError{
		Code:    "MOVIMIENTO_HUERFANO",
		Kind:    KindIntegridad,
		Message: "La compra no tiene su movimiento de caja asociado",
	}
)
