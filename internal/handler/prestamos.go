package handler

import (
	"net/http"

	"acopio/internal/dto"
	"acopio/internal/service"

	"github.com/gin-gonic/gin"
)

type PrestamosHandler struct{ svc service.PrestamoService }

func NewPrestamosHandler(svc service.PrestamoService) *PrestamosHandler {
	return &PrestamosHandler{svc: svc}
}

// Otorgar godoc
// @Summary Otorga un prestamo en efectivo a un proveedor
// @Tags prestamos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.MovimientoPrestamoRequest true "Prestamo"
// @Success 201 {object} dto.MovimientoPrestamoResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/prestamos [post]
func (h *PrestamosHandler) Otorgar(c *gin.Context) {
	var req dto.MovimientoPrestamoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.OtorgarPrestamo(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// RegistrarPago godoc
// @Summary Registra un pago (total o parcial) del prestamo de un proveedor
// @Tags prestamos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.MovimientoPrestamoRequest true "Pago"
// @Success 201 {object} dto.MovimientoPrestamoResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/prestamos/pagos [post]
func (h *PrestamosHandler) RegistrarPago(c *gin.Context) {
	var req dto.MovimientoPrestamoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarPago(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// EstadoCuenta returns a proveedor's loan balance and its history.
func (h *PrestamosHandler) EstadoCuenta(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.EstadoCuenta(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
