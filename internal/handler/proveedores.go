package handler

import (
	"net/http"
	"regexp"

	"acopio/internal/apierror"
	"acopio/internal/service"

	"github.com/gin-gonic/gin"
)

var documentoRe = regexp.MustCompile(`^[0-9]{8}([0-9]{3})?$`)

type ProveedoresHandler struct{ svc service.ProveedorService }

func NewProveedoresHandler(svc service.ProveedorService) *ProveedoresHandler {
	return &ProveedoresHandler{svc: svc}
}

func (h *ProveedoresHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *ProveedoresHandler) ObtenerPorID(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConsultarDocumento godoc
// @Summary Consulta un DNI (8 digitos) o RUC (11 digitos)
// @Tags proveedores
// @Produce json
// @Security BearerAuth
// @Param documento path string true "DNI o RUC"
// @Success 200 {object} dto.ConsultaDocumentoResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/proveedores/documento/{documento} [get]
func (h *ProveedoresHandler) ConsultarDocumento(c *gin.Context) {
	documento := c.Param("documento")
	if !documentoRe.MatchString(documento) {
		c.JSON(http.StatusBadRequest, apierror.New("Documento inválido: use DNI de 8 dígitos o RUC de 11"))
		return
	}
	resp, err := h.svc.ConsultarDocumento(c.Request.Context(), documento)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
