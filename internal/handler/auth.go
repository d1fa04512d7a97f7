package handler

import (
	"net/http"

	"acopio/internal/apierror"
	"acopio/internal/dto"
	"acopio/internal/middleware"
	"acopio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// EmitirToken godoc
// @Summary Emite un token para un operador (solo administrador)
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.EmitirTokenRequest true "Operador"
// @Success 201 {object} dto.TokenResponse
// @Failure 403 {object} apierror.APIError
// @Router /v1/auth/tokens [post]
func (h *AuthHandler) EmitirToken(c *gin.Context) {
	var req dto.EmitirTokenRequest
	if !bindAndValidate(c, &req) {
		return
	}
	id, _ := uuid.Parse(req.OperadorID)
	resp, err := h.svc.Emitir(c.Request.Context(), id, req.Nombre, req.Rol)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Refresh godoc
// @Summary Renueva el token de acceso
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.RefreshRequest true "Refresh token"
// @Success 200 {object} dto.TokenResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the operator identified by the access token.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	c.JSON(http.StatusOK, dto.OperadorResponse{
		ID:     claims.UserID,
		Nombre: claims.Username,
		Rol:    claims.Rol,
	})
}
