package service

import (
	"context"
	"errors"

	"acopio/internal/apierror"
	"acopio/internal/dto"
	"acopio/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type ProveedorService interface {
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProveedorResponse, error)
	Listar(ctx context.Context) ([]dto.ProveedorResponse, error)
	// ConsultarDocumento checks the local directory first and falls back to
	// the identity service. Lookup failures become warnings, never errors.
	ConsultarDocumento(ctx context.Context, documento string) (*dto.ConsultaDocumentoResponse, error)
}

type proveedorService struct {
	repo      repository.ProveedorRepository
	identidad IdentidadLookup
}

func NewProveedorService(repo repository.ProveedorRepository, identidad IdentidadLookup) ProveedorService {
	return &proveedorService{repo: repo, identidad: identidad}
}

func (s *proveedorService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProveedorResponse, error) {
	p, err := s.repo.FindByID(ctx, nil, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.ErrProveedorNoEncontrado
	}
	if err != nil {
		return nil, err
	}
	resp := proveedorToResponse(p)
	return &resp, nil
}

func (s *proveedorService) Listar(ctx context.Context) ([]dto.ProveedorResponse, error) {
	proveedores, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ProveedorResponse, 0, len(proveedores))
	for i := range proveedores {
		resp = append(resp, proveedorToResponse(&proveedores[i]))
	}
	return resp, nil
}

func (s *proveedorService) ConsultarDocumento(ctx context.Context, documento string) (*dto.ConsultaDocumentoResponse, error) {
	resp := &dto.ConsultaDocumentoResponse{Documento: documento}

	p, err := s.repo.FindByDocumento(ctx, nil, documento)
	if err == nil {
		id := p.ID.String()
		resp.Nombre = p.Nombre
		resp.Encontrado = true
		resp.ProveedorID = &id
		return resp, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if s.identidad == nil {
		resp.Advertencias = append(resp.Advertencias, "Servicio de identidad no configurado")
		return resp, nil
	}
	nombre, encontrado, err := s.identidad.Buscar(ctx, documento)
	if err != nil {
		log.Warn().Err(err).Str("documento", documento).Msg("consulta de identidad fallida")
		resp.Advertencias = append(resp.Advertencias, "Servicio de identidad no disponible: ingrese el nombre manualmente")
		return resp, nil
	}
	resp.Nombre = nombre
	resp.Encontrado = encontrado
	return resp, nil
}
