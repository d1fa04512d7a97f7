package service

import (
	"context"
	"encoding/json"
	"time"

	"acopio/internal/dto"
	"acopio/internal/model"
	"acopio/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	productosCacheKey = "acopio:productos:activos"
	productosCacheTTL = 10 * time.Minute
)

// ProductoService exposes the product directory to the purchase screens.
// The active list is cached in Redis when a client is configured.
type ProductoService interface {
	Listar(ctx context.Context) ([]dto.ProductoResponse, error)
	Registrar(ctx context.Context, p *model.Producto) error
}

type productoService struct {
	repo repository.ProductoRepository
	rdb  *redis.Client
}

func NewProductoService(repo repository.ProductoRepository, rdb *redis.Client) ProductoService {
	return &productoService{repo: repo, rdb: rdb}
}

func (s *productoService) Listar(ctx context.Context) ([]dto.ProductoResponse, error) {
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, productosCacheKey).Bytes(); err == nil {
			var cached []dto.ProductoResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	productos, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		resp = append(resp, productoToResponse(&productos[i]))
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(resp); err == nil {
			if err := s.rdb.Set(ctx, productosCacheKey, raw, productosCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("no se pudo cachear la lista de productos")
			}
		}
	}
	return resp, nil
}

// Registrar creates or updates a product by name and drops the cached list.
func (s *productoService) Registrar(ctx context.Context, p *model.Producto) error {
	if err := s.repo.Upsert(ctx, p); err != nil {
		return err
	}
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, productosCacheKey).Err(); err != nil {
			log.Warn().Err(err).Msg("no se pudo invalidar la caché de productos")
		}
	}
	return nil
}
