package infra

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Lookup is the contract shared by the identity client and its cache.
type Lookup interface {
	Buscar(ctx context.Context, documento string) (string, bool, error)
}

const (
	identidadKeyPrefix = "acopio:identidad:"
	// Names rarely change; misses are retried sooner because the registry
	// catches up with newly issued documents.
	identidadTTLEncontrado   = 24 * time.Hour
	identidadTTLNoEncontrado = time.Hour
)

type identidadCacheEntry struct {
	Nombre     string `json:"nombre"`
	Encontrado bool   `json:"encontrado"`
}

// IdentidadCache is a Redis read-through cache in front of a Lookup.
// Redis errors degrade to a direct call; lookup errors are never cached.
type IdentidadCache struct {
	next Lookup
	rdb  *redis.Client
}

func NewIdentidadCache(next Lookup, rdb *redis.Client) *IdentidadCache {
	return &IdentidadCache{next: next, rdb: rdb}
}

func (c *IdentidadCache) Buscar(ctx context.Context, documento string) (string, bool, error) {
	if c.rdb == nil {
		return c.next.Buscar(ctx, documento)
	}
	key := identidadKeyPrefix + documento

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var entry identidadCacheEntry
		if jerr := json.Unmarshal(raw, &entry); jerr == nil {
			return entry.Nombre, entry.Encontrado, nil
		}
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Str("documento", documento).Msg("identidad: cache read failed")
	}

	nombre, encontrado, err := c.next.Buscar(ctx, documento)
	if err != nil {
		return "", false, err
	}

	ttl := identidadTTLNoEncontrado
	if encontrado {
		ttl = identidadTTLEncontrado
	}
	data, _ := json.Marshal(identidadCacheEntry{Nombre: nombre, Encontrado: encontrado})
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("documento", documento).Msg("identidad: cache write failed")
	}
	return nombre, encontrado, nil
}
