package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// identidadResponse is the body returned by the identity lookup service for
// DNI (8 digits) and RUC (11 digits) queries.
type identidadResponse struct {
	Nombre      string `json:"nombre"`
	RazonSocial string `json:"razon_social"`
	Encontrado  *bool  `json:"encontrado"`
}

// IdentidadClient resolves a document number to a registered name through an
// external HTTP service. Calls go through a circuit breaker so an unreachable
// service fails fast instead of holding the till.
type IdentidadClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cb         *CircuitBreaker
}

func NewIdentidadClient(baseURL, token string) *IdentidadClient {
	return &IdentidadClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		cb:         NewCircuitBreaker(DefaultCBConfig("identidad")),
	}
}

// Configurado reports whether a service URL was provided.
func (c *IdentidadClient) Configurado() bool { return c != nil && c.baseURL != "" }

// Buscar returns the registered name for documento. A 404 from the service
// is a definitive "not found" (encontrado=false, nil error).
func (c *IdentidadClient) Buscar(ctx context.Context, documento string) (string, bool, error) {
	if !c.Configurado() {
		return "", false, errors.New("identidad: servicio no configurado")
	}

	var nombre string
	var encontrado bool
	err := c.cb.Execute(func() error {
		var err error
		nombre, encontrado, err = c.consultar(ctx, documento)
		return err
	})
	if err != nil {
		return "", false, err
	}
	return nombre, encontrado, nil
}

func (c *IdentidadClient) consultar(ctx context.Context, documento string) (string, bool, error) {
	tipo := "dni"
	if len(documento) == 11 {
		tipo = "ruc"
	}
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, tipo, url.PathEscape(documento))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", false, fmt.Errorf("identidad: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("identidad: service unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", false, nil
	case resp.StatusCode != http.StatusOK:
		return "", false, fmt.Errorf("identidad: service returned %d", resp.StatusCode)
	}

	var body identidadResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false, fmt.Errorf("identidad: decode response: %w", err)
	}
	if body.Encontrado != nil && !*body.Encontrado {
		return "", false, nil
	}
	nombre := strings.TrimSpace(body.Nombre)
	if nombre == "" {
		nombre = strings.TrimSpace(body.RazonSocial)
	}
	if nombre == "" {
		return "", false, nil
	}
	return nombre, true, nil
}

// Estado exposes the breaker state for the health endpoint.
func (c *IdentidadClient) Estado() CBState { return c.cb.State() }
