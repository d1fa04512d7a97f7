package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type EmitirTokenRequest struct {
	OperadorID string `json:"operador_id" validate:"required,uuid"`
	Nombre     string `json:"nombre"      validate:"required,min=2,max=100"`
	Rol        string `json:"rol"         validate:"required,oneof=cajero administrador"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OperadorResponse struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
	Rol    string `json:"rol"`
}

type TokenResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	TokenType    string           `json:"token_type"`
	ExpiresIn    int              `json:"expires_in"` // seconds
	Operador     OperadorResponse `json:"operador"`
}
