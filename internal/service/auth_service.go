package service

import (
	"context"
	"errors"
	"time"

	"acopio/internal/config"
	"acopio/internal/dto"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles de operador.
const (
	RolCajero        = "cajero"
	RolAdministrador = "administrador"
)

const (
	tokenAcceso  = "access"
	tokenRefresh = "refresh"
)

// AuthService mints and refreshes operator tokens. Operators are managed by
// the shop's identity provider; this module only trusts signed claims.
type AuthService interface {
	Emitir(ctx context.Context, operadorID uuid.UUID, nombre, rol string) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
}

type authService struct {
	cfg *config.Config
	now func() time.Time
}

func NewAuthService(cfg *config.Config) AuthService {
	return &authService{cfg: cfg, now: time.Now}
}

func (s *authService) Emitir(_ context.Context, operadorID uuid.UUID, nombre, rol string) (*dto.TokenResponse, error) {
	if rol != RolCajero && rol != RolAdministrador {
		return nil, errors.New("rol inválido: use cajero o administrador")
	}
	if s.cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET no configurado")
	}
	op := dto.OperadorResponse{ID: operadorID.String(), Nombre: nombre, Rol: rol}

	accessToken, err := s.generateToken(op, tokenAcceso, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(op, tokenRefresh, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		Operador:     op,
	}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(refreshToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("refresh token invalido o expirado")
	}
	if tipo, _ := claims["tipo"].(string); tipo != tokenRefresh {
		return nil, errors.New("el token no es de tipo refresh")
	}

	idStr, _ := claims["user_id"].(string)
	operadorID, err := uuid.Parse(idStr)
	if err != nil {
		return nil, errors.New("refresh token sin operador valido")
	}
	nombre, _ := claims["username"].(string)
	rol, _ := claims["rol"].(string)
	return s.Emitir(ctx, operadorID, nombre, rol)
}

func (s *authService) generateToken(op dto.OperadorResponse, tipo string, duration time.Duration) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id":  op.ID,
		"username": op.Nombre,
		"rol":      op.Rol,
		"tipo":     tipo,
		"exp":      now.Add(duration).Unix(),
		"iat":      now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
