package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/campusware/gatepass/internal/model"
)

// TokenService issues and validates the access/refresh token pair.
type TokenService interface {
	GenerateAccessToken(admin *model.Admin) (string, error)
	GenerateRefreshToken(admin *model.Admin) (string, error)
	ValidateToken(token string) (*model.TokenClaims, error)
	ValidateRefreshToken(token string) (*model.TokenClaims, error)
}

type jwtService struct {
	secret        []byte
	refreshSecret []byte
	expiry        time.Duration
	refreshExpiry time.Duration
}

func NewJWTService(secret, refreshSecret string, expiry, refreshExpiry time.Duration) TokenService {
	return &jwtService{
		secret:        []byte(secret),
		refreshSecret: []byte(refreshSecret),
		expiry:        expiry,
		refreshExpiry: refreshExpiry,
	}
}

type claims struct {
	LoginName string          `json:"login_name"`
	Role      model.AdminRole `json:"role"`
	TokenType string          `json:"token_type"`
	jwt.RegisteredClaims
}

func (s *jwtService) GenerateAccessToken(admin *model.Admin) (string, error) {
	return s.generate(admin, "access", s.expiry, s.secret)
}

func (s *jwtService) GenerateRefreshToken(admin *model.Admin) (string, error) {
	return s.generate(admin, "refresh", s.refreshExpiry, s.refreshSecret)
}

func (s *jwtService) generate(admin *model.Admin, tokenType string, ttl time.Duration, key []byte) (string, error) {
	now := time.Now()
	c := claims{
		LoginName: admin.LoginName,
		Role:      admin.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(admin.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *jwtService) ValidateToken(token string) (*model.TokenClaims, error) {
	return s.validate(token, "access", s.secret)
}

func (s *jwtService) ValidateRefreshToken(token string) (*model.TokenClaims, error) {
	return s.validate(token, "refresh", s.refreshSecret)
}

func (s *jwtService) validate(token, wantType string, key []byte) (*model.TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if c.TokenType != wantType {
		return nil, fmt.Errorf("unexpected token type %q", c.TokenType)
	}

	adminID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid token subject: %w", err)
	}
	return &model.TokenClaims{
		AdminID:   adminID,
		LoginName: c.LoginName,
		Role:      c.Role,
	}, nil
}
