package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pomo1231/solbombs2/internal/config"
	"github.com/pomo1231/solbombs2/internal/models"
)

var ErrInvalidToken = errors.New("invalid or expired token")

const tokenIssuer = "solbombs"

// Claims binds a session to the wallet address that signed in.
type Claims struct {
	Address   models.Address `json:"addr"`
	SessionID string         `json:"sid"`
	jwt.RegisteredClaims
}

// JWTService issues and checks HS256 session tokens. It is the Authenticator
// used by the HTTP layer.
type JWTService struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTService(cfg *config.Config) *JWTService {
	return &JWTService{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.JWTTTL,
	}
}

func (s *JWTService) GenerateToken(addr models.Address) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		Address:   addr,
		SessionID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   addr.String(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject != claims.Address.String() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *JWTService) Authenticate(token string) (models.Address, error) {
	claims, err := s.ValidateToken(token)
	if err != nil {
		return models.ZeroAddress, err
	}
	return claims.Address, nil
}
