package services

import (
	"errors"
	"time"

	"cinepoint/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

type Authentication struct {
	secret string
	ttl    time.Duration
}

func NewAuthentication(secret string) (*Authentication, error) {
	return &Authentication{secret, time.Hour}, nil
}

// CreateCustomToken mints the short-lived local sign-in credential scoped to
// the canonical local identity id.
func (authentication *Authentication) CreateCustomToken(localID string, provider string) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   localID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(authentication.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(authentication.secret))
}

func (authentication *Authentication) Validate(token string) (*models.AuthUser, error) {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		return []byte(authentication.secret), nil
	}
	jwtToken, err := jwt.ParseWithClaims(token, &CustomClaims{}, keyFunc)
	if err != nil {
		return nil, err
	}

	claims, ok := jwtToken.Claims.(*CustomClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	return &models.AuthUser{
		ID:       claims.Subject,
		Provider: claims.Provider,
	}, nil
}
