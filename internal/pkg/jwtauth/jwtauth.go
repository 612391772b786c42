package jwtauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Leopold1975/staff_control/internal/staff/domain/models"
	"github.com/golang-jwt/jwt"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.StandardClaims
}

func GetToken(u models.User, ttl time.Duration, secret string) (string, error) {
	claims := Claims{
		Username: u.Username,
		Roles:    u.Roles,
		StandardClaims: jwt.StandardClaims{ //nolint:exhaustruct
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(ttl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token error: %w", err)
	}

	return signed, nil
}

func ValidateToken(tokenString, secret string) (Claims, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v error: %w", t.Header["alg"], ErrInvalidToken)
		}

		return []byte(secret), nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("parse token error: %w", err)
	}

	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
