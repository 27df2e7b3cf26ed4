package utils

import (
	"errors"
	"time"

	"concierge/config"

	"github.com/golang-jwt/jwt"
)

const devSecret = "concierge-dev-secret"

func secretKey() []byte {
	if config.AppConfig.JWTSecret == "" {
		return []byte(devSecret)
	}
	return []byte(config.AppConfig.JWTSecret)
}

// GenerateTenantToken creates a signed token that authorizes a chat transport to post on
// behalf of a tenant. The token expires after the given duration.
func GenerateTenantToken(tenantID string, duration time.Duration) (string, error) {
	if tenantID == "" {
		return "", errors.New("tenant id is required")
	}
	claims := jwt.MapClaims{
		"sub":  tenantID,
		"role": "tenant",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey(), nil
	})
}

// ExtractTenantID returns the tenant id (subject) of a valid tenant token.
func ExtractTenantID(tokenString string) (string, error) {
	token, err := ValidateToken(tokenString)
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}
	if role, _ := claims["role"].(string); role != "tenant" {
		return "", errors.New("token is not a tenant token")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("token does not contain a valid 'sub' claim")
	}
	return sub, nil
}
