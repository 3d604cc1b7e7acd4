package utils

import (
	"fmt"
	"sync"
	"time"

	"nearme/api/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the owner identity and the business whose analytics the
// token grants access to.
type Claims struct {
	UserID     int    `json:"user_id"`
	Email      string `json:"email"`
	BusinessID string `json:"business_id"`
	jwt.RegisteredClaims
}

const tokenIssuer = "nearme-api"

// TokenTTL is the lifetime of issued tokens.
const TokenTTL = 24 * time.Hour

var (
	secretMu  sync.RWMutex
	jwtSecret []byte
)

// SetJWTSecret installs the HMAC key used to sign and verify tokens.
func SetJWTSecret(secret string) {
	secretMu.Lock()
	defer secretMu.Unlock()
	jwtSecret = []byte(secret)
}

func signingKey() ([]byte, error) {
	secretMu.RLock()
	defer secretMu.RUnlock()
	if len(jwtSecret) == 0 {
		return nil, fmt.Errorf("JWT secret is not configured")
	}
	return jwtSecret, nil
}

// GenerateJWT generates a new JWT token for a given user.
func GenerateJWT(user *models.User) (string, error) {
	key, err := signingKey()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := &Claims{
		UserID:     user.ID,
		Email:      user.Email,
		BusinessID: user.BusinessID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprintf("%d", user.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT parses and validates a JWT token string.
func ValidateJWT(tokenString string) (*Claims, error) {
	key, err := signingKey()
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	}, jwt.WithIssuer(tokenIssuer))

	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	return claims, nil
}
