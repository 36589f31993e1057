package utils

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gobag/gobag-backend/internal/models"
)

const TokenLifetime = time.Hour * 24 * 7

var jwtSecret []byte

// InitJWT fixes the signing secret for the process; cmd/api calls it
// with the configured value. Tests that skip it fall back to the
// JWT_SECRET environment variable.
func InitJWT(secret string) {
	jwtSecret = []byte(secret)
}

func signingKey() []byte {
	if len(jwtSecret) > 0 {
		return jwtSecret
	}
	return []byte(os.Getenv("JWT_SECRET"))
}

func GenerateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"id":    user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"exp":   time.Now().Add(TokenLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey())
}

func ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return signingKey(), nil
	})
}

// TokenExpiry returns the remaining lifetime of a token, used to size
// the logout blacklist TTL. Expired or unreadable tokens yield zero.
func TokenExpiry(tokenString string) time.Duration {
	token, err := ValidateToken(tokenString)
	if err != nil || !token.Valid {
		return 0
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return 0
	}
	remaining := time.Until(time.Unix(int64(exp), 0))
	if remaining < 0 {
		return 0
	}
	return remaining
}
