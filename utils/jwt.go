package utils

import (
	"errors"
	"time"

	"tutorly/config"

	"github.com/golang-jwt/jwt"
)

// Roles carried in the "role" claim.
const (
	RoleStudent  = "student"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is what a dashboard token identifies.
type Claims struct {
	Subject string
	Role    string
}

func secretKey() []byte {
	return []byte(config.AppConfig.JWTSecret)
}

// GenerateToken creates a signed HS256 token for subject with the given role.
func GenerateToken(subject, role string, duration time.Duration) (string, error) {
	if len(secretKey()) == 0 {
		return "", errors.New("JWT_SECRET is not configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	if len(secretKey()) == 0 {
		return nil, errors.New("JWT_SECRET is not configured")
	}
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey(), nil
	})
}

// ParseClaims validates tokenString and extracts its subject and role.
func ParseClaims(tokenString string) (*Claims, error) {
	token, err := ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, errors.New("token does not contain a valid 'sub' claim")
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = RoleStudent
	}
	return &Claims{Subject: sub, Role: role}, nil
}
