package utils

import (
	"Next_Express/config"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Subject string `json:"sub_name"`
	jwt.RegisteredClaims
}

// BlobClaims grant read access to one object until they expire.
type BlobClaims struct {
	Bucket string `json:"bkt"`
	Key    string `json:"key"`
	jwt.RegisteredClaims
}

// GenerateToken creates a bearer JWT for API clients.
func GenerateToken(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.SessionSecret))
}

// VerifyToken parses and validates a bearer JWT.
func VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, hmacKey([]byte(config.AppConfig.SessionSecret)))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SignBlobToken signs a download capability for bucket/key.
func SignBlobToken(secret []byte, bucket, key string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := BlobClaims{
		Bucket: bucket,
		Key:    key,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseBlobToken validates a download capability.
func ParseBlobToken(secret []byte, tokenString string) (*BlobClaims, error) {
	claims := &BlobClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, hmacKey(secret))
	if err != nil || !token.Valid || claims.Key == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func hmacKey(secret []byte) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}
}
