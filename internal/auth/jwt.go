package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "foodvlog"

// Claims carry the identity context of a marketplace actor. Tokens are
// issued by the auth platform; GenerateJWT exists for tooling and tests.
type Claims struct {
	ActorID uuid.UUID `json:"actor_id"`
	Role    string    `json:"role"`
	jwt.RegisteredClaims
}

// GenerateJWT signs a token for actorID. A non-positive expiration means 24h.
func GenerateJWT(secret string, actorID uuid.UUID, role string, expiration time.Duration) (string, error) {
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}

	now := time.Now()
	claims := Claims{
		ActorID: actorID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(secret string, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.ActorID == uuid.Nil {
		return nil, errors.New("token has no actor id")
	}
	return claims, nil
}
