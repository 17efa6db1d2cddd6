package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestGenerateAndParseJWT(t *testing.T) {
	actorID := uuid.New()
	token, err := GenerateJWT("secret", actorID, "vendor", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT("secret", token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.ActorID != actorID {
		t.Errorf("ActorID = %s, want %s", claims.ActorID, actorID)
	}
	if claims.Role != "vendor" {
		t.Errorf("Role = %q, want vendor", claims.Role)
	}
}

func TestParseJWTRejects(t *testing.T) {
	valid, _ := GenerateJWT("secret", uuid.New(), "admin", time.Hour)
	expiredToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ActorID: uuid.New(),
		Role:    "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	expired, _ := expiredToken.SignedString([]byte("secret"))

	noneToken := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ActorID: uuid.New(), Role: "admin"})
	unsigned, _ := noneToken.SignedString(jwt.UnsafeAllowNoneSignatureType)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ActorID: uuid.New(),
		Role:    "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	foreignSigned, _ := foreign.SignedString([]byte("secret"))

	noActor := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	noActorSigned, _ := noActor.SignedString([]byte("secret"))

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"wrong secret", "other", valid},
		{"expired", "secret", expired},
		{"alg none", "secret", unsigned},
		{"foreign issuer", "secret", foreignSigned},
		{"missing actor", "secret", noActorSigned},
		{"garbage", "secret", "not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseJWT(tt.secret, tt.token); err == nil {
				t.Error("expected error")
			}
		})
	}
}
