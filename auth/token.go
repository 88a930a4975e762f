package auth

import (
	"devconnect/domain/chat"
	"devconnect/errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "devconnect"

// Claims binds a token to one marketplace address.
// Tokens are issued by the account service; this package only verifies them.
type Claims struct {
	ActorKind chat.ActorKind `json:"actor_kind"`
	ActorID   string         `json:"actor_id"`
	jwt.RegisteredClaims
}

func (c Claims) Address() chat.Address {
	return chat.NewAddress(c.ActorKind, c.ActorID)
}

// GenerateToken signs an HS256 token for address.
func GenerateToken(secret []byte, address chat.Address, duration time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		ActorKind: address.Kind,
		ActorID:   address.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ValidateToken checks the signature and the expiration of tokenString and
// returns the address it was issued for.
func ValidateToken(secret []byte, tokenString string) (chat.Address, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return chat.Address{}, fmt.Errorf("%w: %v", errors.ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return chat.Address{}, fmt.Errorf("%w: %v", errors.ErrUnauthorized, jwt.ErrSignatureInvalid)
	}
	address := claims.Address()
	if err = chat.ValidateAddress(address); err != nil {
		return chat.Address{}, fmt.Errorf("%w: %v", errors.ErrUnauthorized, err)
	}
	return address, nil
}
