package auth

import (
	"context"
	"devconnect/domain/chat"
	"devconnect/errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type contextKey string

const addressKey contextKey = "address"

// Middleware rejects requests without a valid token and injects the token's
// address into the request context. An empty secret disables the check.
// Browsers cannot set headers on a websocket upgrade, so the token may also
// come from the "token" query parameter.
func Middleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(secret) == 0 {
			c.Next()
			return
		}
		tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    errors.Code(errors.ErrUnauthorized),
				"message": "authorization token is missing",
			})
			return
		}
		address, err := ValidateToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    errors.Code(err),
				"message": "invalid or expired token",
			})
			return
		}
		c.Request = c.Request.WithContext(WithAddress(c.Request.Context(), address))
		c.Next()
	}
}

func WithAddress(ctx context.Context, address chat.Address) context.Context {
	return context.WithValue(ctx, addressKey, address)
}

// AddressFrom returns the authenticated address, if any.
func AddressFrom(ctx context.Context) (chat.Address, bool) {
	address, ok := ctx.Value(addressKey).(chat.Address)
	return address, ok
}
