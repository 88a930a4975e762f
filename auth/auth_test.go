package auth

import (
	"devconnect/domain/chat"
	"devconnect/errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestValidateToken(t *testing.T) {
	developer := chat.NewAddress(chat.Developer, "7")

	t.Run("should return the address of a valid token", func(t *testing.T) {
		req := require.New(t)
		token, err := GenerateToken(secret, developer, time.Hour)
		req.NoError(err)

		address, err := ValidateToken(secret, token)
		req.NoError(err)
		req.Equal(developer, address)
	})

	t.Run("should fail with another secret", func(t *testing.T) {
		req := require.New(t)
		token, err := GenerateToken([]byte("other"), developer, time.Hour)
		req.NoError(err)

		_, err = ValidateToken(secret, token)
		req.ErrorIs(err, errors.ErrUnauthorized)
	})

	t.Run("should fail when expired", func(t *testing.T) {
		req := require.New(t)
		token, err := GenerateToken(secret, developer, -time.Minute)
		req.NoError(err)

		_, err = ValidateToken(secret, token)
		req.ErrorIs(err, errors.ErrUnauthorized)
	})

	t.Run("should fail when the claims are not an address", func(t *testing.T) {
		req := require.New(t)
		token, err := GenerateToken(secret, chat.NewAddress("admin", "1"), time.Hour)
		req.NoError(err)

		_, err = ValidateToken(secret, token)
		req.ErrorIs(err, errors.ErrUnauthorized)
	})

	t.Run("should fail with garbage", func(t *testing.T) {
		_, err := ValidateToken(secret, "invalid-token-string")
		require.ErrorIs(t, err, errors.ErrUnauthorized)
	})
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	developer := chat.NewAddress(chat.Developer, "7")
	token, err := GenerateToken(secret, developer, time.Hour)
	require.NoError(t, err)

	newEngine := func(secret []byte) *gin.Engine {
		engine := gin.New()
		engine.GET("/ws", Middleware(secret), func(c *gin.Context) {
			address, ok := AddressFrom(c.Request.Context())
			if !ok {
				c.String(http.StatusOK, "anonymous")
				return
			}
			c.String(http.StatusOK, address.String())
		})
		return engine
	}

	cases := []struct {
		name   string
		secret []byte
		url    string
		header string
		status int
		body   string
	}{
		{"disabled without secret", nil, "/ws", "", http.StatusOK, "anonymous"},
		{"missing token", secret, "/ws", "", http.StatusUnauthorized, ""},
		{"bearer header", secret, "/ws", "Bearer " + token, http.StatusOK, "developer/7"},
		{"query parameter", secret, "/ws?token=" + token, "", http.StatusOK, "developer/7"},
		{"invalid token", secret, "/ws?token=nope", "", http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			request := httptest.NewRequest(http.MethodGet, tc.url, nil)
			if tc.header != "" {
				request.Header.Set("Authorization", tc.header)
			}
			recorder := httptest.NewRecorder()

			newEngine(tc.secret).ServeHTTP(recorder, request)

			req.Equal(tc.status, recorder.Code)
			if tc.body != "" {
				req.Equal(tc.body, recorder.Body.String())
			}
		})
	}
}
