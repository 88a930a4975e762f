package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapToHTTPStatus(t *testing.T) {
	req := require.New(t)

	req.Equal(http.StatusOK, MapToHTTPStatus(nil))
	req.Equal(http.StatusBadRequest, MapToHTTPStatus(fmt.Errorf("%w: empty body", ErrValidation)))
	req.Equal(http.StatusNotFound, MapToHTTPStatus(fmt.Errorf("%w: notification 42", ErrNotFound)))
	req.Equal(http.StatusUnauthorized, MapToHTTPStatus(ErrUnauthorized))
	req.Equal(http.StatusTooManyRequests, MapToHTTPStatus(ErrRateLimited))
	req.Equal(http.StatusInternalServerError, MapToHTTPStatus(fmt.Errorf("%w: disk full", ErrPersistence)))
	req.Equal(http.StatusInternalServerError, MapToHTTPStatus(fmt.Errorf("boom")))
}

func TestCode(t *testing.T) {
	req := require.New(t)

	req.Equal("validation", Code(fmt.Errorf("wrapped: %w", ErrValidation)))
	req.Equal("persistence", Code(ErrPersistence))
	req.Equal("internal", Code(fmt.Errorf("boom")))
}
