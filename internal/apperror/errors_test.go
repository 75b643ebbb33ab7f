package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("place order: %w", ErrInsufficientStock)

	assert.Equal(t, KindInsufficientStock, KindOf(wrapped))
	assert.Equal(t, KindValidation, KindOf(Validation("bad")))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.True(t, errors.Is(wrapped, ErrInsufficientStock))
	assert.False(t, errors.Is(NotFound("Product not found"), ErrInsufficientStock))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:             http.StatusBadRequest,
		KindConflict:               http.StatusBadRequest,
		KindInsufficientStock:      http.StatusBadRequest,
		KindNotFound:               http.StatusNotFound,
		KindNotFoundOrUnauthorized: http.StatusNotFound,
		KindUnauthorized:           http.StatusUnauthorized,
		KindInternal:               http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.HTTPStatus(), kind.String())
	}
}

func TestMessageOfHidesInternalDetails(t *testing.T) {
	assert.Equal(t, "Email already exists", MessageOf(Conflict("Email already exists")))
	assert.Equal(t, "Server error", MessageOf(Internal("query failed", errors.New("connection reset"))))
	assert.Equal(t, "Server error", MessageOf(errors.New("raw")))
}

func TestInternalUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("query failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "query failed: connection reset", err.Error())
}
