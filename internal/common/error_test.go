package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := NewError(KindUnauthorized, "invalid refresh token")

	assert.True(t, errors.Is(err, ErrorUnauthorized))
	assert.False(t, errors.Is(err, ErrorNoSuchEntity))

	wrapped := fmt.Errorf("handler: %w", err)
	assert.True(t, errors.Is(wrapped, ErrorUnauthorized))
}

func TestError_UnwrapKeepsCause(t *testing.T) {
	cause := errors.New("db down")
	err := WrapError(KindInternal, "internal error", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrorInternal))
	assert.Equal(t, "internal error: db down", err.Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NewError(KindNotFound, "user not found")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("x: %w", NewError(KindConflict, "dup"))))
}

func TestKind_StatusCode(t *testing.T) {
	tests := map[Kind]int{
		KindInvalidInput: http.StatusBadRequest,
		KindUnauthorized: http.StatusUnauthorized,
		KindNotFound:     http.StatusNotFound,
		KindConflict:     http.StatusConflict,
		KindInternal:     http.StatusInternalServerError,
	}
	for k, want := range tests {
		assert.Equal(t, want, k.StatusCode(), k.String())
	}
}

func TestError_MessageFallsBackToKind(t *testing.T) {
	assert.Equal(t, "unauthorized", (&Error{Kind: KindUnauthorized}).Error())
}
