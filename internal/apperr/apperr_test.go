package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := NotFound("store.get_item", "item", "abc")
	wrapped := fmt.Errorf("loading item: %w", err)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrTransient))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, "abc", err.Meta["id"])
}

func TestUnwrapKeepsCause(t *testing.T) {
	err := Wrap(KindTransient, "store.begin", "store unavailable", context.DeadlineExceeded)

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, Retryable(err))
	assert.Contains(t, err.Error(), "store.begin: store unavailable")
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
	assert.False(t, Retryable(errors.New("boom")))
	assert.False(t, Retryable(Conflict("op", "already open")))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindValidationFailed, http.StatusBadRequest},
		{KindConflictAlreadyOpen, http.StatusConflict},
		{KindIntegrityWarning, http.StatusOK},
		{KindTransient, http.StatusServiceUnavailable},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.kind), "kind %q", tt.kind)
	}
}
