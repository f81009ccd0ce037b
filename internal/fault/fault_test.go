package fault

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("boom"), KindUnknown},
		{"classified", New(KindRateLimited, "op", "quota"), KindRateLimited},
		{"wrapped classified", fmt.Errorf("outer: %w", Wrap(KindStorage, "op", errors.New("down"))), KindStorage},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), KindTimeout},
		{"net timeout", timeoutErr{}, KindTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(KindStorage, "op", nil))
}

func TestErrorUnwrap(t *testing.T) {
	base := errors.New("connection refused")
	err := Wrap(KindUnavailable, "generator.openai.Generate", base)

	require.ErrorIs(t, err, base)
	assert.Equal(t, "generator.openai.Generate: unavailable: connection refused", err.Error())
	assert.True(t, Retryable(err))
	assert.False(t, Retryable(Wrap(KindUnauthorized, "op", base)))
}

func TestFromHTTPStatus(t *testing.T) {
	assert.Equal(t, KindUnauthorized, FromHTTPStatus(401))
	assert.Equal(t, KindUnauthorized, FromHTTPStatus(403))
	assert.Equal(t, KindTimeout, FromHTTPStatus(408))
	assert.Equal(t, KindRateLimited, FromHTTPStatus(429))
	assert.Equal(t, KindUnavailable, FromHTTPStatus(503))
	assert.Equal(t, KindInvalidInput, FromHTTPStatus(422))
	assert.Equal(t, KindUnknown, FromHTTPStatus(200))
}
