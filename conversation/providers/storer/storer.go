package storer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidSession marks a session id the backing store cannot key on.
// Retrying such a call cannot succeed.
var ErrInvalidSession = errors.New("invalid session id")

type Storer interface {
	Append(ctx context.Context, rec Record) error
	List(ctx context.Context, sessionId string) ([]Record, error)
	Ping(ctx context.Context) error
}

// ValidateSessionId requires a well-formed UUID.
func ValidateSessionId(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidSession, id)
	}
	return nil
}
