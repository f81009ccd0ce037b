package fault

import (
	"context"
	"errors"
	"fmt"
	"net"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindInvalidInput
	KindRateLimited
	KindTimeout
	KindStorage
	KindRetrieval
	KindEmbedding
	KindUnavailable
	KindUnauthorized
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindInvalidInput:
		return "invalid_input"
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	case KindStorage:
		return "storage"
	case KindRetrieval:
		return "retrieval"
	case KindEmbedding:
		return "embedding"
	case KindUnavailable:
		return "unavailable"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error carries a classified failure from a collaborator. Op names the
// operation that failed, e.g. "generator.openai.Generate".
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches kind to err. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind of the outermost classified error in the chain.
// Unclassified deadline and network timeout errors report KindTimeout.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}

	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Retryable reports whether a failure of this kind may succeed on a later attempt.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindUnavailable:
		return true
	default:
		return false
	}
}

// FromHTTPStatus maps a provider HTTP status code to a kind.
func FromHTTPStatus(code int) Kind {
	switch {
	case code == 401 || code == 403:
		return KindUnauthorized
	case code == 408:
		return KindTimeout
	case code == 429:
		return KindRateLimited
	case code >= 500:
		return KindUnavailable
	case code >= 400:
		return KindInvalidInput
	default:
		return KindUnknown
	}
}
