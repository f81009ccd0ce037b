package generator

import (
	"context"
	"errors"
	"net"

	"github.com/w-h-a/tutor/internal/fault"
)

// Classify maps transport-level failures shared by every provider: deadlines
// become Timeout, other network errors become Unavailable. Anything else is
// wrapped as Unknown.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fault.Wrap(fault.KindTimeout, op, err)
	}

	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return fault.Wrap(fault.KindTimeout, op, err)
		}
		return fault.Wrap(fault.KindUnavailable, op, err)
	}

	return fault.Wrap(fault.KindUnknown, op, err)
}
