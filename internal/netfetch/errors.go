package netfetch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrTimeout matches any Error caused by a deadline.
var ErrTimeout = errors.New("request timed out")

// Error describes a failed network operation.
type Error struct {
	Op      string // "get", "post", "download"
	URL     string
	Status  int // HTTP status when the server answered
	Timeout bool
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s %s: timed out", e.Op, e.URL)
	case e.Status != 0 && e.Err == nil:
		return fmt.Sprintf("%s %s: http status %d", e.Op, e.URL, e.Status)
	default:
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrTimeout) match timed out requests.
func (e *Error) Is(target error) bool {
	return target == ErrTimeout && e.Timeout
}

// IsTimeout reports whether err was caused by a deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func wrap(op, url string, err error) *Error {
	return &Error{Op: op, URL: url, Timeout: isTimeout(err), Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
