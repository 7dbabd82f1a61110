package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound signals "no data" from a node: zero candidates, no sidecar,
// no matching asset. It moves the chain on without being reported as a failure.
var ErrNotFound = errors.New("not found")

// Status is the result of one node attempt.
type Status int

const (
	StatusApplied Status = iota + 1
	StatusNotFound
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusNotFound:
		return "not_found"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func classify(err error) Status {
	switch {
	case err == nil:
		return StatusApplied
	case errors.Is(err, context.Canceled):
		return StatusCancelled
	case errors.Is(err, ErrNotFound):
		return StatusNotFound
	default:
		return StatusFailed
	}
}

// Attempt records what one node did.
type Attempt struct {
	Node   string
	Status Status
	Err    error
}

// Outcome is the result of running a whole chain.
type Outcome struct {
	Applied  bool
	Node     string // node that applied, when Applied
	Path     string // resolved asset file, for asset chains
	Attempts []Attempt
	Err      error // last diagnostic when the chain is exhausted
}

// Exhausted reports that every node was tried and none applied.
func (o Outcome) Exhausted() bool {
	return !o.Applied && !o.Cancelled()
}

// Cancelled reports whether the chain stopped on a cancellation signal.
func (o Outcome) Cancelled() bool {
	return len(o.Attempts) > 0 && o.Attempts[len(o.Attempts)-1].Status == StatusCancelled
}

// ConfigProblem is one offending configuration item.
type ConfigProblem struct {
	Item   string
	Reason string
}

// ConfigError is returned by ChainBuilder before any network activity when
// the configuration cannot produce working chains.
type ConfigError struct {
	Problems []ConfigProblem
}

func (e *ConfigError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, fmt.Sprintf("%s: %s", p.Item, p.Reason))
	}
	return fmt.Sprintf("invalid scraper configuration (%d problems): %s", len(e.Problems), strings.Join(parts, "; "))
}

func (e *ConfigError) add(item, reason string, args ...any) {
	e.Problems = append(e.Problems, ConfigProblem{Item: item, Reason: fmt.Sprintf(reason, args...)})
}

func (e *ConfigError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}
