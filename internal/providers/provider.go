package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/vukan322/devactivity/internal/core"
)

// EventFeed is a paginated source of raw activity records.
type EventFeed interface {
	Name() string
	FetchEvents(ctx context.Context, handle string) ([]core.ActivityRecord, error)
}

// SnapshotSource yields a pre-computed contribution map.
type SnapshotSource interface {
	Name() string
	Load(ctx context.Context) (core.Snapshot, error)
}

type FailureKind int

const (
	FailureTransport FailureKind = iota
	FailureStatus
	FailureRateLimited
	FailureShape
	FailureCanceled
)

func (k FailureKind) String() string {
	switch k {
	case FailureTransport:
		return "transport"
	case FailureStatus:
		return "status"
	case FailureRateLimited:
		return "rate_limited"
	case FailureShape:
		return "shape"
	case FailureCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// FetchFailure describes why a source produced no (or partial) data.
type FetchFailure struct {
	Source string
	Kind   FailureKind
	Status int
	Err    error
}

func (f *FetchFailure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", f.Source, f.Kind, f.Status, f.Err)
	}
	return fmt.Sprintf("%s: %s: %v", f.Source, f.Kind, f.Err)
}

func (f *FetchFailure) Unwrap() error {
	return f.Err
}

// Transport classifies an error returned by an HTTP round trip or a read,
// reporting context cancellation separately.
func Transport(source string, err error) *FetchFailure {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &FetchFailure{Source: source, Kind: FailureCanceled, Err: err}
	}
	return &FetchFailure{Source: source, Kind: FailureTransport, Err: err}
}

// Status classifies a non-2xx response. 403 and 429 are rate-limit signals.
func Status(source string, code int, endpoint string) *FetchFailure {
	kind := FailureStatus
	if code == http.StatusForbidden || code == http.StatusTooManyRequests {
		kind = FailureRateLimited
	}
	return &FetchFailure{
		Source: source,
		Kind:   kind,
		Status: code,
		Err:    fmt.Errorf("unexpected status %d from %s", code, endpoint),
	}
}

func Shape(source string, err error) *FetchFailure {
	return &FetchFailure{Source: source, Kind: FailureShape, Err: err}
}

// KindOf reports the failure kind carried by err, if any.
func KindOf(err error) (FailureKind, bool) {
	var f *FetchFailure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return 0, false
}
