// Package transport provides the local interprocess byte stream connecting
// the bridge to the engine process: a unix domain socket on POSIX systems,
// a named pipe on Windows. Messages on it are newline-delimited JSON.
package transport

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tr1v3r/pkg/log"
)

// ConnectError reports that the engine's endpoint never became connectable
// within the dial budget.
type ConnectError struct {
	Endpoint string
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to %s failed: %v", e.Endpoint, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// Transport is a connected duplex stream to the engine process. The write
// half is shared by command issuers behind the protocol client's lock; the
// read half belongs to the event reader alone.
type Transport interface {
	io.ReadWriteCloser

	// Endpoint returns the platform endpoint name this transport is bound to.
	Endpoint() string

	// Remove deletes the endpoint's filesystem artifact, where one exists.
	Remove() error
}

// DialRetry connects to the endpoint with exponential backoff until the
// budget is spent. The engine creates the endpoint some time after it is
// spawned, so the first attempts routinely fail on slow machines.
func DialRetry(ctx context.Context, endpoint string, budget time.Duration) (Transport, error) {
	deadline := time.Now().Add(budget)
	delay := 50 * time.Millisecond

	var lastErr error
	for attempt := 1; ; attempt++ {
		t, err := Dial(endpoint)
		if err == nil {
			log.Debug("transport connected endpoint=%s attempt=%d", endpoint, attempt)
			return t, nil
		}
		lastErr = err

		if time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return nil, &ConnectError{Endpoint: endpoint, Err: ctx.Err()}
		case <-time.After(delay):
		}
		if delay *= 2; delay > 800*time.Millisecond {
			delay = 800 * time.Millisecond
		}
	}
	return nil, &ConnectError{Endpoint: endpoint, Err: lastErr}
}
