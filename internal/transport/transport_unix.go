//go:build !windows

package transport

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// Endpoint derives the socket path for this bridge instance. The name embeds
// the supervisor's pid so concurrent instances never collide.
func Endpoint(dir string, pid int) string {
	return filepath.Join(dir, fmt.Sprintf("mpvbridge-sock-%d", pid))
}

// Dial connects to the engine's unix domain socket.
func Dial(endpoint string) (Transport, error) {
	conn, err := net.Dial("unix", endpoint)
	if err != nil {
		return nil, err
	}
	return &unixTransport{Conn: conn, endpoint: endpoint}, nil
}

// RemoveStale deletes a leftover socket file from a previous run, if any.
func RemoveStale(endpoint string) {
	_ = os.Remove(endpoint)
}

type unixTransport struct {
	net.Conn
	endpoint string
}

func (t *unixTransport) Endpoint() string { return t.endpoint }

func (t *unixTransport) Remove() error {
	if err := os.Remove(t.endpoint); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing socket file: %w", err)
	}
	return nil
}
