//go:build windows

package transport

import (
	"fmt"
	"os"
)

// Endpoint derives the named-pipe path for this bridge instance. The dir
// argument is ignored; pipes live in the kernel namespace.
func Endpoint(_ string, pid int) string {
	return fmt.Sprintf(`\\.\pipe\mpvbridge-%d`, pid)
}

// Dial opens the engine's named pipe for duplex use. Named pipes accept a
// plain file open once the server end exists.
func Dial(endpoint string) (Transport, error) {
	f, err := os.OpenFile(endpoint, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &pipeTransport{File: f, endpoint: endpoint}, nil
}

// RemoveStale is a no-op: the pipe disappears with its server process.
func RemoveStale(string) {}

type pipeTransport struct {
	*os.File
	endpoint string
}

func (t *pipeTransport) Endpoint() string { return t.endpoint }

// Remove is a no-op: there is no filesystem artifact for a named pipe.
func (t *pipeTransport) Remove() error { return nil }
