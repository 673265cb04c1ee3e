// Package mpvipc implements the engine's line-oriented JSON control protocol:
// request/response correlation over a shared write half, plus demultiplexing
// of asynchronous events on the read half.
package mpvipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tr1v3r/pkg/log"

	"github.com/tr1v3r/mpvbridge/internal/monitoring"
)

// DefaultTimeout bounds how long SendCommand waits for the engine's reply.
const DefaultTimeout = 5 * time.Second

// staleFactor: pending entries abandoned by timeout are swept once they are
// this many timeouts old.
const staleFactor = 3

// ErrCommandTimeout is returned when no reply arrives within the timeout.
// The pending entry is left behind; a late reply removes it silently.
var ErrCommandTimeout = errors.New("command timeout")

// EngineError carries an engine-reported failure string verbatim.
type EngineError struct {
	Message string
}

func (e *EngineError) Error() string { return e.Message }

type pendingReply struct {
	ch      chan Reply
	created time.Time
}

// Client serializes commands onto the transport's write half and correlates
// replies by request id. Safe for concurrent use; writes never interleave.
type Client struct {
	nextID  atomic.Int64
	timeout time.Duration

	wmu sync.Mutex // one complete write (serialize + write + flush) at a time
	w   io.Writer

	pmu     sync.Mutex
	pending map[int64]*pendingReply
}

// NewClient wraps the transport's write half. A non-positive timeout selects
// the default; the same value bounds SendCommand and paces the sweeper.
func NewClient(w io.Writer, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		timeout: timeout,
		w:       w,
		pending: make(map[int64]*pendingReply),
	}
}

// SendCommand writes one command and blocks for the matching reply, up to
// the timeout. Ids are monotonic and never reused while outstanding.
func (c *Client) SendCommand(args ...string) (Reply, error) {
	id := c.nextID.Add(1)

	ch := make(chan Reply, 1)
	c.pmu.Lock()
	c.pending[id] = &pendingReply{ch: ch, created: time.Now()}
	c.pmu.Unlock()

	if err := c.write(Request{Command: args, RequestID: id}); err != nil {
		c.pmu.Lock()
		delete(c.pending, id)
		c.pmu.Unlock()
		return Reply{}, err
	}
	monitoring.GetMetrics().RecordCommand()

	select {
	case reply := <-ch:
		return reply, nil
	case <-time.After(c.timeout):
		// Entry stays behind: a late reply removes it, the sweeper catches
		// the rest.
		monitoring.GetMetrics().RecordCommandTimeout()
		return Reply{}, ErrCommandTimeout
	}
}

// SendCommandAsync writes one command without awaiting a reply. Used for
// engine shutdown and property observation, where no acknowledgement is
// needed.
func (c *Client) SendCommandAsync(args ...string) error {
	id := c.nextID.Add(1)
	if err := c.write(Request{Command: args, RequestID: id}); err != nil {
		return err
	}
	monitoring.GetMetrics().RecordCommand()
	return nil
}

// GetProperty fetches a property value, unwrapping the reply's data field.
func (c *Client) GetProperty(name string) (any, error) {
	reply, err := c.SendCommand("get_property", name)
	if err != nil {
		return nil, err
	}
	if reply.Error != replySuccess {
		monitoring.GetMetrics().RecordEngineError()
		return nil, &EngineError{Message: reply.Error}
	}
	return reply.Data, nil
}

// SetProperty assigns a property value. The engine clamps ranges itself.
func (c *Client) SetProperty(name, value string) error {
	reply, err := c.SendCommand("set_property", name, value)
	if err != nil {
		return err
	}
	if reply.Error != replySuccess {
		monitoring.GetMetrics().RecordEngineError()
		return &EngineError{Message: reply.Error}
	}
	return nil
}

// ObserveProperty registers interest in property-change events for the
// id/name pair. Fire-and-forget: the caller does not need acknowledgement.
func (c *Client) ObserveProperty(id int64, name string) error {
	return c.SendCommandAsync("observe_property", fmt.Sprintf("%d", id), name)
}

func (c *Client) write(req Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	data = append(data, '\n')

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.w.Write(data); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

// handleReply fulfills the matching pending entry exactly once; removal is
// atomic with fulfillment. Replies with no matching entry are dropped, which
// covers a late reply racing a caller-side timeout.
func (c *Client) handleReply(reply Reply) {
	if reply.RequestID == 0 {
		return
	}
	c.pmu.Lock()
	entry, ok := c.pending[reply.RequestID]
	if ok {
		delete(c.pending, reply.RequestID)
	}
	c.pmu.Unlock()
	if ok {
		entry.ch <- reply
	}
}

// SweepStale evicts pending entries older than the cutoff. Entries abandoned
// by timed-out callers would otherwise accumulate without bound under
// sustained timeouts.
func (c *Client) SweepStale(olderThan time.Duration) int {
	cutoff := time.Now().Add(-olderThan)
	c.pmu.Lock()
	defer c.pmu.Unlock()

	n := 0
	for id, entry := range c.pending {
		if entry.created.Before(cutoff) {
			delete(c.pending, id)
			n++
		}
	}
	return n
}

// StartSweeper runs the stale-entry sweep periodically until stop is closed.
func (c *Client) StartSweeper(stop <-chan struct{}) {
	ticker := time.NewTicker(c.timeout)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n := c.SweepStale(staleFactor * c.timeout); n > 0 {
				log.Debug("swept %d stale pending replies", n)
			}
		}
	}
}

func (c *Client) pendingCount() int {
	c.pmu.Lock()
	defer c.pmu.Unlock()
	return len(c.pending)
}
