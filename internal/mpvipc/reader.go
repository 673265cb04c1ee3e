package mpvipc

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/tr1v3r/pkg/log"

	"github.com/tr1v3r/mpvbridge/internal/monitoring"
)

// EventSink receives property-change events from the read loop.
type EventSink func(Event)

// ReadLoop consumes the transport's read half line by line, routing replies
// into the pending table and property-change events to the sink. It blocks
// until the stream closes; killing the engine process is what unblocks it.
// There is no reconnection — that is the supervisor's job on the next
// initialization.
func (c *Client) ReadLoop(r io.Reader, sink EventSink) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var ev Event
		if err := json.Unmarshal(line, &ev); err == nil && ev.Event != "" {
			if ev.Event == EventPropertyChange && sink != nil {
				monitoring.GetMetrics().RecordEventDispatched()
				sink(ev)
			}
			continue
		}

		var reply Reply
		if err := json.Unmarshal(line, &reply); err == nil {
			c.handleReply(reply)
			continue
		}
		// Malformed line; drop it.
		log.Debug("dropping unparseable ipc line: %q", string(line))
	}

	if err := scanner.Err(); err != nil {
		log.Error("ipc read error: %v", err)
	}
	log.Info("ipc reader exiting")
}
