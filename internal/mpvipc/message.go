package mpvipc

// docs: https://mpv.io/manual/stable/#json-ipc

// Request is one outbound command line. Arguments travel as strings; the
// engine coerces them itself.
type Request struct {
	Command []string `json:"command"`

	RequestID int64 `json:"request_id"`
}

// Reply answers a specific request id. Error "success" denotes success; any
// other value is the engine's failure string, passed through verbatim.
type Reply struct {
	Error     string `json:"error"`
	Data      any    `json:"data,omitempty"`
	RequestID int64  `json:"request_id,omitempty"`
}

// Event is an unsolicited inbound message. Only property-change events are
// acted upon; everything else is ignored by the reader.
type Event struct {
	Event string `json:"event"`
	Name  string `json:"name,omitempty"`
	Data  any    `json:"data,omitempty"`
	ID    int64  `json:"id,omitempty"`
}

const replySuccess = "success"

// OK reports whether the engine accepted the request.
func (r Reply) OK() bool { return r.Error == replySuccess }

// EventPropertyChange is the only event kind the reader forwards.
const EventPropertyChange = "property-change"
