// Package player supervises the external mpv process: it spawns the binary,
// establishes the control transport, wires the protocol client and event
// reader, and exposes the playback operations the hosting application
// invokes.
package player

// Result is the uniform shape every command-issuing operation returns. No
// operation panics or aborts the host on engine failure.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func OK() Result { return Result{Success: true} }

func Err(msg string) Result { return Result{Error: msg} }

// Status is a playback snapshot derived by polling each engine property
// independently. It is not atomic across fields; a property that fails to
// read falls back to its default.
type Status struct {
	Playing  bool    `json:"playing"`
	Volume   float64 `json:"volume"`
	Muted    bool    `json:"muted"`
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
}

// DefaultStatus is what callers see when no engine is running or every
// property read fails.
func DefaultStatus() Status {
	return Status{Volume: 100.0}
}

// Controller is the playback surface exposed to the hosting application.
type Controller interface {
	Load(url string) Result
	Play() Result
	Pause() Result
	TogglePause() Result
	Stop() Result
	SetVolume(volume float64) Result
	ToggleMute() Result
	Seek(seconds float64) Result
	Status() Status
}

// Notifier receives supervisor lifecycle signals for the hosting
// application's event bus.
type Notifier interface {
	// Ready signals that initialization completed.
	Ready()
	// PropertyChange signals that some observed property changed; the host
	// should re-query status. Deliberately coalesced, not per-field.
	PropertyChange()
}
