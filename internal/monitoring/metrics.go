package monitoring

import (
	"sync"
	"time"

	"github.com/tr1v3r/pkg/log"
)

// Metrics tracks basic application metrics
type Metrics struct {
	mu sync.RWMutex

	// HTTP metrics
	HTTPRequestsTotal    int64
	HTTPRequestsByMethod map[string]int64
	HTTPRequestDuration  time.Duration

	// Engine control metrics
	CommandsTotal        int64
	CommandTimeoutsTotal int64
	EngineErrorsTotal    int64
	EventsDispatched     int64

	// Render metrics
	FramesEmitted int64
	FramesDropped int64

	startTime time.Time
}

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			HTTPRequestsByMethod: make(map[string]int64),
			startTime:            time.Now(),
		}
	})
	return globalMetrics
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.HTTPRequestsTotal++
	m.HTTPRequestsByMethod[method]++
	m.HTTPRequestDuration += duration
}

// RecordCommand records a command written to the engine
func (m *Metrics) RecordCommand() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CommandsTotal++
}

// RecordCommandTimeout records a command that got no reply in time
func (m *Metrics) RecordCommandTimeout() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CommandTimeoutsTotal++
}

// RecordEngineError records an engine-reported command failure
func (m *Metrics) RecordEngineError() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EngineErrorsTotal++
}

// RecordEventDispatched records a property-change event forwarded to the sink
func (m *Metrics) RecordEventDispatched() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EventsDispatched++
}

// RecordFrameEmitted records a frame delivered to the hosting application
func (m *Metrics) RecordFrameEmitted() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FramesEmitted++
}

// RecordFrameDropped records a frame lost to a slow consumer
func (m *Metrics) RecordFrameDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FramesDropped++
}

// GetUptime returns the application uptime
func (m *Metrics) GetUptime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return time.Since(m.startTime)
}

// LogMetrics logs current metrics
func (m *Metrics) LogMetrics() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	log.Info("Application metrics uptime=%s http_requests_total=%d commands_total=%d command_timeouts_total=%d engine_errors_total=%d events_dispatched=%d frames_emitted=%d frames_dropped=%d",
		time.Since(m.startTime).String(),
		m.HTTPRequestsTotal,
		m.CommandsTotal,
		m.CommandTimeoutsTotal,
		m.EngineErrorsTotal,
		m.EventsDispatched,
		m.FramesEmitted,
		m.FramesDropped)
}
