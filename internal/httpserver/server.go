// Package httpserver exposes the bridge over HTTP: playback commands as
// JSON endpoints and the host event bus as an SSE stream.
package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/tr1v3r/pkg/log"

	"github.com/tr1v3r/mpvbridge/internal/host"
	"github.com/tr1v3r/mpvbridge/internal/monitoring"
	"github.com/tr1v3r/mpvbridge/internal/player"
	"github.com/tr1v3r/mpvbridge/internal/state"
)

func NewMux() *http.ServeMux {
	return http.NewServeMux()
}

func Register(mux *http.ServeMux, instanceUUID string, bridge *state.Bridge, hub *host.Hub) {
	mux.HandleFunc("POST /player/enable", func(w http.ResponseWriter, r *http.Request) {
		// Body is optional; a window id embeds the engine into the hosting
		// application's window on platforms that support it.
		var req struct {
			WindowID int64 `json:"window_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeResult(w, player.Err("invalid request body"))
			return
		}
		writeResult(w, bridge.Enable(r.Context(), req.WindowID))
	})
	mux.HandleFunc("POST /player/disable", func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, bridge.Disable())
	})

	mux.HandleFunc("POST /player/load", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL string `json:"url"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		if req.URL == "" {
			writeResult(w, player.Err("url required"))
			return
		}
		writeResult(w, bridge.Load(req.URL))
	})
	mux.HandleFunc("POST /player/play", func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, bridge.Play())
	})
	mux.HandleFunc("POST /player/pause", func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, bridge.Pause())
	})
	mux.HandleFunc("POST /player/toggle-pause", func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, bridge.TogglePause())
	})
	mux.HandleFunc("POST /player/stop", func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, bridge.Stop())
	})
	mux.HandleFunc("POST /player/volume", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Volume float64 `json:"volume"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		writeResult(w, bridge.SetVolume(req.Volume))
	})
	mux.HandleFunc("POST /player/toggle-mute", func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, bridge.ToggleMute())
	})
	mux.HandleFunc("POST /player/seek", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Position float64 `json:"position"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		writeResult(w, bridge.Seek(req.Position))
	})

	mux.HandleFunc("GET /player/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, bridge.Status())
	})

	mux.HandleFunc("GET /events", eventsHandler(hub))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"uuid":   instanceUUID,
			"active": bridge.Active(),
			"uptime": monitoring.GetMetrics().GetUptime().String(),
		})
	})
}

// eventsHandler streams the host bus as server-sent events. The subscription
// buffer absorbs bursts; a consumer slower than the bus loses events rather
// than stalling the producers.
func eventsHandler(hub *host.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		events, cancel := hub.Subscribe()
		defer cancel()
		log.Info("event stream opened remote_addr=%s", r.RemoteAddr)

		for {
			select {
			case <-r.Context().Done():
				log.Debug("event stream closed remote_addr=%s", r.RemoteAddr)
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				data, err := json.Marshal(ev)
				if err != nil {
					log.Error("event marshal failed: %v", err)
					continue
				}
				if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeResult(w, player.Err("invalid request body"))
		return false
	}
	return true
}

func writeResult(w http.ResponseWriter, res player.Result) {
	writeJSON(w, res)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("response encode failed: %v", err)
	}
}

func LogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Info("HTTP request method=%s path=%s remote_addr=%s user_agent=%s",
			r.Method, r.URL.Path, r.RemoteAddr, r.UserAgent())

		start := time.Now()
		next.ServeHTTP(w, r)
		duration := time.Since(start)

		monitoring.GetMetrics().RecordHTTPRequest(r.Method, duration)

		log.Debug("HTTP request completed method=%s path=%s duration=%s",
			r.Method, r.URL.Path, duration.String())
	})
}
