// Package state holds the bridge's single engine handle. The handle is a
// tagged value behind one mutex: either absent or an active supervisor, and
// enable/disable swap between the two atomically so concurrent commands never
// observe a half-built instance.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/tr1v3r/pkg/log"

	"github.com/tr1v3r/mpvbridge/internal/config"
	"github.com/tr1v3r/mpvbridge/internal/host"
	"github.com/tr1v3r/mpvbridge/internal/player"
	"github.com/tr1v3r/mpvbridge/internal/render"
)

const errNotInitialized = "player not initialized"

// loopExitWait bounds how long Disable waits for the render loop thread.
const loopExitWait = time.Second

// Bridge routes playback commands to the active supervisor, or answers with
// the uniform not-initialized result when none is running.
type Bridge struct {
	cfg config.Config
	hub *host.Hub

	mu   sync.Mutex
	sup  *player.Supervisor // nil while absent
	loop *render.Loop
}

func New(cfg config.Config, hub *host.Hub) *Bridge {
	return &Bridge{cfg: cfg, hub: hub}
}

// Enable spawns the engine and starts the render/status loop. A non-zero
// windowID embeds the engine's video into that host window; zero opens the
// engine's own window. Enabling while already active is an error result; a
// failed start leaves the handle absent.
func (b *Bridge) Enable(ctx context.Context, windowID int64) player.Result {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sup != nil {
		return player.Err("engine already running")
	}

	mode := player.ModeStandalone
	if windowID != 0 {
		mode = player.ModeEmbedded
	}
	sup, err := player.Start(ctx, player.Options{
		BinaryPath:     b.cfg.EnginePath,
		SocketDir:      b.cfg.SocketDir,
		ConnectBudget:  b.cfg.ConnectBudget,
		CommandTimeout: b.cfg.CommandTimeout,
		EventsEnabled:  b.cfg.EventsEnabled,
		Mode:           mode,
		WindowID:       windowID,
		Title:          b.cfg.WindowTitle,
	}, b.hub)
	if err != nil {
		log.Error("engine start failed: %v", err)
		return player.Err(err.Error())
	}

	loop := render.NewLoop(render.LoopOptions{
		Source:         render.NoopSource{},
		Graphics:       render.NewSoftwareContext(),
		Framebuffer:    render.NewSoftwareFramebuffer(b.cfg.RenderWidth, b.cfg.RenderHeight),
		Probe:          sup,
		Emitter:        b.hub,
		JPEGQuality:    b.cfg.JPEGQuality,
		StatusInterval: b.cfg.StatusInterval,
		Shutdown:       sup.ShutdownFlag(),
	})
	go loop.Run()

	b.sup, b.loop = sup, loop
	return player.OK()
}

// Disable tears the active instance down. Disabling an absent handle
// succeeds; the desired state is already reached.
func (b *Bridge) Disable() player.Result {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sup == nil {
		return player.OK()
	}
	sup, loop := b.sup, b.loop
	b.sup, b.loop = nil, nil

	sup.Shutdown()
	select {
	case <-loop.Done():
	case <-time.After(loopExitWait):
		log.Error("render loop did not exit after shutdown")
	}
	return player.OK()
}

// Active reports whether an engine instance is running.
func (b *Bridge) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sup != nil
}

// Close releases the bridge at host shutdown.
func (b *Bridge) Close() {
	b.Disable()
}

func (b *Bridge) controller() player.Controller {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sup == nil {
		return nil
	}
	return b.sup
}

func (b *Bridge) with(fn func(player.Controller) player.Result) player.Result {
	c := b.controller()
	if c == nil {
		return player.Err(errNotInitialized)
	}
	return fn(c)
}

func (b *Bridge) Load(url string) player.Result {
	return b.with(func(c player.Controller) player.Result { return c.Load(url) })
}

func (b *Bridge) Play() player.Result {
	return b.with(func(c player.Controller) player.Result { return c.Play() })
}

func (b *Bridge) Pause() player.Result {
	return b.with(func(c player.Controller) player.Result { return c.Pause() })
}

func (b *Bridge) TogglePause() player.Result {
	return b.with(func(c player.Controller) player.Result { return c.TogglePause() })
}

func (b *Bridge) Stop() player.Result {
	return b.with(func(c player.Controller) player.Result { return c.Stop() })
}

func (b *Bridge) SetVolume(volume float64) player.Result {
	return b.with(func(c player.Controller) player.Result { return c.SetVolume(volume) })
}

func (b *Bridge) ToggleMute() player.Result {
	return b.with(func(c player.Controller) player.Result { return c.ToggleMute() })
}

func (b *Bridge) Seek(seconds float64) player.Result {
	return b.with(func(c player.Controller) player.Result { return c.Seek(seconds) })
}

// Status returns the default snapshot when no engine is running.
func (b *Bridge) Status() player.Status {
	c := b.controller()
	if c == nil {
		return player.DefaultStatus()
	}
	return c.Status()
}
