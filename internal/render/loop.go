package render

import (
	"encoding/base64"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/tr1v3r/pkg/log"
	"golang.org/x/time/rate"

	"github.com/tr1v3r/mpvbridge/internal/host"
	"github.com/tr1v3r/mpvbridge/internal/player"
)

const (
	// iterationSleep bounds CPU usage between polls.
	iterationSleep = 8 * time.Millisecond
	// fpsCheckInterval: how often the source frame rate and video size are
	// re-queried.
	fpsCheckInterval = time.Second

	defaultStatusInterval = 100 * time.Millisecond
)

// Probe reads transport-independent playback state from the engine.
type Probe interface {
	Status() player.Status
	SourceFPS() float64
	VideoSize() (int, int, bool)
}

// Emitter receives the loop's output. Emission is fire-and-forget; a slow
// consumer costs frames, never loop stalls.
type Emitter interface {
	Status(player.Status)
	Frame(host.Frame)
}

type LoopOptions struct {
	Source         FrameSource
	Graphics       GraphicsContext
	Framebuffer    Framebuffer
	Probe          Probe
	Emitter        Emitter
	JPEGQuality    int
	StatusInterval time.Duration
	Shutdown       *atomic.Bool // shared with the supervisor
}

// Loop drives offscreen capture and status polling on one dedicated thread.
type Loop struct {
	opts    LoopOptions
	limiter *rate.Limiter
	fboOK   bool
	done    chan struct{}
}

func NewLoop(opts LoopOptions) *Loop {
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = defaultStatusInterval
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = 80
	}
	return &Loop{
		opts:    opts,
		limiter: rate.NewLimiter(captureRate(0), 1),
		done:    make(chan struct{}),
	}
}

// Run blocks until the shutdown flag is set. It must be the only caller of
// the graphics context: the context is made current here and never leaves
// this goroutine's thread.
func (l *Loop) Run() {
	defer close(l.done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer l.opts.Graphics.Shutdown()

	if err := l.opts.Graphics.MakeCurrent(); err != nil {
		log.Error("graphics context unavailable, running clock-keeping only: %v", err)
		l.fboOK = false
	} else {
		// Checked once; an incomplete framebuffer demotes the loop for its
		// entire lifetime.
		l.fboOK = l.opts.Framebuffer.Complete()
		if !l.fboOK {
			log.Error("framebuffer incomplete, running clock-keeping only")
		}
	}

	var lastFPSCheck time.Time
	var lastStatus time.Time

	for !l.opts.Shutdown.Load() {
		now := time.Now()

		if now.Sub(lastFPSCheck) >= fpsCheckInterval {
			lastFPSCheck = now
			l.limiter.SetLimit(captureRate(l.opts.Probe.SourceFPS()))
			if w, h, ok := l.opts.Probe.VideoSize(); ok && l.fboOK {
				l.opts.Framebuffer.Resize(w, h)
			}
		}

		if l.opts.Source.Pending() {
			if l.fboOK {
				if err := l.opts.Source.RenderInto(l.opts.Framebuffer); err != nil {
					log.Error("render failed: %v", err)
				} else if l.limiter.Allow() {
					l.captureFrame()
				}
			} else {
				// Keeps the engine's internal clock advancing.
				_ = l.opts.Source.RenderDiscard()
			}
		}

		if now.Sub(lastStatus) >= l.opts.StatusInterval {
			lastStatus = now
			l.opts.Emitter.Status(l.opts.Probe.Status())
		}

		time.Sleep(iterationSleep)
	}
	log.Info("render loop exiting")
}

// Done closes once Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

func (l *Loop) captureFrame() {
	pix := l.opts.Framebuffer.ReadPixels()
	w, h := l.opts.Framebuffer.Size()
	data, err := encodeJPEG(pix, w, h, l.opts.JPEGQuality)
	if err != nil {
		log.Error("frame encode failed: %v", err)
		return
	}
	l.opts.Emitter.Frame(host.Frame{
		Width:  w,
		Height: h,
		JPEG:   base64.StdEncoding.EncodeToString(data),
	})
}
