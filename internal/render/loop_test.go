package render

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tr1v3r/mpvbridge/internal/host"
	"github.com/tr1v3r/mpvbridge/internal/player"
)

type fakeSource struct {
	pending  atomic.Bool
	rendered atomic.Int64
	dropped  atomic.Int64
}

func (f *fakeSource) Pending() bool { return f.pending.Swap(false) }

func (f *fakeSource) RenderInto(fb Framebuffer) error {
	f.rendered.Add(1)
	w, h := fb.Size()
	if sw, ok := fb.(*SoftwareFramebuffer); ok {
		sw.WritePixels(make([]byte, w*h*4))
	}
	return nil
}

func (f *fakeSource) RenderDiscard() error {
	f.dropped.Add(1)
	return nil
}

type fakeProbe struct {
	fps float64
}

func (f *fakeProbe) Status() player.Status       { return player.Status{Playing: true, Volume: 80} }
func (f *fakeProbe) SourceFPS() float64          { return f.fps }
func (f *fakeProbe) VideoSize() (int, int, bool) { return 2, 2, true }

type fakeEmitter struct {
	mu       sync.Mutex
	statuses []player.Status
	frames   []host.Frame
}

func (f *fakeEmitter) Status(st player.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, st)
}

func (f *fakeEmitter) Frame(fr host.Frame) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, fr)
}

func (f *fakeEmitter) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.statuses), len(f.frames)
}

// incompleteFB reports setup failure, demoting the loop to clock-keeping.
type incompleteFB struct{ SoftwareFramebuffer }

func (f *incompleteFB) Complete() bool { return false }

func runLoop(t *testing.T, src FrameSource, fb Framebuffer, emit Emitter, d time.Duration) {
	t.Helper()
	var shutdown atomic.Bool
	l := NewLoop(LoopOptions{
		Source:         src,
		Graphics:       NewSoftwareContext(),
		Framebuffer:    fb,
		Probe:          &fakeProbe{fps: 30},
		Emitter:        emit,
		JPEGQuality:    80,
		StatusInterval: 20 * time.Millisecond,
		Shutdown:       &shutdown,
	})
	go l.Run()
	time.Sleep(d)
	shutdown.Store(true)
	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after shutdown flag")
	}
}

func TestLoopEmitsStatusAndFrames(t *testing.T) {
	src := &fakeSource{}
	emit := &fakeEmitter{}
	fb := NewSoftwareFramebuffer(2, 2)

	go func() {
		for i := 0; i < 10; i++ {
			src.pending.Store(true)
			time.Sleep(20 * time.Millisecond)
		}
	}()
	runLoop(t, src, fb, emit, 300*time.Millisecond)

	statuses, frames := emit.counts()
	if statuses < 2 {
		t.Errorf("got %d status emissions, want at least 2", statuses)
	}
	if frames < 1 {
		t.Errorf("got %d frames, want at least 1", frames)
	}
	if n := src.rendered.Load(); n < 1 {
		t.Errorf("RenderInto called %d times, want at least 1", n)
	}

	emit.mu.Lock()
	defer emit.mu.Unlock()
	if st := emit.statuses[0]; !st.Playing || st.Volume != 80 {
		t.Errorf("status not taken from probe: %+v", st)
	}
	if fr := emit.frames[0]; fr.Width != 2 || fr.Height != 2 || fr.JPEG == "" {
		t.Errorf("malformed frame: %+v", fr)
	}
}

func TestLoopClockKeepingWhenFramebufferIncomplete(t *testing.T) {
	src := &fakeSource{}
	emit := &fakeEmitter{}
	fb := &incompleteFB{}

	go func() {
		for i := 0; i < 10; i++ {
			src.pending.Store(true)
			time.Sleep(20 * time.Millisecond)
		}
	}()
	runLoop(t, src, fb, emit, 300*time.Millisecond)

	if _, frames := emit.counts(); frames != 0 {
		t.Errorf("frames emitted without a usable framebuffer: %d", frames)
	}
	if src.rendered.Load() != 0 {
		t.Error("RenderInto called with an incomplete framebuffer")
	}
	if src.dropped.Load() < 1 {
		t.Error("discard rendering never happened; engine clock would stall")
	}
	if statuses, _ := emit.counts(); statuses < 2 {
		t.Errorf("status polling must survive demotion, got %d emissions", statuses)
	}
}
