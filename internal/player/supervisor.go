package player

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tr1v3r/pkg/log"

	"github.com/tr1v3r/mpvbridge/internal/mpvipc"
	"github.com/tr1v3r/mpvbridge/internal/transport"
)

// State tracks the supervisor lifecycle. Failed is terminal and only
// reachable from Spawning or Connected.
type State int32

const (
	StateNotStarted State = iota
	StateSpawning
	StateConnected
	StateRunning
	StateShuttingDown
	StateTerminated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateSpawning:
		return "spawning"
	case StateConnected:
		return "connected"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting-down"
	case StateTerminated:
		return "terminated"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Mode selects how the engine presents video.
type Mode int

const (
	// ModeStandalone opens the engine's own window.
	ModeStandalone Mode = iota
	// ModeEmbedded renders into the hosting application's window, via the
	// engine's embedding-target flag. Only meaningful where the host OS
	// supports handing over a window id.
	ModeEmbedded
)

// SpawnError reports that the engine binary was missing or the OS failed to
// create the process.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string { return fmt.Sprintf("spawn engine: %v", e.Err) }

func (e *SpawnError) Unwrap() error { return e.Err }

type Options struct {
	BinaryPath     string // empty: resolve via FindEngine
	SocketDir      string
	SocketPath     string // override the derived endpoint; used by tests
	ConnectBudget  time.Duration
	CommandTimeout time.Duration // zero: protocol client default
	EventsEnabled  bool
	Mode           Mode
	WindowID       int64  // embedding target, ModeEmbedded only
	Title          string // window title, ModeStandalone only
}

// Supervisor owns the engine child process and the transport's write half.
// It is constructed by Start and torn down exactly once by Shutdown.
type Supervisor struct {
	opts Options

	cmd    *exec.Cmd
	tr     transport.Transport
	ipc    *mpvipc.Client
	notify Notifier

	state      atomic.Int32
	shutdown   atomic.Bool
	closeOnce  sync.Once
	readerDone chan struct{}
	sweepStop  chan struct{}
}

// Start spawns the engine, connects the control transport and brings the
// supervisor to Running. Any failure on the way is terminal for this
// instance; the caller keeps an absent handle and reports not-initialized.
func Start(ctx context.Context, opts Options, notify Notifier) (*Supervisor, error) {
	if opts.ConnectBudget <= 0 {
		opts.ConnectBudget = 5 * time.Second
	}

	s := &Supervisor{
		opts:       opts,
		notify:     notify,
		readerDone: make(chan struct{}),
		sweepStop:  make(chan struct{}),
	}
	s.setState(StateSpawning)

	binary := opts.BinaryPath
	if binary == "" {
		found, err := FindEngine("")
		if err != nil {
			s.setState(StateFailed)
			return nil, &SpawnError{Err: err}
		}
		binary = found
	}

	endpoint := opts.SocketPath
	if endpoint == "" {
		endpoint = transport.Endpoint(opts.SocketDir, os.Getpid())
		// A crashed previous run with our pid may have left its socket file.
		transport.RemoveStale(endpoint)
	}

	args := buildArgs(endpoint, opts)
	log.Info("starting engine binary=%s endpoint=%s mode=%d", binary, endpoint, opts.Mode)
	log.Debug("engine args: %v", args)

	cmd := exec.Command(binary, args...)
	stdout, _ := cmd.StdoutPipe()
	stderr, _ := cmd.StderrPipe()
	if err := cmd.Start(); err != nil {
		s.setState(StateFailed)
		return nil, &SpawnError{Err: err}
	}
	s.cmd = cmd
	go drainOutput("stdout", stdout)
	go drainOutput("stderr", stderr)
	log.Info("engine spawned pid=%d", cmd.Process.Pid)

	tr, err := transport.DialRetry(ctx, endpoint, opts.ConnectBudget)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		s.setState(StateFailed)
		return nil, err
	}
	s.tr = tr
	s.ipc = mpvipc.NewClient(tr, opts.CommandTimeout)
	s.setState(StateConnected)

	if opts.EventsEnabled {
		go func() {
			s.ipc.ReadLoop(tr, s.onEvent)
			close(s.readerDone)
		}()
		for i, name := range observedProperties {
			if err := s.ipc.ObserveProperty(int64(i+1), name); err != nil {
				log.Error("observe %s failed: %v", name, err)
			}
		}
	} else {
		// Duplicating the pipe handle for a blocking reader hangs the whole
		// process on Windows. Commands still work; callers poll for status
		// instead of receiving property-change events.
		log.Info("event reader disabled; property events unavailable, poll status instead")
		close(s.readerDone)
	}

	go s.ipc.StartSweeper(s.sweepStop)

	s.setState(StateRunning)
	if notify != nil {
		notify.Ready()
	}
	log.Info("engine supervisor running")
	return s, nil
}

// observedProperties get property-change observers registered at startup,
// with observer ids 1..n in order.
var observedProperties = []string{"pause", "volume", "mute", "time-pos", "duration"}

func buildArgs(endpoint string, opts Options) []string {
	args := []string{
		"--input-ipc-server=" + endpoint,
		"--idle=yes",
		"--keep-open=yes",
		"--hwdec=auto",
		"--vo=gpu",
		"--tone-mapping=mobius",
	}
	switch opts.Mode {
	case ModeEmbedded:
		args = append(args,
			fmt.Sprintf("--wid=%d", opts.WindowID),
			"--no-osc",
			"--no-osd-bar",
			"--osd-level=0",
			"--input-default-bindings=no",
			"--no-input-cursor",
			"--cursor-autohide=no",
			"--no-terminal",
			"--really-quiet",
		)
	case ModeStandalone:
		title := opts.Title
		if title == "" {
			title = "mpvbridge player"
		}
		args = append(args,
			"--no-osc",
			"--osd-level=1",
			"--title="+title,
		)
	}
	return args
}

func drainOutput(name string, r io.Reader) {
	if r == nil {
		return
	}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		log.Debug("engine %s: %s", name, scanner.Text())
	}
}

func (s *Supervisor) setState(st State) {
	s.state.Store(int32(st))
	log.Debug("supervisor state=%s", st)
}

// State reports the current lifecycle state.
func (s *Supervisor) State() State { return State(s.state.Load()) }

// ShutdownFlag exposes the shared stop flag observed by the render/status
// loop. Single writer (Shutdown), multiple readers.
func (s *Supervisor) ShutdownFlag() *atomic.Bool { return &s.shutdown }

func (s *Supervisor) onEvent(ev mpvipc.Event) {
	if s.shutdown.Load() {
		return
	}
	switch ev.Name {
	case "pause", "volume", "mute", "time-pos", "duration":
		// The host re-queries full status; no per-field tracking here.
		if s.notify != nil {
			s.notify.PropertyChange()
		}
	}
}

// Shutdown tears the engine down: stop flag, fire-and-forget quit, kill with
// a bounded wait, socket file removal. Idempotent.
func (s *Supervisor) Shutdown() {
	s.closeOnce.Do(func() {
		log.Info("shutting down engine")
		s.setState(StateShuttingDown)
		s.shutdown.Store(true)
		close(s.sweepStop)

		_ = s.ipc.SendCommandAsync("quit")
		_ = s.tr.Close()

		// Closing the transport unblocks the read loop; give it a moment to
		// drain before the process goes away.
		select {
		case <-s.readerDone:
		case <-time.After(2 * time.Second):
			log.Error("event reader did not exit")
		}

		if s.cmd != nil && s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
			done := make(chan struct{})
			go func() {
				_ = s.cmd.Wait()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				log.Error("engine did not exit after kill")
			}
		}

		if err := s.tr.Remove(); err != nil {
			log.Error("remove socket file: %v", err)
		}
		s.setState(StateTerminated)
	})
}
