package player

import (
	"bufio"
	"encoding/json"
	"net"
	"reflect"
	"sync"
	"testing"

	"github.com/tr1v3r/mpvbridge/internal/mpvipc"
)

// engineStub answers every command with success and serves get_property from
// a fixed map, recording the command words it saw.
type engineStub struct {
	conn net.Conn

	mu    sync.Mutex
	cmds  [][]string
	props map[string]any
}

func newStubSupervisor(t *testing.T, props map[string]any) (*Supervisor, *engineStub) {
	t.Helper()
	cc, ec := net.Pipe()
	t.Cleanup(func() { _ = cc.Close(); _ = ec.Close() })

	stub := &engineStub{conn: ec, props: props}
	go stub.serve()

	s := &Supervisor{ipc: mpvipc.NewClient(cc, 0)}
	go s.ipc.ReadLoop(cc, nil)
	return s, stub
}

func (e *engineStub) serve() {
	scanner := bufio.NewScanner(e.conn)
	for scanner.Scan() {
		var req mpvipc.Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil || len(req.Command) == 0 {
			continue
		}
		e.mu.Lock()
		e.cmds = append(e.cmds, req.Command)
		e.mu.Unlock()

		out := mpvipc.Reply{Error: "success", RequestID: req.RequestID}
		if req.Command[0] == "get_property" {
			e.mu.Lock()
			v, ok := e.props[req.Command[1]]
			e.mu.Unlock()
			if ok {
				out.Data = v
			} else {
				out.Error = "property unavailable"
			}
		}
		data, _ := json.Marshal(out)
		_, _ = e.conn.Write(append(data, '\n'))
	}
}

func (e *engineStub) commands() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]string(nil), e.cmds...)
}

func TestCommandWords(t *testing.T) {
	s, stub := newStubSupervisor(t, nil)

	ops := []struct {
		run  func() Result
		want []string
	}{
		{func() Result { return s.Load("movie.mkv") }, []string{"loadfile", "movie.mkv"}},
		{func() Result { return s.Play() }, []string{"set_property", "pause", "no"}},
		{func() Result { return s.Pause() }, []string{"set_property", "pause", "yes"}},
		{func() Result { return s.TogglePause() }, []string{"cycle", "pause"}},
		{func() Result { return s.Stop() }, []string{"stop", "keep-open"}},
		{func() Result { return s.SetVolume(35) }, []string{"set_property", "volume", "35"}},
		{func() Result { return s.ToggleMute() }, []string{"cycle", "mute"}},
		{func() Result { return s.Seek(12.5) }, []string{"seek", "12.5", "absolute"}},
	}
	for _, op := range ops {
		if res := op.run(); !res.Success {
			t.Fatalf("op %v failed: %s", op.want, res.Error)
		}
	}

	cmds := stub.commands()
	if len(cmds) != len(ops) {
		t.Fatalf("engine saw %d commands, want %d", len(cmds), len(ops))
	}
	for i, op := range ops {
		if !reflect.DeepEqual(cmds[i], op.want) {
			t.Errorf("command %d = %v, want %v", i, cmds[i], op.want)
		}
	}
}

func TestStatusFromProperties(t *testing.T) {
	s, _ := newStubSupervisor(t, map[string]any{
		"pause":    false,
		"volume":   64.0,
		"mute":     true,
		"time-pos": 12.25,
		"duration": 3600.0,
	})

	st := s.Status()
	want := Status{Playing: true, Volume: 64, Muted: true, Position: 12.25, Duration: 3600}
	if st != want {
		t.Errorf("status = %+v, want %+v", st, want)
	}
}

func TestStatusDefaultsWhenPropertiesFail(t *testing.T) {
	s, _ := newStubSupervisor(t, nil)

	if st := s.Status(); st != DefaultStatus() {
		t.Errorf("status = %+v, want defaults", st)
	}
}

func TestSourceFPSFallsBackToEstimate(t *testing.T) {
	s, _ := newStubSupervisor(t, map[string]any{"estimated-vf-fps": 23.976})
	if fps := s.SourceFPS(); fps != 23.976 {
		t.Errorf("fps = %v, want 23.976", fps)
	}

	s2, _ := newStubSupervisor(t, nil)
	if fps := s2.SourceFPS(); fps != 0 {
		t.Errorf("fps = %v, want 0 when unavailable", fps)
	}
}

func TestVideoSize(t *testing.T) {
	s, _ := newStubSupervisor(t, map[string]any{"width": 1280.0, "height": 720.0})
	if w, h, ok := s.VideoSize(); !ok || w != 1280 || h != 720 {
		t.Errorf("size = %dx%d ok=%v, want 1280x720", w, h, ok)
	}

	s2, _ := newStubSupervisor(t, nil)
	if _, _, ok := s2.VideoSize(); ok {
		t.Error("size reported before the engine knows it")
	}
}
