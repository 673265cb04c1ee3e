package player

import (
	"strconv"
)

// Thin adapters over the protocol client. Numeric arguments pass through
// unvalidated; the engine clamps ranges itself.

func (s *Supervisor) Load(url string) Result {
	reply, err := s.ipc.SendCommand("loadfile", url)
	return toResult(reply.OK(), reply.Error, err)
}

func (s *Supervisor) Play() Result {
	return setResult(s.ipc.SetProperty("pause", "no"))
}

func (s *Supervisor) Pause() Result {
	return setResult(s.ipc.SetProperty("pause", "yes"))
}

func (s *Supervisor) TogglePause() Result {
	reply, err := s.ipc.SendCommand("cycle", "pause")
	return toResult(reply.OK(), reply.Error, err)
}

func (s *Supervisor) Stop() Result {
	reply, err := s.ipc.SendCommand("stop", "keep-open")
	return toResult(reply.OK(), reply.Error, err)
}

func (s *Supervisor) SetVolume(volume float64) Result {
	return setResult(s.ipc.SetProperty("volume", formatFloat(volume)))
}

func (s *Supervisor) ToggleMute() Result {
	reply, err := s.ipc.SendCommand("cycle", "mute")
	return toResult(reply.OK(), reply.Error, err)
}

func (s *Supervisor) Seek(seconds float64) Result {
	reply, err := s.ipc.SendCommand("seek", formatFloat(seconds), "absolute")
	return toResult(reply.OK(), reply.Error, err)
}

// Status polls each playback property independently: a failed read falls
// back to that field's default without touching the others.
func (s *Supervisor) Status() Status {
	st := DefaultStatus()
	if v, err := s.ipc.GetProperty("pause"); err == nil {
		if paused, ok := v.(bool); ok {
			st.Playing = !paused
		}
	}
	if v, err := s.ipc.GetProperty("volume"); err == nil {
		if f, ok := v.(float64); ok {
			st.Volume = f
		}
	}
	if v, err := s.ipc.GetProperty("mute"); err == nil {
		if muted, ok := v.(bool); ok {
			st.Muted = muted
		}
	}
	if v, err := s.ipc.GetProperty("time-pos"); err == nil {
		if f, ok := v.(float64); ok {
			st.Position = f
		}
	}
	if v, err := s.ipc.GetProperty("duration"); err == nil {
		if f, ok := v.(float64); ok {
			st.Duration = f
		}
	}
	return st
}

// SourceFPS reports the container frame rate, falling back to the engine's
// estimate. Zero means unavailable.
func (s *Supervisor) SourceFPS() float64 {
	for _, prop := range []string{"container-fps", "estimated-vf-fps"} {
		if v, err := s.ipc.GetProperty(prop); err == nil {
			if f, ok := v.(float64); ok && f > 0 {
				return f
			}
		}
	}
	return 0
}

// VideoSize reports the current video dimensions, ok=false until the engine
// knows them.
func (s *Supervisor) VideoSize() (int, int, bool) {
	w, errW := s.ipc.GetProperty("width")
	h, errH := s.ipc.GetProperty("height")
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	fw, okW := w.(float64)
	fh, okH := h.(float64)
	if !okW || !okH || fw <= 0 || fh <= 0 {
		return 0, 0, false
	}
	return int(fw), int(fh), true
}

func toResult(ok bool, engineErr string, err error) Result {
	if err != nil {
		return Err(err.Error())
	}
	if !ok {
		return Err(engineErr)
	}
	return OK()
}

func setResult(err error) Result {
	if err != nil {
		return Err(err.Error())
	}
	return OK()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
