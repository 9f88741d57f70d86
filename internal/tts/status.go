package tts

// State is a session lifecycle state as reported on the status channel.
type State string

const (
	StateStarting  State = "starting"
	StateStreaming State = "streaming"
	StateDone      State = "done"
	StateStopped   State = "stopped"
	StateError     State = "error"
)

// Status is one status report. Reason is only set for StateError.
type Status struct {
	State  State
	Reason string
}

func (s Status) String() string {
	if s.State == StateError {
		return "error: " + s.Reason
	}
	return string(s.State)
}

// Terminal reports whether s ends the session.
func (s Status) Terminal() bool {
	switch s.State {
	case StateDone, StateStopped, StateError:
		return true
	}
	return false
}
