package insights

import "github.com/sirupsen/logrus"

// SessionState tracks a recognition session from the orchestrator's side.
type SessionState int

const (
	StateCreated SessionState = iota
	StateStarted
	StateRecognizing
	StateCanceled
	StateStopping
	StateStopped
)

func (s SessionState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateRecognizing:
		return "recognizing"
	case StateCanceled:
		return "canceled"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

var sessionTransitions = map[SessionState][]SessionState{
	StateCreated:     {StateStarted},
	StateStarted:     {StateRecognizing, StateCanceled, StateStopping},
	StateRecognizing: {StateCanceled, StateStopping},
	StateCanceled:    {StateStopping},
	StateStopping:    {StateStopped},
}

func canTransition(from, to SessionState) bool {
	for _, s := range sessionTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type sessionTracker struct {
	state SessionState
	log   *logrus.Entry
}

func newSessionTracker(log *logrus.Entry) *sessionTracker {
	return &sessionTracker{state: StateCreated, log: log}
}

// moveTo applies a transition. Staying in the same state is a no-op;
// an illegal transition is logged and ignored.
func (t *sessionTracker) moveTo(next SessionState) bool {
	if t.state == next {
		return true
	}
	if !canTransition(t.state, next) {
		t.log.WithFields(logrus.Fields{
			"from": t.state.String(),
			"to":   next.String(),
		}).Warnln("ignoring invalid session state transition")
		return false
	}
	t.log.WithField("state", next.String()).Debugln("recognition session state changed")
	t.state = next
	return true
}
