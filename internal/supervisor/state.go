package supervisor

import "fmt"

// State of the supervisor. It only moves forward.
type State int32

const (
	StateIdle State = iota
	StateInit
	StateStart
	StateActive
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateInit:
		return "INIT"
	case StateStart:
		return "START"
	case StateActive:
		return "ACTIVE"
	default:
		return fmt.Sprintf("STATE(%d)", int32(s))
	}
}

// Observer is told about every state the supervisor enters.
type Observer interface {
	StateChanged(state int)
}

type noopObserver struct{}

func (noopObserver) StateChanged(int) {}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(state int)

func (f ObserverFunc) StateChanged(state int) { f(state) }

// Observers fans out to several observers.
type Observers []Observer

func (o Observers) StateChanged(state int) {
	for _, obs := range o {
		if obs != nil {
			obs.StateChanged(state)
		}
	}
}
