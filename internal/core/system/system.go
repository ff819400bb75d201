package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput   Phase = iota // 0: accept sessions, drain packet queues
	PhaseEvents               // 1: deliver last tick's events
	PhaseUpdate               // 2: game logic
	PhaseOutput               // 3: flush session output
	PhasePersist              // 4: batch save
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseEvents:
		return "events"
	case PhaseUpdate:
		return "update"
	case PhaseOutput:
		return "output"
	case PhasePersist:
		return "persist"
	default:
		return "unknown"
	}
}

// System is the interface every loop system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
