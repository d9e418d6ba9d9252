package run

import "fmt"

// State is one stage of the run lifecycle.
type State string

const (
	StateIdle         State = "idle"         // Created, nothing loaded
	StateConfiguring  State = "configuring"  // Loading configuration and geometry
	StateInitializing State = "initializing" // Constructing and wiring the kernel
	StateRunning      State = "running"      // Batch beam or interactive session
	StateInterrupted  State = "interrupted"  // Cooperative stop requested, beam drained
	StateFinalizing   State = "finalizing"   // Archiving and closing the artifact
	StateCompleted    State = "completed"    // Finished, artifact valid
	StateFailed       State = "failed"       // Fatal error, non-zero exit
)

// IsValid checks if the state is one of the lifecycle stages.
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateConfiguring, StateInitializing, StateRunning,
		StateInterrupted, StateFinalizing, StateCompleted, StateFailed:
		return true
	default:
		return false
	}
}

// IsTerminal checks if no further transitions are possible.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// CanTransitionTo checks if a transition from s to target is allowed.
// Every non-terminal state may fail; Interrupted still finalizes.
func (s State) CanTransitionTo(target State) bool {
	transitions := map[State][]State{
		StateIdle:         {StateConfiguring, StateFailed},
		StateConfiguring:  {StateInitializing, StateFailed},
		StateInitializing: {StateRunning, StateFailed},
		StateRunning:      {StateInterrupted, StateFinalizing, StateFailed},
		StateInterrupted:  {StateFinalizing, StateFailed},
		StateFinalizing:   {StateCompleted, StateFailed},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}
	for _, state := range allowed {
		if state == target {
			return true
		}
	}
	return false
}

// String implements Stringer.
func (s State) String() string {
	return string(s)
}

// InvalidTransitionError reports a lifecycle transition outside the table.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid lifecycle transition from %q to %q", e.From, e.To)
}
