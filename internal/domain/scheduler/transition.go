package scheduler

import (
	"github.com/GriffinCanCode/SpectraCore/internal/domain/command"
)

// EventKind discriminates scheduler events.
type EventKind int

const (
	EventCommand EventKind = iota
	EventTick
	EventShutdown
)

// Event is one input to the state machine. Cmd is meaningful only for
// EventCommand; Now is the current epoch second for every kind.
type Event struct {
	Kind EventKind
	Cmd  command.Command
	Now  int64
}

// Effect is an action the control loop must perform after a transition.
type Effect int

const (
	// EffectStartRecording begins persistence for the new session and
	// starts digitizer production.
	EffectStartRecording Effect = iota
	// EffectStopRecording halts production after the next buffer and
	// finalizes the scan that was active before the transition.
	EffectStopRecording
	// EffectSynthesizeStop dispatches a canned record=off through the
	// normal command path.
	EffectSynthesizeStop
)

// Transition is the pure state machine: no clocks, no hardware, no locks.
// The returned session replaces the stored one; effects refer to the
// pre-transition session where they finalize it.
func Transition(st State, sess Session, ev Event) (State, Session, []Effect) {
	switch ev.Kind {
	case EventCommand:
		return applyCommand(st, sess, ev.Cmd, ev.Now)
	case EventTick:
		return applyTick(st, sess, ev.Now)
	case EventShutdown:
		if st != StateIdle {
			return st, sess, []Effect{EffectSynthesizeStop}
		}
	}
	return st, sess, nil
}

func applyCommand(st State, sess Session, cmd command.Command, now int64) (State, Session, []Effect) {
	switch cmd.Kind {
	case command.RecordOn:
		if st != StateIdle {
			return st, sess, nil
		}
		next := named(cmd.Experiment, cmd.Source, cmd.Scan)
		next.StartSecond = now
		return StateRecordingUntilOff, next, []Effect{EffectStartRecording}

	case command.RecordOff:
		switch st {
		case StateRecordingUntilOff, StateRecordingUntilTime:
			return StateIdle, Session{}, []Effect{EffectStopRecording}
		case StatePending:
			return StateIdle, Session{}, nil
		}
		return st, sess, nil

	case command.ConfigureNext:
		if st != StateIdle {
			return st, sess, nil
		}
		if Classify(cmd.End(), now) != TimeAfter {
			// window already closed, stale request
			return StateIdle, sess, nil
		}
		next := named(cmd.Experiment, cmd.Source, cmd.Scan)
		next.StartSecond = cmd.Start
		next.EndSecond = cmd.End()
		if reached(cmd.Start, now) {
			return StateRecordingUntilTime, next, []Effect{EffectStartRecording}
		}
		return StatePending, next, nil
	}
	return st, sess, nil
}

func applyTick(st State, sess Session, now int64) (State, Session, []Effect) {
	switch st {
	case StatePending:
		if Classify(sess.EndSecond, now) != TimeAfter {
			// window lapsed before acquisition ever began
			return StateIdle, Session{}, nil
		}
		if reached(sess.StartSecond, now) {
			return StateRecordingUntilTime, sess, []Effect{EffectStartRecording}
		}
	case StateRecordingUntilTime:
		if reached(sess.EndSecond, now) {
			return st, sess, []Effect{EffectSynthesizeStop}
		}
	}
	return st, sess, nil
}
