/*
Package scheduler implements the recording state machine and the 1 Hz
control loop that owns the acquisition pipeline.

# Overview

The scheduler is the only component that starts or stops data flow. Each
tick it pops at most one queued command and then evaluates any stored
recording window against the wall clock. All decisions go through a pure
transition function

	Transition(state, session, event) -> (state, session, effects)

so every path through the state machine is testable without threads,
clocks, or hardware.

# States

	Idle                no acquisition, no stored window
	Pending             window stored, start time still in the future
	RecordingUntilOff   acquiring until an explicit record=off
	RecordingUntilTime  acquiring until the stored end time lapses

Timestamps are classified against "now" with a one-second inclusive
tolerance band, so a start or end landing within one tick of the clock is
acted on rather than skipped.

# Effects

Transitions emit effects, not actions: the loop interprets them by calling
the digitizer, the persistence sink, and the completion notifier. A lapsed
end time synthesizes a record=off through the same dispatch path as an
external command, so timed and manual stops share one code path.
*/
package scheduler
