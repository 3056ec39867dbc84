/*
Package command implements the textual control protocol: tokenizing,
classification, and the bounded ingress queue.

# Overview

Commands arrive as single lines of the form

	verb=field1:field2:...

The line is split on '=' (empty parts dropped) and must yield exactly two
parts; anything else is malformed. The right-hand side is then split on ':'
with empty fields preserved, and the verb is reinserted as field zero.
Classification requires an exact field count per kind, so a well-formed
line with a wrong arity is still Unknown and ignored by the scheduler.

Recognized forms:

	record=on:EXPERIMENT:SOURCE:SCAN
	record=off
	record=set:EXPERIMENT:SOURCE:SCAN:START_EPOCH_SEC:DURATION_SEC

# Queue

Queue is the hand-off point between ingress listeners (HTTP, MQTT) and the
scheduler's control loop. It is bounded and drops the newest entry when
full, so a flooding client can never stall the tick loop.
*/
package command
