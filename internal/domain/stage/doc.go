/*
Package stage provides the generic worker-thread group that drives pipeline
work between ring-buffer pools.

# Overview

A Stage owns N workers running the same loop: when the Runner reports work
present it executes one task, otherwise it idles for a bounded interval. The
same abstraction serves a pure transform stage (consume from a source pool,
produce into a sink pool) and a terminal sink stage (consume and perform a
side effect); a stage never knows which it is.

Stop is cooperative: the flag is observed at the top of the worker loop, so
a task already in progress always runs to completion and pool cursor
bookkeeping is never left inconsistent.

# Pinning

Workers can optionally be pinned to fixed processors for deterministic
latency. Each pinned worker locks its goroutine to an OS thread and binds
that thread's affinity to one core; on platforms without affinity support
the worker logs a warning and runs unpinned.
*/
package stage
