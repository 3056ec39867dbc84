/*
Package digitizer defines the sample-source contract and a synthetic
implementation used when no acquisition hardware is attached.

# Overview

A Digitizer owns its producer loop and a source pool handed to it at setup.
Acquire begins an acquisition epoch: the leading sample index restarts at
zero and every published buffer is stamped with the epoch's start second,
its leading sample index, and the sampling rate. StopAfterNextBuffer lets
the buffer in flight complete so no partial buffer is ever published;
StopProduction halts the loop unconditionally at teardown.

# Synthetic source

Synthetic produces a fixed tone plus uniform dither around mid-scale, which
gives the transform stage a known line to land in a known bin. With Pace
enabled it sleeps one buffer-duration per buffer to approximate a real
front end; unpaced it runs flat out, which is what the backpressure tests
want.
*/
package digitizer
