/*
Package ring provides the registering ring-buffer pool at the heart of the
acquisition pipeline.

# Overview

A Pool is a fixed-capacity ring of typed buffers shared between one producing
stage and any number of registered consumers. The backing storage for every
buffer payload is obtained once, up front, through a pluggable Allocator; a
pool that cannot obtain storage is never usable. Consumers register an
identity during setup and receive a stable sequential index; each index owns
an independent cursor that trails the producer.

# Handoff

The producer side never blocks on consumers: Checkout hands out the next ring
slot and Publish makes it visible, unconditionally reclaiming the oldest
unconsumed buffer when the ring is full. Slow consumers lose data silently
and their cursors are clamped forward to the oldest buffer still live. The
consumer side acquires work through Reserve, which retries a bounded number
of times with a fixed delay and reports Success, NoBufferAvailable, or
Timeout. A buffer's lock is held only between Reserve and Release (or
Checkout and Publish); payload access outside that window is a bug in the
caller.

# Usage

	pool, err := ring.NewPool[uint16]("samples", 32, 1<<21, ring.Heap{})
	if err != nil {
		return err
	}
	idx := pool.RegisterConsumer("spectrometer")

	// producer
	b := pool.Checkout()
	fill(b.Data)
	pool.Publish(b)

	// consumer
	b, res := pool.Reserve(idx, ring.Wait{Attempts: 100, Delay: 500 * time.Microsecond})
	if res == ring.ResultSuccess {
		process(b.Data[:b.Meta.ValidLength])
		pool.Release(idx, b)
	}

Depth reports how many published buffers a consumer has not yet claimed and
is the only signal a worker needs to decide whether work exists.
*/
package ring
