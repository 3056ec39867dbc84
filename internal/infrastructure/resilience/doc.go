/*
Package resilience provides a circuit breaker for flaky downstreams.

# Overview

Outbound calls that keep failing are cut off early instead of tying up
workers on a dead endpoint. The breaker trips after a run of consecutive
failures, rejects calls while open, and probes the downstream once a
cooldown has elapsed.

# Usage

	breaker := resilience.New("webhook", resilience.Settings{
		TripAfter: 5,
		Cooldown:  30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("breaker state changed", zap.String("name", name))
		},
	})

	err := breaker.Do(func() error {
		return client.Post(url, payload)
	})

# States

	Closed --[failures]-> Open --[cooldown]-> Half-Open --[successes]-> Closed
	                                              |
	                                          [failure]
	                                              |
	                                              v
	                                            Open
*/
package resilience
