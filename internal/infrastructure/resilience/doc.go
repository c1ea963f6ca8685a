/*
Package resilience provides a circuit breaker for outbound calls.

The document fetcher keeps a Set of breakers keyed by host, so a site that
keeps failing is skipped for a cooldown period instead of absorbing the
full retry budget on every request.

	breakers := resilience.NewSet(resilience.DefaultSettings())

	b := breakers.Get(u.Host)
	if err := b.Allow(); err != nil {
		return err
	}
	resp, err := do()
	b.Record(err == nil)
*/
package resilience
