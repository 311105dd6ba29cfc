// Package stop provides a small coordination primitive used throughout the
// tracker for graceful shutdown: components that own background goroutines
// implement Stopper, and a Group lets the process shut many of them down
// concurrently and collect every error that occurred.
package stop

// Channel is closed by a Stopper once its shutdown has completed; send at
// most one error (or none) before closing.
type Channel chan error

// Result returns a read-only view of c for Stop to wait on.
func (c Channel) Result() Result { return (chan error)(c) }

// Result is the outcome of asking a single Stopper to stop.
type Result <-chan error

// Stopper is implemented by anything that owns background work which must
// be drained before the process exits: frontends, the batched-persistence
// flusher, storage sinks.
type Stopper interface {
	Stop() Result
}

// Results aggregates the outcomes of stopping a Group.
type Results []Result

// Wait blocks until every Result in rs has resolved and returns the
// non-nil errors, if any.
func (rs Results) Wait() []error {
	var errs []error
	for _, r := range rs {
		if err, ok := <-r; ok && err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Group collects Stoppers registered over the lifetime of a process and
// stops them all together.
type Group struct {
	stoppers []Stopper
}

// NewGroup creates an empty Group.
func NewGroup() *Group { return &Group{} }

// Add registers a Stopper to be stopped when the Group is stopped.
func (g *Group) Add(s Stopper) { g.stoppers = append(g.stoppers, s) }

// Stop asks every registered Stopper to stop concurrently and returns their
// Results for the caller to Wait on.
func (g *Group) Stop() Results {
	results := make(Results, len(g.stoppers))
	for i, s := range g.stoppers {
		results[i] = s.Stop()
	}
	return results
}

// AlreadyStopped returns a Result that is immediately resolved with no
// error, for Stoppers with nothing to drain.
func AlreadyStopped() Result {
	c := make(Channel)
	close(c)
	return c.Result()
}
