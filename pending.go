package apibind

import "context"

// Pending is an eventually-resolved asynchronous result handle. It is
// resolved exactly once; multiple waiters all observe the same outcome.
type Pending struct {
	done chan struct{}
	resp *Response
	err  error
}

func start(fn func() (*Response, error)) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		p.resp, p.err = fn()
		close(p.done)
	}()
	return p
}

// Done returns a channel closed when the result is available.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the result is available or ctx is cancelled. Waiting is
// side-effect free: cancelling the wait does not cancel the issued request,
// which runs to completion or transport-level failure.
func (p *Pending) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-p.done:
		return p.resp, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
