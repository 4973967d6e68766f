package transfer

import (
	"context"
	"sync/atomic"
)

// Permit is the single-slot flow-control token between a chunk producer and
// the peer acknowledging its chunks. A new Permit holds one grant.
type Permit struct {
	ch      chan struct{}
	aborted atomic.Bool
}

func NewPermit() *Permit {
	p := &Permit{ch: make(chan struct{}, 1)}
	p.ch <- struct{}{}
	return p
}

// Acquire blocks until a grant is available or ctx is done.
func (p *Permit) Acquire(ctx context.Context) error {
	select {
	case <-p.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release grants the next chunk. Extra releases collapse into one grant.
func (p *Permit) Release() {
	select {
	case p.ch <- struct{}{}:
	default:
	}
}

// Abort marks the transfer as aborted and wakes a blocked producer so it can
// observe the flag.
func (p *Permit) Abort() {
	p.aborted.Store(true)
	p.Release()
}

func (p *Permit) Aborted() bool {
	return p.aborted.Load()
}
