// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"errors"
	"sync"
)

// BarrierState is the explicit barrier lifecycle state.
type BarrierState int

const (
	// BarrierArmed means the barrier still awaits arrivals.
	BarrierArmed BarrierState = iota
	// BarrierReleased means all parties arrived and were released.
	BarrierReleased
	// BarrierBroken means the barrier was aborted; it never releases.
	BarrierBroken
)

func (s BarrierState) String() string {
	switch s {
	case BarrierArmed:
		return "armed"
	case BarrierReleased:
		return "released"
	case BarrierBroken:
		return "broken"
	}
	return "invalid"
}

// ErrBarrierBroken ...
var ErrBarrierBroken = errors.New("ErrBarrierBroken")

// Barrier is a single-use N-party rendezvous. All Await calls block until
// the Nth party arrives, then all release together. Abort transitions the
// barrier to a permanently broken state: every past and future Await
// returns the broken indication immediately and never blocks.
type Barrier struct {
	cond    *sync.Cond
	size    int
	arrived int
	state   BarrierState
	err     error
	action  func()
}

// NewBarrier returns an armed barrier for size parties. If action is not
// nil it runs exactly once, in the goroutine of the last arrival, before
// the release wakes the others.
func NewBarrier(size int, action func()) *Barrier {
	return &Barrier{
		cond:   sync.NewCond(&sync.Mutex{}),
		size:   size,
		action: action,
	}
}

// Await arrives at the barrier and suspends until all parties arrived or
// the barrier was aborted. On a released barrier it returns nil
// immediately; on a broken one the abort error.
func (b *Barrier) Await() error {
	b.cond.L.Lock()
	defer b.cond.L.Unlock()

	switch b.state {
	case BarrierReleased:
		return nil
	case BarrierBroken:
		return b.brokenErrLocked()
	}

	b.arrived++
	if b.arrived == b.size {
		if b.action != nil {
			b.action()
		}
		b.state = BarrierReleased
		b.cond.Broadcast()
		return nil
	}

	for b.state == BarrierArmed {
		b.cond.Wait()
	}

	if b.state == BarrierBroken {
		return b.brokenErrLocked()
	}
	return nil
}

// Abort breaks the barrier with error and wakes suspended parties. The
// first abort error sticks. Released and broken are both terminal: a
// barrier that already released stays released.
func (b *Barrier) Abort(err error) {
	b.cond.L.Lock()
	defer b.cond.L.Unlock()

	if b.state != BarrierArmed {
		return
	}

	b.state = BarrierBroken
	b.err = err
	b.cond.Broadcast()
}

func (b *Barrier) brokenErrLocked() error {
	if b.err != nil {
		return b.err
	}
	return ErrBarrierBroken
}

// State ...
func (b *Barrier) State() BarrierState {
	b.cond.L.Lock()
	defer b.cond.L.Unlock()
	return b.state
}

// Arrived returns the number of parties that arrived so far.
func (b *Barrier) Arrived() int {
	b.cond.L.Lock()
	defer b.cond.L.Unlock()
	return b.arrived
}

// Size returns the number of parties the barrier awaits.
func (b *Barrier) Size() int {
	return b.size
}
