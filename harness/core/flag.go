// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"errors"
	"sync"
	"time"

	"github.com/anacrolix/chansync"
)

// ErrSynchAborted is returned by flag and turn waits interrupted by a
// scenario abort.
var ErrSynchAborted = errors.New("ErrSynchAborted")

// Flag is a boolean completion signal: settable, waitable and resettable.
// One writer sets it, any number of readers wait on it. Scenario points
// reuse their flag across retried runs, so Clear must restore it to a
// clean waitable state.
type Flag struct {
	mu      sync.Mutex
	set     bool
	changed chansync.BroadcastCond
}

// NewFlag returns a new cleared flag.
func NewFlag() *Flag {
	return &Flag{}
}

// Set raises the flag and wakes waiters.
func (f *Flag) Set() {
	f.mu.Lock()
	f.set = true
	f.mu.Unlock()

	f.changed.Broadcast()
}

// Clear lowers the flag and wakes waiters so they re-arm against the
// fresh state.
func (f *Flag) Clear() {
	f.mu.Lock()
	f.set = false
	f.mu.Unlock()

	f.changed.Broadcast()
}

// IsSet ...
func (f *Flag) IsSet() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.set
}

// Signaled returns a channel closed on the next Set or Clear.
func (f *Flag) Signaled() <-chan struct{} {
	return f.changed.Signaled()
}

// WaitSet blocks until the flag is set or cancel is closed, in which case
// ErrSynchAborted is returned. Used for turn-order waits where the cancel
// channel is the owning scenario's broken indication.
func (f *Flag) WaitSet(cancel <-chan struct{}) error {
	for {
		changed := f.Signaled()
		if f.IsSet() {
			return nil
		}

		select {
		case <-changed:
		case <-cancel:
			return ErrSynchAborted
		}
	}
}

// WaitSetFor blocks until the flag is set, the timeout elapses, or sig is
// raised. Timeout is reported as false with a nil error.
func (f *Flag) WaitSetFor(sig *AbortSignal, timeout time.Duration) (bool, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		if err := sig.Check(); err != nil {
			return false, err
		}

		changed := f.Signaled()
		if f.IsSet() {
			return true, nil
		}

		select {
		case <-changed:
		case <-deadline.C:
			return false, nil
		case <-sig.Done():
			return false, ErrRunAborted
		}
	}
}
