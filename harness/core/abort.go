// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"errors"
	"sync"

	"github.com/anacrolix/chansync"

	log "github.com/sirupsen/logrus"
)

// ErrRunAborted is returned by waits interrupted by a raised AbortSignal.
var ErrRunAborted = errors.New("ErrRunAborted")

// AbortSignal is the run-wide cooperative cancellation flag. Every wait in
// the harness observes it on each cycle; once raised it never clears, and
// all in-flight waits abort promptly with ErrRunAborted.
//
// One signal exists per harness session and is passed explicitly to every
// component that blocks.
type AbortSignal struct {
	raised chansync.SetOnce

	mu     sync.Mutex
	reason error
}

// NewAbortSignal returns a new, unraised abort signal.
func NewAbortSignal() *AbortSignal {
	return &AbortSignal{}
}

// Raise marks the run as aborted and wakes every blocked wait. The first
// reason sticks; later calls are no-ops.
func (s *AbortSignal) Raise(reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.raised.IsSet() {
		log.Debugf("Abort already raised, omitting reason: %s", reason)
		return
	}

	s.reason = reason
	s.raised.Set()
	log.Warnf("Run abort raised: %s", reason)
}

// Raised reports whether the signal has been raised.
func (s *AbortSignal) Raised() bool {
	return s.raised.IsSet()
}

// Done returns a channel closed when the signal is raised.
func (s *AbortSignal) Done() <-chan struct{} {
	return s.raised.Done()
}

// Reason returns the first abort reason, or nil if not raised.
func (s *AbortSignal) Reason() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Check returns nil while the run is live and ErrRunAborted once the
// signal has been raised. Wait loops call it at the top of every cycle.
func (s *AbortSignal) Check() error {
	if s.raised.IsSet() {
		return ErrRunAborted
	}
	return nil
}
