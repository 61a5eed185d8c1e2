// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"time"
)

// DefaultPollInterval is the idle re-check interval used when WaitOptions
// does not set one. Appends wake log waits immediately; the tick is the
// fallback for live-state predicates and acts as a safety net otherwise.
const DefaultPollInterval = 250 * time.Millisecond

// WaitOptions bounds a single wait operation. Timeout must be sized
// explicitly by the caller; there is no implicit infinite wait.
type WaitOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

func (o WaitOptions) withDefaults() WaitOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	return o
}

// WaitMatch blocks until the log contains a record matching match, the
// timeout elapses, or sig is raised. Every cycle re-scans the current
// snapshot from the front, so the first matching record wins regardless
// of append/wait interleaving. Timeout is reported as ok == false with a
// nil error; a raised signal as ErrRunAborted.
func (l *EventLog[T]) WaitMatch(sig *AbortSignal, match func(T) bool, opts WaitOptions) (T, bool, error) {
	return l.waitScan(sig, match, opts, false)
}

// WaitMatchRemove waits like WaitMatch and removes the matched record
// from the log in the same scan.
func (l *EventLog[T]) WaitMatchRemove(sig *AbortSignal, match func(T) bool, opts WaitOptions) (T, bool, error) {
	return l.waitScan(sig, match, opts, true)
}

func (l *EventLog[T]) waitScan(sig *AbortSignal, match func(T) bool, opts WaitOptions, remove bool) (T, bool, error) {
	var zero T
	opts = opts.withDefaults()

	deadline := time.NewTimer(opts.Timeout)
	defer deadline.Stop()
	tick := time.NewTicker(opts.PollInterval)
	defer tick.Stop()

	for {
		if err := sig.Check(); err != nil {
			return zero, false, err
		}

		// The wake channel is captured before the scan: an append racing
		// the scan closes the captured channel and the select falls
		// through to the next cycle.
		appended := l.Signaled()

		var (
			rec T
			ok  bool
		)
		if remove {
			rec, ok = l.MatchRemove(match)
		} else {
			rec, ok = l.Match(match)
		}
		if ok {
			return rec, true, nil
		}

		select {
		case <-appended:
		case <-tick.C:
		case <-deadline.C:
			return zero, false, nil
		case <-sig.Done():
			return zero, false, ErrRunAborted
		}
	}
}

// WaitCond blocks until cond evaluates true over live external state, the
// timeout elapses, or sig is raised. cond is re-evaluated every poll
// interval and must not block. Timeout is reported as false with a nil
// error; a raised signal as ErrRunAborted.
func WaitCond(sig *AbortSignal, cond func() bool, opts WaitOptions) (bool, error) {
	opts = opts.withDefaults()

	deadline := time.NewTimer(opts.Timeout)
	defer deadline.Stop()
	tick := time.NewTicker(opts.PollInterval)
	defer tick.Stop()

	for {
		if err := sig.Check(); err != nil {
			return false, err
		}

		if cond() {
			return true, nil
		}

		select {
		case <-tick.C:
		case <-deadline.C:
			return false, nil
		case <-sig.Done():
			return false, ErrRunAborted
		}
	}
}
