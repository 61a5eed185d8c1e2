// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"sync"

	"github.com/anacrolix/chansync"

	log "github.com/sirupsen/logrus"
)

// EventLog is an ordered, append-only sequence of records for one event
// category. Append and scan are mutually exclusive; readers observe
// snapshots taken under the lock and never a partially appended record.
// Appends wake blocked waits.
type EventLog[T any] struct {
	category string

	mu       sync.Mutex
	records  []T
	appended chansync.BroadcastCond
}

// NewEventLog returns an empty log for the given category.
func NewEventLog[T any](category string) *EventLog[T] {
	return &EventLog[T]{category: category}
}

// Category ...
func (l *EventLog[T]) Category() string {
	return l.category
}

// Append adds rec at the tail of the log and wakes blocked waits.
// Safe to call concurrently with any number of in-flight waits.
func (l *EventLog[T]) Append(rec T) {
	l.mu.Lock()
	l.records = append(l.records, rec)
	n := len(l.records)
	l.mu.Unlock()

	l.appended.Broadcast()
	log.Debugf("eventlog %s: appended record %d", l.category, n)
}

// Snapshot returns a copy of the current record sequence.
func (l *EventLog[T]) Snapshot() []T {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]T, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the current record count.
func (l *EventLog[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Clear drops all records. Blocked waits are not woken; they re-scan on
// their next cycle and keep waiting.
func (l *EventLog[T]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
}

// Signaled returns a channel closed by the next Append. Callers capture
// it before scanning so an append racing the scan still wakes them.
func (l *EventLog[T]) Signaled() <-chan struct{} {
	return l.appended.Signaled()
}

// Match scans the log in order and returns the first record for which
// match holds.
func (l *EventLog[T]) Match(match func(T) bool) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scanLocked(match, false)
}

// MatchRemove scans like Match and additionally removes the matched
// record. Scan and removal happen under one lock hold, so exactly the
// matched record is removed, never an equal record appended meanwhile.
func (l *EventLog[T]) MatchRemove(match func(T) bool) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scanLocked(match, true)
}

func (l *EventLog[T]) scanLocked(match func(T) bool, remove bool) (T, bool) {
	for i, rec := range l.records {
		if !l.safeMatch(match, rec) {
			continue
		}
		if remove {
			l.records = append(l.records[:i], l.records[i+1:]...)
		}
		return rec, true
	}
	var zero T
	return zero, false
}

// safeMatch evaluates match, treating a predicate panic as a non-match.
// A malformed record must not kill the wait loop of every other caller.
func (l *EventLog[T]) safeMatch(match func(T) bool, rec T) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("eventlog %s: predicate panic, skipping record: %v", l.category, r)
			ok = false
		}
	}()
	return match(rec)
}
