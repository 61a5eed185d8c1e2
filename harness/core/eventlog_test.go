// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventLogAppendOrder(t *testing.T) {
	l := NewEventLog[int]("numbers")
	l.Append(1)
	l.Append(2)
	l.Append(3)

	assert.Equal(t, []int{1, 2, 3}, l.Snapshot())
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, "numbers", l.Category())
}

func TestEventLogSnapshotIsCopy(t *testing.T) {
	l := NewEventLog[int]("numbers")
	l.Append(1)

	snap := l.Snapshot()
	snap[0] = 99

	assert.Equal(t, []int{1}, l.Snapshot())
}

func TestEventLogMatchFirstWins(t *testing.T) {
	l := NewEventLog[int]("numbers")
	l.Append(1)
	l.Append(2)
	l.Append(4)

	rec, ok := l.Match(func(v int) bool { return v%2 == 0 })
	assert.True(t, ok)
	assert.Equal(t, 2, rec)
	assert.Equal(t, 3, l.Len())
}

func TestEventLogMatchRemove(t *testing.T) {
	l := NewEventLog[int]("numbers")
	l.Append(2)
	l.Append(2)
	l.Append(3)

	// Only the record at the first matching position goes away.
	rec, ok := l.MatchRemove(func(v int) bool { return v == 2 })
	assert.True(t, ok)
	assert.Equal(t, 2, rec)
	assert.Equal(t, []int{2, 3}, l.Snapshot())
}

func TestEventLogMatchRemoveMiss(t *testing.T) {
	l := NewEventLog[int]("numbers")
	l.Append(1)

	_, ok := l.MatchRemove(func(v int) bool { return v == 2 })
	assert.False(t, ok)
	assert.Equal(t, 1, l.Len())
}

func TestEventLogClear(t *testing.T) {
	l := NewEventLog[int]("numbers")
	l.Append(1)
	l.Append(2)
	l.Clear()

	assert.Equal(t, 0, l.Len())
	_, ok := l.Match(func(int) bool { return true })
	assert.False(t, ok)
}

func TestEventLogAppendSignals(t *testing.T) {
	l := NewEventLog[int]("numbers")

	signaled := l.Signaled()
	select {
	case <-signaled:
		t.Fatal("signaled before append")
	default:
	}

	l.Append(1)

	select {
	case <-signaled:
	default:
		t.Fatal("append did not signal")
	}
}

func TestEventLogPredicatePanicSkipsRecord(t *testing.T) {
	l := NewEventLog[int]("numbers")
	l.Append(1)
	l.Append(2)

	rec, ok := l.Match(func(v int) bool {
		if v == 1 {
			panic("malformed record")
		}
		return true
	})
	assert.True(t, ok)
	assert.Equal(t, 2, rec)
}
