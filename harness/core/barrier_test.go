// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"
)

func TestBarrierSingleParty(t *testing.T) {
	bar := NewBarrier(1, nil)
	assert.NoError(t, bar.Await())
	assert.Equal(t, BarrierReleased, bar.State())
}

func TestBarrierReleasesAllParties(t *testing.T) {
	bar := NewBarrier(3, nil)

	var errg errgroup.Group
	errg.Go(bar.Await)
	errg.Go(bar.Await)

	assert.NoError(t, bar.Await())
	assert.NoError(t, errg.Wait())
	assert.Equal(t, 3, bar.Arrived())
}

func TestBarrierLateAwait(t *testing.T) {
	bar := NewBarrier(1, nil)
	assert.NoError(t, bar.Await())

	// Released barriers never block again.
	assert.NoError(t, bar.Await())
	assert.Equal(t, 1, bar.Arrived())
}

func TestBarrierAbort(t *testing.T) {
	bar := NewBarrier(2, nil)

	var errg errgroup.Group
	errg.Go(bar.Await)
	bar.Abort(nil)

	assert.Equal(t, ErrBarrierBroken, errg.Wait())
	assert.Equal(t, BarrierBroken, bar.State())
}

func TestBarrierAbortWithError(t *testing.T) {
	bar := NewBarrier(2, nil)

	var errg errgroup.Group
	errg.Go(bar.Await)

	err := errors.New("MyErr")
	bar.Abort(err)

	assert.Equal(t, err, errg.Wait())
}

func TestBarrierAbortErrorSticks(t *testing.T) {
	bar := NewBarrier(2, nil)

	first := errors.New("first")
	bar.Abort(first)
	bar.Abort(errors.New("second"))

	assert.Equal(t, first, bar.Await())
	assert.Equal(t, first, bar.Await())
}

func TestBarrierAbortAfterRelease(t *testing.T) {
	bar := NewBarrier(1, nil)
	assert.NoError(t, bar.Await())

	bar.Abort(errors.New("too late"))
	assert.Equal(t, BarrierReleased, bar.State())
	assert.NoError(t, bar.Await())
}

func TestBarrierUseAfterAbort(t *testing.T) {
	bar := NewBarrier(1, nil)
	err := errors.New("MyErr")
	bar.Abort(err)
	assert.Equal(t, err, bar.Await())
	assert.Equal(t, 0, bar.Arrived())
}

func TestBarrierActionRunsBeforeRelease(t *testing.T) {
	actionRan := false
	bar := NewBarrier(2, func() { actionRan = true })

	var errg errgroup.Group
	errg.Go(func() error {
		if err := bar.Await(); err != nil {
			return err
		}
		if !actionRan {
			return errors.New("released before action ran")
		}
		return nil
	})

	assert.NoError(t, bar.Await())
	assert.NoError(t, errg.Wait())
	assert.True(t, actionRan)
}

func TestBarrierAbortedActionNeverRuns(t *testing.T) {
	actionRan := false
	bar := NewBarrier(2, func() { actionRan = true })

	bar.Abort(nil)
	assert.Equal(t, ErrBarrierBroken, bar.Await())
	assert.Equal(t, ErrBarrierBroken, bar.Await())
	assert.False(t, actionRan)
}

func BenchmarkBarrierAwait(b *testing.B) {
	for n := 0; n < b.N; n++ {
		bar := NewBarrier(2, nil)
		go func() { bar.Await() }()
		if err := bar.Await(); err != nil {
			panic(err)
		}
	}
}

// go test -run=XXX -bench=. -benchtime 1000000x -cpu 1 ./harness/core/
// goos: linux
// goarch: amd64
// BenchmarkBarrierAwait 	 1000000	      2087 ns/op
// PASS
// ok  	btharness/harness/core	2.198s
