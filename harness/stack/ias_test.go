// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"testing"
	"time"

	"btharness/harness/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIas() *Ias {
	return newIas(core.NewAbortSignal(), testOpts())
}

func TestIasLevelUnknownBeforeFirstWrite(t *testing.T) {
	i := newTestIas()

	_, ok := i.AlertLevel()
	assert.False(t, ok)
}

func TestIasWaitHighAlert(t *testing.T) {
	i := newTestIas()

	time.AfterFunc(20*time.Millisecond, func() { i.SetAlertLevel(AlertLevelHigh) })

	ok, err := i.WaitHighAlert(time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	level, set := i.AlertLevel()
	assert.True(t, set)
	assert.Equal(t, AlertLevelHigh, level)
}

func TestIasWaitMildAlertTimeout(t *testing.T) {
	i := newTestIas()
	i.SetAlertLevel(AlertLevelHigh)

	ok, err := i.WaitMildAlert(50 * time.Millisecond)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestIasWaitStopAlert(t *testing.T) {
	i := newTestIas()
	i.SetAlertLevel(AlertLevelHigh)

	time.AfterFunc(20*time.Millisecond, func() { i.SetAlertLevel(AlertLevelNone) })

	ok, err := i.WaitStopAlert(time.Second)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestIasWaitStopAlertRequiresWrite(t *testing.T) {
	i := newTestIas()

	// Never alerted is not the same as stopped.
	ok, err := i.WaitStopAlert(50 * time.Millisecond)
	assert.NoError(t, err)
	assert.False(t, ok)
}
