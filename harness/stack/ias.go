// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"sync"
	"time"

	"btharness/harness/core"
	"btharness/harness/core/statejson"
)

// Alert levels.
const (
	AlertLevelNone = 0
	AlertLevelMild = 1
	AlertLevelHigh = 2
)

// Ias tracks the immediate-alert level written by the peer. The level
// is unknown until the first write.
type Ias struct {
	sig      *core.AbortSignal
	defaults core.WaitOptions

	mu       sync.Mutex
	level    int
	levelSet bool
}

func newIas(sig *core.AbortSignal, defaults core.WaitOptions) *Ias {
	return &Ias{sig: sig, defaults: defaults}
}

// SetAlertLevel records the alert level written by the peer.
func (i *Ias) SetAlertLevel(level int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.level = level
	i.levelSet = true
}

// AlertLevel returns the recorded level, false before the first write.
func (i *Ias) AlertLevel() (int, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.level, i.levelSet
}

func (i *Ias) isLevel(level int) bool {
	current, ok := i.AlertLevel()
	return ok && current == level
}

// WaitMildAlert blocks until the mild alert level is active.
func (i *Ias) WaitMildAlert(timeout time.Duration) (bool, error) {
	return core.WaitCond(i.sig, func() bool { return i.isLevel(AlertLevelMild) }, waitOpts(i.defaults, timeout))
}

// WaitHighAlert blocks until the high alert level is active.
func (i *Ias) WaitHighAlert(timeout time.Duration) (bool, error) {
	return core.WaitCond(i.sig, func() bool { return i.isLevel(AlertLevelHigh) }, waitOpts(i.defaults, timeout))
}

// WaitStopAlert blocks until alerting stopped.
func (i *Ias) WaitStopAlert(timeout time.Duration) (bool, error) {
	return core.WaitCond(i.sig, func() bool { return i.isLevel(AlertLevelNone) }, waitOpts(i.defaults, timeout))
}

func (i *Ias) describe() statejson.FacadeDescription {
	return statejson.FacadeDescription{
		Name: "ias",
		Logs: []statejson.EventLogDescription{},
		Flags: map[string]bool{
			"mildAlert": i.isLevel(AlertLevelMild),
			"highAlert": i.isLevel(AlertLevelHigh),
		},
	}
}
