// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"sync"

	"btharness/harness/appctx"
	"btharness/harness/fatalerror"

	log "github.com/sirupsen/logrus"
)

// Watchdog couples the process-wide abort signal to the synchronization
// registry: once the signal is raised, every barrier and turn wait is
// canceled so no participant outlives the run.
type Watchdog struct {
	cancelOnce sync.Once
	stopOnce   sync.Once
	synch      *Synch
	appCtx     appctx.ApplicationContext
	mutedMutex sync.Mutex
	muted      bool
	stopChan   chan struct{}
	doneChan   chan struct{}
}

// NewWatchdog returns a new instance of a Watchdog.
func NewWatchdog(synch *Synch, appCtx appctx.ApplicationContext) *Watchdog {
	return &Watchdog{
		synch:      synch,
		appCtx:     appCtx,
		mutedMutex: sync.Mutex{},
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
	}
}

// Mute suppresses the fatal error record for a deliberate shutdown.
func (w *Watchdog) Mute() {
	w.mutedMutex.Lock()
	defer w.mutedMutex.Unlock()
	w.muted = true
}

func (w *Watchdog) Unmute() {
	w.mutedMutex.Lock()
	defer w.mutedMutex.Unlock()
	w.muted = false
}

func (w *Watchdog) Muted() bool {
	w.mutedMutex.Lock()
	defer w.mutedMutex.Unlock()
	return w.muted
}

// Start observes sig in a separate goroutine until the signal is raised
// or the watchdog is stopped.
func (w *Watchdog) Start(sig *AbortSignal) {
	go func() {
		defer close(w.doneChan)

		select {
		case <-sig.Done():
			reason := sig.Reason()
			if !w.Muted() {
				appctx.StoreFirstFatalError(w.appCtx, fatalerror.RunAborted)
				log.Warnf("watchdog: run aborted: %s", reason)
			}
			w.CancelSynch(reason)
		case <-w.stopChan:
		}
	}()
}

// CancelSynch cancels all active scenario elements with err.
func (w *Watchdog) CancelSynch(err error) {
	// The following block protects us from overwriting the error
	// which was first used to cancel the registry.
	w.cancelOnce.Do(func() {
		log.Debugf("watchdog: canceling synch: %s", err)
		w.synch.CancelAll(err)
	})
}

// Stop detaches the watchdog from the signal and waits for the observer
// goroutine to exit. Safe to call more than once.
func (w *Watchdog) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
	})
	<-w.doneChan
}
