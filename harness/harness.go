// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package harness

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"btharness/harness/appctx"
	"btharness/harness/config"
	"btharness/harness/core"
	"btharness/harness/core/statejson"
	"btharness/harness/stack"

	log "github.com/sirupsen/logrus"
)

// Harness wires one run together: the abort signal, the scenario
// registry, the protocol state facades and the application context
// carrying session metadata. One harness serves one run; after a
// canceled run a new harness is built.
type Harness struct {
	cfg      *config.Config
	appCtx   appctx.ApplicationContext
	sig      *core.AbortSignal
	synch    *core.Synch
	stack    *stack.Stack
	watchdog *core.Watchdog
}

// New assembles a harness from cfg and starts its watchdog.
func New(cfg *config.Config) *Harness {
	appCtx := appctx.NewApplicationContext()
	appctx.StoreSessionID(appCtx, uuid.New().String())

	sig := core.NewAbortSignal()
	synch := core.NewSynch(sig)

	defaults := core.WaitOptions{
		Timeout:      cfg.DefaultTimeout(),
		PollInterval: cfg.PollInterval(),
	}

	watchdog := core.NewWatchdog(synch, appCtx)
	watchdog.Start(sig)

	h := &Harness{
		cfg:      cfg,
		appCtx:   appCtx,
		sig:      sig,
		synch:    synch,
		stack:    stack.New(sig, defaults, cfg.CarryOverEvents),
		watchdog: watchdog,
	}

	// Event ingress needs the core queues before any facade init request.
	h.stack.InitCore()

	log.Infof("harness: session %s ready", appctx.GetSessionID(appCtx))
	return h
}

// AppCtx ...
func (h *Harness) AppCtx() appctx.ApplicationContext {
	return h.appCtx
}

// Sig returns the run's abort signal.
func (h *Harness) Sig() *core.AbortSignal {
	return h.sig
}

// Synch returns the scenario registry.
func (h *Harness) Synch() *core.Synch {
	return h.synch
}

// Stack returns the facade aggregate.
func (h *Harness) Stack() *stack.Stack {
	return h.stack
}

// Config ...
func (h *Harness) Config() *config.Config {
	return h.cfg
}

// CancelRun raises the abort signal. The watchdog observes it, records
// the fatal error and cancels every scenario element, so every blocked
// wait in the harness unwinds with a failure indication.
func (h *Harness) CancelRun(reason error) {
	h.sig.Raise(reason)
}

// Shutdown cancels the run for a deliberate stop: no fatal error is
// recorded. Blocks until the watchdog finished canceling.
func (h *Harness) Shutdown(reason error) {
	h.watchdog.Mute()
	h.sig.Raise(reason)
	h.watchdog.Stop()
}

// Reset prepares the harness for the next test case: the scenario
// registry is cleared, facades reinitialize honoring carry-over, and a
// fresh session id is issued. Resetting a run that is mid-abort is
// refused; build a new harness instead.
func (h *Harness) Reset() error {
	if err := h.sig.Check(); err != nil {
		return errors.Wrap(err, "cannot reset while run is aborting")
	}

	h.synch.Reset()
	h.stack.Reset()

	sessionID := uuid.New().String()
	appctx.StoreSessionID(h.appCtx, sessionID)
	log.Infof("harness: reset complete, session %s", sessionID)
	return nil
}

// InternalState captures the harness state for the debug surface.
func (h *Harness) InternalState() *statejson.InternalStateDescription {
	firstFatalError, _ := appctx.LoadFirstFatalError(h.appCtx)

	return &statejson.InternalStateDescription{
		SessionID:       appctx.GetSessionID(h.appCtx),
		Aborted:         h.sig.Raised(),
		FirstFatalError: string(firstFatalError),
		Synch:           h.synch.Describe(),
		Stack:           h.stack.Describe(),
	}
}
