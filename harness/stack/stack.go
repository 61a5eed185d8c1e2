// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"sync"
	"time"

	"btharness/harness/core"
	"btharness/harness/core/statejson"

	log "github.com/sirupsen/logrus"
)

// Stack aggregates the per-protocol state facades of one device under
// test. Test cases initialize only the facades they exercise; the rest
// stay nil and lookups against them are answered permissively.
type Stack struct {
	sig      *core.AbortSignal
	defaults core.WaitOptions

	mu     sync.Mutex
	gap    *Gap
	gatt   *Gatt
	gattCl *GattCl
	l2cap  *L2cap
	mesh   *Mesh
	core   *Core
	ias    *Ias
	bap    *Bap
	ascs   *Ascs

	carryOver []string
}

// New returns an empty stack. Waits issued through its facades observe
// sig and fall back to defaults when no explicit timeout is given.
// carryOver names the core event queues preserved across Reset.
func New(sig *core.AbortSignal, defaults core.WaitOptions, carryOver []string) *Stack {
	return &Stack{
		sig:       sig,
		defaults:  defaults,
		carryOver: carryOver,
	}
}

// InitGap creates a fresh link-layer facade, dropping any previous one.
func (s *Stack) InitGap(name string, manufacturerData []byte) *Gap {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gap = newGap(s.sig, s.defaults, name, manufacturerData)
	return s.gap
}

// InitGatt creates a fresh attribute server facade.
func (s *Stack) InitGatt() *Gatt {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gatt = newGatt(s.sig, s.defaults)
	return s.gatt
}

// InitGattCl creates a fresh attribute client facade.
func (s *Stack) InitGattCl() *GattCl {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gattCl = newGattCl(s.sig, s.defaults)
	return s.gattCl
}

// InitL2cap creates a fresh channel facade.
func (s *Stack) InitL2cap(psm int, initialMTU int) *L2cap {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l2cap = newL2cap(s.sig, s.defaults, psm, initialMTU)
	return s.l2cap
}

// InitMesh creates the mesh facade once; later calls return the
// existing one.
func (s *Stack) InitMesh(devUUID string) *Mesh {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mesh == nil {
		s.mesh = newMesh(s.sig, s.defaults, devUUID)
	}
	return s.mesh
}

// InitCore creates the core facade once; a later call drains its queues
// instead, keeping the carry-over categories.
func (s *Stack) InitCore() *Core {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.core == nil {
		s.core = newCore(s.sig, s.defaults, s.carryOver)
	} else {
		s.core.cleanup()
	}
	return s.core
}

// InitIas creates a fresh immediate-alert facade.
func (s *Stack) InitIas() *Ias {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ias = newIas(s.sig, s.defaults)
	return s.ias
}

// InitBap creates a fresh audio stream facade.
func (s *Stack) InitBap() *Bap {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bap = newBap(s.sig, s.defaults)
	return s.bap
}

// InitAscs creates a fresh audio stream control facade.
func (s *Stack) InitAscs() *Ascs {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ascs = newAscs(s.sig, s.defaults)
	return s.ascs
}

// Gap returns the link-layer facade, nil when not initialized.
func (s *Stack) Gap() *Gap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gap
}

// Gatt ...
func (s *Stack) Gatt() *Gatt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gatt
}

// GattCl ...
func (s *Stack) GattCl() *GattCl {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gattCl
}

// L2cap ...
func (s *Stack) L2cap() *L2cap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.l2cap
}

// Mesh ...
func (s *Stack) Mesh() *Mesh {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mesh
}

// Core ...
func (s *Stack) Core() *Core {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.core
}

// Ias ...
func (s *Stack) Ias() *Ias {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ias
}

// Bap ...
func (s *Stack) Bap() *Bap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bap
}

// Ascs ...
func (s *Stack) Ascs() *Ascs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ascs
}

// Reset reinitializes every initialized facade between test cases. Gap
// and mesh keep their device identity, the core facade keeps its
// carry-over queues, and the channel facade is left untouched until the
// next InitL2cap. Callers must re-fetch facade handles afterwards.
func (s *Stack) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Info("stack: resetting facades")

	if s.gap != nil {
		s.gap = newGap(s.sig, s.defaults, s.gap.Name, s.gap.ManufacturerData)
	}
	if s.mesh != nil {
		s.mesh = newMesh(s.sig, s.defaults, s.mesh.DevUUID)
	}
	if s.gatt != nil {
		s.gatt = newGatt(s.sig, s.defaults)
	}
	if s.gattCl != nil {
		s.gattCl = newGattCl(s.sig, s.defaults)
	}
	if s.ias != nil {
		s.ias = newIas(s.sig, s.defaults)
	}
	if s.bap != nil {
		s.bap = newBap(s.sig, s.defaults)
	}
	if s.ascs != nil {
		s.ascs = newAscs(s.sig, s.defaults)
	}
	if s.core != nil {
		s.core.cleanup()
	}
}

// Describe returns the state of all initialized facades for the debug
// surface.
func (s *Stack) Describe() *statejson.StackDescription {
	s.mu.Lock()
	defer s.mu.Unlock()

	desc := &statejson.StackDescription{Facades: []statejson.FacadeDescription{}}
	if s.gap != nil {
		desc.Facades = append(desc.Facades, s.gap.describe())
	}
	if s.gatt != nil {
		desc.Facades = append(desc.Facades, s.gatt.describe())
	}
	if s.gattCl != nil {
		desc.Facades = append(desc.Facades, s.gattCl.describe())
	}
	if s.l2cap != nil {
		desc.Facades = append(desc.Facades, s.l2cap.describe())
	}
	if s.mesh != nil {
		desc.Facades = append(desc.Facades, s.mesh.describe())
	}
	if s.core != nil {
		desc.Facades = append(desc.Facades, s.core.describe())
	}
	if s.ias != nil {
		desc.Facades = append(desc.Facades, s.ias.describe())
	}
	if s.bap != nil {
		desc.Facades = append(desc.Facades, s.bap.describe())
	}
	if s.ascs != nil {
		desc.Facades = append(desc.Facades, s.ascs.describe())
	}
	return desc
}

func describeLog[T any](l *core.EventLog[T]) statejson.EventLogDescription {
	return statejson.EventLogDescription{
		Category: l.Category(),
		Count:    l.Len(),
	}
}

// waitOpts applies an explicit timeout on top of the facade defaults.
// Zero keeps the default.
func waitOpts(defaults core.WaitOptions, timeout time.Duration) core.WaitOptions {
	if timeout > 0 {
		defaults.Timeout = timeout
	}
	return defaults
}
