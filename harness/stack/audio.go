// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"time"

	"btharness/harness/core"
	"btharness/harness/core/statejson"
)

// StreamRx is one audio frame received on an established stream.
type StreamRx struct {
	AddrType uint8
	Addr     string
	ASEID    uint8
	Data     []byte
}

// Bap tracks broadcast/unicast audio stream traffic.
type Bap struct {
	sig      *core.AbortSignal
	defaults core.WaitOptions

	streams *core.EventLog[StreamRx]
}

func newBap(sig *core.AbortSignal, defaults core.WaitOptions) *Bap {
	return &Bap{
		sig:      sig,
		defaults: defaults,
		streams:  core.NewEventLog[StreamRx]("bap-stream-rx"),
	}
}

// RecordStreamReceived appends one received frame to the stream log.
func (b *Bap) RecordStreamReceived(rx StreamRx) {
	b.streams.Append(rx)
}

// WaitStreamReceived blocks until a frame from addr on the given ASE
// shows up, consuming it.
func (b *Bap) WaitStreamReceived(addr string, aseID uint8, timeout time.Duration) (StreamRx, bool, error) {
	return b.streams.WaitMatchRemove(b.sig, func(rx StreamRx) bool {
		return rx.Addr == addr && rx.ASEID == aseID
	}, waitOpts(b.defaults, timeout))
}

func (b *Bap) describe() statejson.FacadeDescription {
	return statejson.FacadeDescription{
		Name:  "bap",
		Logs:  []statejson.EventLogDescription{describeLog(b.streams)},
		Flags: map[string]bool{},
	}
}

// OperationComplete reports the outcome of one control operation on an
// ASE.
type OperationComplete struct {
	AddrType uint8
	Addr     string
	ASEID    uint8
	Opcode   uint8
	Status   uint8
}

// ASEState is one observed state transition of an ASE.
type ASEState struct {
	AddrType uint8
	Addr     string
	ASEID    uint8
	State    uint8
}

// Ascs tracks audio stream control state transitions and operation
// completions.
type Ascs struct {
	sig      *core.AbortSignal
	defaults core.WaitOptions

	opsComplete *core.EventLog[OperationComplete]
	aseStates   *core.EventLog[ASEState]
}

func newAscs(sig *core.AbortSignal, defaults core.WaitOptions) *Ascs {
	return &Ascs{
		sig:         sig,
		defaults:    defaults,
		opsComplete: core.NewEventLog[OperationComplete]("ascs-op-complete"),
		aseStates:   core.NewEventLog[ASEState]("ascs-ase-state"),
	}
}

// RecordOperationComplete ...
func (a *Ascs) RecordOperationComplete(op OperationComplete) {
	a.opsComplete.Append(op)
}

// WaitOperationComplete blocks until an operation on the given ASE of
// addr completed, consuming the record.
func (a *Ascs) WaitOperationComplete(addr string, aseID uint8, timeout time.Duration) (OperationComplete, bool, error) {
	return a.opsComplete.WaitMatchRemove(a.sig, func(op OperationComplete) bool {
		return op.Addr == addr && op.ASEID == aseID
	}, waitOpts(a.defaults, timeout))
}

// RecordASEState ...
func (a *Ascs) RecordASEState(s ASEState) {
	a.aseStates.Append(s)
}

// WaitASEState blocks until the given ASE of addr reached state,
// consuming the record.
func (a *Ascs) WaitASEState(addr string, aseID uint8, state uint8, timeout time.Duration) (ASEState, bool, error) {
	return a.aseStates.WaitMatchRemove(a.sig, func(s ASEState) bool {
		return s.Addr == addr && s.ASEID == aseID && s.State == state
	}, waitOpts(a.defaults, timeout))
}

func (a *Ascs) describe() statejson.FacadeDescription {
	return statejson.FacadeDescription{
		Name: "ascs",
		Logs: []statejson.EventLogDescription{
			describeLog(a.opsComplete),
			describeLog(a.aseStates),
		},
		Flags: map[string]bool{},
	}
}
