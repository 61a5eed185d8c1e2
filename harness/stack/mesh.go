// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"bytes"
	"time"

	"btharness/harness/core"
	"btharness/harness/core/statejson"
)

// NetPacket is one network-layer PDU observed by the node.
type NetPacket struct {
	TTL     uint8
	CTL     uint8
	Src     uint16
	Dst     uint16
	Payload []byte
}

// ModelMessage is one access-layer message delivered to a model.
type ModelMessage struct {
	Src     uint16
	Dst     uint16
	Payload []byte
}

// Mesh tracks provisioning progress and the traffic a mesh node
// received. DevUUID identifies the device and survives a stack reset.
type Mesh struct {
	DevUUID string

	sig      *core.AbortSignal
	defaults core.WaitOptions

	provisioned   *core.Flag
	netPackets    *core.EventLog[NetPacket]
	modelMessages *core.EventLog[ModelMessage]
}

func newMesh(sig *core.AbortSignal, defaults core.WaitOptions, devUUID string) *Mesh {
	return &Mesh{
		DevUUID:       devUUID,
		sig:           sig,
		defaults:      defaults,
		provisioned:   core.NewFlag(),
		netPackets:    core.NewEventLog[NetPacket]("mesh-net"),
		modelMessages: core.NewEventLog[ModelMessage]("mesh-model"),
	}
}

// SetProvisioned ...
func (m *Mesh) SetProvisioned(on bool) {
	if on {
		m.provisioned.Set()
	} else {
		m.provisioned.Clear()
	}
}

// Provisioned ...
func (m *Mesh) Provisioned() bool {
	return m.provisioned.IsSet()
}

// WaitProvisioned blocks until the node reports provisioning complete.
func (m *Mesh) WaitProvisioned(timeout time.Duration) (bool, error) {
	opts := waitOpts(m.defaults, timeout)
	return m.provisioned.WaitSetFor(m.sig, opts.Timeout)
}

// RecordNetPacket appends one network PDU to the log.
func (m *Mesh) RecordNetPacket(p NetPacket) {
	m.netPackets.Append(p)
}

// NetPackets returns a snapshot of the network PDU log.
func (m *Mesh) NetPackets() []NetPacket {
	return m.netPackets.Snapshot()
}

// WaitNetPacket blocks until a PDU from src to dst shows up.
func (m *Mesh) WaitNetPacket(src, dst uint16, timeout time.Duration) (NetPacket, bool, error) {
	return m.netPackets.WaitMatch(m.sig, func(p NetPacket) bool {
		return p.Src == src && p.Dst == dst
	}, waitOpts(m.defaults, timeout))
}

// RecordModelMessage appends one access-layer message to the log.
func (m *Mesh) RecordModelMessage(msg ModelMessage) {
	m.modelMessages.Append(msg)
}

// WaitModelMessage blocks until a message whose payload starts with op
// arrives, consuming it.
func (m *Mesh) WaitModelMessage(op []byte, timeout time.Duration) (ModelMessage, bool, error) {
	return m.modelMessages.WaitMatchRemove(m.sig, func(msg ModelMessage) bool {
		return bytes.HasPrefix(msg.Payload, op)
	}, waitOpts(m.defaults, timeout))
}

func (m *Mesh) describe() statejson.FacadeDescription {
	return statejson.FacadeDescription{
		Name: "mesh",
		Logs: []statejson.EventLogDescription{
			describeLog(m.netPackets),
			describeLog(m.modelMessages),
		},
		Flags: map[string]bool{"provisioned": m.Provisioned()},
	}
}
