// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"encoding/json"
	"testing"
	"time"

	"btharness/harness/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOpts() core.WaitOptions {
	return core.WaitOptions{Timeout: 2 * time.Second, PollInterval: 2 * time.Millisecond}
}

func newTestStack(carryOver ...string) *Stack {
	return New(core.NewAbortSignal(), testOpts(), carryOver)
}

func TestStackGettersNilBeforeInit(t *testing.T) {
	s := newTestStack()

	assert.Nil(t, s.Gap())
	assert.Nil(t, s.Gatt())
	assert.Nil(t, s.GattCl())
	assert.Nil(t, s.L2cap())
	assert.Nil(t, s.Mesh())
	assert.Nil(t, s.Core())
	assert.Nil(t, s.Ias())
	assert.Nil(t, s.Bap())
	assert.Nil(t, s.Ascs())
}

func TestStackInitGapStartsFresh(t *testing.T) {
	s := newTestStack()

	first := s.InitGap("tester", []byte{0x0f, 0x0e})
	first.SetAdvertising(true)
	first.RecordConnected(Connection{Addr: "00:1b:dc:07:31:88"})

	s.InitGap("tester", []byte{0x0f, 0x0e})

	assert.False(t, s.Gap().Advertising())
	assert.Equal(t, 0, s.Gap().ConnectionCount())
}

func TestStackInitMeshKeepsFirstInstance(t *testing.T) {
	s := newTestStack()

	s.InitMesh("f0e1d2c3").SetProvisioned(true)
	s.InitMesh("other-uuid")

	assert.Equal(t, "f0e1d2c3", s.Mesh().DevUUID)
	assert.True(t, s.Mesh().Provisioned())
}

func TestStackInitCoreDrainsOnReinit(t *testing.T) {
	s := newTestStack("power-cycled")

	c := s.InitCore()
	c.RegisterQueue("button-pressed")
	require.True(t, c.Append("button-pressed", json.RawMessage(`{}`)))
	require.True(t, c.Append("power-cycled", json.RawMessage(`{}`)))

	again := s.InitCore()
	assert.Same(t, c, again)

	pressed, _ := again.Queue("button-pressed")
	assert.Equal(t, 0, pressed.Len())
	cycled, _ := again.Queue("power-cycled")
	assert.Equal(t, 1, cycled.Len())
}

func TestStackResetKeepsDeviceIdentity(t *testing.T) {
	s := newTestStack()

	gap := s.InitGap("tester", []byte{0x0f, 0x0e})
	gap.SetAdvertising(true)
	gap.RecordConnected(Connection{Addr: "00:1b:dc:07:31:88"})
	s.InitMesh("f0e1d2c3").SetProvisioned(true)

	s.Reset()

	fresh := s.Gap()
	assert.Equal(t, "tester", fresh.Name)
	assert.Equal(t, []byte{0x0f, 0x0e}, fresh.ManufacturerData)
	assert.False(t, fresh.Advertising())
	assert.Equal(t, 0, fresh.ConnectionCount())

	assert.Equal(t, "f0e1d2c3", s.Mesh().DevUUID)
	assert.False(t, s.Mesh().Provisioned())
}

func TestStackResetClearsSessionFacades(t *testing.T) {
	s := newTestStack()

	s.InitGatt().SetAttrValue(0x0003, []byte{0x01})
	s.InitGattCl().AddVerifyValue("0x01")
	s.InitIas().SetAlertLevel(AlertLevelHigh)
	s.InitBap().RecordStreamReceived(StreamRx{Addr: "00:1b:dc:07:31:88", ASEID: 1})
	s.InitAscs().RecordASEState(ASEState{Addr: "00:1b:dc:07:31:88", ASEID: 1, State: 2})

	s.Reset()

	_, ok := s.Gatt().AttrValue(0x0003)
	assert.False(t, ok)
	assert.Empty(t, s.GattCl().VerifyValues())
	_, set := s.Ias().AlertLevel()
	assert.False(t, set)

	_, ok, err := s.Bap().WaitStreamReceived("00:1b:dc:07:31:88", 1, 50*time.Millisecond)
	assert.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = s.Ascs().WaitASEState("00:1b:dc:07:31:88", 1, 2, 50*time.Millisecond)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestStackResetLeavesChannelFacade(t *testing.T) {
	s := newTestStack()

	l2cap := s.InitL2cap(128, 96)
	l2cap.Connected(0, ChannelParams{PSM: 128})

	s.Reset()

	assert.Same(t, l2cap, s.L2cap())
	assert.True(t, s.L2cap().IsConnected(0))
}

func TestStackResetSkipsUninitializedFacades(t *testing.T) {
	s := newTestStack()

	s.Reset()

	assert.Nil(t, s.Gap())
	assert.Nil(t, s.Core())
}

func TestStackResetDrainsCoreQueues(t *testing.T) {
	s := newTestStack()

	c := s.InitCore()
	c.RegisterQueue("button-pressed")
	require.True(t, c.Append("button-pressed", json.RawMessage(`{}`)))
	require.True(t, c.Append(CategoryIutReady, json.RawMessage(`{}`)))

	s.Reset()

	assert.Same(t, c, s.Core())
	pressed, _ := c.Queue("button-pressed")
	assert.Equal(t, 0, pressed.Len())
	ready, _ := c.Queue(CategoryIutReady)
	assert.Equal(t, 1, ready.Len())
}

func TestStackDescribe(t *testing.T) {
	s := newTestStack()
	s.InitGap("tester", nil).RecordDiscovery(DiscoveryResult{Addr: "00:1b:dc:07:31:88"})
	s.InitMesh("f0e1d2c3")
	s.InitCore()

	desc := s.Describe()
	require.Len(t, desc.Facades, 3)

	names := make([]string, 0, len(desc.Facades))
	for _, facade := range desc.Facades {
		names = append(names, facade.Name)
	}
	assert.Equal(t, []string{"gap", "mesh", "core"}, names)

	require.Len(t, desc.Facades[0].Logs, 1)
	assert.Equal(t, "gap-discovery", desc.Facades[0].Logs[0].Category)
	assert.Equal(t, 1, desc.Facades[0].Logs[0].Count)
}

func TestStackDescribeEmpty(t *testing.T) {
	desc := newTestStack().Describe()

	require.NotNil(t, desc)
	assert.Empty(t, desc.Facades)
}
