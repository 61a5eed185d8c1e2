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

func newTestL2cap() *L2cap {
	return newL2cap(core.NewAbortSignal(), testOpts(), 128, 96)
}

func TestL2capClientSettings(t *testing.T) {
	l := newTestL2cap()
	assert.Equal(t, 128, l.PSM())
	assert.Equal(t, 96, l.InitialMTU())
	assert.Equal(t, 2, l.NumChannels())
	assert.Equal(t, 0, l.HoldCredits())

	l.SetPSM(241)
	l.SetInitialMTU(64)
	l.SetNumChannels(1)
	l.SetHoldCredits(10)

	assert.Equal(t, 241, l.PSM())
	assert.Equal(t, 64, l.InitialMTU())
	assert.Equal(t, 1, l.NumChannels())
	assert.Equal(t, 10, l.HoldCredits())
}

func TestL2capConnectDisconnect(t *testing.T) {
	l := newTestL2cap()

	l.Connected(0, ChannelParams{PSM: 128, PeerMTU: 23, PeerAddr: "00:1b:dc:07:31:88"})
	require.True(t, l.IsConnected(0))

	ch, ok := l.Channel(0)
	require.True(t, ok)
	assert.Equal(t, ChanStateConnected, ch.State())
	assert.Equal(t, 23, ch.Params().PeerMTU)

	l.Disconnected(0, L2capNoResources)
	assert.False(t, l.IsConnected(0))
	_, ok = l.Channel(0)
	assert.False(t, ok)

	assert.Equal(t, ChanStateDisconnected, ch.State())
	assert.Equal(t, L2capNoResources, ch.DisconnReason())
	assert.Equal(t, ChannelParams{}, ch.Params())
}

func TestL2capConnectTwiceUpdatesParams(t *testing.T) {
	l := newTestL2cap()

	l.Connected(0, ChannelParams{PeerMTU: 23})
	l.Connected(0, ChannelParams{PeerMTU: 64})

	ch, ok := l.Channel(0)
	require.True(t, ok)
	assert.Equal(t, 64, ch.Params().PeerMTU)
}

func TestL2capDisconnectUnknownChannelTolerated(t *testing.T) {
	l := newTestL2cap()

	l.Disconnected(7, L2capSuccess)

	assert.False(t, l.IsConnected(7))
}

func TestL2capReconfigured(t *testing.T) {
	l := newTestL2cap()
	l.Connected(0, ChannelParams{PSM: 128, PeerMTU: 23, PeerMPS: 23})

	l.Reconfigured(0, ChannelParams{PeerMTU: 100, PeerMPS: 80, OurMTU: 96, OurMPS: 64})

	ch, ok := l.Channel(0)
	require.True(t, ok)
	params := ch.Params()
	assert.Equal(t, 100, params.PeerMTU)
	assert.Equal(t, 80, params.PeerMPS)
	assert.Equal(t, 96, params.OurMTU)
	assert.Equal(t, 64, params.OurMPS)
	assert.Equal(t, 128, params.PSM)
}

func TestL2capWaitConnected(t *testing.T) {
	l := newTestL2cap()

	time.AfterFunc(20*time.Millisecond, func() {
		l.Connected(0, ChannelParams{PSM: 128})
	})

	ok, err := l.WaitConnected(0, time.Second)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestL2capWaitDisconnected(t *testing.T) {
	l := newTestL2cap()
	l.Connected(0, ChannelParams{PSM: 128})

	time.AfterFunc(20*time.Millisecond, func() {
		l.Disconnected(0, L2capSuccess)
	})

	ok, err := l.WaitDisconnected(0, time.Second)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestL2capWaitDisconnectedUnknownChannel(t *testing.T) {
	l := newTestL2cap()

	// Never registered counts as not connected.
	ok, err := l.WaitDisconnected(5, time.Second)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestL2capDataLogs(t *testing.T) {
	l := newTestL2cap()
	l.Connected(0, ChannelParams{PSM: 128})

	l.Rx(0, []byte{0x01})
	l.Rx(0, []byte{0x02})
	l.Tx(0, []byte{0x03})

	ch, ok := l.Channel(0)
	require.True(t, ok)
	assert.Equal(t, [][]byte{{0x01}, {0x02}}, ch.RxData())
	assert.Equal(t, [][]byte{{0x03}}, ch.TxData())
}

func TestL2capRxUnknownChannelDropped(t *testing.T) {
	l := newTestL2cap()

	l.Rx(9, []byte{0x01})
	l.Tx(9, []byte{0x02})

	_, ok := l.Channel(9)
	assert.False(t, ok)
}

func TestL2capWaitRxData(t *testing.T) {
	l := newTestL2cap()
	l.Connected(0, ChannelParams{PSM: 128})

	time.AfterFunc(20*time.Millisecond, func() {
		l.Rx(0, []byte{0xde, 0xad})
	})

	data, ok, err := l.WaitRxData(0, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, data, 1)
	assert.Equal(t, []byte{0xde, 0xad}, data[0])
}

func TestL2capWaitRxDataUnknownChannel(t *testing.T) {
	l := newTestL2cap()

	start := time.Now()
	data, ok, err := l.WaitRxData(9, 30*time.Second)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
	assert.True(t, time.Since(start) < 5*time.Second)
}

func TestL2capClearData(t *testing.T) {
	l := newTestL2cap()
	l.Connected(0, ChannelParams{PSM: 128})
	l.Connected(1, ChannelParams{PSM: 128})
	l.Rx(0, []byte{0x01})
	l.Tx(1, []byte{0x02})

	l.ClearData()

	first, _ := l.Channel(0)
	second, _ := l.Channel(1)
	assert.Empty(t, first.RxData())
	assert.Empty(t, second.TxData())
}
