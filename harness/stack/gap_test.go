// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"testing"
	"time"

	"btharness/harness/core"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGap() *Gap {
	return newGap(core.NewAbortSignal(), testOpts(), "tester", []byte{0xff, 0x00})
}

func TestGapWaitDiscoveryResult(t *testing.T) {
	gap := newTestGap()
	gap.RecordDiscovery(DiscoveryResult{Addr: "00:1b:dc:07:31:88", RSSI: -40})
	gap.RecordDiscovery(DiscoveryResult{Addr: "00:1b:dc:07:32:03", RSSI: -70})

	res, ok, err := gap.WaitDiscoveryResult("00:1b:dc:07:32:03", false, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int8(-70), res.RSSI)
	assert.Len(t, gap.FoundDevices(), 2)
}

func TestGapWaitDiscoveryResultConsumes(t *testing.T) {
	gap := newTestGap()
	gap.RecordDiscovery(DiscoveryResult{Addr: "00:1b:dc:07:31:88"})

	_, ok, err := gap.WaitDiscoveryResult("00:1b:dc:07:31:88", true, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, gap.FoundDevices())
}

func TestGapWaitDiscoveryResultTimeout(t *testing.T) {
	gap := newTestGap()

	_, ok, err := gap.WaitDiscoveryResult("00:1b:dc:07:31:88", false, 50*time.Millisecond)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestGapResetDiscovery(t *testing.T) {
	gap := newTestGap()
	gap.RecordDiscovery(DiscoveryResult{Addr: "00:1b:dc:07:31:88"})
	require.False(t, gap.Discovering())

	gap.ResetDiscovery()

	assert.True(t, gap.Discovering())
	assert.Empty(t, gap.FoundDevices())
}

func TestGapAdvertisingToggle(t *testing.T) {
	gap := newTestGap()
	assert.False(t, gap.Advertising())

	gap.SetAdvertising(true)
	assert.True(t, gap.Advertising())

	gap.SetAdvertising(false)
	assert.False(t, gap.Advertising())
}

func TestGapConnectionTable(t *testing.T) {
	gap := newTestGap()
	require.Equal(t, 0, gap.ConnectionCount())

	gap.RecordConnected(Connection{
		AddrType: 1,
		Addr:     "00:1b:dc:07:31:88",
		Params:   ConnParams{ConnItvlMin: 24, ConnItvlMax: 40},
	})

	assert.True(t, gap.IsConnected("00:1b:dc:07:31:88"))
	assert.Equal(t, 1, gap.ConnectionCount())

	conn, ok := gap.Connection("00:1b:dc:07:31:88")
	require.True(t, ok)
	assert.Equal(t, uint16(24), conn.Params.ConnItvlMin)

	gap.RecordDisconnected("00:1b:dc:07:31:88")
	assert.False(t, gap.IsConnected("00:1b:dc:07:31:88"))
	assert.Equal(t, 0, gap.ConnectionCount())
}

func TestGapDisconnectUnknownAddressTolerated(t *testing.T) {
	gap := newTestGap()

	gap.RecordDisconnected("00:1b:dc:07:31:88")

	assert.Equal(t, 0, gap.ConnectionCount())
}

func TestGapWaitConnected(t *testing.T) {
	gap := newTestGap()

	time.AfterFunc(20*time.Millisecond, func() {
		gap.RecordConnected(Connection{Addr: "00:1b:dc:07:31:88"})
	})

	ok, err := gap.WaitConnected("00:1b:dc:07:31:88", time.Second)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestGapWaitConnections(t *testing.T) {
	gap := newTestGap()
	gap.RecordConnected(Connection{Addr: "00:1b:dc:07:31:88"})

	ok, err := gap.WaitConnections(2, 50*time.Millisecond)
	require.NoError(t, err)
	require.False(t, ok)

	gap.RecordConnected(Connection{Addr: "00:1b:dc:07:32:03"})

	ok, err = gap.WaitConnections(2, time.Second)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestGapWaitDisconnected(t *testing.T) {
	gap := newTestGap()
	gap.RecordConnected(Connection{Addr: "00:1b:dc:07:31:88"})

	time.AfterFunc(20*time.Millisecond, func() {
		gap.RecordDisconnected("00:1b:dc:07:31:88")
	})

	ok, err := gap.WaitDisconnected("00:1b:dc:07:31:88", time.Second)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestGapWaitPasskey(t *testing.T) {
	gap := newTestGap()
	_, set := gap.Passkey()
	require.False(t, set)

	time.AfterFunc(20*time.Millisecond, func() { gap.SetPasskey(915605) })

	passkey, ok, err := gap.WaitPasskey(time.Second)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(915605), passkey)
}

func TestGapWaitAborted(t *testing.T) {
	sig := core.NewAbortSignal()
	gap := newGap(sig, testOpts(), "tester", nil)

	errs := make(chan error, 1)
	go func() {
		_, err := gap.WaitConnected("00:1b:dc:07:31:88", 30*time.Second)
		errs <- err
	}()

	sig.Raise(errors.New("power loss"))
	assert.Equal(t, core.ErrRunAborted, <-errs)
}
