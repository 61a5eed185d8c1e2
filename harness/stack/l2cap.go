// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"btharness/harness/core"
	"btharness/harness/core/statejson"

	log "github.com/sirupsen/logrus"
)

// Connection response results.
const (
	L2capSuccess              = 0x0000
	L2capUnknownLePSM         = 0x0002
	L2capNoResources          = 0x0004
	L2capInsufficientAuthen   = 0x0005
	L2capInsufficientAuthor   = 0x0006
	L2capInsufficientKeySize  = 0x0007
	L2capInsufficientEnc      = 0x0008
	L2capInvalidSourceCID     = 0x0009
	L2capSourceCIDAlreadyUsed = 0x000a
	L2capUnacceptableParams   = 0x000b
	L2capInvalidParams        = 0x000c
)

// Channel states.
const (
	ChanStateInit         = "init"
	ChanStateConnected    = "connected"
	ChanStateDisconnected = "disconnected"
)

// ChannelParams carries the negotiated parameters of one channel.
type ChannelParams struct {
	PSM          int
	PeerMTU      int
	PeerMPS      int
	OurMTU       int
	OurMPS       int
	PeerAddrType uint8
	PeerAddr     string
}

// Channel is one dynamic channel tracked by the facade. RX and TX data
// are kept as per-channel event logs so waits can follow new segments.
type Channel struct {
	ID int

	rx *core.EventLog[[]byte]
	tx *core.EventLog[[]byte]

	mu            sync.Mutex
	params        ChannelParams
	state         string
	disconnReason int
}

func newChannel(id int, params ChannelParams) *Channel {
	return &Channel{
		ID:     id,
		rx:     core.NewEventLog[[]byte](fmt.Sprintf("l2cap-rx-%d", id)),
		tx:     core.NewEventLog[[]byte](fmt.Sprintf("l2cap-tx-%d", id)),
		params: params,
		state:  ChanStateInit,
	}
}

// State ...
func (c *Channel) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Params ...
func (c *Channel) Params() ChannelParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// DisconnReason returns the result code of the disconnect, valid once
// the channel reached the disconnected state.
func (c *Channel) DisconnReason() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnReason
}

// RxData returns a snapshot of the received segments.
func (c *Channel) RxData() [][]byte {
	return c.rx.Snapshot()
}

// TxData returns a snapshot of the sent segments.
func (c *Channel) TxData() [][]byte {
	return c.tx.Snapshot()
}

func (c *Channel) connected(params ChannelParams) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = params
	c.state = ChanStateConnected
}

func (c *Channel) disconnected(reason int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = ChannelParams{}
	c.disconnReason = reason
	c.state = ChanStateDisconnected
}

// L2cap tracks dynamic channels keyed by id, along with the client-role
// connect parameters shared by the next outgoing connection.
type L2cap struct {
	sig      *core.AbortSignal
	defaults core.WaitOptions

	mu          sync.Mutex
	psm         int
	initialMTU  int
	numChannels int
	holdCredits int
	channels    map[int]*Channel
}

func newL2cap(sig *core.AbortSignal, defaults core.WaitOptions, psm int, initialMTU int) *L2cap {
	return &L2cap{
		sig:         sig,
		defaults:    defaults,
		psm:         psm,
		initialMTU:  initialMTU,
		numChannels: 2,
		channels:    make(map[int]*Channel),
	}
}

// PSM ...
func (l *L2cap) PSM() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.psm
}

// SetPSM ...
func (l *L2cap) SetPSM(psm int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.psm = psm
}

// InitialMTU ...
func (l *L2cap) InitialMTU() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.initialMTU
}

// SetInitialMTU ...
func (l *L2cap) SetInitialMTU(mtu int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.initialMTU = mtu
}

// SetNumChannels ...
func (l *L2cap) SetNumChannels(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.numChannels = n
}

// NumChannels ...
func (l *L2cap) NumChannels() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.numChannels
}

// SetHoldCredits ...
func (l *L2cap) SetHoldCredits(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.holdCredits = n
}

// HoldCredits ...
func (l *L2cap) HoldCredits() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holdCredits
}

// Channel returns the channel registered under id.
func (l *L2cap) Channel(id int) (*Channel, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.channels[id]
	return ch, ok
}

// lookup resolves id to a channel, logging unknown ids. Operations on
// unknown channels are dropped rather than failed.
func (l *L2cap) lookup(id int) *Channel {
	ch, ok := l.Channel(id)
	if !ok {
		log.Warnf("l2cap: unknown channel %d", id)
		return nil
	}
	return ch
}

// Connected registers the channel under id, or updates it when the
// connect raced the registration of a self-initiated channel.
func (l *L2cap) Connected(id int, params ChannelParams) {
	l.mu.Lock()
	ch, ok := l.channels[id]
	if !ok {
		ch = newChannel(id, params)
		l.channels[id] = ch
	}
	l.mu.Unlock()

	if ok {
		log.Debugf("l2cap: channel %d already registered, updating", id)
	}
	ch.connected(params)
}

// Disconnected retires the channel under id. Unknown ids are tolerated.
func (l *L2cap) Disconnected(id int, reason int) {
	l.mu.Lock()
	ch, ok := l.channels[id]
	delete(l.channels, id)
	l.mu.Unlock()

	if !ok {
		log.Warnf("l2cap: unknown channel %d", id)
		return
	}
	ch.disconnected(reason)
}

// Reconfigured updates the negotiated parameters of the channel.
func (l *L2cap) Reconfigured(id int, params ChannelParams) {
	ch := l.lookup(id)
	if ch == nil {
		return
	}
	ch.mu.Lock()
	ch.params.PeerMTU = params.PeerMTU
	ch.params.PeerMPS = params.PeerMPS
	ch.params.OurMTU = params.OurMTU
	ch.params.OurMPS = params.OurMPS
	ch.mu.Unlock()
}

// IsConnected reports whether the channel under id is connected.
func (l *L2cap) IsConnected(id int) bool {
	ch, ok := l.Channel(id)
	if !ok {
		return false
	}
	return ch.State() == ChanStateConnected
}

// WaitConnected blocks until the channel under id is connected.
func (l *L2cap) WaitConnected(id int, timeout time.Duration) (bool, error) {
	return core.WaitCond(l.sig, func() bool { return l.IsConnected(id) }, waitOpts(l.defaults, timeout))
}

// WaitDisconnected blocks until the channel under id is gone or
// disconnected.
func (l *L2cap) WaitDisconnected(id int, timeout time.Duration) (bool, error) {
	return core.WaitCond(l.sig, func() bool { return !l.IsConnected(id) }, waitOpts(l.defaults, timeout))
}

// Rx appends one received segment to the channel's RX log.
func (l *L2cap) Rx(id int, data []byte) {
	ch := l.lookup(id)
	if ch == nil {
		return
	}
	ch.rx.Append(data)
}

// Tx appends one sent segment to the channel's TX log.
func (l *L2cap) Tx(id int, data []byte) {
	ch := l.lookup(id)
	if ch == nil {
		return
	}
	ch.tx.Append(data)
}

// WaitRxData blocks until the channel under id received any data and
// returns the collected segments. An unknown id returns immediately.
func (l *L2cap) WaitRxData(id int, timeout time.Duration) ([][]byte, bool, error) {
	ch := l.lookup(id)
	if ch == nil {
		return nil, false, nil
	}

	ok, err := core.WaitCond(l.sig, func() bool { return ch.rx.Len() != 0 }, waitOpts(l.defaults, timeout))
	if !ok {
		return nil, false, err
	}
	return ch.rx.Snapshot(), true, nil
}

// ClearData drops the RX and TX logs of every channel.
func (l *L2cap) ClearData() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ch := range l.channels {
		ch.rx.Clear()
		ch.tx.Clear()
	}
}

func (l *L2cap) describe() statejson.FacadeDescription {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]int, 0, len(l.channels))
	for id := range l.channels {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	logs := []statejson.EventLogDescription{}
	for _, id := range ids {
		ch := l.channels[id]
		logs = append(logs, describeLog(ch.rx), describeLog(ch.tx))
	}
	return statejson.FacadeDescription{
		Name:  "l2cap",
		Logs:  logs,
		Flags: map[string]bool{"channels": len(l.channels) > 0},
	}
}
