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

// DiscoveryResult is one advertising report observed while discovering.
type DiscoveryResult struct {
	AddrType uint8
	Addr     string
	RSSI     int8
	EvtType  uint8
	EIR      []byte
}

// ConnParams holds the negotiated parameters of one link.
type ConnParams struct {
	ConnItvlMin        uint16
	ConnItvlMax        uint16
	ConnLatency        uint16
	SupervisionTimeout uint16
}

// Connection is one entry of the live connection table.
type Connection struct {
	AddrType uint8
	Addr     string
	Params   ConnParams
}

// Gap tracks link-layer state: discovery results, the connection table,
// the advertising and discovering toggles and passkey delivery during
// pairing. Name and ManufacturerData identify the device and survive a
// stack reset.
type Gap struct {
	Name             string
	ManufacturerData []byte

	sig      *core.AbortSignal
	defaults core.WaitOptions

	discovery *core.EventLog[DiscoveryResult]

	advertising *core.Flag
	discovering *core.Flag

	mu          sync.Mutex
	connections map[string]Connection
	passkey     *uint32
}

func newGap(sig *core.AbortSignal, defaults core.WaitOptions, name string, manufacturerData []byte) *Gap {
	return &Gap{
		Name:             name,
		ManufacturerData: manufacturerData,
		sig:              sig,
		defaults:         defaults,
		discovery:        core.NewEventLog[DiscoveryResult]("gap-discovery"),
		advertising:      core.NewFlag(),
		discovering:      core.NewFlag(),
		connections:      make(map[string]Connection),
	}
}

// RecordDiscovery appends one advertising report to the discovery log.
func (g *Gap) RecordDiscovery(res DiscoveryResult) {
	g.discovery.Append(res)
}

// WaitDiscoveryResult blocks until a report from addr shows up in the
// discovery log. With remove the matched report is consumed.
func (g *Gap) WaitDiscoveryResult(addr string, remove bool, timeout time.Duration) (DiscoveryResult, bool, error) {
	match := func(res DiscoveryResult) bool { return res.Addr == addr }
	opts := waitOpts(g.defaults, timeout)
	if remove {
		return g.discovery.WaitMatchRemove(g.sig, match, opts)
	}
	return g.discovery.WaitMatch(g.sig, match, opts)
}

// FoundDevices returns a snapshot of the discovery log.
func (g *Gap) FoundDevices() []DiscoveryResult {
	return g.discovery.Snapshot()
}

// ResetDiscovery raises the discovering toggle and drops previously
// collected reports.
func (g *Gap) ResetDiscovery() {
	g.discovering.Set()
	g.discovery.Clear()
}

// SetDiscovering ...
func (g *Gap) SetDiscovering(on bool) {
	if on {
		g.discovering.Set()
	} else {
		g.discovering.Clear()
	}
}

// Discovering ...
func (g *Gap) Discovering() bool {
	return g.discovering.IsSet()
}

// SetAdvertising ...
func (g *Gap) SetAdvertising(on bool) {
	if on {
		g.advertising.Set()
	} else {
		g.advertising.Clear()
	}
}

// Advertising ...
func (g *Gap) Advertising() bool {
	return g.advertising.IsSet()
}

// RecordConnected inserts conn into the connection table.
func (g *Gap) RecordConnected(conn Connection) {
	g.mu.Lock()
	g.connections[conn.Addr] = conn
	g.mu.Unlock()
	log.Debugf("gap: connected %s", conn.Addr)
}

// RecordDisconnected removes the link to addr. Unknown addresses are
// tolerated.
func (g *Gap) RecordDisconnected(addr string) {
	g.mu.Lock()
	_, known := g.connections[addr]
	delete(g.connections, addr)
	g.mu.Unlock()

	if !known {
		log.Warnf("gap: disconnect for unknown address %s", addr)
		return
	}
	log.Debugf("gap: disconnected %s", addr)
}

// IsConnected reports whether a link to addr is in the table.
func (g *Gap) IsConnected(addr string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.connections[addr]
	return ok
}

// Connection returns the table entry for addr.
func (g *Gap) Connection(addr string) (Connection, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	conn, ok := g.connections[addr]
	return conn, ok
}

// ConnectionCount ...
func (g *Gap) ConnectionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.connections)
}

// WaitConnected blocks until a link to addr exists.
func (g *Gap) WaitConnected(addr string, timeout time.Duration) (bool, error) {
	return core.WaitCond(g.sig, func() bool { return g.IsConnected(addr) }, waitOpts(g.defaults, timeout))
}

// WaitDisconnected blocks until no link to addr exists.
func (g *Gap) WaitDisconnected(addr string, timeout time.Duration) (bool, error) {
	return core.WaitCond(g.sig, func() bool { return !g.IsConnected(addr) }, waitOpts(g.defaults, timeout))
}

// WaitConnections blocks until at least count links are up.
func (g *Gap) WaitConnections(count int, timeout time.Duration) (bool, error) {
	return core.WaitCond(g.sig, func() bool { return g.ConnectionCount() >= count }, waitOpts(g.defaults, timeout))
}

// SetPasskey delivers the passkey displayed by the peer.
func (g *Gap) SetPasskey(passkey uint32) {
	g.mu.Lock()
	g.passkey = &passkey
	g.mu.Unlock()
}

// Passkey returns the delivered passkey, if any.
func (g *Gap) Passkey() (uint32, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.passkey == nil {
		return 0, false
	}
	return *g.passkey, true
}

// WaitPasskey blocks until a passkey was delivered.
func (g *Gap) WaitPasskey(timeout time.Duration) (uint32, bool, error) {
	ok, err := core.WaitCond(g.sig, func() bool {
		_, set := g.Passkey()
		return set
	}, waitOpts(g.defaults, timeout))
	if !ok {
		return 0, false, err
	}
	passkey, _ := g.Passkey()
	return passkey, true, nil
}

func (g *Gap) describe() statejson.FacadeDescription {
	return statejson.FacadeDescription{
		Name: "gap",
		Logs: []statejson.EventLogDescription{describeLog(g.discovery)},
		Flags: map[string]bool{
			"advertising": g.Advertising(),
			"discovering": g.Discovering(),
		},
	}
}
