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

// Notification is one value notification or indication received from
// the peer.
type Notification struct {
	AddrType uint8
	Addr     string
	Type     uint8
	Handle   uint16
	Data     []byte
}

type gattAttr struct {
	value      []byte
	changedCnt int
	changed    *core.Flag
}

// Gatt tracks attribute server state: a value store keyed by handle
// with change signaling, and the log of received notifications.
type Gatt struct {
	sig      *core.AbortSignal
	defaults core.WaitOptions

	notifications *core.EventLog[Notification]

	mu    sync.Mutex
	attrs map[uint16]*gattAttr
}

func newGatt(sig *core.AbortSignal, defaults core.WaitOptions) *Gatt {
	return &Gatt{
		sig:           sig,
		defaults:      defaults,
		notifications: core.NewEventLog[Notification]("gatt-notifications"),
		attrs:         make(map[uint16]*gattAttr),
	}
}

// attr returns the entry for handle, creating a placeholder when create
// is set. Waiting on a handle that was not written yet is allowed, the
// placeholder carries the change signal until a value arrives.
func (g *Gatt) attr(handle uint16, create bool) *gattAttr {
	g.mu.Lock()
	defer g.mu.Unlock()

	a, ok := g.attrs[handle]
	if !ok && create {
		a = &gattAttr{changed: core.NewFlag()}
		g.attrs[handle] = a
	}
	return a
}

// SetAttrValue stores value under handle, creating the attribute when
// missing.
func (g *Gatt) SetAttrValue(handle uint16, value []byte) {
	a := g.attr(handle, true)
	g.mu.Lock()
	a.value = value
	g.mu.Unlock()
}

// AttrValue returns the stored value for handle.
func (g *Gatt) AttrValue(handle uint16) ([]byte, bool) {
	a := g.attr(handle, false)
	if a == nil {
		return nil, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return a.value, a.value != nil
}

// MarkAttrChanged signals a change of the value under handle. Unknown
// handles are tolerated.
func (g *Gatt) MarkAttrChanged(handle uint16) {
	a := g.attr(handle, false)
	if a == nil {
		log.Warnf("gatt: no attribute with handle %d", handle)
		return
	}

	g.mu.Lock()
	a.changedCnt++
	g.mu.Unlock()
	a.changed.Set()
}

// ClearAttrChanged resets the change signal and counter for handle.
func (g *Gatt) ClearAttrChanged(handle uint16) {
	a := g.attr(handle, false)
	if a == nil {
		log.Warnf("gatt: no attribute with handle %d", handle)
		return
	}

	g.mu.Lock()
	a.changedCnt = 0
	g.mu.Unlock()
	a.changed.Clear()
}

// AttrChangedCount returns how often the value under handle changed
// since the last clear.
func (g *Gatt) AttrChangedCount(handle uint16) int {
	a := g.attr(handle, false)
	if a == nil {
		log.Warnf("gatt: no attribute with handle %d", handle)
		return 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return a.changedCnt
}

// WaitAttrValueChanged blocks until the value under handle is marked
// changed and returns it. The attribute is created on demand so the
// wait may be issued before the first write.
func (g *Gatt) WaitAttrValueChanged(handle uint16, timeout time.Duration) ([]byte, bool, error) {
	a := g.attr(handle, true)

	opts := waitOpts(g.defaults, timeout)
	ok, err := a.changed.WaitSetFor(g.sig, opts.Timeout)
	if !ok {
		return nil, false, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return a.value, true, nil
}

// RecordNotification appends one received notification to the log.
func (g *Gatt) RecordNotification(n Notification) {
	g.notifications.Append(n)
}

// Notifications returns a snapshot of the notification log.
func (g *Gatt) Notifications() []Notification {
	return g.notifications.Snapshot()
}

// WaitNotifications blocks until the expected number of notifications
// arrived: a positive expected requires exactly that many, zero accepts
// any nonzero count.
func (g *Gatt) WaitNotifications(expected int, timeout time.Duration) ([]Notification, bool, error) {
	cond := func() bool {
		n := g.notifications.Len()
		if expected > 0 {
			return n == expected
		}
		return n > 0
	}

	ok, err := core.WaitCond(g.sig, cond, waitOpts(g.defaults, timeout))
	if !ok {
		return nil, false, err
	}
	return g.notifications.Snapshot(), true, nil
}

func (g *Gatt) describe() statejson.FacadeDescription {
	g.mu.Lock()
	attrCount := len(g.attrs)
	g.mu.Unlock()

	return statejson.FacadeDescription{
		Name: "gatt",
		Logs: []statejson.EventLogDescription{describeLog(g.notifications)},
		Flags: map[string]bool{
			"attributes": attrCount > 0,
		},
	}
}
