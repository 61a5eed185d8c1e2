// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"sync"
	"time"

	"btharness/harness/core"
	"btharness/harness/core/statejson"
)

// discoveryProcedure counts items reported by one discovery run against
// an expected total announced by the peer.
type discoveryProcedure struct {
	mu       sync.Mutex
	items    []string
	expected *int
}

func (p *discoveryProcedure) add(item string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, item)
}

func (p *discoveryProcedure) setExpected(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expected = &n
}

func (p *discoveryProcedure) snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	items := make([]string, len(p.items))
	copy(items, p.items)
	return items
}

// done implements the completion rule: with no announced total the
// procedure is never done, a non-positive total is done immediately,
// otherwise the item count must equal the total exactly.
func (p *discoveryProcedure) done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.expected == nil {
		return false
	}
	if *p.expected <= 0 {
		return true
	}
	return len(p.items) == *p.expected
}

// GattCl tracks attribute client state: values collected for
// verification and the per-procedure discovery counters.
type GattCl struct {
	sig      *core.AbortSignal
	defaults core.WaitOptions

	PrimSvcs *discoveryProcedure
	InclSvcs *discoveryProcedure
	Chrcs    *discoveryProcedure
	Dscs     *discoveryProcedure

	mu           sync.Mutex
	verifyValues []string
}

func newGattCl(sig *core.AbortSignal, defaults core.WaitOptions) *GattCl {
	return &GattCl{
		sig:      sig,
		defaults: defaults,
		PrimSvcs: &discoveryProcedure{},
		InclSvcs: &discoveryProcedure{},
		Chrcs:    &discoveryProcedure{},
		Dscs:     &discoveryProcedure{},
	}
}

// AddVerifyValue records one value read back from the peer.
func (c *GattCl) AddVerifyValue(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verifyValues = append(c.verifyValues, value)
}

// VerifyValues returns a snapshot of the collected values.
func (c *GattCl) VerifyValues() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	values := make([]string, len(c.verifyValues))
	copy(values, c.verifyValues)
	return values
}

// ClearVerifyValues ...
func (c *GattCl) ClearVerifyValues() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verifyValues = nil
}

// WaitRead blocks until at least one value was collected.
func (c *GattCl) WaitRead(timeout time.Duration) (bool, error) {
	return core.WaitCond(c.sig, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.verifyValues) != 0
	}, waitOpts(c.defaults, timeout))
}

// WaitPrimSvcs blocks until primary service discovery completed.
func (c *GattCl) WaitPrimSvcs(timeout time.Duration) (bool, error) {
	return core.WaitCond(c.sig, c.PrimSvcs.done, waitOpts(c.defaults, timeout))
}

// WaitInclSvcs blocks until included service discovery completed.
func (c *GattCl) WaitInclSvcs(timeout time.Duration) (bool, error) {
	return core.WaitCond(c.sig, c.InclSvcs.done, waitOpts(c.defaults, timeout))
}

// WaitChrcs blocks until characteristic discovery completed.
func (c *GattCl) WaitChrcs(timeout time.Duration) (bool, error) {
	return core.WaitCond(c.sig, c.Chrcs.done, waitOpts(c.defaults, timeout))
}

// WaitDscs blocks until descriptor discovery completed.
func (c *GattCl) WaitDscs(timeout time.Duration) (bool, error) {
	return core.WaitCond(c.sig, c.Dscs.done, waitOpts(c.defaults, timeout))
}

func (c *GattCl) describe() statejson.FacadeDescription {
	c.mu.Lock()
	reads := len(c.verifyValues)
	c.mu.Unlock()

	return statejson.FacadeDescription{
		Name: "gattcl",
		Logs: []statejson.EventLogDescription{},
		Flags: map[string]bool{
			"readComplete": reads != 0,
			"primSvcsDone": c.PrimSvcs.done(),
			"inclSvcsDone": c.InclSvcs.done(),
			"chrcsDone":    c.Chrcs.done(),
			"dscsDone":     c.Dscs.done(),
		},
	}
}
