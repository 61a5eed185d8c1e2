// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"btharness/harness/core"
	"btharness/harness/core/statejson"

	log "github.com/sirupsen/logrus"
)

// CategoryIutReady is the queue signaling that the device under test
// booted and registered its services.
const CategoryIutReady = "iut-ready"

// Core holds the named event queues not owned by a protocol facade.
// Records are opaque JSON so external tooling can feed arbitrary events
// through the control API. Queues named in carryOver survive cleanup,
// bridging events between consecutive test cases.
type Core struct {
	sig      *core.AbortSignal
	defaults core.WaitOptions

	mu        sync.Mutex
	queues    map[string]*core.EventLog[json.RawMessage]
	carryOver map[string]struct{}
}

func newCore(sig *core.AbortSignal, defaults core.WaitOptions, carryOver []string) *Core {
	c := &Core{
		sig:       sig,
		defaults:  defaults,
		queues:    make(map[string]*core.EventLog[json.RawMessage]),
		carryOver: make(map[string]struct{}),
	}
	c.RegisterQueue(CategoryIutReady)
	for _, category := range carryOver {
		c.RegisterQueue(category)
		c.carryOver[category] = struct{}{}
	}
	c.carryOver[CategoryIutReady] = struct{}{}
	return c
}

// RegisterQueue creates the queue for category if missing and returns it.
func (c *Core) RegisterQueue(category string) *core.EventLog[json.RawMessage] {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, ok := c.queues[category]
	if !ok {
		q = core.NewEventLog[json.RawMessage](category)
		c.queues[category] = q
	}
	return q
}

// Queue returns the queue for category.
func (c *Core) Queue(category string) (*core.EventLog[json.RawMessage], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.queues[category]
	return q, ok
}

// Append adds one record to the category's queue. Unknown categories
// are reported to the caller instead of being created implicitly.
func (c *Core) Append(category string, record json.RawMessage) bool {
	q, ok := c.Queue(category)
	if !ok {
		log.Warnf("core: no queue for category %s", category)
		return false
	}
	q.Append(record)
	return true
}

// Categories returns the registered queue names, sorted.
func (c *Core) Categories() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	categories := make([]string, 0, len(c.queues))
	for category := range c.queues {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// WaitEvent blocks until the category's queue holds a record and
// consumes the first one. An unknown category returns immediately.
func (c *Core) WaitEvent(category string, timeout time.Duration) (json.RawMessage, bool, error) {
	q, ok := c.Queue(category)
	if !ok {
		log.Warnf("core: no queue for category %s", category)
		return nil, false, nil
	}
	return q.WaitMatchRemove(c.sig, func(json.RawMessage) bool { return true }, waitOpts(c.defaults, timeout))
}

// WaitIutReady blocks until the device announced readiness, consuming
// the announcement.
func (c *Core) WaitIutReady(timeout time.Duration) (json.RawMessage, bool, error) {
	return c.WaitEvent(CategoryIutReady, timeout)
}

// cleanup drains every queue except the carry-over categories.
func (c *Core) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for category, q := range c.queues {
		if _, keep := c.carryOver[category]; keep {
			continue
		}
		q.Clear()
	}
}

func (c *Core) describe() statejson.FacadeDescription {
	desc := statejson.FacadeDescription{
		Name:  "core",
		Logs:  []statejson.EventLogDescription{},
		Flags: map[string]bool{},
	}
	for _, category := range c.Categories() {
		q, _ := c.Queue(category)
		desc.Logs = append(desc.Logs, describeLog(q))
	}
	return desc
}
