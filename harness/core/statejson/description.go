// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package statejson

import (
	"encoding/json"

	log "github.com/sirupsen/logrus"
)

// BarrierDescription ...
type BarrierDescription struct {
	State   string `json:"state"`
	Arrived int    `json:"arrived"`
	Size    int    `json:"size"`
}

// SynchPointDescription ...
type SynchPointDescription struct {
	TestCase string `json:"testCase"`
	WaitID   int    `json:"waitId"`
	DelayMs  int64  `json:"delayMs"`
	Done     bool   `json:"done"`
}

// SynchElemDescription ...
type SynchElemDescription struct {
	Phase        string                  `json:"phase"`
	ActivePoint  int                     `json:"activePoint"`
	Points       []SynchPointDescription `json:"points"`
	EntryBarrier BarrierDescription      `json:"entryBarrier"`
	ExitBarrier  BarrierDescription      `json:"exitBarrier"`
}

// SynchDescription ...
type SynchDescription struct {
	Elements []SynchElemDescription `json:"elements"`
}

// EventLogDescription ...
type EventLogDescription struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// FacadeDescription describes one protocol facade: its event logs and
// the level-triggered flags it maintains.
type FacadeDescription struct {
	Name  string                `json:"name"`
	Logs  []EventLogDescription `json:"logs"`
	Flags map[string]bool       `json:"flags"`
}

// StackDescription ...
type StackDescription struct {
	Facades []FacadeDescription `json:"facades"`
}

// InternalStateDescription describes internal state of the harness for debugging purposes
type InternalStateDescription struct {
	SessionID       string            `json:"sessionId"`
	Aborted         bool              `json:"aborted"`
	FirstFatalError string            `json:"firstFatalError"`
	Synch           *SynchDescription `json:"synch"`
	Stack           *StackDescription `json:"stack"`
}

func (s *InternalStateDescription) AsJSON() []byte {
	bytes, err := json.Marshal(s)
	if err != nil {
		log.Panicf("Failed to marshall internal states: %s", err)
	}
	return bytes
}
