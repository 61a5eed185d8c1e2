// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"errors"
	"sync"
	"time"

	"github.com/anacrolix/chansync"

	"btharness/harness/core/statejson"

	log "github.com/sirupsen/logrus"
)

// Scenario element phases, for state descriptions.
const (
	PhaseRegistered = "registered"
	PhaseRunning    = "running"
	PhaseDone       = "done"
	PhaseAborted    = "aborted"
)

// ErrSynchPointCollision means the (test case, wait id) pair is already
// owned by an active scenario element.
var ErrSynchPointCollision = errors.New("ErrSynchPointCollision")

// ErrSynchEmptyScenario is returned on an attempt to register a scenario
// without points.
var ErrSynchEmptyScenario = errors.New("ErrSynchEmptyScenario")

// ErrSynchPointNotFound means the element holds no point for the caller.
var ErrSynchPointNotFound = errors.New("ErrSynchPointNotFound")

// PointDef declares one synchronization point of a scenario:
// which test case it belongs to, the wait id identifying the slot in the
// test script, and an optional pacing delay applied after the turn.
type PointDef struct {
	TestCase string
	WaitID   int
	Delay    time.Duration
}

// SynchPoint is a named rendezvous slot within one scenario element. Its
// completion flag is created fresh on every registration, so retried runs
// never observe a stale signal from a previous, possibly aborted run.
type SynchPoint struct {
	TestCase string
	WaitID   int
	Delay    time.Duration

	done *Flag
}

func newSynchPoint(def PointDef) *SynchPoint {
	return &SynchPoint{
		TestCase: def.TestCase,
		WaitID:   def.WaitID,
		Delay:    def.Delay,
		done:     NewFlag(),
	}
}

// Matches reports whether the point is identified by the given pair.
func (p *SynchPoint) Matches(testCase string, waitID int) bool {
	return p.TestCase == testCase && p.WaitID == waitID
}

// Done reports whether the point signaled completion of its turn.
func (p *SynchPoint) Done() bool {
	return p.done.IsSet()
}

// SynchElem is one registered multi-device scenario: an ordered list of
// points, an entry and an exit barrier both sized to the point count, and
// the strict sequential turn order enforced between the two. The release
// action of either barrier resets every point's completion flag.
type SynchElem struct {
	points []*SynchPoint
	entry  *Barrier
	exit   *Barrier

	broken chansync.SetOnce

	mu     sync.Mutex
	active int
	phase  string
}

func newSynchElem(defs []PointDef) *SynchElem {
	e := &SynchElem{
		points: make([]*SynchPoint, 0, len(defs)),
		active: -1,
		phase:  PhaseRegistered,
	}
	for _, def := range defs {
		e.points = append(e.points, newSynchPoint(def))
	}

	e.entry = NewBarrier(len(e.points), func() {
		e.clearFlags()
		e.setPhase(PhaseRunning)
	})
	e.exit = NewBarrier(len(e.points), func() {
		e.clearFlags()
		e.setPhase(PhaseDone)
	})
	return e
}

// Points returns a shallow copy of the element's point list, in turn order.
func (e *SynchElem) Points() []*SynchPoint {
	points := make([]*SynchPoint, len(e.points))
	copy(points, e.points)
	return points
}

func (e *SynchElem) findPoint(testCase string, waitID int) (int, bool) {
	for i, p := range e.points {
		if p.Matches(testCase, waitID) {
			return i, true
		}
	}
	return -1, false
}

func (e *SynchElem) clearFlags() {
	for _, p := range e.points {
		p.done.Clear()
	}
}

func (e *SynchElem) setPhase(phase string) {
	e.mu.Lock()
	if e.phase == phase {
		e.mu.Unlock()
		return
	}
	e.phase = phase
	e.mu.Unlock()
	log.Debugf("synch: element phase '%s'", phase)
}

// AwaitEntry suspends the caller at the entry barrier until every
// participant of the scenario arrived, or the element was aborted.
func (e *SynchElem) AwaitEntry() error {
	return e.entry.Await()
}

// AwaitExit suspends the caller at the exit barrier until every
// participant completed its turn, or the element was aborted.
func (e *SynchElem) AwaitExit() error {
	return e.exit.Await()
}

// WaitForTurn blocks until every point ahead of (testCase, waitID) in the
// registered order signaled completion, then acquires the turn. An abort
// of the element while waiting returns ErrSynchAborted; a force-set flag
// on an aborted element is never mistaken for a granted turn.
func (e *SynchElem) WaitForTurn(testCase string, waitID int) error {
	for i, p := range e.points {
		if p.Matches(testCase, waitID) {
			e.mu.Lock()
			if e.broken.IsSet() {
				e.mu.Unlock()
				return ErrSynchAborted
			}
			e.active = i
			e.mu.Unlock()
			log.Debugf("synch: (%s, wait %d) acquired turn %d", testCase, waitID, i)
			return nil
		}

		log.Debugf("synch: (%s, wait %d) awaiting completion of (%s, wait %d)",
			testCase, waitID, p.TestCase, p.WaitID)
		if err := p.done.WaitSet(e.broken.Done()); err != nil {
			return err
		}
		if e.broken.IsSet() {
			return ErrSynchAborted
		}
	}

	log.Warnf("synch: no point (%s, wait %d) in element", testCase, waitID)
	return ErrSynchPointNotFound
}

// FinishTurn applies the active point's pacing delay, signals the point's
// completion to release the next point in turn order, and suspends the
// caller at the exit barrier.
func (e *SynchElem) FinishTurn(sig *AbortSignal) error {
	e.mu.Lock()
	idx := e.active
	e.mu.Unlock()

	if idx < 0 {
		log.Warnf("synch: finish turn without an active point")
		return ErrSynchPointNotFound
	}
	p := e.points[idx]

	if p.Delay > 0 {
		log.Debugf("synch: (%s, wait %d) pacing delay %s", p.TestCase, p.WaitID, p.Delay)
		select {
		case <-time.After(p.Delay):
		case <-sig.Done():
		}
	}

	e.mu.Lock()
	e.active = -1
	e.mu.Unlock()

	p.done.Set()
	log.Debugf("synch: (%s, wait %d) completed turn", p.TestCase, p.WaitID)

	return e.exit.Await()
}

// Abort breaks both barriers with err and force-sets every point's
// completion flag so chained turn waits unblock too. Every participant
// blocked anywhere in the element observes a failure indication.
func (e *SynchElem) Abort(err error) {
	if e.broken.IsSet() {
		return
	}
	e.broken.Set()

	e.entry.Abort(err)
	e.exit.Abort(err)
	for _, p := range e.points {
		p.done.Set()
	}
	e.setPhase(PhaseAborted)
	log.Warnf("synch: element aborted: %s", err)
}

// Aborted ...
func (e *SynchElem) Aborted() bool {
	return e.broken.IsSet()
}

// Describe returns the element state for the debug surface.
func (e *SynchElem) Describe() statejson.SynchElemDescription {
	e.mu.Lock()
	active := e.active
	phase := e.phase
	e.mu.Unlock()

	desc := statejson.SynchElemDescription{
		Phase:        phase,
		ActivePoint:  active,
		Points:       []statejson.SynchPointDescription{},
		EntryBarrier: describeBarrier(e.entry),
		ExitBarrier:  describeBarrier(e.exit),
	}
	for _, p := range e.points {
		desc.Points = append(desc.Points, statejson.SynchPointDescription{
			TestCase: p.TestCase,
			WaitID:   p.WaitID,
			DelayMs:  p.Delay.Milliseconds(),
			Done:     p.Done(),
		})
	}
	return desc
}

func describeBarrier(b *Barrier) statejson.BarrierDescription {
	return statejson.BarrierDescription{
		State:   b.State().String(),
		Arrived: b.Arrived(),
		Size:    b.Size(),
	}
}

// Synch is the registry of active scenario elements. It resolves
// (wait id, test case) pairs to the owning element, drives the
// start/end protocol and supports bulk cancellation between runs.
type Synch struct {
	sig *AbortSignal

	mu    sync.Mutex
	elems []*SynchElem
}

// NewSynch returns an empty registry observing sig.
func NewSynch(sig *AbortSignal) *Synch {
	return &Synch{sig: sig}
}

// RegisterScenario creates one element from the given point definitions
// and activates it. Each point receives a fresh completion flag, so a
// scenario re-registered after a completed or aborted run behaves as a
// clean first run. A pair already owned by an active element is rejected.
func (s *Synch) RegisterScenario(defs []PointDef) (*SynchElem, error) {
	if len(defs) == 0 {
		return nil, ErrSynchEmptyScenario
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type pair struct {
		testCase string
		waitID   int
	}
	seen := make(map[pair]struct{}, len(defs))
	for _, def := range defs {
		if s.findLocked(def.WaitID, def.TestCase) != nil {
			log.Warnf("synch: (%s, wait %d) already active", def.TestCase, def.WaitID)
			return nil, ErrSynchPointCollision
		}
		p := pair{def.TestCase, def.WaitID}
		if _, dup := seen[p]; dup {
			log.Warnf("synch: duplicate point (%s, wait %d) in scenario", def.TestCase, def.WaitID)
			return nil, ErrSynchPointCollision
		}
		seen[p] = struct{}{}
	}

	elem := newSynchElem(defs)
	s.elems = append(s.elems, elem)
	log.Infof("synch: registered scenario with %d points", len(defs))
	return elem, nil
}

// WaitForStart blocks the caller until its turn within the owning
// scenario element begins. A pair not owned by any element returns
// (nil, nil): the caller is not part of a multi-party scenario and
// proceeds unsynchronized. A broken entry barrier or an element abort
// returns a nil element with the failure.
func (s *Synch) WaitForStart(waitID int, testCase string) (*SynchElem, error) {
	if err := s.sig.Check(); err != nil {
		return nil, err
	}

	elem := s.find(waitID, testCase)
	if elem == nil {
		log.Debugf("synch: no scenario owns (%s, wait %d)", testCase, waitID)
		return nil, nil
	}

	log.Debugf("synch: (%s, wait %d) at entry barrier", testCase, waitID)
	if err := elem.AwaitEntry(); err != nil {
		log.Warnf("synch: entry barrier broken for (%s, wait %d): %s", testCase, waitID, err)
		return nil, err
	}

	if err := elem.WaitForTurn(testCase, waitID); err != nil {
		return nil, err
	}
	return elem, nil
}

// WaitForEnd completes the caller's turn on elem, reconverges with the
// other participants at the exit barrier and retires the element from
// the registry. Removal tolerates a racing removal by another
// participant. A nil elem is a no-op.
func (s *Synch) WaitForEnd(elem *SynchElem) error {
	if elem == nil {
		return nil
	}
	if err := s.sig.Check(); err != nil {
		return err
	}

	err := elem.FinishTurn(s.sig)
	s.remove(elem)
	return err
}

// CancelAll aborts every active element and clears the registry. Any
// participant blocked at a barrier or in a turn wait observes a failure
// indication rather than hanging. Used for hard shutdown mid-scenario.
func (s *Synch) CancelAll(reason error) {
	s.mu.Lock()
	elems := s.elems
	s.elems = nil
	s.mu.Unlock()

	if len(elems) == 0 {
		return
	}
	log.Warnf("synch: canceling %d active elements: %s", len(elems), reason)
	for _, elem := range elems {
		elem.Abort(reason)
	}
}

// Reset clears the registry without aborting elements. Only valid when
// no participant is blocked, between independent test cases.
func (s *Synch) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.elems); n > 0 {
		log.Infof("synch: dropping %d elements on reset", n)
	}
	s.elems = nil
}

// Count returns the number of active elements.
func (s *Synch) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.elems)
}

func (s *Synch) find(waitID int, testCase string) *SynchElem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(waitID, testCase)
}

// findLocked returns the first element owning the pair. Pairs are unique
// across active elements by registration, so first match is the match.
func (s *Synch) findLocked(waitID int, testCase string) *SynchElem {
	for _, elem := range s.elems {
		if _, ok := elem.findPoint(testCase, waitID); ok {
			return elem
		}
	}
	return nil
}

func (s *Synch) remove(elem *SynchElem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.elems {
		if e == elem {
			s.elems = append(s.elems[:i], s.elems[i+1:]...)
			return
		}
	}
	log.Debugf("synch: element already removed")
}

// Describe returns the registry state for the debug surface.
func (s *Synch) Describe() *statejson.SynchDescription {
	s.mu.Lock()
	elems := make([]*SynchElem, len(s.elems))
	copy(elems, s.elems)
	s.mu.Unlock()

	desc := &statejson.SynchDescription{Elements: []statejson.SynchElemDescription{}}
	for _, elem := range elems {
		desc.Elements = append(desc.Elements, elem.Describe())
	}
	return desc
}
