// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

/*
Package core provides the event-wait and multi-party synchronization
primitives the conformance harness is built on.

# Event logs

EventLog is an ordered, append-only sequence of records for one event
category. Transport collaborators append decoded protocol events; test
threads wait until a predicate over the log matches, with a bounded
timeout and cooperative run-wide abort. A wait re-scans the current
snapshot on every cycle, so a record appended between cycles is never
permanently missed.

# Waits

Two wait flavors share one loop shape: predicate over a growing EventLog
(woken by appends) and predicate over arbitrary live state (woken by a
poll tick). Timeout is a normal "no match" outcome reported via a
comma-ok result; a raised AbortSignal is an unrecoverable error distinct
from timeout.

# Barriers

Barrier is an N-party single-use rendezvous: all N calls to Await block
until the Nth participant arrives, then all release together. Abort
transitions the barrier to a permanently broken state observed by every
past and future waiter.

Example: main thread awaits two participants to arrive at the barrier,
and after the last one arrives all three proceed:

[main] b := NewBarrier(3, nil)
[main] go participant1(b); go participant2(b)
[main] b.Await()
[main] // blocked until both participants called b.Await()

# Synch

Synch is the registry of active multi-device scenarios. A scenario
registers its ordered synchronization points as one SynchElem; the elem
gates entry and exit with two barriers and enforces strict sequential
turn order among its points in between.
*/
package core
