// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package fatalerror

// This package defines constant error types recorded as the root cause of
// a failed harness run
// Separate package for namespacing

// ErrorType is exposed through the internal state description
type ErrorType string

const (
	RunAborted      ErrorType = "Run.Aborted"         // run canceled while waits were in flight
	SynchBroken     ErrorType = "Synch.BarrierBroken" // a scenario barrier was broken
	SynchCanceled   ErrorType = "Synch.Canceled"      // scenario registry canceled mid-run
	StackResetError ErrorType = "Stack.ResetError"    // facade state could not be reinitialized
	ConfigInvalid   ErrorType = "Config.Invalid"      // harness configuration rejected at load
	Unknown         ErrorType = "Unknown"
)
