// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package testdata

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"btharness/harness"
	"btharness/harness/config"
)

// NewTestConfig returns a validated configuration with wait defaults
// short enough for tests.
func NewTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Wait.DefaultTimeout = "2s"
	cfg.Wait.PollInterval = "5ms"
	require.NoError(t, cfg.Validate())
	return cfg
}

// NewTestHarness returns a fully wired harness. Its watchdog is shut
// down when the test finishes.
func NewTestHarness(t *testing.T) *harness.Harness {
	t.Helper()

	h := harness.New(NewTestConfig(t))
	t.Cleanup(func() {
		h.Shutdown(errors.New("test complete"))
	})
	return h
}
