// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

/*

The harness emits the following sources of logging:

1. Internal logs: the harness's own application logs into stderr for operational use, visible only internally
2. Wait traces: per-wait Debug lines recording scan attempts, wakeups and outcomes of event log waits
3. Synch traces: barrier arrivals, turn transitions and abort causes of multi-device scenarios
4. Access logs: one line per request served by the control API

All sinks share one logrus logger; level and output are configured once at
startup and may be redirected to a file by the process supervisor.

*/
package logging
