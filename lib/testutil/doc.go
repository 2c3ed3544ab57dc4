// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for dynenc packages.
//
// [RequireWait] and [RequireReceive] wrap the timeout safety valve
// pattern (select with time.After fallback) so that concurrency tests
// fail instead of hanging when a goroutine deadlocks.
//
// [WriteFile] and [ReadFile] create and read fixture files under
// t.TempDir, for tests of the command line and definition files.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no dynenc-internal dependencies.
package testutil
