// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync"
	"time"
)

// Fataler is the subset of testing.TB the helpers need.
type Fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireWait waits for group within timeout, or fails the test.
//
//	testutil.RequireWait(t, &group, 10*time.Second, "concurrent loads")
func RequireWait(t Fataler, group *sync.WaitGroup, timeout time.Duration, msgAndArgs ...any) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		group.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatalf("timed out after %v waiting for goroutines: %s", timeout, formatMessage(msgAndArgs))
	}
}

// RequireReceive reads one value from ch within timeout, or fails the
// test.
//
//	result := testutil.RequireReceive(t, results, 5*time.Second, "worker %d", id)
func RequireReceive[T any](t Fataler, ch <-chan T, timeout time.Duration, msgAndArgs ...any) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed without sending a value: %s", formatMessage(msgAndArgs))
		}
		return v
	case <-time.After(timeout):
		t.Fatalf("timed out after %v: %s", timeout, formatMessage(msgAndArgs))
	}
	panic("unreachable")
}

// formatMessage formats optional message arguments: a single value, or
// a format string followed by args.
func formatMessage(msgAndArgs []any) string {
	if len(msgAndArgs) == 0 {
		return "(no message)"
	}
	format, ok := msgAndArgs[0].(string)
	if !ok {
		return fmt.Sprint(msgAndArgs...)
	}
	if len(msgAndArgs) == 1 {
		return format
	}
	return fmt.Sprintf(format, msgAndArgs[1:]...)
}
