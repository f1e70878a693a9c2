// Copyright 2026 The Tessellate Authors
// SPDX-License-Identifier: Apache-2.0

// Package bootstrap sequences the asset pipeline that brings the
// compute module up inside a page: fetch and synthesize the interface
// script, fetch and synthesize the helper script, fetch and
// block-decode the binary payload with the helper's decompress
// capability, hand the payload to the interface's initialize entry,
// then invoke start with the mount-point identifier.
//
// The sequence is a linear stage machine with one decode branch per
// script (transport already decoded vs. client must stream-decode)
// and no branch at all for the payload, which is always block-coded.
// Stages run strictly in order — a failure in an earlier stage means
// no later network request is ever issued. Nothing is recovered
// locally: the first error halts the machine and surfaces to the
// caller. There is nothing stateful to roll back; the pipeline runs
// once per page load.
//
// Every stage runs under a bounded wait ([Config.StageTimeout]) so a
// hung fetch or a wedged entry point surfaces as a [TimeoutError]
// instead of hanging the bootstrap forever.
package bootstrap
