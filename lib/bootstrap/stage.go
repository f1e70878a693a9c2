// Copyright 2026 The Tessellate Authors
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"fmt"
	"time"
)

// Stage identifies a step of the bootstrap sequence. Stages are
// strictly ordered; the machine is terminal on StageDone or on the
// first unrecovered failure.
type Stage int

const (
	// StageFetchInterface retrieves and decodes the interface script.
	StageFetchInterface Stage = iota

	// StageSynthesizeInterface turns the decoded interface script
	// into a module and captures its initialize and start entries.
	StageSynthesizeInterface

	// StageFetchHelper retrieves, decodes, and synthesizes the helper
	// script, then resolves its block decompression capability.
	StageFetchHelper

	// StageFetchPayload retrieves the binary payload and block-decodes
	// it with the helper capability.
	StageFetchPayload

	// StageInitialize hands the decoded payload to the interface
	// module's initialize entry and awaits its completion.
	StageInitialize

	// StageStart invokes the application's start entry with the
	// mount-point identifier. The application is not awaited — only
	// the invocation is.
	StageStart

	// StageDone means the application owns the page now.
	StageDone
)

// String returns the stage name for logs and error messages.
func (s Stage) String() string {
	switch s {
	case StageFetchInterface:
		return "fetch-interface"
	case StageSynthesizeInterface:
		return "synthesize-interface"
	case StageFetchHelper:
		return "fetch-helper"
	case StageFetchPayload:
		return "fetch-payload"
	case StageInitialize:
		return "initialize"
	case StageStart:
		return "start"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// StageResult records one completed stage for the trace: how long it
// took and how many bytes it produced (decoded asset bytes for the
// fetch stages, zero for the rest).
type StageResult struct {
	Stage    Stage
	Duration time.Duration
	Bytes    int
}

// TimeoutError reports that a stage exceeded its bounded wait. The
// underlying operation (a hung fetch, a wedged entry point) is
// abandoned with its context cancelled.
type TimeoutError struct {
	// Stage is the stage whose bound was exceeded.
	Stage Stage

	// Bound is the configured per-stage wait.
	Bound time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("stage %s exceeded %v bound", e.Stage, e.Bound)
}
