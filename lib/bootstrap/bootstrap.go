// Copyright 2026 The Tessellate Authors
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tessellate-cad/webboot/lib/compress"
	"github.com/tessellate-cad/webboot/lib/fetch"
	"github.com/tessellate-cad/webboot/lib/manifest"
	"github.com/tessellate-cad/webboot/lib/module"
)

// Entry point names the interface module must export, and the
// capability symbol resolved from the helper module. Contract
// constants shared with the bundle producer.
const (
	InitializeSymbol = "initialize"
	StartSymbol      = "start"
	DecompressSymbol = "decompress"
)

// DefaultStageTimeout is the bounded wait applied to each stage when
// the config does not set one. Generous relative to a healthy fetch
// of even the largest payload; it exists to turn a hung network
// request into a diagnosable failure.
const DefaultStageTimeout = 30 * time.Second

// Config holds everything a Bootstrapper needs.
type Config struct {
	// Fetcher retrieves bundle assets. Required.
	Fetcher fetch.Fetcher

	// Registry synthesizes module images. Required.
	Registry *module.Registry

	// Manifest describes the bundle's three artifacts and the mount
	// point. Required.
	Manifest *manifest.Manifest

	// Mount overrides the manifest's mount-point identifier when
	// non-empty.
	Mount string

	// StageTimeout bounds each stage. Zero selects
	// DefaultStageTimeout; a negative value disables the bound.
	StageTimeout time.Duration

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Bootstrapper drives the bootstrap sequence once. Not safe for
// concurrent use; the pipeline is strictly sequential by design —
// cancellation and partial-failure handling stay simple when an
// earlier failure provably precedes any later network request.
type Bootstrapper struct {
	fetcher      fetch.Fetcher
	registry     *module.Registry
	manifest     *manifest.Manifest
	mount        string
	stageTimeout time.Duration
	logger       *slog.Logger

	stage Stage
	trace []StageResult
}

// New validates config and creates a Bootstrapper.
func New(config Config) (*Bootstrapper, error) {
	if config.Fetcher == nil {
		return nil, fmt.Errorf("bootstrap: Fetcher is required")
	}
	if config.Registry == nil {
		return nil, fmt.Errorf("bootstrap: Registry is required")
	}
	if config.Manifest == nil {
		return nil, fmt.Errorf("bootstrap: Manifest is required")
	}
	if err := config.Manifest.Validate(); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	mount := config.Mount
	if mount == "" {
		mount = config.Manifest.Mount
	}

	stageTimeout := config.StageTimeout
	switch {
	case stageTimeout == 0:
		stageTimeout = DefaultStageTimeout
	case stageTimeout < 0:
		stageTimeout = 0
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Bootstrapper{
		fetcher:      config.Fetcher,
		registry:     config.Registry,
		manifest:     config.Manifest,
		mount:        mount,
		stageTimeout: stageTimeout,
		logger:       logger,
	}, nil
}

// Stage returns the stage the machine is in (or failed in).
func (b *Bootstrapper) Stage() Stage {
	return b.stage
}

// Trace returns the results of the stages completed so far.
func (b *Bootstrapper) Trace() []StageResult {
	return b.trace
}

// Run executes the bootstrap sequence and blocks until the start
// entry has been invoked or a stage fails. The first error halts the
// machine; the failing stage is available from Stage.
func (b *Bootstrapper) Run(ctx context.Context) error {
	var (
		interfaceBytes []byte
		interfaceMod   *module.Module
		initialize     module.Entry
		start          module.Entry
		decompress     module.Entry
		payload        []byte
	)

	err := b.runStage(ctx, StageFetchInterface, func(ctx context.Context) (int, error) {
		var err error
		interfaceBytes, err = b.fetchScript(ctx, "interface", b.manifest.Interface)
		return len(interfaceBytes), err
	})
	if err != nil {
		return err
	}

	err = b.runStage(ctx, StageSynthesizeInterface, func(ctx context.Context) (int, error) {
		var err error
		interfaceMod, err = b.registry.Synthesize(ctx, interfaceBytes)
		if err != nil {
			return 0, err
		}

		var ok bool
		if initialize, ok = interfaceMod.Exports[InitializeSymbol]; !ok {
			return 0, &module.SynthesisError{
				Module: interfaceMod.Name,
				Err:    fmt.Errorf("interface module exports no %q entry", InitializeSymbol),
			}
		}
		if start, ok = interfaceMod.Exports[StartSymbol]; !ok {
			return 0, &module.SynthesisError{
				Module: interfaceMod.Name,
				Err:    fmt.Errorf("interface module exports no %q entry", StartSymbol),
			}
		}
		return 0, nil
	})
	if err != nil {
		return err
	}

	err = b.runStage(ctx, StageFetchHelper, func(ctx context.Context) (int, error) {
		helperBytes, err := b.fetchScript(ctx, "helper", b.manifest.Helper)
		if err != nil {
			return 0, err
		}

		helperMod, err := b.registry.Synthesize(ctx, helperBytes)
		if err != nil {
			return len(helperBytes), err
		}

		// Exactly one capability is resolved and used for the
		// payload. Resolution failure is fatal here, before any
		// payload request is issued.
		decompress, err = module.ResolveCapability(helperMod, DecompressSymbol)
		if errors.Is(err, module.ErrCapabilityNotFound) {
			payloadCodec, _ := b.manifest.Payload.ParsedCodec()
			return len(helperBytes), &compress.UnsupportedCodecError{
				Codec:  payloadCodec,
				Reason: fmt.Sprintf("helper module %s resolves no %q capability", helperMod.Name, DecompressSymbol),
			}
		}
		return len(helperBytes), err
	})
	if err != nil {
		return err
	}

	err = b.runStage(ctx, StageFetchPayload, func(ctx context.Context) (int, error) {
		var err error
		payload, err = b.fetchPayload(ctx, decompress)
		return len(payload), err
	})
	if err != nil {
		return err
	}

	// The compute module must finish its own setup before the
	// application can address a mount point, so initialize is awaited
	// before start.
	err = b.runStage(ctx, StageInitialize, func(ctx context.Context) (int, error) {
		if _, err := initialize(ctx, payload); err != nil {
			return 0, fmt.Errorf("initialize entry: %w", err)
		}
		return 0, nil
	})
	if err != nil {
		return err
	}

	err = b.runStage(ctx, StageStart, func(ctx context.Context) (int, error) {
		if _, err := start(ctx, b.mount); err != nil {
			return 0, fmt.Errorf("start entry: %w", err)
		}
		return 0, nil
	})
	if err != nil {
		return err
	}

	b.stage = StageDone
	b.logger.Info("bootstrap complete", "mount", b.mount)
	return nil
}

// fetchScript retrieves a script artifact and brings it to native
// form: pass-through when the transport already decoded the content
// encoding, one streaming decode otherwise. A decoded buffer is never
// decoded twice — the decision is made once, from transport metadata
// only.
func (b *Bootstrapper) fetchScript(ctx context.Context, role string, artifact manifest.Artifact) ([]byte, error) {
	codec, err := artifact.ParsedCodec()
	if err != nil {
		return nil, err
	}

	result, err := b.fetcher.Fetch(ctx, artifact.Path)
	if err != nil {
		return nil, err
	}

	var decoded []byte
	decision := compress.Negotiate(result.TransportEncoding, codec)
	switch decision {
	case compress.AlreadyDecoded:
		decoded = result.Body
	case compress.MustDecodeStream:
		decoded, err = compress.DecompressStream(result.Body, codec)
		if err != nil {
			return nil, err
		}
	case compress.Unsupported:
		return nil, &compress.UnsupportedCodecError{
			Codec:  codec,
			Reason: "transport did not decode and no streaming decoder is available",
		}
	}

	b.logger.Debug("script asset ready",
		"role", role,
		"resource", artifact.Path,
		"decision", decision.String(),
		"decoded_bytes", len(decoded),
	)

	return decoded, b.verifyDigest(role, artifact, decoded)
}

// fetchPayload retrieves the binary payload and block-decodes it with
// the helper capability. There is no negotiation branch: the deployed
// payload is always block-coded and never relies on transport content
// encoding, because its compression ratio depends on a codec
// intermediary transports do not speak.
func (b *Bootstrapper) fetchPayload(ctx context.Context, decompress module.Entry) ([]byte, error) {
	codec, err := b.manifest.Payload.ParsedCodec()
	if err != nil {
		return nil, err
	}

	result, err := b.fetcher.Fetch(ctx, b.manifest.Payload.Path)
	if err != nil {
		return nil, err
	}

	value, err := decompress(ctx, result.Body)
	if err != nil {
		return nil, &compress.DecodeError{Codec: codec, Err: err}
	}
	decoded, ok := value.([]byte)
	if !ok {
		return nil, &compress.DecodeError{
			Codec: codec,
			Err:   fmt.Errorf("decompress capability returned %T, want []byte", value),
		}
	}

	b.logger.Debug("payload ready",
		"resource", b.manifest.Payload.Path,
		"codec", codec.String(),
		"compressed_bytes", len(result.Body),
		"decoded_bytes", len(decoded),
	)

	return decoded, b.verifyDigest("payload", b.manifest.Payload, decoded)
}

// verifyDigest checks decoded bytes against the artifact's manifest
// digest when one is present. Digests are computed over native bytes,
// so a mismatch means corruption or a stale manifest — fatal either
// way.
func (b *Bootstrapper) verifyDigest(role string, artifact manifest.Artifact, decoded []byte) error {
	want, present, err := artifact.ParsedDigest()
	if err != nil {
		return err
	}
	if !present {
		return nil
	}

	got := manifest.HashAsset(decoded)
	if got != want {
		return fmt.Errorf("%s asset digest mismatch: got %s, want %s", role, got, want)
	}
	return nil
}

// runStage executes one stage under the configured bounded wait,
// records it in the trace, and normalizes a stage-deadline hit into a
// TimeoutError. A deadline inherited from the caller's context is
// passed through untouched.
func (b *Bootstrapper) runStage(ctx context.Context, stage Stage, fn func(ctx context.Context) (int, error)) error {
	b.stage = stage

	stageCtx := ctx
	cancel := context.CancelFunc(func() {})
	if b.stageTimeout > 0 {
		stageCtx, cancel = context.WithTimeout(ctx, b.stageTimeout)
	}
	defer cancel()

	started := time.Now()
	bytes, err := fn(stageCtx)
	elapsed := time.Since(started)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = &TimeoutError{Stage: stage, Bound: b.stageTimeout}
		}
		b.logger.Error("bootstrap stage failed",
			"stage", stage.String(),
			"elapsed", elapsed,
			"error", err,
		)
		return err
	}

	b.trace = append(b.trace, StageResult{Stage: stage, Duration: elapsed, Bytes: bytes})
	b.logger.Info("bootstrap stage complete",
		"stage", stage.String(),
		"elapsed", elapsed,
		"bytes", bytes,
	)
	return nil
}
