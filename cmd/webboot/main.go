// Copyright 2026 The Tessellate Authors
// SPDX-License-Identifier: Apache-2.0

// webboot smoke-checks a deployed Tessellate web bundle by running
// the full asset bootstrap against it: manifest fetch, script decode
// and synthesis, payload block-decode, initialize, start. The
// application entry points are bound to local stubs, so a passing run
// proves the deployment is loadable without executing the compute
// module.
//
// Usage:
//
//	webboot --base-url https://app.example.com/cad
//	webboot --config webboot.yaml --mount viewport
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/tessellate-cad/webboot/lib/bootstrap"
	"github.com/tessellate-cad/webboot/lib/compress"
	"github.com/tessellate-cad/webboot/lib/fetch"
	"github.com/tessellate-cad/webboot/lib/manifest"
	"github.com/tessellate-cad/webboot/lib/module"
	"github.com/tessellate-cad/webboot/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("webboot", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to webboot.yaml")
	baseURL := flags.String("base-url", "", "deployed bundle root URL")
	manifestPath := flags.String("manifest", "", "manifest path beneath the base URL")
	mount := flags.String("mount", "", "mount-point identifier override")
	timeout := flags.Duration("timeout", 0, "per-stage timeout override (0 keeps the config value)")
	verbose := flags.BoolP("verbose", "v", false, "enable debug logging")
	showVersion := flags.Bool("version", false, "print version and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	if *showVersion {
		fmt.Printf("webboot %s\n", version.Info())
		return nil
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *manifestPath != "" {
		cfg.Manifest = *manifestPath
	}
	if *mount != "" {
		cfg.Mount = *mount
	}
	if *timeout != 0 {
		cfg.StageTimeout = timeout.String()
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	stageTimeout, err := cfg.stageTimeout()
	if err != nil {
		return err
	}

	logger := newCommandLogger(*verbose)
	ctx := context.Background()

	fetcher, err := fetch.NewHTTPFetcher(fetch.ClientConfig{
		BaseURL: cfg.BaseURL,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	// The manifest itself is served beside the bundle and is small
	// enough to live outside the staged pipeline.
	manifestResult, err := fetcher.Fetch(ctx, cfg.Manifest)
	if err != nil {
		return err
	}
	bundle, err := manifest.Parse(manifestResult.Body)
	if err != nil {
		return err
	}

	booter, err := bootstrap.New(bootstrap.Config{
		Fetcher:      fetcher,
		Registry:     module.NewRegistry(newStubRuntime(cfg, bundle, logger)),
		Manifest:     bundle,
		Mount:        cfg.Mount,
		StageTimeout: stageTimeout,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	if err := booter.Run(ctx); err != nil {
		return fmt.Errorf("bootstrap failed in stage %s: %w", booter.Stage(), err)
	}

	fmt.Println("bundle bootstrap OK")
	for _, result := range booter.Trace() {
		fmt.Printf("  %-22s %10v %12d bytes\n", result.Stage, result.Duration.Round(time.Microsecond), result.Bytes)
	}
	return nil
}

// newStubRuntime binds the entry points a deployed bundle expects:
// real block decompression for the helper's decompress capability,
// and recording stubs for the application's initialize and start. A
// smoke check proves the assets decode and wire up; it does not run
// the compute module.
func newStubRuntime(cfg *Config, bundle *manifest.Manifest, logger *slog.Logger) *module.TableRuntime {
	runtime := module.NewTableRuntime()

	runtime.Bind(cfg.HelperBinding, bootstrap.DecompressSymbol,
		func(ctx context.Context, args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("decompress: got %d arguments, want 1", len(args))
			}
			data, ok := args[0].([]byte)
			if !ok {
				return nil, fmt.Errorf("decompress: got %T, want []byte", args[0])
			}
			codec, err := bundle.Payload.ParsedCodec()
			if err != nil {
				return nil, err
			}
			return compress.DecompressBlock(data, codec)
		})

	runtime.Bind(cfg.InterfaceBinding, bootstrap.InitializeSymbol,
		func(ctx context.Context, args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("initialize: got %d arguments, want 1", len(args))
			}
			payload, ok := args[0].([]byte)
			if !ok {
				return nil, fmt.Errorf("initialize: got %T, want []byte", args[0])
			}
			logger.Info("initialize stub called",
				"payload_bytes", len(payload),
				"payload_digest", manifest.HashAsset(payload).String(),
			)
			return "stub-module-handle", nil
		})

	runtime.Bind(cfg.InterfaceBinding, bootstrap.StartSymbol,
		func(ctx context.Context, args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("start: got %d arguments, want 1", len(args))
			}
			logger.Info("start stub called", "mount", args[0])
			return nil, nil
		})

	return runtime
}
