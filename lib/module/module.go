// Copyright 2026 The Tessellate Authors
// SPDX-License-Identifier: Apache-2.0

package module

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tessellate-cad/webboot/lib/codec"
)

// ImageFormat identifies the module image wire format. A decoded
// script whose manifest does not carry this tag is not a loadable
// module. Protocol constant — changing it orphans every published
// bundle.
const ImageFormat = "tessellate.module/v1"

// Entry is a resolved callable entry point. Calls are synchronous:
// returning means the operation completed (or failed). Entries that
// start long-running work are expected to hand off to their own
// scheduler and return.
type Entry func(ctx context.Context, args ...any) (any, error)

// Image is the manifest at the head of a module image. It names the
// symbols the module exports and the binding namespace they resolve
// in; the runtime supplies the implementations.
type Image struct {
	// Format must equal ImageFormat.
	Format string `cbor:"format"`

	// Name is the module's human-readable name, used in errors and
	// logs.
	Name string `cbor:"name"`

	// Binding is the namespace the module's symbols resolve in, e.g.
	// "app" or "unzstd".
	Binding string `cbor:"binding"`

	// Exports are the module's exported symbol names.
	Exports []string `cbor:"exports"`

	// Default are the symbol names of the module's default export,
	// if it has one.
	Default []string `cbor:"default,omitempty"`
}

// EncodeImage serializes an image manifest into module image bytes.
// Producer-side counterpart of Runtime.Instantiate; also used to
// build test fixtures.
func EncodeImage(image Image) ([]byte, error) {
	if image.Format == "" {
		image.Format = ImageFormat
	}
	return codec.Marshal(image)
}

// Module is a synthesized module: its exported symbols resolved into
// callables. Owned by whoever synthesized it; the backing registry
// entry is already released by the time a Module is returned.
type Module struct {
	// Name is the module name from the image manifest.
	Name string

	// Exports maps exported symbol names to entries.
	Exports map[string]Entry

	// Default maps the default export's symbol names to entries, when
	// the module has a default export.
	Default map[string]Entry
}

// Runtime instantiates module images into modules.
type Runtime interface {
	Instantiate(ctx context.Context, image []byte) (*Module, error)
}

// TableRuntime resolves module symbols against a host capability
// table keyed "namespace.symbol". It is the in-process runtime: the
// host binds implementations before the bootstrap runs, and images
// name which bindings they export.
//
// Safe for concurrent use.
type TableRuntime struct {
	mu    sync.RWMutex
	table map[string]Entry
}

// NewTableRuntime creates an empty table runtime.
func NewTableRuntime() *TableRuntime {
	return &TableRuntime{table: make(map[string]Entry)}
}

// Bind registers the implementation of namespace.symbol. Later binds
// of the same key replace earlier ones.
func (r *TableRuntime) Bind(namespace, symbol string, entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table[namespace+"."+symbol] = entry
}

// Instantiate decodes image bytes and resolves every exported symbol
// against the capability table. Bytes that do not decode to an image
// manifest, a manifest with the wrong format tag, or an export with
// no bound implementation are each a *SynthesisError.
func (r *TableRuntime) Instantiate(ctx context.Context, image []byte) (*Module, error) {
	var manifest Image
	if err := codec.Unmarshal(image, &manifest); err != nil {
		return nil, &SynthesisError{Err: fmt.Errorf("decoding image manifest: %w", err)}
	}
	if manifest.Format != ImageFormat {
		return nil, &SynthesisError{
			Module: manifest.Name,
			Err:    fmt.Errorf("image format %q, want %q", manifest.Format, ImageFormat),
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	exports, err := r.resolveLocked(manifest.Binding, manifest.Exports)
	if err != nil {
		return nil, &SynthesisError{Module: manifest.Name, Err: err}
	}
	defaults, err := r.resolveLocked(manifest.Binding, manifest.Default)
	if err != nil {
		return nil, &SynthesisError{Module: manifest.Name, Err: err}
	}

	return &Module{
		Name:    manifest.Name,
		Exports: exports,
		Default: defaults,
	}, nil
}

func (r *TableRuntime) resolveLocked(namespace string, symbols []string) (map[string]Entry, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	resolved := make(map[string]Entry, len(symbols))
	for _, symbol := range symbols {
		entry, ok := r.table[namespace+"."+symbol]
		if !ok {
			return nil, fmt.Errorf("no binding for %s.%s (bound: %v)",
				namespace, symbol, r.boundKeysLocked())
		}
		resolved[symbol] = entry
	}
	return resolved, nil
}

// boundKeysLocked lists the bound keys for error messages, sorted so
// messages are stable.
func (r *TableRuntime) boundKeysLocked() []string {
	keys := make([]string, 0, len(r.table))
	for key := range r.table {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// SynthesisError reports that decoded script bytes could not be
// turned into a loadable module: undecodable manifest, wrong format
// tag, or an export the runtime cannot bind.
type SynthesisError struct {
	// Module is the module name when the manifest decoded far enough
	// to know it, otherwise empty.
	Module string

	// Err is the underlying cause.
	Err error
}

func (e *SynthesisError) Error() string {
	if e.Module != "" {
		return fmt.Sprintf("synthesizing module %s: %v", e.Module, e.Err)
	}
	return fmt.Sprintf("synthesizing module: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}
