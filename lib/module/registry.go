// Copyright 2026 The Tessellate Authors
// SPDX-License-Identifier: Apache-2.0

package module

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
)

// Registry holds module images under ephemeral addresses while they
// are resolved. Registration exists only so an image has a
// uniquely-addressable location during instantiation; once exports
// are captured the registration is released. Nothing is cached across
// synthesis calls.
//
// Safe for concurrent use, though the bootstrap itself is strictly
// sequential.
type Registry struct {
	runtime Runtime

	mu    sync.Mutex
	units map[string][]byte
}

// NewRegistry creates a registry that instantiates images with
// runtime.
func NewRegistry(runtime Runtime) *Registry {
	return &Registry{
		runtime: runtime,
		units:   make(map[string][]byte),
	}
}

// Register stores image under a fresh ephemeral address of the form
// "mem://<16 random hex bytes>" and returns the address.
func (g *Registry) Register(image []byte) (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("generating module address: %w", err)
	}
	address := "mem://" + hex.EncodeToString(raw[:])

	g.mu.Lock()
	defer g.mu.Unlock()
	g.units[address] = image
	return address, nil
}

// Resolve instantiates the image registered at address into a Module.
// The registration is not consumed — callers pair Resolve with
// Release.
func (g *Registry) Resolve(ctx context.Context, address string) (*Module, error) {
	g.mu.Lock()
	image, ok := g.units[address]
	g.mu.Unlock()
	if !ok {
		return nil, &SynthesisError{Err: fmt.Errorf("no module registered at %s", address)}
	}
	return g.runtime.Instantiate(ctx, image)
}

// Release drops the registration at address. Releasing an unknown
// address is a no-op.
func (g *Registry) Release(address string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.units, address)
}

// Synthesize is the scoped register/resolve/release sequence: the
// image gets an ephemeral address, is resolved into its exports, and
// the address is released before returning. This is how the bootstrap
// loads every module — each image is used exactly once.
func (g *Registry) Synthesize(ctx context.Context, image []byte) (*Module, error) {
	address, err := g.Register(image)
	if err != nil {
		return nil, &SynthesisError{Err: err}
	}
	defer g.Release(address)

	return g.Resolve(ctx, address)
}
