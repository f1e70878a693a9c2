// Copyright 2026 The Tessellate Authors
// SPDX-License-Identifier: Apache-2.0

// Package module synthesizes executable modules from decoded script
// bytes at run time. Bundle scripts are delivered pre-compressed, so
// they cannot be referenced by a static build-time import — the
// loader receives bytes from the network and must turn them into
// named, callable entry points.
//
// A script asset is a module image: a deterministic CBOR manifest
// ([Image]) naming the module, its exported symbols, and the binding
// namespace its symbols resolve in. A [Runtime] instantiates an image
// into a [Module], a mapping from symbol name to [Entry]. The
// in-process [TableRuntime] dispatches symbols over a host capability
// table; alternative runtimes (a wasm host, a remote loader) satisfy
// the same interface.
//
// Instantiation goes through a [Registry]: the image is registered
// under an ephemeral uniquely-addressable location, resolved into its
// exports, and the registration released once the exports are
// captured. Each image is used once; nothing outlives the returned
// Module.
//
// Capability lookup ([ResolveCapability]) probes an ordered fallback
// chain — the module's own exports, the exports of its default
// export, then the process-wide global symbol table — first match
// wins, explicit failure when the chain is exhausted.
package module
