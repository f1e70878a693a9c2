// Copyright 2026 The Tessellate Authors
// SPDX-License-Identifier: Apache-2.0

package module

import (
	"errors"
	"sync"
)

// ErrCapabilityNotFound is returned by ResolveCapability when every
// lookup location in the fallback chain came up empty.
var ErrCapabilityNotFound = errors.New("capability not found")

// globalSymbols is the process-wide fallback symbol table, the last
// location probed by ResolveCapability. It models the well-known
// global a helper script may install instead of exporting a symbol.
var (
	globalMu      sync.RWMutex
	globalSymbols = make(map[string]Entry)
)

// RegisterGlobal installs entry under symbol in the process-wide
// fallback table, replacing any previous registration.
func RegisterGlobal(symbol string, entry Entry) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalSymbols[symbol] = entry
}

// UnregisterGlobal removes symbol from the fallback table. Removing
// an absent symbol is a no-op.
func UnregisterGlobal(symbol string) {
	globalMu.Lock()
	defer globalMu.Unlock()
	delete(globalSymbols, symbol)
}

// ResolveCapability finds the entry for symbol using the documented
// fallback order, first match wins:
//
//  1. the module's own exports,
//  2. the exports of the module's default export,
//  3. the process-wide global symbol table.
//
// When the chain is exhausted it returns ErrCapabilityNotFound; the
// caller decides how fatal that is. Exactly one entry is ever
// resolved — a symbol present in several locations resolves to the
// earliest.
func ResolveCapability(m *Module, symbol string) (Entry, error) {
	if entry, ok := m.Exports[symbol]; ok {
		return entry, nil
	}
	if entry, ok := m.Default[symbol]; ok {
		return entry, nil
	}

	globalMu.RLock()
	entry, ok := globalSymbols[symbol]
	globalMu.RUnlock()
	if ok {
		return entry, nil
	}

	return nil, ErrCapabilityNotFound
}
