// Copyright 2026 The Tessellate Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest parses and validates deployment manifests. A
// manifest is a JSONC document (JSON extended with // line comments,
// /* block comments */, and trailing commas) published beside the
// bundle; it names the three bootstrap artifacts — interface script,
// helper script, binary payload — with their paths, codecs, and
// optional integrity digests, plus the mount point the application
// attaches to.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/tessellate-cad/webboot/lib/compress"
)

// FormatVersion is the manifest format this loader understands.
const FormatVersion = 1

// Artifact describes one fetchable bundle asset.
type Artifact struct {
	// Path is the asset's location relative to the bundle base URL.
	Path string `json:"path"`

	// Codec is the compression codec name ("gzip", "zstd", "lz4",
	// "none").
	Codec string `json:"codec"`

	// Digest is the hex BLAKE3 asset digest of the decoded bytes.
	// Optional; when present the bootstrap verifies it.
	Digest string `json:"digest,omitempty"`

	// DecodedSize is the expected decoded byte count. Optional,
	// informational.
	DecodedSize int64 `json:"decoded_size,omitempty"`
}

// ParsedCodec returns the artifact's codec.
func (a Artifact) ParsedCodec() (compress.Codec, error) {
	return compress.ParseCodec(a.Codec)
}

// ParsedDigest returns the artifact's digest and whether one is
// present.
func (a Artifact) ParsedDigest() (Hash, bool, error) {
	if a.Digest == "" {
		return Hash{}, false, nil
	}
	digest, err := ParseHash(a.Digest)
	if err != nil {
		return Hash{}, false, err
	}
	return digest, true, nil
}

// Manifest is a parsed deployment manifest.
type Manifest struct {
	// Version is the manifest format version.
	Version int `json:"version"`

	// Interface is the script exporting the application's initialize
	// and start entry points.
	Interface Artifact `json:"interface"`

	// Helper is the script exporting the block decompression
	// capability for the payload.
	Helper Artifact `json:"helper"`

	// Payload is the compiled binary compute module.
	Payload Artifact `json:"payload"`

	// Mount is the mount-point identifier handed to start, e.g. a
	// display-surface element id.
	Mount string `json:"mount"`
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals and validates the result.
func Parse(data []byte) (*Manifest, error) {
	stripped := jsonc.ToJSON(data)

	var m Manifest
	if err := json.Unmarshal(stripped, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ReadFile reads and parses a JSONC manifest from disk.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Validate checks structural requirements: supported version, every
// artifact present with a path and a known codec, digests
// well-formed. Returns the first problem found.
func (m *Manifest) Validate() error {
	if m.Version != FormatVersion {
		return fmt.Errorf("manifest version %d, want %d", m.Version, FormatVersion)
	}

	for _, artifact := range []struct {
		role  string
		value Artifact
	}{
		{"interface", m.Interface},
		{"helper", m.Helper},
		{"payload", m.Payload},
	} {
		if artifact.value.Path == "" {
			return fmt.Errorf("manifest %s: path is required", artifact.role)
		}
		if _, err := artifact.value.ParsedCodec(); err != nil {
			return fmt.Errorf("manifest %s: %w", artifact.role, err)
		}
		if _, _, err := artifact.value.ParsedDigest(); err != nil {
			return fmt.Errorf("manifest %s: %w", artifact.role, err)
		}
		if artifact.value.DecodedSize < 0 {
			return fmt.Errorf("manifest %s: negative decoded_size", artifact.role)
		}
	}

	if m.Mount == "" {
		return fmt.Errorf("manifest: mount is required")
	}
	return nil
}
