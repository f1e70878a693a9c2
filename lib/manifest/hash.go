// Copyright 2026 The Tessellate Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest of a decoded asset. Digests are
// always computed over native (decoded) bytes so they stay valid when
// a bundle switches codecs.
type Hash [32]byte

// assetDomainKey is the 32-byte key for BLAKE3 keyed hashing. Domain
// separation keeps asset digests from colliding with hashes of the
// same bytes in other contexts. The value is the ASCII domain name
// zero-padded to 32 bytes, readable in hex dumps without weakening
// the keyed mode.
var assetDomainKey = [32]byte{
	't', 'e', 's', 's', 'e', 'l', 'l', 'a', 't', 'e', '.',
	'a', 's', 's', 'e', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// HashAsset computes the asset-domain BLAKE3 keyed hash of decoded
// asset bytes. This is the digest stored in deployment manifests.
func HashAsset(data []byte) Hash {
	hasher, err := blake3.NewKeyed(assetDomainKey[:])
	if err != nil {
		panic("manifest: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)

	var digest Hash
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// String returns the hex encoding of the digest, the form used in
// manifests and log output.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ParseHash parses a hex-encoded digest string into a Hash. Returns
// an error unless the string is exactly 64 hex characters.
func ParseHash(hexString string) (Hash, error) {
	var digest Hash
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing asset digest: %w", err)
	}
	if len(decoded) != 32 {
		return digest, fmt.Errorf("asset digest is %d bytes, want 32", len(decoded))
	}
	copy(digest[:], decoded)
	return digest, nil
}
