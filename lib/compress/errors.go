// Copyright 2026 The Tessellate Authors
// SPDX-License-Identifier: Apache-2.0

package compress

import "fmt"

// DecodeError reports a failed decompression: corrupt or truncated
// input, output exceeding the size bound, or a codec with no decoder
// on the attempted path. Never recovered — a bad asset aborts the
// bootstrap.
type DecodeError struct {
	// Codec is the codec whose decode failed.
	Codec Codec

	// Err is the underlying cause.
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s data: %v", e.Codec, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UnsupportedCodecError reports that no viable decode path exists for
// an asset: either negotiation found neither a transport decode nor a
// streaming decoder, or the helper module exposed no block
// decompression capability.
type UnsupportedCodecError struct {
	// Codec is the codec that could not be decoded.
	Codec Codec

	// Reason describes which decode path was missing.
	Reason string
}

func (e *UnsupportedCodecError) Error() string {
	return fmt.Sprintf("no decode path for %s: %s", e.Codec, e.Reason)
}
