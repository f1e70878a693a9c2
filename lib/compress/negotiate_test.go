// Copyright 2026 The Tessellate Authors
// SPDX-License-Identifier: Apache-2.0

package compress

import "testing"

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name              string
		transportEncoding string
		expected          Codec
		want              Decision
	}{
		// The transport decoded the expected codec: bytes are native.
		{"transport decoded gzip", "gzip", CodecGzip, AlreadyDecoded},

		// No indicator means "not decoded", never "decoding
		// unnecessary" — the client must decode.
		{"no indicator, gzip", "", CodecGzip, MustDecodeStream},

		// A mismatched indicator is no evidence about the expected
		// codec; the streaming decoder handles it.
		{"mismatched indicator", "br", CodecGzip, MustDecodeStream},

		// Block codecs have no streaming decoder, so without a
		// transport decode there is no path.
		{"no indicator, zstd", "", CodecZstd, Unsupported},
		{"no indicator, lz4", "", CodecLZ4, Unsupported},

		// A transport that decoded the block codec still counts.
		{"transport decoded zstd", "zstd", CodecZstd, AlreadyDecoded},

		// none always passes through.
		{"uncompressed asset", "", CodecNone, MustDecodeStream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Negotiate(tt.transportEncoding, tt.expected)
			if got != tt.want {
				t.Errorf("Negotiate(%q, %v) = %v, want %v",
					tt.transportEncoding, tt.expected, got, tt.want)
			}
		})
	}
}

func TestHasStreamDecoder(t *testing.T) {
	if !HasStreamDecoder(CodecGzip) {
		t.Error("gzip should have a streaming decoder")
	}
	if HasStreamDecoder(CodecZstd) {
		t.Error("zstd is block-only; no streaming decoder expected")
	}
}
