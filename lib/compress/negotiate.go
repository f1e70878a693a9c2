// Copyright 2026 The Tessellate Authors
// SPDX-License-Identifier: Apache-2.0

package compress

// Decision is the outcome of negotiating how a fetched asset reaches
// its native (uncompressed) form.
type Decision int

const (
	// AlreadyDecoded means the transport layer decoded the asset's
	// content encoding in flight; the fetched bytes are native and
	// must not be decoded again.
	AlreadyDecoded Decision = iota

	// MustDecodeStream means the fetched bytes are still compressed
	// and a streaming decoder for the expected codec is available;
	// the caller decodes with DecompressStream.
	MustDecodeStream

	// Unsupported means the bytes are compressed and no decoder for
	// the expected codec exists. Fatal to the caller.
	Unsupported
)

// String returns the decision name for logs and error messages.
func (d Decision) String() string {
	switch d {
	case AlreadyDecoded:
		return "already-decoded"
	case MustDecodeStream:
		return "must-decode-stream"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// streamDecoders lists the codecs DecompressStream can decode. The
// availability check is explicit rather than attempted-and-failed so
// that Negotiate stays a pure decision function.
var streamDecoders = map[Codec]bool{
	CodecNone: true,
	CodecGzip: true,
}

// HasStreamDecoder reports whether a streaming decoder exists for
// codec.
func HasStreamDecoder(codec Codec) bool {
	return streamDecoders[codec]
}

// Negotiate decides whether fetched bytes need client-side decoding.
//
// transportEncoding is the codec name the transport layer reports
// having already decoded ("" when it decoded nothing). Transport
// metadata is the only evidence available — its absence means "not
// decoded", never "decoding unnecessary". If the indicator names the
// expected codec the bytes are already native; otherwise a streaming
// decoder must be available or the asset cannot be loaded.
func Negotiate(transportEncoding string, expected Codec) Decision {
	if transportEncoding != "" && transportEncoding == expected.String() {
		return AlreadyDecoded
	}
	if HasStreamDecoder(expected) {
		return MustDecodeStream
	}
	return Unsupported
}
