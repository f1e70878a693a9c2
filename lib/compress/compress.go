// Copyright 2026 The Tessellate Authors
// SPDX-License-Identifier: Apache-2.0

package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies a compression codec used for a deployed asset.
// Codec names appear in deployment manifests and in HTTP
// Content-Encoding values — changing a name breaks compatibility with
// already-published bundles.
type Codec uint8

const (
	// CodecNone indicates uncompressed data. Used for assets that are
	// already in a compressed container format (images, fonts) where
	// recompression adds CPU cost without reducing size.
	CodecNone Codec = 0

	// CodecGzip indicates the gzip streaming container. This is the
	// transport-level codec for script assets: web servers and
	// intermediaries speak it natively, so a gzip asset may arrive
	// already decoded by the transport.
	CodecGzip Codec = 1

	// CodecZstd indicates zstd frames. The default block codec for the
	// binary compute payload: the producer's compression ratio depends
	// on zstd, and intermediary transports do not decode it, so the
	// payload always reaches the client compressed.
	CodecZstd Codec = 2

	// CodecLZ4 indicates the LZ4 frame format. Alternate block codec
	// for bundles that trade ratio for decode speed.
	CodecLZ4 Codec = 3
)

// String returns the codec name as used in manifests and
// Content-Encoding values.
func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecGzip:
		return "gzip"
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// ParseCodec parses a codec from its manifest name.
func ParseCodec(name string) (Codec, error) {
	switch name {
	case "none":
		return CodecNone, nil
	case "gzip":
		return CodecGzip, nil
	case "zstd":
		return CodecZstd, nil
	case "lz4":
		return CodecLZ4, nil
	default:
		return 0, fmt.Errorf("unknown codec: %q", name)
	}
}

// MaxDecodedSize bounds the output of any single decode: 1 GB. This
// exists solely to stop a corrupt or hostile compressed stream from
// exhausting memory. Real bundles are orders of magnitude smaller; the
// bound is generous so it never interferes with legitimate payloads.
const MaxDecodedSize int64 = 1 << 30

// zstdEncoder and zstdDecoder are shared across calls to avoid
// repeated initialization overhead. Both are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("compress: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil,
		zstd.WithDecoderMaxMemory(uint64(MaxDecodedSize)),
	)
	if err != nil {
		panic("compress: zstd decoder initialization failed: " + err.Error())
	}
}

// DecompressStream decodes a complete streaming-container buffer
// (gzip) by feeding it through an incremental reader and collecting
// the output. Used when the transport delivered the raw compressed
// bytes and Negotiate chose MustDecodeStream.
func DecompressStream(data []byte, codec Codec) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil

	case CodecGzip:
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, &DecodeError{Codec: codec, Err: err}
		}
		defer reader.Close()

		decoded, err := readBounded(reader, codec)
		if err != nil {
			return nil, err
		}
		// Close surfaces a trailing CRC/length mismatch that Read
		// alone can miss on truncated input.
		if err := reader.Close(); err != nil {
			return nil, &DecodeError{Codec: codec, Err: err}
		}
		return decoded, nil

	default:
		return nil, &DecodeError{Codec: codec, Err: fmt.Errorf("no streaming decoder for %s", codec)}
	}
}

// DecompressBlock decodes a complete block-compressed buffer in one
// call. Both block codecs use self-describing frame formats, so the
// decoded size is taken from the frame rather than from the caller.
func DecompressBlock(data []byte, codec Codec) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil

	case CodecZstd:
		decoded, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, &DecodeError{Codec: codec, Err: err}
		}
		return decoded, nil

	case CodecLZ4:
		reader := lz4.NewReader(bytes.NewReader(data))
		return readBounded(reader, codec)

	default:
		return nil, &DecodeError{Codec: codec, Err: fmt.Errorf("no block decoder for %s", codec)}
	}
}

// CompressStream encodes data into the streaming-container format for
// codec. The counterpart of DecompressStream, used by producers and by
// test fixtures.
func CompressStream(data []byte, codec Codec) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil

	case CodecGzip:
		var buffer bytes.Buffer
		writer := gzip.NewWriter(&buffer)
		if _, err := writer.Write(data); err != nil {
			return nil, fmt.Errorf("gzip compress: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("gzip compress: %w", err)
		}
		return buffer.Bytes(), nil

	default:
		return nil, fmt.Errorf("no streaming encoder for %s", codec)
	}
}

// CompressBlock encodes data into the block frame format for codec.
func CompressBlock(data []byte, codec Codec) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil

	case CodecZstd:
		return zstdEncoder.EncodeAll(data, nil), nil

	case CodecLZ4:
		var buffer bytes.Buffer
		writer := lz4.NewWriter(&buffer)
		if _, err := writer.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buffer.Bytes(), nil

	default:
		return nil, fmt.Errorf("no block encoder for %s", codec)
	}
}

// readBounded drains reader into a buffer, failing with a DecodeError
// if the decoded output exceeds MaxDecodedSize.
func readBounded(reader io.Reader, codec Codec) ([]byte, error) {
	var buffer bytes.Buffer
	n, err := io.Copy(&buffer, io.LimitReader(reader, MaxDecodedSize+1))
	if err != nil {
		return nil, &DecodeError{Codec: codec, Err: err}
	}
	if n > MaxDecodedSize {
		return nil, &DecodeError{
			Codec: codec,
			Err:   fmt.Errorf("decoded output exceeds %d byte bound", MaxDecodedSize),
		}
	}
	return buffer.Bytes(), nil
}
