package postgres

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// CompressionAlgo specifies the compression algorithm of a stored payload.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the payload size from which payloads are
// compressed.
const DefaultCompressThreshold = 4 * 1024

// PayloadCodec compresses large JSON payloads with zstd. It is safe for
// concurrent use.
type PayloadCodec struct {
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
}

// NewPayloadCodec creates a codec. A threshold <= 0 uses the default.
func NewPayloadCodec(threshold int) (*PayloadCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}
	return &PayloadCodec{encoder: encoder, decoder: decoder, threshold: threshold}, nil
}

// Encode returns the stored form of payload.
func (c *PayloadCodec) Encode(payload []byte) ([]byte, CompressionAlgo) {
	if len(payload) < c.threshold {
		return payload, CompressionNone
	}
	return c.encoder.EncodeAll(payload, nil), CompressionZstd
}

// Decode reverses Encode.
func (c *PayloadCodec) Decode(data []byte, algo CompressionAlgo) ([]byte, error) {
	switch algo {
	case CompressionNone, "":
		return data, nil
	case CompressionZstd:
		out, err := c.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress payload: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", algo)
	}
}
