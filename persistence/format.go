package persistence

import (
	"errors"
	"fmt"
)

const (
	// Magic identifies snapshot files.
	Magic = "PSOM"
	// Version is the current snapshot format version.
	Version uint16 = 1
)

var (
	ErrInvalidMagic       = errors.New("invalid magic number")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrUnknownKind        = errors.New("unknown map kind")
	ErrUnknownCodec       = errors.New("unknown codec")
	ErrUnknownCompression = errors.New("unknown compression")
	ErrTruncated          = errors.New("truncated snapshot")
)

// Compression selects the payload compression algorithm.
type Compression uint8

const (
	// CompressionNone stores the state vector uncompressed.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, for frequent checkpoints).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses Zstandard (better ratio, for archived snapshots).
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

func (c Compression) valid() bool {
	return c <= CompressionZSTD
}
