package store

import (
	"encoding/binary"
)

/*
Codec encodes values of a fixed-width type to and from a stable big-endian
binary layout.

The index stores keys and values on disk through codecs rather than through
in-memory struct layout, so the on-disk format does not depend on padding or
field order.
*/
type Codec[T any] interface {
	// EncodedSize returns the fixed number of bytes an encoded value takes.
	EncodedSize() uint32
	// Encode writes the value into buf, which holds at least EncodedSize bytes.
	Encode(buf []byte, value T)
	// Decode reads a value from buf, which holds at least EncodedSize bytes.
	Decode(buf []byte) T
}

// Uint32Codec encodes uint32 values as 4 big-endian bytes.
type Uint32Codec struct{}

func (Uint32Codec) EncodedSize() uint32 {
	return 4
}

func (Uint32Codec) Encode(buf []byte, value uint32) {
	binary.BigEndian.PutUint32(buf, value)
}

func (Uint32Codec) Decode(buf []byte) uint32 {
	return binary.BigEndian.Uint32(buf)
}

// Uint64Codec encodes uint64 values as 8 big-endian bytes.
type Uint64Codec struct{}

func (Uint64Codec) EncodedSize() uint32 {
	return 8
}

func (Uint64Codec) Encode(buf []byte, value uint64) {
	binary.BigEndian.PutUint64(buf, value)
}

func (Uint64Codec) Decode(buf []byte) uint64 {
	return binary.BigEndian.Uint64(buf)
}

// Bytes10Codec encodes fixed 10-byte values verbatim.
type Bytes10Codec struct{}

func (Bytes10Codec) EncodedSize() uint32 {
	return 10
}

func (Bytes10Codec) Encode(buf []byte, value [10]byte) {
	copy(buf, value[:])
}

func (Bytes10Codec) Decode(buf []byte) [10]byte {
	var value [10]byte
	copy(value[:], buf)
	return value
}

// CompareUint64 orders uint64 keys; the index only relies on equality.
func CompareUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
