// Package varint implements the variable-length integer format used by the Minecraft protocol:
// 7 payload bits per byte, least significant group first, high bit set on every byte but the last.
package varint

import (
	"errors"
	"io"
)

// MaxLen is the longest valid encoding of a 32-bit value.
const MaxLen = 5

var (
	// ErrTooLarge is returned when the encoding does not terminate within MaxLen bytes
	// or carries more than 32 bits.
	ErrTooLarge = errors.New("varint is too large")

	// ErrStreamExhausted is returned when the source ends before a terminating byte.
	ErrStreamExhausted = errors.New("stream exhausted before varint end")
)

// Encode returns the encoding of v.
func Encode(v uint32) []byte {
	return Append(make([]byte, 0, Size(v)), v)
}

// Append appends the encoding of v to dst and returns the extended slice.
func Append(dst []byte, v uint32) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v&0x7F)|0x80)
		v >>= 7
	}

	return append(dst, byte(v))
}

// Size returns the number of bytes Encode(v) produces.
func Size(v uint32) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}

	return n
}

// Decode reads one varint from r. It never consumes more than MaxLen bytes.
func Decode(r io.ByteReader) (uint32, error) {
	var result uint32
	for i := 0; i < MaxLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, ErrStreamExhausted
			}
			return 0, err
		}

		// the fifth byte carries only the top four bits of a uint32
		if i == MaxLen-1 && b&0x70 != 0 {
			return 0, ErrTooLarge
		}

		result |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return result, nil
		}
	}

	return 0, ErrTooLarge
}
