// Package protocol implements the client side of the Minecraft Java "Server List Ping"
// status exchange: handshake, status request and status response frames.
package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/woozymasta/mcseek/internal/varint"
)

const (
	// DefaultProtocolVersion matches the 1.21 release line.
	DefaultProtocolVersion = 767

	handshakePacketID = 0x00
	statusPacketID    = 0x00

	// nextStateStatus selects the status state in the handshake.
	nextStateStatus = 1

	// maxStatusLength is the protocol string ceiling: 32767 UTF-16 units, up to 4 bytes each.
	maxStatusLength = 32767 * 4
)

// Reader is the stream a status response is decoded from.
type Reader interface {
	io.Reader
	io.ByteReader
}

// BuildHandshake returns the length-prefixed handshake frame announcing the status state.
func BuildHandshake(address string, port uint16, protocolVersion int) []byte {
	body := make([]byte, 0, 16+len(address))
	body = append(body, handshakePacketID)
	body = varint.Append(body, uint32(int32(protocolVersion)))
	body = varint.Append(body, uint32(len(address)))
	body = append(body, address...)
	body = binary.BigEndian.AppendUint16(body, port)
	body = varint.Append(body, nextStateStatus)

	frame := varint.Append(make([]byte, 0, varint.MaxLen+len(body)), uint32(len(body)))
	return append(frame, body...)
}

// StatusRequest returns the fixed status request frame: length 1, packet id 0.
func StatusRequest() []byte {
	return []byte{0x01, statusPacketID}
}

// BuildStatusResponse frames a JSON status document the way a server answers a status request.
func BuildStatusResponse(doc []byte) []byte {
	body := make([]byte, 0, 1+varint.MaxLen+len(doc))
	body = append(body, statusPacketID)
	body = varint.Append(body, uint32(len(doc)))
	body = append(body, doc...)

	frame := varint.Append(make([]byte, 0, varint.MaxLen+len(body)), uint32(len(body)))
	return append(frame, body...)
}

// ReadStatusResponse decodes one status response frame and parses its JSON document.
// The declared frame length is decoded but not checked against the payload.
func ReadStatusResponse(r Reader) (*Status, error) {
	if _, err := varint.Decode(r); err != nil {
		return nil, fmt.Errorf("%w: frame length: %w", ErrMalformedFrame, err)
	}

	if _, err := varint.Decode(r); err != nil {
		return nil, fmt.Errorf("%w: packet id: %w", ErrMalformedFrame, err)
	}

	size, err := varint.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: payload length: %w", ErrMalformedFrame, err)
	}
	if size > maxStatusLength {
		return nil, fmt.Errorf("%w: payload length %d exceeds %d", ErrMalformedFrame, size, maxStatusLength)
	}

	payload := make([]byte, size)
	if n, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: got %d of %d bytes: %w", ErrIncompleteRead, n, size, err)
	}

	return ParseStatus(payload)
}

// ParseStatus parses a raw status document.
func ParseStatus(payload []byte) (*Status, error) {
	if !utf8.Valid(payload) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrProtocolParse)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProtocolParse, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: document is not an object", ErrProtocolParse)
	}

	return &Status{Fields: fields, Raw: payload}, nil
}
