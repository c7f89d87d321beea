package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedFrame means a frame header could not be decoded.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrIncompleteRead means the peer sent fewer payload bytes than it declared.
	ErrIncompleteRead = errors.New("incomplete read")

	// ErrProtocolParse means the payload is not valid UTF-8 JSON object.
	ErrProtocolParse = errors.New("status payload parse error")

	// ErrMissingFields means the status document lacks the keys every server sends.
	ErrMissingFields = errors.New("status document is missing required fields")

	// ErrInvalidPort is returned for ports outside 1..65535.
	ErrInvalidPort = errors.New("invalid port")
)

// ConnError reports a failure to reach the peer: refused, timed out or unreachable.
type ConnError struct {
	Err  error
	Addr string
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Addr, e.Err)
}

func (e *ConnError) Unwrap() error {
	return e.Err
}
