// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compact

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/dynenc/lib/b4a"
)

var (
	// ErrOutOfBounds is returned when an encode or decode pass touches
	// bytes beyond State.End or the end of State.Buffer.
	ErrOutOfBounds = errors.New("compact: out of bounds")

	// ErrMissingCapability is returned when a codec adapted from a
	// [Raw] is asked for an operation it was not given.
	ErrMissingCapability = errors.New("compact: capability not provided")

	// ErrLengthMismatch is returned by [Encode] when the encode pass
	// does not fill the buffer preencode sized.
	ErrLengthMismatch = errors.New("compact: encoded length differs from preencoded length")
)

// State is the mutable cursor shared by an encoder's three operations.
// Start is the read/write position, End is the limit (and during
// preencode, the running size). The caller owns the State; codecs never
// retain it.
type State struct {
	Start  int
	End    int
	Buffer []byte
}

// Codec is a compact encoder.
type Codec interface {
	Preencode(state *State, value any) error
	Encode(state *State, value any) error
	Decode(state *State) (any, error)
}

// Raw holds the operations of a codec as plain functions. Any of them
// may be nil.
type Raw struct {
	Preencode func(state *State, value any) error
	Encode    func(state *State, value any) error
	Decode    func(state *State) (any, error)
}

// From adapts raw to a [Codec]. Invoking an operation raw does not
// provide returns [ErrMissingCapability].
func From(raw Raw) Codec {
	return rawCodec{raw: raw}
}

type rawCodec struct {
	raw Raw
}

func (c rawCodec) Preencode(state *State, value any) error {
	if c.raw.Preencode == nil {
		return fmt.Errorf("preencode: %w", ErrMissingCapability)
	}
	return c.raw.Preencode(state, value)
}

func (c rawCodec) Encode(state *State, value any) error {
	if c.raw.Encode == nil {
		return fmt.Errorf("encode: %w", ErrMissingCapability)
	}
	return c.raw.Encode(state, value)
}

func (c rawCodec) Decode(state *State) (any, error) {
	if c.raw.Decode == nil {
		return nil, fmt.Errorf("decode: %w", ErrMissingCapability)
	}
	return c.raw.Decode(state)
}

// Encode runs the preencode, allocate, encode protocol and returns the
// encoded bytes.
func Encode(codec Codec, value any) ([]byte, error) {
	state := &State{}
	if err := codec.Preencode(state, value); err != nil {
		return nil, err
	}
	if state.End < 0 {
		return nil, fmt.Errorf("%w: preencode produced negative length %d", ErrLengthMismatch, state.End)
	}

	state.Buffer = b4a.Alloc(state.End)
	if err := codec.Encode(state, value); err != nil {
		return nil, err
	}
	if state.Start != state.End {
		return nil, fmt.Errorf("%w: wrote %d of %d bytes", ErrLengthMismatch, state.Start, state.End)
	}
	return state.Buffer, nil
}

// Decode decodes one value from the start of buffer. Trailing bytes are
// not an error.
func Decode(codec Codec, buffer []byte) (any, error) {
	state := &State{Start: 0, End: len(buffer), Buffer: buffer}
	return codec.Decode(state)
}

// Reserve returns the n bytes at Start for writing and advances Start.
func (s *State) Reserve(n int) ([]byte, error) {
	if n < 0 || s.Start < 0 || s.Start+n > s.End || s.Start+n > len(s.Buffer) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, limit %d", ErrOutOfBounds, n, s.Start, min(s.End, len(s.Buffer)))
	}
	window := s.Buffer[s.Start : s.Start+n]
	s.Start += n
	return window, nil
}

// Take returns the n bytes at Start for reading and advances Start.
// The returned slice aliases Buffer.
func (s *State) Take(n int) ([]byte, error) {
	return s.Reserve(n)
}
