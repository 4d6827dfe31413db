// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package codec implements the binary wire format shared by RPC bodies and
// duplex-channel payloads: fixed-width little-endian integers,
// length-prefixed byte strings and vectors, and tagged unions keyed by a
// little-endian u32 ordinal. No third-party serialization library in the
// surveyed dependency set speaks this exact layout (it exists so the Go
// server and the original Rust implementation's bincode-encoded clients
// stay wire-compatible), so it is hand-rolled on top of encoding/binary;
// see DESIGN.md for the justification.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated is returned when a Reader runs out of bytes mid-field.
var ErrTruncated = errors.New("codec: truncated input")

// Writer accumulates fields into a single binary-codec payload.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the encoded payload so far.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Bool writes a single-byte boolean.
func (w *Writer) Bool(v bool) *Writer {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
	return w
}

// U8 writes an unsigned byte.
func (w *Writer) U8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

// U32 writes a little-endian uint32, used for tagged-union ordinals and
// other fixed 32-bit fields; vector lengths are written with U64.
func (w *Writer) U32(v uint32) *Writer {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
	return w
}

// U64 writes a little-endian uint64, used for byte-vector length prefixes.
func (w *Writer) U64(v uint64) *Writer {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
	return w
}

// I64 writes a little-endian int64, used for Unix-epoch timestamps.
func (w *Writer) I64(v int64) *Writer {
	return w.U64(uint64(v))
}

// BytesField writes a u64 length prefix followed by the raw bytes.
func (w *Writer) BytesField(v []byte) *Writer {
	w.U64(uint64(len(v)))
	w.buf = append(w.buf, v...)
	return w
}

// String writes a u64 length prefix followed by the UTF-8 bytes of s.
func (w *Writer) String(s string) *Writer {
	return w.BytesField([]byte(s))
}

// Tag writes a tagged-union ordinal ahead of that variant's fields.
func (w *Writer) Tag(ordinal uint32) *Writer {
	return w.U32(ordinal)
}

// Reader consumes fields from a binary-codec payload in order.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps data for sequential decoding.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Remaining reports how many bytes remain unconsumed.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, ErrTruncated
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Bool reads a single-byte boolean.
func (r *Reader) Bool() (bool, error) {
	b, err := r.take(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// U8 reads an unsigned byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U64 reads a little-endian uint64.
func (r *Reader) U64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// I64 reads a little-endian int64.
func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

// BytesField reads a u64 length prefix followed by that many raw bytes.
func (r *Reader) BytesField() ([]byte, error) {
	n, err := r.U64()
	if err != nil {
		return nil, err
	}
	b, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// String reads a u64 length prefix followed by that many UTF-8 bytes.
func (r *Reader) String() (string, error) {
	b, err := r.BytesField()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Tag reads a tagged-union ordinal.
func (r *Reader) Tag() (uint32, error) {
	return r.U32()
}

// Codec is implemented by every type with a stable binary-codec encoding.
type Codec interface {
	Encode(w *Writer)
	Decode(r *Reader) error
}

// Marshal encodes v's fields into a standalone payload.
func Marshal(v Codec) []byte {
	w := NewWriter()
	v.Encode(w)
	return w.Bytes()
}

// Unmarshal decodes data into v, failing if trailing bytes remain.
func Unmarshal(data []byte, v Codec) error {
	r := NewReader(data)
	if err := v.Decode(r); err != nil {
		return fmt.Errorf("codec: decode: %w", err)
	}
	if r.Remaining() != 0 {
		return fmt.Errorf("codec: %d trailing bytes", r.Remaining())
	}
	return nil
}
