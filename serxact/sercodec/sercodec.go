/**
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package sercodec implements the primitive field codec shared by every
// serialized structure, command, and event: fixed-width little-endian
// integers, raw and length-prefixed buffers, and presence-tagged fields.
//
// Both cursors operate on a caller-supplied buffer.  Every operation checks
// bounds before touching the buffer, so a failed write leaves the buffer
// unchanged from the cursor position onward.  Decoded buffers are always
// copied out of the source slice.
package sercodec

import (
	"encoding/binary"

	"mynewt.apache.org/bleser/serxact/serxutil"
)

const (
	NOT_PRESENT uint8 = 0
	PRESENT     uint8 = 1
)

type Encoder struct {
	buf []byte
	off int
}

func NewEncoder(buf []byte) *Encoder {
	return &Encoder{
		buf: buf,
	}
}

// Number of bytes written so far.
func (e *Encoder) Len() int {
	return e.off
}

func (e *Encoder) Cap() int {
	return len(e.buf)
}

func (e *Encoder) Bytes() []byte {
	return e.buf[:e.off]
}

func (e *Encoder) reserve(n int) ([]byte, error) {
	if n < 0 || e.off+n > len(e.buf) {
		return nil, serxutil.FmtInvalidLengthError(
			"encode overflow: need %d bytes at offset %d; capacity %d",
			n, e.off, len(e.buf))
	}

	b := e.buf[e.off : e.off+n]
	e.off += n
	return b, nil
}

func (e *Encoder) PutU8(v uint8) error {
	b, err := e.reserve(1)
	if err != nil {
		return err
	}

	b[0] = v
	return nil
}

func (e *Encoder) PutI8(v int8) error {
	return e.PutU8(uint8(v))
}

func (e *Encoder) PutBool(v bool) error {
	if v {
		return e.PutU8(1)
	}
	return e.PutU8(0)
}

func (e *Encoder) PutU16(v uint16) error {
	b, err := e.reserve(2)
	if err != nil {
		return err
	}

	binary.LittleEndian.PutUint16(b, v)
	return nil
}

func (e *Encoder) PutU32(v uint32) error {
	b, err := e.reserve(4)
	if err != nil {
		return err
	}

	binary.LittleEndian.PutUint32(b, v)
	return nil
}

// Copies raw bytes with no length prefix.
func (e *Encoder) PutBytes(src []byte) error {
	b, err := e.reserve(len(src))
	if err != nil {
		return err
	}

	copy(b, src)
	return nil
}

// Writes a u8 length followed by the bytes.  The whole field is bounds
// checked up front.
func (e *Encoder) PutLenBuf8(src []byte) error {
	if len(src) > 0xff {
		return serxutil.FmtInvalidLengthError(
			"buffer too long for u8 length prefix: %d", len(src))
	}

	b, err := e.reserve(1 + len(src))
	if err != nil {
		return err
	}

	b[0] = uint8(len(src))
	copy(b[1:], src)
	return nil
}

// Writes a u16 length followed by the bytes.
func (e *Encoder) PutLenBuf16(src []byte) error {
	if len(src) > 0xffff {
		return serxutil.FmtInvalidLengthError(
			"buffer too long for u16 length prefix: %d", len(src))
	}

	b, err := e.reserve(2 + len(src))
	if err != nil {
		return err
	}

	binary.LittleEndian.PutUint16(b, uint16(len(src)))
	copy(b[2:], src)
	return nil
}

func (e *Encoder) PutPresence(present bool) error {
	if present {
		return e.PutU8(PRESENT)
	}
	return e.PutU8(NOT_PRESENT)
}

// Writes the presence byte and, if present, the field produced by fn.
func (e *Encoder) PutCond(present bool, fn func(e *Encoder) error) error {
	if err := e.PutPresence(present); err != nil {
		return err
	}

	if !present {
		return nil
	}

	return fn(e)
}

type Decoder struct {
	buf []byte
	off int
}

func NewDecoder(buf []byte) *Decoder {
	return &Decoder{
		buf: buf,
	}
}

// Number of bytes consumed so far.
func (d *Decoder) Off() int {
	return d.off
}

func (d *Decoder) Remaining() int {
	return len(d.buf) - d.off
}

func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || d.off+n > len(d.buf) {
		return nil, serxutil.FmtInvalidLengthError(
			"decode underflow: need %d bytes at offset %d; have %d",
			n, d.off, len(d.buf))
	}

	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *Decoder) U8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

func (d *Decoder) I8() (int8, error) {
	v, err := d.U8()
	return int8(v), err
}

func (d *Decoder) Bool() (bool, error) {
	v, err := d.U8()
	if err != nil {
		return false, err
	}

	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, serxutil.FmtInvalidParamError(
			"invalid boolean byte: 0x%02x", v)
	}
}

func (d *Decoder) U16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(b), nil
}

func (d *Decoder) U32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

// Returns a copy of the next n bytes.
func (d *Decoder) Bytes(n int) ([]byte, error) {
	b, err := d.take(n)
	if err != nil {
		return nil, err
	}

	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// Fills dst with the next len(dst) bytes.
func (d *Decoder) Read(dst []byte) error {
	b, err := d.take(len(dst))
	if err != nil {
		return err
	}

	copy(dst, b)
	return nil
}

// Reads a u8 length and that many bytes.  A length greater than max is an
// InvalidLength error.
func (d *Decoder) LenBuf8(max int) ([]byte, error) {
	n, err := d.U8()
	if err != nil {
		return nil, err
	}
	if int(n) > max {
		return nil, serxutil.FmtInvalidLengthError(
			"buffer length %d exceeds maximum %d", n, max)
	}

	return d.Bytes(int(n))
}

// Reads a u16 length and that many bytes.
func (d *Decoder) LenBuf16(max int) ([]byte, error) {
	n, err := d.U16()
	if err != nil {
		return nil, err
	}
	if int(n) > max {
		return nil, serxutil.FmtInvalidLengthError(
			"buffer length %d exceeds maximum %d", n, max)
	}

	return d.Bytes(int(n))
}

func (d *Decoder) Presence() (bool, error) {
	v, err := d.U8()
	if err != nil {
		return false, err
	}

	switch v {
	case PRESENT:
		return true, nil
	case NOT_PRESENT:
		return false, nil
	default:
		return false, serxutil.FmtInvalidParamError(
			"malformed presence byte 0x%02x at offset %d", v, d.off-1)
	}
}

// Reads a presence byte and, if present, decodes the field with fn.
func (d *Decoder) Cond(fn func(d *Decoder) error) (bool, error) {
	present, err := d.Presence()
	if err != nil || !present {
		return false, err
	}

	if err := fn(d); err != nil {
		return true, err
	}

	return true, nil
}

// Verifies that every byte of the packet has been consumed.
func (d *Decoder) Finish() error {
	if d.off != len(d.buf) {
		return serxutil.FmtInvalidLengthError(
			"consumed %d bytes of %d-byte packet", d.off, len(d.buf))
	}

	return nil
}
