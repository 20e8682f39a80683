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

package sercodec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mynewt.apache.org/bleser/serxact/serxutil"
)

func TestIntegersLittleEndian(t *testing.T) {
	buf := make([]byte, 8)
	e := NewEncoder(buf)

	require.NoError(t, e.PutU8(0xab))
	require.NoError(t, e.PutU16(0x1234))
	require.NoError(t, e.PutU32(0xdeadbeef))
	require.NoError(t, e.PutI8(-2))
	assert.Equal(t, 8, e.Len())
	assert.Equal(t,
		[]byte{0xab, 0x34, 0x12, 0xef, 0xbe, 0xad, 0xde, 0xfe}, e.Bytes())

	d := NewDecoder(e.Bytes())
	u8, err := d.U8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xab), u8)

	u16, err := d.U16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	u32, err := d.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), u32)

	i8, err := d.I8()
	require.NoError(t, err)
	assert.Equal(t, int8(-2), i8)

	assert.NoError(t, d.Finish())
}

func TestEncodeOverflowWritesNothing(t *testing.T) {
	tests := []struct {
		name string
		fn   func(e *Encoder) error
	}{
		{"u16", func(e *Encoder) error { return e.PutU16(0xffff) }},
		{"u32", func(e *Encoder) error { return e.PutU32(0xffffffff) }},
		{"bytes", func(e *Encoder) error {
			return e.PutBytes([]byte{1, 2, 3})
		}},
		{"lenbuf8", func(e *Encoder) error {
			return e.PutLenBuf8([]byte{1, 2})
		}},
		{"lenbuf16", func(e *Encoder) error {
			return e.PutLenBuf16([]byte{1})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := []byte{0x55, 0x55, 0x55}
			e := NewEncoder(buf)
			require.NoError(t, e.PutU8(0x01))
			require.NoError(t, e.PutU8(0x02))

			err := tt.fn(e)
			require.Error(t, err)
			assert.True(t, serxutil.IsInvalidLength(err))
			assert.Equal(t, 2, e.Len())
			assert.Equal(t, []byte{0x01, 0x02, 0x55}, buf)
		})
	}
}

func TestDecodeUnderflow(t *testing.T) {
	d := NewDecoder([]byte{0x01})

	_, err := d.U16()
	require.Error(t, err)
	assert.True(t, serxutil.IsInvalidLength(err))
	assert.Equal(t, 0, d.Off())

	_, err = d.U8()
	assert.NoError(t, err)
	_, err = d.U8()
	assert.True(t, serxutil.IsInvalidLength(err))
}

func TestLenBufRoundTrip(t *testing.T) {
	buf := make([]byte, 16)
	e := NewEncoder(buf)
	require.NoError(t, e.PutLenBuf8([]byte("abc")))
	require.NoError(t, e.PutLenBuf16([]byte("hello")))
	assert.Equal(t, []byte{3, 'a', 'b', 'c', 5, 0, 'h', 'e', 'l', 'l', 'o'},
		e.Bytes())

	d := NewDecoder(e.Bytes())
	a, err := d.LenBuf8(31)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), a)

	b, err := d.LenBuf16(248)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), b)
	assert.NoError(t, d.Finish())
}

func TestLenBufMax(t *testing.T) {
	d := NewDecoder([]byte{4, 1, 2, 3, 4})
	_, err := d.LenBuf8(3)
	require.Error(t, err)
	assert.True(t, serxutil.IsInvalidLength(err))
}

func TestDecodedBytesDoNotAlias(t *testing.T) {
	src := []byte{2, 0xaa, 0xbb}
	d := NewDecoder(src)
	out, err := d.LenBuf8(10)
	require.NoError(t, err)

	src[1] = 0
	assert.Equal(t, []byte{0xaa, 0xbb}, out)
}

func TestCond(t *testing.T) {
	buf := make([]byte, 8)
	e := NewEncoder(buf)

	called := false
	require.NoError(t, e.PutCond(false, func(e *Encoder) error {
		called = true
		return nil
	}))
	assert.False(t, called)

	require.NoError(t, e.PutCond(true, func(e *Encoder) error {
		return e.PutU16(0x0102)
	}))
	assert.Equal(t, []byte{NOT_PRESENT, PRESENT, 0x02, 0x01}, e.Bytes())

	d := NewDecoder(e.Bytes())
	present, err := d.Cond(func(d *Decoder) error {
		t.Fatal("absent field decoded")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, present)

	var v uint16
	present, err = d.Cond(func(d *Decoder) error {
		var err error
		v, err = d.U16()
		return err
	})
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, uint16(0x0102), v)
	assert.NoError(t, d.Finish())
}

func TestMalformedPresence(t *testing.T) {
	d := NewDecoder([]byte{2})
	_, err := d.Presence()
	require.Error(t, err)
	assert.True(t, serxutil.IsInvalidParam(err))
}

func TestFinishTrailing(t *testing.T) {
	d := NewDecoder([]byte{1, 2})
	_, err := d.U8()
	require.NoError(t, err)

	err = d.Finish()
	require.Error(t, err)
	assert.True(t, serxutil.IsInvalidLength(err))
	assert.Equal(t, 1, d.Remaining())
}

func TestRead(t *testing.T) {
	var dst [4]byte
	d := NewDecoder([]byte{1, 2, 3, 4})
	require.NoError(t, d.Read(dst[:]))
	assert.True(t, bytes.Equal(dst[:], []byte{1, 2, 3, 4}))
}
