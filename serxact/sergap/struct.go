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

package sergap

import (
	. "mynewt.apache.org/bleser/serxact/bledefs"
	"mynewt.apache.org/bleser/serxact/sercodec"
	"mynewt.apache.org/bleser/serxact/serxutil"
)

type encoder = sercodec.Encoder
type decoder = sercodec.Decoder

func bit(b bool, pos uint) uint8 {
	if b {
		return 1 << pos
	}
	return 0
}

func isSet(v uint8, pos uint) bool {
	return v&(1<<pos) != 0
}

func encBleDev(e *encoder, v *BleDev) error {
	if v.AddrType < 0 || v.AddrType > 0xff {
		return serxutil.FmtInvalidParamError("invalid addr type: %d",
			v.AddrType)
	}
	if err := e.PutU8(uint8(v.AddrType)); err != nil {
		return err
	}
	return e.PutBytes(v.Addr.Bytes[:])
}

func decBleDev(d *decoder, v *BleDev) error {
	t, err := d.U8()
	if err != nil {
		return err
	}
	v.AddrType = BleAddrType(t)

	return d.Read(v.Addr.Bytes[:])
}

func encConnParams(e *encoder, v *BleConnParams) error {
	for _, u := range []uint16{
		v.MinConnItvl, v.MaxConnItvl, v.SlaveLatency, v.ConnSupTimeout,
	} {
		if err := e.PutU16(u); err != nil {
			return err
		}
	}

	return nil
}

func decConnParams(d *decoder, v *BleConnParams) error {
	for _, p := range []*uint16{
		&v.MinConnItvl, &v.MaxConnItvl, &v.SlaveLatency, &v.ConnSupTimeout,
	} {
		u, err := d.U16()
		if err != nil {
			return err
		}
		*p = u
	}

	return nil
}

func encScanParams(e *encoder, v *BleScanParams) error {
	if err := e.PutU8(bit(v.Active, 0) | bit(v.Selective, 1)); err != nil {
		return err
	}

	if err := e.PutCond(v.Whitelist != nil, func(e *encoder) error {
		return encWhitelist(e, v.Whitelist)
	}); err != nil {
		return err
	}

	for _, u := range []uint16{v.Interval, v.Window, v.Timeout} {
		if err := e.PutU16(u); err != nil {
			return err
		}
	}

	return nil
}

func decScanParams(d *decoder, v *BleScanParams) error {
	flags, err := d.U8()
	if err != nil {
		return err
	}
	v.Active = isSet(flags, 0)
	v.Selective = isSet(flags, 1)

	v.Whitelist = nil
	if _, err := d.Cond(func(d *decoder) error {
		v.Whitelist = &BleWhitelist{}
		return decWhitelist(d, v.Whitelist)
	}); err != nil {
		return err
	}

	for _, p := range []*uint16{&v.Interval, &v.Window, &v.Timeout} {
		u, err := d.U16()
		if err != nil {
			return err
		}
		*p = u
	}

	return nil
}

func encAdvParams(e *encoder, v *BleAdvParams) error {
	if v.Type < 0 || v.Type > 0xff {
		return serxutil.FmtInvalidParamError("invalid adv type: %d", v.Type)
	}
	if v.Fp < 0 || v.Fp > 0xff {
		return serxutil.FmtInvalidParamError("invalid filter policy: %d",
			v.Fp)
	}

	if err := e.PutU8(uint8(v.Type)); err != nil {
		return err
	}
	if err := e.PutCond(v.PeerAddr != nil, func(e *encoder) error {
		return encBleDev(e, v.PeerAddr)
	}); err != nil {
		return err
	}
	if err := e.PutU8(uint8(v.Fp)); err != nil {
		return err
	}
	if err := e.PutCond(v.Whitelist != nil, func(e *encoder) error {
		return encWhitelist(e, v.Whitelist)
	}); err != nil {
		return err
	}
	if err := e.PutU16(v.Interval); err != nil {
		return err
	}
	if err := e.PutU16(v.Timeout); err != nil {
		return err
	}

	mask := bit(v.ChMask.Ch37Off, 0) |
		bit(v.ChMask.Ch38Off, 1) |
		bit(v.ChMask.Ch39Off, 2)
	return e.PutU8(mask)
}

func decAdvParams(d *decoder, v *BleAdvParams) error {
	t, err := d.U8()
	if err != nil {
		return err
	}
	v.Type = BleAdvType(t)

	v.PeerAddr = nil
	if _, err := d.Cond(func(d *decoder) error {
		v.PeerAddr = &BleDev{}
		return decBleDev(d, v.PeerAddr)
	}); err != nil {
		return err
	}

	fp, err := d.U8()
	if err != nil {
		return err
	}
	v.Fp = BleAdvFilterPolicy(fp)

	v.Whitelist = nil
	if _, err := d.Cond(func(d *decoder) error {
		v.Whitelist = &BleWhitelist{}
		return decWhitelist(d, v.Whitelist)
	}); err != nil {
		return err
	}

	if v.Interval, err = d.U16(); err != nil {
		return err
	}
	if v.Timeout, err = d.U16(); err != nil {
		return err
	}

	mask, err := d.U8()
	if err != nil {
		return err
	}
	v.ChMask = BleAdvChMask{
		Ch37Off: isSet(mask, 0),
		Ch38Off: isSet(mask, 1),
		Ch39Off: isSet(mask, 2),
	}

	return nil
}

func kdistByte(v *BleSecKdist) uint8 {
	return bit(v.Enc, 0) | bit(v.Id, 1) | bit(v.Sign, 2) | bit(v.Link, 3)
}

func kdistFromByte(b uint8) BleSecKdist {
	return BleSecKdist{
		Enc:  isSet(b, 0),
		Id:   isSet(b, 1),
		Sign: isSet(b, 2),
		Link: isSet(b, 3),
	}
}

func encSecParams(e *encoder, v *BleSecParams) error {
	if v.IoCaps < 0 || v.IoCaps > 7 {
		return serxutil.FmtInvalidParamError("invalid io caps: %d", v.IoCaps)
	}

	flags := bit(v.Bond, 0) |
		bit(v.Mitm, 1) |
		bit(v.Lesc, 2) |
		bit(v.Keypress, 3) |
		uint8(v.IoCaps)<<4 |
		bit(v.Oob, 7)

	for _, b := range []uint8{
		flags,
		v.MinKeySize,
		v.MaxKeySize,
		kdistByte(&v.KdistOwn),
		kdistByte(&v.KdistPeer),
	} {
		if err := e.PutU8(b); err != nil {
			return err
		}
	}

	return nil
}

func decSecParams(d *decoder, v *BleSecParams) error {
	var raw [5]byte
	if err := d.Read(raw[:]); err != nil {
		return err
	}

	flags := raw[0]
	v.Bond = isSet(flags, 0)
	v.Mitm = isSet(flags, 1)
	v.Lesc = isSet(flags, 2)
	v.Keypress = isSet(flags, 3)
	v.IoCaps = BleIoCaps((flags >> 4) & 0x07)
	v.Oob = isSet(flags, 7)

	v.MinKeySize = raw[1]
	v.MaxKeySize = raw[2]
	v.KdistOwn = kdistFromByte(raw[3])
	v.KdistPeer = kdistFromByte(raw[4])

	return nil
}

func secLevelsByte(v *BleSecLevels) uint8 {
	return bit(v.Lv1, 0) | bit(v.Lv2, 1) | bit(v.Lv3, 2) | bit(v.Lv4, 3)
}

func secLevelsFromByte(b uint8) BleSecLevels {
	return BleSecLevels{
		Lv1: isSet(b, 0),
		Lv2: isSet(b, 1),
		Lv3: isSet(b, 2),
		Lv4: isSet(b, 3),
	}
}

func encConnSecMode(e *encoder, v *BleConnSecMode) error {
	if v.Sm > 0x0f || v.Lv > 0x0f {
		return serxutil.FmtInvalidParamError(
			"invalid security mode: sm=%d lv=%d", v.Sm, v.Lv)
	}

	return e.PutU8(v.Sm | v.Lv<<4)
}

func decConnSecMode(d *decoder, v *BleConnSecMode) error {
	b, err := d.U8()
	if err != nil {
		return err
	}

	v.Sm = b & 0x0f
	v.Lv = b >> 4
	return nil
}

func encConnSec(e *encoder, v *BleConnSec) error {
	if err := encConnSecMode(e, &v.SecMode); err != nil {
		return err
	}

	return e.PutU8(v.EncrKeySize)
}

func decConnSec(d *decoder, v *BleConnSec) error {
	if err := decConnSecMode(d, &v.SecMode); err != nil {
		return err
	}

	var err error
	v.EncrKeySize, err = d.U8()
	return err
}
