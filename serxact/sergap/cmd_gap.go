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
	"mynewt.apache.org/bleser/serxact/serxutil"
)

// length(u8) | presence | bytes[length]
func putLenCondBuf8(e *encoder, b []byte, max int) error {
	if len(b) > max {
		return serxutil.FmtInvalidLengthError(
			"buffer length %d exceeds maximum %d", len(b), max)
	}

	if err := e.PutU8(uint8(len(b))); err != nil {
		return err
	}

	return e.PutCond(b != nil, func(e *encoder) error {
		return e.PutBytes(b)
	})
}

func getLenCondBuf8(d *decoder, max int) ([]byte, error) {
	n, err := d.U8()
	if err != nil {
		return nil, err
	}

	return getCondBuf(d, int(n), max)
}

// length(u16) | presence | bytes[length]
func putLenCondBuf16(e *encoder, b []byte, max int) error {
	if len(b) > max {
		return serxutil.FmtInvalidLengthError(
			"buffer length %d exceeds maximum %d", len(b), max)
	}

	if err := e.PutU16(uint16(len(b))); err != nil {
		return err
	}

	return e.PutCond(b != nil, func(e *encoder) error {
		return e.PutBytes(b)
	})
}

func getLenCondBuf16(d *decoder, max int) ([]byte, error) {
	n, err := d.U16()
	if err != nil {
		return nil, err
	}

	return getCondBuf(d, int(n), max)
}

func getCondBuf(d *decoder, n int, max int) ([]byte, error) {
	if n > max {
		return nil, serxutil.FmtInvalidLengthError(
			"buffer length %d exceeds maximum %d", n, max)
	}

	var b []byte
	present, err := d.Cond(func(d *decoder) error {
		var err error
		b, err = d.Bytes(n)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !present && n > 0 {
		return nil, serxutil.FmtInvalidParamError(
			"buffer length %d with absent buffer", n)
	}

	return b, nil
}

type AddrSetReq struct {
	CycleMode uint8   `codec:"cycle_mode" json:"cycle_mode"`
	Addr      *BleDev `codec:"addr" json:"addr"`
}

func (r *AddrSetReq) Opcode() Opcode { return GAP_OP_ADDRESS_SET }

func (r *AddrSetReq) Encode(e *encoder) error {
	if err := e.PutU8(r.CycleMode); err != nil {
		return err
	}

	return putCondDev(e, r.Addr)
}

func (r *AddrSetReq) Decode(d *decoder) error {
	var err error
	if r.CycleMode, err = d.U8(); err != nil {
		return err
	}

	r.Addr, err = getCondDev(d)
	return err
}

type AddrGetReq struct {
	WantAddr bool `codec:"want_addr" json:"want_addr"`
}

func (r *AddrGetReq) Opcode() Opcode { return GAP_OP_ADDRESS_GET }

func (r *AddrGetReq) Encode(e *encoder) error {
	return putOut(e, r.WantAddr)
}

func (r *AddrGetReq) Decode(d *decoder) error {
	var err error
	r.WantAddr, err = getOut(d)
	return err
}

type AddrGetRsp struct {
	Addr *BleDev `codec:"addr" json:"addr"`
}

func (r *AddrGetRsp) Encode(e *encoder) error {
	return putCondDev(e, r.Addr)
}

func (r *AddrGetRsp) Decode(d *decoder) error {
	var err error
	r.Addr, err = getCondDev(d)
	return err
}

type AdvDataSetReq struct {
	Data   []byte `codec:"data" json:"data"`
	SrData []byte `codec:"sr_data" json:"sr_data"`
}

func (r *AdvDataSetReq) Opcode() Opcode { return GAP_OP_ADV_DATA_SET }

func (r *AdvDataSetReq) Encode(e *encoder) error {
	if err := putLenCondBuf8(e, r.Data, BLE_GAP_ADV_MAX_SIZE); err != nil {
		return err
	}

	return putLenCondBuf8(e, r.SrData, BLE_GAP_ADV_MAX_SIZE)
}

func (r *AdvDataSetReq) Decode(d *decoder) error {
	var err error
	if r.Data, err = getLenCondBuf8(d, BLE_GAP_ADV_MAX_SIZE); err != nil {
		return err
	}

	r.SrData, err = getLenCondBuf8(d, BLE_GAP_ADV_MAX_SIZE)
	return err
}

type AdvStartReq struct {
	Params *BleAdvParams `codec:"params" json:"params"`
}

func (r *AdvStartReq) Opcode() Opcode { return GAP_OP_ADV_START }

func (r *AdvStartReq) Encode(e *encoder) error {
	return e.PutCond(r.Params != nil, func(e *encoder) error {
		return encAdvParams(e, r.Params)
	})
}

func (r *AdvStartReq) Decode(d *decoder) error {
	r.Params = nil
	_, err := d.Cond(func(d *decoder) error {
		r.Params = &BleAdvParams{}
		return decAdvParams(d, r.Params)
	})
	return err
}

type AdvStopReq struct{}

func (r *AdvStopReq) Opcode() Opcode { return GAP_OP_ADV_STOP }
func (r *AdvStopReq) Encode(e *encoder) error { return nil }
func (r *AdvStopReq) Decode(d *decoder) error { return nil }

type TxPowerSetReq struct {
	TxPower int8 `codec:"tx_power" json:"tx_power"`
}

func (r *TxPowerSetReq) Opcode() Opcode { return GAP_OP_TX_POWER_SET }

func (r *TxPowerSetReq) Encode(e *encoder) error {
	return e.PutI8(r.TxPower)
}

func (r *TxPowerSetReq) Decode(d *decoder) error {
	var err error
	r.TxPower, err = d.I8()
	return err
}

type AppearanceSetReq struct {
	Appearance uint16 `codec:"appearance" json:"appearance"`
}

func (r *AppearanceSetReq) Opcode() Opcode { return GAP_OP_APPEARANCE_SET }

func (r *AppearanceSetReq) Encode(e *encoder) error {
	return e.PutU16(r.Appearance)
}

func (r *AppearanceSetReq) Decode(d *decoder) error {
	var err error
	r.Appearance, err = d.U16()
	return err
}

type AppearanceGetReq struct {
	WantAppearance bool `codec:"want_appearance" json:"want_appearance"`
}

func (r *AppearanceGetReq) Opcode() Opcode { return GAP_OP_APPEARANCE_GET }

func (r *AppearanceGetReq) Encode(e *encoder) error {
	return putOut(e, r.WantAppearance)
}

func (r *AppearanceGetReq) Decode(d *decoder) error {
	var err error
	r.WantAppearance, err = getOut(d)
	return err
}

type AppearanceGetRsp struct {
	Appearance *uint16 `codec:"appearance" json:"appearance"`
}

func (r *AppearanceGetRsp) Encode(e *encoder) error {
	return putCondU16(e, r.Appearance)
}

func (r *AppearanceGetRsp) Decode(d *decoder) error {
	var err error
	r.Appearance, err = getCondU16(d)
	return err
}

// Peripheral preferred connection parameters.
type PpcpSetReq struct {
	Params *BleConnParams `codec:"params" json:"params"`
}

func (r *PpcpSetReq) Opcode() Opcode { return GAP_OP_PPCP_SET }

func (r *PpcpSetReq) Encode(e *encoder) error {
	return putCondConnParams(e, r.Params)
}

func (r *PpcpSetReq) Decode(d *decoder) error {
	var err error
	r.Params, err = getCondConnParams(d)
	return err
}

type PpcpGetReq struct {
	WantParams bool `codec:"want_params" json:"want_params"`
}

func (r *PpcpGetReq) Opcode() Opcode { return GAP_OP_PPCP_GET }

func (r *PpcpGetReq) Encode(e *encoder) error {
	return putOut(e, r.WantParams)
}

func (r *PpcpGetReq) Decode(d *decoder) error {
	var err error
	r.WantParams, err = getOut(d)
	return err
}

type PpcpGetRsp struct {
	Params *BleConnParams `codec:"params" json:"params"`
}

func (r *PpcpGetRsp) Encode(e *encoder) error {
	return putCondConnParams(e, r.Params)
}

func (r *PpcpGetRsp) Decode(d *decoder) error {
	var err error
	r.Params, err = getCondConnParams(d)
	return err
}

type DevNameSetReq struct {
	WritePerm *BleConnSecMode `codec:"write_perm" json:"write_perm"`
	Name      []byte          `codec:"name" json:"name"`
}

func (r *DevNameSetReq) Opcode() Opcode { return GAP_OP_DEVICE_NAME_SET }

func (r *DevNameSetReq) Encode(e *encoder) error {
	if err := e.PutCond(r.WritePerm != nil, func(e *encoder) error {
		return encConnSecMode(e, r.WritePerm)
	}); err != nil {
		return err
	}

	return putLenCondBuf16(e, r.Name, BLE_GAP_DEVNAME_MAX_LEN)
}

func (r *DevNameSetReq) Decode(d *decoder) error {
	r.WritePerm = nil
	if _, err := d.Cond(func(d *decoder) error {
		r.WritePerm = &BleConnSecMode{}
		return decConnSecMode(d, r.WritePerm)
	}); err != nil {
		return err
	}

	var err error
	r.Name, err = getLenCondBuf16(d, BLE_GAP_DEVNAME_MAX_LEN)
	return err
}

// Len is the capacity of the caller's name buffer.  The name itself is only
// returned if WantName is set.
type DevNameGetReq struct {
	Len      *uint16 `codec:"len" json:"len"`
	WantName bool    `codec:"want_name" json:"want_name"`
}

func (r *DevNameGetReq) Opcode() Opcode { return GAP_OP_DEVICE_NAME_GET }

func (r *DevNameGetReq) Encode(e *encoder) error {
	if r.WantName && r.Len == nil {
		return serxutil.NewNullArgumentError(
			"device name requested without a length")
	}

	if err := putCondU16(e, r.Len); err != nil {
		return err
	}

	return putOut(e, r.WantName)
}

func (r *DevNameGetReq) Decode(d *decoder) error {
	var err error
	if r.Len, err = getCondU16(d); err != nil {
		return err
	}

	if r.WantName, err = getOut(d); err != nil {
		return err
	}

	if r.WantName && r.Len == nil {
		return serxutil.NewNullArgumentError(
			"device name requested without a length")
	}

	return nil
}

// Len is the length of the returned name.  Name, if present, is exactly Len
// bytes with no prefix of its own.
type DevNameGetRsp struct {
	Len  *uint16 `codec:"len" json:"len"`
	Name []byte  `codec:"name" json:"name"`
}

func (r *DevNameGetRsp) Encode(e *encoder) error {
	if r.Name != nil {
		if r.Len == nil {
			return serxutil.NewNullArgumentError(
				"device name returned without a length")
		}
		if int(*r.Len) != len(r.Name) {
			return serxutil.FmtInvalidLengthError(
				"device name length mismatch: len=%d name=%d",
				*r.Len, len(r.Name))
		}
	}

	if err := putCondU16(e, r.Len); err != nil {
		return err
	}

	return e.PutCond(r.Name != nil, func(e *encoder) error {
		return e.PutBytes(r.Name)
	})
}

func (r *DevNameGetRsp) Decode(d *decoder) error {
	var err error
	if r.Len, err = getCondU16(d); err != nil {
		return err
	}

	r.Name = nil
	_, err = d.Cond(func(d *decoder) error {
		if r.Len == nil {
			return serxutil.NewNullArgumentError(
				"device name returned without a length")
		}
		if int(*r.Len) > BLE_GAP_DEVNAME_MAX_LEN {
			return serxutil.FmtInvalidLengthError(
				"device name length %d exceeds maximum %d",
				*r.Len, BLE_GAP_DEVNAME_MAX_LEN)
		}

		var err error
		r.Name, err = d.Bytes(int(*r.Len))
		return err
	})
	return err
}
