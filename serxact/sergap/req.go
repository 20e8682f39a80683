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
	"mynewt.apache.org/bleser/serxact/sercodec"
	"mynewt.apache.org/bleser/serxact/serxutil"
)

// Body is the schema of a single request or response payload.  Fields are
// encoded in a fixed order that both ends share.
type Body interface {
	Encode(e *sercodec.Encoder) error
	Decode(d *sercodec.Decoder) error
}

type Req interface {
	Body
	Opcode() Opcode
}

// Response payload; only present on the wire when the status is success.
type Rsp interface {
	Body
}

type reqCtor func() Req
type rspCtor func() Rsp

// Writes a request packet into buf.  Returns the packet length.
func EncodeReq(r Req, buf []byte) (int, error) {
	if r == nil {
		return 0, serxutil.NewNullArgumentError("nil request")
	}

	e := sercodec.NewEncoder(buf)
	if err := e.PutU8(uint8(r.Opcode())); err != nil {
		return 0, err
	}
	if err := r.Encode(e); err != nil {
		return 0, err
	}

	return e.Len(), nil
}

// Decodes a request packet into r.  The leading opcode must match r, and
// the payload must account for every byte of buf.
func DecodeReq(buf []byte, r Req) error {
	if r == nil {
		return serxutil.NewNullArgumentError("nil request")
	}

	d := sercodec.NewDecoder(buf)
	op, err := d.U8()
	if err != nil {
		return err
	}
	if Opcode(op) != r.Opcode() {
		return serxutil.FmtInvalidParamError(
			"opcode mismatch: have=%s want=%s",
			Opcode(op), r.Opcode())
	}

	if err := r.Decode(d); err != nil {
		return err
	}

	return d.Finish()
}

// Reads the opcode of a request packet without decoding it.
func PeekOpcode(buf []byte) (Opcode, error) {
	if len(buf) < REQ_HDR_SZ {
		return 0, serxutil.NewInvalidLengthError("empty packet")
	}

	return Opcode(buf[0]), nil
}

// Writes a response packet.  The payload is written only when status is
// success; r may be nil for operations without result fields.
func EncodeRsp(op Opcode, status uint32, r Rsp, buf []byte) (int, error) {
	e := sercodec.NewEncoder(buf)
	if err := e.PutU8(uint8(op)); err != nil {
		return 0, err
	}
	if err := e.PutU32(status); err != nil {
		return 0, err
	}

	if status == serxutil.NRF_SUCCESS && r != nil {
		if err := r.Encode(e); err != nil {
			return 0, err
		}
	}

	return e.Len(), nil
}

// Decodes a response packet for the given opcode.  Result fields are
// decoded into r only when the status is success; otherwise the packet must
// consist of the header alone and n is the header size.
func DecodeRsp(buf []byte, op Opcode, r Rsp) (status uint32, n int,
	err error) {

	d := sercodec.NewDecoder(buf)

	rop, err := d.U8()
	if err != nil {
		return 0, 0, err
	}
	if Opcode(rop) != op {
		return 0, 0, serxutil.FmtInvalidParamError(
			"response opcode mismatch: have=%s want=%s", Opcode(rop), op)
	}

	status, err = d.U32()
	if err != nil {
		return 0, 0, err
	}

	if status == serxutil.NRF_SUCCESS && r != nil {
		if err := r.Decode(d); err != nil {
			return status, 0, err
		}
	}

	if err := d.Finish(); err != nil {
		return status, 0, err
	}

	return status, d.Off(), nil
}

// Instantiates an empty request for the given opcode.
func NewReq(op Opcode) (Req, error) {
	ctor := reqCtorMap[op]
	if ctor == nil {
		return nil, serxutil.FmtInvalidParamError(
			"unrecognized opcode: %s", op)
	}

	return ctor(), nil
}

// Instantiates an empty response for the given opcode.  The result is nil
// for operations that carry no result fields.
func NewRsp(op Opcode) (Rsp, error) {
	if reqCtorMap[op] == nil {
		return nil, serxutil.FmtInvalidParamError(
			"unrecognized opcode: %s", op)
	}

	ctor := rspCtorMap[op]
	if ctor == nil {
		return nil, nil
	}

	return ctor(), nil
}

func Opcodes() []Opcode {
	ops := make([]Opcode, 0, len(reqCtorMap))
	for op := GAP_OP_ADDRESS_SET; op <= GAP_OP_RSSI_GET; op++ {
		if reqCtorMap[op] != nil {
			ops = append(ops, op)
		}
	}

	return ops
}

var reqCtorMap = map[Opcode]reqCtor{
	GAP_OP_ADDRESS_SET:       func() Req { return &AddrSetReq{} },
	GAP_OP_ADDRESS_GET:       func() Req { return &AddrGetReq{} },
	GAP_OP_ADV_DATA_SET:      func() Req { return &AdvDataSetReq{} },
	GAP_OP_ADV_START:         func() Req { return &AdvStartReq{} },
	GAP_OP_ADV_STOP:          func() Req { return &AdvStopReq{} },
	GAP_OP_CONN_PARAM_UPDATE: func() Req { return &ConnParamUpdateReq{} },
	GAP_OP_DISCONNECT:        func() Req { return &DisconnectReq{} },
	GAP_OP_TX_POWER_SET:      func() Req { return &TxPowerSetReq{} },
	GAP_OP_APPEARANCE_SET:    func() Req { return &AppearanceSetReq{} },
	GAP_OP_APPEARANCE_GET:    func() Req { return &AppearanceGetReq{} },
	GAP_OP_PPCP_SET:          func() Req { return &PpcpSetReq{} },
	GAP_OP_PPCP_GET:          func() Req { return &PpcpGetReq{} },
	GAP_OP_DEVICE_NAME_SET:   func() Req { return &DevNameSetReq{} },
	GAP_OP_DEVICE_NAME_GET:   func() Req { return &DevNameGetReq{} },
	GAP_OP_AUTHENTICATE:      func() Req { return &AuthenticateReq{} },
	GAP_OP_SEC_PARAMS_REPLY:  func() Req { return &SecParamsReplyReq{} },
	GAP_OP_AUTH_KEY_REPLY:    func() Req { return &AuthKeyReplyReq{} },
	GAP_OP_LESC_DHKEY_REPLY:  func() Req { return &LescDhkeyReplyReq{} },
	GAP_OP_KEYPRESS_NOTIFY:   func() Req { return &KeypressNotifyReq{} },
	GAP_OP_ENCRYPT:           func() Req { return &EncryptReq{} },
	GAP_OP_SEC_INFO_REPLY:    func() Req { return &SecInfoReplyReq{} },
	GAP_OP_CONN_SEC_GET:      func() Req { return &ConnSecGetReq{} },
	GAP_OP_RSSI_START:        func() Req { return &RssiStartReq{} },
	GAP_OP_RSSI_STOP:         func() Req { return &RssiStopReq{} },
	GAP_OP_SCAN_START:        func() Req { return &ScanStartReq{} },
	GAP_OP_SCAN_STOP:         func() Req { return &ScanStopReq{} },
	GAP_OP_CONNECT:           func() Req { return &ConnectReq{} },
	GAP_OP_CONNECT_CANCEL:    func() Req { return &ConnectCancelReq{} },
	GAP_OP_RSSI_GET:          func() Req { return &RssiGetReq{} },
}

var rspCtorMap = map[Opcode]rspCtor{
	GAP_OP_ADDRESS_GET:      func() Rsp { return &AddrGetRsp{} },
	GAP_OP_APPEARANCE_GET:   func() Rsp { return &AppearanceGetRsp{} },
	GAP_OP_PPCP_GET:         func() Rsp { return &PpcpGetRsp{} },
	GAP_OP_DEVICE_NAME_GET:  func() Rsp { return &DevNameGetRsp{} },
	GAP_OP_SEC_PARAMS_REPLY: func() Rsp { return &SecParamsReplyRsp{} },
	GAP_OP_CONN_SEC_GET:     func() Rsp { return &ConnSecGetRsp{} },
	GAP_OP_RSSI_GET:         func() Rsp { return &RssiGetRsp{} },
}
