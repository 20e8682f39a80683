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

type AuthenticateReq struct {
	ConnHandle uint16        `codec:"conn_handle" json:"conn_handle"`
	Params     *BleSecParams `codec:"params" json:"params"`
}

func (r *AuthenticateReq) Opcode() Opcode { return GAP_OP_AUTHENTICATE }

func (r *AuthenticateReq) Encode(e *encoder) error {
	if err := e.PutU16(r.ConnHandle); err != nil {
		return err
	}

	return putCondSecParams(e, r.Params)
}

func (r *AuthenticateReq) Decode(d *decoder) error {
	var err error
	if r.ConnHandle, err = d.U16(); err != nil {
		return err
	}

	r.Params, err = getCondSecParams(d)
	return err
}

// Keyset carries the key storage offered to the stack.  The connectivity
// side decodes it into a security context that outlives this request; the
// filled-in keys come back in the response and again in the auth status
// event.
type SecParamsReplyReq struct {
	ConnHandle uint16        `codec:"conn_handle" json:"conn_handle"`
	SecStatus  uint8         `codec:"sec_status" json:"sec_status"`
	Params     *BleSecParams `codec:"params" json:"params"`
	Keyset     *BleSecKeyset `codec:"keyset" json:"keyset"`

	// If non-nil, a present keyset is decoded into this storage.
	KeysetDst *BleSecKeyset `codec:"-" json:"-"`
}

func (r *SecParamsReplyReq) Opcode() Opcode { return GAP_OP_SEC_PARAMS_REPLY }

func (r *SecParamsReplyReq) Encode(e *encoder) error {
	if err := e.PutU16(r.ConnHandle); err != nil {
		return err
	}
	if err := e.PutU8(r.SecStatus); err != nil {
		return err
	}
	if err := putCondSecParams(e, r.Params); err != nil {
		return err
	}

	return putCondKeyset(e, r.Keyset)
}

func (r *SecParamsReplyReq) Decode(d *decoder) error {
	var err error
	if r.ConnHandle, err = d.U16(); err != nil {
		return err
	}
	if r.SecStatus, err = d.U8(); err != nil {
		return err
	}
	if r.Params, err = getCondSecParams(d); err != nil {
		return err
	}

	r.Keyset, err = getCondKeyset(d, r.KeysetDst)
	return err
}

type SecParamsReplyRsp struct {
	Keyset *BleSecKeyset `codec:"keyset" json:"keyset"`
}

func (r *SecParamsReplyRsp) Encode(e *encoder) error {
	return putCondKeyset(e, r.Keyset)
}

func (r *SecParamsReplyRsp) Decode(d *decoder) error {
	var err error
	r.Keyset, err = getCondKeyset(d, nil)
	return err
}

// Key length is implied by the key type: 0 for none, 6 for a passkey, 16
// for OOB data.
type AuthKeyReplyReq struct {
	ConnHandle uint16         `codec:"conn_handle" json:"conn_handle"`
	KeyType    BleAuthKeyType `codec:"key_type" json:"key_type"`
	Key        []byte         `codec:"key" json:"key"`
}

func (r *AuthKeyReplyReq) Opcode() Opcode { return GAP_OP_AUTH_KEY_REPLY }

func (r *AuthKeyReplyReq) Encode(e *encoder) error {
	keyLen, ok := BleAuthKeyLen(r.KeyType)
	if !ok {
		return serxutil.FmtInvalidParamError("unrecognized key type: %d",
			r.KeyType)
	}
	if r.Key != nil && len(r.Key) != keyLen {
		return serxutil.FmtInvalidLengthError(
			"%s key must be %d bytes; have %d",
			BleAuthKeyTypeToString(r.KeyType), keyLen, len(r.Key))
	}

	if err := e.PutU16(r.ConnHandle); err != nil {
		return err
	}
	if err := e.PutU8(uint8(r.KeyType)); err != nil {
		return err
	}

	return e.PutCond(r.Key != nil, func(e *encoder) error {
		return e.PutBytes(r.Key)
	})
}

func (r *AuthKeyReplyReq) Decode(d *decoder) error {
	var err error
	if r.ConnHandle, err = d.U16(); err != nil {
		return err
	}

	kt, err := d.U8()
	if err != nil {
		return err
	}
	r.KeyType = BleAuthKeyType(kt)

	keyLen, ok := BleAuthKeyLen(r.KeyType)
	if !ok {
		return serxutil.FmtInvalidParamError("unrecognized key type: %d", kt)
	}

	r.Key = nil
	_, err = d.Cond(func(d *decoder) error {
		var err error
		r.Key, err = d.Bytes(keyLen)
		return err
	})
	return err
}

type LescDhkeyReplyReq struct {
	ConnHandle uint16        `codec:"conn_handle" json:"conn_handle"`
	Dhkey      *BleLescDhkey `codec:"dhkey" json:"dhkey"`
}

func (r *LescDhkeyReplyReq) Opcode() Opcode { return GAP_OP_LESC_DHKEY_REPLY }

func (r *LescDhkeyReplyReq) Encode(e *encoder) error {
	if err := e.PutU16(r.ConnHandle); err != nil {
		return err
	}

	return e.PutCond(r.Dhkey != nil, func(e *encoder) error {
		return encDhkey(e, r.Dhkey)
	})
}

func (r *LescDhkeyReplyReq) Decode(d *decoder) error {
	var err error
	if r.ConnHandle, err = d.U16(); err != nil {
		return err
	}

	r.Dhkey = nil
	_, err = d.Cond(func(d *decoder) error {
		r.Dhkey = &BleLescDhkey{}
		return decDhkey(d, r.Dhkey)
	})
	return err
}

type KeypressNotifyReq struct {
	ConnHandle uint16 `codec:"conn_handle" json:"conn_handle"`
	KpNot      uint8  `codec:"kp_not" json:"kp_not"`
}

func (r *KeypressNotifyReq) Opcode() Opcode { return GAP_OP_KEYPRESS_NOTIFY }

func (r *KeypressNotifyReq) Encode(e *encoder) error {
	if err := e.PutU16(r.ConnHandle); err != nil {
		return err
	}

	return e.PutU8(r.KpNot)
}

func (r *KeypressNotifyReq) Decode(d *decoder) error {
	var err error
	if r.ConnHandle, err = d.U16(); err != nil {
		return err
	}

	r.KpNot, err = d.U8()
	return err
}

type EncryptReq struct {
	ConnHandle uint16       `codec:"conn_handle" json:"conn_handle"`
	MasterId   *BleMasterId `codec:"master_id" json:"master_id"`
	EncInfo    *BleEncInfo  `codec:"enc_info" json:"enc_info"`
}

func (r *EncryptReq) Opcode() Opcode { return GAP_OP_ENCRYPT }

func (r *EncryptReq) Encode(e *encoder) error {
	if err := e.PutU16(r.ConnHandle); err != nil {
		return err
	}
	if err := e.PutCond(r.MasterId != nil, func(e *encoder) error {
		return encMasterId(e, r.MasterId)
	}); err != nil {
		return err
	}

	return putCondEncInfo(e, r.EncInfo)
}

func (r *EncryptReq) Decode(d *decoder) error {
	var err error
	if r.ConnHandle, err = d.U16(); err != nil {
		return err
	}

	r.MasterId = nil
	if _, err := d.Cond(func(d *decoder) error {
		r.MasterId = &BleMasterId{}
		return decMasterId(d, r.MasterId)
	}); err != nil {
		return err
	}

	r.EncInfo, err = getCondEncInfo(d)
	return err
}

type SecInfoReplyReq struct {
	ConnHandle uint16       `codec:"conn_handle" json:"conn_handle"`
	EncInfo    *BleEncInfo  `codec:"enc_info" json:"enc_info"`
	IdInfo     *BleIrk      `codec:"id_info" json:"id_info"`
	SignInfo   *BleSignInfo `codec:"sign_info" json:"sign_info"`
}

func (r *SecInfoReplyReq) Opcode() Opcode { return GAP_OP_SEC_INFO_REPLY }

func (r *SecInfoReplyReq) Encode(e *encoder) error {
	if err := e.PutU16(r.ConnHandle); err != nil {
		return err
	}
	if err := putCondEncInfo(e, r.EncInfo); err != nil {
		return err
	}
	if err := e.PutCond(r.IdInfo != nil, func(e *encoder) error {
		return encIrk(e, r.IdInfo)
	}); err != nil {
		return err
	}

	return e.PutCond(r.SignInfo != nil, func(e *encoder) error {
		return encSignInfo(e, r.SignInfo)
	})
}

func (r *SecInfoReplyReq) Decode(d *decoder) error {
	var err error
	if r.ConnHandle, err = d.U16(); err != nil {
		return err
	}
	if r.EncInfo, err = getCondEncInfo(d); err != nil {
		return err
	}

	r.IdInfo = nil
	if _, err := d.Cond(func(d *decoder) error {
		r.IdInfo = &BleIrk{}
		return decIrk(d, r.IdInfo)
	}); err != nil {
		return err
	}

	r.SignInfo = nil
	_, err = d.Cond(func(d *decoder) error {
		r.SignInfo = &BleSignInfo{}
		return decSignInfo(d, r.SignInfo)
	})
	return err
}

type ConnSecGetReq struct {
	ConnHandle  uint16 `codec:"conn_handle" json:"conn_handle"`
	WantConnSec bool   `codec:"want_conn_sec" json:"want_conn_sec"`
}

func (r *ConnSecGetReq) Opcode() Opcode { return GAP_OP_CONN_SEC_GET }

func (r *ConnSecGetReq) Encode(e *encoder) error {
	if err := e.PutU16(r.ConnHandle); err != nil {
		return err
	}

	return putOut(e, r.WantConnSec)
}

func (r *ConnSecGetReq) Decode(d *decoder) error {
	var err error
	if r.ConnHandle, err = d.U16(); err != nil {
		return err
	}

	r.WantConnSec, err = getOut(d)
	return err
}

type ConnSecGetRsp struct {
	ConnSec *BleConnSec `codec:"conn_sec" json:"conn_sec"`
}

func (r *ConnSecGetRsp) Encode(e *encoder) error {
	return putCondConnSec(e, r.ConnSec)
}

func (r *ConnSecGetRsp) Decode(d *decoder) error {
	var err error
	r.ConnSec, err = getCondConnSec(d)
	return err
}
