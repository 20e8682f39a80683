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

type ConnectedEvt struct {
	PeerAddr    BleDev        `codec:"peer_addr" json:"peer_addr"`
	OwnAddr     BleDev        `codec:"own_addr" json:"own_addr"`
	Role        BleRole       `codec:"role" json:"role"`
	IrkMatch    bool          `codec:"irk_match" json:"irk_match"`
	IrkMatchIdx uint8         `codec:"irk_match_idx" json:"irk_match_idx"`
	ConnParams  BleConnParams `codec:"conn_params" json:"conn_params"`
}

func (ev *ConnectedEvt) EvtId() EvtId { return GAP_EVT_CONNECTED }

func (ev *ConnectedEvt) Encode(e *encoder) error {
	if ev.Role < 0 || ev.Role > 0xff {
		return serxutil.FmtInvalidParamError("invalid role: %d", ev.Role)
	}
	if ev.IrkMatchIdx > 0x7f {
		return serxutil.FmtInvalidParamError("invalid irk match index: %d",
			ev.IrkMatchIdx)
	}

	if err := encBleDev(e, &ev.PeerAddr); err != nil {
		return err
	}
	if err := encBleDev(e, &ev.OwnAddr); err != nil {
		return err
	}
	if err := e.PutU8(uint8(ev.Role)); err != nil {
		return err
	}
	if err := e.PutU8(bit(ev.IrkMatch, 0) | ev.IrkMatchIdx<<1); err != nil {
		return err
	}

	return encConnParams(e, &ev.ConnParams)
}

func (ev *ConnectedEvt) Decode(d *decoder) error {
	if err := decBleDev(d, &ev.PeerAddr); err != nil {
		return err
	}
	if err := decBleDev(d, &ev.OwnAddr); err != nil {
		return err
	}

	role, err := d.U8()
	if err != nil {
		return err
	}
	ev.Role = BleRole(role)

	flags, err := d.U8()
	if err != nil {
		return err
	}
	ev.IrkMatch = isSet(flags, 0)
	ev.IrkMatchIdx = flags >> 1

	return decConnParams(d, &ev.ConnParams)
}

type DisconnectedEvt struct {
	Reason uint8 `codec:"reason" json:"reason"`
}

func (ev *DisconnectedEvt) EvtId() EvtId { return GAP_EVT_DISCONNECTED }

func (ev *DisconnectedEvt) Encode(e *encoder) error {
	return e.PutU8(ev.Reason)
}

func (ev *DisconnectedEvt) Decode(d *decoder) error {
	var err error
	ev.Reason, err = d.U8()
	return err
}

type ConnParamUpdateEvt struct {
	ConnParams BleConnParams `codec:"conn_params" json:"conn_params"`
}

func (ev *ConnParamUpdateEvt) EvtId() EvtId { return GAP_EVT_CONN_PARAM_UPDATE }

func (ev *ConnParamUpdateEvt) Encode(e *encoder) error {
	return encConnParams(e, &ev.ConnParams)
}

func (ev *ConnParamUpdateEvt) Decode(d *decoder) error {
	return decConnParams(d, &ev.ConnParams)
}

type SecParamsRequestEvt struct {
	PeerParams BleSecParams `codec:"peer_params" json:"peer_params"`
}

func (ev *SecParamsRequestEvt) EvtId() EvtId { return GAP_EVT_SEC_PARAMS_REQUEST }

func (ev *SecParamsRequestEvt) Encode(e *encoder) error {
	return encSecParams(e, &ev.PeerParams)
}

func (ev *SecParamsRequestEvt) Decode(d *decoder) error {
	return decSecParams(d, &ev.PeerParams)
}

type SecInfoRequestEvt struct {
	PeerAddr BleDev      `codec:"peer_addr" json:"peer_addr"`
	MasterId BleMasterId `codec:"master_id" json:"master_id"`
	EncInfo  bool        `codec:"enc_info" json:"enc_info"`
	IdInfo   bool        `codec:"id_info" json:"id_info"`
	SignInfo bool        `codec:"sign_info" json:"sign_info"`
}

func (ev *SecInfoRequestEvt) EvtId() EvtId { return GAP_EVT_SEC_INFO_REQUEST }

func (ev *SecInfoRequestEvt) Encode(e *encoder) error {
	if err := encBleDev(e, &ev.PeerAddr); err != nil {
		return err
	}
	if err := encMasterId(e, &ev.MasterId); err != nil {
		return err
	}

	return e.PutU8(bit(ev.EncInfo, 0) | bit(ev.IdInfo, 1) |
		bit(ev.SignInfo, 2))
}

func (ev *SecInfoRequestEvt) Decode(d *decoder) error {
	if err := decBleDev(d, &ev.PeerAddr); err != nil {
		return err
	}
	if err := decMasterId(d, &ev.MasterId); err != nil {
		return err
	}

	flags, err := d.U8()
	if err != nil {
		return err
	}
	ev.EncInfo = isSet(flags, 0)
	ev.IdInfo = isSet(flags, 1)
	ev.SignInfo = isSet(flags, 2)

	return nil
}

type PasskeyDisplayEvt struct {
	Passkey      [BLE_GAP_PASSKEY_LEN]byte `codec:"passkey" json:"passkey"`
	MatchRequest bool                      `codec:"match_request" json:"match_request"`
}

func (ev *PasskeyDisplayEvt) EvtId() EvtId { return GAP_EVT_PASSKEY_DISPLAY }

func (ev *PasskeyDisplayEvt) Encode(e *encoder) error {
	if err := e.PutBytes(ev.Passkey[:]); err != nil {
		return err
	}

	return e.PutBool(ev.MatchRequest)
}

func (ev *PasskeyDisplayEvt) Decode(d *decoder) error {
	if err := d.Read(ev.Passkey[:]); err != nil {
		return err
	}

	var err error
	ev.MatchRequest, err = d.Bool()
	return err
}

type KeyPressedEvt struct {
	KpNot uint8 `codec:"kp_not" json:"kp_not"`
}

func (ev *KeyPressedEvt) EvtId() EvtId { return GAP_EVT_KEY_PRESSED }

func (ev *KeyPressedEvt) Encode(e *encoder) error {
	return e.PutU8(ev.KpNot)
}

func (ev *KeyPressedEvt) Decode(d *decoder) error {
	var err error
	ev.KpNot, err = d.U8()
	return err
}

type AuthKeyRequestEvt struct {
	KeyType BleAuthKeyType `codec:"key_type" json:"key_type"`
}

func (ev *AuthKeyRequestEvt) EvtId() EvtId { return GAP_EVT_AUTH_KEY_REQUEST }

func (ev *AuthKeyRequestEvt) Encode(e *encoder) error {
	if _, ok := BleAuthKeyLen(ev.KeyType); !ok {
		return serxutil.FmtInvalidParamError("unrecognized key type: %d",
			ev.KeyType)
	}

	return e.PutU8(uint8(ev.KeyType))
}

func (ev *AuthKeyRequestEvt) Decode(d *decoder) error {
	kt, err := d.U8()
	if err != nil {
		return err
	}

	ev.KeyType = BleAuthKeyType(kt)
	if _, ok := BleAuthKeyLen(ev.KeyType); !ok {
		return serxutil.FmtInvalidParamError("unrecognized key type: %d", kt)
	}

	return nil
}

type LescDhkeyRequestEvt struct {
	PkPeer  *BleLescP256Pk `codec:"pk_peer" json:"pk_peer"`
	OobdReq bool           `codec:"oobd_req" json:"oobd_req"`
}

func (ev *LescDhkeyRequestEvt) EvtId() EvtId { return GAP_EVT_LESC_DHKEY_REQUEST }

func (ev *LescDhkeyRequestEvt) Encode(e *encoder) error {
	if err := e.PutCond(ev.PkPeer != nil, func(e *encoder) error {
		return encP256Pk(e, ev.PkPeer)
	}); err != nil {
		return err
	}

	return e.PutBool(ev.OobdReq)
}

func (ev *LescDhkeyRequestEvt) Decode(d *decoder) error {
	ev.PkPeer = nil
	if _, err := d.Cond(func(d *decoder) error {
		ev.PkPeer = &BleLescP256Pk{}
		return decP256Pk(d, ev.PkPeer)
	}); err != nil {
		return err
	}

	var err error
	ev.OobdReq, err = d.Bool()
	return err
}

// Keyset is attached by the connectivity side from the connection's
// security context when the link is bonded.
type AuthStatusEvt struct {
	AuthStatus uint8         `codec:"auth_status" json:"auth_status"`
	ErrorSrc   uint8         `codec:"error_src" json:"error_src"`
	Bonded     bool          `codec:"bonded" json:"bonded"`
	Sm1Levels  BleSecLevels  `codec:"sm1_levels" json:"sm1_levels"`
	Sm2Levels  BleSecLevels  `codec:"sm2_levels" json:"sm2_levels"`
	KdistOwn   BleSecKdist   `codec:"kdist_own" json:"kdist_own"`
	KdistPeer  BleSecKdist   `codec:"kdist_peer" json:"kdist_peer"`
	Keyset     *BleSecKeyset `codec:"keyset" json:"keyset"`
}

func (ev *AuthStatusEvt) EvtId() EvtId { return GAP_EVT_AUTH_STATUS }

func (ev *AuthStatusEvt) Encode(e *encoder) error {
	if ev.ErrorSrc > 0x03 {
		return serxutil.FmtInvalidParamError("invalid error source: %d",
			ev.ErrorSrc)
	}

	for _, b := range []uint8{
		ev.AuthStatus,
		ev.ErrorSrc | bit(ev.Bonded, 2),
		secLevelsByte(&ev.Sm1Levels),
		secLevelsByte(&ev.Sm2Levels),
		kdistByte(&ev.KdistOwn),
		kdistByte(&ev.KdistPeer),
	} {
		if err := e.PutU8(b); err != nil {
			return err
		}
	}

	return putCondKeyset(e, ev.Keyset)
}

func (ev *AuthStatusEvt) Decode(d *decoder) error {
	var raw [6]byte
	if err := d.Read(raw[:]); err != nil {
		return err
	}

	if raw[1]&^0x07 != 0 {
		return serxutil.FmtInvalidParamError(
			"reserved auth status flag bits set: 0x%02x", raw[1])
	}

	ev.AuthStatus = raw[0]
	ev.ErrorSrc = raw[1] & 0x03
	ev.Bonded = isSet(raw[1], 2)
	ev.Sm1Levels = secLevelsFromByte(raw[2])
	ev.Sm2Levels = secLevelsFromByte(raw[3])
	ev.KdistOwn = kdistFromByte(raw[4])
	ev.KdistPeer = kdistFromByte(raw[5])

	var err error
	ev.Keyset, err = getCondKeyset(d, nil)
	return err
}

type ConnSecUpdateEvt struct {
	ConnSec BleConnSec `codec:"conn_sec" json:"conn_sec"`
}

func (ev *ConnSecUpdateEvt) EvtId() EvtId { return GAP_EVT_CONN_SEC_UPDATE }

func (ev *ConnSecUpdateEvt) Encode(e *encoder) error {
	return encConnSec(e, &ev.ConnSec)
}

func (ev *ConnSecUpdateEvt) Decode(d *decoder) error {
	return decConnSec(d, &ev.ConnSec)
}

type TimeoutEvt struct {
	Src BleTimeoutSrc `codec:"src" json:"src"`
}

func (ev *TimeoutEvt) EvtId() EvtId { return GAP_EVT_TIMEOUT }

func (ev *TimeoutEvt) Encode(e *encoder) error {
	if ev.Src < 0 || ev.Src > 0xff {
		return serxutil.FmtInvalidParamError("invalid timeout source: %d",
			ev.Src)
	}

	return e.PutU8(uint8(ev.Src))
}

func (ev *TimeoutEvt) Decode(d *decoder) error {
	src, err := d.U8()
	if err != nil {
		return err
	}

	ev.Src = BleTimeoutSrc(src)
	return nil
}

type RssiChangedEvt struct {
	Rssi int8 `codec:"rssi" json:"rssi"`
}

func (ev *RssiChangedEvt) EvtId() EvtId { return GAP_EVT_RSSI_CHANGED }

func (ev *RssiChangedEvt) Encode(e *encoder) error {
	return e.PutI8(ev.Rssi)
}

func (ev *RssiChangedEvt) Decode(d *decoder) error {
	var err error
	ev.Rssi, err = d.I8()
	return err
}

// The data length shares a byte with the scan response flag and the
// advertisement type: scan_rsp(b0) | type(b1-2) | dlen(b3-7).
type AdvReportEvt struct {
	PeerAddr BleDev     `codec:"peer_addr" json:"peer_addr"`
	Rssi     int8       `codec:"rssi" json:"rssi"`
	ScanRsp  bool       `codec:"scan_rsp" json:"scan_rsp"`
	Type     BleAdvType `codec:"type" json:"type"`
	Data     []byte     `codec:"data" json:"data"`
}

func (ev *AdvReportEvt) EvtId() EvtId { return GAP_EVT_ADV_REPORT }

func (ev *AdvReportEvt) Encode(e *encoder) error {
	if ev.Type < 0 || ev.Type > 0x03 {
		return serxutil.FmtInvalidParamError("invalid adv type: %d", ev.Type)
	}
	if len(ev.Data) > BLE_GAP_ADV_MAX_SIZE {
		return serxutil.FmtInvalidLengthError(
			"adv report data length %d exceeds maximum %d",
			len(ev.Data), BLE_GAP_ADV_MAX_SIZE)
	}

	if err := encBleDev(e, &ev.PeerAddr); err != nil {
		return err
	}
	if err := e.PutI8(ev.Rssi); err != nil {
		return err
	}

	flags := bit(ev.ScanRsp, 0) | uint8(ev.Type)<<1 | uint8(len(ev.Data))<<3
	if err := e.PutU8(flags); err != nil {
		return err
	}

	return e.PutBytes(ev.Data)
}

func (ev *AdvReportEvt) Decode(d *decoder) error {
	if err := decBleDev(d, &ev.PeerAddr); err != nil {
		return err
	}

	var err error
	if ev.Rssi, err = d.I8(); err != nil {
		return err
	}

	flags, err := d.U8()
	if err != nil {
		return err
	}
	ev.ScanRsp = isSet(flags, 0)
	ev.Type = BleAdvType((flags >> 1) & 0x03)

	ev.Data, err = d.Bytes(int(flags >> 3))
	return err
}

type SecRequestEvt struct {
	Bond     bool `codec:"bond" json:"bond"`
	Mitm     bool `codec:"mitm" json:"mitm"`
	Lesc     bool `codec:"lesc" json:"lesc"`
	Keypress bool `codec:"keypress" json:"keypress"`
}

func (ev *SecRequestEvt) EvtId() EvtId { return GAP_EVT_SEC_REQUEST }

func (ev *SecRequestEvt) Encode(e *encoder) error {
	return e.PutU8(bit(ev.Bond, 0) | bit(ev.Mitm, 1) | bit(ev.Lesc, 2) |
		bit(ev.Keypress, 3))
}

func (ev *SecRequestEvt) Decode(d *decoder) error {
	flags, err := d.U8()
	if err != nil {
		return err
	}

	ev.Bond = isSet(flags, 0)
	ev.Mitm = isSet(flags, 1)
	ev.Lesc = isSet(flags, 2)
	ev.Keypress = isSet(flags, 3)
	return nil
}

type ConnParamUpdateRequestEvt struct {
	ConnParams BleConnParams `codec:"conn_params" json:"conn_params"`
}

func (ev *ConnParamUpdateRequestEvt) EvtId() EvtId {
	return GAP_EVT_CONN_PARAM_UPDATE_REQUEST
}

func (ev *ConnParamUpdateRequestEvt) Encode(e *encoder) error {
	return encConnParams(e, &ev.ConnParams)
}

func (ev *ConnParamUpdateRequestEvt) Decode(d *decoder) error {
	return decConnParams(d, &ev.ConnParams)
}

type ScanReqReportEvt struct {
	Rssi     int8   `codec:"rssi" json:"rssi"`
	PeerAddr BleDev `codec:"peer_addr" json:"peer_addr"`
}

func (ev *ScanReqReportEvt) EvtId() EvtId { return GAP_EVT_SCAN_REQ_REPORT }

func (ev *ScanReqReportEvt) Encode(e *encoder) error {
	if err := e.PutI8(ev.Rssi); err != nil {
		return err
	}

	return encBleDev(e, &ev.PeerAddr)
}

func (ev *ScanReqReportEvt) Decode(d *decoder) error {
	var err error
	if ev.Rssi, err = d.I8(); err != nil {
		return err
	}

	return decBleDev(d, &ev.PeerAddr)
}
