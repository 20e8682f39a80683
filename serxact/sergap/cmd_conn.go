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
)

type ConnParamUpdateReq struct {
	ConnHandle uint16         `codec:"conn_handle" json:"conn_handle"`
	Params     *BleConnParams `codec:"params" json:"params"`
}

func (r *ConnParamUpdateReq) Opcode() Opcode { return GAP_OP_CONN_PARAM_UPDATE }

func (r *ConnParamUpdateReq) Encode(e *encoder) error {
	if err := e.PutU16(r.ConnHandle); err != nil {
		return err
	}

	return putCondConnParams(e, r.Params)
}

func (r *ConnParamUpdateReq) Decode(d *decoder) error {
	var err error
	if r.ConnHandle, err = d.U16(); err != nil {
		return err
	}

	r.Params, err = getCondConnParams(d)
	return err
}

type DisconnectReq struct {
	ConnHandle uint16 `codec:"conn_handle" json:"conn_handle"`
	HciStatus  uint8  `codec:"hci_status_code" json:"hci_status_code"`
}

func (r *DisconnectReq) Opcode() Opcode { return GAP_OP_DISCONNECT }

func (r *DisconnectReq) Encode(e *encoder) error {
	if err := e.PutU16(r.ConnHandle); err != nil {
		return err
	}

	return e.PutU8(r.HciStatus)
}

func (r *DisconnectReq) Decode(d *decoder) error {
	var err error
	if r.ConnHandle, err = d.U16(); err != nil {
		return err
	}

	r.HciStatus, err = d.U8()
	return err
}

type ScanStartReq struct {
	Params *BleScanParams `codec:"params" json:"params"`
}

func (r *ScanStartReq) Opcode() Opcode { return GAP_OP_SCAN_START }

func (r *ScanStartReq) Encode(e *encoder) error {
	return putCondScanParams(e, r.Params)
}

func (r *ScanStartReq) Decode(d *decoder) error {
	var err error
	r.Params, err = getCondScanParams(d)
	return err
}

type ScanStopReq struct{}

func (r *ScanStopReq) Opcode() Opcode { return GAP_OP_SCAN_STOP }
func (r *ScanStopReq) Encode(e *encoder) error { return nil }
func (r *ScanStopReq) Decode(d *decoder) error { return nil }

type ConnectReq struct {
	PeerAddr   *BleDev        `codec:"peer_addr" json:"peer_addr"`
	ScanParams *BleScanParams `codec:"scan_params" json:"scan_params"`
	ConnParams *BleConnParams `codec:"conn_params" json:"conn_params"`
}

func (r *ConnectReq) Opcode() Opcode { return GAP_OP_CONNECT }

func (r *ConnectReq) Encode(e *encoder) error {
	if err := putCondDev(e, r.PeerAddr); err != nil {
		return err
	}
	if err := putCondScanParams(e, r.ScanParams); err != nil {
		return err
	}

	return putCondConnParams(e, r.ConnParams)
}

func (r *ConnectReq) Decode(d *decoder) error {
	var err error
	if r.PeerAddr, err = getCondDev(d); err != nil {
		return err
	}
	if r.ScanParams, err = getCondScanParams(d); err != nil {
		return err
	}

	r.ConnParams, err = getCondConnParams(d)
	return err
}

type ConnectCancelReq struct{}

func (r *ConnectCancelReq) Opcode() Opcode { return GAP_OP_CONNECT_CANCEL }
func (r *ConnectCancelReq) Encode(e *encoder) error { return nil }
func (r *ConnectCancelReq) Decode(d *decoder) error { return nil }

type RssiStartReq struct {
	ConnHandle   uint16 `codec:"conn_handle" json:"conn_handle"`
	ThresholdDbm uint8  `codec:"threshold_dbm" json:"threshold_dbm"`
	SkipCount    uint8  `codec:"skip_count" json:"skip_count"`
}

func (r *RssiStartReq) Opcode() Opcode { return GAP_OP_RSSI_START }

func (r *RssiStartReq) Encode(e *encoder) error {
	if err := e.PutU16(r.ConnHandle); err != nil {
		return err
	}
	if err := e.PutU8(r.ThresholdDbm); err != nil {
		return err
	}

	return e.PutU8(r.SkipCount)
}

func (r *RssiStartReq) Decode(d *decoder) error {
	var err error
	if r.ConnHandle, err = d.U16(); err != nil {
		return err
	}
	if r.ThresholdDbm, err = d.U8(); err != nil {
		return err
	}

	r.SkipCount, err = d.U8()
	return err
}

type RssiStopReq struct {
	ConnHandle uint16 `codec:"conn_handle" json:"conn_handle"`
}

func (r *RssiStopReq) Opcode() Opcode { return GAP_OP_RSSI_STOP }

func (r *RssiStopReq) Encode(e *encoder) error {
	return e.PutU16(r.ConnHandle)
}

func (r *RssiStopReq) Decode(d *decoder) error {
	var err error
	r.ConnHandle, err = d.U16()
	return err
}

type RssiGetReq struct {
	ConnHandle uint16 `codec:"conn_handle" json:"conn_handle"`
	WantRssi   bool   `codec:"want_rssi" json:"want_rssi"`
}

func (r *RssiGetReq) Opcode() Opcode { return GAP_OP_RSSI_GET }

func (r *RssiGetReq) Encode(e *encoder) error {
	if err := e.PutU16(r.ConnHandle); err != nil {
		return err
	}

	return putOut(e, r.WantRssi)
}

func (r *RssiGetReq) Decode(d *decoder) error {
	var err error
	if r.ConnHandle, err = d.U16(); err != nil {
		return err
	}

	r.WantRssi, err = getOut(d)
	return err
}

type RssiGetRsp struct {
	Rssi *int8 `codec:"rssi" json:"rssi"`
}

func (r *RssiGetRsp) Encode(e *encoder) error {
	return e.PutCond(r.Rssi != nil, func(e *encoder) error {
		return e.PutI8(*r.Rssi)
	})
}

func (r *RssiGetRsp) Decode(d *decoder) error {
	r.Rssi = nil
	_, err := d.Cond(func(d *decoder) error {
		v, err := d.I8()
		r.Rssi = &v
		return err
	})
	return err
}
