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

type Evt interface {
	Body
	EvtId() EvtId
}

type evtCtor func() Evt

// Writes an event packet.  Returns the packet length.
func EncodeEvt(connHandle uint16, ev Evt, buf []byte) (int, error) {
	if ev == nil {
		return 0, serxutil.NewNullArgumentError("nil event")
	}

	e := sercodec.NewEncoder(buf)
	if err := e.PutU16(uint16(ev.EvtId())); err != nil {
		return 0, err
	}
	if err := e.PutU16(connHandle); err != nil {
		return 0, err
	}
	if err := ev.Encode(e); err != nil {
		return 0, err
	}

	return e.Len(), nil
}

// Decodes an event packet of any recognized type.
func DecodeEvt(buf []byte) (uint16, Evt, error) {
	d := sercodec.NewDecoder(buf)

	id, err := d.U16()
	if err != nil {
		return 0, nil, err
	}

	connHandle, err := d.U16()
	if err != nil {
		return 0, nil, err
	}

	ev, err := NewEvt(EvtId(id))
	if err != nil {
		return connHandle, nil, err
	}

	if err := ev.Decode(d); err != nil {
		return connHandle, nil, err
	}

	if err := d.Finish(); err != nil {
		return connHandle, nil, err
	}

	return connHandle, ev, nil
}

func NewEvt(id EvtId) (Evt, error) {
	ctor := evtCtorMap[id]
	if ctor == nil {
		return nil, serxutil.FmtInvalidParamError(
			"unrecognized event id: %s", id)
	}

	return ctor(), nil
}

var evtCtorMap = map[EvtId]evtCtor{
	GAP_EVT_CONNECTED:                 func() Evt { return &ConnectedEvt{} },
	GAP_EVT_DISCONNECTED:              func() Evt { return &DisconnectedEvt{} },
	GAP_EVT_CONN_PARAM_UPDATE:         func() Evt { return &ConnParamUpdateEvt{} },
	GAP_EVT_SEC_PARAMS_REQUEST:        func() Evt { return &SecParamsRequestEvt{} },
	GAP_EVT_SEC_INFO_REQUEST:          func() Evt { return &SecInfoRequestEvt{} },
	GAP_EVT_PASSKEY_DISPLAY:           func() Evt { return &PasskeyDisplayEvt{} },
	GAP_EVT_KEY_PRESSED:               func() Evt { return &KeyPressedEvt{} },
	GAP_EVT_AUTH_KEY_REQUEST:          func() Evt { return &AuthKeyRequestEvt{} },
	GAP_EVT_LESC_DHKEY_REQUEST:        func() Evt { return &LescDhkeyRequestEvt{} },
	GAP_EVT_AUTH_STATUS:               func() Evt { return &AuthStatusEvt{} },
	GAP_EVT_CONN_SEC_UPDATE:           func() Evt { return &ConnSecUpdateEvt{} },
	GAP_EVT_TIMEOUT:                   func() Evt { return &TimeoutEvt{} },
	GAP_EVT_RSSI_CHANGED:              func() Evt { return &RssiChangedEvt{} },
	GAP_EVT_ADV_REPORT:                func() Evt { return &AdvReportEvt{} },
	GAP_EVT_SEC_REQUEST:               func() Evt { return &SecRequestEvt{} },
	GAP_EVT_CONN_PARAM_UPDATE_REQUEST: func() Evt { return &ConnParamUpdateRequestEvt{} },
	GAP_EVT_SCAN_REQ_REPORT:           func() Evt { return &ScanReqReportEvt{} },
}
