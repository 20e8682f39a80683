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

// Package sergap encodes and decodes serialized BLE GAP commands, responses,
// and events.
//
// Request:  opcode(u8) | payload
// Response: opcode(u8) | status(u32) | payload (only if status == success)
// Event:    evt_id(u16) | conn_handle(u16) | payload
//
// All integers are little endian.  Optional fields are preceded by a
// presence byte.
package sergap

import (
	"fmt"
	"strconv"
)

type Opcode uint8

const (
	GAP_OP_ADDRESS_SET       Opcode = 0x7c
	GAP_OP_ADDRESS_GET       Opcode = 0x7d
	GAP_OP_ADV_DATA_SET      Opcode = 0x7e
	GAP_OP_ADV_START         Opcode = 0x7f
	GAP_OP_ADV_STOP          Opcode = 0x80
	GAP_OP_CONN_PARAM_UPDATE Opcode = 0x81
	GAP_OP_DISCONNECT        Opcode = 0x82
	GAP_OP_TX_POWER_SET      Opcode = 0x83
	GAP_OP_APPEARANCE_SET    Opcode = 0x84
	GAP_OP_APPEARANCE_GET    Opcode = 0x85
	GAP_OP_PPCP_SET          Opcode = 0x86
	GAP_OP_PPCP_GET          Opcode = 0x87
	GAP_OP_DEVICE_NAME_SET   Opcode = 0x88
	GAP_OP_DEVICE_NAME_GET   Opcode = 0x89
	GAP_OP_AUTHENTICATE      Opcode = 0x8a
	GAP_OP_SEC_PARAMS_REPLY  Opcode = 0x8b
	GAP_OP_AUTH_KEY_REPLY    Opcode = 0x8c
	GAP_OP_LESC_DHKEY_REPLY  Opcode = 0x8d
	GAP_OP_KEYPRESS_NOTIFY   Opcode = 0x8e
	GAP_OP_ENCRYPT           Opcode = 0x91
	GAP_OP_SEC_INFO_REPLY    Opcode = 0x92
	GAP_OP_CONN_SEC_GET      Opcode = 0x93
	GAP_OP_RSSI_START        Opcode = 0x94
	GAP_OP_RSSI_STOP         Opcode = 0x95
	GAP_OP_SCAN_START        Opcode = 0x96
	GAP_OP_SCAN_STOP         Opcode = 0x97
	GAP_OP_CONNECT           Opcode = 0x98
	GAP_OP_CONNECT_CANCEL    Opcode = 0x99
	GAP_OP_RSSI_GET          Opcode = 0x9a
)

var opcodeStringMap = map[Opcode]string{
	GAP_OP_ADDRESS_SET:       "address_set",
	GAP_OP_ADDRESS_GET:       "address_get",
	GAP_OP_ADV_DATA_SET:      "adv_data_set",
	GAP_OP_ADV_START:         "adv_start",
	GAP_OP_ADV_STOP:          "adv_stop",
	GAP_OP_CONN_PARAM_UPDATE: "conn_param_update",
	GAP_OP_DISCONNECT:        "disconnect",
	GAP_OP_TX_POWER_SET:      "tx_power_set",
	GAP_OP_APPEARANCE_SET:    "appearance_set",
	GAP_OP_APPEARANCE_GET:    "appearance_get",
	GAP_OP_PPCP_SET:          "ppcp_set",
	GAP_OP_PPCP_GET:          "ppcp_get",
	GAP_OP_DEVICE_NAME_SET:   "device_name_set",
	GAP_OP_DEVICE_NAME_GET:   "device_name_get",
	GAP_OP_AUTHENTICATE:      "authenticate",
	GAP_OP_SEC_PARAMS_REPLY:  "sec_params_reply",
	GAP_OP_AUTH_KEY_REPLY:    "auth_key_reply",
	GAP_OP_LESC_DHKEY_REPLY:  "lesc_dhkey_reply",
	GAP_OP_KEYPRESS_NOTIFY:   "keypress_notify",
	GAP_OP_ENCRYPT:           "encrypt",
	GAP_OP_SEC_INFO_REPLY:    "sec_info_reply",
	GAP_OP_CONN_SEC_GET:      "conn_sec_get",
	GAP_OP_RSSI_START:        "rssi_start",
	GAP_OP_RSSI_STOP:         "rssi_stop",
	GAP_OP_SCAN_START:        "scan_start",
	GAP_OP_SCAN_STOP:         "scan_stop",
	GAP_OP_CONNECT:           "connect",
	GAP_OP_CONNECT_CANCEL:    "connect_cancel",
	GAP_OP_RSSI_GET:          "rssi_get",
}

func OpcodeToString(op Opcode) string {
	s := opcodeStringMap[op]
	if s == "" {
		return fmt.Sprintf("0x%02x", uint8(op))
	}

	return s
}

func (op Opcode) String() string {
	return OpcodeToString(op)
}

// Accepts an opcode name or number.
func OpcodeFromString(s string) (Opcode, error) {
	for op, name := range opcodeStringMap {
		if s == name {
			return op, nil
		}
	}

	u64, err := strconv.ParseUint(s, 0, 8)
	if err != nil || opcodeStringMap[Opcode(u64)] == "" {
		return 0, fmt.Errorf("invalid opcode: %s", s)
	}

	return Opcode(u64), nil
}

type EvtId uint16

const (
	GAP_EVT_CONNECTED                 EvtId = 0x10
	GAP_EVT_DISCONNECTED              EvtId = 0x11
	GAP_EVT_CONN_PARAM_UPDATE         EvtId = 0x12
	GAP_EVT_SEC_PARAMS_REQUEST        EvtId = 0x13
	GAP_EVT_SEC_INFO_REQUEST          EvtId = 0x14
	GAP_EVT_PASSKEY_DISPLAY           EvtId = 0x15
	GAP_EVT_KEY_PRESSED               EvtId = 0x16
	GAP_EVT_AUTH_KEY_REQUEST          EvtId = 0x17
	GAP_EVT_LESC_DHKEY_REQUEST        EvtId = 0x18
	GAP_EVT_AUTH_STATUS               EvtId = 0x19
	GAP_EVT_CONN_SEC_UPDATE           EvtId = 0x1a
	GAP_EVT_TIMEOUT                   EvtId = 0x1b
	GAP_EVT_RSSI_CHANGED              EvtId = 0x1c
	GAP_EVT_ADV_REPORT                EvtId = 0x1d
	GAP_EVT_SEC_REQUEST               EvtId = 0x1e
	GAP_EVT_CONN_PARAM_UPDATE_REQUEST EvtId = 0x1f
	GAP_EVT_SCAN_REQ_REPORT           EvtId = 0x20
)

var evtIdStringMap = map[EvtId]string{
	GAP_EVT_CONNECTED:                 "connected",
	GAP_EVT_DISCONNECTED:              "disconnected",
	GAP_EVT_CONN_PARAM_UPDATE:         "conn_param_update",
	GAP_EVT_SEC_PARAMS_REQUEST:        "sec_params_request",
	GAP_EVT_SEC_INFO_REQUEST:          "sec_info_request",
	GAP_EVT_PASSKEY_DISPLAY:           "passkey_display",
	GAP_EVT_KEY_PRESSED:               "key_pressed",
	GAP_EVT_AUTH_KEY_REQUEST:          "auth_key_request",
	GAP_EVT_LESC_DHKEY_REQUEST:        "lesc_dhkey_request",
	GAP_EVT_AUTH_STATUS:               "auth_status",
	GAP_EVT_CONN_SEC_UPDATE:           "conn_sec_update",
	GAP_EVT_TIMEOUT:                   "timeout",
	GAP_EVT_RSSI_CHANGED:              "rssi_changed",
	GAP_EVT_ADV_REPORT:                "adv_report",
	GAP_EVT_SEC_REQUEST:               "sec_request",
	GAP_EVT_CONN_PARAM_UPDATE_REQUEST: "conn_param_update_request",
	GAP_EVT_SCAN_REQ_REPORT:           "scan_req_report",
}

func EvtIdToString(id EvtId) string {
	s := evtIdStringMap[id]
	if s == "" {
		return fmt.Sprintf("0x%04x", uint16(id))
	}

	return s
}

func (id EvtId) String() string {
	return EvtIdToString(id)
}

// Fixed header sizes.
const (
	REQ_HDR_SZ = 1
	RSP_HDR_SZ = 5
	EVT_HDR_SZ = 4
)

// HCI status codes used as disconnect reasons.
const (
	BLE_HCI_REMOTE_USER_TERMINATED_CONNECTION uint8 = 0x13
	BLE_HCI_LOCAL_HOST_TERMINATED_CONNECTION  uint8 = 0x16
	BLE_HCI_CONN_INTERVAL_UNACCEPTABLE        uint8 = 0x3b
)

// Address cycle modes for ADDRESS_SET.
const (
	BLE_GAP_ADDR_CYCLE_MODE_NONE uint8 = 0
	BLE_GAP_ADDR_CYCLE_MODE_AUTO uint8 = 1
)
