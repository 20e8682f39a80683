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

package bledefs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const BLE_CONN_HANDLE_INVALID uint16 = 0xffff

const (
	BLE_GAP_WHITELIST_ADDR_MAX_COUNT = 8
	BLE_GAP_WHITELIST_IRK_MAX_COUNT  = 8
	BLE_GAP_ADV_MAX_SIZE             = 31
	BLE_GAP_DEVNAME_MAX_LEN          = 248
	BLE_GAP_ADDR_LEN                 = 6
	BLE_GAP_SEC_KEY_LEN              = 16
	BLE_GAP_SEC_RAND_LEN             = 8
	BLE_GAP_PASSKEY_LEN              = 6
	BLE_GAP_LESC_P256_PK_LEN         = 64
	BLE_GAP_LESC_DHKEY_LEN           = 32
)

type BleAddrType int

const (
	BLE_ADDR_TYPE_PUBLIC             BleAddrType = 0
	BLE_ADDR_TYPE_RANDOM_STATIC      BleAddrType = 1
	BLE_ADDR_TYPE_RANDOM_PRIV_RES    BleAddrType = 2
	BLE_ADDR_TYPE_RANDOM_PRIV_NONRES BleAddrType = 3
)

var BleAddrTypeStringMap = map[BleAddrType]string{
	BLE_ADDR_TYPE_PUBLIC:             "public",
	BLE_ADDR_TYPE_RANDOM_STATIC:      "random_static",
	BLE_ADDR_TYPE_RANDOM_PRIV_RES:    "rpa",
	BLE_ADDR_TYPE_RANDOM_PRIV_NONRES: "nrpa",
}

func BleAddrTypeToString(addrType BleAddrType) string {
	s := BleAddrTypeStringMap[addrType]
	if s == "" {
		return "???"
	}

	return s
}

func BleAddrTypeFromString(s string) (BleAddrType, error) {
	for addrType, name := range BleAddrTypeStringMap {
		if s == name {
			return addrType, nil
		}
	}

	return BleAddrType(0), fmt.Errorf("Invalid BleAddrType string: %s", s)
}

func (a BleAddrType) MarshalJSON() ([]byte, error) {
	return json.Marshal(BleAddrTypeToString(a))
}

func (a *BleAddrType) UnmarshalJSON(data []byte) error {
	var err error

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	*a, err = BleAddrTypeFromString(s)
	return err
}

// Address bytes in over-the-air order: Bytes[0] is the least significant
// octet.  The string form lists the most significant octet first.
type BleAddr struct {
	Bytes [BLE_GAP_ADDR_LEN]byte
}

func ParseBleAddr(s string) (BleAddr, error) {
	ba := BleAddr{}

	toks := strings.Split(strings.ToLower(s), ":")
	if len(toks) != BLE_GAP_ADDR_LEN {
		return ba, fmt.Errorf("invalid BLE addr string: %s", s)
	}

	for i, t := range toks {
		u64, err := strconv.ParseUint(t, 16, 8)
		if err != nil {
			return ba, err
		}
		ba.Bytes[BLE_GAP_ADDR_LEN-1-i] = byte(u64)
	}

	return ba, nil
}

func (ba BleAddr) String() string {
	var buf bytes.Buffer
	buf.Grow(len(ba.Bytes) * 3)

	for i := len(ba.Bytes) - 1; i >= 0; i-- {
		if i != len(ba.Bytes)-1 {
			buf.WriteString(":")
		}
		fmt.Fprintf(&buf, "%02x", ba.Bytes[i])
	}

	return buf.String()
}

func (ba BleAddr) MarshalJSON() ([]byte, error) {
	return json.Marshal(ba.String())
}

func (ba *BleAddr) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	var err error
	*ba, err = ParseBleAddr(s)
	if err != nil {
		return err
	}

	return nil
}

// ble_gap_addr_t.
type BleDev struct {
	AddrType BleAddrType `codec:"addr_type" json:"addr_type"`
	Addr     BleAddr     `codec:"addr,omitnested" json:"addr"`
}

func (bd *BleDev) String() string {
	return fmt.Sprintf("%s,%s",
		BleAddrTypeToString(bd.AddrType),
		bd.Addr.String())
}

// Parses "<addr_type>,<addr>" or a bare address, which is taken as public.
func ParseBleDev(s string) (BleDev, error) {
	bd := BleDev{}

	toks := strings.SplitN(s, ",", 2)
	addrStr := toks[0]
	if len(toks) == 2 {
		var err error
		bd.AddrType, err = BleAddrTypeFromString(toks[0])
		if err != nil {
			return bd, err
		}
		addrStr = toks[1]
	}

	var err error
	bd.Addr, err = ParseBleAddr(addrStr)
	return bd, err
}

type BleRole int

const (
	BLE_GAP_ROLE_INVALID BleRole = 0
	BLE_GAP_ROLE_PERIPH  BleRole = 1
	BLE_GAP_ROLE_CENTRAL BleRole = 2
)

var BleRoleStringMap = map[BleRole]string{
	BLE_GAP_ROLE_INVALID: "invalid",
	BLE_GAP_ROLE_PERIPH:  "periph",
	BLE_GAP_ROLE_CENTRAL: "central",
}

func BleRoleToString(role BleRole) string {
	s := BleRoleStringMap[role]
	if s == "" {
		return "???"
	}

	return s
}

func (r BleRole) MarshalJSON() ([]byte, error) {
	return json.Marshal(BleRoleToString(r))
}

type BleAdvType int

const (
	BLE_GAP_ADV_TYPE_ADV_IND         BleAdvType = 0
	BLE_GAP_ADV_TYPE_ADV_DIRECT_IND  BleAdvType = 1
	BLE_GAP_ADV_TYPE_ADV_SCAN_IND    BleAdvType = 2
	BLE_GAP_ADV_TYPE_ADV_NONCONN_IND BleAdvType = 3
)

var BleAdvTypeStringMap = map[BleAdvType]string{
	BLE_GAP_ADV_TYPE_ADV_IND:         "ind",
	BLE_GAP_ADV_TYPE_ADV_DIRECT_IND:  "direct_ind",
	BLE_GAP_ADV_TYPE_ADV_SCAN_IND:    "scan_ind",
	BLE_GAP_ADV_TYPE_ADV_NONCONN_IND: "nonconn_ind",
}

func BleAdvTypeToString(advType BleAdvType) string {
	s := BleAdvTypeStringMap[advType]
	if s == "" {
		return "???"
	}

	return s
}

func BleAdvTypeFromString(s string) (BleAdvType, error) {
	for advType, name := range BleAdvTypeStringMap {
		if s == name {
			return advType, nil
		}
	}

	return BleAdvType(0), fmt.Errorf("Invalid BleAdvType string: %s", s)
}

func (a BleAdvType) MarshalJSON() ([]byte, error) {
	return json.Marshal(BleAdvTypeToString(a))
}

func (a *BleAdvType) UnmarshalJSON(data []byte) error {
	var err error

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	*a, err = BleAdvTypeFromString(s)
	return err
}

type BleAdvFilterPolicy int

const (
	BLE_GAP_ADV_FP_ANY            BleAdvFilterPolicy = 0
	BLE_GAP_ADV_FP_FILTER_SCANREQ BleAdvFilterPolicy = 1
	BLE_GAP_ADV_FP_FILTER_CONNREQ BleAdvFilterPolicy = 2
	BLE_GAP_ADV_FP_FILTER_BOTH    BleAdvFilterPolicy = 3
)

var BleAdvFilterPolicyStringMap = map[BleAdvFilterPolicy]string{
	BLE_GAP_ADV_FP_ANY:            "none",
	BLE_GAP_ADV_FP_FILTER_SCANREQ: "scan",
	BLE_GAP_ADV_FP_FILTER_CONNREQ: "conn",
	BLE_GAP_ADV_FP_FILTER_BOTH:    "both",
}

func BleAdvFilterPolicyToString(fp BleAdvFilterPolicy) string {
	s := BleAdvFilterPolicyStringMap[fp]
	if s == "" {
		return "???"
	}

	return s
}

func BleAdvFilterPolicyFromString(s string) (BleAdvFilterPolicy, error) {
	for fp, name := range BleAdvFilterPolicyStringMap {
		if s == name {
			return fp, nil
		}
	}

	return BleAdvFilterPolicy(0),
		fmt.Errorf("Invalid BleAdvFilterPolicy string: %s", s)
}

func (a BleAdvFilterPolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(BleAdvFilterPolicyToString(a))
}

type BleIoCaps int

const (
	BLE_GAP_IO_CAPS_DISPLAY_ONLY     BleIoCaps = 0
	BLE_GAP_IO_CAPS_DISPLAY_YESNO    BleIoCaps = 1
	BLE_GAP_IO_CAPS_KEYBOARD_ONLY    BleIoCaps = 2
	BLE_GAP_IO_CAPS_NONE             BleIoCaps = 3
	BLE_GAP_IO_CAPS_KEYBOARD_DISPLAY BleIoCaps = 4
)

var BleIoCapsStringMap = map[BleIoCaps]string{
	BLE_GAP_IO_CAPS_DISPLAY_ONLY:     "display_only",
	BLE_GAP_IO_CAPS_DISPLAY_YESNO:    "display_yesno",
	BLE_GAP_IO_CAPS_KEYBOARD_ONLY:    "keyboard_only",
	BLE_GAP_IO_CAPS_NONE:             "none",
	BLE_GAP_IO_CAPS_KEYBOARD_DISPLAY: "keyboard_display",
}

func BleIoCapsToString(ioCaps BleIoCaps) string {
	s := BleIoCapsStringMap[ioCaps]
	if s == "" {
		return "???"
	}

	return s
}

func BleIoCapsFromString(s string) (BleIoCaps, error) {
	for ioCaps, name := range BleIoCapsStringMap {
		if s == name {
			return ioCaps, nil
		}
	}

	return BleIoCaps(0), fmt.Errorf("Invalid BleIoCaps string: %s", s)
}

func (c BleIoCaps) MarshalJSON() ([]byte, error) {
	return json.Marshal(BleIoCapsToString(c))
}

func (c *BleIoCaps) UnmarshalJSON(data []byte) error {
	var err error

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	*c, err = BleIoCapsFromString(s)
	return err
}

type BleAuthKeyType int

const (
	BLE_GAP_AUTH_KEY_TYPE_NONE    BleAuthKeyType = 0
	BLE_GAP_AUTH_KEY_TYPE_PASSKEY BleAuthKeyType = 1
	BLE_GAP_AUTH_KEY_TYPE_OOB     BleAuthKeyType = 2
)

var BleAuthKeyTypeStringMap = map[BleAuthKeyType]string{
	BLE_GAP_AUTH_KEY_TYPE_NONE:    "none",
	BLE_GAP_AUTH_KEY_TYPE_PASSKEY: "passkey",
	BLE_GAP_AUTH_KEY_TYPE_OOB:     "oob",
}

func BleAuthKeyTypeToString(kt BleAuthKeyType) string {
	s := BleAuthKeyTypeStringMap[kt]
	if s == "" {
		return "???"
	}

	return s
}

func BleAuthKeyTypeFromString(s string) (BleAuthKeyType, error) {
	for kt, name := range BleAuthKeyTypeStringMap {
		if s == name {
			return kt, nil
		}
	}

	return BleAuthKeyType(0),
		fmt.Errorf("Invalid BleAuthKeyType string: %s", s)
}

func (kt BleAuthKeyType) MarshalJSON() ([]byte, error) {
	return json.Marshal(BleAuthKeyTypeToString(kt))
}

// Length of the key that accompanies an auth key reply of the given type.
func BleAuthKeyLen(kt BleAuthKeyType) (int, bool) {
	switch kt {
	case BLE_GAP_AUTH_KEY_TYPE_NONE:
		return 0, true
	case BLE_GAP_AUTH_KEY_TYPE_PASSKEY:
		return BLE_GAP_PASSKEY_LEN, true
	case BLE_GAP_AUTH_KEY_TYPE_OOB:
		return BLE_GAP_SEC_KEY_LEN, true
	default:
		return 0, false
	}
}

type BleTimeoutSrc int

const (
	BLE_GAP_TIMEOUT_SRC_ADVERTISING      BleTimeoutSrc = 0
	BLE_GAP_TIMEOUT_SRC_SECURITY_REQUEST BleTimeoutSrc = 1
	BLE_GAP_TIMEOUT_SRC_SCAN             BleTimeoutSrc = 2
	BLE_GAP_TIMEOUT_SRC_CONN             BleTimeoutSrc = 3
)

var BleTimeoutSrcStringMap = map[BleTimeoutSrc]string{
	BLE_GAP_TIMEOUT_SRC_ADVERTISING:      "advertising",
	BLE_GAP_TIMEOUT_SRC_SECURITY_REQUEST: "security_request",
	BLE_GAP_TIMEOUT_SRC_SCAN:             "scan",
	BLE_GAP_TIMEOUT_SRC_CONN:             "conn",
}

func BleTimeoutSrcToString(src BleTimeoutSrc) string {
	s := BleTimeoutSrcStringMap[src]
	if s == "" {
		return "???"
	}

	return s
}

func (s BleTimeoutSrc) MarshalJSON() ([]byte, error) {
	return json.Marshal(BleTimeoutSrcToString(s))
}

// Pairing status codes carried by sec params replies and auth status events.
const (
	BLE_GAP_SEC_STATUS_SUCCESS              uint8 = 0x00
	BLE_GAP_SEC_STATUS_TIMEOUT              uint8 = 0x01
	BLE_GAP_SEC_STATUS_PDU_INVALID          uint8 = 0x02
	BLE_GAP_SEC_STATUS_PASSKEY_ENTRY_FAILED uint8 = 0x81
	BLE_GAP_SEC_STATUS_OOB_NOT_AVAILABLE    uint8 = 0x82
	BLE_GAP_SEC_STATUS_AUTH_REQ             uint8 = 0x83
	BLE_GAP_SEC_STATUS_CONFIRM_VALUE        uint8 = 0x84
	BLE_GAP_SEC_STATUS_PAIRING_NOT_SUPP     uint8 = 0x85
	BLE_GAP_SEC_STATUS_ENC_KEY_SIZE         uint8 = 0x86
	BLE_GAP_SEC_STATUS_UNSPECIFIED          uint8 = 0x88
)
