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

package connsvr

import (
	. "mynewt.apache.org/bleser/serxact/bledefs"
)

// Stack is the native BLE GAP API on the connectivity side.  Every method
// returns the native status code, which is passed back to the application
// unchanged.  Pointer arguments that carry results are non-nil only when
// the application asked for that result.
type Stack interface {
	AddressSet(cycleMode uint8, addr *BleDev) uint32
	AddressGet(addr *BleDev) uint32

	AdvDataSet(data []byte, srData []byte) uint32
	AdvStart(params *BleAdvParams) uint32
	AdvStop() uint32

	ConnParamUpdate(connHandle uint16, params *BleConnParams) uint32
	Disconnect(connHandle uint16, hciStatus uint8) uint32

	TxPowerSet(txPower int8) uint32
	AppearanceSet(appearance uint16) uint32
	AppearanceGet(appearance *uint16) uint32
	PpcpSet(params *BleConnParams) uint32
	PpcpGet(params *BleConnParams) uint32

	// name is nil unless the name itself was requested; its length is the
	// application's buffer capacity.  length carries the capacity in and
	// the actual name length out.
	DevNameSet(writePerm *BleConnSecMode, name []byte) uint32
	DevNameGet(name []byte, length *uint16) uint32

	Authenticate(connHandle uint16, params *BleSecParams) uint32

	// keyset, when non-nil, stays valid until the authentication status
	// for connHandle has been reported.  The stack fills in the keys as
	// they are distributed.
	SecParamsReply(connHandle uint16, secStatus uint8, params *BleSecParams,
		keyset *BleSecKeyset) uint32

	AuthKeyReply(connHandle uint16, keyType BleAuthKeyType, key []byte) uint32
	LescDhkeyReply(connHandle uint16, dhkey *BleLescDhkey) uint32
	KeypressNotify(connHandle uint16, kpNot uint8) uint32
	Encrypt(connHandle uint16, masterId *BleMasterId,
		encInfo *BleEncInfo) uint32
	SecInfoReply(connHandle uint16, encInfo *BleEncInfo, idInfo *BleIrk,
		signInfo *BleSignInfo) uint32
	ConnSecGet(connHandle uint16, connSec *BleConnSec) uint32

	RssiStart(connHandle uint16, thresholdDbm uint8, skipCount uint8) uint32
	RssiStop(connHandle uint16) uint32
	RssiGet(connHandle uint16, rssi *int8) uint32

	ScanStart(params *BleScanParams) uint32
	ScanStop() uint32

	Connect(peerAddr *BleDev, scanParams *BleScanParams,
		connParams *BleConnParams) uint32
	ConnectCancel() uint32
}
