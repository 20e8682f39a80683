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

package gapsim

import (
	. "mynewt.apache.org/bleser/serxact/bledefs"
	"mynewt.apache.org/bleser/serxact/sergap"
	"mynewt.apache.org/bleser/serxact/serxutil"
)

const (
	success      = serxutil.NRF_SUCCESS
	errNull      = serxutil.NRF_ERROR_NULL
	errState     = serxutil.NRF_ERROR_INVALID_STATE
	errParam     = serxutil.NRF_ERROR_INVALID_PARAM
	errDataSize  = serxutil.NRF_ERROR_DATA_SIZE
)

func (sim *Sim) AddressSet(cycleMode uint8, addr *BleDev) uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("AddressSet"); st != success {
		return st
	}

	if addr == nil {
		return errNull
	}
	if cycleMode > sergap.BLE_GAP_ADDR_CYCLE_MODE_AUTO ||
		addr.AddrType > BLE_ADDR_TYPE_RANDOM_PRIV_NONRES {

		return errParam
	}
	if addr.AddrType == BLE_ADDR_TYPE_RANDOM_STATIC &&
		addr.Addr.Bytes[5]&0xc0 != 0xc0 {

		return serxutil.BLE_ERROR_GAP_INVALID_BLE_ADDR
	}

	sim.addr = *addr
	return success
}

func (sim *Sim) AddressGet(addr *BleDev) uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("AddressGet"); st != success {
		return st
	}

	if addr == nil {
		return errNull
	}

	*addr = sim.addr
	return success
}

func (sim *Sim) AdvDataSet(data []byte, srData []byte) uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("AdvDataSet"); st != success {
		return st
	}

	if data != nil {
		sim.advData = append([]byte(nil), data...)
	}
	if srData != nil {
		sim.srData = append([]byte(nil), srData...)
	}

	return success
}

func (sim *Sim) AdvStart(params *BleAdvParams) uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("AdvStart"); st != success {
		return st
	}

	if params == nil {
		return errNull
	}
	if sim.advertising {
		return errState
	}
	if params.Type == BLE_GAP_ADV_TYPE_ADV_DIRECT_IND &&
		params.PeerAddr == nil {

		return errParam
	}

	sim.advertising = true
	return success
}

func (sim *Sim) AdvStop() uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("AdvStop"); st != success {
		return st
	}

	if !sim.advertising {
		return errState
	}

	sim.advertising = false
	return success
}

func (sim *Sim) ConnParamUpdate(connHandle uint16,
	params *BleConnParams) uint32 {

	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("ConnParamUpdate"); st != success {
		return st
	}

	c, st := sim.findConn(connHandle)
	if st != success {
		return st
	}

	if params == nil {
		params = &sim.ppcp
	}
	if params.MinConnItvl > params.MaxConnItvl {
		return errParam
	}

	c.params = *params
	sim.emit(connHandle, &sergap.ConnParamUpdateEvt{ConnParams: c.params})
	return success
}

func (sim *Sim) Disconnect(connHandle uint16, hciStatus uint8) uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("Disconnect"); st != success {
		return st
	}

	if _, st := sim.findConn(connHandle); st != success {
		return st
	}
	if hciStatus != sergap.BLE_HCI_REMOTE_USER_TERMINATED_CONNECTION &&
		hciStatus != sergap.BLE_HCI_CONN_INTERVAL_UNACCEPTABLE {

		return errParam
	}

	delete(sim.conns, connHandle)
	sim.emit(connHandle, &sergap.DisconnectedEvt{
		Reason: sergap.BLE_HCI_LOCAL_HOST_TERMINATED_CONNECTION,
	})

	return success
}

// PeerDisconnect simulates the remote side dropping the link.
func (sim *Sim) PeerDisconnect(connHandle uint16) error {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if _, st := sim.findConn(connHandle); st != success {
		return serxutil.FmtNotFoundError("no connection %d", connHandle)
	}

	delete(sim.conns, connHandle)
	sim.emit(connHandle, &sergap.DisconnectedEvt{
		Reason: sergap.BLE_HCI_REMOTE_USER_TERMINATED_CONNECTION,
	})

	return nil
}

func (sim *Sim) TxPowerSet(txPower int8) uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("TxPowerSet"); st != success {
		return st
	}

	for _, p := range validTxPowers {
		if p == txPower {
			sim.txPower = txPower
			return success
		}
	}

	return errParam
}

func (sim *Sim) AppearanceSet(appearance uint16) uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("AppearanceSet"); st != success {
		return st
	}

	sim.appearance = appearance
	return success
}

func (sim *Sim) AppearanceGet(appearance *uint16) uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("AppearanceGet"); st != success {
		return st
	}

	if appearance == nil {
		return errNull
	}

	*appearance = sim.appearance
	return success
}

func (sim *Sim) PpcpSet(params *BleConnParams) uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("PpcpSet"); st != success {
		return st
	}

	if params == nil {
		return errNull
	}
	if params.MinConnItvl > params.MaxConnItvl {
		return errParam
	}

	sim.ppcp = *params
	return success
}

func (sim *Sim) PpcpGet(params *BleConnParams) uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("PpcpGet"); st != success {
		return st
	}

	if params == nil {
		return errNull
	}

	*params = sim.ppcp
	return success
}

func (sim *Sim) DevNameSet(writePerm *BleConnSecMode, name []byte) uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("DevNameSet"); st != success {
		return st
	}

	if name == nil {
		return errNull
	}
	if len(name) > BLE_GAP_DEVNAME_MAX_LEN {
		return errParam
	}

	if writePerm != nil {
		sim.writePerm = *writePerm
	}
	sim.devName = append([]byte(nil), name...)
	return success
}

func (sim *Sim) DevNameGet(name []byte, length *uint16) uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("DevNameGet"); st != success {
		return st
	}

	if length == nil {
		return errNull
	}

	if name != nil {
		if len(sim.devName) > int(*length) {
			return errDataSize
		}
		copy(name, sim.devName)
	}

	*length = uint16(len(sim.devName))
	return success
}

func (sim *Sim) Authenticate(connHandle uint16, params *BleSecParams) uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("Authenticate"); st != success {
		return st
	}

	c, st := sim.findConn(connHandle)
	if st != success {
		return st
	}
	if params == nil {
		return errNull
	}

	if c.role == BLE_GAP_ROLE_PERIPH {
		// The peer central answers our security request by pairing.
		sim.emit(connHandle, &sergap.SecParamsRequestEvt{PeerParams: *params})
	} else {
		sim.emit(connHandle, &sergap.SecParamsRequestEvt{
			PeerParams: BleSecParams{
				Bond:       params.Bond,
				IoCaps:     BLE_GAP_IO_CAPS_NONE,
				MinKeySize: 7,
				MaxKeySize: 16,
				KdistOwn:   params.KdistPeer,
				KdistPeer:  params.KdistOwn,
			},
		})
	}

	return success
}

func (sim *Sim) SecParamsReply(connHandle uint16, secStatus uint8,
	params *BleSecParams, keyset *BleSecKeyset) uint32 {

	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("SecParamsReply"); st != success {
		return st
	}

	c, st := sim.findConn(connHandle)
	if st != success {
		return st
	}

	if secStatus != BLE_GAP_SEC_STATUS_SUCCESS {
		sim.emit(connHandle, &sergap.AuthStatusEvt{AuthStatus: secStatus})
		return success
	}

	if params == nil && c.role == BLE_GAP_ROLE_PERIPH {
		return errNull
	}

	c.keyset = keyset
	if params != nil {
		c.secBond = params.Bond
		c.kdist = [2]BleSecKdist{params.KdistOwn, params.KdistPeer}
	}

	if sim.AutoPair {
		sim.completePairing(connHandle, c)
	}

	return success
}

func (sim *Sim) AuthKeyReply(connHandle uint16, keyType BleAuthKeyType,
	key []byte) uint32 {

	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("AuthKeyReply"); st != success {
		return st
	}

	if _, st := sim.findConn(connHandle); st != success {
		return st
	}
	if keyType != BLE_GAP_AUTH_KEY_TYPE_NONE && key == nil {
		return errNull
	}

	return success
}

func (sim *Sim) LescDhkeyReply(connHandle uint16, dhkey *BleLescDhkey) uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("LescDhkeyReply"); st != success {
		return st
	}

	if _, st := sim.findConn(connHandle); st != success {
		return st
	}
	if dhkey == nil {
		return errNull
	}

	return success
}

func (sim *Sim) KeypressNotify(connHandle uint16, kpNot uint8) uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("KeypressNotify"); st != success {
		return st
	}

	if _, st := sim.findConn(connHandle); st != success {
		return st
	}
	if kpNot > 4 {
		return errParam
	}

	return success
}

func (sim *Sim) Encrypt(connHandle uint16, masterId *BleMasterId,
	encInfo *BleEncInfo) uint32 {

	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("Encrypt"); st != success {
		return st
	}

	c, st := sim.findConn(connHandle)
	if st != success {
		return st
	}
	if masterId == nil || encInfo == nil {
		return errNull
	}
	if c.role != BLE_GAP_ROLE_CENTRAL {
		return errState
	}

	lv := uint8(2)
	if encInfo.Auth {
		lv = 3
	}
	c.sec = BleConnSec{
		SecMode:     BleConnSecMode{Sm: 1, Lv: lv},
		EncrKeySize: encInfo.LtkLen,
	}
	sim.emit(connHandle, &sergap.ConnSecUpdateEvt{ConnSec: c.sec})

	return success
}

func (sim *Sim) SecInfoReply(connHandle uint16, encInfo *BleEncInfo,
	idInfo *BleIrk, signInfo *BleSignInfo) uint32 {

	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("SecInfoReply"); st != success {
		return st
	}

	c, st := sim.findConn(connHandle)
	if st != success {
		return st
	}

	if encInfo != nil {
		c.sec = BleConnSec{
			SecMode:     BleConnSecMode{Sm: 1, Lv: 2},
			EncrKeySize: encInfo.LtkLen,
		}
		sim.emit(connHandle, &sergap.ConnSecUpdateEvt{ConnSec: c.sec})
	}

	return success
}

func (sim *Sim) ConnSecGet(connHandle uint16, connSec *BleConnSec) uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("ConnSecGet"); st != success {
		return st
	}

	c, st := sim.findConn(connHandle)
	if st != success {
		return st
	}
	if connSec == nil {
		return errNull
	}

	*connSec = c.sec
	return success
}

func (sim *Sim) RssiStart(connHandle uint16, thresholdDbm uint8,
	skipCount uint8) uint32 {

	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("RssiStart"); st != success {
		return st
	}

	c, st := sim.findConn(connHandle)
	if st != success {
		return st
	}
	if c.rssiOn {
		return errState
	}

	c.rssiOn = true
	sim.emit(connHandle, &sergap.RssiChangedEvt{Rssi: c.rssi})
	return success
}

func (sim *Sim) RssiStop(connHandle uint16) uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("RssiStop"); st != success {
		return st
	}

	c, st := sim.findConn(connHandle)
	if st != success {
		return st
	}
	if !c.rssiOn {
		return errState
	}

	c.rssiOn = false
	return success
}

func (sim *Sim) RssiGet(connHandle uint16, rssi *int8) uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("RssiGet"); st != success {
		return st
	}

	c, st := sim.findConn(connHandle)
	if st != success {
		return st
	}
	if rssi == nil {
		return errNull
	}
	if !c.rssiOn {
		return errState
	}

	*rssi = c.rssi
	return success
}

func (sim *Sim) ScanStart(params *BleScanParams) uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("ScanStart"); st != success {
		return st
	}

	if params == nil {
		return errNull
	}
	if sim.scanning {
		return errState
	}
	if params.Window > params.Interval {
		return errParam
	}

	sim.scanning = true

	for _, p := range sim.Peers {
		if params.Selective && !whitelisted(params.Whitelist, &p.Dev) {
			continue
		}

		sim.emit(BLE_CONN_HANDLE_INVALID, &sergap.AdvReportEvt{
			PeerAddr: p.Dev,
			Rssi:     p.Rssi,
			Type:     BLE_GAP_ADV_TYPE_ADV_IND,
			Data:     p.AdvData,
		})
		if params.Active && p.SrData != nil {
			sim.emit(BLE_CONN_HANDLE_INVALID, &sergap.AdvReportEvt{
				PeerAddr: p.Dev,
				Rssi:     p.Rssi,
				ScanRsp:  true,
				Data:     p.SrData,
			})
		}
	}

	return success
}

func whitelisted(wl *BleWhitelist, dev *BleDev) bool {
	if wl == nil {
		return false
	}

	for _, a := range wl.Addrs {
		if a != nil && *a == *dev {
			return true
		}
	}

	return false
}

func (sim *Sim) ScanStop() uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("ScanStop"); st != success {
		return st
	}

	if !sim.scanning {
		return errState
	}

	sim.scanning = false
	return success
}

// Connecting to a known peer completes immediately.  Any other peer leaves
// the connection pending until ConnectCancel.
func (sim *Sim) Connect(peerAddr *BleDev, scanParams *BleScanParams,
	connParams *BleConnParams) uint32 {

	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("Connect"); st != success {
		return st
	}

	if peerAddr == nil || scanParams == nil || connParams == nil {
		return errNull
	}
	if sim.pending != nil {
		return errState
	}
	if connParams.MinConnItvl > connParams.MaxConnItvl {
		return errParam
	}

	// A connection supersedes a scan in progress.
	sim.scanning = false

	if sim.findPeer(peerAddr) == nil {
		dev := *peerAddr
		sim.pending = &dev
		return success
	}

	sim.allocConn(*peerAddr, BLE_GAP_ROLE_CENTRAL, *connParams)
	return success
}

func (sim *Sim) ConnectCancel() uint32 {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if st := sim.enter("ConnectCancel"); st != success {
		return st
	}

	if sim.pending == nil {
		return errState
	}

	sim.pending = nil
	sim.emit(BLE_CONN_HANDLE_INVALID, &sergap.TimeoutEvt{
		Src: BLE_GAP_TIMEOUT_SRC_CONN,
	})

	return success
}
