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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "mynewt.apache.org/bleser/serxact/bledefs"
	"mynewt.apache.org/bleser/serxact/sergap"
	"mynewt.apache.org/bleser/serxact/serxutil"
)

type rxEvt struct {
	connHandle uint16
	ev         sergap.Evt
}

func startSim() (*Sim, chan rxEvt) {
	sim := NewSim()
	evts := make(chan rxEvt, 16)
	sim.Start(func(h uint16, ev sergap.Evt) {
		evts <- rxEvt{h, ev}
	})
	return sim, evts
}

func nextEvt(t *testing.T, evts chan rxEvt) rxEvt {
	select {
	case e := <-evts:
		return e
	case <-time.After(time.Second):
		require.FailNow(t, "timeout waiting for event")
		return rxEvt{}
	}
}

var testPeer = Peer{
	Dev: BleDev{
		AddrType: BLE_ADDR_TYPE_PUBLIC,
		Addr:     BleAddr{Bytes: [6]byte{1, 2, 3, 4, 5, 6}},
	},
	Rssi:    -42,
	AdvData: []byte{0x02, 0x01, 0x06},
	SrData:  []byte{0x03, 0x09, 'h', 'i'},
}

func TestAddress(t *testing.T) {
	sim := NewSim()

	var addr BleDev
	require.Equal(t, success, sim.AddressGet(&addr))
	assert.Equal(t, BLE_ADDR_TYPE_RANDOM_STATIC, addr.AddrType)
	assert.Equal(t, errNull, sim.AddressGet(nil))

	bad := BleDev{AddrType: BLE_ADDR_TYPE_RANDOM_STATIC}
	assert.Equal(t, serxutil.BLE_ERROR_GAP_INVALID_BLE_ADDR,
		sim.AddressSet(0, &bad))

	good := testPeer.Dev
	require.Equal(t, success, sim.AddressSet(0, &good))
	require.Equal(t, success, sim.AddressGet(&addr))
	assert.Equal(t, good, addr)

	assert.Equal(t, []string{"AddressGet", "AddressGet", "AddressSet",
		"AddressSet", "AddressGet"}, sim.Calls())
}

func TestFail(t *testing.T) {
	sim := NewSim()

	sim.Fail("AdvStop", serxutil.NRF_ERROR_BUSY)
	assert.Equal(t, serxutil.NRF_ERROR_BUSY, sim.AdvStop())

	sim.Fail("AdvStop", serxutil.NRF_SUCCESS)
	assert.Equal(t, errState, sim.AdvStop())
}

func TestDevName(t *testing.T) {
	sim := NewSim()

	require.Equal(t, success, sim.DevNameSet(nil, []byte("bleser")))

	l := uint16(3)
	assert.Equal(t, errDataSize, sim.DevNameGet(make([]byte, 3), &l))

	l = 32
	name := make([]byte, l)
	require.Equal(t, success, sim.DevNameGet(name, &l))
	assert.Equal(t, "bleser", string(name[:l]))

	l = 0
	require.Equal(t, success, sim.DevNameGet(nil, &l))
	assert.Equal(t, uint16(6), l)
}

func TestScanConnect(t *testing.T) {
	sim, evts := startSim()
	defer sim.Stop()
	sim.Peers = []Peer{testPeer}

	params := &BleScanParams{Active: true, Interval: 0x10, Window: 0x10}
	require.Equal(t, success, sim.ScanStart(params))
	assert.Equal(t, errState, sim.ScanStart(params))

	e := nextEvt(t, evts)
	rpt := e.ev.(*sergap.AdvReportEvt)
	assert.Equal(t, testPeer.Dev, rpt.PeerAddr)
	assert.Equal(t, testPeer.AdvData, rpt.Data)
	assert.False(t, rpt.ScanRsp)

	e = nextEvt(t, evts)
	assert.True(t, e.ev.(*sergap.AdvReportEvt).ScanRsp)

	dev := testPeer.Dev
	cp := &BleConnParams{MinConnItvl: 6, MaxConnItvl: 6, ConnSupTimeout: 100}
	require.Equal(t, success, sim.Connect(&dev, params, cp))

	e = nextEvt(t, evts)
	conn := e.ev.(*sergap.ConnectedEvt)
	assert.Equal(t, BLE_GAP_ROLE_CENTRAL, conn.Role)
	assert.Equal(t, *cp, conn.ConnParams)

	var rssi int8
	assert.Equal(t, errState, sim.RssiGet(e.connHandle, &rssi))
	require.Equal(t, success, sim.RssiStart(e.connHandle, 0, 0))
	nextEvt(t, evts)
	require.Equal(t, success, sim.RssiGet(e.connHandle, &rssi))
	assert.Equal(t, int8(-60), rssi)

	require.Equal(t, success, sim.Disconnect(e.connHandle,
		sergap.BLE_HCI_REMOTE_USER_TERMINATED_CONNECTION))
	d := nextEvt(t, evts)
	assert.Equal(t, e.connHandle, d.connHandle)
	assert.IsType(t, &sergap.DisconnectedEvt{}, d.ev)

	assert.Equal(t, serxutil.BLE_ERROR_INVALID_CONN_HANDLE,
		sim.RssiStop(e.connHandle))
}

func TestConnectPending(t *testing.T) {
	sim, evts := startSim()
	defer sim.Stop()

	dev := testPeer.Dev
	sp := &BleScanParams{Interval: 1, Window: 1}
	cp := &BleConnParams{}

	require.Equal(t, success, sim.Connect(&dev, sp, cp))
	assert.Equal(t, errState, sim.Connect(&dev, sp, cp))

	require.Equal(t, success, sim.ConnectCancel())
	e := nextEvt(t, evts)
	assert.Equal(t, BLE_GAP_TIMEOUT_SRC_CONN, e.ev.(*sergap.TimeoutEvt).Src)

	assert.Equal(t, errState, sim.ConnectCancel())
}

func TestPairingFillsKeyset(t *testing.T) {
	sim, evts := startSim()
	defer sim.Stop()
	sim.AutoPair = false

	require.Equal(t, success, sim.AdvStart(&BleAdvParams{}))
	h, err := sim.PeerConnect(testPeer.Dev)
	require.NoError(t, err)
	nextEvt(t, evts)

	ks := NewBleSecKeysetStorage()
	ks.KeysOwn.Pk = nil

	params := &BleSecParams{
		Bond:      true,
		KdistOwn:  BleSecKdist{Enc: true},
		KdistPeer: BleSecKdist{Id: true},
	}
	require.Equal(t, success, sim.SecParamsReply(h,
		BLE_GAP_SEC_STATUS_SUCCESS, params, &ks))

	select {
	case e := <-evts:
		t.Fatalf("unexpected event before pairing completes: %s",
			e.ev.EvtId())
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, sim.CompletePairing(h))

	e := nextEvt(t, evts)
	assert.IsType(t, &sergap.ConnSecUpdateEvt{}, e.ev)

	e = nextEvt(t, evts)
	as := e.ev.(*sergap.AuthStatusEvt)
	assert.True(t, as.Bonded)
	assert.Nil(t, as.Keyset)

	assert.Equal(t, uint8(16), ks.KeysOwn.EncKey.EncInfo.LtkLen)
	assert.Equal(t, testPeer.Dev, ks.KeysPeer.IdKey.IdAddrInfo)
	assert.Equal(t, BleEncInfo{}, ks.KeysPeer.EncKey.EncInfo)
}

func TestPairingRejected(t *testing.T) {
	sim, evts := startSim()
	defer sim.Stop()

	require.Equal(t, success, sim.AdvStart(&BleAdvParams{}))
	h, err := sim.PeerConnect(testPeer.Dev)
	require.NoError(t, err)
	nextEvt(t, evts)

	require.Equal(t, success, sim.SecParamsReply(h,
		BLE_GAP_SEC_STATUS_PAIRING_NOT_SUPP, nil, nil))

	e := nextEvt(t, evts)
	assert.Equal(t, BLE_GAP_SEC_STATUS_PAIRING_NOT_SUPP,
		e.ev.(*sergap.AuthStatusEvt).AuthStatus)
}
