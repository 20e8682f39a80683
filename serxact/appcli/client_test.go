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
package appcli

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "mynewt.apache.org/bleser/serxact/bledefs"
	"mynewt.apache.org/bleser/serxact/connsvr"
	"mynewt.apache.org/bleser/serxact/gapsim"
	"mynewt.apache.org/bleser/serxact/sergap"
	"mynewt.apache.org/bleser/serxact/serxport"
	"mynewt.apache.org/bleser/serxact/serxutil"
)

var testPeer = gapsim.Peer{
	Dev: BleDev{
		AddrType: BLE_ADDR_TYPE_PUBLIC,
		Addr:     BleAddr{Bytes: [6]byte{0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f}},
	},
	Rssi:    -50,
	AdvData: []byte{0x02, 0x01, 0x06},
}

var testScanParams = BleScanParams{
	Interval: 0x40,
	Window:   0x20,
	Timeout:  0,
}

var testConnParams = BleConnParams{
	MinConnItvl:    8,
	MaxConnItvl:    16,
	ConnSupTimeout: 400,
}

// Client and connectivity server joined by a pipe, with the simulator
// standing in for the native stack.
type rig struct {
	cli  *Client
	srv  *connsvr.Server
	sim  *gapsim.Sim
	done chan error
}

func newRig(t *testing.T) *rig {
	sim := gapsim.NewSim()
	sim.Peers = []gapsim.Peer{testPeer}

	srv := connsvr.NewServer(connsvr.NewCfg(), sim)
	sim.Start(func(h uint16, ev sergap.Evt) {
		srv.Notify(h, ev)
	})

	app, conn := serxport.NewPipe(16)

	r := &rig{
		srv:  srv,
		sim:  sim,
		done: make(chan error, 1),
	}
	go func() {
		r.done <- srv.Serve(conn)
	}()

	cfg := NewCfg()
	cfg.RspTimeout = 2 * time.Second
	r.cli = NewClient(cfg, app)
	require.NoError(t, r.cli.Start())

	return r
}

func (r *rig) close(t *testing.T) {
	assert.NoError(t, r.cli.Stop())
	r.sim.Stop()

	err := <-r.done
	assert.True(t, serxutil.IsXport(err))
}

func nextEvt(t *testing.T, bl *Listener) EvtMsg {
	select {
	case m := <-bl.EvtChan:
		return m
	case err := <-bl.ErrChan:
		require.FailNow(t, "listener error", err.Error())
	case <-time.After(2 * time.Second):
		require.FailNow(t, "timeout waiting for event")
	}

	return EvtMsg{}
}

func listen(t *testing.T, c *Client, key ListenerKey) *Listener {
	bl := NewListener()
	require.NoError(t, c.Listeners().AddListener(key, bl))
	return bl
}

func TestGapSettings(t *testing.T) {
	r := newRig(t)
	defer r.close(t)

	addr, err := r.cli.AddressGet()
	require.NoError(t, err)
	assert.Equal(t, BLE_ADDR_TYPE_RANDOM_STATIC, addr.AddrType)

	newAddr := BleDev{
		AddrType: BLE_ADDR_TYPE_RANDOM_STATIC,
		Addr:     BleAddr{Bytes: [6]byte{1, 2, 3, 4, 5, 0xc6}},
	}
	require.NoError(t, r.cli.AddressSet(0, &newAddr))
	addr, err = r.cli.AddressGet()
	require.NoError(t, err)
	assert.Equal(t, newAddr, addr)

	require.NoError(t, r.cli.AppearanceSet(0x03c1))
	app, err := r.cli.AppearanceGet()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x03c1), app)

	require.NoError(t, r.cli.PpcpSet(&testConnParams))
	ppcp, err := r.cli.PpcpGet()
	require.NoError(t, err)
	assert.Equal(t, testConnParams, ppcp)

	require.NoError(t, r.cli.DevNameSet(nil, []byte("bleser")))
	name, err := r.cli.DevNameGet(32)
	require.NoError(t, err)
	assert.Equal(t, "bleser", string(name))

	l, err := r.cli.DevNameLen()
	require.NoError(t, err)
	assert.Equal(t, uint16(6), l)

	require.NoError(t, r.cli.TxPowerSet(4))
	require.NoError(t, r.cli.AdvDataSet([]byte{0x02, 0x01, 0x06}, nil))
}

func TestStackError(t *testing.T) {
	r := newRig(t)
	defer r.close(t)

	// Name does not fit the buffer.
	_, err := r.cli.DevNameGet(2)
	require.Error(t, err)
	require.True(t, serxutil.IsStack(err))
	assert.Equal(t, serxutil.NRF_ERROR_DATA_SIZE, serxutil.ToStack(err).Status)

	r.sim.Fail("AdvStop", serxutil.NRF_ERROR_INVALID_STATE)
	err = r.cli.AdvStop()
	require.True(t, serxutil.IsStack(err))
	assert.Equal(t, serxutil.NRF_ERROR_INVALID_STATE,
		serxutil.ToStack(err).Status)

	// Rejected locally; nothing reaches the stack.
	err = r.cli.AdvDataSet(make([]byte, BLE_GAP_ADV_MAX_SIZE+1), nil)
	require.Error(t, err)
	assert.True(t, serxutil.IsInvalidLength(err))
	assert.NotContains(t, r.sim.Calls(), "AdvDataSet")
}

func TestScanEvents(t *testing.T) {
	r := newRig(t)
	defer r.close(t)

	bl := listen(t, r.cli, EvtKey(sergap.GAP_EVT_ADV_REPORT, -1))

	require.NoError(t, r.cli.ScanStart(&testScanParams))

	m := nextEvt(t, bl)
	assert.Equal(t, BLE_CONN_HANDLE_INVALID, m.ConnHandle)

	ev := m.Evt.(*sergap.AdvReportEvt)
	assert.Equal(t, testPeer.Dev, ev.PeerAddr)
	assert.Equal(t, testPeer.Rssi, ev.Rssi)
	assert.Equal(t, testPeer.AdvData, ev.Data)

	require.NoError(t, r.cli.ScanStop())
}

func TestConnectAndPair(t *testing.T) {
	r := newRig(t)
	defer r.close(t)

	bl := listen(t, r.cli, AnyKey())

	require.NoError(t, r.cli.Connect(&testPeer.Dev, &testScanParams,
		&testConnParams))

	m := nextEvt(t, bl)
	connected := m.Evt.(*sergap.ConnectedEvt)
	assert.Equal(t, testPeer.Dev, connected.PeerAddr)
	assert.Equal(t, BLE_GAP_ROLE_CENTRAL, connected.Role)
	h := m.ConnHandle

	_, err := r.cli.RssiGet(h)
	require.True(t, serxutil.IsStack(err))

	require.NoError(t, r.cli.RssiStart(h, 5, 0))
	m = nextEvt(t, bl)
	changed := m.Evt.(*sergap.RssiChangedEvt)

	rssi, err := r.cli.RssiGet(h)
	require.NoError(t, err)
	assert.Equal(t, changed.Rssi, rssi)
	require.NoError(t, r.cli.RssiStop(h))

	params := BleSecParams{
		Bond:       true,
		IoCaps:     BLE_GAP_IO_CAPS_NONE,
		MinKeySize: 7,
		MaxKeySize: 16,
		KdistOwn:   BleSecKdist{Enc: true},
		KdistPeer:  BleSecKdist{Enc: true, Id: true},
	}
	require.NoError(t, r.cli.Authenticate(h, &params))

	m = nextEvt(t, bl)
	require.IsType(t, &sergap.SecParamsRequestEvt{}, m.Evt)

	keyset := NewBleSecKeysetStorage()
	require.NoError(t, r.cli.SecParamsReply(h, BLE_GAP_SEC_STATUS_SUCCESS,
		&params, &keyset))

	var status *sergap.AuthStatusEvt
	for status == nil {
		m = nextEvt(t, bl)
		if ev, ok := m.Evt.(*sergap.AuthStatusEvt); ok {
			status = ev
		}
	}

	assert.Equal(t, uint8(BLE_GAP_SEC_STATUS_SUCCESS), status.AuthStatus)
	assert.True(t, status.Bonded)
	require.NotNil(t, status.Keyset)

	// Keys landed in the storage handed to SecParamsReply.
	assert.Equal(t, uint8(16), keyset.KeysPeer.EncKey.EncInfo.LtkLen)
	assert.NotEqual(t, BleKey16{}, keyset.KeysPeer.EncKey.EncInfo.Ltk)
	assert.Equal(t, testPeer.Dev, keyset.KeysPeer.IdKey.IdAddrInfo)
	assert.Equal(t, uint8(16), keyset.KeysOwn.EncKey.EncInfo.LtkLen)

	// The connectivity side released the procedure's context.
	assert.Equal(t, 0, r.srv.SecCtx().Active())

	sec, err := r.cli.ConnSecGet(h)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), sec.SecMode.Lv)

	require.NoError(t, r.cli.Disconnect(h, 0x13))
	for {
		m = nextEvt(t, bl)
		if _, ok := m.Evt.(*sergap.DisconnectedEvt); ok {
			break
		}
	}
	assert.Equal(t, h, m.ConnHandle)
}

func TestSecParamsReplyFailure(t *testing.T) {
	r := newRig(t)
	defer r.close(t)

	bl := listen(t, r.cli, EvtKey(sergap.GAP_EVT_CONNECTED, -1))
	require.NoError(t, r.cli.Connect(&testPeer.Dev, &testScanParams,
		&testConnParams))
	h := nextEvt(t, bl).ConnHandle

	r.sim.Fail("SecParamsReply", serxutil.NRF_ERROR_INVALID_STATE)

	keyset := NewBleSecKeysetStorage()
	err := r.cli.SecParamsReply(h, BLE_GAP_SEC_STATUS_SUCCESS,
		&BleSecParams{Bond: true}, &keyset)
	require.True(t, serxutil.IsStack(err))

	r.cli.mtx.Lock()
	assert.Empty(t, r.cli.keysets)
	r.cli.mtx.Unlock()

	assert.Equal(t, 0, r.srv.SecCtx().Active())
}

func TestConcurrentCommands(t *testing.T) {
	r := newRig(t)
	defer r.close(t)

	const n = 16

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := r.cli.AppearanceSet(uint16(i)); err != nil {
				errs <- err
				return
			}
			if _, err := r.cli.AppearanceGet(); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

// Client attached to a bare pipe end; the test plays the connectivity side.
func newBareClient(t *testing.T, tmo time.Duration) (*Client,
	*serxport.PipeXport) {

	app, peer := serxport.NewPipe(4)

	cfg := NewCfg()
	cfg.RspTimeout = tmo
	c := NewClient(cfg, app)
	require.NoError(t, c.Start())

	return c, peer
}

func rxCmd(t *testing.T, peer *serxport.PipeXport) []byte {
	pkt, err := peer.Rx()
	require.NoError(t, err)

	pt, body, err := serxport.Unwrap(pkt)
	require.NoError(t, err)
	require.Equal(t, serxport.PKT_TYPE_CMD, pt)

	return body
}

func txRsp(t *testing.T, peer *serxport.PipeXport, op sergap.Opcode,
	status uint32) {

	buf := make([]byte, 16)
	n, err := sergap.EncodeRsp(op, status, nil, buf)
	require.NoError(t, err)
	require.NoError(t, peer.Tx(serxport.Wrap(serxport.PKT_TYPE_RSP, buf[:n])))
}

func TestRspTimeout(t *testing.T) {
	c, peer := newBareClient(t, 50*time.Millisecond)
	defer c.Stop()

	err := c.AdvStop()
	require.Error(t, err)
	assert.True(t, serxutil.IsRspTimeout(err))

	assert.Equal(t, []byte{byte(sergap.GAP_OP_ADV_STOP)}, rxCmd(t, peer))

	// A late response is dropped rather than matched to the next command.
	txRsp(t, peer, sergap.GAP_OP_ADV_STOP, serxutil.NRF_SUCCESS)

	errChan := make(chan error, 1)
	go func() {
		errChan <- c.ScanStop()
	}()
	assert.Equal(t, []byte{byte(sergap.GAP_OP_SCAN_STOP)}, rxCmd(t, peer))
	txRsp(t, peer, sergap.GAP_OP_SCAN_STOP, serxutil.NRF_ERROR_INVALID_STATE)

	err = <-errChan
	require.True(t, serxutil.IsStack(err))
	assert.Equal(t, serxutil.NRF_ERROR_INVALID_STATE,
		serxutil.ToStack(err).Status)
}

func TestBadRspPayload(t *testing.T) {
	c, peer := newBareClient(t, time.Second)
	defer c.Stop()

	errChan := make(chan error, 1)
	go func() {
		_, err := c.AppearanceGet()
		errChan <- err
	}()

	rxCmd(t, peer)

	// Success without the promised result field.
	require.NoError(t, peer.Tx(serxport.Wrap(serxport.PKT_TYPE_RSP,
		[]byte{byte(sergap.GAP_OP_APPEARANCE_GET), 0, 0, 0, 0})))

	err := <-errChan
	require.Error(t, err)
	assert.False(t, serxutil.IsStack(err))
}

func TestStopFailsPending(t *testing.T) {
	c, peer := newBareClient(t, 10*time.Second)

	bl := listen(t, c, AnyKey())

	errChan := make(chan error, 1)
	go func() {
		errChan <- c.ConnectCancel()
	}()
	rxCmd(t, peer)

	require.NoError(t, c.Stop())

	err := <-errChan
	require.Error(t, err)
	assert.True(t, serxutil.IsXport(err))

	select {
	case err := <-bl.ErrChan:
		assert.True(t, serxutil.IsXport(err))
	case <-time.After(time.Second):
		require.FailNow(t, "listener not failed")
	}

	// The client no longer accepts commands.
	assert.Error(t, c.AdvStop())
}

func TestUndecodableEvt(t *testing.T) {
	c, peer := newBareClient(t, time.Second)
	defer c.Stop()

	bl := listen(t, c, AnyKey())

	// Unknown event ID, then a good one.
	require.NoError(t, peer.Tx(serxport.Wrap(serxport.PKT_TYPE_EVT,
		[]byte{0x7f, 0x00, 0x00, 0x00})))

	buf := make([]byte, 16)
	n, err := sergap.EncodeEvt(3, &sergap.DisconnectedEvt{Reason: 0x08}, buf)
	require.NoError(t, err)
	require.NoError(t, peer.Tx(serxport.Wrap(serxport.PKT_TYPE_EVT, buf[:n])))

	m := nextEvt(t, bl)
	assert.Equal(t, uint16(3), m.ConnHandle)
	assert.Equal(t, &sergap.DisconnectedEvt{Reason: 0x08}, m.Evt)
}

func TestListenerMap(t *testing.T) {
	lm := NewListenerMap()

	wild := NewListener()
	conn := NewListener()
	evt := NewListener()
	exact := NewListener()

	require.NoError(t, lm.AddListener(AnyKey(), wild))
	require.NoError(t, lm.AddListener(ConnKey(1), conn))
	require.NoError(t, lm.AddListener(
		EvtKey(sergap.GAP_EVT_RSSI_CHANGED, -1), evt))
	require.NoError(t, lm.AddListener(
		EvtKey(sergap.GAP_EVT_RSSI_CHANGED, 1), exact))

	assert.Error(t, lm.AddListener(AnyKey(), NewListener()))
	assert.Error(t, lm.AddListener(ConnKey(2), wild))

	tests := []struct {
		connHandle uint16
		ev         sergap.Evt
		want       *Listener
	}{
		{1, &sergap.RssiChangedEvt{}, exact},
		{2, &sergap.RssiChangedEvt{}, evt},
		{1, &sergap.DisconnectedEvt{}, conn},
		{2, &sergap.DisconnectedEvt{}, wild},
	}

	for i, test := range tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			require.True(t, lm.Dispatch(test.connHandle, test.ev))

			m := <-test.want.EvtChan
			assert.Equal(t, test.connHandle, m.ConnHandle)
			assert.Equal(t, test.ev, m.Evt)
		})
	}

	key := lm.RemoveListener(exact)
	require.NotNil(t, key)
	assert.Equal(t, EvtKey(sergap.GAP_EVT_RSSI_CHANGED, 1), *key)
	assert.Nil(t, lm.RemoveListener(exact))

	lm.ErrorAll(fmt.Errorf("gone"))
	assert.Error(t, <-wild.ErrChan)
	assert.False(t, lm.Dispatch(1, &sergap.DisconnectedEvt{}))
}

func TestListenerOverflow(t *testing.T) {
	lm := NewListenerMap()
	bl := NewListener()
	require.NoError(t, lm.AddListener(AnyKey(), bl))

	for i := 0; i < cap(bl.EvtChan); i++ {
		require.True(t, lm.Dispatch(0, &sergap.DisconnectedEvt{}))
	}
	assert.False(t, lm.Dispatch(0, &sergap.DisconnectedEvt{}))
}
