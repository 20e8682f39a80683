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

// Package gapsim is an in-memory BLE GAP stack.  It keeps just enough state
// to answer every call plausibly and generates the events a real stack
// would, so the connectivity server can run without hardware.
package gapsim

import (
	"crypto/rand"
	"sync"

	log "github.com/sirupsen/logrus"

	. "mynewt.apache.org/bleser/serxact/bledefs"
	"mynewt.apache.org/bleser/serxact/sergap"
	"mynewt.apache.org/bleser/serxact/serxutil"
)

type EvtFn func(connHandle uint16, ev sergap.Evt)

// Peer is a remote device visible to scans and available for connections.
type Peer struct {
	Dev     BleDev
	Rssi    int8
	AdvData []byte
	SrData  []byte
}

type conn struct {
	peer    BleDev
	role    BleRole
	params  BleConnParams
	sec     BleConnSec
	rssi    int8
	rssiOn  bool
	keyset  *BleSecKeyset
	secBond bool
	kdist   [2]BleSecKdist
}

type simEvt struct {
	connHandle uint16
	ev         sergap.Evt
}

type Sim struct {
	// Complete pairing as soon as security parameters are exchanged.
	// When false, CompletePairing must be called.
	AutoPair bool

	Peers []Peer

	addr        BleDev
	advData     []byte
	srData      []byte
	advertising bool
	scanning    bool
	pending     *BleDev
	txPower     int8
	appearance  uint16
	ppcp        BleConnParams
	devName     []byte
	writePerm   BleConnSecMode
	conns       map[uint16]*conn
	nextHandle  uint16

	failures map[string]uint32
	calls    []string

	evtQ     chan simEvt
	stopChan chan struct{}
	wg       sync.WaitGroup
	mtx      sync.Mutex
}

var validTxPowers = []int8{-40, -20, -16, -12, -8, -4, 0, 3, 4}

func NewSim() *Sim {
	sim := &Sim{
		AutoPair: true,
		addr: BleDev{
			AddrType: BLE_ADDR_TYPE_RANDOM_STATIC,
			Addr:     BleAddr{Bytes: [6]byte{0x01, 0x00, 0x00, 0x00, 0x00, 0xc0}},
		},
		ppcp: BleConnParams{
			MinConnItvl:    6,
			MaxConnItvl:    40,
			ConnSupTimeout: 400,
		},
		devName:   []byte("nimble"),
		writePerm: BleConnSecMode{Sm: 1, Lv: 1},
		conns:     map[uint16]*conn{},
		failures:  map[string]uint32{},
	}

	return sim
}

// Start delivers generated events to fn, in order, from a dedicated
// goroutine.  Events generated while the simulator is stopped are dropped.
func (sim *Sim) Start(fn EvtFn) {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if sim.evtQ != nil {
		return
	}

	sim.evtQ = make(chan simEvt, 64)
	sim.stopChan = make(chan struct{})

	evtQ := sim.evtQ
	stopChan := sim.stopChan

	sim.wg.Add(1)
	go func() {
		defer sim.wg.Done()
		for {
			select {
			case e := <-evtQ:
				fn(e.connHandle, e.ev)
			case <-stopChan:
				return
			}
		}
	}()
}

func (sim *Sim) Stop() {
	sim.mtx.Lock()
	if sim.evtQ == nil {
		sim.mtx.Unlock()
		return
	}
	close(sim.stopChan)
	sim.evtQ = nil
	sim.mtx.Unlock()

	sim.wg.Wait()
}

// Called with the lock held.
func (sim *Sim) emit(connHandle uint16, ev sergap.Evt) {
	if sim.evtQ == nil {
		log.Debugf("gapsim: dropping %s event", ev.EvtId())
		return
	}

	select {
	case sim.evtQ <- simEvt{connHandle, ev}:
	default:
		log.Warnf("gapsim: event queue full; dropping %s event", ev.EvtId())
	}
}

// Fail makes every subsequent call to the named method return status.  A
// status of NRF_SUCCESS clears the failure.
func (sim *Sim) Fail(method string, status uint32) {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if status == serxutil.NRF_SUCCESS {
		delete(sim.failures, method)
	} else {
		sim.failures[method] = status
	}
}

func (sim *Sim) Calls() []string {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	return append([]string(nil), sim.calls...)
}

// Records a call and returns the injected failure for it, if any.  Called
// with the lock held.
func (sim *Sim) enter(method string) uint32 {
	sim.calls = append(sim.calls, method)
	return sim.failures[method]
}

func (sim *Sim) findConn(connHandle uint16) (*conn, uint32) {
	c := sim.conns[connHandle]
	if c == nil {
		return nil, serxutil.BLE_ERROR_INVALID_CONN_HANDLE
	}

	return c, serxutil.NRF_SUCCESS
}

func (sim *Sim) findPeer(dev *BleDev) *Peer {
	for i := range sim.Peers {
		if sim.Peers[i].Dev == *dev {
			return &sim.Peers[i]
		}
	}

	return nil
}

func (sim *Sim) allocConn(peer BleDev, role BleRole,
	params BleConnParams) uint16 {

	h := sim.nextHandle
	sim.nextHandle++

	c := &conn{
		peer:   peer,
		role:   role,
		params: params,
		sec:    BleConnSec{SecMode: BleConnSecMode{Sm: 1, Lv: 1}},
		rssi:   -60,
	}
	sim.conns[h] = c

	sim.emit(h, &sergap.ConnectedEvt{
		PeerAddr:   peer,
		OwnAddr:    sim.addr,
		Role:       role,
		ConnParams: c.params,
	})

	return h
}

// PeerConnect simulates a central connecting to us while advertising.
func (sim *Sim) PeerConnect(peer BleDev) (uint16, error) {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	if !sim.advertising {
		return 0, serxutil.NewStackError(serxutil.NRF_ERROR_INVALID_STATE,
			"not advertising")
	}
	sim.advertising = false

	return sim.allocConn(peer, BLE_GAP_ROLE_PERIPH, sim.ppcp), nil
}

// CompletePairing finishes a security procedure started with
// SecParamsReply: the keyset passed by the application is filled with
// generated keys and the authentication status is reported.
func (sim *Sim) CompletePairing(connHandle uint16) error {
	sim.mtx.Lock()
	defer sim.mtx.Unlock()

	c := sim.conns[connHandle]
	if c == nil {
		return serxutil.FmtNotFoundError("no connection %d", connHandle)
	}

	sim.completePairing(connHandle, c)
	return nil
}

func randKey16() BleKey16 {
	var k BleKey16
	rand.Read(k[:])
	return k
}

func fillKeys(keys *BleSecKeys, kdist BleSecKdist, addr BleDev) {
	if keys.EncKey != nil && kdist.Enc {
		keys.EncKey.EncInfo = BleEncInfo{
			Ltk:    randKey16(),
			Lesc:   false,
			Auth:   true,
			LtkLen: 16,
		}
		rand.Read(keys.EncKey.MasterId.Rand[:])
		keys.EncKey.MasterId.Ediv = uint16(keys.EncKey.MasterId.Rand[0])<<8 |
			uint16(keys.EncKey.MasterId.Rand[1])
	}
	if keys.IdKey != nil && kdist.Id {
		keys.IdKey.IdInfo = BleIrk{Irk: randKey16()}
		keys.IdKey.IdAddrInfo = addr
	}
	if keys.SignKey != nil && kdist.Sign {
		keys.SignKey.Csrk = randKey16()
	}
}

func (sim *Sim) completePairing(connHandle uint16, c *conn) {
	if c.keyset != nil {
		fillKeys(&c.keyset.KeysOwn, c.kdist[0], sim.addr)
		fillKeys(&c.keyset.KeysPeer, c.kdist[1], c.peer)
	}

	c.sec = BleConnSec{
		SecMode:     BleConnSecMode{Sm: 1, Lv: 3},
		EncrKeySize: 16,
	}
	sim.emit(connHandle, &sergap.ConnSecUpdateEvt{ConnSec: c.sec})

	sim.emit(connHandle, &sergap.AuthStatusEvt{
		AuthStatus: BLE_GAP_SEC_STATUS_SUCCESS,
		Bonded:     c.secBond,
		Sm1Levels:  BleSecLevels{Lv1: true, Lv2: true, Lv3: true},
		KdistOwn:   c.kdist[0],
		KdistPeer:  c.kdist[1],
	})

	c.keyset = nil
}
