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
// Package appcli is the application side of the GAP serialization link.  It
// sends commands to the connectivity chip, waits for their responses and
// hands events to registered listeners.
package appcli

import (
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	. "mynewt.apache.org/bleser/serxact/bledefs"
	"mynewt.apache.org/bleser/serxact/sergap"
	"mynewt.apache.org/bleser/serxact/serxport"
	"mynewt.apache.org/bleser/serxact/serxutil"
)

type Cfg struct {
	// How long to wait for the response to a command.
	RspTimeout time.Duration

	// Size of the command encode buffer.
	Mtu int
}

func NewCfg() Cfg {
	return Cfg{
		RspTimeout: 10 * time.Second,
		Mtu:        512,
	}
}

type rspWaiter struct {
	op      sergap.Opcode
	rspChan chan []byte
	errChan chan error
}

type Client struct {
	cfg   Cfg
	xport serxport.Xport
	lm    *ListenerMap

	// One command in flight at a time.
	gate serxutil.TxGate

	// Key storage handed over with SEC_PARAMS_REPLY, filled when the
	// procedure's AUTH_STATUS arrives.
	keysets map[uint16]*BleSecKeyset

	waiter   *rspWaiter
	started  bool
	stopping bool
	wg       sync.WaitGroup
	mtx      sync.Mutex
}

func NewClient(cfg Cfg, xport serxport.Xport) *Client {
	return &Client{
		cfg:     cfg,
		xport:   xport,
		lm:      NewListenerMap(),
		keysets: map[uint16]*BleSecKeyset{},
	}
}

func (c *Client) Listeners() *ListenerMap {
	return c.lm
}

func (c *Client) Start() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.started {
		return fmt.Errorf("Attempt to start an already-started client")
	}

	if err := c.xport.Start(); err != nil {
		return errors.Wrapf(err, "failed to start transport")
	}

	c.started = true
	c.stopping = false

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.rxLoop()
	}()

	return nil
}

func (c *Client) Stop() error {
	c.mtx.Lock()
	if !c.started {
		c.mtx.Unlock()
		return fmt.Errorf("Attempt to stop an unstarted client")
	}
	c.stopping = true
	c.mtx.Unlock()

	err := c.xport.Stop()
	c.wg.Wait()

	c.mtx.Lock()
	c.started = false
	c.mtx.Unlock()

	return err
}

func (c *Client) isStopping() bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.stopping
}

func (c *Client) rxLoop() {
	for {
		pkt, err := c.xport.Rx()
		if err != nil {
			if serxport.IsRxTimeout(err) && !c.isStopping() {
				continue
			}

			if !c.isStopping() {
				log.Errorf("Serialization link failed: %s", err.Error())
			}
			c.failAll(errors.Wrapf(err, "receive failed"))
			return
		}

		c.dispatch(pkt)
	}
}

func (c *Client) failAll(err error) {
	c.mtx.Lock()
	w := c.waiter
	c.waiter = nil
	c.mtx.Unlock()

	if w != nil {
		w.errChan <- err
	}
	c.gate.Abort(err)
	c.lm.ErrorAll(err)
}

func (c *Client) dispatch(pkt []byte) {
	pt, body, err := serxport.Unwrap(pkt)
	if err != nil {
		log.Debugf("Dropping bad packet: %s", err.Error())
		return
	}

	switch pt {
	case serxport.PKT_TYPE_RSP:
		c.dispatchRsp(body)

	case serxport.PKT_TYPE_EVT:
		c.dispatchEvt(body)

	default:
		log.Debugf("Dropping unexpected %s packet", pt)
	}
}

func (c *Client) dispatchRsp(body []byte) {
	c.mtx.Lock()
	w := c.waiter
	if w != nil && len(body) > 0 && sergap.Opcode(body[0]) == w.op {
		c.waiter = nil
	} else {
		w = nil
	}
	c.mtx.Unlock()

	if w == nil {
		log.Debugf("Dropping unsolicited response:\n%s", hex.Dump(body))
		return
	}

	w.rspChan <- body
}

func (c *Client) dispatchEvt(body []byte) {
	connHandle, ev, err := sergap.DecodeEvt(body)
	if err != nil {
		log.Warnf("Failed to decode event: %s\n%s", err.Error(),
			hex.Dump(body))
		return
	}

	switch e := ev.(type) {
	case *sergap.AuthStatusEvt:
		c.fillKeyset(connHandle, e)
	case *sergap.DisconnectedEvt:
		c.mtx.Lock()
		delete(c.keysets, connHandle)
		c.mtx.Unlock()
	}

	c.lm.Dispatch(connHandle, ev)
}

// Copies the keys the procedure distributed into the storage registered by
// SecParamsReply.  The registration ends with the procedure.
func (c *Client) fillKeyset(connHandle uint16, ev *sergap.AuthStatusEvt) {
	c.mtx.Lock()
	dst := c.keysets[connHandle]
	delete(c.keysets, connHandle)
	c.mtx.Unlock()

	if dst != nil && ev.Keyset != nil {
		dst.Fill(ev.Keyset)
	}
}

func (c *Client) registerKeyset(connHandle uint16, ks *BleSecKeyset) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if ks == nil {
		delete(c.keysets, connHandle)
	} else {
		c.keysets[connHandle] = ks
	}
}

func (c *Client) setWaiter(op sergap.Opcode) (*rspWaiter, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if !c.started || c.stopping {
		return nil, serxutil.NewXportError("client not started")
	}

	c.waiter = &rspWaiter{
		op:      op,
		rspChan: make(chan []byte, 1),
		errChan: make(chan error, 1),
	}

	return c.waiter, nil
}

func (c *Client) clearWaiter(w *rspWaiter) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.waiter == w {
		c.waiter = nil
	}
}

// Sends a command and waits for its response.  On success the result fields
// are decoded into rsp, which may be nil for operations without results.  A
// non-success status is returned as a *serxutil.StackError.
func (c *Client) Do(req sergap.Req, rsp sergap.Rsp) error {
	if err := c.gate.Acquire(req); err != nil {
		return err
	}
	defer c.gate.Release()

	op := req.Opcode()

	buf := make([]byte, c.cfg.Mtu)
	n, err := sergap.EncodeReq(req, buf)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", op)
	}

	w, err := c.setWaiter(op)
	if err != nil {
		return err
	}
	defer c.clearWaiter(w)

	log.Debugf("Tx %s:\n%s", op, hex.Dump(buf[:n]))

	if err := c.xport.Tx(serxport.Wrap(serxport.PKT_TYPE_CMD,
		buf[:n])); err != nil {

		return errors.Wrapf(err, "failed to send %s", op)
	}

	timer := time.NewTimer(c.cfg.RspTimeout)
	defer timer.Stop()

	select {
	case data := <-w.rspChan:
		status, _, err := sergap.DecodeRsp(data, op, rsp)
		if err != nil {
			return errors.Wrapf(err, "failed to decode %s response", op)
		}
		if status != serxutil.NRF_SUCCESS {
			return serxutil.FmtStackError(status, "%s failed: %s",
				op, serxutil.StatusToString(status))
		}
		return nil

	case err := <-w.errChan:
		return err

	case <-timer.C:
		return serxutil.FmtRspTimeoutError(
			"%s timeout; no response after %s", op, c.cfg.RspTimeout)
	}
}

func missingResult(op sergap.Opcode) error {
	return serxutil.FmtInvalidParamError("%s response lacks its result", op)
}
