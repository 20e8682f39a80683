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

// Package connsvr implements the connectivity side of the GAP serialization
// link: it decodes commands, calls into the native stack and encodes the
// responses and events that go back to the application.
package connsvr

import (
	"encoding/hex"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	. "mynewt.apache.org/bleser/serxact/bledefs"
	"mynewt.apache.org/bleser/serxact/secctx"
	"mynewt.apache.org/bleser/serxact/sergap"
	"mynewt.apache.org/bleser/serxact/serxport"
	"mynewt.apache.org/bleser/serxact/serxutil"
)

type Cfg struct {
	// Number of simultaneous security procedures.
	MaxConns int

	// A security context whose authentication status never arrives is
	// reclaimed after this long.  0 disables expiry.
	SecCtxTtl time.Duration

	Mtu int
}

func NewCfg() Cfg {
	return Cfg{
		MaxConns:  8,
		SecCtxTtl: 60 * time.Second,
		Mtu:       512,
	}
}

type Server struct {
	cfg    Cfg
	stack  Stack
	secCtx *secctx.Table

	// Serializes command processing.
	mtx sync.Mutex

	xport serxport.Xport
	txMtx sync.Mutex
}

func NewServer(cfg Cfg, stack Stack) *Server {
	return &Server{
		cfg:    cfg,
		stack:  stack,
		secCtx: secctx.NewTable(cfg.MaxConns),
	}
}

func (s *Server) SecCtx() *secctx.Table {
	return s.secCtx
}

// ReapSecCtx releases security contexts older than the configured TTL.
func (s *Server) ReapSecCtx() []uint16 {
	if s.cfg.SecCtxTtl <= 0 {
		return nil
	}

	handles := s.secCtx.Expire(s.cfg.SecCtxTtl)
	for _, h := range handles {
		log.Warnf("Security context for conn_handle=%d expired", h)
	}

	return handles
}

func encodeStatusRsp(op sergap.Opcode, status uint32, buf []byte) (int, error) {
	return sergap.EncodeRsp(op, status, nil, buf)
}

// Process handles one command packet and writes the response packet into
// rspBuf.  A command that cannot be decoded is answered with the matching
// error code; an error is returned only if no response can be produced.
func (s *Server) Process(cmd []byte, rspBuf []byte) (int, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.ReapSecCtx()

	op, err := sergap.PeekOpcode(cmd)
	if err != nil {
		return 0, err
	}

	req, err := sergap.NewReq(op)
	if err != nil {
		log.Warnf("Unsupported opcode 0x%02x", uint8(op))
		return encodeStatusRsp(op, serxutil.NRF_ERROR_NOT_SUPPORTED, rspBuf)
	}

	if err := sergap.DecodeReq(cmd, req); err != nil {
		log.Warnf("Malformed %s command: %s\n%s", op, err.Error(),
			hex.Dump(cmd))
		return encodeStatusRsp(op, serxutil.NrfCode(err), rspBuf)
	}

	log.Debugf("Dispatching %s: %+v", op, req)

	status, rsp := handlerMap[op](s, req)

	n, err := sergap.EncodeRsp(op, status, rsp, rspBuf)
	if err != nil {
		log.Errorf("Failed to encode %s response: %s", op, err.Error())
		return encodeStatusRsp(op, serxutil.NrfCode(err), rspBuf)
	}

	log.Debugf("%s status=%s", op, serxutil.StatusToString(status))
	return n, nil
}

// EncodeEvt writes an event packet.  Authentication status and disconnect
// events end the connection's security procedure: the bound security
// context is released once the event has been encoded in full, and left in
// place if encoding fails.
func (s *Server) EncodeEvt(connHandle uint16, ev sergap.Evt,
	buf []byte) (int, error) {

	switch e := ev.(type) {
	case *sergap.AuthStatusEvt:
		var n int
		_, err := s.secCtx.Settle(connHandle, func(ks *BleSecKeyset) error {
			out := *e
			out.Keyset = nil
			if e.Bonded && ks != nil {
				out.Keyset = ks.Clone()
			}

			var err error
			n, err = sergap.EncodeEvt(connHandle, &out, buf)
			return err
		})
		return n, err

	case *sergap.DisconnectedEvt:
		var n int
		_, err := s.secCtx.Settle(connHandle, func(ks *BleSecKeyset) error {
			var err error
			n, err = sergap.EncodeEvt(connHandle, e, buf)
			return err
		})
		return n, err

	default:
		return sergap.EncodeEvt(connHandle, ev, buf)
	}
}

func (s *Server) tx(pt serxport.PktType, body []byte) error {
	s.txMtx.Lock()
	defer s.txMtx.Unlock()

	if s.xport == nil {
		return serxutil.NewXportError("server not attached to a transport")
	}

	return s.xport.Tx(serxport.Wrap(pt, body))
}

// Notify encodes an event and sends it to the application.
func (s *Server) Notify(connHandle uint16, ev sergap.Evt) error {
	buf := make([]byte, s.cfg.Mtu)
	n, err := s.EncodeEvt(connHandle, ev, buf)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s event", ev.EvtId())
	}

	log.Debugf("Tx event %s conn_handle=%d", ev.EvtId(), connHandle)
	return s.tx(serxport.PKT_TYPE_EVT, buf[:n])
}

// Serve answers commands arriving on xp until the transport fails or is
// stopped.
func (s *Server) Serve(xp serxport.Xport) error {
	s.txMtx.Lock()
	s.xport = xp
	s.txMtx.Unlock()

	rspBuf := make([]byte, s.cfg.Mtu)

	for {
		pkt, err := xp.Rx()
		if err != nil {
			if serxport.IsRxTimeout(err) {
				s.ReapSecCtx()
				continue
			}
			return err
		}

		pt, body, err := serxport.Unwrap(pkt)
		if err != nil {
			log.Warnf("Dropping packet: %s", err.Error())
			continue
		}
		if pt != serxport.PKT_TYPE_CMD {
			log.Warnf("Dropping unexpected %s packet", pt)
			continue
		}

		n, err := s.Process(body, rspBuf)
		if err != nil {
			log.Warnf("Dropping command: %s", err.Error())
			continue
		}

		if err := s.tx(serxport.PKT_TYPE_RSP, rspBuf[:n]); err != nil {
			return err
		}
	}
}
