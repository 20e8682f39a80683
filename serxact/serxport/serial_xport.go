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

package serxport

import (
	"bufio"
	"encoding/hex"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tarm/serial"

	"mynewt.apache.org/bleser/serxact/serxutil"
)

type XportCfg struct {
	DevPath     string
	Baud        int
	Mtu         int
	ReadTimeout time.Duration

	// Pause between the lines of a multi-line frame.  Slower peers have
	// very small receive buffers.
	ChunkDelay time.Duration
}

func NewXportCfg() *XportCfg {
	return &XportCfg{
		Baud:        115200,
		Mtu:         512,
		ReadTimeout: 10 * time.Second,
		ChunkDelay:  20 * time.Millisecond,
	}
}

type SerialXport struct {
	cfg     *XportCfg
	port    io.ReadWriteCloser
	scanner *bufio.Scanner
	df      Deframer

	// A serial port reports a read timeout as end of stream; any other
	// stream is finished at EOF.
	eofIsTimeout bool

	txMtx   sync.Mutex
	mtx     sync.Mutex
	closing bool
}

func NewSerialXport(cfg *XportCfg) *SerialXport {
	return &SerialXport{
		cfg:          cfg,
		eofIsTimeout: true,
	}
}

// NewStreamXport frames packets over an already open byte stream, such as a
// pty or a socket.
func NewStreamXport(cfg *XportCfg, rwc io.ReadWriteCloser) *SerialXport {
	return &SerialXport{
		cfg:  cfg,
		port: rwc,
	}
}

func (sx *SerialXport) Start() error {
	if sx.port == nil {
		c := &serial.Config{
			Name:        sx.cfg.DevPath,
			Baud:        sx.cfg.Baud,
			ReadTimeout: sx.cfg.ReadTimeout,
		}

		port, err := serial.OpenPort(c)
		if err != nil {
			return errors.Wrapf(err, "failed to open %s", sx.cfg.DevPath)
		}

		if err := port.Flush(); err != nil {
			port.Close()
			return errors.Wrapf(err, "failed to flush %s", sx.cfg.DevPath)
		}

		sx.port = port
	}

	sx.df = Deframer{MaxLen: sx.cfg.Mtu}

	// Most of the reading will be done line by line.
	sx.scanner = bufio.NewScanner(sx.port)

	return nil
}

func (sx *SerialXport) isClosing() bool {
	sx.mtx.Lock()
	defer sx.mtx.Unlock()

	return sx.closing
}

func (sx *SerialXport) Stop() error {
	sx.mtx.Lock()
	sx.closing = true
	sx.mtx.Unlock()

	if sx.port == nil {
		return nil
	}

	return sx.port.Close()
}

func (sx *SerialXport) txRaw(b []byte) error {
	log.Debugf("Tx serial\n%s", hex.Dump(b))

	if _, err := sx.port.Write(b); err != nil {
		return serxutil.FmtXportError("write failed: %s", err.Error())
	}

	return nil
}

func (sx *SerialXport) Tx(data []byte) error {
	if sx.cfg.Mtu > 0 && len(data) > sx.cfg.Mtu {
		return serxutil.FmtXportError(
			"packet too large: len=%d mtu=%d", len(data), sx.cfg.Mtu)
	}
	if sx.isClosing() {
		return serxutil.NewXportError("transport closed")
	}

	log.Debugf("Base64 encoding request:\n%s", hex.Dump(data))

	sx.txMtx.Lock()
	defer sx.txMtx.Unlock()

	for i, line := range EncodeFrame(data) {
		if i > 0 && sx.cfg.ChunkDelay > 0 {
			time.Sleep(sx.cfg.ChunkDelay)
		}
		if err := sx.txRaw(line); err != nil {
			return err
		}
	}

	return nil
}

// Blocking receive.
func (sx *SerialXport) Rx() ([]byte, error) {
	for sx.scanner.Scan() {
		line := sx.scanner.Bytes()
		log.Debugf("Rx serial:\n%s", hex.Dump(line))

		b, err := sx.df.AddLine(line)
		if err != nil {
			return nil, err
		}
		if b != nil {
			return b, nil
		}
	}

	if sx.isClosing() {
		return nil, serxutil.NewXportError("transport closed")
	}

	err := sx.scanner.Err()
	if err != nil {
		return nil, serxutil.FmtXportError("read failed: %s", err.Error())
	}

	if !sx.eofIsTimeout {
		return nil, serxutil.NewXportError("end of stream")
	}

	// Scanner hit EOF, so we'll need to create a new one.  This only
	// happens on timeouts.
	sx.scanner = bufio.NewScanner(sx.port)
	return nil, ErrRxTimeout
}
