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
	"sync"
	"time"

	"mynewt.apache.org/bleser/serxact/serxutil"
)

// PipeXport is one end of an in-process transport.  Packets are delivered
// whole and in order to the other end.
type PipeXport struct {
	rx          <-chan []byte
	tx          chan<- []byte
	stopped     chan struct{}
	peerStopped chan struct{}
	stopOnce    sync.Once

	Mtu         int
	ReadTimeout time.Duration
}

func NewPipe(depth int) (*PipeXport, *PipeXport) {
	ab := make(chan []byte, depth)
	ba := make(chan []byte, depth)
	aStop := make(chan struct{})
	bStop := make(chan struct{})

	a := &PipeXport{
		rx:          ba,
		tx:          ab,
		stopped:     aStop,
		peerStopped: bStop,
	}
	b := &PipeXport{
		rx:          ab,
		tx:          ba,
		stopped:     bStop,
		peerStopped: aStop,
	}

	return a, b
}

func (px *PipeXport) Start() error {
	return nil
}

func (px *PipeXport) Stop() error {
	px.stopOnce.Do(func() { close(px.stopped) })
	return nil
}

func (px *PipeXport) Tx(data []byte) error {
	if px.Mtu > 0 && len(data) > px.Mtu {
		return serxutil.FmtXportError(
			"packet too large: len=%d mtu=%d", len(data), px.Mtu)
	}

	b := make([]byte, len(data))
	copy(b, data)

	select {
	case <-px.stopped:
		return serxutil.NewXportError("transport closed")
	case <-px.peerStopped:
		return serxutil.NewXportError("peer closed")
	default:
	}

	select {
	case px.tx <- b:
		return nil
	case <-px.stopped:
		return serxutil.NewXportError("transport closed")
	case <-px.peerStopped:
		return serxutil.NewXportError("peer closed")
	}
}

func (px *PipeXport) Rx() ([]byte, error) {
	// Drain what the peer sent before it went away.
	select {
	case b := <-px.rx:
		return b, nil
	default:
	}

	var timeoutChan <-chan time.Time
	if px.ReadTimeout > 0 {
		timer := time.NewTimer(px.ReadTimeout)
		defer serxutil.StopAndDrainTimer(timer)
		timeoutChan = timer.C
	}

	select {
	case b := <-px.rx:
		return b, nil
	case <-px.stopped:
		return nil, serxutil.NewXportError("transport closed")
	case <-px.peerStopped:
		return nil, serxutil.NewXportError("peer closed")
	case <-timeoutChan:
		return nil, ErrRxTimeout
	}
}
