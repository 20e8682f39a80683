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

package serxutil

import (
	"sync"
)

type gateWaiter struct {
	c     chan error
	token interface{}
}

// TxGate admits one holder at a time.  Additional callers queue in FIFO
// order until the holder releases the gate or the gate is aborted.
type TxGate struct {
	held    bool
	waiters []gateWaiter
	mtx     sync.Mutex
}

func (g *TxGate) Acquire(token interface{}) error {
	g.mtx.Lock()

	if !g.held {
		g.held = true
		g.mtx.Unlock()
		return nil
	}

	w := gateWaiter{
		c:     make(chan error, 1),
		token: token,
	}
	g.waiters = append(g.waiters, w)

	g.mtx.Unlock()

	return <-w.c
}

// @return                      true if a queued waiter now holds the gate;
//                              false if the gate is now free.
func (g *TxGate) Release() bool {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	if !g.held {
		panic("TxGate release without acquire")
	}

	if len(g.waiters) == 0 {
		g.held = false
		return false
	}

	w := g.waiters[0]
	g.waiters = g.waiters[1:]
	w.c <- nil

	return true
}

// Fails every queued waiter with the supplied error.  The current holder is
// unaffected.
func (g *TxGate) Abort(err error) {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	for _, w := range g.waiters {
		w.c <- err
	}
	g.waiters = nil
}

func (g *TxGate) Held() bool {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	return g.held
}
