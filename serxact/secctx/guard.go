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

package secctx

import (
	. "mynewt.apache.org/bleser/serxact/bledefs"
	"mynewt.apache.org/bleser/serxact/serxutil"
)

// Guard owns a freshly allocated slot until it is committed.  Release frees
// the slot unless Commit was called first, so a deferred Release covers
// every early return between allocation and a successful native call.
type Guard struct {
	t         *Table
	idx       int
	gen       uint64
	ks        *BleSecKeyset
	committed bool
	done      bool

	// Slot detached by Replace; freed on Commit, rebound on Release.
	prev       int
	prevGen    uint64
	prevHandle uint16
	hasPrev    bool
}

func (t *Table) Alloc() (*Guard, error) {
	idx, gen, ks, err := t.create()
	if err != nil {
		return nil, err
	}

	return &Guard{
		t:   t,
		idx: idx,
		gen: gen,
		ks:  ks,
	}, nil
}

func (g *Guard) Index() int {
	return g.idx
}

// Keyset returns the guarded storage, or nil once the allocation is gone.
func (g *Guard) Keyset() *BleSecKeyset {
	g.t.mtx.Lock()
	defer g.t.mtx.Unlock()

	if !g.t.live(g.idx, g.gen) {
		return nil
	}

	return g.ks
}

// Caller holds the table lock.
func (g *Guard) checkLive() error {
	if !g.t.live(g.idx, g.gen) {
		return serxutil.FmtInvalidParamError(
			"security context %d no longer held", g.idx)
	}
	return nil
}

func (g *Guard) Bind(connHandle uint16) error {
	g.t.mtx.Lock()
	defer g.t.mtx.Unlock()

	if err := g.checkLive(); err != nil {
		return err
	}
	return g.t.bind(g.idx, connHandle)
}

// Replace binds the slot to connHandle, detaching any slot already bound to
// it.  The detached slot stays allocated until the guard is settled.
func (g *Guard) Replace(connHandle uint16) error {
	t := g.t
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if err := g.checkLive(); err != nil {
		return err
	}
	if connHandle == BLE_CONN_HANDLE_INVALID {
		return serxutil.NewInvalidParamError(
			"cannot bind security context to invalid conn handle")
	}

	other := t.findIdx(connHandle)
	if other >= 0 && other != g.idx {
		t.slots[other].connHandle = BLE_CONN_HANDLE_INVALID
		g.prev = other
		g.prevGen = t.slots[other].gen
		g.prevHandle = connHandle
		g.hasPrev = true
	}

	t.slots[g.idx].connHandle = connHandle
	return nil
}

// Commit hands the slot over to the table.  It is then released by
// Destroy, Settle or Expire.  A slot detached by Replace is freed.  Returns
// a deep copy of the key storage taken under the table lock.
func (g *Guard) Commit() *BleSecKeyset {
	t := g.t
	t.mtx.Lock()
	defer t.mtx.Unlock()

	g.committed = true
	if g.hasPrev && t.live(g.prev, g.prevGen) {
		t.release(g.prev)
	}
	g.hasPrev = false

	return g.ks.Clone()
}

func (g *Guard) Release() {
	if g.done {
		return
	}
	g.done = true

	if g.committed {
		return
	}

	t := g.t
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if t.live(g.idx, g.gen) {
		t.release(g.idx)
	}

	if g.hasPrev && t.live(g.prev, g.prevGen) &&
		t.findIdx(g.prevHandle) < 0 {

		t.slots[g.prev].connHandle = g.prevHandle
	}
	g.hasPrev = false
}
