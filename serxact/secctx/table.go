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

// Package secctx holds per-connection key storage for security procedures
// that span a request and a later event.  A keyset passed to the native stack
// in a security parameters reply is filled in asynchronously; the slot keeps
// that memory alive until the authentication status for the connection has
// been reported.
package secctx

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	. "mynewt.apache.org/bleser/serxact/bledefs"
	"mynewt.apache.org/bleser/serxact/serxutil"
)

type slot struct {
	connHandle uint16
	active     bool
	gen        uint64
	created    time.Time
	keyset     *BleSecKeyset
}

type Table struct {
	slots []slot
	gen   uint64
	now   func() time.Time
	mtx   sync.Mutex
}

func NewTable(max int) *Table {
	return &Table{
		slots: make([]slot, max),
		now:   time.Now,
	}
}

func (t *Table) Max() int {
	return len(t.slots)
}

func (t *Table) checkIdx(idx int) error {
	if idx < 0 || idx >= len(t.slots) {
		return serxutil.FmtInvalidParamError(
			"security context index %d out of range [0,%d)",
			idx, len(t.slots))
	}
	if !t.slots[idx].active {
		return serxutil.FmtInvalidParamError(
			"security context %d not allocated", idx)
	}

	return nil
}

func (t *Table) findIdx(connHandle uint16) int {
	if connHandle == BLE_CONN_HANDLE_INVALID {
		return -1
	}

	for i := range t.slots {
		s := &t.slots[i]
		if s.active && s.connHandle == connHandle {
			return i
		}
	}

	return -1
}

func (t *Table) release(idx int) {
	s := &t.slots[idx]
	log.Debugf("releasing security context %d (conn_handle=%d)",
		idx, s.connHandle)

	// Only the reference is dropped.  A stack still holding the old keyset
	// writes into memory no other slot will ever use.
	*s = slot{}
}

// Create allocates the first inactive slot.  The slot is not associated with
// a connection until Bind is called.
func (t *Table) Create() (int, error) {
	idx, _, _, err := t.create()
	return idx, err
}

func (t *Table) create() (int, uint64, *BleSecKeyset, error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	for i := range t.slots {
		s := &t.slots[i]
		if !s.active {
			t.gen++
			ks := NewBleSecKeysetStorage()
			*s = slot{
				connHandle: BLE_CONN_HANDLE_INVALID,
				active:     true,
				gen:        t.gen,
				created:    t.now(),
				keyset:     &ks,
			}
			log.Debugf("allocated security context %d", i)
			return i, s.gen, s.keyset, nil
		}
	}

	return -1, 0, nil, serxutil.NewNoMemoryError(
		"security context table full")
}

// Destroy releases the slot bound to connHandle.
func (t *Table) Destroy(connHandle uint16) error {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	idx := t.findIdx(connHandle)
	if idx < 0 {
		return serxutil.FmtNotFoundError(
			"no security context for conn_handle=%d", connHandle)
	}

	t.release(idx)
	return nil
}

// Release frees a slot by index, whether or not it was ever bound.
func (t *Table) Release(idx int) error {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if err := t.checkIdx(idx); err != nil {
		return err
	}

	t.release(idx)
	return nil
}

// Reports whether idx still holds the allocation identified by gen.  Caller
// holds the lock.
func (t *Table) live(idx int, gen uint64) bool {
	return t.checkIdx(idx) == nil && t.slots[idx].gen == gen
}

func (t *Table) Find(connHandle uint16) (int, error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	idx := t.findIdx(connHandle)
	if idx < 0 {
		return -1, serxutil.FmtNotFoundError(
			"no security context for conn_handle=%d", connHandle)
	}

	return idx, nil
}

// Bind associates an allocated slot with a connection.  A handle may be
// bound to at most one slot.
func (t *Table) Bind(idx int, connHandle uint16) error {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	return t.bind(idx, connHandle)
}

func (t *Table) bind(idx int, connHandle uint16) error {
	if err := t.checkIdx(idx); err != nil {
		return err
	}

	if connHandle == BLE_CONN_HANDLE_INVALID {
		return serxutil.NewInvalidParamError(
			"cannot bind security context to invalid conn handle")
	}

	other := t.findIdx(connHandle)
	if other >= 0 && other != idx {
		return serxutil.FmtInvalidParamError(
			"conn_handle=%d already bound to security context %d",
			connHandle, other)
	}

	t.slots[idx].connHandle = connHandle
	return nil
}

// Keyset returns the key storage held by an allocated slot.
func (t *Table) Keyset(idx int) (*BleSecKeyset, error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if err := t.checkIdx(idx); err != nil {
		return nil, err
	}

	return t.slots[idx].keyset, nil
}

func (t *Table) Active() int {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	n := 0
	for i := range t.slots {
		if t.slots[i].active {
			n++
		}
	}

	return n
}

// Settle runs fn with the keyset bound to connHandle (nil if there is none)
// while holding the table lock.  If fn succeeds the slot is released; if it
// fails the slot is left exactly as it was.  Returns whether a slot was
// released.
func (t *Table) Settle(connHandle uint16,
	fn func(ks *BleSecKeyset) error) (bool, error) {

	t.mtx.Lock()
	defer t.mtx.Unlock()

	idx := t.findIdx(connHandle)

	var ks *BleSecKeyset
	if idx >= 0 {
		ks = t.slots[idx].keyset
	}

	if err := fn(ks); err != nil {
		return false, err
	}

	if idx < 0 {
		return false, nil
	}

	t.release(idx)
	return true, nil
}

// Expire releases every slot allocated more than maxAge ago and returns the
// connection handles they were bound to.  Slots that were never bound are
// reported as BLE_CONN_HANDLE_INVALID.
func (t *Table) Expire(maxAge time.Duration) []uint16 {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	now := t.now()

	var handles []uint16
	for i := range t.slots {
		s := &t.slots[i]
		if s.active && now.Sub(s.created) > maxAge {
			log.Debugf("security context %d expired (conn_handle=%d age=%s)",
				i, s.connHandle, now.Sub(s.created))

			handles = append(handles, s.connHandle)
			t.release(i)
		}
	}

	return handles
}
