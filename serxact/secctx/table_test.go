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
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "mynewt.apache.org/bleser/serxact/bledefs"
	"mynewt.apache.org/bleser/serxact/serxutil"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestTable(max int) (*Table, *fakeClock) {
	c := &fakeClock{t: time.Unix(1000, 0)}
	t := NewTable(max)
	t.now = c.now
	return t, c
}

func TestExhaustion(t *testing.T) {
	tbl, _ := newTestTable(4)

	for i := 0; i < 4; i++ {
		idx, err := tbl.Create()
		require.NoError(t, err)
		assert.Equal(t, i, idx)
		require.NoError(t, tbl.Bind(idx, uint16(i+10)))
	}

	_, err := tbl.Create()
	require.Error(t, err)
	assert.True(t, serxutil.IsNoMemory(err))

	require.NoError(t, tbl.Destroy(12))

	idx, err := tbl.Create()
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	_, err = tbl.Create()
	assert.True(t, serxutil.IsNoMemory(err))
	assert.Equal(t, 4, tbl.Active())
}

func TestFindDestroy(t *testing.T) {
	tbl, _ := newTestTable(2)

	_, err := tbl.Find(1)
	assert.True(t, serxutil.IsNotFound(err))
	assert.True(t, serxutil.IsNotFound(tbl.Destroy(1)))

	idx, err := tbl.Create()
	require.NoError(t, err)

	// Unbound slots are never found.
	_, err = tbl.Find(BLE_CONN_HANDLE_INVALID)
	assert.True(t, serxutil.IsNotFound(err))

	require.NoError(t, tbl.Bind(idx, 1))
	found, err := tbl.Find(1)
	require.NoError(t, err)
	assert.Equal(t, idx, found)

	require.NoError(t, tbl.Destroy(1))
	_, err = tbl.Find(1)
	assert.True(t, serxutil.IsNotFound(err))
	assert.Equal(t, 0, tbl.Active())
}

func TestBindRules(t *testing.T) {
	tbl, _ := newTestTable(2)

	assert.True(t, serxutil.IsInvalidParam(tbl.Bind(0, 1)))
	assert.True(t, serxutil.IsInvalidParam(tbl.Bind(5, 1)))

	a, _ := tbl.Create()
	b, _ := tbl.Create()
	require.NoError(t, tbl.Bind(a, 1))
	require.NoError(t, tbl.Bind(a, 1))

	err := tbl.Bind(b, 1)
	require.Error(t, err)
	assert.True(t, serxutil.IsInvalidParam(err))

	assert.True(t, serxutil.IsInvalidParam(
		tbl.Bind(b, BLE_CONN_HANDLE_INVALID)))
}

func TestKeysetStorage(t *testing.T) {
	tbl, _ := newTestTable(1)

	_, err := tbl.Keyset(0)
	assert.True(t, serxutil.IsInvalidParam(err))

	idx, _ := tbl.Create()
	ks, err := tbl.Keyset(idx)
	require.NoError(t, err)
	require.NotNil(t, ks.KeysOwn.EncKey)
	require.NotNil(t, ks.KeysPeer.Pk)

	ks.KeysOwn.EncKey.MasterId.Ediv = 77
	held := ks.KeysOwn.EncKey

	require.NoError(t, tbl.Release(idx))

	// Storage handed out earlier is not scrubbed from under its holder.
	assert.Equal(t, uint16(77), held.MasterId.Ediv)

	idx, _ = tbl.Create()
	ks, _ = tbl.Keyset(idx)
	assert.Equal(t, uint16(0), ks.KeysOwn.EncKey.MasterId.Ediv)
}

func TestGuardReleaseOnFailure(t *testing.T) {
	tbl, _ := newTestTable(1)

	nativeCall := func(fail bool) error {
		g, err := tbl.Alloc()
		if err != nil {
			return err
		}
		defer g.Release()

		if err := g.Bind(3); err != nil {
			return err
		}
		if fail {
			return serxutil.NewStackError(serxutil.NRF_ERROR_BUSY, "busy")
		}

		g.Commit()
		return nil
	}

	for i := 0; i < 3; i++ {
		err := nativeCall(true)
		assert.True(t, serxutil.IsStack(err))
		assert.Equal(t, 0, tbl.Active())
	}

	require.NoError(t, nativeCall(false))
	assert.Equal(t, 1, tbl.Active())

	idx, err := tbl.Find(3)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestGuardReleaseIdempotent(t *testing.T) {
	tbl, _ := newTestTable(1)

	g, err := tbl.Alloc()
	require.NoError(t, err)
	require.NotNil(t, g.Keyset())

	g.Release()
	assert.Nil(t, g.Keyset())

	// The slot now belongs to someone else; a second release is a no-op.
	other, err := tbl.Alloc()
	require.NoError(t, err)
	assert.Equal(t, g.Index(), other.Index())

	g.Release()
	assert.Equal(t, 1, tbl.Active())
	other.Release()
	assert.Equal(t, 0, tbl.Active())
}

func TestGuardStaleAfterExpiry(t *testing.T) {
	tbl, clk := newTestTable(1)

	g, err := tbl.Alloc()
	require.NoError(t, err)

	clk.t = clk.t.Add(time.Minute)
	assert.Len(t, tbl.Expire(time.Second), 1)

	idx, err := tbl.Create()
	require.NoError(t, err)
	require.NoError(t, tbl.Bind(idx, 9))

	g.Release()
	_, err = tbl.Find(9)
	assert.NoError(t, err)
}

func TestExpiredStorageNotReused(t *testing.T) {
	tbl, clk := newTestTable(1)

	g, err := tbl.Alloc()
	require.NoError(t, err)
	require.NoError(t, g.Bind(5))
	old := g.Keyset()
	require.NotNil(t, old)
	g.Commit()
	g.Release()

	clk.t = clk.t.Add(time.Minute)
	assert.Equal(t, []uint16{5}, tbl.Expire(time.Second))

	idx, err := tbl.Create()
	require.NoError(t, err)
	ks, err := tbl.Keyset(idx)
	require.NoError(t, err)
	assert.True(t, ks != old)
	assert.True(t, ks.KeysOwn.EncKey != old.KeysOwn.EncKey)

	// A late write through the old pointer stays out of the new slot.
	old.KeysOwn.EncKey.EncInfo.LtkLen = 16
	assert.Equal(t, uint8(0), ks.KeysOwn.EncKey.EncInfo.LtkLen)
	assert.Equal(t, uint8(16), old.KeysOwn.EncKey.EncInfo.LtkLen)
}

func TestGuardCommitCopies(t *testing.T) {
	tbl, _ := newTestTable(1)

	g, err := tbl.Alloc()
	require.NoError(t, err)
	defer g.Release()
	require.NoError(t, g.Bind(2))

	ks := g.Keyset()
	ks.KeysPeer.IdKey.IdInfo.Irk = BleKey16{9}
	ks.KeysOwn.Pk = nil

	cp := g.Commit()
	require.NotNil(t, cp)
	assert.Equal(t, BleKey16{9}, cp.KeysPeer.IdKey.IdInfo.Irk)
	assert.Nil(t, cp.KeysOwn.Pk)
	assert.True(t, cp.KeysPeer.IdKey != ks.KeysPeer.IdKey)

	ks.KeysPeer.IdKey.IdInfo.Irk = BleKey16{}
	assert.Equal(t, BleKey16{9}, cp.KeysPeer.IdKey.IdInfo.Irk)
}

func TestGuardReplace(t *testing.T) {
	tbl, _ := newTestTable(2)

	idx, err := tbl.Create()
	require.NoError(t, err)
	require.NoError(t, tbl.Bind(idx, 7))

	// Released without a commit: the earlier slot gets its handle back.
	g, err := tbl.Alloc()
	require.NoError(t, err)
	require.NoError(t, g.Replace(7))

	found, err := tbl.Find(7)
	require.NoError(t, err)
	assert.Equal(t, g.Index(), found)

	g.Release()
	found, err = tbl.Find(7)
	require.NoError(t, err)
	assert.Equal(t, idx, found)
	assert.Equal(t, 1, tbl.Active())

	// Committed: the earlier slot is freed.
	g, err = tbl.Alloc()
	require.NoError(t, err)
	require.NoError(t, g.Replace(7))
	g.Commit()
	g.Release()

	found, err = tbl.Find(7)
	require.NoError(t, err)
	assert.Equal(t, g.Index(), found)
	assert.Equal(t, 1, tbl.Active())

	g, err = tbl.Alloc()
	require.NoError(t, err)
	err = g.Replace(BLE_CONN_HANDLE_INVALID)
	assert.True(t, serxutil.IsInvalidParam(err))
	g.Release()
	assert.Equal(t, 1, tbl.Active())
}

func TestSettle(t *testing.T) {
	tbl, _ := newTestTable(2)

	g, err := tbl.Alloc()
	require.NoError(t, err)
	require.NoError(t, g.Bind(4))
	g.Keyset().KeysOwn.EncKey.EncInfo.LtkLen = 16
	g.Commit()
	g.Release()

	// Failure leaves the slot untouched.
	released, err := tbl.Settle(4, func(ks *BleSecKeyset) error {
		require.NotNil(t, ks)
		assert.Equal(t, uint8(16), ks.KeysOwn.EncKey.EncInfo.LtkLen)
		return serxutil.NewInvalidLengthError("buffer full")
	})
	assert.False(t, released)
	assert.True(t, serxutil.IsInvalidLength(err))
	_, err = tbl.Find(4)
	require.NoError(t, err)

	released, err = tbl.Settle(4, func(ks *BleSecKeyset) error {
		require.NotNil(t, ks)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, released)
	_, err = tbl.Find(4)
	assert.True(t, serxutil.IsNotFound(err))

	// No slot: fn still runs, nothing released.
	called := false
	released, err = tbl.Settle(4, func(ks *BleSecKeyset) error {
		called = true
		assert.Nil(t, ks)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, released)
}

func TestExpire(t *testing.T) {
	tbl, clk := newTestTable(3)

	a, _ := tbl.Create()
	require.NoError(t, tbl.Bind(a, 1))
	_, _ = tbl.Create()

	clk.t = clk.t.Add(30 * time.Second)
	c, _ := tbl.Create()
	require.NoError(t, tbl.Bind(c, 3))

	assert.Empty(t, tbl.Expire(time.Minute))

	clk.t = clk.t.Add(31 * time.Second)
	expired := tbl.Expire(time.Minute)
	assert.ElementsMatch(t, []uint16{1, BLE_CONN_HANDLE_INVALID}, expired)
	assert.Equal(t, 1, tbl.Active())

	_, err := tbl.Find(3)
	assert.NoError(t, err)
}

func TestConcurrentAccess(t *testing.T) {
	tbl := NewTable(8)

	var wg sync.WaitGroup
	errs := make(chan error, 64)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(h uint16) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				g, err := tbl.Alloc()
				if err != nil {
					errs <- err
					return
				}
				if err := g.Bind(h); err != nil {
					errs <- errors.Wrapf(err, "bind %d", h)
					g.Release()
					return
				}
				g.Commit()
				g.Release()

				if err := tbl.Destroy(h); err != nil {
					errs <- err
					return
				}
			}
		}(uint16(i))
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Equal(t, 0, tbl.Active())
}
