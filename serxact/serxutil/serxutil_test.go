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
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNrfCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code uint32
	}{
		{"nil", nil, NRF_SUCCESS},
		{"null", NewNullArgumentError("x"), NRF_ERROR_NULL},
		{"length", NewInvalidLengthError("x"), NRF_ERROR_INVALID_LENGTH},
		{"param", NewInvalidParamError("x"), NRF_ERROR_INVALID_PARAM},
		{"nomem", NewNoMemoryError("x"), NRF_ERROR_NO_MEM},
		{"notfound", NewNotFoundError("x"), NRF_ERROR_NOT_FOUND},
		{"stack", NewStackError(0x3401, "x"), 0x3401},
		{"timeout", NewRspTimeoutError("x"), NRF_ERROR_TIMEOUT},
		{"other", errors.New("x"), NRF_ERROR_INTERNAL},
		{"wrapped", errors.Wrap(NewInvalidParamError("x"), "ctx"),
			NRF_ERROR_INVALID_PARAM},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, NrfCode(tt.err))
		})
	}
}

func TestIsHelpersSeeThroughWrap(t *testing.T) {
	err := errors.Wrapf(NewStackError(NRF_ERROR_BUSY, "busy"), "op %d", 3)

	assert.True(t, IsStack(err))
	assert.False(t, IsInvalidLength(err))
	require.NotNil(t, ToStack(err))
	assert.Equal(t, NRF_ERROR_BUSY, ToStack(err).Status)
	assert.Nil(t, ToStack(errors.New("plain")))
	assert.False(t, IsXport(nil))
}

func TestStatusToString(t *testing.T) {
	assert.Equal(t, "invalid length", StatusToString(NRF_ERROR_INVALID_LENGTH))
	assert.Equal(t, "unknown status 0x00003401", StatusToString(0x3401))
}

func TestTxGateFifo(t *testing.T) {
	var g TxGate

	require.NoError(t, g.Acquire(0))
	assert.True(t, g.Held())

	order := make(chan int, 2)
	for i := 1; i <= 2; i++ {
		i := i
		go func() {
			if err := g.Acquire(i); err == nil {
				order <- i
				g.Release()
			}
		}()
		// Let the goroutine queue before starting the next one.
		require.Eventually(t, func() bool {
			g.mtx.Lock()
			defer g.mtx.Unlock()
			return len(g.waiters) == i
		}, time.Second, time.Millisecond)
	}

	assert.True(t, g.Release())
	assert.Equal(t, 1, <-order)
	assert.Equal(t, 2, <-order)

	require.Eventually(t, func() bool { return !g.Held() },
		time.Second, time.Millisecond)
}

func TestTxGateAbort(t *testing.T) {
	var g TxGate
	require.NoError(t, g.Acquire(nil))

	errCh := make(chan error, 1)
	go func() {
		errCh <- g.Acquire("waiter")
	}()

	require.Eventually(t, func() bool {
		g.mtx.Lock()
		defer g.mtx.Unlock()
		return len(g.waiters) == 1
	}, time.Second, time.Millisecond)

	g.Abort(NewXportError("closed"))
	assert.True(t, IsXport(<-errCh))
	assert.True(t, g.Held())
}
