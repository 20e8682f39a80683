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

package bledefs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBleAddrString(t *testing.T) {
	ba, err := ParseBleAddr("C0:01:02:03:04:05")
	require.NoError(t, err)

	assert.Equal(t, [6]byte{0x05, 0x04, 0x03, 0x02, 0x01, 0xc0}, ba.Bytes)
	assert.Equal(t, "c0:01:02:03:04:05", ba.String())

	_, err = ParseBleAddr("c0:01:02")
	assert.Error(t, err)
	_, err = ParseBleAddr("zz:01:02:03:04:05")
	assert.Error(t, err)
}

func TestParseBleDev(t *testing.T) {
	bd, err := ParseBleDev("random_static,c0:01:02:03:04:05")
	require.NoError(t, err)
	assert.Equal(t, BLE_ADDR_TYPE_RANDOM_STATIC, bd.AddrType)
	assert.Equal(t, "random_static,c0:01:02:03:04:05", bd.String())

	bd, err = ParseBleDev("00:01:02:03:04:05")
	require.NoError(t, err)
	assert.Equal(t, BLE_ADDR_TYPE_PUBLIC, bd.AddrType)

	_, err = ParseBleDev("bogus,00:01:02:03:04:05")
	assert.Error(t, err)
}

func TestBleDevJSON(t *testing.T) {
	bd := BleDev{
		AddrType: BLE_ADDR_TYPE_RANDOM_PRIV_RES,
		Addr:     BleAddr{[6]byte{1, 2, 3, 4, 5, 6}},
	}

	b, err := json.Marshal(&bd)
	require.NoError(t, err)
	assert.JSONEq(t, `{"addr_type":"rpa","addr":"06:05:04:03:02:01"}`,
		string(b))

	var out BleDev
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, bd, out)
}

func TestBleAuthKeyLen(t *testing.T) {
	tests := []struct {
		kt  BleAuthKeyType
		len int
		ok  bool
	}{
		{BLE_GAP_AUTH_KEY_TYPE_NONE, 0, true},
		{BLE_GAP_AUTH_KEY_TYPE_PASSKEY, 6, true},
		{BLE_GAP_AUTH_KEY_TYPE_OOB, 16, true},
		{BleAuthKeyType(3), 0, false},
	}

	for _, tt := range tests {
		l, ok := BleAuthKeyLen(tt.kt)
		assert.Equal(t, tt.len, l)
		assert.Equal(t, tt.ok, ok)
	}
}

func TestBleKey16(t *testing.T) {
	k, err := ParseBleKey16("000102030405060708090a0b0c0d0e0f")
	require.NoError(t, err)
	assert.Equal(t, byte(0x0f), k[15])
	assert.Equal(t, "000102030405060708090a0b0c0d0e0f", k.String())

	_, err = ParseBleKey16("0001")
	assert.Error(t, err)
}

func TestKeysetStorage(t *testing.T) {
	ks := NewBleSecKeysetStorage()
	assert.NotNil(t, ks.KeysOwn.EncKey)
	assert.NotNil(t, ks.KeysPeer.Pk)
	assert.False(t, ks.KeysOwn.IdKey == ks.KeysPeer.IdKey)
}
