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

package sergap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "mynewt.apache.org/bleser/serxact/bledefs"
	"mynewt.apache.org/bleser/serxact/sercodec"
	"mynewt.apache.org/bleser/serxact/serxutil"
)

func testDev(t BleAddrType, seed byte) *BleDev {
	bd := &BleDev{AddrType: t}
	for i := range bd.Addr.Bytes {
		bd.Addr.Bytes[i] = seed + byte(i)
	}
	return bd
}

func testKey16(seed byte) BleKey16 {
	var k BleKey16
	for i := range k {
		k[i] = seed + byte(i)
	}
	return k
}

func testKeyset() *BleSecKeyset {
	ks := &BleSecKeyset{
		KeysOwn: BleSecKeys{
			EncKey: &BleEncKey{
				EncInfo: BleEncInfo{
					Ltk:    testKey16(0x10),
					Lesc:   true,
					Auth:   true,
					LtkLen: 16,
				},
				MasterId: BleMasterId{
					Ediv: 0x1234,
					Rand: [8]byte{1, 2, 3, 4, 5, 6, 7, 8},
				},
			},
			IdKey: &BleIdKey{
				IdInfo:     BleIrk{Irk: testKey16(0x20)},
				IdAddrInfo: *testDev(BLE_ADDR_TYPE_PUBLIC, 0x30),
			},
		},
		KeysPeer: BleSecKeys{
			SignKey: &BleSignInfo{Csrk: testKey16(0x40)},
			Pk:      &BleLescP256Pk{},
		},
	}
	for i := range ks.KeysPeer.Pk.Pk {
		ks.KeysPeer.Pk.Pk[i] = byte(i)
	}

	return ks
}

func testWhitelist() *BleWhitelist {
	return &BleWhitelist{
		Addrs: []*BleDev{
			testDev(BLE_ADDR_TYPE_PUBLIC, 0x01),
			nil,
			testDev(BLE_ADDR_TYPE_RANDOM_STATIC, 0xc0),
		},
		Irks: []*BleIrk{
			{Irk: testKey16(0x50)},
		},
	}
}

func testConnParams() *BleConnParams {
	return &BleConnParams{
		MinConnItvl:    6,
		MaxConnItvl:    40,
		SlaveLatency:   0,
		ConnSupTimeout: 400,
	}
}

func testSecParams() *BleSecParams {
	return &BleSecParams{
		Bond:       true,
		Mitm:       true,
		Lesc:       true,
		IoCaps:     BLE_GAP_IO_CAPS_KEYBOARD_DISPLAY,
		MinKeySize: 7,
		MaxKeySize: 16,
		KdistOwn:   BleSecKdist{Enc: true, Id: true},
		KdistPeer:  BleSecKdist{Enc: true, Sign: true, Link: true},
	}
}

func u16p(v uint16) *uint16 { return &v }
func i8p(v int8) *int8      { return &v }

func testReqs() []Req {
	return []Req{
		&AddrSetReq{CycleMode: BLE_GAP_ADDR_CYCLE_MODE_AUTO,
			Addr: testDev(BLE_ADDR_TYPE_RANDOM_STATIC, 0xc0)},
		&AddrSetReq{},
		&AddrGetReq{WantAddr: true},
		&AddrGetReq{},
		&AdvDataSetReq{Data: []byte{0x02, 0x01, 0x06},
			SrData: []byte{0x03, 0x09, 'a', 'b'}},
		&AdvDataSetReq{Data: []byte{}},
		&AdvDataSetReq{},
		&AdvStartReq{Params: &BleAdvParams{
			Type:      BLE_GAP_ADV_TYPE_ADV_DIRECT_IND,
			PeerAddr:  testDev(BLE_ADDR_TYPE_PUBLIC, 0x11),
			Fp:        BLE_GAP_ADV_FP_FILTER_BOTH,
			Whitelist: testWhitelist(),
			Interval:  0x0800,
			Timeout:   180,
			ChMask:    BleAdvChMask{Ch38Off: true},
		}},
		&AdvStartReq{Params: &BleAdvParams{}},
		&AdvStartReq{},
		&AdvStopReq{},
		&ConnParamUpdateReq{ConnHandle: 3, Params: testConnParams()},
		&ConnParamUpdateReq{ConnHandle: 3},
		&DisconnectReq{ConnHandle: 1,
			HciStatus: BLE_HCI_REMOTE_USER_TERMINATED_CONNECTION},
		&TxPowerSetReq{TxPower: -20},
		&AppearanceSetReq{Appearance: 0x0340},
		&AppearanceGetReq{WantAppearance: true},
		&PpcpSetReq{Params: testConnParams()},
		&PpcpSetReq{},
		&PpcpGetReq{WantParams: true},
		&DevNameSetReq{WritePerm: &BleConnSecMode{Sm: 1, Lv: 2},
			Name: []byte("bleser")},
		&DevNameSetReq{},
		&DevNameGetReq{Len: u16p(32), WantName: true},
		&DevNameGetReq{Len: u16p(32)},
		&DevNameGetReq{},
		&AuthenticateReq{ConnHandle: 0, Params: testSecParams()},
		&AuthenticateReq{ConnHandle: 0},
		&SecParamsReplyReq{ConnHandle: 2,
			SecStatus: BLE_GAP_SEC_STATUS_SUCCESS,
			Params:    testSecParams(), Keyset: testKeyset()},
		&SecParamsReplyReq{ConnHandle: 2,
			SecStatus: BLE_GAP_SEC_STATUS_PAIRING_NOT_SUPP},
		&SecParamsReplyReq{ConnHandle: 2, Keyset: &BleSecKeyset{}},
		&AuthKeyReplyReq{ConnHandle: 5,
			KeyType: BLE_GAP_AUTH_KEY_TYPE_PASSKEY, Key: []byte("123456")},
		&AuthKeyReplyReq{ConnHandle: 5,
			KeyType: BLE_GAP_AUTH_KEY_TYPE_OOB, Key: make([]byte, 16)},
		&AuthKeyReplyReq{ConnHandle: 5,
			KeyType: BLE_GAP_AUTH_KEY_TYPE_NONE},
		&LescDhkeyReplyReq{ConnHandle: 1, Dhkey: &BleLescDhkey{
			Key: [32]byte{0: 0xaa, 31: 0xbb}}},
		&LescDhkeyReplyReq{ConnHandle: 1},
		&KeypressNotifyReq{ConnHandle: 1, KpNot: 3},
		&EncryptReq{ConnHandle: 4,
			MasterId: &testKeyset().KeysOwn.EncKey.MasterId,
			EncInfo:  &testKeyset().KeysOwn.EncKey.EncInfo},
		&EncryptReq{ConnHandle: 4},
		&SecInfoReplyReq{ConnHandle: 4,
			EncInfo:  &testKeyset().KeysOwn.EncKey.EncInfo,
			IdInfo:   &BleIrk{Irk: testKey16(0x60)},
			SignInfo: &BleSignInfo{Csrk: testKey16(0x70)}},
		&SecInfoReplyReq{ConnHandle: 4},
		&ConnSecGetReq{ConnHandle: 4, WantConnSec: true},
		&RssiStartReq{ConnHandle: 4, ThresholdDbm: 5, SkipCount: 2},
		&RssiStopReq{ConnHandle: 4},
		&RssiGetReq{ConnHandle: 4, WantRssi: true},
		&ScanStartReq{Params: &BleScanParams{
			Active:    true,
			Selective: true,
			Whitelist: testWhitelist(),
			Interval:  0xa0,
			Window:    0x50,
			Timeout:   0,
		}},
		&ScanStartReq{Params: &BleScanParams{
			Whitelist: &BleWhitelist{Addrs: []*BleDev{}},
		}},
		&ScanStartReq{},
		&ScanStopReq{},
		&ConnectReq{
			PeerAddr:   testDev(BLE_ADDR_TYPE_RANDOM_PRIV_RES, 0x80),
			ScanParams: &BleScanParams{Active: true, Interval: 1, Window: 1},
			ConnParams: testConnParams(),
		},
		&ConnectReq{},
		&ConnectCancelReq{},
	}
}

func TestReqRoundTrip(t *testing.T) {
	for _, r := range testReqs() {
		r := r
		t.Run(r.Opcode().String(), func(t *testing.T) {
			buf := make([]byte, 512)
			n, err := EncodeReq(r, buf)
			require.NoError(t, err)

			out, err := NewReq(r.Opcode())
			require.NoError(t, err)
			require.NoError(t, DecodeReq(buf[:n], out))
			assert.Equal(t, r, out)
		})
	}
}

func TestEveryOpcodeCovered(t *testing.T) {
	seen := map[Opcode]bool{}
	for _, r := range testReqs() {
		seen[r.Opcode()] = true
	}

	for _, op := range Opcodes() {
		assert.True(t, seen[op], "no round-trip case for %s", op)
	}
	assert.Equal(t, 29, len(Opcodes()))
}

func TestOpcodeFromString(t *testing.T) {
	for _, op := range Opcodes() {
		got, err := OpcodeFromString(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}

	op, err := OpcodeFromString("0x96")
	require.NoError(t, err)
	assert.Equal(t, GAP_OP_SCAN_START, op)

	_, err = OpcodeFromString("0x8f")
	assert.Error(t, err)
	_, err = OpcodeFromString("bogus")
	assert.Error(t, err)
}

func TestReqShortBufferFails(t *testing.T) {
	for _, r := range testReqs() {
		r := r
		t.Run(r.Opcode().String(), func(t *testing.T) {
			full := make([]byte, 512)
			n, err := EncodeReq(r, full)
			require.NoError(t, err)

			for i := 0; i < n; i++ {
				backing := make([]byte, n)
				for j := range backing {
					backing[j] = 0xa5
				}

				_, err := EncodeReq(r, backing[:i])
				require.Error(t, err)
				assert.True(t, serxutil.IsInvalidLength(err))
				for j := i; j < n; j++ {
					assert.Equal(t, byte(0xa5), backing[j])
				}
			}
		})
	}
}

func TestReqExactConsumption(t *testing.T) {
	for _, r := range testReqs() {
		r := r
		t.Run(r.Opcode().String(), func(t *testing.T) {
			buf := make([]byte, 512)
			n, err := EncodeReq(r, buf)
			require.NoError(t, err)

			out, _ := NewReq(r.Opcode())
			err = DecodeReq(buf[:n+1], out)
			require.Error(t, err)
			assert.True(t, serxutil.IsInvalidLength(err))

			for i := 1; i < n; i++ {
				out, _ := NewReq(r.Opcode())
				assert.Error(t, DecodeReq(buf[:i], out))
			}
		})
	}
}

func TestReqOpcodeMismatch(t *testing.T) {
	buf := make([]byte, 16)
	n, err := EncodeReq(&RssiStopReq{ConnHandle: 1}, buf)
	require.NoError(t, err)

	// Same payload shape, different operation.
	err = DecodeReq(buf[:n], &DisconnectReq{})
	require.Error(t, err)
	assert.True(t, serxutil.IsInvalidParam(err))

	buf[0] = uint8(GAP_OP_ADV_STOP)
	err = DecodeReq(buf[:1], &ScanStopReq{})
	assert.True(t, serxutil.IsInvalidParam(err))
}

func TestReqNilArgs(t *testing.T) {
	_, err := EncodeReq(nil, make([]byte, 8))
	assert.True(t, serxutil.IsNullArgument(err))

	err = DecodeReq([]byte{uint8(GAP_OP_ADV_STOP)}, nil)
	assert.True(t, serxutil.IsNullArgument(err))
}

func TestReqWireBytes(t *testing.T) {
	buf := make([]byte, 32)

	n, err := EncodeReq(&AddrSetReq{
		CycleMode: 0,
		Addr:      testDev(BLE_ADDR_TYPE_RANDOM_STATIC, 0x01),
	}, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x7c, 0x00, 0x01, 0x01, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06,
	}, buf[:n])

	n, err = EncodeReq(&ConnParamUpdateReq{
		ConnHandle: 0x0102,
		Params:     testConnParams(),
	}, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x81, 0x02, 0x01, 0x01,
		0x06, 0x00, 0x28, 0x00, 0x00, 0x00, 0x90, 0x01,
	}, buf[:n])

	n, err = EncodeReq(&AuthenticateReq{
		ConnHandle: 0,
		Params:     testSecParams(),
	}, buf)
	require.NoError(t, err)
	// bond|mitm|lesc, io_caps=4 in bits 4-6.
	assert.Equal(t, []byte{
		0x8a, 0x00, 0x00, 0x01, 0x47, 0x07, 0x10, 0x03, 0x0d,
	}, buf[:n])

	n, err = EncodeReq(&ConnectReq{}, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x98, 0x00, 0x00, 0x00}, buf[:n])
}

func TestNullOptionalsStayNull(t *testing.T) {
	buf := make([]byte, 64)
	n, err := EncodeReq(&ConnectReq{}, buf)
	require.NoError(t, err)

	out := &ConnectReq{
		PeerAddr:   &BleDev{},
		ScanParams: &BleScanParams{},
		ConnParams: &BleConnParams{},
	}
	require.NoError(t, DecodeReq(buf[:n], out))
	assert.Nil(t, out.PeerAddr)
	assert.Nil(t, out.ScanParams)
	assert.Nil(t, out.ConnParams)
}

func TestAdvDataLimits(t *testing.T) {
	buf := make([]byte, 128)
	_, err := EncodeReq(&AdvDataSetReq{Data: make([]byte, 32)}, buf)
	require.Error(t, err)
	assert.True(t, serxutil.IsInvalidLength(err))

	// Non-zero length with an absent buffer.
	err = DecodeReq([]byte{0x7e, 0x03, 0x00, 0x00, 0x00}, &AdvDataSetReq{})
	require.Error(t, err)
	assert.True(t, serxutil.IsInvalidParam(err))

	// Length beyond the advertising maximum.
	pkt := append([]byte{0x7e, 32, 1}, make([]byte, 32)...)
	pkt = append(pkt, 0, 0)
	err = DecodeReq(pkt, &AdvDataSetReq{})
	require.Error(t, err)
	assert.True(t, serxutil.IsInvalidLength(err))
}

func TestDevNameLimits(t *testing.T) {
	buf := make([]byte, 512)
	_, err := EncodeReq(&DevNameSetReq{Name: make([]byte, 249)}, buf)
	assert.True(t, serxutil.IsInvalidLength(err))

	n, err := EncodeReq(&DevNameSetReq{Name: make([]byte, 248)}, buf)
	require.NoError(t, err)
	assert.Equal(t, 1+1+2+1+248, n)

	_, err = EncodeReq(&DevNameGetReq{WantName: true}, buf)
	assert.True(t, serxutil.IsNullArgument(err))
}

func TestAuthKeyReplyKeyType(t *testing.T) {
	buf := make([]byte, 64)

	_, err := EncodeReq(&AuthKeyReplyReq{KeyType: 7}, buf)
	assert.True(t, serxutil.IsInvalidParam(err))

	_, err = EncodeReq(&AuthKeyReplyReq{
		KeyType: BLE_GAP_AUTH_KEY_TYPE_PASSKEY,
		Key:     []byte("1234"),
	}, buf)
	assert.True(t, serxutil.IsInvalidLength(err))

	err = DecodeReq([]byte{0x8c, 0x00, 0x00, 0x07, 0x00}, &AuthKeyReplyReq{})
	assert.True(t, serxutil.IsInvalidParam(err))

	// OOB key is 16 bytes; a passkey-sized payload is short.
	pkt := append([]byte{0x8c, 0x00, 0x00, 0x02, 0x01}, []byte("123456")...)
	err = DecodeReq(pkt, &AuthKeyReplyReq{})
	assert.True(t, serxutil.IsInvalidLength(err))
}

func TestWhitelistBounds(t *testing.T) {
	wl := &BleWhitelist{
		Addrs: make([]*BleDev, BLE_GAP_WHITELIST_ADDR_MAX_COUNT+1),
	}

	buf := []byte{0xa5, 0xa5, 0xa5, 0xa5}
	e := sercodec.NewEncoder(buf)
	err := encWhitelist(e, wl)
	require.Error(t, err)
	assert.True(t, serxutil.IsInvalidParam(err))
	assert.Equal(t, 0, e.Len())
	assert.Equal(t, []byte{0xa5, 0xa5, 0xa5, 0xa5}, buf)

	wl = &BleWhitelist{
		Irks: make([]*BleIrk, BLE_GAP_WHITELIST_IRK_MAX_COUNT+1),
	}
	e = sercodec.NewEncoder(buf)
	assert.True(t, serxutil.IsInvalidParam(encWhitelist(e, wl)))
	assert.Equal(t, 0, e.Len())

	// Decode: addr count beyond maximum.
	d := sercodec.NewDecoder([]byte{9, 0, 0, 0})
	err = decWhitelist(d, &BleWhitelist{})
	assert.True(t, serxutil.IsInvalidParam(err))

	// Decode: non-zero count with absent array.
	d = sercodec.NewDecoder([]byte{2, 0, 0, 0})
	err = decWhitelist(d, &BleWhitelist{})
	assert.True(t, serxutil.IsInvalidParam(err))

	// Maximum is accepted.
	wl = &BleWhitelist{
		Addrs: make([]*BleDev, BLE_GAP_WHITELIST_ADDR_MAX_COUNT),
		Irks:  make([]*BleIrk, BLE_GAP_WHITELIST_IRK_MAX_COUNT),
	}
	big := make([]byte, 64)
	e = sercodec.NewEncoder(big)
	require.NoError(t, encWhitelist(e, wl))

	var out BleWhitelist
	d = sercodec.NewDecoder(e.Bytes())
	require.NoError(t, decWhitelist(d, &out))
	require.NoError(t, d.Finish())
	assert.Equal(t, *wl, out)
}

func TestRspStatusGated(t *testing.T) {
	buf := make([]byte, 64)

	n, err := EncodeRsp(GAP_OP_ADDRESS_GET, serxutil.NRF_ERROR_INVALID_STATE,
		&AddrGetRsp{Addr: testDev(BLE_ADDR_TYPE_PUBLIC, 1)}, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x7d, 0x08, 0x00, 0x00, 0x00}, buf[:n])

	rsp := &AddrGetRsp{}
	status, consumed, err := DecodeRsp(buf[:n], GAP_OP_ADDRESS_GET, rsp)
	require.NoError(t, err)
	assert.Equal(t, serxutil.NRF_ERROR_INVALID_STATE, status)
	assert.Equal(t, RSP_HDR_SZ, consumed)
	assert.Nil(t, rsp.Addr)

	// Failure status followed by result bytes is malformed.
	pkt := append(append([]byte{}, buf[:n]...), 0x01)
	_, _, err = DecodeRsp(pkt, GAP_OP_ADDRESS_GET, &AddrGetRsp{})
	assert.True(t, serxutil.IsInvalidLength(err))
}

func TestRspRoundTrip(t *testing.T) {
	tests := []struct {
		op  Opcode
		rsp Rsp
	}{
		{GAP_OP_ADDRESS_GET,
			&AddrGetRsp{Addr: testDev(BLE_ADDR_TYPE_PUBLIC, 1)}},
		{GAP_OP_ADDRESS_GET, &AddrGetRsp{}},
		{GAP_OP_APPEARANCE_GET, &AppearanceGetRsp{Appearance: u16p(0x0340)}},
		{GAP_OP_PPCP_GET, &PpcpGetRsp{Params: testConnParams()}},
		{GAP_OP_DEVICE_NAME_GET,
			&DevNameGetRsp{Len: u16p(3), Name: []byte("abc")}},
		{GAP_OP_DEVICE_NAME_GET, &DevNameGetRsp{Len: u16p(3)}},
		{GAP_OP_SEC_PARAMS_REPLY, &SecParamsReplyRsp{Keyset: testKeyset()}},
		{GAP_OP_SEC_PARAMS_REPLY, &SecParamsReplyRsp{}},
		{GAP_OP_CONN_SEC_GET, &ConnSecGetRsp{ConnSec: &BleConnSec{
			SecMode: BleConnSecMode{Sm: 1, Lv: 4}, EncrKeySize: 16}}},
		{GAP_OP_RSSI_GET, &RssiGetRsp{Rssi: i8p(-70)}},
	}

	for _, tt := range tests {
		buf := make([]byte, 512)
		n, err := EncodeRsp(tt.op, serxutil.NRF_SUCCESS, tt.rsp, buf)
		require.NoError(t, err)

		out, err := NewRsp(tt.op)
		require.NoError(t, err)
		require.NotNil(t, out)

		status, consumed, err := DecodeRsp(buf[:n], tt.op, out)
		require.NoError(t, err)
		assert.Equal(t, serxutil.NRF_SUCCESS, status)
		assert.Equal(t, n, consumed)
		assert.Equal(t, tt.rsp, out)
	}
}

func TestRspNoPayload(t *testing.T) {
	rsp, err := NewRsp(GAP_OP_ADV_STOP)
	require.NoError(t, err)
	assert.Nil(t, rsp)

	_, err = NewRsp(Opcode(0x01))
	assert.True(t, serxutil.IsInvalidParam(err))

	buf := make([]byte, 8)
	n, err := EncodeRsp(GAP_OP_ADV_STOP, serxutil.NRF_SUCCESS, nil, buf)
	require.NoError(t, err)
	assert.Equal(t, RSP_HDR_SZ, n)

	_, _, err = DecodeRsp(buf[:n], GAP_OP_SCAN_STOP, nil)
	assert.True(t, serxutil.IsInvalidParam(err))
}

func TestDevNameRspMismatch(t *testing.T) {
	buf := make([]byte, 32)
	_, err := EncodeRsp(GAP_OP_DEVICE_NAME_GET, serxutil.NRF_SUCCESS,
		&DevNameGetRsp{Len: u16p(4), Name: []byte("abc")}, buf)
	assert.True(t, serxutil.IsInvalidLength(err))

	_, err = EncodeRsp(GAP_OP_DEVICE_NAME_GET, serxutil.NRF_SUCCESS,
		&DevNameGetRsp{Name: []byte("abc")}, buf)
	assert.True(t, serxutil.IsNullArgument(err))
}

func TestKeysetSize(t *testing.T) {
	for _, ks := range []*BleSecKeyset{
		testKeyset(), {}, func() *BleSecKeyset {
			ks := NewBleSecKeysetStorage()
			return &ks
		}(),
	} {
		buf := make([]byte, 512)
		e := sercodec.NewEncoder(buf)
		require.NoError(t, encKeyset(e, ks))
		assert.Equal(t, e.Len(), KeysetSize(ks))
	}
}

func TestKeysetDecodesIntoDst(t *testing.T) {
	buf := make([]byte, 512)
	r := &SecParamsReplyReq{ConnHandle: 1, Keyset: testKeyset()}
	n, err := EncodeReq(r, buf)
	require.NoError(t, err)

	dst := NewBleSecKeysetStorage()
	encKey := dst.KeysOwn.EncKey

	out := &SecParamsReplyReq{KeysetDst: &dst}
	require.NoError(t, DecodeReq(buf[:n], out))
	require.True(t, out.Keyset == &dst)
	assert.True(t, dst.KeysOwn.EncKey == encKey)
	assert.Equal(t, *testKeyset(), dst)
}
