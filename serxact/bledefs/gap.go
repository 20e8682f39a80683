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

// Optional pointers are present on the wire iff non-nil.  A nil whitelist
// slice encodes as absent; a non-nil empty slice encodes as present with no
// entries.

type BleConnParams struct {
	MinConnItvl    uint16 `codec:"min_conn_interval" json:"min_conn_interval"`
	MaxConnItvl    uint16 `codec:"max_conn_interval" json:"max_conn_interval"`
	SlaveLatency   uint16 `codec:"slave_latency" json:"slave_latency"`
	ConnSupTimeout uint16 `codec:"conn_sup_timeout" json:"conn_sup_timeout"`
}

type BleIrk struct {
	Irk BleKey16 `codec:"irk,omitnested" json:"irk"`
}

type BleWhitelist struct {
	Addrs []*BleDev `codec:"addrs" json:"addrs"`
	Irks  []*BleIrk `codec:"irks" json:"irks"`
}

type BleScanParams struct {
	Active    bool          `codec:"active" json:"active"`
	Selective bool          `codec:"selective" json:"selective"`
	Whitelist *BleWhitelist `codec:"whitelist" json:"whitelist"`
	Interval  uint16        `codec:"interval" json:"interval"`
	Window    uint16        `codec:"window" json:"window"`
	Timeout   uint16        `codec:"timeout" json:"timeout"`
}

type BleAdvChMask struct {
	Ch37Off bool `codec:"ch_37_off" json:"ch_37_off"`
	Ch38Off bool `codec:"ch_38_off" json:"ch_38_off"`
	Ch39Off bool `codec:"ch_39_off" json:"ch_39_off"`
}

type BleAdvParams struct {
	Type      BleAdvType         `codec:"type" json:"type"`
	PeerAddr  *BleDev            `codec:"peer_addr" json:"peer_addr"`
	Fp        BleAdvFilterPolicy `codec:"fp" json:"fp"`
	Whitelist *BleWhitelist      `codec:"whitelist" json:"whitelist"`
	Interval  uint16             `codec:"interval" json:"interval"`
	Timeout   uint16             `codec:"timeout" json:"timeout"`
	ChMask    BleAdvChMask       `codec:"channel_mask" json:"channel_mask"`
}

// Key distribution flags.
type BleSecKdist struct {
	Enc  bool `codec:"enc" json:"enc"`
	Id   bool `codec:"id" json:"id"`
	Sign bool `codec:"sign" json:"sign"`
	Link bool `codec:"link" json:"link"`
}

type BleSecParams struct {
	Bond       bool        `codec:"bond" json:"bond"`
	Mitm       bool        `codec:"mitm" json:"mitm"`
	Lesc       bool        `codec:"lesc" json:"lesc"`
	Keypress   bool        `codec:"keypress" json:"keypress"`
	IoCaps     BleIoCaps   `codec:"io_caps" json:"io_caps"`
	Oob        bool        `codec:"oob" json:"oob"`
	MinKeySize uint8       `codec:"min_key_size" json:"min_key_size"`
	MaxKeySize uint8       `codec:"max_key_size" json:"max_key_size"`
	KdistOwn   BleSecKdist `codec:"kdist_own" json:"kdist_own"`
	KdistPeer  BleSecKdist `codec:"kdist_peer" json:"kdist_peer"`
}

// Security mode 1 / mode 2 levels supported.
type BleSecLevels struct {
	Lv1 bool `codec:"lv1" json:"lv1"`
	Lv2 bool `codec:"lv2" json:"lv2"`
	Lv3 bool `codec:"lv3" json:"lv3"`
	Lv4 bool `codec:"lv4" json:"lv4"`
}

// Security mode and level; also used as the device name write permission.
type BleConnSecMode struct {
	Sm uint8 `codec:"sm" json:"sm"`
	Lv uint8 `codec:"lv" json:"lv"`
}

type BleConnSec struct {
	SecMode     BleConnSecMode `codec:"sec_mode" json:"sec_mode"`
	EncrKeySize uint8          `codec:"encr_key_size" json:"encr_key_size"`
}

type BleEncInfo struct {
	Ltk    BleKey16 `codec:"ltk,omitnested" json:"ltk"`
	Lesc   bool     `codec:"lesc" json:"lesc"`
	Auth   bool     `codec:"auth" json:"auth"`
	LtkLen uint8    `codec:"ltk_len" json:"ltk_len"`
}

type BleMasterId struct {
	Ediv uint16                     `codec:"ediv" json:"ediv"`
	Rand [BLE_GAP_SEC_RAND_LEN]byte `codec:"rand" json:"rand"`
}

type BleEncKey struct {
	EncInfo  BleEncInfo  `codec:"enc_info" json:"enc_info"`
	MasterId BleMasterId `codec:"master_id" json:"master_id"`
}

type BleIdKey struct {
	IdInfo     BleIrk `codec:"id_info" json:"id_info"`
	IdAddrInfo BleDev `codec:"id_addr_info" json:"id_addr_info"`
}

type BleSignInfo struct {
	Csrk BleKey16 `codec:"csrk,omitnested" json:"csrk"`
}

type BleLescP256Pk struct {
	Pk [BLE_GAP_LESC_P256_PK_LEN]byte `codec:"pk" json:"pk"`
}

type BleLescDhkey struct {
	Key [BLE_GAP_LESC_DHKEY_LEN]byte `codec:"key" json:"key"`
}

// Pointers to key material.  A nil member is not distributed.
type BleSecKeys struct {
	EncKey  *BleEncKey     `codec:"enc_key" json:"enc_key"`
	IdKey   *BleIdKey      `codec:"id_key" json:"id_key"`
	SignKey *BleSignInfo   `codec:"sign_key" json:"sign_key"`
	Pk      *BleLescP256Pk `codec:"pk" json:"pk"`
}

type BleSecKeyset struct {
	KeysOwn  BleSecKeys `codec:"keys_own" json:"keys_own"`
	KeysPeer BleSecKeys `codec:"keys_peer" json:"keys_peer"`
}

// Returns a keyset with backing storage for every key type, as the
// connectivity side supplies to the stack when it will fill in keys.
func NewBleSecKeysetStorage() BleSecKeyset {
	keys := func() BleSecKeys {
		return BleSecKeys{
			EncKey:  &BleEncKey{},
			IdKey:   &BleIdKey{},
			SignKey: &BleSignInfo{},
			Pk:      &BleLescP256Pk{},
		}
	}

	return BleSecKeyset{
		KeysOwn:  keys(),
		KeysPeer: keys(),
	}
}

// Copies the key material of src into the storage that ks points to.  A key
// absent from src clears the member in ks; a key for which ks has no storage
// is dropped.
func (ks *BleSecKeys) Fill(src *BleSecKeys) {
	if src.EncKey == nil {
		ks.EncKey = nil
	} else if ks.EncKey != nil {
		*ks.EncKey = *src.EncKey
	}

	if src.IdKey == nil {
		ks.IdKey = nil
	} else if ks.IdKey != nil {
		*ks.IdKey = *src.IdKey
	}

	if src.SignKey == nil {
		ks.SignKey = nil
	} else if ks.SignKey != nil {
		*ks.SignKey = *src.SignKey
	}

	if src.Pk == nil {
		ks.Pk = nil
	} else if ks.Pk != nil {
		*ks.Pk = *src.Pk
	}
}

func (ks *BleSecKeyset) Fill(src *BleSecKeyset) {
	ks.KeysOwn.Fill(&src.KeysOwn)
	ks.KeysPeer.Fill(&src.KeysPeer)
}

// Clone returns a copy of ks that shares no key storage with it.
func (ks *BleSecKeyset) Clone() *BleSecKeyset {
	cp := NewBleSecKeysetStorage()
	cp.Fill(ks)
	return &cp
}
