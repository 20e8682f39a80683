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
	. "mynewt.apache.org/bleser/serxact/bledefs"
	"mynewt.apache.org/bleser/serxact/serxutil"
)

func encEncInfo(e *encoder, v *BleEncInfo) error {
	if v.LtkLen > 0x3f {
		return serxutil.FmtInvalidParamError("invalid ltk length: %d",
			v.LtkLen)
	}

	if err := e.PutBytes(v.Ltk[:]); err != nil {
		return err
	}

	return e.PutU8(bit(v.Lesc, 0) | bit(v.Auth, 1) | v.LtkLen<<2)
}

func decEncInfo(d *decoder, v *BleEncInfo) error {
	if err := d.Read(v.Ltk[:]); err != nil {
		return err
	}

	flags, err := d.U8()
	if err != nil {
		return err
	}

	v.Lesc = isSet(flags, 0)
	v.Auth = isSet(flags, 1)
	v.LtkLen = flags >> 2
	return nil
}

func encMasterId(e *encoder, v *BleMasterId) error {
	if err := e.PutU16(v.Ediv); err != nil {
		return err
	}

	return e.PutBytes(v.Rand[:])
}

func decMasterId(d *decoder, v *BleMasterId) error {
	var err error
	if v.Ediv, err = d.U16(); err != nil {
		return err
	}

	return d.Read(v.Rand[:])
}

func encEncKey(e *encoder, v *BleEncKey) error {
	if err := encEncInfo(e, &v.EncInfo); err != nil {
		return err
	}

	return encMasterId(e, &v.MasterId)
}

func decEncKey(d *decoder, v *BleEncKey) error {
	if err := decEncInfo(d, &v.EncInfo); err != nil {
		return err
	}

	return decMasterId(d, &v.MasterId)
}

func encIrk(e *encoder, v *BleIrk) error {
	return e.PutBytes(v.Irk[:])
}

func decIrk(d *decoder, v *BleIrk) error {
	return d.Read(v.Irk[:])
}

func encIdKey(e *encoder, v *BleIdKey) error {
	if err := encIrk(e, &v.IdInfo); err != nil {
		return err
	}

	return encBleDev(e, &v.IdAddrInfo)
}

func decIdKey(d *decoder, v *BleIdKey) error {
	if err := decIrk(d, &v.IdInfo); err != nil {
		return err
	}

	return decBleDev(d, &v.IdAddrInfo)
}

func encSignInfo(e *encoder, v *BleSignInfo) error {
	return e.PutBytes(v.Csrk[:])
}

func decSignInfo(d *decoder, v *BleSignInfo) error {
	return d.Read(v.Csrk[:])
}

func encP256Pk(e *encoder, v *BleLescP256Pk) error {
	return e.PutBytes(v.Pk[:])
}

func decP256Pk(d *decoder, v *BleLescP256Pk) error {
	return d.Read(v.Pk[:])
}

func encDhkey(e *encoder, v *BleLescDhkey) error {
	return e.PutBytes(v.Key[:])
}

func decDhkey(d *decoder, v *BleLescDhkey) error {
	return d.Read(v.Key[:])
}

func encSecKeys(e *encoder, v *BleSecKeys) error {
	if err := e.PutCond(v.EncKey != nil, func(e *encoder) error {
		return encEncKey(e, v.EncKey)
	}); err != nil {
		return err
	}
	if err := e.PutCond(v.IdKey != nil, func(e *encoder) error {
		return encIdKey(e, v.IdKey)
	}); err != nil {
		return err
	}
	if err := e.PutCond(v.SignKey != nil, func(e *encoder) error {
		return encSignInfo(e, v.SignKey)
	}); err != nil {
		return err
	}

	return e.PutCond(v.Pk != nil, func(e *encoder) error {
		return encP256Pk(e, v.Pk)
	})
}

// Present members are decoded into existing storage when the destination
// already holds a pointer, and into fresh storage otherwise.  Absent members
// are set to nil.
func decSecKeys(d *decoder, v *BleSecKeys) error {
	encKey := v.EncKey
	present, err := d.Cond(func(d *decoder) error {
		if encKey == nil {
			encKey = &BleEncKey{}
		}
		return decEncKey(d, encKey)
	})
	if err != nil {
		return err
	}
	v.EncKey = nil
	if present {
		v.EncKey = encKey
	}

	idKey := v.IdKey
	present, err = d.Cond(func(d *decoder) error {
		if idKey == nil {
			idKey = &BleIdKey{}
		}
		return decIdKey(d, idKey)
	})
	if err != nil {
		return err
	}
	v.IdKey = nil
	if present {
		v.IdKey = idKey
	}

	signKey := v.SignKey
	present, err = d.Cond(func(d *decoder) error {
		if signKey == nil {
			signKey = &BleSignInfo{}
		}
		return decSignInfo(d, signKey)
	})
	if err != nil {
		return err
	}
	v.SignKey = nil
	if present {
		v.SignKey = signKey
	}

	pk := v.Pk
	present, err = d.Cond(func(d *decoder) error {
		if pk == nil {
			pk = &BleLescP256Pk{}
		}
		return decP256Pk(d, pk)
	})
	if err != nil {
		return err
	}
	v.Pk = nil
	if present {
		v.Pk = pk
	}

	return nil
}

func encKeyset(e *encoder, v *BleSecKeyset) error {
	if err := encSecKeys(e, &v.KeysOwn); err != nil {
		return err
	}

	return encSecKeys(e, &v.KeysPeer)
}

func decKeyset(d *decoder, v *BleSecKeyset) error {
	if err := decSecKeys(d, &v.KeysOwn); err != nil {
		return err
	}

	return decSecKeys(d, &v.KeysPeer)
}

// KeysetSize is the number of bytes a keyset occupies on the wire.
func KeysetSize(v *BleSecKeyset) int {
	keys := func(k *BleSecKeys) int {
		n := 4
		if k.EncKey != nil {
			n += BLE_GAP_SEC_KEY_LEN + 1 + 2 + BLE_GAP_SEC_RAND_LEN
		}
		if k.IdKey != nil {
			n += BLE_GAP_SEC_KEY_LEN + 1 + BLE_GAP_ADDR_LEN
		}
		if k.SignKey != nil {
			n += BLE_GAP_SEC_KEY_LEN
		}
		if k.Pk != nil {
			n += BLE_GAP_LESC_P256_PK_LEN
		}
		return n
	}

	return keys(&v.KeysOwn) + keys(&v.KeysPeer)
}
