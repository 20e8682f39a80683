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
)

// Presence-tagged wrappers.  Each put writes ABSENT for a nil pointer; each
// get returns nil for an ABSENT field.

func putCondDev(e *encoder, v *BleDev) error {
	return e.PutCond(v != nil, func(e *encoder) error {
		return encBleDev(e, v)
	})
}

func getCondDev(d *decoder) (*BleDev, error) {
	var v *BleDev
	_, err := d.Cond(func(d *decoder) error {
		v = &BleDev{}
		return decBleDev(d, v)
	})
	return v, err
}

func putCondConnParams(e *encoder, v *BleConnParams) error {
	return e.PutCond(v != nil, func(e *encoder) error {
		return encConnParams(e, v)
	})
}

func getCondConnParams(d *decoder) (*BleConnParams, error) {
	var v *BleConnParams
	_, err := d.Cond(func(d *decoder) error {
		v = &BleConnParams{}
		return decConnParams(d, v)
	})
	return v, err
}

func putCondScanParams(e *encoder, v *BleScanParams) error {
	return e.PutCond(v != nil, func(e *encoder) error {
		return encScanParams(e, v)
	})
}

func getCondScanParams(d *decoder) (*BleScanParams, error) {
	var v *BleScanParams
	_, err := d.Cond(func(d *decoder) error {
		v = &BleScanParams{}
		return decScanParams(d, v)
	})
	return v, err
}

func putCondSecParams(e *encoder, v *BleSecParams) error {
	return e.PutCond(v != nil, func(e *encoder) error {
		return encSecParams(e, v)
	})
}

func getCondSecParams(d *decoder) (*BleSecParams, error) {
	var v *BleSecParams
	_, err := d.Cond(func(d *decoder) error {
		v = &BleSecParams{}
		return decSecParams(d, v)
	})
	return v, err
}

func putCondKeyset(e *encoder, v *BleSecKeyset) error {
	return e.PutCond(v != nil, func(e *encoder) error {
		return encKeyset(e, v)
	})
}

// Decodes into dst when the keyset is present and dst is non-nil, so the
// caller controls where key material lands.
func getCondKeyset(d *decoder, dst *BleSecKeyset) (*BleSecKeyset, error) {
	var v *BleSecKeyset
	_, err := d.Cond(func(d *decoder) error {
		v = dst
		if v == nil {
			v = &BleSecKeyset{}
		}
		return decKeyset(d, v)
	})
	return v, err
}

func putCondEncInfo(e *encoder, v *BleEncInfo) error {
	return e.PutCond(v != nil, func(e *encoder) error {
		return encEncInfo(e, v)
	})
}

func getCondEncInfo(d *decoder) (*BleEncInfo, error) {
	var v *BleEncInfo
	_, err := d.Cond(func(d *decoder) error {
		v = &BleEncInfo{}
		return decEncInfo(d, v)
	})
	return v, err
}

func putCondConnSec(e *encoder, v *BleConnSec) error {
	return e.PutCond(v != nil, func(e *encoder) error {
		return encConnSec(e, v)
	})
}

func getCondConnSec(d *decoder) (*BleConnSec, error) {
	var v *BleConnSec
	_, err := d.Cond(func(d *decoder) error {
		v = &BleConnSec{}
		return decConnSec(d, v)
	})
	return v, err
}

func putCondU16(e *encoder, v *uint16) error {
	return e.PutCond(v != nil, func(e *encoder) error {
		return e.PutU16(*v)
	})
}

func getCondU16(d *decoder) (*uint16, error) {
	var v *uint16
	_, err := d.Cond(func(d *decoder) error {
		u, err := d.U16()
		v = &u
		return err
	})
	return v, err
}

// Presence byte for an output parameter the callee should fill in.
func putOut(e *encoder, want bool) error {
	return e.PutPresence(want)
}

func getOut(d *decoder) (bool, error) {
	return d.Presence()
}
