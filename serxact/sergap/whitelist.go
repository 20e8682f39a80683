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

// Both counts are checked against the platform maxima before anything is
// written.
func encWhitelist(e *encoder, v *BleWhitelist) error {
	if len(v.Addrs) > BLE_GAP_WHITELIST_ADDR_MAX_COUNT {
		return serxutil.FmtInvalidParamError(
			"whitelist addr count %d exceeds maximum %d",
			len(v.Addrs), BLE_GAP_WHITELIST_ADDR_MAX_COUNT)
	}
	if len(v.Irks) > BLE_GAP_WHITELIST_IRK_MAX_COUNT {
		return serxutil.FmtInvalidParamError(
			"whitelist irk count %d exceeds maximum %d",
			len(v.Irks), BLE_GAP_WHITELIST_IRK_MAX_COUNT)
	}

	if err := e.PutU8(uint8(len(v.Addrs))); err != nil {
		return err
	}
	if err := e.PutCond(v.Addrs != nil, func(e *encoder) error {
		for _, a := range v.Addrs {
			a := a
			if err := e.PutCond(a != nil, func(e *encoder) error {
				return encBleDev(e, a)
			}); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := e.PutU8(uint8(len(v.Irks))); err != nil {
		return err
	}
	return e.PutCond(v.Irks != nil, func(e *encoder) error {
		for _, irk := range v.Irks {
			irk := irk
			if err := e.PutCond(irk != nil, func(e *encoder) error {
				return encIrk(e, irk)
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func decWhitelistCount(d *decoder, max int, what string) (int, error) {
	n, err := d.U8()
	if err != nil {
		return 0, err
	}
	if int(n) > max {
		return 0, serxutil.FmtInvalidParamError(
			"whitelist %s count %d exceeds maximum %d", what, n, max)
	}

	return int(n), nil
}

func decWhitelist(d *decoder, v *BleWhitelist) error {
	addrCount, err := decWhitelistCount(d, BLE_GAP_WHITELIST_ADDR_MAX_COUNT,
		"addr")
	if err != nil {
		return err
	}

	v.Addrs = nil
	present, err := d.Cond(func(d *decoder) error {
		v.Addrs = make([]*BleDev, addrCount)
		for i := range v.Addrs {
			if _, err := d.Cond(func(d *decoder) error {
				v.Addrs[i] = &BleDev{}
				return decBleDev(d, v.Addrs[i])
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !present && addrCount > 0 {
		return serxutil.FmtInvalidParamError(
			"whitelist addr count %d with absent array", addrCount)
	}

	irkCount, err := decWhitelistCount(d, BLE_GAP_WHITELIST_IRK_MAX_COUNT,
		"irk")
	if err != nil {
		return err
	}

	v.Irks = nil
	present, err = d.Cond(func(d *decoder) error {
		v.Irks = make([]*BleIrk, irkCount)
		for i := range v.Irks {
			if _, err := d.Cond(func(d *decoder) error {
				v.Irks[i] = &BleIrk{}
				return decIrk(d, v.Irks[i])
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !present && irkCount > 0 {
		return serxutil.FmtInvalidParamError(
			"whitelist irk count %d with absent array", irkCount)
	}

	return nil
}
