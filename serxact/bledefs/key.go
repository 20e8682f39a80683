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
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Fixed-size key material; renders as hex.
type BleKey16 [BLE_GAP_SEC_KEY_LEN]byte

func ParseBleKey16(s string) (BleKey16, error) {
	var k BleKey16

	b, err := hex.DecodeString(s)
	if err != nil {
		return k, err
	}
	if len(b) != len(k) {
		return k, fmt.Errorf("invalid key length: have=%d want=%d",
			len(b), len(k))
	}

	copy(k[:], b)
	return k, nil
}

func (k BleKey16) String() string {
	return hex.EncodeToString(k[:])
}

func (k BleKey16) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *BleKey16) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	var err error
	*k, err = ParseBleKey16(s)
	return err
}
