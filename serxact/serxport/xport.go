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

package serxport

import (
	"fmt"

	"github.com/pkg/errors"

	"mynewt.apache.org/bleser/serxact/serxutil"
)

// Every packet carried by a transport starts with one of these.
type PktType uint8

const (
	PKT_TYPE_CMD PktType = 0
	PKT_TYPE_RSP PktType = 1
	PKT_TYPE_EVT PktType = 2
)

var pktTypeStringMap = map[PktType]string{
	PKT_TYPE_CMD: "cmd",
	PKT_TYPE_RSP: "rsp",
	PKT_TYPE_EVT: "evt",
}

func (pt PktType) String() string {
	s := pktTypeStringMap[pt]
	if s == "" {
		return fmt.Sprintf("unknown(%d)", uint8(pt))
	}

	return s
}

// Returned by Rx when no complete packet arrived within the read timeout.
// The transport remains usable.
var ErrRxTimeout = errors.New("timeout reading from transport")

func IsRxTimeout(err error) bool {
	return errors.Cause(err) == ErrRxTimeout
}

type Xport interface {
	Start() error
	Stop() error

	// Sends one packet.
	Tx(data []byte) error

	// Blocks until a full packet is received.
	Rx() ([]byte, error)
}

// Wrap prefixes body with its packet type.
func Wrap(pt PktType, body []byte) []byte {
	pkt := make([]byte, 1+len(body))
	pkt[0] = uint8(pt)
	copy(pkt[1:], body)

	return pkt
}

func Unwrap(pkt []byte) (PktType, []byte, error) {
	if len(pkt) < 1 {
		return 0, nil, serxutil.NewInvalidLengthError("empty packet")
	}

	pt := PktType(pkt[0])
	if pktTypeStringMap[pt] == "" {
		return 0, nil, serxutil.FmtInvalidParamError(
			"invalid packet type: %d", pkt[0])
	}

	return pt, pkt[1:], nil
}
