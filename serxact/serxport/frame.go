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
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"

	"github.com/joaojeronimo/go-crc16"
	log "github.com/sirupsen/logrus"

	"mynewt.apache.org/newt/util"

	"mynewt.apache.org/bleser/serxact/serxutil"
)

// A frame is len(u16 BE) | data | crc16(BE), base64-encoded and split into
// newline-terminated lines.  The first line of a frame is prefixed with
// 0x06 0x09 and each continuation with 0x04 0x14.
//
// Each line must fit into 128 bytes on the receiver: 2 designator bytes, up
// to 124 base64 characters (a multiple of 4 so every line decodes on its
// own) and the line terminator.
const FRAME_LINE_MAX = 124

var (
	frameStart = []byte{6, 9}
	frameCont  = []byte{4, 20}
)

func EncodeFrame(data []byte) [][]byte {
	pktData := make([]byte, 2, 2+len(data)+2)
	binary.BigEndian.PutUint16(pktData, uint16(len(data)+2))
	pktData = append(pktData, data...)

	var crc [2]byte
	binary.BigEndian.PutUint16(crc[:], crc16.Crc16(data))
	pktData = append(pktData, crc[:]...)

	base64Data := make([]byte, base64.StdEncoding.EncodedLen(len(pktData)))
	base64.StdEncoding.Encode(base64Data, pktData)

	var lines [][]byte
	for written := 0; written < len(base64Data); {
		writeLen := util.Min(FRAME_LINE_MAX, len(base64Data)-written)

		designator := frameCont
		if written == 0 {
			designator = frameStart
		}

		line := make([]byte, 0, len(designator)+writeLen+1)
		line = append(line, designator...)
		line = append(line, base64Data[written:written+writeLen]...)
		line = append(line, '\n')
		lines = append(lines, line)

		written += writeLen
	}

	return lines
}

func isDesignator(line []byte, d []byte) bool {
	return len(line) >= 2 && line[0] == d[0] && line[1] == d[1]
}

// Deframer reassembles frames from received lines.
type Deframer struct {
	// Largest accepted payload; 0 means no limit.
	MaxLen int

	pkt *Packet
}

// AddLine consumes one line, without its terminator.  It returns the
// frame payload once the final line of a frame has been seen, and nil while
// more lines are needed.  Lines that do not carry a frame designator are
// ignored.
func (df *Deframer) AddLine(line []byte) ([]byte, error) {
	for len(line) > 1 && line[0] == '\r' {
		line = line[1:]
	}

	start := isDesignator(line, frameStart)
	if !start && !isDesignator(line, frameCont) {
		return nil, nil
	}

	base64Data := line[2:]
	data := make([]byte, base64.StdEncoding.DecodedLen(len(base64Data)))
	n, err := base64.StdEncoding.Decode(data, base64Data)
	if err != nil {
		df.pkt = nil
		return nil, serxutil.FmtXportError(
			"couldn't decode base64 string: %s\npacket hex dump:\n%s",
			base64Data, hex.Dump(line))
	}
	data = data[:n]

	if start {
		if len(data) < 2 {
			df.pkt = nil
			return nil, nil
		}

		pktLen := binary.BigEndian.Uint16(data[0:2])
		if pktLen < 2 {
			df.pkt = nil
			return nil, serxutil.FmtXportError(
				"invalid frame length: %d", pktLen)
		}
		if df.MaxLen > 0 && int(pktLen)-2 > df.MaxLen {
			df.pkt = nil
			return nil, serxutil.FmtXportError(
				"frame length %d exceeds mtu %d", int(pktLen)-2, df.MaxLen)
		}

		df.pkt = NewPacket(pktLen)
		data = data[2:]
	}

	if df.pkt == nil {
		return nil, nil
	}

	if !df.pkt.AddBytes(data) {
		return nil, nil
	}

	pkt := df.pkt
	df.pkt = nil

	if pkt.Overrun() {
		return nil, serxutil.NewXportError("frame longer than its header")
	}
	if crc16.Crc16(pkt.GetBytes()) != 0 {
		return nil, serxutil.NewXportError("CRC error")
	}

	pkt.TrimEnd(2)
	b := pkt.GetBytes()

	log.Debugf("Decoded input:\n%s", hex.Dump(b))
	return b, nil
}
