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
package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/fatih/structs"
	"github.com/spf13/cobra"
	"github.com/ugorji/go/codec"

	"mynewt.apache.org/bleser/bleser/bsutil"
	"mynewt.apache.org/bleser/serxact/sergap"
	"mynewt.apache.org/bleser/serxact/serxport"
	"mynewt.apache.org/bleser/serxact/serxutil"
	"mynewt.apache.org/newt/util"
)

// Converts a message body to a map keyed by its codec tags.
func structMap(v interface{}) map[string]interface{} {
	s := structs.New(v)
	s.TagName = "codec"
	return s.Map()
}

func renderMap(m map[string]interface{}, useCbor bool) ([]byte, error) {
	var h codec.Handle
	if useCbor {
		ch := new(codec.CborHandle)
		ch.Canonical = true
		h = ch
	} else {
		jh := new(codec.JsonHandle)
		jh.Canonical = true
		jh.Indent = 2
		h = jh
	}

	b := []byte{}
	enc := codec.NewEncoderBytes(&b, h)
	if err := enc.Encode(m); err != nil {
		return nil, util.FmtNewtError("Failed to render: %s", err.Error())
	}

	return b, nil
}

func decodeCmdBody(data []byte) (map[string]interface{}, error) {
	op, err := sergap.PeekOpcode(data)
	if err != nil {
		return nil, err
	}

	req, err := sergap.NewReq(op)
	if err != nil {
		return nil, err
	}
	if err := sergap.DecodeReq(data, req); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"opcode": op.String(),
		"req":    structMap(req),
	}, nil
}

func decodeRspBody(data []byte) (map[string]interface{}, error) {
	op, err := sergap.PeekOpcode(data)
	if err != nil {
		return nil, err
	}

	rsp, err := sergap.NewRsp(op)
	if err != nil {
		return nil, err
	}

	status, _, err := sergap.DecodeRsp(data, op, rsp)
	if err != nil {
		return nil, err
	}

	m := map[string]interface{}{
		"opcode": op.String(),
		"status": serxutil.StatusToString(status),
	}
	if rsp != nil && status == serxutil.NRF_SUCCESS {
		m["rsp"] = structMap(rsp)
	}

	return m, nil
}

func decodeEvtBody(data []byte) (map[string]interface{}, error) {
	connHandle, ev, err := sergap.DecodeEvt(data)
	if err != nil {
		return nil, err
	}

	return evtMap(connHandle, ev), nil
}

func evtMap(connHandle uint16, ev sergap.Evt) map[string]interface{} {
	return map[string]interface{}{
		"evt":         ev.EvtId().String(),
		"conn_handle": connHandle,
		"body":        structMap(ev),
	}
}

// Decodes a single message.  kind is one of "cmd", "rsp", "evt", or "pkt";
// a pkt is a message preceded by its transport packet type.
func decodePacket(kind string, data []byte) (map[string]interface{}, error) {
	switch kind {
	case "cmd":
		return decodeCmdBody(data)

	case "rsp":
		return decodeRspBody(data)

	case "evt":
		return decodeEvtBody(data)

	case "pkt":
		pt, body, err := serxport.Unwrap(data)
		if err != nil {
			return nil, err
		}

		m, err := decodePacket(pt.String(), body)
		if err != nil {
			return nil, err
		}
		m["type"] = pt.String()
		return m, nil

	default:
		return nil, util.FmtNewtError("Invalid packet kind: %s", kind)
	}
}

func decodeRunCmd(cmd *cobra.Command, args []string) {
	if len(args) < 2 {
		bsUsage(cmd, util.NewNewtError("Must specify a kind and a packet"))
	}

	data, err := parseHexBytes(args[1])
	if err != nil {
		bsUsage(cmd, err)
	}

	m, err := decodePacket(args[0], data)
	if err != nil {
		bsUsage(nil, util.ChildNewtError(err))
	}

	useCbor, _ := cmd.Flags().GetBool("cbor")
	b, err := renderMap(m, useCbor)
	if err != nil {
		bsUsage(nil, err)
	}

	if useCbor {
		fmt.Printf("%s\n", hex.EncodeToString(b))
	} else {
		fmt.Printf("%s\n", b)
	}
}

func decodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <cmd|rsp|evt|pkt> <hex>",
		Short: "Decode a serialized message",
		Long: "Decodes a single message and displays its fields.  A pkt " +
			"is a message preceded by its one-byte packet type " +
			"(0=cmd 1=rsp 2=evt).  No connection profile is required.",
		Example: "  " + bsutil.ToolInfo.ExeName + " decode rsp 8400000000\n" +
			"  " + bsutil.ToolInfo.ExeName + " decode pkt 021b00ffff02",
		Run: decodeRunCmd,
	}

	cmd.Flags().Bool("cbor", false, "Display the fields as hex-encoded CBOR")

	return cmd
}
