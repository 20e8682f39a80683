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
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"mynewt.apache.org/bleser/bleser/bsutil"
	"mynewt.apache.org/bleser/serxact/serxport"
	"mynewt.apache.org/newt/util"
)

func einvalSerialConnString(f string, args ...interface{}) error {
	suffix := fmt.Sprintf(f, args...)
	return util.FmtNewtError("Invalid serial connstring; %s", suffix)
}

// Parses "dev=<path>,baud=<rate>,mtu=<bytes>,chunkdelay=<ms>".  A bare token
// names the device.
func ParseSerialConnString(cs string) (*serxport.XportCfg, error) {
	sc := serxport.NewXportCfg()
	if t := bsutil.RspTimeout(); t > 0 {
		sc.ReadTimeout = t
	}

	parts := strings.Split(cs, ",")
	for _, p := range parts {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) == 1 {
			kv = []string{"dev", kv[0]}
		}

		k := kv[0]
		v := kv[1]

		switch k {
		case "dev":
			sc.DevPath = v

		case "baud":
			var err error
			sc.Baud, err = strconv.Atoi(v)
			if err != nil {
				return sc, einvalSerialConnString("Invalid baud: %s", v)
			}

		case "mtu":
			var err error
			sc.Mtu, err = strconv.Atoi(v)
			if err != nil || sc.Mtu <= 0 {
				return sc, einvalSerialConnString("Invalid mtu: %s", v)
			}

		case "chunkdelay":
			ms, err := strconv.Atoi(v)
			if err != nil || ms < 0 {
				return sc, einvalSerialConnString("Invalid chunkdelay: %s", v)
			}
			sc.ChunkDelay = time.Duration(ms) * time.Millisecond

		default:
			return sc, einvalSerialConnString("Unrecognized key: %s", k)
		}
	}

	if sc.DevPath == "" {
		return sc, einvalSerialConnString("No device specified")
	}

	return sc, nil
}

func BuildSerialXport(sc *serxport.XportCfg) (*serxport.SerialXport, error) {
	sx := serxport.NewSerialXport(sc)
	if err := sx.Start(); err != nil {
		return nil, util.ChildNewtError(err)
	}

	return sx, nil
}
