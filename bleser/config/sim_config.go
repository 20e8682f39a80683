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

	log "github.com/sirupsen/logrus"

	. "mynewt.apache.org/bleser/serxact/bledefs"
	"mynewt.apache.org/bleser/serxact/connsvr"
	"mynewt.apache.org/bleser/serxact/gapsim"
	"mynewt.apache.org/bleser/serxact/sergap"
	"mynewt.apache.org/bleser/serxact/serxport"
	"mynewt.apache.org/newt/util"
)

// An in-process connectivity side backed by the simulated stack.
type SimCfg struct {
	Peers    []gapsim.Peer
	AutoPair bool
	Svr      connsvr.Cfg
}

func NewSimCfg() *SimCfg {
	return &SimCfg{
		AutoPair: true,
		Svr:      connsvr.NewCfg(),
	}
}

func einvalSimConnString(f string, args ...interface{}) error {
	suffix := fmt.Sprintf(f, args...)
	return util.FmtNewtError("Invalid sim connstring; %s", suffix)
}

// Parses "peer=<addr>,maxconns=<n>,ttl=<seconds>,autopair=<bool>".  peer may
// be repeated; each one shows up in scans and accepts connections.
func ParseSimConnString(cs string) (*SimCfg, error) {
	sc := NewSimCfg()

	if cs == "" {
		return sc, nil
	}

	for _, p := range strings.Split(cs, ",") {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			return sc, einvalSimConnString("Expected key=value: %s", p)
		}

		k := kv[0]
		v := kv[1]

		switch k {
		case "peer":
			addr, err := ParseBleAddr(v)
			if err != nil {
				return sc, einvalSimConnString("Invalid peer: %s", v)
			}
			sc.Peers = append(sc.Peers, gapsim.Peer{
				Dev: BleDev{
					AddrType: BLE_ADDR_TYPE_PUBLIC,
					Addr:     addr,
				},
				Rssi:    -60,
				AdvData: []byte{0x02, 0x01, 0x06},
			})

		case "maxconns":
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return sc, einvalSimConnString("Invalid maxconns: %s", v)
			}
			sc.Svr.MaxConns = n

		case "ttl":
			secs, err := strconv.Atoi(v)
			if err != nil || secs < 0 {
				return sc, einvalSimConnString("Invalid ttl: %s", v)
			}
			sc.Svr.SecCtxTtl = time.Duration(secs) * time.Second

		case "autopair":
			b, err := strconv.ParseBool(v)
			if err != nil {
				return sc, einvalSimConnString("Invalid autopair: %s", v)
			}
			sc.AutoPair = b

		default:
			return sc, einvalSimConnString("Unrecognized key: %s", k)
		}
	}

	return sc, nil
}

// Builds a simulated stack and a server in front of it.
func BuildSim(sc *SimCfg) (*connsvr.Server, *gapsim.Sim) {
	sim := gapsim.NewSim()
	sim.Peers = sc.Peers
	sim.AutoPair = sc.AutoPair

	svr := connsvr.NewServer(sc.Svr, sim)
	sim.Start(func(connHandle uint16, ev sergap.Evt) {
		if err := svr.Notify(connHandle, ev); err != nil {
			log.Debugf("Dropping %s event: %s", ev.EvtId(), err.Error())
		}
	})

	return svr, sim
}

// Returns the application end of a pipe whose other end is served by a
// simulated connectivity side.  The simulation shuts down when the returned
// transport is stopped.
func BuildSimXport(sc *SimCfg) *serxport.PipeXport {
	app, conn := serxport.NewPipe(16)

	svr, sim := BuildSim(sc)
	go func() {
		err := svr.Serve(conn)
		log.Debugf("Simulated connectivity side stopped: %s", err.Error())
		sim.Stop()
	}()

	return app
}
