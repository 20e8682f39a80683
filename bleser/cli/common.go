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
	"strconv"
	"strings"

	"mynewt.apache.org/bleser/bleser/bsutil"
	"mynewt.apache.org/bleser/bleser/config"
	"mynewt.apache.org/bleser/serxact/appcli"
	"mynewt.apache.org/bleser/serxact/serxport"
	"mynewt.apache.org/newt/util"
)

var globalClient *appcli.Client

func getConnProfile() (*config.ConnProfile, error) {
	var cp *config.ConnProfile

	if bsutil.ConnType != "" {
		ct, err := config.ConnTypeFromString(bsutil.ConnType)
		if err != nil {
			return nil, err
		}

		cp = config.NewConnProfile()
		cp.Name = "unnamed"
		cp.Type = ct
		cp.ConnString = bsutil.ConnString
	} else {
		if bsutil.ConnProfile == "" {
			return nil, util.NewNewtError(
				"No connection profile specified (--conn or --conntype)")
		}

		p, err := config.GlobalConnProfileMgr().GetConnProfile(
			bsutil.ConnProfile)
		if err != nil {
			return nil, err
		}

		// Copy so overrides do not leak into the saved profile.
		cp = &config.ConnProfile{}
		*cp = *p
		if bsutil.ConnString != "" {
			cp.ConnString = bsutil.ConnString
		}
	}

	if bsutil.ConnExtra != "" {
		if cp.ConnString == "" {
			cp.ConnString = bsutil.ConnExtra
		} else {
			cp.ConnString += "," + bsutil.ConnExtra
		}
	}

	return cp, nil
}

func buildXport(cp *config.ConnProfile) (serxport.Xport, error) {
	switch cp.Type {
	case config.CONN_TYPE_SERIAL:
		sc, err := config.ParseSerialConnString(cp.ConnString)
		if err != nil {
			return nil, err
		}
		return serxport.NewSerialXport(sc), nil

	case config.CONN_TYPE_SIM:
		sc, err := config.ParseSimConnString(cp.ConnString)
		if err != nil {
			return nil, err
		}
		return config.BuildSimXport(sc), nil

	default:
		return nil, util.FmtNewtError("Unknown connection type: %s (%d)",
			cp.Type, int(cp.Type))
	}
}

func clientCfg() appcli.Cfg {
	cfg := appcli.NewCfg()
	if t := bsutil.RspTimeout(); t > 0 {
		cfg.RspTimeout = t
	}

	return cfg
}

func GetClient() (*appcli.Client, error) {
	if globalClient != nil {
		return globalClient, nil
	}

	cp, err := getConnProfile()
	if err != nil {
		return nil, err
	}

	x, err := buildXport(cp)
	if err != nil {
		return nil, err
	}

	c := appcli.NewClient(clientCfg(), x)
	if err := c.Start(); err != nil {
		return nil, util.ChildNewtError(err)
	}

	globalClient = c
	return globalClient, nil
}

func GetClientIfOpen() (*appcli.Client, error) {
	if globalClient == nil {
		return nil, fmt.Errorf("client not initialized")
	}

	return globalClient, nil
}

func mustClient() *appcli.Client {
	c, err := GetClient()
	if err != nil {
		bsUsage(nil, err)
	}

	return c
}

func parseConnHandle(s string) (uint16, error) {
	u64, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, util.FmtNewtError("Invalid connection handle: %s", s)
	}

	return uint16(u64), nil
}

// Accepts hex with optional "0x" prefix and ' ' or ':' separators.
func parseHexBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	s = strings.NewReplacer(" ", "", ":", "", "\n", "", "\t", "").Replace(s)

	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, util.FmtNewtError("Invalid hex string: %s", err.Error())
	}

	return b, nil
}
