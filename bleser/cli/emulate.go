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
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mynewt.apache.org/bleser/bleser/bsutil"
	"mynewt.apache.org/bleser/bleser/config"
	"mynewt.apache.org/bleser/serxact/serxport"
	"mynewt.apache.org/newt/util"
)

// Plays the connectivity side over x, backed by a simulated stack, until
// the transport fails.
func serveEmulator(x serxport.Xport, sc *config.SimCfg) error {
	svr, sim := config.BuildSim(sc)
	defer sim.Stop()

	return svr.Serve(x)
}

func emulateRunCmd(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		bsUsage(cmd, util.NewNewtError("Must specify a serial connstring"))
	}

	xc, err := config.ParseSerialConnString(args[0])
	if err != nil {
		bsUsage(cmd, err)
	}

	simStr, _ := cmd.Flags().GetString("sim")
	sc, err := config.ParseSimConnString(simStr)
	if err != nil {
		bsUsage(cmd, err)
	}

	x, err := config.BuildSerialXport(xc)
	if err != nil {
		bsUsage(nil, err)
	}

	fmt.Printf("Emulating a connectivity chip on %s\n", xc.DevPath)
	log.Infof("Simulated peers: %d; max connections: %d",
		len(sc.Peers), sc.Svr.MaxConns)

	if err := serveEmulator(x, sc); err != nil {
		bsUsage(nil, util.ChildNewtError(err))
	}
}

func emulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emulate <serial_connstring>",
		Short: "Act as a simulated connectivity chip on a serial port",
		Long: "Answers serialized GAP commands arriving on a serial port " +
			"using a simulated BLE stack.  Useful for exercising an " +
			"application without hardware.  No connection profile is " +
			"required.",
		Example: "  " + bsutil.ToolInfo.ExeName +
			" emulate dev=/dev/ttyUSB1,baud=1000000 " +
			"--sim peer=11:22:33:44:55:66",
		Run: emulateRunCmd,
	}

	cmd.Flags().String("sim", "",
		"Sim connstring: peer=<addr>,maxconns=<n>,ttl=<s>,autopair=<bool>")

	return cmd
}
