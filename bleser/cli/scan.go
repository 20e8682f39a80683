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
	"time"

	"github.com/spf13/cobra"

	"mynewt.apache.org/bleser/bleser/bsutil"
	"mynewt.apache.org/bleser/serxact/appcli"
	. "mynewt.apache.org/bleser/serxact/bledefs"
	"mynewt.apache.org/bleser/serxact/sergap"
	"mynewt.apache.org/newt/util"
)

// Scans until dur elapses or the controller ends the scan, handing each
// report to fn.
func scanFor(c *appcli.Client, params *BleScanParams, dur time.Duration,
	fn func(ev *sergap.AdvReportEvt)) error {

	// Scan events carry no connection.
	bl := appcli.NewListener()
	key := appcli.ConnKey(BLE_CONN_HANDLE_INVALID)
	if err := c.Listeners().AddListener(key, bl); err != nil {
		return err
	}
	defer c.Listeners().RemoveListener(bl)

	if err := c.ScanStart(params); err != nil {
		return err
	}

	timer := time.NewTimer(dur)
	defer timer.Stop()

	for {
		select {
		case m := <-bl.EvtChan:
			switch ev := m.Evt.(type) {
			case *sergap.AdvReportEvt:
				fn(ev)

			case *sergap.TimeoutEvt:
				if ev.Src == BLE_GAP_TIMEOUT_SRC_SCAN {
					return nil
				}
			}

		case err := <-bl.ErrChan:
			return err

		case <-timer.C:
			return c.ScanStop()
		}
	}
}

func scanParamsFromFlags(cmd *cobra.Command) BleScanParams {
	params := BleScanParams{}

	params.Active, _ = cmd.Flags().GetBool("active")
	params.Interval, _ = cmd.Flags().GetUint16("interval")
	params.Window, _ = cmd.Flags().GetUint16("window")

	return params
}

func scanStartRunCmd(cmd *cobra.Command, args []string) {
	params := scanParamsFromFlags(cmd)
	secs, _ := cmd.Flags().GetFloat64("duration")
	dur := time.Duration(secs * float64(time.Second))

	c := mustClient()

	err := scanFor(c, &params, dur, func(ev *sergap.AdvReportEvt) {
		kind := "adv"
		if ev.ScanRsp {
			kind = "scan_rsp"
		}
		fmt.Printf("%s rssi=%d %s data=%x\n",
			ev.PeerAddr.String(), ev.Rssi, kind, ev.Data)
	})
	if err != nil {
		bsUsage(nil, util.ChildNewtError(err))
	}
}

func scanStopRunCmd(cmd *cobra.Command, args []string) {
	c := mustClient()
	if err := c.ScanStop(); err != nil {
		bsUsage(nil, util.ChildNewtError(err))
	}

	fmt.Printf("Done\n")
}

func scanCmd() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan for advertising devices",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	startCmd := &cobra.Command{
		Use:   "start -c <conn_profile>",
		Short: "Scan and display advertising reports",
		Example: "  " + bsutil.ToolInfo.ExeName +
			" scan start --active --duration 5 -c nrf",
		Run: scanStartRunCmd,
	}
	startCmd.Flags().Bool("active", false, "Request scan responses")
	startCmd.Flags().Uint16("interval", 0xa0,
		"Scan interval in 0.625 ms units")
	startCmd.Flags().Uint16("window", 0x50, "Scan window in 0.625 ms units")
	startCmd.Flags().Float64("duration", 5.0, "Scan duration in seconds")
	scanCmd.AddCommand(startCmd)

	scanCmd.AddCommand(&cobra.Command{
		Use:   "stop -c <conn_profile>",
		Short: "Stop an ongoing scan",
		Run:   scanStopRunCmd,
	})

	return scanCmd
}
