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

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mynewt.apache.org/bleser/bleser/bsutil"
	"mynewt.apache.org/bleser/serxact/appcli"
	. "mynewt.apache.org/bleser/serxact/bledefs"
	"mynewt.apache.org/bleser/serxact/sergap"
	"mynewt.apache.org/bleser/serxact/serxutil"
	"mynewt.apache.org/newt/util"
)

// Initiates a connection and waits for it to complete.  The attempt is
// cancelled if the controller does not report a connection within tmo.
func connectTo(c *appcli.Client, dev *BleDev, scanParams *BleScanParams,
	connParams *BleConnParams, tmo time.Duration) (uint16, error) {

	// The new connection's handle is unknown until it is reported, so
	// listen by event.  A failed attempt times out on the invalid handle.
	connBl := appcli.NewListener()
	key := appcli.EvtKey(sergap.GAP_EVT_CONNECTED, -1)
	if err := c.Listeners().AddListener(key, connBl); err != nil {
		return 0, err
	}
	defer c.Listeners().RemoveListener(connBl)

	tmoBl := appcli.NewListener()
	key = appcli.EvtKey(sergap.GAP_EVT_TIMEOUT,
		int(BLE_CONN_HANDLE_INVALID))
	if err := c.Listeners().AddListener(key, tmoBl); err != nil {
		return 0, err
	}
	defer c.Listeners().RemoveListener(tmoBl)

	if err := c.Connect(dev, scanParams, connParams); err != nil {
		return 0, err
	}

	timer := time.NewTimer(tmo)
	defer timer.Stop()

	for {
		select {
		case m := <-connBl.EvtChan:
			ev := m.Evt.(*sergap.ConnectedEvt)
			if ev.Role == BLE_GAP_ROLE_CENTRAL && ev.PeerAddr == *dev {
				return m.ConnHandle, nil
			}

		case m := <-tmoBl.EvtChan:
			ev := m.Evt.(*sergap.TimeoutEvt)
			if ev.Src == BLE_GAP_TIMEOUT_SRC_CONN {
				return 0, util.FmtNewtError(
					"Connection to %s timed out", dev.String())
			}

		case err := <-connBl.ErrChan:
			return 0, err

		case err := <-tmoBl.ErrChan:
			return 0, err

		case <-timer.C:
			if err := c.ConnectCancel(); err != nil {
				log.Debugf("connect cancel failed: %s", err.Error())
			}
			return 0, serxutil.FmtRspTimeoutError(
				"No connection to %s after %s", dev.String(), tmo)
		}
	}
}

func defaultConnParams() BleConnParams {
	return BleConnParams{
		MinConnItvl:    24,
		MaxConnItvl:    40,
		SlaveLatency:   0,
		ConnSupTimeout: 400,
	}
}

func connectRunCmd(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		bsUsage(cmd, util.NewNewtError("Must specify a peer address"))
	}

	dev, err := ParseBleDev(args[0])
	if err != nil {
		bsUsage(cmd, util.ChildNewtError(err))
	}

	scanParams := scanParamsFromFlags(cmd)
	connParams := defaultConnParams()
	connParams.MinConnItvl, _ = cmd.Flags().GetUint16("min-interval")
	connParams.MaxConnItvl, _ = cmd.Flags().GetUint16("max-interval")
	connParams.SlaveLatency, _ = cmd.Flags().GetUint16("latency")
	connParams.ConnSupTimeout, _ = cmd.Flags().GetUint16("sup-timeout")

	tmo := bsutil.RspTimeout()
	if tmo <= 0 {
		tmo = 10 * time.Second
	}

	c := mustClient()
	h, err := connectTo(c, &dev, &scanParams, &connParams, tmo)
	if err != nil {
		bsUsage(nil, util.ChildNewtError(err))
	}

	fmt.Printf("Connected; conn_handle=%d\n", h)
}

func disconnectRunCmd(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		bsUsage(cmd, util.NewNewtError("Must specify a connection handle"))
	}

	h, err := parseConnHandle(args[0])
	if err != nil {
		bsUsage(cmd, err)
	}

	reason, _ := cmd.Flags().GetUint8("reason")

	c := mustClient()
	if err := c.Disconnect(h, reason); err != nil {
		bsUsage(nil, util.ChildNewtError(err))
	}

	fmt.Printf("Done\n")
}

func rssiHandleArg(cmd *cobra.Command, args []string) uint16 {
	if len(args) < 1 {
		bsUsage(cmd, util.NewNewtError("Must specify a connection handle"))
	}

	h, err := parseConnHandle(args[0])
	if err != nil {
		bsUsage(cmd, err)
	}

	return h
}

func rssiGetRunCmd(cmd *cobra.Command, args []string) {
	h := rssiHandleArg(cmd, args)

	c := mustClient()
	rssi, err := c.RssiGet(h)
	if err != nil {
		bsUsage(nil, util.ChildNewtError(err))
	}

	fmt.Printf("%d dBm\n", rssi)
}

func rssiStartRunCmd(cmd *cobra.Command, args []string) {
	h := rssiHandleArg(cmd, args)
	threshold, _ := cmd.Flags().GetUint8("threshold")
	skip, _ := cmd.Flags().GetUint8("skip")

	c := mustClient()
	if err := c.RssiStart(h, threshold, skip); err != nil {
		bsUsage(nil, util.ChildNewtError(err))
	}

	fmt.Printf("Done\n")
}

func rssiStopRunCmd(cmd *cobra.Command, args []string) {
	h := rssiHandleArg(cmd, args)

	c := mustClient()
	if err := c.RssiStop(h); err != nil {
		bsUsage(nil, util.ChildNewtError(err))
	}

	fmt.Printf("Done\n")
}

func connectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect [addr_type,]<addr> -c <conn_profile>",
		Short: "Connect to a peer as central",
		Example: "  " + bsutil.ToolInfo.ExeName +
			" connect random_static,c0:00:00:00:00:02 -c nrf",
		Run: connectRunCmd,
	}

	cmd.Flags().Bool("active", false, "Use active scanning")
	cmd.Flags().Uint16("interval", 0xa0, "Scan interval in 0.625 ms units")
	cmd.Flags().Uint16("window", 0x50, "Scan window in 0.625 ms units")
	cmd.Flags().Uint16("min-interval", 24,
		"Minimum connection interval in 1.25 ms units")
	cmd.Flags().Uint16("max-interval", 40,
		"Maximum connection interval in 1.25 ms units")
	cmd.Flags().Uint16("latency", 0, "Slave latency in connection events")
	cmd.Flags().Uint16("sup-timeout", 400,
		"Supervision timeout in 10 ms units")

	return cmd
}

func disconnectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disconnect <conn_handle> -c <conn_profile>",
		Short: "Terminate a connection",
		Run:   disconnectRunCmd,
	}

	cmd.Flags().Uint8("reason", 0x13, "HCI status code sent to the peer")

	return cmd
}

func rssiCmd() *cobra.Command {
	rssiCmd := &cobra.Command{
		Use:   "rssi",
		Short: "Monitor the signal strength of a connection",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	rssiCmd.AddCommand(&cobra.Command{
		Use:   "get <conn_handle> -c <conn_profile>",
		Short: "Display the current RSSI",
		Run:   rssiGetRunCmd,
	})

	startCmd := &cobra.Command{
		Use:   "start <conn_handle> -c <conn_profile>",
		Short: "Start reporting RSSI changes",
		Run:   rssiStartRunCmd,
	}
	startCmd.Flags().Uint8("threshold", 0,
		"Minimum change in dBm that triggers a report")
	startCmd.Flags().Uint8("skip", 0,
		"Number of samples that must exceed the threshold")
	rssiCmd.AddCommand(startCmd)

	rssiCmd.AddCommand(&cobra.Command{
		Use:   "stop <conn_handle> -c <conn_profile>",
		Short: "Stop reporting RSSI changes",
		Run:   rssiStopRunCmd,
	})

	return rssiCmd
}
