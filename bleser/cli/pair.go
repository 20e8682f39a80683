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

	"mynewt.apache.org/bleser/serxact/appcli"
	. "mynewt.apache.org/bleser/serxact/bledefs"
	"mynewt.apache.org/bleser/serxact/sergap"
	"mynewt.apache.org/bleser/serxact/serxutil"
	"mynewt.apache.org/newt/util"
)

func defaultSecParams() BleSecParams {
	return BleSecParams{
		Bond:       true,
		IoCaps:     BLE_GAP_IO_CAPS_NONE,
		MinKeySize: 7,
		MaxKeySize: 16,
		KdistOwn:   BleSecKdist{Enc: true},
		KdistPeer:  BleSecKdist{Enc: true, Id: true},
	}
}

// Runs the pairing procedure on an existing connection.  Keys distributed
// by either side are returned in the keyset.
func pairWith(c *appcli.Client, connHandle uint16, params *BleSecParams,
	tmo time.Duration) (*sergap.AuthStatusEvt, *BleSecKeyset, error) {

	bl := appcli.NewListener()
	if err := c.Listeners().AddListener(
		appcli.ConnKey(connHandle), bl); err != nil {

		return nil, nil, err
	}
	defer c.Listeners().RemoveListener(bl)

	if err := c.Authenticate(connHandle, params); err != nil {
		return nil, nil, err
	}

	keyset := NewBleSecKeysetStorage()

	timer := time.NewTimer(tmo)
	defer timer.Stop()

	for {
		select {
		case m := <-bl.EvtChan:
			switch ev := m.Evt.(type) {
			case *sergap.SecParamsRequestEvt:
				err := c.SecParamsReply(connHandle,
					BLE_GAP_SEC_STATUS_SUCCESS, params, &keyset)
				if err != nil {
					return nil, nil, err
				}

			case *sergap.AuthStatusEvt:
				if ev.AuthStatus != BLE_GAP_SEC_STATUS_SUCCESS {
					return ev, nil, util.FmtNewtError(
						"Pairing failed; auth_status=0x%02x error_src=%d",
						ev.AuthStatus, ev.ErrorSrc)
				}
				return ev, &keyset, nil

			case *sergap.DisconnectedEvt:
				return nil, nil, util.FmtNewtError(
					"Connection %d dropped during pairing; reason=0x%02x",
					connHandle, ev.Reason)
			}

		case err := <-bl.ErrChan:
			return nil, nil, err

		case <-timer.C:
			return nil, nil, serxutil.FmtRspTimeoutError(
				"Pairing on connection %d did not complete after %s",
				connHandle, tmo)
		}
	}
}

func secParamsFromFlags(cmd *cobra.Command) (BleSecParams, error) {
	params := defaultSecParams()

	params.Bond, _ = cmd.Flags().GetBool("bond")
	params.Mitm, _ = cmd.Flags().GetBool("mitm")
	params.Lesc, _ = cmd.Flags().GetBool("lesc")

	ioCapsStr, _ := cmd.Flags().GetString("io-caps")
	ioCaps, err := BleIoCapsFromString(ioCapsStr)
	if err != nil {
		return params, util.ChildNewtError(err)
	}
	params.IoCaps = ioCaps

	return params, nil
}

func pairRunCmd(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		bsUsage(cmd, util.NewNewtError("Must specify a connection handle"))
	}

	h, err := parseConnHandle(args[0])
	if err != nil {
		bsUsage(cmd, err)
	}

	params, err := secParamsFromFlags(cmd)
	if err != nil {
		bsUsage(cmd, err)
	}

	c := mustClient()
	status, keyset, err := pairWith(c, h, &params, 3*clientCfg().RspTimeout)
	if err != nil {
		bsUsage(nil, util.ChildNewtError(err))
	}

	fmt.Printf("Paired; bonded=%v\n", status.Bonded)

	b, err := renderMap(structMap(keyset), false)
	if err != nil {
		bsUsage(nil, err)
	}
	fmt.Printf("%s\n", b)
}

func pairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pair <conn_handle> -c <conn_profile>",
		Short: "Pair with the peer on an existing connection",
		Run:   pairRunCmd,
	}

	cmd.Flags().Bool("bond", true, "Store the distributed keys")
	cmd.Flags().Bool("mitm", false, "Require man-in-the-middle protection")
	cmd.Flags().Bool("lesc", false, "Use LE Secure Connections")
	cmd.Flags().String("io-caps", "none",
		"display_only, display_yesno, keyboard_only, none, "+
			"or keyboard_display")

	return cmd
}
