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
	"time"

	"github.com/spf13/cobra"

	"mynewt.apache.org/bleser/serxact/appcli"
	"mynewt.apache.org/newt/util"
)

// Hands every event matching key to fn until dur elapses.  A zero duration
// listens until the link fails.
func listenFor(c *appcli.Client, key appcli.ListenerKey, dur time.Duration,
	fn func(m appcli.EvtMsg)) error {

	bl := appcli.NewListener()
	if err := c.Listeners().AddListener(key, bl); err != nil {
		return err
	}
	defer c.Listeners().RemoveListener(bl)

	var timeoutChan <-chan time.Time
	if dur > 0 {
		timer := time.NewTimer(dur)
		defer timer.Stop()
		timeoutChan = timer.C
	}

	for {
		select {
		case m := <-bl.EvtChan:
			fn(m)

		case err := <-bl.ErrChan:
			return err

		case <-timeoutChan:
			return nil
		}
	}
}

func listenRunCmd(cmd *cobra.Command, args []string) {
	key := appcli.AnyKey()
	if len(args) > 0 {
		h, err := parseConnHandle(args[0])
		if err != nil {
			bsUsage(cmd, err)
		}
		key = appcli.ConnKey(h)
	}

	secs, _ := cmd.Flags().GetFloat64("duration")
	useCbor, _ := cmd.Flags().GetBool("cbor")

	c := mustClient()

	err := listenFor(c, key, time.Duration(secs*float64(time.Second)),
		func(m appcli.EvtMsg) {
			b, err := renderMap(evtMap(m.ConnHandle, m.Evt), useCbor)
			if err != nil {
				fmt.Printf("%s: %s\n", m.Evt.EvtId(), err.Error())
				return
			}

			if useCbor {
				fmt.Printf("%s\n", hex.EncodeToString(b))
			} else {
				fmt.Printf("%s\n", b)
			}
		})
	if err != nil {
		bsUsage(nil, util.ChildNewtError(err))
	}
}

func listenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen [conn_handle] -c <conn_profile>",
		Short: "Display events as they arrive",
		Long: "Displays every event reported by the device.  If a " +
			"connection handle is given, only events for that connection " +
			"are shown.",
		Run: listenRunCmd,
	}

	cmd.Flags().Float64("duration", 0,
		"Seconds to listen for; 0 listens until interrupted")
	cmd.Flags().Bool("cbor", false, "Display events as hex-encoded CBOR")

	return cmd
}
