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
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/abiosoft/ishell.v2"

	"mynewt.apache.org/bleser/bleser/bsutil"
	"mynewt.apache.org/bleser/serxact/appcli"
	. "mynewt.apache.org/bleser/serxact/bledefs"
	"mynewt.apache.org/bleser/serxact/sergap"
	"mynewt.apache.org/newt/util"
)

// A shell command runs against the shared client and returns text to
// display.
type shellFn func(c *appcli.Client, args []string) (string, error)

type shellCmdDef struct {
	name string
	help string
	fn   shellFn
}

var shellCmdDefs = []shellCmdDef{
	{"addr", "Get or set the device address: addr [[type,]addr]", shAddr},
	{"name", "Get or set the device name: name [name]", shName},
	{"appearance", "Get or set the appearance: appearance [value]",
		shAppearance},
	{"scan", "Scan for advertisers: scan [seconds]", shScan},
	{"connect", "Connect as central: connect [type,]addr", shConnect},
	{"disconnect", "Terminate a connection: disconnect conn_handle",
		shDisconnect},
	{"pair", "Pair and bond on a connection: pair conn_handle", shPair},
	{"sec", "Display connection security: sec conn_handle", shSec},
	{"rssi", "Display connection RSSI: rssi conn_handle", shRssi},
}

func shConnHandle(args []string) (uint16, error) {
	if len(args) < 1 {
		return 0, util.NewNewtError("Must specify a connection handle")
	}

	return parseConnHandle(args[0])
}

func shAddr(c *appcli.Client, args []string) (string, error) {
	if len(args) == 0 {
		dev, err := c.AddressGet()
		if err != nil {
			return "", err
		}
		return dev.String(), nil
	}

	dev, err := ParseBleDev(args[0])
	if err != nil {
		return "", err
	}

	return "Done", c.AddressSet(0, &dev)
}

func shName(c *appcli.Client, args []string) (string, error) {
	if len(args) == 0 {
		name, err := c.DevNameGet(BLE_GAP_DEVNAME_MAX_LEN)
		if err != nil {
			return "", err
		}
		return string(name), nil
	}

	name := strings.Join(args, " ")
	return "Done", c.DevNameSet(&BleConnSecMode{Sm: 1, Lv: 1}, []byte(name))
}

func shAppearance(c *appcli.Client, args []string) (string, error) {
	if len(args) == 0 {
		appearance, err := c.AppearanceGet()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("0x%04x", appearance), nil
	}

	u64, err := strconv.ParseUint(args[0], 0, 16)
	if err != nil {
		return "", util.FmtNewtError("Invalid appearance: %s", args[0])
	}

	return "Done", c.AppearanceSet(uint16(u64))
}

func shScan(c *appcli.Client, args []string) (string, error) {
	secs := 3.0
	if len(args) > 0 {
		var err error
		secs, err = strconv.ParseFloat(args[0], 64)
		if err != nil || secs <= 0 {
			return "", util.FmtNewtError("Invalid duration: %s", args[0])
		}
	}

	params := BleScanParams{
		Active:   true,
		Interval: 0xa0,
		Window:   0x50,
	}

	lines := []string{}
	err := scanFor(c, &params, time.Duration(secs*float64(time.Second)),
		func(ev *sergap.AdvReportEvt) {
			lines = append(lines, fmt.Sprintf("%s rssi=%d data=%x",
				ev.PeerAddr.String(), ev.Rssi, ev.Data))
		})
	if err != nil {
		return "", err
	}

	return strings.Join(lines, "\n"), nil
}

func shConnect(c *appcli.Client, args []string) (string, error) {
	if len(args) < 1 {
		return "", util.NewNewtError("Must specify a peer address")
	}

	dev, err := ParseBleDev(args[0])
	if err != nil {
		return "", err
	}

	scanParams := BleScanParams{Interval: 0xa0, Window: 0x50}
	connParams := defaultConnParams()

	h, err := connectTo(c, &dev, &scanParams, &connParams,
		clientCfg().RspTimeout)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("conn_handle=%d", h), nil
}

func shDisconnect(c *appcli.Client, args []string) (string, error) {
	h, err := shConnHandle(args)
	if err != nil {
		return "", err
	}

	reason := sergap.BLE_HCI_REMOTE_USER_TERMINATED_CONNECTION
	return "Done", c.Disconnect(h, reason)
}

func shPair(c *appcli.Client, args []string) (string, error) {
	h, err := shConnHandle(args)
	if err != nil {
		return "", err
	}

	params := defaultSecParams()
	status, keyset, err := pairWith(c, h, &params, 3*clientCfg().RspTimeout)
	if err != nil {
		return "", err
	}

	s := fmt.Sprintf("bonded=%v", status.Bonded)
	if k := keyset.KeysPeer.EncKey; k != nil {
		s += fmt.Sprintf(" peer_ltk=%s ediv=0x%04x",
			k.EncInfo.Ltk.String(), k.MasterId.Ediv)
	}
	if k := keyset.KeysPeer.IdKey; k != nil {
		s += fmt.Sprintf(" peer_irk=%s", k.IdInfo.Irk.String())
	}

	return s, nil
}

func shSec(c *appcli.Client, args []string) (string, error) {
	h, err := shConnHandle(args)
	if err != nil {
		return "", err
	}

	sec, err := c.ConnSecGet(h)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("sm=%d lv=%d encr_key_size=%d",
		sec.SecMode.Sm, sec.SecMode.Lv, sec.EncrKeySize), nil
}

func shRssi(c *appcli.Client, args []string) (string, error) {
	h, err := shConnHandle(args)
	if err != nil {
		return "", err
	}

	rssi, err := c.RssiGet(h)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d dBm", rssi), nil
}

// Reports events that no command is waiting for.
func printUnclaimedEvts(shell *ishell.Shell, c *appcli.Client,
	stopChan chan struct{}) error {

	bl := appcli.NewListener()
	if err := c.Listeners().AddListener(appcli.AnyKey(), bl); err != nil {
		return err
	}

	go func() {
		defer c.Listeners().RemoveListener(bl)

		for {
			select {
			case m := <-bl.EvtChan:
				shell.Printf("[evt] %s conn_handle=%d\n",
					m.Evt.EvtId(), m.ConnHandle)

			case err := <-bl.ErrChan:
				shell.Printf("[link] %s\n", err.Error())
				return

			case <-stopChan:
				return
			}
		}
	}()

	return nil
}

func startShell(cmd *cobra.Command, args []string) {
	c := mustClient()

	shell := ishell.New()
	shell.SetPrompt("> ")

	shell.Println()
	shell.Println(" " + bsutil.ToolInfo.ShortName + " shell mode")
	shell.Println("	Connection profile: ", bsutil.ConnProfile)
	shell.Println()

	for _, d := range shellCmdDefs {
		d := d
		shell.AddCmd(&ishell.Cmd{
			Name: d.name,
			Help: d.help,
			Func: func(ctx *ishell.Context) {
				out, err := d.fn(c, ctx.Args)
				if err != nil {
					ctx.Println("Error:", err.Error())
					return
				}
				if out != "" {
					ctx.Println(out)
				}
			},
		})
	}

	stopChan := make(chan struct{})
	if err := printUnclaimedEvts(shell, c, stopChan); err != nil {
		bsUsage(nil, util.ChildNewtError(err))
	}

	shell.Run()
	close(stopChan)
	shell.Close()
}

func shellCmd() *cobra.Command {
	return &cobra.Command{
		Use: "shell -c <conn_profile>",
		Short: "Run " + bsutil.ToolInfo.ShortName +
			" interactively over a single link",
		Long: "Keeps one link to the connectivity chip open across " +
			"commands, so connections and pairing state survive from one " +
			"command to the next.  Events that no command is waiting for " +
			"are displayed as they arrive.",
		Run: startShell,
	}
}
