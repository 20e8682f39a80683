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

	"github.com/spf13/cobra"

	"mynewt.apache.org/bleser/bleser/bsutil"
	. "mynewt.apache.org/bleser/serxact/bledefs"
	"mynewt.apache.org/newt/util"
)

func addrGetRunCmd(cmd *cobra.Command, args []string) {
	c := mustClient()

	dev, err := c.AddressGet()
	if err != nil {
		bsUsage(nil, util.ChildNewtError(err))
	}

	fmt.Printf("%s\n", dev.String())
}

func addrSetRunCmd(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		bsUsage(cmd, util.NewNewtError("Must specify an address"))
	}

	dev, err := ParseBleDev(args[0])
	if err != nil {
		bsUsage(cmd, util.ChildNewtError(err))
	}

	cycleMode, _ := cmd.Flags().GetUint8("cycle-mode")

	c := mustClient()
	if err := c.AddressSet(cycleMode, &dev); err != nil {
		bsUsage(nil, util.ChildNewtError(err))
	}

	fmt.Printf("Done\n")
}

func addrCmd() *cobra.Command {
	addrCmd := &cobra.Command{
		Use:   "addr",
		Short: "Read or change the device address",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	addrCmd.AddCommand(&cobra.Command{
		Use:   "get -c <conn_profile>",
		Short: "Display the device address",
		Run:   addrGetRunCmd,
	})

	setCmd := &cobra.Command{
		Use:   "set [addr_type,]<addr> -c <conn_profile>",
		Short: "Set the device address",
		Example: "  " + bsutil.ToolInfo.ExeName +
			" addr set random_static,c0:11:22:33:44:55 -c nrf",
		Run: addrSetRunCmd,
	}
	setCmd.Flags().Uint8("cycle-mode", 0,
		"Address cycle mode (0=none, 1=auto)")
	addrCmd.AddCommand(setCmd)

	return addrCmd
}

func nameGetRunCmd(cmd *cobra.Command, args []string) {
	maxLen, _ := cmd.Flags().GetUint16("max")

	c := mustClient()
	name, err := c.DevNameGet(maxLen)
	if err != nil {
		bsUsage(nil, util.ChildNewtError(err))
	}

	fmt.Printf("%s\n", string(name))
}

func nameSetRunCmd(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		bsUsage(cmd, util.NewNewtError("Must specify a name"))
	}

	var writePerm *BleConnSecMode
	if cmd.Flags().Changed("write-perm") {
		s, _ := cmd.Flags().GetString("write-perm")

		var sm, lv uint8
		if _, err := fmt.Sscanf(s, "%d:%d", &sm, &lv); err != nil {
			bsUsage(cmd, util.FmtNewtError("Invalid write permission: %s", s))
		}
		writePerm = &BleConnSecMode{Sm: sm, Lv: lv}
	}

	c := mustClient()
	if err := c.DevNameSet(writePerm, []byte(args[0])); err != nil {
		bsUsage(nil, util.ChildNewtError(err))
	}

	fmt.Printf("Done\n")
}

func nameCmd() *cobra.Command {
	nameCmd := &cobra.Command{
		Use:   "name",
		Short: "Read or change the GAP device name",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	getCmd := &cobra.Command{
		Use:   "get -c <conn_profile>",
		Short: "Display the device name",
		Run:   nameGetRunCmd,
	}
	getCmd.Flags().Uint16("max", BLE_GAP_DEVNAME_MAX_LEN,
		"Size of the name buffer")
	nameCmd.AddCommand(getCmd)

	setCmd := &cobra.Command{
		Use:   "set <name> -c <conn_profile>",
		Short: "Set the device name",
		Run:   nameSetRunCmd,
	}
	setCmd.Flags().String("write-perm", "",
		"Write permission as <security_mode>:<level>")
	nameCmd.AddCommand(setCmd)

	return nameCmd
}

func appearanceRunCmd(cmd *cobra.Command, args []string) {
	c := mustClient()

	if len(args) == 0 {
		app, err := c.AppearanceGet()
		if err != nil {
			bsUsage(nil, util.ChildNewtError(err))
		}
		fmt.Printf("0x%04x\n", app)
		return
	}

	u64, err := strconv.ParseUint(args[0], 0, 16)
	if err != nil {
		bsUsage(cmd, util.FmtNewtError("Invalid appearance: %s", args[0]))
	}

	if err := c.AppearanceSet(uint16(u64)); err != nil {
		bsUsage(nil, util.ChildNewtError(err))
	}

	fmt.Printf("Done\n")
}

func appearanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "appearance [value] -c <conn_profile>",
		Short: "Display or set the GAP appearance",
		Example: "  " + bsutil.ToolInfo.ExeName + " appearance -c nrf\n" +
			"  " + bsutil.ToolInfo.ExeName + " appearance 0x03c1 -c nrf",
		Run: appearanceRunCmd,
	}
}

func txPowerRunCmd(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		bsUsage(cmd, util.NewNewtError("Must specify a TX power"))
	}

	i64, err := strconv.ParseInt(args[0], 0, 8)
	if err != nil {
		bsUsage(cmd, util.FmtNewtError("Invalid TX power: %s", args[0]))
	}

	c := mustClient()
	if err := c.TxPowerSet(int8(i64)); err != nil {
		bsUsage(nil, util.ChildNewtError(err))
	}

	fmt.Printf("Done\n")
}

func txPowerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "txpower <dbm> -c <conn_profile>",
		Short: "Set the radio transmit power",
		Run:   txPowerRunCmd,
	}
}

func advDataRunCmd(cmd *cobra.Command, args []string) {
	var data, srData []byte
	var err error

	if len(args) > 0 {
		if data, err = parseHexBytes(args[0]); err != nil {
			bsUsage(cmd, err)
		}
	}

	if s, _ := cmd.Flags().GetString("sr"); s != "" {
		if srData, err = parseHexBytes(s); err != nil {
			bsUsage(cmd, err)
		}
	}

	c := mustClient()
	if err := c.AdvDataSet(data, srData); err != nil {
		bsUsage(nil, util.ChildNewtError(err))
	}

	fmt.Printf("Done\n")
}

func advParamsFromFlags(cmd *cobra.Command) (BleAdvParams, error) {
	params := BleAdvParams{}

	typStr, _ := cmd.Flags().GetString("type")
	typ, err := BleAdvTypeFromString(typStr)
	if err != nil {
		return params, util.ChildNewtError(err)
	}
	params.Type = typ

	params.Interval, _ = cmd.Flags().GetUint16("interval")
	params.Timeout, _ = cmd.Flags().GetUint16("duration")

	if s, _ := cmd.Flags().GetString("peer"); s != "" {
		dev, err := ParseBleDev(s)
		if err != nil {
			return params, util.ChildNewtError(err)
		}
		params.PeerAddr = &dev
	}

	return params, nil
}

func advStartRunCmd(cmd *cobra.Command, args []string) {
	params, err := advParamsFromFlags(cmd)
	if err != nil {
		bsUsage(cmd, err)
	}

	c := mustClient()
	if err := c.AdvStart(&params); err != nil {
		bsUsage(nil, util.ChildNewtError(err))
	}

	fmt.Printf("Advertising\n")
}

func advStopRunCmd(cmd *cobra.Command, args []string) {
	c := mustClient()
	if err := c.AdvStop(); err != nil {
		bsUsage(nil, util.ChildNewtError(err))
	}

	fmt.Printf("Done\n")
}

func advCmd() *cobra.Command {
	advCmd := &cobra.Command{
		Use:   "adv",
		Short: "Manage advertising",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	dataCmd := &cobra.Command{
		Use:   "data [hex] -c <conn_profile>",
		Short: "Set advertising and scan response data",
		Example: "  " + bsutil.ToolInfo.ExeName +
			" adv data 020106 --sr 050962736572 -c nrf",
		Run: advDataRunCmd,
	}
	dataCmd.Flags().String("sr", "", "Scan response data (hex)")
	advCmd.AddCommand(dataCmd)

	startCmd := &cobra.Command{
		Use:   "start -c <conn_profile>",
		Short: "Start advertising",
		Run:   advStartRunCmd,
	}
	startCmd.Flags().String("type", "ind",
		"Advertisement type (ind, direct_ind, scan_ind, nonconn_ind)")
	startCmd.Flags().Uint16("interval", 0x40,
		"Advertising interval in 0.625 ms units")
	startCmd.Flags().Uint16("duration", 0,
		"Advertising timeout in seconds; 0 for none")
	startCmd.Flags().String("peer", "", "Peer address for directed advertising")
	advCmd.AddCommand(startCmd)

	advCmd.AddCommand(&cobra.Command{
		Use:   "stop -c <conn_profile>",
		Short: "Stop advertising",
		Run:   advStopRunCmd,
	})

	return advCmd
}
