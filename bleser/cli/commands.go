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
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mynewt.apache.org/bleser/bleser/bsutil"
	"mynewt.apache.org/bleser/serxact/serxutil"
	"mynewt.apache.org/newt/util"
)

var BleserLogLevel log.Level

var onExit func()

func BsSetOnExit(fn func()) {
	onExit = fn
}

func bsExit(code int) {
	if onExit != nil {
		onExit()
	}
	os.Exit(code)
}

func bsUsage(cmd *cobra.Command, err error) {
	if err != nil {
		if nerr, ok := err.(*util.NewtError); ok {
			log.Debugf("%s", nerr.StackTrace)
			fmt.Fprintf(os.Stderr, "Error: %s\n", nerr.Text)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		}
	}

	if cmd != nil {
		fmt.Printf("\n")
		fmt.Printf("%s - ", cmd.Name())
		cmd.Help()
	}

	bsExit(1)
}

func Commands() *cobra.Command {
	logLevelStr := ""
	bsCmd := &cobra.Command{
		Use: bsutil.ToolInfo.ExeName,
		Short: bsutil.ToolInfo.ShortName +
			" drives a BLE connectivity chip over the GAP serialization link",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var err error
			BleserLogLevel, err = log.ParseLevel(logLevelStr)
			if err != nil {
				bsUsage(nil, util.ChildNewtError(err))
			}

			err = util.Init(BleserLogLevel, "", util.VERBOSITY_DEFAULT)
			if err != nil {
				bsUsage(nil, err)
			}
			serxutil.SetLogLevel(BleserLogLevel)
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	bsCmd.PersistentFlags().StringVarP(&bsutil.ConnProfile, "conn", "c", "",
		"connection profile to use")

	bsCmd.PersistentFlags().Float64VarP(&bsutil.Timeout, "timeout", "t", 10.0,
		"timeout in seconds (partial seconds allowed)")

	bsCmd.PersistentFlags().StringVarP(&logLevelStr, "loglevel", "l", "info",
		"log level to use")

	bsCmd.PersistentFlags().StringVar(&bsutil.ConnType, "conntype", "",
		"Connection type to use instead of using the profile's type")

	bsCmd.PersistentFlags().StringVar(&bsutil.ConnString, "connstring", "",
		"Connection key-value pairs to use instead of using the profile's "+
			"connstring")

	bsCmd.PersistentFlags().StringVar(&bsutil.ConnExtra, "connextra", "",
		"Additional key-value pair to append to the connstring")

	versCmd := &cobra.Command{
		Use:     "version",
		Short:   "Display the " + bsutil.ToolInfo.ShortName + " version number",
		Example: "  " + bsutil.ToolInfo.ExeName + " version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s\n",
				bsutil.ToolInfo.LongName,
				bsutil.ToolInfo.VersionString)
		},
	}
	bsCmd.AddCommand(versCmd)

	bsCmd.AddCommand(connProfileCmd())
	bsCmd.AddCommand(addrCmd())
	bsCmd.AddCommand(nameCmd())
	bsCmd.AddCommand(appearanceCmd())
	bsCmd.AddCommand(txPowerCmd())
	bsCmd.AddCommand(advCmd())
	bsCmd.AddCommand(scanCmd())
	bsCmd.AddCommand(connectCmd())
	bsCmd.AddCommand(disconnectCmd())
	bsCmd.AddCommand(rssiCmd())
	bsCmd.AddCommand(pairCmd())
	bsCmd.AddCommand(listenCmd())
	bsCmd.AddCommand(decodeCmd())
	bsCmd.AddCommand(emulateCmd())
	bsCmd.AddCommand(shellCmd())

	return bsCmd
}
