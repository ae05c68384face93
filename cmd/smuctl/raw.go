// Copyright (c) 2021–2024 The smu2600 developers. All rights reserved.
// Project site: https://github.com/gotmc/smu2600
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package main

import (
	"strings"

	"github.com/gotmc/smu2600/lib/cmdlog"
	"github.com/spf13/cobra"
)

var rawCmd = &cobra.Command{
	Use:   "raw [tsp-command]...",
	Short: "Send raw TSP commands to the instrument",
	Long: `Send raw TSP commands on the bus session, bypassing the driver's
error-queue validation. Commands containing print(...) are run as queries
and their reply is shown.

Example:
  smuctl raw 'print(localnode.model)' 'smua.source.output = smua.OUTPUT_OFF'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := connect(cmd)
		if err != nil {
			return err
		}
		defer rc.cleanup()

		query, send := cmdlog.PrettyFuncs(rc.conn.Session)
		for _, arg := range args {
			if strings.Contains(arg, "print(") {
				query(arg)
			} else {
				send(arg)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rawCmd)
}
