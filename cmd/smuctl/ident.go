// Copyright (c) 2021–2024 The smu2600 developers. All rights reserved.
// Project site: https://github.com/gotmc/smu2600
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package main

import (
	"errors"
	"fmt"

	"github.com/gotmc/smu2600"
	"github.com/spf13/cobra"
)

var identCmd = &cobra.Command{
	Use:   "ident",
	Short: "Identify the instrument and report its capabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := connect(cmd)
		if err != nil {
			return err
		}
		defer rc.cleanup()

		fmt.Printf("model:          %s\n", rc.smu.Model())
		fmt.Printf("voltage ranges: %v\n", rc.smu.AvailableVoltageRanges())
		fmt.Printf("current ranges: %v\n", rc.smu.AvailableCurrentRanges())

		chA, err := rc.smu.Channel(smu2600.ChannelA)
		if err != nil {
			return err
		}
		fmt.Println(chA.Identify())
		chB, err := rc.smu.Channel(smu2600.ChannelB)
		switch {
		case err == nil:
			fmt.Println(chB.Identify())
		case errors.Is(err, smu2600.ErrUnsupportedChannel):
			fmt.Println("single-channel unit")
		default:
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(identCmd)
}
