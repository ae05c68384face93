// Copyright (c) 2021–2024 The smu2600 developers. All rights reserved.
// Project site: https://github.com/gotmc/smu2600
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package main

import (
	"fmt"

	"github.com/gotmc/smu2600"
	"github.com/spf13/cobra"
)

var (
	measureChannel  string
	measureQuantity string
)

var measureCmd = &cobra.Command{
	Use:   "measure",
	Short: "Trigger a single reading",
	Long: `Trigger a single reading on one channel, or a time-correlated
reading on both channels at once.

Quantities: v (voltage), i (current), r (resistance), p (power),
iv (current and voltage simultaneously).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := connect(cmd)
		if err != nil {
			return err
		}
		defer rc.cleanup()

		if measureChannel == "both" {
			return measureBoth(rc.smu)
		}
		ch, err := rc.smu.Channel(smu2600.ChannelID(measureChannel))
		if err != nil {
			return err
		}
		switch measureQuantity {
		case "v":
			v, err := ch.MeasureVoltage()
			if err != nil {
				return err
			}
			fmt.Printf("%s: %g V\n", ch.Identify(), v)
		case "i":
			v, err := ch.MeasureCurrent()
			if err != nil {
				return err
			}
			fmt.Printf("%s: %g A\n", ch.Identify(), v)
		case "r":
			v, err := ch.MeasureResistance()
			if err != nil {
				return err
			}
			fmt.Printf("%s: %g Ohm\n", ch.Identify(), v)
		case "p":
			v, err := ch.MeasurePower()
			if err != nil {
				return err
			}
			fmt.Printf("%s: %g W\n", ch.Identify(), v)
		case "iv":
			i, v, err := ch.MeasureCurrentAndVoltage()
			if err != nil {
				return err
			}
			fmt.Printf("%s: %g A, %g V\n", ch.Identify(), i, v)
		default:
			return fmt.Errorf("unknown quantity %q", measureQuantity)
		}
		return nil
	},
}

func measureBoth(smu *smu2600.Instrument) error {
	switch measureQuantity {
	case "v":
		a, b, err := smu.MeasureBothVoltage()
		if err != nil {
			return err
		}
		fmt.Printf("chA: %g V, chB: %g V\n", a, b)
	case "i":
		a, b, err := smu.MeasureBothCurrent()
		if err != nil {
			return err
		}
		fmt.Printf("chA: %g A, chB: %g A\n", a, b)
	case "r":
		a, b, err := smu.MeasureBothResistance()
		if err != nil {
			return err
		}
		fmt.Printf("chA: %g Ohm, chB: %g Ohm\n", a, b)
	case "p":
		a, b, err := smu.MeasureBothPower()
		if err != nil {
			return err
		}
		fmt.Printf("chA: %g W, chB: %g W\n", a, b)
	case "iv":
		ia, va, ib, vb, err := smu.MeasureBothCurrentAndVoltage()
		if err != nil {
			return err
		}
		fmt.Printf("chA: %g A, %g V; chB: %g A, %g V\n", ia, va, ib, vb)
	default:
		return fmt.Errorf("unknown quantity %q", measureQuantity)
	}
	return nil
}

func init() {
	measureCmd.Flags().StringVar(&measureChannel, "channel", "a", "channel: a, b or both")
	measureCmd.Flags().StringVarP(&measureQuantity, "quantity", "q", "iv", "quantity: v, i, r, p or iv")
	rootCmd.AddCommand(measureCmd)
}
