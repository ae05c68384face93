// Copyright (c) 2021–2024 The smu2600 developers. All rights reserved.
// Project site: https://github.com/gotmc/smu2600
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gotmc/smu2600"
	"github.com/spf13/cobra"
)

var (
	sweepChannel  string
	sweepQuantity string
	sweepStart    float64
	sweepStop     float64
	sweepPoints   int
	sweepSettle   time.Duration
	sweepCSV      string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a hardware-executed linear staircase sweep",
	Long: `Run a linear staircase sweep on the instrument itself and read
the captured result back from the non-volatile buffer. Sweeping voltage
measures current at each step and vice versa.

Defaults come from the Sweep section of the config file when one is
given with --config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := connect(cmd)
		if err != nil {
			return err
		}
		defer rc.cleanup()

		spec := smu2600.SweepSpec{
			Start:        sweepStart,
			Stop:         sweepStop,
			SettlingTime: sweepSettle,
			Points:       sweepPoints,
		}
		if !cmd.Flags().Changed("start") && rc.conf.Sweep.Points > 0 {
			spec.Start = rc.conf.Sweep.Start
			spec.Stop = rc.conf.Sweep.Stop
			spec.Points = rc.conf.Sweep.Points
			spec.SettlingTime = time.Duration(rc.conf.Sweep.SettlingTimeMs) * time.Millisecond
		}
		csvPath := sweepCSV
		if csvPath == "" {
			csvPath = rc.conf.Sweep.OutputCSV
		}

		ch, err := rc.smu.Channel(smu2600.ChannelID(sweepChannel))
		if err != nil {
			return err
		}
		if err := ch.Reset(); err != nil {
			return err
		}

		var result *smu2600.SweepResult
		switch sweepQuantity {
		case "v":
			if err := ch.SetMode(smu2600.VoltageSource); err != nil {
				return err
			}
			if err := ch.EnableOutput(); err != nil {
				return err
			}
			result, err = ch.SweepVoltage(spec)
		case "i":
			if err := ch.SetMode(smu2600.CurrentSource); err != nil {
				return err
			}
			if err := ch.EnableOutput(); err != nil {
				return err
			}
			result, err = ch.SweepCurrent(spec)
		default:
			return fmt.Errorf("unknown sweep quantity %q", sweepQuantity)
		}
		if derr := ch.DisableOutput(); derr != nil && err == nil {
			err = derr
		}
		if err != nil {
			return err
		}

		current, voltage := result.CurrentVoltage()
		if csvPath == "" {
			for n := range current {
				fmt.Printf("%g\t%g\n", voltage[n], current[n])
			}
			return nil
		}
		return writeSweepCSV(csvPath, voltage, current)
	},
}

func writeSweepCSV(path string, voltage, current []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Voltage (V)", "Current (A)"}); err != nil {
		return err
	}
	for n := range voltage {
		rec := []string{
			strconv.FormatFloat(voltage[n], 'g', -1, 64),
			strconv.FormatFloat(current[n], 'g', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func init() {
	sweepCmd.Flags().StringVar(&sweepChannel, "channel", "a", "channel: a or b")
	sweepCmd.Flags().StringVarP(&sweepQuantity, "quantity", "q", "v", "swept quantity: v or i")
	sweepCmd.Flags().Float64Var(&sweepStart, "start", 0, "sweep start level")
	sweepCmd.Flags().Float64Var(&sweepStop, "stop", 1, "sweep stop level")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 101, "number of staircase steps")
	sweepCmd.Flags().DurationVar(&sweepSettle, "settle", 0, "settling time per step")
	sweepCmd.Flags().StringVar(&sweepCSV, "csv", "", "write the result to this CSV file")
	rootCmd.AddCommand(sweepCmd)
}
