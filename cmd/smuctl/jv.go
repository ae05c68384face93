// Copyright (c) 2021–2024 The smu2600 developers. All rights reserved.
// Project site: https://github.com/gotmc/smu2600
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gotmc/smu2600"
	"github.com/spf13/cobra"
)

var jvCmd = &cobra.Command{
	Use:   "jv",
	Short: "Record a J-V curve with a photodiode on channel B",
	Long: `Step channel A through a voltage scan, reading the device current
and voltage at each step together with the photodiode current on channel
B. The device current range is bumped upwards during the scan as the
current grows, so the reading never clips.

Scan parameters come from the JV section of the config file; flag
defaults run a -2 V to 5 V scan in 0.1 V steps.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := connect(cmd)
		if err != nil {
			return err
		}
		defer rc.cleanup()

		scan := rc.conf.JV
		if scan.Step == 0 {
			scan.Start, scan.Stop, scan.Step = -2, 5, 0.1
			scan.DelayMs = 10
			scan.VoltageRange = 10
		}
		if scan.OutputCSV == "" {
			scan.OutputCSV = fmt.Sprintf("jv-%s.csv", time.Now().Format("2006_01_02"))
		}

		chA, err := rc.smu.Channel(smu2600.ChannelA)
		if err != nil {
			return err
		}
		chB, err := rc.smu.Channel(smu2600.ChannelB)
		if err != nil {
			return err
		}

		if err := chA.Reset(); err != nil {
			return err
		}
		if err := chA.Configure(smu2600.Config{
			Mode:         smu2600.VoltageSource,
			VoltageRange: scan.VoltageRange,
			VoltageLimit: scan.VoltageRange,
			Display:      smu2600.DisplayCurrent,
			Sense:        smu2600.Sense2Wire,
			Speed:        smu2600.SpeedNormal,
		}); err != nil {
			return err
		}
		if err := chA.SetLevel(smu2600.Voltage, 0); err != nil {
			return err
		}

		if err := chB.Reset(); err != nil {
			return err
		}
		if err := chB.Configure(smu2600.Config{
			VoltageRange:     0.2,
			VoltageLimit:     0.2,
			AutorangeCurrent: true,
			Display:          smu2600.DisplayCurrent,
			Sense:            smu2600.Sense2Wire,
			Speed:            smu2600.SpeedNormal,
		}); err != nil {
			return err
		}

		if err := chA.EnableOutput(); err != nil {
			return err
		}
		if err := chB.EnableOutput(); err != nil {
			return err
		}

		steps := int((scan.Stop-scan.Start)/scan.Step) + 1
		voltages := make([]float64, 0, steps)
		currents := make([]float64, 0, steps)
		pdCurrents := make([]float64, 0, steps)

		started := time.Now()
		for n := 0; n < steps; n++ {
			time.Sleep(time.Duration(scan.DelayMs) * time.Millisecond)
			level := scan.Start + scan.Step*float64(n)
			if err := chA.SetLevel(smu2600.Voltage, level); err != nil {
				return err
			}
			current, voltage, err := chA.MeasureCurrentAndVoltage()
			if err != nil {
				return err
			}
			if err := bumpCurrentRange(chA, current); err != nil {
				return err
			}
			pd, err := chB.MeasureCurrent()
			if err != nil {
				return err
			}
			voltages = append(voltages, voltage)
			currents = append(currents, current)
			pdCurrents = append(pdCurrents, pd)
			log.Printf("%g V: %g mA device, %g mA photodiode", voltage, current*1e3, pd*1e3)
		}
		log.Printf("scan done in %s", time.Since(started).Round(time.Millisecond))

		if err := chA.DisableOutput(); err != nil {
			return err
		}
		if err := chB.DisableOutput(); err != nil {
			return err
		}
		return writeJVCSV(scan.OutputCSV, voltages, currents, pdCurrents)
	},
}

// bumpCurrentRange widens channel A's current range and limit as the
// device current approaches the top of the active range. Thresholds in
// amperes; the driver rounds the requests up to legal ranges.
func bumpCurrentRange(ch *smu2600.Channel, current float64) error {
	abs := current
	if abs < 0 {
		abs = -abs
	}
	var next float64
	switch {
	case abs >= 0.09 && abs <= 0.19:
		next = 0.2
	case abs > 0.19 && abs <= 0.29:
		next = 0.3
	case abs > 0.29 && abs <= 0.39:
		next = 0.4
	case abs > 0.39 && abs <= 0.69:
		next = 0.7
	default:
		return nil
	}
	if err := ch.SetRange(smu2600.Current, next); err != nil {
		return err
	}
	return ch.SetLimit(smu2600.Current, next)
}

func writeJVCSV(path string, voltages, currents, pdCurrents []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Voltage (V)", "Current (mA)", "Current_pd (mA)"}); err != nil {
		return err
	}
	for n := range voltages {
		rec := []string{
			strconv.FormatFloat(voltages[n], 'g', -1, 64),
			strconv.FormatFloat(currents[n]*1e3, 'g', -1, 64),
			strconv.FormatFloat(pdCurrents[n]*1e3, 'g', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func init() {
	rootCmd.AddCommand(jvCmd)
}
