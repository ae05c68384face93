// Copyright (c) 2021–2024 The smu2600 developers. All rights reserved.
// Project site: https://github.com/gotmc/smu2600
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package main

import (
	"log"
	"os"
	"time"

	"github.com/gotmc/smu2600"
	"github.com/gotmc/smu2600/cfg"
	"github.com/gotmc/smu2600/lib/connutil"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	resource string
	useLan   bool
	timeout  time.Duration
	debug    bool
)

var rootCmd = &cobra.Command{
	Use:   "smuctl",
	Short: "Control a Keithley 2600-series source-measure unit",
	Long: `Control a Keithley 2600-series source-measure unit over a serial
VCP adapter or the raw LAN command socket (port 5025).

Connection settings come from flags, or from a YAML file given with
--config; flags the user sets override the file.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "YAML run configuration file")
	pf.StringVarP(&resource, "resource", "r", "/dev/ttyUSB0",
		"serial device path, or host[:port] with --lan")
	pf.BoolVar(&useLan, "lan", false, "connect over the raw LAN socket instead of serial")
	pf.DurationVarP(&timeout, "timeout", "t", time.Second, "bus read timeout")
	pf.BoolVarP(&debug, "debug", "d", false, "log all TSP traffic")
}

func main() {
	log.SetFlags(log.Lmicroseconds)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runContext is everything a subcommand needs after connecting.
type runContext struct {
	smu     *smu2600.Instrument
	conn    *connutil.Conn
	conf    *cfg.Config
	cleanup func()
}

// loadConfig merges the optional config file with the flags: a flag the
// user set wins over the file, the file wins over flag defaults.
func loadConfig(cmd *cobra.Command) (*cfg.Config, error) {
	conf := &cfg.Config{}
	if cfgFile != "" {
		var err error
		conf, err = cfg.InitConfig(cfgFile)
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("resource") || conf.Resource == "" {
		conf.Resource = resource
	}
	if cmd.Flags().Changed("lan") {
		conf.Lan = useLan
	}
	if cmd.Flags().Changed("timeout") || conf.TimeoutMs == 0 {
		conf.TimeoutMs = timeout.Milliseconds()
	}
	if cmd.Flags().Changed("debug") {
		conf.Debug = debug
	}
	return conf, nil
}

func connect(cmd *cobra.Command) (*runContext, error) {
	conf, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	conn := &connutil.Conn{
		Resource: conf.Resource,
		Lan:      conf.Lan,
		Timeout:  conf.Timeout(),
		Debug:    conf.Debug,
	}
	var opts []smu2600.Option
	if conf.Debug {
		opts = append(opts, smu2600.WithDebug())
	}
	smu, cleanup, err := conn.Setup(opts)
	if err != nil {
		return nil, err
	}
	return &runContext{smu: smu, conn: conn, conf: conf, cleanup: cleanup}, nil
}
