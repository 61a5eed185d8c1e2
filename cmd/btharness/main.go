// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/jessevdk/go-flags"

	"btharness/harness"
	"btharness/harness/config"
	"btharness/harness/logging"

	log "github.com/sirupsen/logrus"
)

const binaryVersion = "0.1.0"

type options struct {
	LogLevel   string `long:"log-level" description:"log level, overrides the configured one"`
	ConfigFile string `long:"config" description:"path to the yaml configuration file"`
	Listen     string `long:"listen" description:"listen address, overrides the configured one"`
	Version    bool   `long:"version" description:"print version and exit"`
}

func main() {
	// More frequent GC reduces the tail latencies, equivalent to export GOGC=33
	debug.SetGCPercent(33)

	opts, _ := getCLIArgs()
	if opts.Version {
		fmt.Println("btharness", binaryVersion)
		os.Exit(0)
	}

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	logging.SetLogLevel(cfg.LogLevel)

	h := harness.New(cfg)

	startHTTPServer(cfg.Listen, h)
}

func getCLIArgs() (options, []string) {
	var opts options
	parser := flags.NewParser(&opts, flags.IgnoreUnknown)
	args, err := parser.ParseArgs(os.Args)

	if err != nil {
		log.WithError(err).Fatal("Failed to parse command line arguments:", os.Args)
	}

	return opts, args
}
