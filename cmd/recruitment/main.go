package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

var configFlag = cli.StringFlag{
	Name:  "config, c",
	Usage: "Path to the YAML configuration file",
	Value: "config.yml",
}

func main() {
	app := cli.NewApp()
	app.Name = "recruitment"
	app.Usage = "Deposit escrow engine with monthly refund schedules"
	app.Commands = []cli.Command{
		{
			Name:   "serve",
			Usage:  "Deploy the engine and serve HTTP API",
			Flags:  []cli.Flag{configFlag},
			Action: serve,
		},
		{
			Name:  "dump",
			Usage: "Write engine state dump",
			Flags: []cli.Flag{
				configFlag,
				cli.StringFlag{Name: "out", Usage: "Dump directory", Value: "testdata"},
				cli.StringFlag{Name: "label", Usage: "Label of the environment (e.g. 'staging')"},
			},
			Action: dumpState,
		},
		{
			Name:  "restore",
			Usage: "Load the latest engine state dump with the label into the configured storage",
			Flags: []cli.Flag{
				configFlag,
				cli.StringFlag{Name: "in", Usage: "Dump directory", Value: "testdata"},
				cli.StringFlag{Name: "label", Usage: "Label of the environment (e.g. 'staging')"},
			},
			Action: restoreState,
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
