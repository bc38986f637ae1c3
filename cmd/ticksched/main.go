package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

var version = "dev"

func main() {
	app := cli.App{
		Name:      "ticksched",
		HelpName:  "ticksched",
		Usage:     "drive the cooperative slice scheduler with a YAML workload",
		Version:   version,
		UsageText: "ticksched <command> [arguments...]",
		Commands: []cli.Command{
			{
				Name:    "run",
				Aliases: []string{"r"},
				Usage:   "submit the configured workload and wait until the scheduler is idle",
				Action:  run,
				Flags:   runFlags,
			},
			{
				Name:    "version",
				Aliases: []string{"v"},
				Usage:   "prints the ticksched version",
				Action: func(*cli.Context) error {
					fmt.Println(version)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ticksched: %s\n", err)
		os.Exit(1)
	}
}
