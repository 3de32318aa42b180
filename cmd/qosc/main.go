package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/iprasannamb/qosc/internal/handlers"
)

func newApp() *cli.App {
	return &cli.App{
		Name:    "qosc",
		Usage:   "quantum state-vector simulator and playground API",
		Version: handlers.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML configuration file",
				EnvVars: []string{"QOSC_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand,
			runCommand,
			exportCommand,
			algorithmsCommand,
			gatesCommand,
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "qosc:", err)
		os.Exit(1)
	}
}
