package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/bookweave/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	app := &cli.App{
		Name:    "bookweave",
		Usage:   "Prompt template toolkit for the EPUB translation pipeline",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (trace, debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			cmd.CheckCommand(),
			cmd.VarsCommand(),
			cmd.RenderCommand(),
			cmd.PreviewCommand(),
			cmd.ConfigCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
