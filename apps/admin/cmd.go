package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/nudge/apps/shared"
	"github.com/trezcool/nudge/core"
)

var (
	// mockables
	newAppFunc = func(conf *core.Config, logger core.Logger) (*shared.App, error) {
		return shared.New(conf, logger, log.New(os.Stdout, "MAIL : ", log.LstdFlags))
	}
	isTerminalFunc = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

	outputFormats = []string{"table", "json"}
)

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	out    io.Writer

	app    *shared.App // set up on first use
	format string      // "table" | "json"; empty: table on a terminal, json otherwise
}

func (cli *commandLine) getApp() (*shared.App, error) {
	if cli.app == nil {
		app, err := newAppFunc(cli.conf, cli.logger)
		if err != nil {
			return nil, err
		}
		cli.app = app
	}
	return cli.app, nil
}

func (cli *commandLine) close() error {
	if cli.app == nil {
		return nil
	}
	return cli.app.Close()
}

func (cli *commandLine) outputFormat() string {
	if cli.format != "" {
		return cli.format
	}
	if isTerminalFunc() {
		return "table"
	}
	return "json"
}

func (cli *commandLine) rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "admin",
		Short:         cli.conf.AppName + " administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range outputFormats {
				if cli.format == "" || cli.format == f {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", cli.format, outputFormats)
		},
	}
	cmd.SetOut(cli.out)
	cmd.PersistentFlags().StringVar(&cli.format, "format", "", "output format (table|json); defaults to table on a terminal")

	cmd.AddCommand(cli.migrateCommand())
	cmd.AddCommand(cli.sweepCommand())
	cmd.AddCommand(cli.recordCommand())
	cmd.AddCommand(cli.tokenCommand())
	return cmd
}

// run executes the command line args (program name first).
func (cli *commandLine) run(args []string) error {
	cmd := cli.rootCommand()
	if len(args) > 0 {
		args = args[1:]
	}
	cmd.SetArgs(args)
	return cmd.Execute()
}
