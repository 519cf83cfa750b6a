package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func (cli *commandLine) sweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Email the inactive students once (cron-friendly)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.sweep(cmd.Context())
		},
	}
}

func (cli *commandLine) sweep(ctx context.Context) error {
	app, err := cli.getApp()
	if err != nil {
		return err
	}

	rep, err := app.EncouragementSvc.Sweep(ctx)
	if err != nil {
		return err
	}
	if cli.outputFormat() == "json" {
		return json.NewEncoder(cli.out).Encode(rep)
	}
	_, err = fmt.Fprintf(cli.out, "sweep %s: %d students, %d sent, %d throttled, %d failed, %d errors\n",
		rep.RunID, rep.Students, rep.Sent, rep.Suppressed, rep.Failed, rep.Errors)
	return err
}
