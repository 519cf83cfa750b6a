package main

import (
	"fmt"

	"github.com/spf13/cobra"

	echoapi "github.com/trezcool/nudge/apps/api/echo"
)

func (cli *commandLine) tokenCommand() *cobra.Command {
	var isAdmin bool
	cmd := &cobra.Command{
		Use:   "token SUBJECT",
		Short: "Issue an API bearer token for a student id, or for a platform service with --admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.token(args[0], isAdmin)
		},
	}
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "grant admin access")
	return cmd
}

func (cli *commandLine) token(subject string, isAdmin bool) error {
	token, err := echoapi.GenerateToken(echoapi.NewClaims(cli.conf, subject, isAdmin), cli.conf.SecretKey)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cli.out, token)
	return err
}
