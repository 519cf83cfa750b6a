package main

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/nudge/apps/shared"
	"github.com/trezcool/nudge/storage/database"
)

var (
	// mockables
	openDBFunc        = database.Open
	runMigrationsFunc = database.RunMigrations
)

func (cli *commandLine) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a goose command (up, down, status, up-to VERSION, ...) over the embedded migrations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.migrate(args)
		},
	}
}

func (cli *commandLine) migrate(args []string) error {
	if cli.conf.Database.Engine == shared.EngineMemory {
		return errors.New("migrations need a SQL database")
	}

	db, err := openDBFunc(cli.conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func(db *sql.DB) {
		if db != nil {
			_ = db.Close()
		}
	}(db)

	return runMigrationsFunc(db, args[0], args[1:]...)
}
