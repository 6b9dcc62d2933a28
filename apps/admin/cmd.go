package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/trezcool/schoolhub/core/visitor"
	"github.com/trezcool/schoolhub/storage/database"
)

const defaultVisitorTTL = 30 * 24 * time.Hour

var (
	gooseRunFunc = database.RunMigrations // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sqlx.DB
	visitorSvc *visitor.Service
	out        io.Writer
}

func (cli *commandLine) run(args []string) error {
	root := &cobra.Command{
		Use:           "schoolhub-admin",
		Short:         "SchoolHub operator commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)
	root.SetArgs(args[1:])
	root.AddCommand(cli.migrateCmd(), cli.purgeVisitorsCmd())
	return root.Execute()
}

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <command> [args]",
		Short: "Run a goose command (up, up-to, down, down-to, redo, reset, status, version, create, fix)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return errHelp
			}
			return gooseRunFunc(cli.db, args[0], args[1:]...)
		},
	}
}

func (cli *commandLine) purgeVisitorsCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "purge-visitors",
		Short: "Delete the visitors not seen for a while, with their stored data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := cli.visitorSvc.Purge(context.Background(), olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d visitor(s) not seen for %s\n", n, olderThan)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", defaultVisitorTTL, "minimum inactivity of the purged visitors")
	return cmd
}
