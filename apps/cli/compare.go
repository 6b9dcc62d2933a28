package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/schoolhub/core/compare"
)

func (cli *commandLine) compareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Manage the comparison list (up to 4 schools)",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the compared schools",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				items := cli.store.List()
				if len(items) == 0 {
					cli.printf("No schools to compare yet.\n")
					return nil
				}
				tw := cli.table()
				fmt.Fprintln(tw, "ID\tNAME\tCITY")
				for _, sch := range items {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", sch.ID, sch.Name(), orDash(sch.City()))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				cli.printf("(%s)\n", progress(len(items)))
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <slug>",
			Short: "Add a school to the comparison",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				sch, err := cli.dir.GetSchool(context.Background(), args[0])
				if err != nil {
					return errors.Wrap(err, "getting school")
				}
				if err = cli.store.Add(sch); err != nil {
					return err
				}
				cli.printf("Comparing %s (%s)\n", sch.Name(), progress(cli.store.Len()))
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <id>",
			Short: "Remove a school from the comparison",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cli.store.Remove(args[0])
				cli.printf("Removed (%s)\n", progress(cli.store.Len()))
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the comparison list",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cli.store.Clear()
				cli.printf("Comparison cleared\n")
				return nil
			},
		},
		&cobra.Command{
			Use:   "table",
			Short: "Show the compared schools side by side",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return cli.printTable(compare.BuildTable(cli.store.List()))
			},
		},
	)
	return cmd
}

func (cli *commandLine) printTable(tbl compare.Table) error {
	if len(tbl.Columns) == 0 {
		cli.printf("No schools to compare yet.\n")
		return nil
	}

	tw := cli.table()
	names := make([]string, 0, len(tbl.Columns))
	for _, col := range tbl.Columns {
		names = append(names, col.Name)
	}
	fmt.Fprintf(tw, "\t%s\n", strings.Join(names, "\t"))
	for _, row := range tbl.Rows {
		fmt.Fprintf(tw, "%s\t%s\n", row.Label, strings.Join(row.Cells, "\t"))
	}
	return tw.Flush()
}
