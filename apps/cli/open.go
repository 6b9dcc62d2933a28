package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/schoolhub/core/auth"
	"github.com/trezcool/schoolhub/core/compare"
	"github.com/trezcool/schoolhub/core/school"
)

func (cli *commandLine) openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Check whether a page can be opened, and show its content when the terminal has it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			usr, ok := cli.session.Current()
			route, dec, err := auth.Resolve(args[0], usr, ok)
			if err != nil {
				return err
			}
			if !dec.Allowed {
				cli.printf("%s: redirecting to %s\n", dec.Err, dec.Redirect)
				return nil
			}
			cli.printf("%s (%s)\n", route.Name, route.Path)
			return cli.showPage(route)
		},
	}
}

// showPage prints the data of the private pages.
func (cli *commandLine) showPage(route auth.Route) error {
	ctx := context.Background()
	var (
		schools []school.School
		err     error
	)
	switch route.Path {
	case auth.PathDashboard:
		return cli.printTable(compare.BuildTable(cli.store.List()))
	case auth.PathAdmin:
		schools, err = cli.dir.MySchools(ctx)
		err = errors.Wrap(err, "getting admin schools")
	case auth.PathSuperAdmin:
		schools, err = cli.dir.PendingSchools(ctx)
		err = errors.Wrap(err, "getting pending schools")
	default:
		return nil
	}
	if err != nil {
		return err
	}

	tw := cli.table()
	fmt.Fprintln(tw, "ID\tNAME\tCITY")
	for _, sch := range schools {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", sch.ID, sch.Name(), orDash(sch.City()))
	}
	if err = tw.Flush(); err != nil {
		return err
	}
	cli.printf("%d school(s)\n", len(schools))
	return nil
}
