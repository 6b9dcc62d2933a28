package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/schoolhub/core/compare"
	"github.com/trezcool/schoolhub/core/school"
)

func (cli *commandLine) schoolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schools",
		Short: "Search the school directory",
	}
	cmd.AddCommand(cli.searchSchoolsCmd(), cli.showSchoolCmd())
	return cmd
}

func (cli *commandLine) searchSchoolsCmd() *cobra.Command {
	var filter school.Filter
	cmd := &cobra.Command{
		Use:   "search",
		Short: "List the schools matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := filter.Validate(cli.validate); err != nil {
				return err
			}
			page, err := cli.dir.SearchSchools(context.Background(), filter)
			if err != nil {
				return errors.Wrap(err, "searching schools")
			}

			tw := cli.table()
			fmt.Fprintln(tw, "ID\tNAME\tCITY\tBOARD\tRATING\tANNUAL FEE\tCOMPARING")
			for _, sch := range page.Schools {
				tbl := compare.BuildTable([]school.School{sch})
				rating, _ := tbl.Row(compare.RowRating)
				board, _ := tbl.Row(compare.RowBoard)
				fee, _ := tbl.Row(compare.RowAnnualFee)
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					sch.ID, sch.Name(), sch.City(), board.Cells[0], rating.Cells[0], fee.Cells[0], yesNo(cli.store.Contains(sch.ID)))
			}
			if err = tw.Flush(); err != nil {
				return err
			}
			cli.printf("%d school(s) found\n", page.Count)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&filter.Query, "query", "q", "", "name or keyword")
	f.StringVar(&filter.City, "city", "", "city")
	f.StringVar(&filter.Board, "board", "", "board (CBSE, ICSE, IB, ...)")
	f.IntVar(&filter.MinFee, "min-fee", 0, "minimum annual fee")
	f.IntVar(&filter.MaxFee, "max-fee", 0, "maximum annual fee")
	f.StringVar(&filter.Facilities, "facilities", "", "comma separated facilities")
	f.StringVar(&filter.Classes, "classes", "", "classes offered")
	f.StringVar(&filter.Sort, "sort", school.SortNewest, "one of -createdAt, -ratingAverage, minFee, -minFee")
	f.BoolVar(&filter.Featured, "featured", false, "featured schools only")
	f.IntVar(&filter.Limit, "limit", 20, "page size")
	f.IntVar(&filter.Page, "page", 1, "page number")
	return cmd
}

func (cli *commandLine) showSchoolCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <slug>",
		Short: "Show a school and the similar ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			sch, err := cli.dir.GetSchool(ctx, args[0])
			if err != nil {
				return errors.Wrap(err, "getting school")
			}

			tbl := compare.BuildTable([]school.School{sch})
			tw := cli.table()
			fmt.Fprintf(tw, "%s\t(%s)\n", sch.Name(), sch.ID)
			fmt.Fprintf(tw, "City\t%s\n", orDash(sch.City()))
			for _, row := range tbl.Rows {
				fmt.Fprintf(tw, "%s\t%s\n", row.Label, row.Cells[0])
			}
			fmt.Fprintf(tw, "Comparing\t%s\n", yesNo(cli.store.Contains(sch.ID)))
			if err = tw.Flush(); err != nil {
				return err
			}

			similar, err := cli.dir.SimilarSchools(ctx, sch.ID)
			if err != nil {
				cli.logger.Warn("loading similar schools", errors.Wrap(err, "getting similar schools"))
				return nil
			}
			if len(similar) > 0 {
				names := make([]string, 0, len(similar))
				for _, s := range similar {
					names = append(names, s.Name()+" ("+s.Slug()+")")
				}
				cli.printf("\nSimilar schools: %s\n", strings.Join(names, ", "))
			}
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func progress(n int) string {
	return strconv.Itoa(n) + "/" + strconv.Itoa(compare.MaxItems)
}
