package main

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/stex99/dcf-tool/pkg/dcf/columns"
)

func newHistoryCmd(e *env) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, err := e.load()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			archive, err := openArchive(ctx, cfg, log)
			if err != nil {
				return err
			}
			if archive == nil {
				return errors.New("history needs --archive")
			}
			defer archive.Close()

			runs, err := archive.ListRuns(ctx, limit)
			if err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.SetStyle(table.StyleLight)
			tw.Style().Options.DrawBorder = false
			tw.AppendHeader(table.Row{"RUN", "CREATED", "DISCOUNT %", "GROWTH %", "YEARS", "HOLDINGS", "TOTAL"})
			tw.SetColumnConfigs([]table.ColumnConfig{
				{Number: 3, Align: text.AlignRight},
				{Number: 4, Align: text.AlignRight},
				{Number: 5, Align: text.AlignRight},
				{Number: 6, Align: text.AlignRight},
				{Number: 7, Align: text.AlignRight},
			})
			for _, r := range runs {
				tw.AppendRow(table.Row{
					r.ID,
					r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					fmt.Sprintf("%.2f", r.Params.DiscountRate*100),
					fmt.Sprintf("%.2f", r.Params.GrowthRate*100),
					r.Params.ProjectionYears,
					r.Holdings,
					columns.Money(r.Total),
				})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show (0 = all)")
	return cmd
}
