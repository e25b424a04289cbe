package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/rowstream/internal/core"
	"github.com/JonMunkholm/rowstream/internal/predicate"
	"github.com/JonMunkholm/rowstream/internal/seed"
	"github.com/JonMunkholm/rowstream/internal/source/csvsource"
)

func (a *app) streamCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Print rows one at a time",
		Long: `Print every row of the query as one JSON object per line.
With --limit the traversal stops early and the cursor is released
immediately.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("%w: --limit must not be negative", core.ErrInvalidArgument)
			}
			q, err := a.query()
			if err != nil {
				return err
			}
			rows, err := a.service.StreamRows(q)
			if err != nil {
				return err
			}

			out := newEncoder(cmd.OutOrStdout())
			n := 0
			for rec, err := range core.All(cmd.Context(), rows) {
				if err != nil {
					return err
				}
				if err := out.write(rec); err != nil {
					return err
				}
				n++
				if limit > 0 && n >= limit {
					break
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Stop after this many rows (0 for all)")
	return cmd
}

func (a *app) batchCommand() *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Print rows in fixed-size batches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.query()
			if err != nil {
				return err
			}
			batches, err := a.service.StreamBatches(q, size)
			if err != nil {
				return err
			}

			out := newEncoder(cmd.OutOrStdout())
			i := 0
			for batch, err := range core.All(cmd.Context(), batches) {
				if err != nil {
					return err
				}
				i++
				if err := out.write(batchLine{Batch: i, Records: batch}); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&size, "size", "s", 0, "Records per batch (default: STREAM_BATCH_SIZE)")
	return cmd
}

func (a *app) filterCommand() *cobra.Command {
	var (
		where string
		size  int
	)
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Print rows matching an expression",
		Long: `Read rows in batches and print those matching --where.

Expressions compare fields with = != > >= < <= or CONTAINS and combine
them with AND, OR, NOT and parentheses. Rows whose fields cannot be
compared are skipped.

Examples:
  rowstream filter --where "age > 25"
  rowstream filter --where "name CONTAINS 'son' AND NOT (age < 18 OR age = NULL)"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pred, err := predicate.Parse(where)
			if err != nil {
				return err
			}
			q, err := a.query()
			if err != nil {
				return err
			}
			matches, err := a.service.FilterRows(q, size, pred)
			if err != nil {
				return err
			}

			out := newEncoder(cmd.OutOrStdout())
			for rec, err := range core.All(cmd.Context(), matches) {
				if err != nil {
					return err
				}
				if err := out.write(rec); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&where, "where", "w", "", "Filter expression")
	cmd.Flags().IntVarP(&size, "size", "s", 0, "Records read per batch (default: STREAM_BATCH_SIZE)")
	cobra.CheckErr(cmd.MarkFlagRequired("where"))
	return cmd
}

func (a *app) paginateCommand() *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "paginate",
		Short: "Print the query one page at a time",
		Long: `Fetch the query with LIMIT/OFFSET, one short-lived connection per page,
until an empty page is returned. Each page is printed as one line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.query()
			if err != nil {
				return err
			}
			pages, err := a.service.Pages(q, size)
			if err != nil {
				return err
			}

			out := newEncoder(cmd.OutOrStdout())
			for page, err := range core.All(cmd.Context(), pages) {
				if err != nil {
					return err
				}
				if err := out.write(pageLine{Offset: page.Offset, Size: page.Size, Records: page.Records}); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&size, "page-size", "p", 0, "Rows per page (default: STREAM_PAGE_SIZE)")
	return cmd
}

func (a *app) averageCommand() *cobra.Command {
	var fields []string
	cmd := &cobra.Command{
		Use:   "average",
		Short: "Average numeric fields without loading the rows",
		Long: `Compute the mean of each --field in a single pass per field. Values that
are NULL or not numeric are skipped. Several fields are averaged in
parallel, one traversal each.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.query()
			if err != nil {
				return err
			}

			out := newEncoder(cmd.OutOrStdout())
			if len(fields) == 1 {
				mean, err := a.service.AverageField(cmd.Context(), q, fields[0])
				if err != nil {
					return err
				}
				return out.write(averageLine{Field: fields[0], Average: core.Float(mean)})
			}

			means, err := a.service.AverageFields(cmd.Context(), q, fields)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(means))
			for f := range means {
				names = append(names, f)
			}
			sort.Strings(names)
			for _, f := range names {
				if err := out.write(averageLine{Field: f, Average: core.Float(means[f])}); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&fields, "field", "f", []string{"age"}, "Numeric field to average (repeatable)")
	return cmd
}

func (a *app) summaryCommand() *cobra.Command {
	var field string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Count, sum, mean, min and max of a numeric field",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.query()
			if err != nil {
				return err
			}
			sum, err := a.service.SummarizeField(cmd.Context(), q, field)
			if err != nil {
				return err
			}
			return newEncoder(cmd.OutOrStdout()).write(newSummaryLine(field, sum))
		},
	}
	cmd.Flags().StringVarP(&field, "field", "f", "age", "Numeric field to summarize")
	return cmd
}

func (a *app) seedCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create user_data and load it from a CSV file",
		Long: `Create the user_data table if it does not exist and insert the rows of
a CSV file with the header user_id,name,email,age. Rows that fail
validation are skipped and rows whose user_id already exists are
ignored, so seeding twice is safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sink, err := a.seedSink()
			if err != nil {
				return err
			}
			rows, err := core.NewRowStream(csvsource.New(path), core.Query{SQL: "*"}, core.WithObserver(a.collector))
			if err != nil {
				return err
			}
			batches, err := core.NewBatchStream(rows, a.cfg.Stream.BatchSize, core.WithObserver(a.collector))
			if err != nil {
				rows.Close()
				return err
			}

			res, err := seed.Run(cmd.Context(), batches, sink, seed.WithObserver(a.collector))
			if err != nil {
				return err
			}
			return newEncoder(cmd.OutOrStdout()).write(res)
		},
	}
	cmd.Flags().StringVarP(&path, "csv", "c", "", "CSV file to load")
	cobra.CheckErr(cmd.MarkFlagRequired("csv"))
	return cmd
}

func (a *app) queriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "queries",
		Short: "List the named queries in QUERIES_FILE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newEncoder(cmd.OutOrStdout())
			for _, name := range a.catalog.Names() {
				q := a.catalog[name]
				line := struct {
					Name        string `json:"name"`
					Description string `json:"description,omitempty"`
					SQL         string `json:"sql"`
				}{name, q.Description, q.SQL}
				if err := out.write(line); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
