/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/IDGBAN/Sortify/internal/history"
	"github.com/IDGBAN/Sortify/internal/ingest"
	"github.com/IDGBAN/Sortify/internal/rank"
	"github.com/IDGBAN/Sortify/internal/report"
)

type analyzeOptions struct {
	source    sessionSource
	dimension string
	sort      string
	direction string
	limit     int
	search    string
	table     bool
}

var analyzeOpts analyzeOptions

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files or directories...]",
	Short: "Prints one ranked listing",
	Long: `Ranks one dimension of the given export files (or of a saved run) by one
criterion. Dimensions are artist, track, pair, year-track and year-artist;
criteria are duration, count and first-seen. Date strings for --from and --to
look like 'yyyy', 'yyyy-mm', 'yyyy-mm-dd', or relative like '30d', '12w',
'6m', '10y'.`,
	Run: func(cmd *cobra.Command, args []string) {
		analyzeOpts.source.files = args
		err := runAnalyze(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), analyzeOpts)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	flags := analyzeCmd.Flags()
	flags.StringVar(&analyzeOpts.dimension, "dimension", "track", "artist, track, pair, year-track or year-artist")
	flags.StringVarP(&analyzeOpts.sort, "sort", "s", "duration", "duration, count or first-seen")
	flags.StringVar(&analyzeOpts.direction, "direction", "desc", "asc or desc")
	flags.IntVarP(&analyzeOpts.limit, "limit", "n", 0, "number of results to return, 0 for all")
	flags.StringVar(&analyzeOpts.search, "search", "", "only show keys containing this text, ignoring case")
	flags.BoolVar(&analyzeOpts.table, "table", false, "print a table instead of report lines")
	addSourceFlags(analyzeCmd, &analyzeOpts.source)
}

func addSourceFlags(cmd *cobra.Command, src *sessionSource) {
	cmd.Flags().StringVar(&src.from, "from", "", "only count plays at or after this date")
	cmd.Flags().StringVar(&src.to, "to", "", "only count plays up to the end of this date")
	cmd.Flags().StringVar(&src.runID, "run", "", "use a run saved by export instead of files (id or unique prefix)")
}

func runAnalyze(ctx context.Context, out, errOut io.Writer, o analyzeOptions) error {
	d, err := history.ParseDimension(o.dimension)
	if err != nil {
		return err
	}
	c, err := rank.ParseCriterion(o.sort)
	if err != nil {
		return err
	}
	dir, err := rank.ParseDirection(o.direction)
	if err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	sess, _, err := openSession(ctx, errOut, log, o.source, d)
	if errors.Is(err, ingest.ErrNoUsableData) {
		fmt.Fprintln(out, noDataMessage)
		return nil
	}
	if err != nil {
		return err
	}

	acc := sess.Accumulator(d)
	if acc == nil {
		return fmt.Errorf("Run %s was saved without the %s dimension", o.source.runID, d)
	}
	rows := report.Listing(acc, c, report.Options{Direction: &dir, Limit: o.limit, Search: o.search})

	if o.table {
		fmt.Fprint(out, report.NewTable(sess, d, c, rows))
		return nil
	}
	fmt.Fprintln(out, report.Heading(d, c))
	for _, r := range rows {
		fmt.Fprintln(out, report.Line(sess, d, c, r))
	}
	return nil
}
