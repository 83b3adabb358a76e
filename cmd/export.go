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
	"github.com/spf13/viper"

	"github.com/IDGBAN/Sortify/internal/ingest"
	"github.com/IDGBAN/Sortify/internal/report"
	"github.com/IDGBAN/Sortify/internal/store"
)

var exportLabel string
var exportSource sessionSource

var exportCmd = &cobra.Command{
	Use:   "export [files or directories...]",
	Short: "Saves the aggregated export files to the database",
	Long: `Aggregates the given export files and saves the result as a run in the
SQLite database, so that analyze and report can use it with --run.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exportSource.files = args
		err := runExport(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), exportSource, exportLabel)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportLabel, "label", "", "free-form label shown by runs")
	exportCmd.Flags().StringVar(&exportSource.from, "from", "", "only count plays at or after this date")
	exportCmd.Flags().StringVar(&exportSource.to, "to", "", "only count plays up to the end of this date")
}

func runExport(ctx context.Context, out, errOut io.Writer, src sessionSource, label string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	sess, files, err := openSession(ctx, errOut, log, src)
	if errors.Is(err, ingest.ErrNoUsableData) {
		fmt.Fprintln(out, noDataMessage)
		return nil
	}
	if err != nil {
		return err
	}

	db, err := store.New(viper.GetString("database"))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	run, err := db.SaveSession(ctx, sess, label, files)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved run %s: %d plays, %s listened\n",
		run.ID, run.Totals.Events, report.FormatDuration(run.Totals.DurationMS))
	return nil
}
