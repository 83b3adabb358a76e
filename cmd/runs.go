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
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/IDGBAN/Sortify/internal/report"
	"github.com/IDGBAN/Sortify/internal/store"
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Lists the runs saved by export",
	Long:  ``,
	Run: func(cmd *cobra.Command, args []string) {
		err := listRuns(cmd.Context(), cmd.OutOrStdout(), viper.GetString("database"))
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
}

func listRuns(ctx context.Context, out io.Writer, dbPath string) error {
	db, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No saved runs.")
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.Header([]string{"ID", "Created", "Label", "Files", "Plays", "Listening Time", "Dimensions"})
	for _, r := range runs {
		dims := make([]string, len(r.Dimensions))
		for i, d := range r.Dimensions {
			dims[i] = d.String()
		}
		row := []string{
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Label,
			strconv.Itoa(r.Files),
			strconv.FormatInt(r.Totals.Events, 10),
			report.FormatDuration(r.Totals.DurationMS),
			strings.Join(dims, ","),
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("rendering runs: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering runs: %w", err)
	}
	return nil
}
