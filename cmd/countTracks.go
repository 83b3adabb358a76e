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

	"github.com/spf13/cobra"

	"github.com/IDGBAN/Sortify/internal/ingest"
	"github.com/IDGBAN/Sortify/internal/scan"
)

var countTracksOutput string

var countTracksCmd = &cobra.Command{
	Use:   "count-tracks [files or directories...]",
	Short: "Counts track names without decoding the files",
	Long: `Scans the given files line by line for track names and lists how often
each one appears. Works on files that are not valid JSON as a whole.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := countTracks(cmd.Context(), cmd.OutOrStdout(), args, countTracksOutput)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(countTracksCmd)

	countTracksCmd.Flags().StringVarP(&countTracksOutput, "output", "o", "-", "output file, or '-' for stdout")
}

func countTracks(ctx context.Context, out io.Writer, args []string, output string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	paths, err := ingest.ExpandPaths(args)
	if err != nil {
		return err
	}
	res, err := scan.CountTracks(ctx, paths, log)
	if err != nil {
		return err
	}
	if res.Matches == 0 {
		fmt.Fprintln(out, noDataMessage)
		return nil
	}

	write := func(w io.Writer) error { return scan.Write(w, res) }
	if output == "-" {
		return write(out)
	}
	return writeFile(output, out, write)
}
