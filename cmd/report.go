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
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/IDGBAN/Sortify/internal/ingest"
	"github.com/IDGBAN/Sortify/internal/rank"
	"github.com/IDGBAN/Sortify/internal/report"
)

type reportOptions struct {
	source    sessionSource
	output    string
	format    string
	perYear   bool
	limit     int
	search    string
	direction string
}

var reportOpts reportOptions

var reportCmd = &cobra.Command{
	Use:   "report [files or directories...]",
	Short: "Writes the full ranking report",
	Long: `Writes every ranking of the given export files (or of a saved run) to
<output>.txt, or to <output>_<year>.txt for each year with --per-year. With
--format yaml a summary is written to <output>.yaml instead. An output of '-'
writes to stdout.`,
	Run: func(cmd *cobra.Command, args []string) {
		reportOpts.source.files = args
		err := runReport(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), reportOpts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	flags := reportCmd.Flags()
	flags.StringVarP(&reportOpts.output, "output", "o", "Results", "output path without extension, or '-' for stdout")
	flags.StringVar(&reportOpts.format, "format", "text", "text or yaml")
	flags.BoolVar(&reportOpts.perYear, "per-year", false, "write one text report per calendar year")
	flags.IntVarP(&reportOpts.limit, "limit", "n", 0, "number of results per listing, 0 for all (1000 with --per-year)")
	flags.StringVar(&reportOpts.search, "search", "", "only list keys containing this text, ignoring case")
	flags.StringVar(&reportOpts.direction, "direction", "", "asc or desc for every listing; default is most played and earliest first")
	addSourceFlags(reportCmd, &reportOpts.source)
}

func runReport(ctx context.Context, out, errOut io.Writer, o reportOptions) error {
	if o.format != "text" && o.format != "yaml" {
		return fmt.Errorf("Unknown format %q", o.format)
	}
	if o.perYear && (o.format != "text" || o.output == "-") {
		return fmt.Errorf("--per-year writes text files and needs an output path")
	}
	opts := report.Options{Limit: o.limit, Search: o.search}
	if o.direction != "" {
		dir, err := rank.ParseDirection(o.direction)
		if err != nil {
			return err
		}
		opts.Direction = &dir
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	// Every dimension is aggregated.
	sess, _, err := openSession(ctx, errOut, log, o.source)
	if errors.Is(err, ingest.ErrNoUsableData) {
		fmt.Fprintln(out, noDataMessage)
		return nil
	}
	if err != nil {
		return err
	}

	if o.perYear {
		paths, err := report.WriteYears(o.output, sess, opts)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(out, "Wrote %s\n", p)
		}
		return nil
	}

	ext := ".txt"
	write := func(w io.Writer) error { return report.Write(w, sess, opts) }
	if o.format == "yaml" {
		ext = ".yaml"
		write = func(w io.Writer) error {
			return report.WriteYAML(w, report.NewSummary(sess, opts, time.Now()))
		}
	}

	if o.output == "-" {
		return write(out)
	}
	return writeFile(o.output+ext, out, write)
}

// writeFile creates path, including its directory, and fills it with write.
func writeFile(path string, out io.Writer, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}
