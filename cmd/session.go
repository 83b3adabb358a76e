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

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/IDGBAN/Sortify/internal/aggregate"
	"github.com/IDGBAN/Sortify/internal/history"
	"github.com/IDGBAN/Sortify/internal/ingest"
	"github.com/IDGBAN/Sortify/internal/store"
)

const noDataMessage = "No valid data found in the selected files."

// sessionSource says where a command takes its session from: export files, or
// a run saved by the export command.
type sessionSource struct {
	files []string
	runID string

	from string
	to   string
}

// openSession builds the session for src, aggregating only dims when reading
// files. Skipped files are reported on errOut. It returns ErrNoUsableData when
// nothing was counted.
func openSession(ctx context.Context, errOut io.Writer, log *zap.Logger, src sessionSource, dims ...history.Dimension) (*aggregate.Session, int, error) {
	if src.runID != "" {
		if len(src.files) > 0 {
			return nil, 0, fmt.Errorf("Pass either input files or --run, not both")
		}
		if src.from != "" || src.to != "" {
			return nil, 0, fmt.Errorf("--from and --to cannot be used with --run")
		}
		return loadRun(ctx, src.runID)
	}

	if len(src.files) == 0 {
		return nil, 0, fmt.Errorf("No input files given")
	}
	start, end, err := parseWindow(src.from, src.to)
	if err != nil {
		return nil, 0, err
	}
	paths, err := ingest.ExpandPaths(src.files)
	if err != nil {
		return nil, 0, err
	}

	pipeline := ingest.New(
		ingest.WithDimensions(dims...),
		ingest.WithLogger(log),
		ingest.WithWorkers(viper.GetInt("workers")),
		ingest.WithWindow(start, end),
	)
	res, err := pipeline.Run(ctx, paths)
	if err != nil {
		return nil, 0, fmt.Errorf("ingesting: %w", err)
	}
	for _, d := range res.Diagnostics {
		if !d.Silent() {
			fmt.Fprintf(errOut, "Skipping %s\n", d)
		}
	}
	if err := res.Err(); err != nil {
		return nil, 0, err
	}
	return res.Session, len(paths), nil
}

func loadRun(ctx context.Context, runID string) (*aggregate.Session, int, error) {
	db, err := store.New(viper.GetString("database"))
	if err != nil {
		return nil, 0, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	sess, run, err := db.LoadSession(ctx, runID)
	if err != nil {
		return nil, 0, fmt.Errorf("loading run: %w", err)
	}
	return sess, run.Files, nil
}
