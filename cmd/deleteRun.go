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
	"github.com/spf13/viper"

	"github.com/IDGBAN/Sortify/internal/store"
)

// deleteRunCmd represents the delete-run command
var deleteRunCmd = &cobra.Command{
	Use:   "delete-run [id]",
	Short: "Deletes a run saved by export",
	Long:  `The id may be any prefix of a run id that matches exactly one run.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := deleteRun(cmd.Context(), cmd.OutOrStdout(), viper.GetString("database"), args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(deleteRunCmd)
}

func deleteRun(ctx context.Context, out io.Writer, dbPath string, id string) error {
	db, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.DeleteRun(ctx, id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}

	fmt.Fprintf(out, "Deleted run %q\n", id)
	return nil
}
