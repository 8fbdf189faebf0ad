/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/dsasheet/internal/app"
	"github.com/eslsoft/dsasheet/internal/usecase/backup"
)

const (
	exportOutputKey = "backup.export.output"
	exportGzipKey   = "backup.export.gzip"
	exportTablesKey = "backup.export.tables"
	exportBatchKey  = "backup.export.batch_size"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export problems and attempts as an NDJSON backup",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		output := viper.GetString(exportOutputKey)
		if output == "" {
			output = defaultExportFilename(viper.GetBool(exportGzipKey))
		}

		w, closeBackup, err := createBackup(cmd, output, gzipped(output, viper.GetBool(exportGzipKey)))
		if err != nil {
			return err
		}
		defer func() {
			if cerr := closeBackup(); cerr != nil && err == nil {
				err = fmt.Errorf("close backup: %w", cerr)
			}
		}()

		opts := []backup.ExportOption{backup.WithProgressReporter(newTableProgress(cmd.ErrOrStderr()))}
		if tables := backupTables(exportTablesKey); tables != nil {
			opts = append(opts, backup.WithTables(tables))
		}
		err = runWithApp(cmd.Context(), func(ctx context.Context, c *app.Container) error {
			svc := backup.NewService(c.Driver, backup.WithBatchSize(viper.GetInt(exportBatchKey)))
			return svc.Export(ctx, w, opts...)
		})
		if err != nil {
			return fmt.Errorf("export backup: %w", err)
		}

		if output != stdioPath {
			cmd.Printf("backup written to %s\n", output)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "backup file path, - for stdout")
	exportCmd.Flags().Bool("gzip", false, "gzip the output")
	exportCmd.Flags().StringSlice("tables", nil, "only export these tables, comma separated or repeated")
	exportCmd.Flags().Int("batch-size", 0, "rows fetched per query (default 512)")

	bindFlagToViper(exportOutputKey, exportCmd.Flags().Lookup("output"))
	bindFlagToViper(exportGzipKey, exportCmd.Flags().Lookup("gzip"))
	bindFlagToViper(exportTablesKey, exportCmd.Flags().Lookup("tables"))
	bindFlagToViper(exportBatchKey, exportCmd.Flags().Lookup("batch-size"))
}

func defaultExportFilename(compress bool) string {
	name := "dsasheet-backup-" + time.Now().UTC().Format("20060102-150405") + ".jsonl"
	if compress {
		name += ".gz"
	}
	return name
}
