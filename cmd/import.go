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
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/dsasheet/internal/app"
	"github.com/eslsoft/dsasheet/internal/usecase/backup"
)

const (
	importInputKey         = "backup.import.input"
	importGzipKey          = "backup.import.gzip"
	importTablesKey        = "backup.import.tables"
	importAllowMismatchKey = "backup.import.allow_schema_mismatch"
)

var errNoBackupInput = errors.New("pass a backup file with --input, or - for stdin")

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Restore problems and attempts from a backup file",
	Long:  "Restores a backup inside one transaction. Rows with an existing id are overwritten, so importing the same file twice is safe.",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		input := viper.GetString(importInputKey)
		if input == "" {
			return errNoBackupInput
		}

		r, closeBackup, err := openBackup(cmd, input, gzipped(input, viper.GetBool(importGzipKey)))
		if err != nil {
			return err
		}
		defer func() {
			if cerr := closeBackup(); cerr != nil && err == nil {
				err = fmt.Errorf("close backup: %w", cerr)
			}
		}()

		var opts []backup.ImportOption
		if tables := backupTables(importTablesKey); tables != nil {
			opts = append(opts, backup.WithImportTables(tables))
		}
		if viper.GetBool(importAllowMismatchKey) {
			opts = append(opts, backup.WithAllowSchemaMismatch())
		}

		var counts map[string]int
		err = runWithApp(cmd.Context(), func(ctx context.Context, c *app.Container) (importErr error) {
			counts, importErr = c.Backup.Import(ctx, r, opts...)
			return importErr
		})
		if err != nil {
			return fmt.Errorf("import backup: %w", err)
		}

		tables := lo.Keys(counts)
		slices.Sort(tables)
		for _, table := range tables {
			cmd.Printf("imported %s: %d rows\n", table, counts[table])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("input", "i", "", "backup file path, - for stdin")
	importCmd.Flags().Bool("gzip", false, "input is gzip compressed")
	importCmd.Flags().StringSlice("tables", nil, "only import these tables, comma separated or repeated")
	importCmd.Flags().Bool("allow-schema-mismatch", false, "import even if the backup was taken from a different schema")

	bindFlagToViper(importInputKey, importCmd.Flags().Lookup("input"))
	bindFlagToViper(importGzipKey, importCmd.Flags().Lookup("gzip"))
	bindFlagToViper(importTablesKey, importCmd.Flags().Lookup("tables"))
	bindFlagToViper(importAllowMismatchKey, importCmd.Flags().Lookup("allow-schema-mismatch"))
}
