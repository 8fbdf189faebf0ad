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
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/eslsoft/dsasheet/internal/app"
	"github.com/eslsoft/dsasheet/internal/infrastructure/database/migrate"
)

const userIDKey = "cli.user_id"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dsasheet",
	Short: "Spaced-repetition scheduler for practice problem sheets",
	Long: `dsasheet keeps a sheet of practice problems and tells you which ones to
review next. Every attempt is logged with a 1-5 confidence rating that
moves the problem between review buckets.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Int64("user", 1, "user id the command acts for")
	bindFlagToViper(userIDKey, rootCmd.PersistentFlags().Lookup("user"))
}

func currentUserID() int64 {
	return viper.GetInt64(userIDKey)
}

// runWithApp builds the container, makes sure the schema exists and runs fn.
func runWithApp(ctx context.Context, fn func(ctx context.Context, c *app.Container) error) error {
	c, cleanup, err := app.Initialize()
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	defer cleanup()

	if err := migrate.Create(ctx, c.Driver); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return fn(ctx, c)
}

func bindFlagToViper(key string, flag *pflag.Flag) {
	if flag == nil {
		return
	}
	cobra.CheckErr(viper.BindPFlag(key, flag))
}
