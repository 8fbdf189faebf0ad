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
	"time"

	"github.com/spf13/cobra"

	"github.com/eslsoft/dsasheet/internal/app"
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "Show the problems due for review, never reviewed first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return runWithApp(cmd.Context(), func(ctx context.Context, c *app.Container) error {
			due, err := c.Reviews.DueQueue(ctx, currentUserID(), limit)
			if err != nil {
				return err
			}
			if len(due) == 0 {
				cmd.Println("nothing due, come back later")
				return nil
			}
			renderProblems(cmd.OutOrStdout(), due, time.Now())
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise the sheet and recent practice",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd.Context(), func(ctx context.Context, c *app.Container) error {
			stats, err := c.Reviews.Stats(ctx, currentUserID())
			if err != nil {
				return err
			}
			renderStats(cmd.OutOrStdout(), stats)
			return nil
		})
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile [problem-id]",
	Short: "Rebuild schedules from the attempt history",
	Long:  "Rebuilds one problem's schedule, or every problem of the user when no id is given, by replaying its attempts.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd.Context(), func(ctx context.Context, c *app.Container) error {
			if len(args) == 0 {
				sweep, err := c.Attempts.ReconcileUser(ctx, currentUserID())
				if sweep != nil {
					cmd.Printf("checked %d problems, repaired %d, failed %d\n", sweep.Checked, sweep.Repaired, sweep.Failed)
				}
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			result, err := c.Attempts.Reconcile(ctx, currentUserID(), id)
			if err != nil {
				return err
			}
			if result.Repaired {
				cmd.Printf("problem %d repaired: bucket %d -> %d, attempts %d -> %d\n", id,
					result.Before.Bucket, result.After.Bucket, result.Before.AttemptCount, result.After.AttemptCount)
			} else {
				cmd.Printf("problem %d is consistent\n", id)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(dueCmd, statsCmd, reconcileCmd)
	dueCmd.Flags().IntP("limit", "n", 10, "maximum problems to show, 0 for all")
}
