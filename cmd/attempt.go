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

	"github.com/spf13/cobra"

	"github.com/eslsoft/dsasheet/internal/app"
	"github.com/eslsoft/dsasheet/internal/entity"
	"github.com/eslsoft/dsasheet/internal/usecase"
)

var attemptCmd = &cobra.Command{
	Use:   "attempt",
	Short: "Log and inspect practice attempts",
}

var attemptLogCmd = &cobra.Command{
	Use:   "log <problem-id>",
	Short: "Log an attempt and reschedule the problem",
	Long: `Logs an attempt with a 1-5 confidence rating.
  1-2  reset: review again tomorrow
  3    short bump: review in 3 days
  4-5  grow: interval grows with every successful review`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		rawOutcome, _ := flags.GetString("outcome")
		confidence, _ := flags.GetInt("confidence")
		notes, _ := flags.GetString("notes")

		outcome, err := entity.ParseOutcome(rawOutcome)
		if err != nil {
			return err
		}
		in := usecase.LogAttemptInput{
			UserID:           currentUserID(),
			ProblemID:        id,
			Outcome:          outcome,
			ConfidenceRating: confidence,
			Notes:            notes,
		}
		if flags.Changed("time") {
			taken, _ := flags.GetDuration("time")
			seconds := int32(taken.Seconds())
			in.TimeTakenSeconds = &seconds
		}

		return runWithApp(cmd.Context(), func(ctx context.Context, c *app.Container) error {
			result, err := c.Attempts.RecordAttempt(ctx, in)
			var writeErr *entity.ScheduleWriteError
			if errors.As(err, &writeErr) {
				cmd.PrintErrf("attempt %d was recorded but the schedule was not updated; run `dsasheet reconcile %d`\n",
					writeErr.Attempt.ID, id)
			}
			if err != nil {
				return err
			}
			cmd.Printf("logged attempt %d (%s): bucket %d, next review in %d days\n",
				result.Attempt.ID, result.Tier, result.Schedule.Bucket, result.Schedule.IntervalDays)
			return nil
		})
	},
}

var attemptListCmd = &cobra.Command{
	Use:   "list <problem-id>",
	Short: "List the attempts of a problem in replay order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return runWithApp(cmd.Context(), func(ctx context.Context, c *app.Container) error {
			attempts, err := c.Attempts.ListAttempts(ctx, currentUserID(), id)
			if err != nil {
				return err
			}
			renderAttempts(cmd.OutOrStdout(), attempts)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(attemptCmd)
	attemptCmd.AddCommand(attemptLogCmd, attemptListCmd)

	attemptLogCmd.Flags().String("outcome", "Solved", "Solved, Failed or HintUsed")
	attemptLogCmd.Flags().IntP("confidence", "c", 0, "confidence rating from 1 to 5")
	attemptLogCmd.Flags().Duration("time", 0, "time taken, e.g. 25m")
	attemptLogCmd.Flags().String("notes", "", "notes about this attempt")
	cobra.CheckErr(attemptLogCmd.MarkFlagRequired("confidence"))
}
