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
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/eslsoft/dsasheet/internal/app"
	"github.com/eslsoft/dsasheet/internal/entity"
	"github.com/eslsoft/dsasheet/internal/repository"
)

var problemCmd = &cobra.Command{
	Use:   "problem",
	Short: "Manage the problems on your sheet",
}

var problemAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a problem to the sheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		title, _ := flags.GetString("title")
		url, _ := flags.GetString("url")
		rawDifficulty, _ := flags.GetString("difficulty")
		topic, _ := flags.GetString("topic")
		tags, _ := flags.GetStringSlice("tags")
		notes, _ := flags.GetString("notes")

		difficulty, err := entity.ParseDifficulty(rawDifficulty)
		if err != nil {
			return err
		}
		return runWithApp(cmd.Context(), func(ctx context.Context, c *app.Container) error {
			p, err := c.Problems.AddProblem(ctx, currentUserID(), &entity.Problem{
				Title:      title,
				SourceURL:  url,
				Difficulty: difficulty,
				Topic:      topic,
				Tags:       tags,
				Notes:      notes,
			})
			if err != nil {
				return err
			}
			cmd.Printf("added problem %d: %s\n", p.ID, p.Title)
			return nil
		})
	},
}

var problemListCmd = &cobra.Command{
	Use:   "list",
	Short: "List problems, optionally filtered",
	Example: `  dsasheet problem list --filter 'topic == "graphs" && bucket >= 2'
  dsasheet problem list --order-by "next_review_at, title desc"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		filter, _ := flags.GetString("filter")
		orderBy, _ := flags.GetString("order-by")
		page, _ := flags.GetInt32("page")
		pageSize, _ := flags.GetInt32("page-size")

		return runWithApp(cmd.Context(), func(ctx context.Context, c *app.Container) error {
			items, total, err := c.Problems.ListProblems(ctx, &repository.ListProblemQuery{
				Pagination:  repository.Pagination{PageNo: page, PageSize: pageSize},
				FilterOrder: repository.FilterOrder{Filter: filter, OrderBy: orderBy},
				UserID:      currentUserID(),
			})
			if err != nil {
				return err
			}
			renderProblems(cmd.OutOrStdout(), items, time.Now())
			cmd.Printf("%d of %d problems\n", len(items), total)
			return nil
		})
	},
}

var problemShowCmd = &cobra.Command{
	Use:   "show <problem-id>",
	Short: "Show a problem and its attempt history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return runWithApp(cmd.Context(), func(ctx context.Context, c *app.Container) error {
			p, err := c.Problems.GetProblem(ctx, currentUserID(), id)
			if err != nil {
				return err
			}
			renderProblems(cmd.OutOrStdout(), []entity.Problem{*p}, time.Now())
			attempts, err := c.Attempts.ListAttempts(ctx, currentUserID(), id)
			if err != nil {
				return err
			}
			if len(attempts) > 0 {
				cmd.Println()
				renderAttempts(cmd.OutOrStdout(), attempts)
			}
			return nil
		})
	},
}

var problemDeleteCmd = &cobra.Command{
	Use:   "delete <problem-id>",
	Short: "Delete a problem together with its attempts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return runWithApp(cmd.Context(), func(ctx context.Context, c *app.Container) error {
			if err := c.Problems.DeleteProblem(ctx, currentUserID(), id); err != nil {
				return err
			}
			cmd.Printf("deleted problem %d\n", id)
			return nil
		})
	},
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", entity.ErrInvalidProblemID, raw)
	}
	return id, nil
}

func init() {
	rootCmd.AddCommand(problemCmd)
	problemCmd.AddCommand(problemAddCmd, problemListCmd, problemShowCmd, problemDeleteCmd)

	problemAddCmd.Flags().String("title", "", "problem title (unique per user, case-insensitive)")
	problemAddCmd.Flags().String("url", "", "link to the problem statement")
	problemAddCmd.Flags().String("difficulty", "", "Easy, Medium or Hard")
	problemAddCmd.Flags().String("topic", "", "topic such as arrays or graphs")
	problemAddCmd.Flags().StringSlice("tags", nil, "tags, comma separated or repeated")
	problemAddCmd.Flags().String("notes", "", "free-form notes")
	cobra.CheckErr(problemAddCmd.MarkFlagRequired("title"))

	problemListCmd.Flags().String("filter", "", "CEL filter over title, difficulty, topic, bucket, attempt_count, next_review_at, created_at")
	problemListCmd.Flags().String("order-by", "", "comma separated sort keys, each optionally followed by asc or desc")
	problemListCmd.Flags().Int32("page", 1, "page number")
	problemListCmd.Flags().Int32("page-size", 20, "page size (max 200)")
}
