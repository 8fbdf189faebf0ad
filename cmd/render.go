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
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/eslsoft/dsasheet/internal/entity"
	"github.com/eslsoft/dsasheet/internal/usecase"
)

const dateLayout = "2006-01-02 15:04"

func newTable(out io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	return table
}

func renderProblems(out io.Writer, problems []entity.Problem, now time.Time) {
	table := newTable(out, "ID", "Title", "Difficulty", "Topic", "Bucket", "Interval", "Next review", "Attempts")
	for _, p := range problems {
		table.Append([]string{
			strconv.FormatInt(p.ID, 10),
			p.Title,
			string(p.Difficulty),
			p.Topic,
			strconv.Itoa(p.Schedule.Bucket),
			fmt.Sprintf("%dd", p.Schedule.IntervalDays),
			formatNextReview(p, now),
			strconv.FormatInt(p.Schedule.AttemptCount, 10),
		})
	}
	table.Render()
}

func formatNextReview(p entity.Problem, now time.Time) string {
	if p.Schedule.NextReviewAt == nil {
		return "new"
	}
	next := p.Schedule.NextReviewAt.Local().Format(dateLayout)
	if p.IsDue(now) {
		return next + " (due)"
	}
	return next
}

func renderAttempts(out io.Writer, attempts []entity.Attempt) {
	table := newTable(out, "ID", "At", "Outcome", "Confidence", "Time", "Notes")
	for _, a := range attempts {
		taken := "-"
		if a.TimeTakenSeconds != nil {
			taken = (time.Duration(*a.TimeTakenSeconds) * time.Second).String()
		}
		table.Append([]string{
			strconv.FormatInt(a.ID, 10),
			a.AttemptedAt.Local().Format(dateLayout),
			string(a.Outcome),
			strconv.Itoa(a.ConfidenceRating),
			taken,
			a.Notes,
		})
	}
	table.Render()
}

func renderStats(out io.Writer, s *usecase.Stats) {
	fmt.Fprintf(out, "Problems:        %d\n", s.TotalProblems)
	fmt.Fprintf(out, "Due now:         %d\n", s.DueNow)
	fmt.Fprintf(out, "Never reviewed:  %d\n", s.NeverReviewed)
	fmt.Fprintf(out, "Attempts:        %d\n", s.TotalAttempts)
	fmt.Fprintf(out, "Last 7 days:     %d attempts, average confidence %.2f\n", s.RecentAttempts, s.AverageConfidence)

	if len(s.AttemptsByOutcome) > 0 {
		parts := make([]string, 0, len(s.AttemptsByOutcome))
		for outcome, n := range s.AttemptsByOutcome {
			parts = append(parts, fmt.Sprintf("%s=%d", outcome, n))
		}
		sort.Strings(parts)
		fmt.Fprintf(out, "Outcomes (7d):   %s\n", strings.Join(parts, " "))
	}

	buckets := make([]int, 0, len(s.ProblemsPerBucket))
	for b := range s.ProblemsPerBucket {
		buckets = append(buckets, b)
	}
	sort.Ints(buckets)
	table := newTable(out, "Bucket", "Problems")
	for _, b := range buckets {
		table.Append([]string{strconv.Itoa(b), strconv.FormatInt(s.ProblemsPerBucket[b], 10)})
	}
	table.Render()
}
