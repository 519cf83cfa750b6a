package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/nudge/core/encouragement"
)

func (cli *commandLine) recordCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Inspect or reset a student's encouragement record",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show STUDENT",
		Short: "Print the encouragement record of a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.showRecord(context.Background(), args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset STUDENT",
		Short: "Delete the encouragement record of a student; every email may be sent again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.resetRecord(context.Background(), args[0])
		},
	})
	return cmd
}

func (cli *commandLine) showRecord(ctx context.Context, studentID string) error {
	app, err := cli.getApp()
	if err != nil {
		return err
	}
	rec, err := app.EncouragementSvc.GetRecord(ctx, studentID)
	if err != nil {
		return err
	}

	if cli.outputFormat() == "json" {
		enc := json.NewEncoder(cli.out)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	row := func(key string, val interface{}) { fmt.Fprintf(w, "%s\t%v\n", key, val) }
	row("student", rec.StudentID)
	row("started", joinSet(rec.StartedNotified))
	row("near complete units", joinSet(rec.NearCompleteUnitNotified))
	row("near complete ideas", joinSet(rec.NearCompleteIdeaNotified))
	row("feedback", rec.FeedbackCount)
	row("narrative feedback", rec.FeedbackWithNarrativeCount)
	row("emails this window", rec.EmailsSentThisWindow)
	row("window start", formatTime(rec.WindowStart))
	row("not started email", rec.InactiveNotStartedSent)
	row("inactive email", rec.InactiveStartedSent)
	row("updated", formatTime(rec.UpdatedAt))
	return w.Flush()
}

func (cli *commandLine) resetRecord(ctx context.Context, studentID string) error {
	app, err := cli.getApp()
	if err != nil {
		return err
	}
	if err := app.EncouragementSvc.DeleteRecord(ctx, studentID); err != nil {
		if errors.Cause(err) == encouragement.ErrRecordNotFound {
			_, err = fmt.Fprintf(cli.out, "%s has no encouragement record\n", studentID)
		}
		return err
	}
	_, err = fmt.Fprintf(cli.out, "encouragement record of %s reset\n", studentID)
	return err
}

func joinSet(s encouragement.GroupingSet) string {
	ids := s.Sorted()
	if len(ids) == 0 {
		return "-"
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = string(id)
	}
	return strings.Join(strs, ", ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}
