package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alem-hub/gradebook/internal/domain/progress"
	"github.com/alem-hub/gradebook/internal/domain/shared"
	"github.com/alem-hub/gradebook/pkg/logger"
)

func newProgressCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Track completion of the study curriculum",
	}
	cmd.AddCommand(
		newProgressShowCmd(a),
		newProgressDoneCmd(a),
		newProgressNoteCmd(a),
		newProgressResetCmd(a),
	)
	return cmd
}

func newProgressShowCmd(a *app) *cobra.Command {
	var withNotes bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show every topic with its completion state",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = a.withBackend(func(ctx context.Context, cmd *cobra.Command, _ []string, b *backend) error {
		tr, err := a.openTracker(ctx, b)
		if err != nil {
			return err
		}
		if err := renderProgress(cmd.OutOrStdout(), tr, a.clock()); err != nil {
			return err
		}
		if withNotes {
			renderNotes(cmd.OutOrStdout(), tr)
		}
		return nil
	})
	cmd.Flags().BoolVar(&withNotes, "notes", false, "also print topic notes")
	return cmd
}

func newProgressDoneCmd(a *app) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "done TOPIC",
		Short: "Mark a topic completed (by number or name)",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.withBackend(func(ctx context.Context, cmd *cobra.Command, args []string, b *backend) error {
		tr, err := a.openTracker(ctx, b)
		if err != nil {
			return err
		}
		topic, err := resolveTopic(tr, args[0])
		if err != nil {
			return err
		}
		if err := tr.MarkCompleted(topic, strings.TrimSpace(note)); err != nil {
			return err
		}
		if err := a.saveTracker(ctx, b, tr); err != nil {
			return err
		}
		a.log.Info("topic completed", logger.Topic(topic))
		sum := tr.Summary()
		printf(cmd, "completed %q (%d/%d, %.1f%%)\n", topic, sum.Completed, sum.Total, sum.Percent)
		return nil
	})
	cmd.Flags().StringVar(&note, "note", "", "notes for the topic (replaces existing notes)")
	return cmd
}

func newProgressNoteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note TOPIC TEXT",
		Short: "Append a note to a topic",
		Args:  cobra.MinimumNArgs(2),
	}
	cmd.RunE = a.withBackend(func(ctx context.Context, cmd *cobra.Command, args []string, b *backend) error {
		tr, err := a.openTracker(ctx, b)
		if err != nil {
			return err
		}
		topic, err := resolveTopic(tr, args[0])
		if err != nil {
			return err
		}
		if err := tr.AddNote(topic, strings.Join(args[1:], " ")); err != nil {
			return err
		}
		if err := a.saveTracker(ctx, b, tr); err != nil {
			return err
		}
		a.log.Debug("note added", logger.Topic(topic))
		printf(cmd, "note added to %q\n", topic)
		return nil
	})
	return cmd
}

func newProgressResetCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear all progress and notes",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = a.withBackend(func(ctx context.Context, cmd *cobra.Command, _ []string, b *backend) error {
		if !yes {
			return errors.New("refusing to reset progress without --yes")
		}
		tr, err := a.openTracker(ctx, b)
		if err != nil {
			return err
		}
		completed := tr.Summary().Completed
		tr.Reset()
		if err := a.saveTracker(ctx, b, tr); err != nil {
			return err
		}
		a.log.Info("progress reset", logger.Count(completed))
		printf(cmd, "progress reset\n")
		return nil
	})
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

// resolveTopic accepts a 1-based curriculum number or a topic name
// (case-insensitive).
func resolveTopic(tr *progress.Tracker, arg string) (string, error) {
	topics := tr.Topics()
	arg = strings.TrimSpace(arg)

	if n, err := strconv.Atoi(arg); err == nil {
		if n >= 1 && n <= len(topics) {
			return topics[n-1], nil
		}
		return "", shared.ErrUnknownTopic.Wrap(fmt.Errorf("number %d outside 1..%d", n, len(topics)))
	}
	for _, topic := range topics {
		if strings.EqualFold(topic, arg) {
			return topic, nil
		}
	}
	return "", shared.ErrUnknownTopic.Wrap(fmt.Errorf("topic %q", arg))
}

func renderNotes(w io.Writer, tr *progress.Tracker) {
	for _, te := range tr.Entries() {
		if te.Notes == "" {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", te.Topic)
		for _, line := range strings.Split(te.Notes, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}
