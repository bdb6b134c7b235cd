package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alem-hub/gradebook/internal/domain/shared"
)

func newAddCmd(a *app) *cobra.Command {
	var (
		id       string
		category string
		age      int
	)
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a student record",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.withBackend(func(ctx context.Context, cmd *cobra.Command, args []string, b *backend) error {
		reg, err := a.openRegistry(ctx, b)
		if err != nil {
			return err
		}
		if id == "" {
			id = uuid.NewString()
		}
		rec, err := reg.Add(id, strings.TrimSpace(args[0]), category, age)
		if err != nil {
			return fmt.Errorf("add %q: %w", id, err)
		}
		if err := reg.Save(ctx); err != nil {
			return err
		}
		printf(cmd, "added %s (%s)\n", rec.ID(), rec.Name)
		return nil
	})

	cmd.Flags().StringVar(&id, "id", "", "record id (generated when empty)")
	cmd.Flags().StringVar(&category, "category", "", "class or grade label, e.g. \"Grade 12\"")
	cmd.Flags().IntVar(&age, "age", 0, "student age")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Remove a student record",
		Args:    cobra.ExactArgs(1),
	}
	cmd.RunE = a.withBackend(func(ctx context.Context, cmd *cobra.Command, args []string, b *backend) error {
		reg, err := a.openRegistry(ctx, b)
		if err != nil {
			return err
		}
		if err := reg.Remove(args[0]); err != nil {
			return err
		}
		if err := reg.Save(ctx); err != nil {
			return err
		}
		printf(cmd, "removed %s\n", args[0])
		return nil
	})
	return cmd
}

func newScoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score ID SUBJECT SCORE",
		Short: "Set a subject score (0-100) on a record",
		Args:  cobra.ExactArgs(3),
	}
	cmd.RunE = a.withBackend(func(ctx context.Context, cmd *cobra.Command, args []string, b *backend) error {
		id, subject := args[0], strings.TrimSpace(args[1])
		score, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return shared.ErrInvalidScore.Wrap(fmt.Errorf("%q is not a number", args[2]))
		}

		reg, err := a.openRegistry(ctx, b)
		if err != nil {
			return err
		}
		if err := reg.AddScore(id, subject, score); err != nil {
			return err
		}
		if err := reg.Save(ctx); err != nil {
			return err
		}

		rec, ok := reg.Find(id)
		if !ok {
			return shared.ErrRecordNotFound.Wrap(fmt.Errorf("id %q", id))
		}
		printf(cmd, "%s: %s = %.2f (average %.2f, %s)\n", id, subject, score, rec.Average(), rec.GradeLevel())
		return nil
	})
	return cmd
}

func newUnscoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unscore ID SUBJECT",
		Short: "Delete a subject score from a record",
		Args:  cobra.ExactArgs(2),
	}
	cmd.RunE = a.withBackend(func(ctx context.Context, cmd *cobra.Command, args []string, b *backend) error {
		reg, err := a.openRegistry(ctx, b)
		if err != nil {
			return err
		}
		removed, err := reg.RemoveScore(args[0], args[1])
		if err != nil {
			return err
		}
		if !removed {
			printf(cmd, "%s has no score for %s\n", args[0], args[1])
			return nil
		}
		if err := reg.Save(ctx); err != nil {
			return err
		}
		printf(cmd, "removed %s score from %s\n", args[1], args[0])
		return nil
	})
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one record with its scores",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.withBackend(func(ctx context.Context, cmd *cobra.Command, args []string, b *backend) error {
		reg, err := a.openRegistry(ctx, b)
		if err != nil {
			return err
		}
		rec, ok := reg.Find(args[0])
		if !ok {
			return shared.ErrRecordNotFound.Wrap(fmt.Errorf("id %q", args[0]))
		}
		return renderRecord(cmd.OutOrStdout(), rec)
	})
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List records in insertion order",
		Args:    cobra.NoArgs,
	}
	cmd.RunE = a.withBackend(func(ctx context.Context, cmd *cobra.Command, _ []string, b *backend) error {
		reg, err := a.openRegistry(ctx, b)
		if err != nil {
			return err
		}
		records := reg.All()
		if category != "" {
			filtered := records[:0]
			for _, rec := range records {
				if strings.EqualFold(rec.Category, category) {
					filtered = append(filtered, rec)
				}
			}
			records = filtered
		}
		if len(records) == 0 {
			printf(cmd, "no records\n")
			return nil
		}
		return renderRecordTable(cmd.OutOrStdout(), records)
	})
	cmd.Flags().StringVar(&category, "category", "", "only list records in this category")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show class statistics over scored records",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = a.withBackend(func(ctx context.Context, cmd *cobra.Command, _ []string, b *backend) error {
		reg, err := a.openRegistry(ctx, b)
		if err != nil {
			return err
		}
		stats, ok := reg.ClassStatistics()
		if asJSON {
			return renderStatisticsJSON(cmd.OutOrStdout(), stats, ok)
		}
		if !ok {
			printf(cmd, "no data\n")
			return nil
		}
		return renderStatistics(cmd.OutOrStdout(), stats)
	})
	cmd.Flags().BoolVar(&asJSON, "json", false, "print statistics as JSON")
	return cmd
}
