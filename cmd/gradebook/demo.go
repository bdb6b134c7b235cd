package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/alem-hub/gradebook/internal/domain/shared"
)

type demoRecord struct {
	id, name, category string
	age                int
	scores             [3]float64
}

var demoSubjects = [3]string{"math", "chinese", "english"}

var demoRecords = []demoRecord{
	{"2024001", "Zhang San", "Grade 12", 18, [3]float64{85, 90, 88}},
	{"2024002", "Li Si", "Grade 12", 17, [3]float64{78, 85, 82}},
	{"2024003", "Wang Wu", "Grade 12", 18, [3]float64{92, 88, 95}},
	{"2024004", "Zhao Liu", "Grade 12", 17, [3]float64{88, 92, 85}},
}

func newDemoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Load a sample class and print its statistics",
		Long: "Adds four sample students with math, chinese and english scores to the\n" +
			"configured store. Ids that already exist are left untouched.",
		Args: cobra.NoArgs,
	}
	cmd.RunE = a.withBackend(func(ctx context.Context, cmd *cobra.Command, _ []string, b *backend) error {
		reg, err := a.openRegistry(ctx, b)
		if err != nil {
			return err
		}

		added := 0
		for _, d := range demoRecords {
			if _, err := reg.Add(d.id, d.name, d.category, d.age); err != nil {
				if errors.Is(err, shared.ErrDuplicateID) {
					printf(cmd, "skipped %s (already present)\n", d.id)
					continue
				}
				return err
			}
			for i, subject := range demoSubjects {
				if err := reg.AddScore(d.id, subject, d.scores[i]); err != nil {
					return err
				}
			}
			added++
		}
		if err := reg.Save(ctx); err != nil {
			return err
		}
		printf(cmd, "added %d demo records\n\n", added)

		if err := renderRecordTable(cmd.OutOrStdout(), reg.All()); err != nil {
			return err
		}
		stats, ok := reg.ClassStatistics()
		if !ok {
			printf(cmd, "\nno data\n")
			return nil
		}
		printf(cmd, "\n")
		return renderStatistics(cmd.OutOrStdout(), stats)
	})
	return cmd
}
