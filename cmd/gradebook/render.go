package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/alem-hub/gradebook/internal/domain/progress"
	"github.com/alem-hub/gradebook/internal/domain/record"
	"github.com/alem-hub/gradebook/pkg/timeutil"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func average(r *record.Record) string {
	if !r.HasScores() {
		return "-"
	}
	return fmt.Sprintf("%.2f", r.Average())
}

func level(r *record.Record) string {
	if !r.HasScores() {
		return "-"
	}
	return string(r.GradeLevel())
}

func renderRecordTable(w io.Writer, records []*record.Record) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tAGE\tAVERAGE\tLEVEL")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", r.ID(), r.Name, r.Category, r.Age, average(r), level(r))
	}
	return tw.Flush()
}

func renderRecord(w io.Writer, r *record.Record) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%s\n", r.ID())
	fmt.Fprintf(tw, "Name:\t%s\n", r.Name)
	fmt.Fprintf(tw, "Category:\t%s\n", r.Category)
	fmt.Fprintf(tw, "Age:\t%d\n", r.Age)
	fmt.Fprintf(tw, "Created:\t%s\n", timeutil.FormatDateTimeStr(r.CreatedAt))
	if !r.HasScores() {
		fmt.Fprintln(tw, "Scores:\tnone")
		return tw.Flush()
	}
	fmt.Fprintln(tw, "Scores:\t")
	for _, subject := range r.Subjects() {
		v, _ := r.Score(subject)
		fmt.Fprintf(tw, "  %s\t%.2f\n", subject, v)
	}
	fmt.Fprintf(tw, "Average:\t%.2f (%s)\n", r.Average(), r.GradeLevel())
	return tw.Flush()
}

func renderStatistics(w io.Writer, s record.Statistics) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Records:\t%d (%d scored)\n", s.Total, s.Count)
	fmt.Fprintf(tw, "Mean:\t%.2f\n", s.Mean)
	fmt.Fprintf(tw, "Highest:\t%.2f\n", s.Max)
	fmt.Fprintf(tw, "Lowest:\t%.2f\n", s.Min)
	for _, lvl := range record.GradeLevels() {
		fmt.Fprintf(tw, "  %s\t%d\n", lvl, s.Levels[lvl])
	}
	return tw.Flush()
}

type statisticsView struct {
	HasData bool           `json:"has_data"`
	Total   int            `json:"total"`
	Count   int            `json:"count"`
	Mean    float64        `json:"mean"`
	Max     float64        `json:"max"`
	Min     float64        `json:"min"`
	Levels  map[string]int `json:"levels"`
}

func renderStatisticsJSON(w io.Writer, s record.Statistics, ok bool) error {
	view := statisticsView{
		HasData: ok,
		Total:   s.Total,
		Count:   s.Count,
		Mean:    s.Mean,
		Max:     s.Max,
		Min:     s.Min,
		Levels:  make(map[string]int, len(s.Levels)),
	}
	for lvl, n := range s.Levels {
		view.Levels[lvl.Key()] = n
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

func renderProgress(w io.Writer, tr *progress.Tracker, now time.Time) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "#\tTOPIC\tDONE\tCOMPLETED AT")
	for i, te := range tr.Entries() {
		done, at := " ", "-"
		if te.Completed {
			done = "x"
		}
		if te.CompletedAt != nil {
			at = fmt.Sprintf("%s (%s)", timeutil.FormatDateTimeStr(*te.CompletedAt), timeutil.FormatRelative(*te.CompletedAt, now))
		}
		fmt.Fprintf(tw, "%d\t%s\t[%s]\t%s\n", i+1, te.Topic, done, at)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	sum := tr.Summary()
	fmt.Fprintf(w, "\n%d/%d topics completed (%.1f%%)\n", sum.Completed, sum.Total, sum.Percent)
	if next, ok := tr.NextTopic(); ok {
		fmt.Fprintf(w, "next: %s\n", next)
	} else {
		fmt.Fprintln(w, "all topics completed")
	}
	return nil
}
