package record

// Statistics summarises the scored records of a class.
type Statistics struct {
	// Total is the number of records, scored or not.
	Total int `json:"total"`

	// Count is the number of records with at least one score.
	Count int `json:"count"`

	// Mean is the mean of per-record averages, rounded to two decimals.
	Mean float64 `json:"mean"`

	Max float64 `json:"max"`
	Min float64 `json:"min"`

	// Levels counts scored records per grade level; all four levels are present.
	Levels map[GradeLevel]int `json:"levels"`
}

// ComputeStatistics aggregates records that have at least one score.
// The boolean is false when no record has a score ("no data").
func ComputeStatistics(records []*Record) (Statistics, bool) {
	stats := Statistics{
		Total:  len(records),
		Levels: make(map[GradeLevel]int, 4),
	}
	for _, level := range GradeLevels() {
		stats.Levels[level] = 0
	}

	var sum float64
	for _, r := range records {
		if !r.HasScores() {
			continue
		}
		avg := r.Average()
		if stats.Count == 0 || avg > stats.Max {
			stats.Max = avg
		}
		if stats.Count == 0 || avg < stats.Min {
			stats.Min = avg
		}
		sum += avg
		stats.Count++
		stats.Levels[LevelFor(avg)]++
	}

	if stats.Count == 0 {
		return stats, false
	}
	stats.Mean = round2(sum / float64(stats.Count))
	return stats, true
}
