package student

import (
	"gonum.org/v1/gonum/stat"

	"github.com/trezcool/homeschool/core"
	"github.com/trezcool/homeschool/core/grading"
)

// Pass/fail band results.
const (
	ResultPass       = "Pass"
	ResultFail       = "Fail"
	ResultIncomplete = "Incomplete"
	ResultCompleted  = "Completed"
)

func subjectKey(name string) string {
	return core.CleanString(name, true /* lower */)
}

func groupBySubject(logs []LogEntry) map[string][]LogEntry {
	grouped := make(map[string][]LogEntry)
	for _, l := range logs {
		k := subjectKey(l.SubjectName)
		grouped[k] = append(grouped[k], l)
	}
	return grouped
}

// SubjectAverage is the study-time weighted average percentage of the logs counting for GPA.
// ok is false when no log counts.
func SubjectAverage(logs []LogEntry) (avg float64, ok bool) {
	var pcts, minutes []float64
	for _, l := range logs {
		if l.CountsForGPA() {
			pcts = append(pcts, *l.Percentage)
			minutes = append(minutes, float64(l.StudyTimeMinutes))
		}
	}
	if len(pcts) == 0 {
		return 0, false
	}
	return stat.Mean(pcts, minutes), true
}

// RecomputeGPA is the credit-weighted average of each credited subject's grade point,
// rounded to 2 decimals. Subjects without credits or without scored logs are left out.
func RecomputeGPA(subjects []SubjectLedger, logs []LogEntry) float64 {
	grouped := groupBySubject(logs)

	var points, credits []float64
	for _, sub := range subjects {
		if sub.CreditHours <= 0 {
			continue
		}
		avg, ok := SubjectAverage(grouped[subjectKey(sub.SubjectName)])
		if !ok {
			continue
		}
		points = append(points, grading.PercentageToGPA(avg))
		credits = append(credits, sub.CreditHours)
	}
	if len(points) == 0 {
		return 0
	}
	return grading.Round2(stat.Mean(points, credits))
}

// PassFailResult is the majority of pass over fail statuses; ties pass and no logs is Incomplete.
func PassFailResult(logs []LogEntry) string {
	if len(logs) == 0 {
		return ResultIncomplete
	}
	var passed, failed int
	for _, l := range logs {
		switch l.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		}
	}
	if passed >= failed {
		return ResultPass
	}
	return ResultFail
}
