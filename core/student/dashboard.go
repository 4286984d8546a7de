package student

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/trezcool/homeschool/core/grading"
)

type SubjectHours struct {
	SubjectName string  `json:"subject_name"`
	TotalHours  float64 `json:"total_hours"`
	CreditHours float64 `json:"credit_hours"`
	IsCompleted bool    `json:"is_completed"`
}

type MonthlyGPA struct {
	Month             string  `json:"month"` // YYYY-MM
	Label             string  `json:"label"` // Jan
	AveragePercentage float64 `json:"average_percentage"`
	GPA               float64 `json:"gpa"`
}

type Dashboard struct {
	StudentID     string         `json:"student_id"`
	GPA           float64        `json:"gpa"`
	LastWeekHours float64        `json:"last_week_hours"`
	SubjectHours  []SubjectHours `json:"subject_hours"`
	MonthlyGPA    []MonthlyGPA   `json:"monthly_gpa"`
}

// Summarize builds the dashboard figures of `st` as of `now`.
func Summarize(st Student, logs []LogEntry, now time.Time) Dashboard {
	d := Dashboard{
		StudentID:    st.ID,
		GPA:          st.GPA,
		SubjectHours: make([]SubjectHours, 0, len(st.Subjects)),
		MonthlyGPA:   monthlyGPA(logs),
	}
	for _, sub := range st.Subjects {
		d.SubjectHours = append(d.SubjectHours, SubjectHours(sub))
	}

	weekAgo := now.UTC().AddDate(0, 0, -7)
	var minutes int
	for _, l := range logs {
		if !l.Date.Before(weekAgo) {
			minutes += l.StudyTimeMinutes
		}
	}
	d.LastWeekHours = math.Round(float64(minutes)/6) / 10
	return d
}

// monthlyGPA averages the scored logs of each calendar month, oldest month first.
func monthlyGPA(logs []LogEntry) []MonthlyGPA {
	type bucket struct {
		start time.Time
		pcts  []float64
	}
	buckets := make(map[string]*bucket)
	for _, l := range logs {
		if l.Percentage == nil || *l.Percentage <= 0 {
			continue
		}
		key := l.Date.UTC().Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			y, m, _ := l.Date.UTC().Date()
			b = &bucket{start: time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)}
			buckets[key] = b
		}
		b.pcts = append(b.pcts, *l.Percentage)
	}

	series := make([]MonthlyGPA, 0, len(buckets))
	for key, b := range buckets {
		avg := stat.Mean(b.pcts, nil)
		series = append(series, MonthlyGPA{
			Month:             key,
			Label:             b.start.Format("Jan"),
			AveragePercentage: grading.Round2(avg),
			GPA:               grading.PercentageToGPA(avg),
		})
	}
	// "YYYY-MM" sorts chronologically
	sort.Slice(series, func(i, j int) bool { return series[i].Month < series[j].Month })
	return series
}
