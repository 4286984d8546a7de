package student

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dated(subject string, p float64, minutes int, date time.Time) LogEntry {
	l := scored(subject, p, minutes)
	l.Date = date
	return l
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, time.February, 10, 15, 0, 0, 0, time.UTC)
	st := Student{
		ID:  "s1",
		GPA: 3.1,
		Subjects: []SubjectLedger{
			{SubjectName: "Algebra", TotalHours: 4, CreditHours: 0.25},
			{SubjectName: "Art", TotalHours: 1.5, IsCompleted: true},
		},
	}
	logs := []LogEntry{
		dated("Algebra", 90, 60, time.Date(2024, time.December, 3, 0, 0, 0, 0, time.UTC)),
		dated("Algebra", 70, 60, time.Date(2024, time.December, 20, 0, 0, 0, 0, time.UTC)),
		dated("Algebra", 95, 60, time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)),
		dated("Art", 0, 30, time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC)),
		dated("Art", 0, 45, time.Date(2025, time.February, 4, 0, 0, 0, 0, time.UTC)),
		dated("Algebra", 88, 60, time.Date(2025, time.February, 9, 0, 0, 0, 0, time.UTC)),
		dated("Art", 100, 0, time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC)),
	}

	d := Summarize(st, logs, now)

	assert.Equal(t, "s1", d.StudentID)
	assert.Equal(t, 3.1, d.GPA)
	assert.Equal(t, []SubjectHours{
		{SubjectName: "Algebra", TotalHours: 4, CreditHours: 0.25},
		{SubjectName: "Art", TotalHours: 1.5, IsCompleted: true},
	}, d.SubjectHours)
	assert.Equal(t, 1.8, d.LastWeekHours, "45 + 60 + 0 minutes, Feb 3 is older than 7 days")

	require.Len(t, d.MonthlyGPA, 3)
	assert.Equal(t, MonthlyGPA{Month: "2024-12", Label: "Dec", AveragePercentage: 80, GPA: 2.7}, d.MonthlyGPA[0])
	assert.Equal(t, MonthlyGPA{Month: "2025-01", Label: "Jan", AveragePercentage: 95, GPA: 4.0}, d.MonthlyGPA[1])
	assert.Equal(t, MonthlyGPA{Month: "2025-02", Label: "Feb", AveragePercentage: 94, GPA: 4.0}, d.MonthlyGPA[2])
}

func TestSummarize_empty(t *testing.T) {
	d := Summarize(Student{ID: "s1"}, nil, time.Now())
	assert.Empty(t, d.SubjectHours)
	assert.Empty(t, d.MonthlyGPA)
	assert.Zero(t, d.LastWeekHours)
}
