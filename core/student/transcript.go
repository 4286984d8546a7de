package student

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/trezcool/homeschool/core/grading"
	"github.com/trezcool/homeschool/core/policy"
)

// Credit labels, by regime and grade band.
const (
	LabelCumulativeCredits = "Total Cumulative Credits"
	LabelPassedCredits     = "Total Passed Credits"
	LabelCompletedCredits  = "Total Completed Credits"
)

type TranscriptLine struct {
	SubjectName   string   `json:"subject_name"`
	Result        string   `json:"result"`
	Percentage    *int     `json:"percentage"`
	Letter        string   `json:"letter,omitempty"`
	EarnedCredits float64  `json:"earned_credits"`
	CourseGPA     *float64 `json:"course_gpa"`
}

// Transcript is computed on demand and never stored.
type Transcript struct {
	StudentID          string           `json:"student_id"`
	StudentName        string           `json:"student_name"`
	Grade              int              `json:"grade"`
	CreditDefinition   string           `json:"credit_definition"`
	Regime             string           `json:"regime"`
	Subjects           []TranscriptLine `json:"subjects"`
	CreditsLabel       string           `json:"credits_label"`
	TotalCredits       float64          `json:"total_credits"`
	CumulativeGPA      *float64         `json:"cumulative_gpa"`
	MinCreditsRequired float64          `json:"min_credits_required"`
	MeetsMinimum       bool             `json:"meets_minimum"`
	GeneratedAt        time.Time        `json:"generated_at"`
}

// Project builds the transcript of `st` under `pol`.
func Project(st Student, logs []LogEntry, pol policy.CreditPolicy) Transcript {
	t := Transcript{
		StudentID:          st.ID,
		StudentName:        st.FullName(),
		Grade:              st.Grade,
		CreditDefinition:   pol.CreditDefinition,
		Regime:             pol.Regime().String(),
		Subjects:           make([]TranscriptLine, 0, len(st.Subjects)),
		MinCreditsRequired: pol.MinCreditsRequired,
		GeneratedAt:        time.Now().UTC(),
	}
	graded := pol.IsHoursBased() && !st.UsesPassFail()
	switch {
	case !pol.IsHoursBased():
		t.CreditsLabel = LabelCompletedCredits
	case graded:
		t.CreditsLabel = LabelCumulativeCredits
	default:
		t.CreditsLabel = LabelPassedCredits
	}

	grouped := groupBySubject(logs)
	for _, sub := range st.Subjects {
		var line TranscriptLine
		switch {
		case !pol.IsHoursBased():
			line = completionLine(sub)
		case graded:
			line = gradedLine(sub, grouped[subjectKey(sub.SubjectName)])
		default:
			line = passFailLine(sub, grouped[subjectKey(sub.SubjectName)])
		}
		t.Subjects = append(t.Subjects, line)
		t.TotalCredits += line.EarnedCredits
	}
	t.TotalCredits = grading.Round2(t.TotalCredits)
	t.MeetsMinimum = t.TotalCredits >= pol.MinCreditsRequired

	if graded {
		gpa := RecomputeGPA(st.Subjects, logs)
		t.CumulativeGPA = &gpa
	}
	return t
}

func completionLine(sub SubjectLedger) TranscriptLine {
	line := TranscriptLine{SubjectName: sub.SubjectName, Result: ResultIncomplete}
	if sub.IsCompleted {
		line.Result = ResultCompleted
		line.EarnedCredits = sub.CreditHours
	}
	return line
}

func passFailLine(sub SubjectLedger, logs []LogEntry) TranscriptLine {
	line := TranscriptLine{SubjectName: sub.SubjectName, Result: PassFailResult(logs)}
	if line.Result == ResultPass {
		line.EarnedCredits = sub.CreditHours
	}
	return line
}

func gradedLine(sub SubjectLedger, logs []LogEntry) TranscriptLine {
	line := TranscriptLine{SubjectName: sub.SubjectName, Result: ResultIncomplete}
	avg, ok := SubjectAverage(logs)
	if !ok {
		return line
	}
	grade := grading.ScoreToGrade(avg)
	pct := int(math.Round(avg))
	point := grade.Point

	line.Result = fmt.Sprintf("%d (%s)", pct, grade.Letter)
	line.Percentage = &pct
	line.Letter = grade.Letter
	line.CourseGPA = &point
	line.EarnedCredits = sub.CreditHours
	return line
}

// CourseGPAText is the course GPA with 2 decimals, or "-" when the subject is not graded.
func (l TranscriptLine) CourseGPAText() string {
	if l.CourseGPA == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *l.CourseGPA)
}

// CumulativeGPAText is empty when the transcript carries no GPA.
func (t Transcript) CumulativeGPAText() string {
	if t.CumulativeGPA == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *t.CumulativeGPA)
}

// Lines renders the transcript as a plain text table.
func (t Transcript) Lines() []string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "Subject\tResult\tCredits\tCourse GPA")
	for _, line := range t.Subjects {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", line.SubjectName, line.Result, line.EarnedCredits, line.CourseGPAText())
	}
	_ = w.Flush()

	lines := []string{
		fmt.Sprintf("Transcript: %s (grade %s)", t.StudentName, gradeLabel(t.Grade)),
		fmt.Sprintf("Credit definition: %s", t.CreditDefinition),
		"",
	}
	lines = append(lines, strings.Split(strings.TrimRight(b.String(), "\n"), "\n")...)
	lines = append(lines, "", fmt.Sprintf("%s: %.2f", t.CreditsLabel, t.TotalCredits))
	if gpa := t.CumulativeGPAText(); gpa != "" {
		lines = append(lines, "Cumulative GPA: "+gpa)
	}
	if t.MinCreditsRequired > 0 {
		lines = append(lines, fmt.Sprintf("Minimum credits required: %.2f", t.MinCreditsRequired))
	}
	return lines
}

func gradeLabel(grade int) string {
	if grade == 0 {
		return "K"
	}
	return fmt.Sprint(grade)
}
