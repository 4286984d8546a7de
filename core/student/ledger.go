package student

import (
	"math"

	"github.com/trezcool/homeschool/core"
	"github.com/trezcool/homeschool/core/grading"
)

// FindSubject looks a subject up by its trimmed, case-insensitive name.
func (st *Student) FindSubject(name string) (*SubjectLedger, bool) {
	for i := range st.Subjects {
		if core.SameName(st.Subjects[i].SubjectName, name) {
			return &st.Subjects[i], true
		}
	}
	return nil, false
}

// RegisterIfMissing returns the subject named `name`, appending an empty one first if needed.
// The returned pointer is only valid until the next registration.
func (st *Student) RegisterIfMissing(name string) (*SubjectLedger, bool) {
	if sub, ok := st.FindSubject(name); ok {
		return sub, false
	}
	st.Subjects = append(st.Subjects, SubjectLedger{SubjectName: core.CleanString(name)})
	return &st.Subjects[len(st.Subjects)-1], true
}

// ApplyLog accumulates study time and recomputes the hours-based credit step.
func (sub *SubjectLedger) ApplyLog(deltaMinutes int, hoursPerCredit float64) {
	sub.AccumulateHours(deltaMinutes)
	sub.CreditHours = grading.CreditsForHours(sub.TotalHours, hoursPerCredit)
}

// AccumulateHours only adds study time; completion-based credits come from ToggleCompletion.
func (sub *SubjectLedger) AccumulateHours(deltaMinutes int) {
	sub.TotalHours = grading.Accumulate(sub.TotalHours, deltaMinutes)
}

// ToggleCompletion adds a credit when completing and takes one back (never below 0) when un-completing.
func (sub *SubjectLedger) ToggleCompletion(completed bool) {
	switch {
	case completed && !sub.IsCompleted:
		sub.CreditHours++
	case !completed && sub.IsCompleted:
		sub.CreditHours = math.Max(sub.CreditHours-1, 0)
	}
	sub.IsCompleted = completed
}
