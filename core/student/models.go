// Package student holds the students' academic records: subject ledgers, daily logs and the
// GPA, transcript and dashboard computations derived from them.
package student

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/homeschool/core"
)

// Log statuses of the pass/fail band.
const (
	StatusPass = "pass"
	StatusFail = "fail"
)

// PassFailMaxGrade is the highest grade graded pass/fail instead of by percentage.
const PassFailMaxGrade = 5

type Student struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	BirthDate time.Time       `json:"birth_date"`
	Grade     int             `json:"grade"` // 0 is Kindergarten
	Subjects  []SubjectLedger `json:"subjects"`
	GPA       float64         `json:"gpa"`
	CreatedAt time.Time       `json:"created_at"` // UTC
	UpdatedAt time.Time       `json:"updated_at"` // UTC
}

func (st Student) FullName() string {
	return strings.TrimSpace(st.FirstName + " " + st.LastName)
}

// UsesPassFail reports whether the student's logs carry a pass/fail status instead of a percentage.
func (st Student) UsesPassFail() bool {
	return st.Grade <= PassFailMaxGrade
}

type SubjectLedger struct {
	SubjectName string  `json:"subject_name"`
	TotalHours  float64 `json:"total_hours"`
	CreditHours float64 `json:"credit_hours"`
	IsCompleted bool    `json:"is_completed"`
}

// LogEntry is one day of activity in one subject. It is never modified once saved.
type LogEntry struct {
	ID               string    `json:"id"`
	StudentID        string    `json:"student_id"`
	SubjectName      string    `json:"subject_name"`
	Date             time.Time `json:"date"` // UTC midnight
	Comment          string    `json:"comment"`
	StudyTimeMinutes int       `json:"study_time_minutes"`
	Percentage       *float64  `json:"percentage"` // grade > 5
	Status           string    `json:"status"`     // grade <= 5; "pass", "fail" or ""
	CreatedAt        time.Time `json:"created_at"` // UTC
}

// CountsForGPA reports whether the entry has both a score and measured study time.
func (l LogEntry) CountsForGPA() bool {
	return l.Percentage != nil && *l.Percentage > 0 && l.StudyTimeMinutes > 0
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	OwnerID   string    `json:"-" validate:"required"`
	FirstName string    `json:"first_name" validate:"required,notblank"`
	LastName  string    `json:"last_name" validate:"required,notblank"`
	BirthDate time.Time `json:"birth_date"`
	Grade     *int      `json:"grade" validate:"required,min=0,max=12"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
type UpdateStudent struct {
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	BirthDate *time.Time `json:"birth_date"`
	Grade     *int       `json:"grade" validate:"omitempty,min=0,max=12"`
}

func (us *UpdateStudent) Validate(orig Student, validate *validator.Validate) error {
	if name := core.CleanString(us.FirstName); name != "" {
		us.FirstName = name
	} else {
		us.FirstName = orig.FirstName
	}
	if name := core.CleanString(us.LastName); name != "" {
		us.LastName = name
	} else {
		us.LastName = orig.LastName
	}
	return validate.Struct(us)
}

// NewLog is a daily activity submission.
type NewLog struct {
	StudentID        string    `json:"-" validate:"required"`
	SubjectName      string    `json:"subject_name" validate:"required,notblank,max=100"`
	Comment          string    `json:"comment" validate:"required,notblank"`
	StudyTimeMinutes int       `json:"study_time_minutes" validate:"gte=0"`
	Percentage       *float64  `json:"percentage"`
	Status           string    `json:"status"`
	Date             time.Time `json:"date"` // defaults to today
}

func (nl *NewLog) Validate(validate *validator.Validate) error {
	nl.SubjectName = core.CleanString(nl.SubjectName)
	nl.Comment = core.CleanString(nl.Comment)
	nl.Status = core.CleanString(nl.Status, true /* lower */)
	return validate.Struct(nl)
}

// LogResult is what a submission changed.
type LogResult struct {
	Log     LogEntry      `json:"log"`
	Subject SubjectLedger `json:"subject"`
	GPA     float64       `json:"gpa"`
}

type LogFilter struct {
	StudentID   string    `query:"-"`
	SubjectName string    `query:"subject"`
	Date        time.Time `query:"date"`
}

func (f *LogFilter) Clean() {
	f.SubjectName = core.CleanString(f.SubjectName)
	if !f.Date.IsZero() {
		f.Date = day(f.Date)
	}
}

// Overview summarizes all students of one account.
type Overview struct {
	TotalStudents int     `json:"total_students"`
	AverageGPA    float64 `json:"average_gpa"`
}

// day truncates t to its UTC calendar day.
func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
