package student

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/trezcool/homeschool/core"
	"github.com/trezcool/homeschool/core/grading"
	"github.com/trezcool/homeschool/core/policy"
)

var (
	// errors
	ErrNotFound = errors.New("student not found")

	// OrderingFields are the fields students may be ordered by.
	OrderingFields = []string{"first_name", "last_name", "grade", "gpa", "created_at"}
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, st Student) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		QueryStudents(ctx context.Context, ownerID string, ordering []core.DBOrdering) ([]Student, error)
		// UpdateStudent saves the profile, the subject ledgers and the GPA.
		UpdateStudent(ctx context.Context, st Student) (Student, error)
		// DeleteStudent also deletes the student's logs.
		DeleteStudent(ctx context.Context, id string) error
		// SaveLog saves the student and inserts the log atomically.
		SaveLog(ctx context.Context, st Student, entry LogEntry) (Student, LogEntry, error)
		// QueryLogs returns logs ordered by date then creation time.
		QueryLogs(ctx context.Context, filter LogFilter) ([]LogEntry, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
		mailSvc  core.EmailService
		logger   core.Logger
		locks    *locker
		nowFunc  func() time.Time
	}
)

func NewService(repo Repository, validate *validator.Validate, mailSvc core.EmailService, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(mailSvc, "mailSvc"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()
	return &Service{
		repo:     repo,
		validate: validate,
		mailSvc:  mailSvc,
		logger:   logger,
		locks:    newLocker(),
		nowFunc:  time.Now,
	}
}

func (svc *Service) now() time.Time { return svc.nowFunc().UTC() }

func (svc *Service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return Student{}, err
	}
	now := svc.now()
	st := Student{
		OwnerID:   ns.OwnerID,
		FirstName: ns.FirstName,
		LastName:  ns.LastName,
		Grade:     *ns.Grade,
		Subjects:  []SubjectLedger{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !ns.BirthDate.IsZero() {
		st.BirthDate = day(ns.BirthDate)
	}
	return svc.repo.CreateStudent(ctx, st)
}

func (svc *Service) GetStudent(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) QueryStudents(ctx context.Context, ownerID string, ordering ...core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, ownerID, ordering)
}

func (svc *Service) UpdateStudent(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	unlock := svc.locks.Lock(id)
	defer unlock()

	st, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if err = us.Validate(st, svc.validate); err != nil {
		return Student{}, err
	}
	st.FirstName = us.FirstName
	st.LastName = us.LastName
	if us.BirthDate != nil {
		st.BirthDate = day(*us.BirthDate)
	}
	if us.Grade != nil {
		st.Grade = *us.Grade
	}
	st.UpdatedAt = svc.now()
	return svc.repo.UpdateStudent(ctx, st)
}

func (svc *Service) DeleteStudent(ctx context.Context, id string) error {
	unlock := svc.locks.Lock(id)
	defer unlock()
	return svc.repo.DeleteStudent(ctx, id)
}

// RegisterSubject adds an empty subject ledger unless one with the same name exists.
func (svc *Service) RegisterSubject(ctx context.Context, studentID, name string) (SubjectLedger, bool, error) {
	if err := svc.checkSubjectName(name); err != nil {
		return SubjectLedger{}, false, err
	}

	unlock := svc.locks.Lock(studentID)
	defer unlock()

	st, err := svc.repo.GetStudentByID(ctx, studentID)
	if err != nil {
		return SubjectLedger{}, false, err
	}
	sub, created := st.RegisterIfMissing(name)
	if !created {
		return *sub, false, nil
	}
	name = sub.SubjectName
	st.UpdatedAt = svc.now()
	if st, err = svc.repo.UpdateStudent(ctx, st); err != nil {
		return SubjectLedger{}, false, errors.Wrap(err, "saving student")
	}
	sub, _ = st.FindSubject(name)
	return *sub, true, nil
}

// SubmitLog records one day of activity: the subject ledger accrues the study time (and, for
// hours-based policies, its credit step), the log is appended and the GPA is recomputed.
func (svc *Service) SubmitLog(ctx context.Context, nl NewLog, pol policy.CreditPolicy) (LogResult, error) {
	if err := nl.Validate(svc.validate); err != nil {
		return LogResult{}, err
	}
	if err := pol.Validate(); err != nil {
		return LogResult{}, err
	}

	unlock := svc.locks.Lock(nl.StudentID)
	defer unlock()

	st, err := svc.repo.GetStudentByID(ctx, nl.StudentID)
	if err != nil {
		return LogResult{}, err
	}
	logs, err := svc.repo.QueryLogs(ctx, LogFilter{StudentID: st.ID})
	if err != nil {
		return LogResult{}, errors.Wrap(err, "querying logs")
	}

	sub, _ := st.RegisterIfMissing(nl.SubjectName)
	if pol.IsHoursBased() {
		sub.ApplyLog(nl.StudyTimeMinutes, pol.HoursPerCredit)
	} else {
		sub.AccumulateHours(nl.StudyTimeMinutes)
	}

	now := svc.now()
	entry := LogEntry{
		StudentID:        st.ID,
		SubjectName:      sub.SubjectName,
		Date:             day(now),
		Comment:          nl.Comment,
		StudyTimeMinutes: nl.StudyTimeMinutes,
		CreatedAt:        now,
	}
	if !nl.Date.IsZero() {
		entry.Date = day(nl.Date)
	}
	if st.UsesPassFail() {
		entry.Status = svc.passFailStatus(nl.Status)
	} else {
		var pct float64
		if nl.Percentage != nil {
			pct = grading.Clamp(*nl.Percentage)
		}
		entry.Percentage = &pct
	}

	st.GPA = RecomputeGPA(st.Subjects, append(logs, entry))
	st.UpdatedAt = now

	st, entry, err = svc.repo.SaveLog(ctx, st, entry)
	if err != nil {
		return LogResult{}, errors.Wrap(err, "saving log")
	}
	saved, _ := st.FindSubject(entry.SubjectName)
	return LogResult{Log: entry, Subject: *saved, GPA: st.GPA}, nil
}

func (svc *Service) passFailStatus(status string) string {
	switch status {
	case StatusPass, StatusFail, "":
		return status
	default:
		svc.logger.Debug(fmt.Sprintf("student.SubmitLog: unknown status %q stored as empty", status))
		return ""
	}
}

// ToggleCompletion marks a subject (registering it if needed) as completed or not.
// Credits change by one; the GPA is recomputed since credits weigh subjects.
func (svc *Service) ToggleCompletion(ctx context.Context, studentID, subject string, completed bool) (SubjectLedger, error) {
	if err := svc.checkSubjectName(subject); err != nil {
		return SubjectLedger{}, err
	}

	unlock := svc.locks.Lock(studentID)
	defer unlock()

	st, err := svc.repo.GetStudentByID(ctx, studentID)
	if err != nil {
		return SubjectLedger{}, err
	}
	logs, err := svc.repo.QueryLogs(ctx, LogFilter{StudentID: st.ID})
	if err != nil {
		return SubjectLedger{}, errors.Wrap(err, "querying logs")
	}

	sub, _ := st.RegisterIfMissing(subject)
	sub.ToggleCompletion(completed)
	name := sub.SubjectName

	st.GPA = RecomputeGPA(st.Subjects, logs)
	st.UpdatedAt = svc.now()
	if st, err = svc.repo.UpdateStudent(ctx, st); err != nil {
		return SubjectLedger{}, errors.Wrap(err, "saving student")
	}
	saved, _ := st.FindSubject(name)
	return *saved, nil
}

func (svc *Service) checkSubjectName(name string) error {
	if core.CleanString(name) == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "subject_name", Error: "this field is required"})
	}
	return nil
}

// QueryLogs returns the logs of an existing student matching `filter`.
func (svc *Service) QueryLogs(ctx context.Context, filter LogFilter) ([]LogEntry, error) {
	filter.Clean()
	if _, err := svc.repo.GetStudentByID(ctx, filter.StudentID); err != nil {
		return nil, err
	}
	return svc.repo.QueryLogs(ctx, filter)
}

// HasLoggedSubject reports whether any log was ever submitted for the subject.
func (svc *Service) HasLoggedSubject(ctx context.Context, studentID, subject string) (bool, error) {
	if err := svc.checkSubjectName(subject); err != nil {
		return false, err
	}
	logs, err := svc.QueryLogs(ctx, LogFilter{StudentID: studentID, SubjectName: subject})
	if err != nil {
		return false, err
	}
	return len(logs) > 0, nil
}

func (svc *Service) loadRecord(ctx context.Context, studentID string) (Student, []LogEntry, error) {
	st, err := svc.repo.GetStudentByID(ctx, studentID)
	if err != nil {
		return Student{}, nil, err
	}
	logs, err := svc.repo.QueryLogs(ctx, LogFilter{StudentID: st.ID})
	if err != nil {
		return Student{}, nil, errors.Wrap(err, "querying logs")
	}
	return st, logs, nil
}

func (svc *Service) Transcript(ctx context.Context, studentID string, pol policy.CreditPolicy) (Transcript, error) {
	st, logs, err := svc.loadRecord(ctx, studentID)
	if err != nil {
		return Transcript{}, err
	}
	return Project(st, logs, pol), nil
}

func (svc *Service) Dashboard(ctx context.Context, studentID string) (Dashboard, error) {
	st, logs, err := svc.loadRecord(ctx, studentID)
	if err != nil {
		return Dashboard{}, err
	}
	return Summarize(st, logs, svc.now()), nil
}

// OwnerOverview counts an account's students and averages their GPAs.
func (svc *Service) OwnerOverview(ctx context.Context, ownerID string) (Overview, error) {
	students, err := svc.repo.QueryStudents(ctx, ownerID, nil)
	if err != nil {
		return Overview{}, errors.Wrap(err, "querying students")
	}
	ov := Overview{TotalStudents: len(students)}
	if len(students) > 0 {
		gpas := make([]float64, 0, len(students))
		for _, st := range students {
			gpas = append(gpas, st.GPA)
		}
		ov.AverageGPA = grading.Round2(stat.Mean(gpas, nil))
	}
	return ov, nil
}

// EmailTranscript sends the transcript to `to`, with a plain text copy attached.
func (svc *Service) EmailTranscript(ctx context.Context, studentID string, pol policy.CreditPolicy, to mail.Address) error {
	t, err := svc.Transcript(ctx, studentID, pol)
	if err != nil {
		return err
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{to},
		Subject:      "Transcript of " + t.StudentName,
		TemplateName: "transcript",
		TemplateData: t,
	}
	fname := strings.ToLower(strings.ReplaceAll(t.StudentName, " ", "-")) + "-transcript.txt"
	if err = msg.Attach(strings.NewReader(strings.Join(t.Lines(), "\n")), fname, "text/plain"); err != nil {
		return errors.Wrap(err, "attaching transcript")
	}
	svc.mailSvc.SendMessages(msg)
	return nil
}
