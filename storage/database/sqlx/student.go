package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/homeschool/core"
	"github.com/trezcool/homeschool/core/student"
	"github.com/trezcool/homeschool/storage/database"
)

type (
	studentRow struct {
		ID        string    `db:"id"`
		OwnerID   string    `db:"owner_id"`
		FirstName string    `db:"first_name"`
		LastName  string    `db:"last_name"`
		BirthDate null.Time `db:"birth_date"`
		Grade     int       `db:"grade"`
		GPA       float64   `db:"gpa"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	// subjectRow keeps the registration order of a student's subjects in `position`.
	subjectRow struct {
		StudentID   string  `db:"student_id"`
		Position    int     `db:"position"`
		SubjectName string  `db:"subject_name"`
		TotalHours  float64 `db:"total_hours"`
		CreditHours float64 `db:"credit_hours"`
		IsCompleted bool    `db:"is_completed"`
	}

	logRow struct {
		ID               string       `db:"id"`
		StudentID        string       `db:"student_id"`
		SubjectName      string       `db:"subject_name"`
		Date             time.Time    `db:"date"`
		Comment          string       `db:"comment"`
		StudyTimeMinutes int          `db:"study_time_minutes"`
		Percentage       null.Float64 `db:"percentage"`
		Status           null.String  `db:"status"`
		CreatedAt        time.Time    `db:"created_at"`
	}
)

func toStudentRow(st student.Student) studentRow {
	return studentRow{
		ID:        st.ID,
		OwnerID:   st.OwnerID,
		FirstName: st.FirstName,
		LastName:  st.LastName,
		BirthDate: null.NewTime(st.BirthDate.UTC(), !st.BirthDate.IsZero()),
		Grade:     st.Grade,
		GPA:       st.GPA,
		CreatedAt: st.CreatedAt.UTC(),
		UpdatedAt: st.UpdatedAt.UTC(),
	}
}

func (r studentRow) student(subjects []subjectRow) student.Student {
	st := student.Student{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Grade:     r.Grade,
		GPA:       r.GPA,
		Subjects:  make([]student.SubjectLedger, 0, len(subjects)),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if r.BirthDate.Valid {
		st.BirthDate = r.BirthDate.Time.UTC()
	}
	for _, sub := range subjects {
		st.Subjects = append(st.Subjects, student.SubjectLedger{
			SubjectName: sub.SubjectName,
			TotalHours:  sub.TotalHours,
			CreditHours: sub.CreditHours,
			IsCompleted: sub.IsCompleted,
		})
	}
	return st
}

func toSubjectRows(st student.Student) []subjectRow {
	rows := make([]subjectRow, 0, len(st.Subjects))
	for i, sub := range st.Subjects {
		rows = append(rows, subjectRow{
			StudentID:   st.ID,
			Position:    i,
			SubjectName: sub.SubjectName,
			TotalHours:  sub.TotalHours,
			CreditHours: sub.CreditHours,
			IsCompleted: sub.IsCompleted,
		})
	}
	return rows
}

func toLogRow(l student.LogEntry) logRow {
	return logRow{
		ID:               l.ID,
		StudentID:        l.StudentID,
		SubjectName:      l.SubjectName,
		Date:             l.Date.UTC(),
		Comment:          l.Comment,
		StudyTimeMinutes: l.StudyTimeMinutes,
		Percentage:       null.Float64FromPtr(l.Percentage),
		Status:           null.NewString(l.Status, l.Status != ""),
		CreatedAt:        l.CreatedAt.UTC(),
	}
}

func (r logRow) entry() student.LogEntry {
	return student.LogEntry{
		ID:               r.ID,
		StudentID:        r.StudentID,
		SubjectName:      r.SubjectName,
		Date:             r.Date.UTC(),
		Comment:          r.Comment,
		StudyTimeMinutes: r.StudyTimeMinutes,
		Percentage:       r.Percentage.Ptr(),
		Status:           r.Status.String,
		CreatedAt:        r.CreatedAt.UTC(),
	}
}

const (
	studentColumns = "id, owner_id, first_name, last_name, birth_date, grade, gpa, created_at, updated_at"
	subjectColumns = "student_id, position, subject_name, total_hours, credit_hours, is_completed"
	logColumns     = "id, student_id, subject_name, date, comment, study_time_minutes, percentage, status, created_at"
)

// studentOrderingColumns whitelists the ORDER BY columns.
var studentOrderingColumns = map[string]string{
	"first_name": "lower(first_name)",
	"last_name":  "lower(last_name)",
	"grade":      "grade",
	"gpa":        "gpa",
	"created_at": "created_at",
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	st.ID = uuid.New().String()
	err := database.RunInTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO students (`+studentColumns+`)
			VALUES (:id, :owner_id, :first_name, :last_name, :birth_date, :grade, :gpa, :created_at, :updated_at)`,
			toStudentRow(st))
		if err != nil {
			return errors.Wrap(err, "inserting student")
		}
		return insertSubjects(ctx, tx, toSubjectRows(st))
	})
	if err != nil {
		return student.Student{}, err
	}
	return st, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	if !validID(id) {
		return student.Student{}, student.ErrNotFound
	}
	var r studentRow
	if err := repo.db.GetContext(ctx, &r, "SELECT "+studentColumns+" FROM students WHERE id = $1", id); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "selecting student")
	}
	var subjects []subjectRow
	q := "SELECT " + subjectColumns + " FROM subjects WHERE student_id = $1 ORDER BY position"
	if err := repo.db.SelectContext(ctx, &subjects, q, id); err != nil {
		return student.Student{}, errors.Wrap(err, "selecting subjects")
	}
	return r.student(subjects), nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, ownerID string, ordering []core.DBOrdering) ([]student.Student, error) {
	var (
		rows []studentRow
		args []interface{}
		q    = "SELECT " + studentColumns + " FROM students"
	)
	if ownerID != "" {
		if !validID(ownerID) {
			return []student.Student{}, nil
		}
		q += " WHERE owner_id = $1"
		args = append(args, ownerID)
	}
	q += " ORDER BY " + orderBy(ordering)
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}

	students := make([]student.Student, 0, len(rows))
	if len(rows) == 0 {
		return students, nil
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	q, inArgs, err := sqlx.In("SELECT "+subjectColumns+" FROM subjects WHERE student_id IN (?) ORDER BY student_id, position", ids)
	if err != nil {
		return nil, errors.Wrap(err, "building subjects query")
	}
	var subjects []subjectRow
	if err = repo.db.SelectContext(ctx, &subjects, repo.db.Rebind(q), inArgs...); err != nil {
		return nil, errors.Wrap(err, "selecting subjects")
	}
	byStudent := make(map[string][]subjectRow, len(rows))
	for _, sub := range subjects {
		byStudent[sub.StudentID] = append(byStudent[sub.StudentID], sub)
	}
	for _, r := range rows {
		students = append(students, r.student(byStudent[r.ID]))
	}
	return students, nil
}

// orderBy renders the ORDER BY clause; unknown fields are ignored and ties are broken by id.
func orderBy(ordering []core.DBOrdering) string {
	clauses := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if col, ok := studentOrderingColumns[ord.Field]; ok {
			clauses = append(clauses, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	if len(clauses) == 0 {
		clauses = append(clauses, "created_at ASC")
	}
	return strings.Join(append(clauses, "id ASC"), ", ")
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	if !validID(st.ID) {
		return student.Student{}, student.ErrNotFound
	}
	err := database.RunInTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		return updateStudent(ctx, tx, st)
	})
	if err != nil {
		return student.Student{}, err
	}
	return st, nil
}

// updateStudent saves the student row and replaces its subjects.
func updateStudent(ctx context.Context, tx *sqlx.Tx, st student.Student) error {
	res, err := tx.NamedExecContext(ctx, `
		UPDATE students SET
			first_name = :first_name,
			last_name = :last_name,
			birth_date = :birth_date,
			grade = :grade,
			gpa = :gpa,
			updated_at = :updated_at
		WHERE id = :id`,
		toStudentRow(st))
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	if err = checkAffected(res, student.ErrNotFound, "updating student"); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM subjects WHERE student_id = $1", st.ID); err != nil {
		return errors.Wrap(err, "deleting subjects")
	}
	return insertSubjects(ctx, tx, toSubjectRows(st))
}

func insertSubjects(ctx context.Context, tx *sqlx.Tx, rows []subjectRow) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO subjects (`+subjectColumns+`)
		VALUES (:student_id, :position, :subject_name, :total_hours, :credit_hours, :is_completed)`,
		rows)
	return errors.Wrap(err, "inserting subjects")
}

// DeleteStudent relies on ON DELETE CASCADE to drop subjects and logs.
func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	if !validID(id) {
		return student.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return checkAffected(res, student.ErrNotFound, "deleting student")
}

func (repo *studentRepository) SaveLog(ctx context.Context, st student.Student, entry student.LogEntry) (student.Student, student.LogEntry, error) {
	if !validID(st.ID) {
		return student.Student{}, student.LogEntry{}, student.ErrNotFound
	}
	entry.ID = uuid.New().String()
	err := database.RunInTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if err := updateStudent(ctx, tx, st); err != nil {
			return err
		}
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO daily_logs (`+logColumns+`)
			VALUES (:id, :student_id, :subject_name, :date, :comment, :study_time_minutes, :percentage, :status, :created_at)`,
			toLogRow(entry))
		return errors.Wrap(err, "inserting log")
	})
	if err != nil {
		return student.Student{}, student.LogEntry{}, err
	}
	return st, entry, nil
}

func (repo *studentRepository) QueryLogs(ctx context.Context, filter student.LogFilter) ([]student.LogEntry, error) {
	if !validID(filter.StudentID) {
		return []student.LogEntry{}, nil
	}
	var (
		rows  []logRow
		conds = []string{"student_id = ?"}
		args  = []interface{}{filter.StudentID}
	)
	if filter.SubjectName != "" {
		conds = append(conds, "lower(trim(subject_name)) = lower(trim(?))")
		args = append(args, filter.SubjectName)
	}
	if !filter.Date.IsZero() {
		conds = append(conds, "date = ?")
		args = append(args, filter.Date.UTC().Format("2006-01-02"))
	}
	q := "SELECT " + logColumns + " FROM daily_logs WHERE " + strings.Join(conds, " AND ") + " ORDER BY date, created_at"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting logs")
	}
	logs := make([]student.LogEntry, 0, len(rows))
	for _, r := range rows {
		logs = append(logs, r.entry())
	}
	return logs, nil
}
