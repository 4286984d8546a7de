package sqlxrepos

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/homeschool/core"
	"github.com/trezcool/homeschool/core/account"
	"github.com/trezcool/homeschool/core/policy"
	"github.com/trezcool/homeschool/core/student"
)

var (
	ctx  = context.Background()
	now  = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	sid  = "0b8f2d9c-8f43-4c1e-9f5a-2d7c0a1e5b11"
	oid  = "7d3c5e21-6a14-4b0f-8e2d-5c9b7a3f1e02"
	pct  = 88.5
	cols = struct{ state, account, student, subject, log []string }{
		state:   []string{"id", "name", "credit_definition", "is_completion_based", "hours_per_credit", "min_credits_required", "created_at", "updated_at"},
		account: []string{"id", "name", "email", "password_hash", "is_admin", "state_id", "credit_definition", "hours_per_credit", "min_credits_required", "created_at", "updated_at", "last_login"},
		student: []string{"id", "owner_id", "first_name", "last_name", "birth_date", "grade", "gpa", "created_at", "updated_at"},
		subject: []string{"student_id", "position", "subject_name", "total_hours", "credit_hours", "is_completed"},
		log:     []string{"id", "student_id", "subject_name", "date", "comment", "study_time_minutes", "percentage", "status", "created_at"},
	}
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestStateRepository(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStateRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO states (id, name,")).
		WithArgs(sqlmock.AnyArg(), "Texas", policy.CarnegieUnit, false, 120.0, 26.0, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	st, err := repo.CreateState(ctx, policy.State{Name: "Texas", CreditDefinition: policy.CarnegieUnit, HoursPerCredit: 120, MinCreditsRequired: 26, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	assert.True(t, validID(st.ID))

	mock.ExpectQuery(regexp.QuoteMeta("FROM states WHERE lower(trim(name)) = lower(trim($1))")).
		WithArgs("texas").
		WillReturnRows(sqlmock.NewRows(cols.state).AddRow(st.ID, "Texas", policy.CarnegieUnit, false, 120.0, 26.0, now, now))
	got, err := repo.GetStateByName(ctx, "texas")
	require.NoError(t, err)
	assert.Equal(t, st, got)

	mock.ExpectQuery(regexp.QuoteMeta("FROM states WHERE lower(trim(name))")).
		WithArgs("Utah").
		WillReturnRows(sqlmock.NewRows(cols.state))
	_, err = repo.GetStateByName(ctx, "Utah")
	assert.Equal(t, policy.ErrNotFound, err)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE states SET")).WillReturnResult(sqlmock.NewResult(0, 0))
	_, err = repo.UpdateState(ctx, policy.State{ID: sid, Name: "Gone"})
	assert.Equal(t, policy.ErrNotFound, err)

	_, err = repo.GetStateByID(ctx, "not-a-uuid")
	assert.Equal(t, policy.ErrNotFound, err, "no query is sent")

	mock.ExpectQuery(regexp.QuoteMeta("FROM states ORDER BY name")).
		WillReturnRows(sqlmock.NewRows(cols.state).
			AddRow(sid, "Alaska", "Course Completion", true, 120.0, 21.0, now, now).
			AddRow(st.ID, "Texas", policy.CarnegieUnit, false, 120.0, 26.0, now, now))
	states, err := repo.QueryStates(ctx)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, policy.CompletionBased, states[0].Regime())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepository(db)
	acc := account.Account{
		Name: "Jane", Email: "jane@test.test", PasswordHash: []byte("hash"), CreditDefinition: policy.CarnegieUnit,
		HoursPerCredit: 120, MinCreditsRequired: 24, CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WithArgs(sqlmock.AnyArg(), "Jane", "jane@test.test", []byte("hash"), false, nil, policy.CarnegieUnit, 120.0, 24.0, now, now, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	created, err := repo.CreateAccount(ctx, acc)
	require.NoError(t, err)
	assert.True(t, validID(created.ID))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).WillReturnError(&pq.Error{Code: uniqueViolation})
	_, err = repo.CreateAccount(ctx, acc)
	assert.Equal(t, account.ErrEmailExists, err)

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE email = $1")).
		WithArgs("jane@test.test").
		WillReturnRows(sqlmock.NewRows(cols.account).
			AddRow(created.ID, "Jane", "jane@test.test", []byte("hash"), false, sid, policy.Local, 60.0, 20.0, now, now, nil))
	got, err := repo.GetAccountByEmail(ctx, "jane@test.test")
	require.NoError(t, err)
	assert.Equal(t, sid, got.StateID)
	assert.Equal(t, policy.Local, got.CreditDefinition)
	assert.True(t, got.LastLogin.IsZero())

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE id = $1")).
		WithArgs(oid).
		WillReturnRows(sqlmock.NewRows(cols.account))
	_, err = repo.GetAccountByID(ctx, oid)
	assert.Equal(t, account.ErrNotFound, err)

	_, err = repo.GetAccountByID(ctx, "42")
	assert.Equal(t, account.ErrNotFound, err)

	got.LastLogin = now
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET")).WillReturnResult(sqlmock.NewResult(0, 1))
	updated, err := repo.UpdateAccount(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, now, updated.LastLogin)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepository_GetStudentByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id = $1")).
		WithArgs(sid).
		WillReturnRows(sqlmock.NewRows(cols.student).AddRow(sid, oid, "Ada", "Lovelace", nil, 9, 3.5, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE student_id = $1 ORDER BY position")).
		WithArgs(sid).
		WillReturnRows(sqlmock.NewRows(cols.subject).
			AddRow(sid, 0, "Algebra", 12.5, 0.25, false).
			AddRow(sid, 1, "Art", 3.0, 1.0, true))

	st, err := repo.GetStudentByID(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", st.FullName())
	assert.True(t, st.BirthDate.IsZero())
	assert.Equal(t, []student.SubjectLedger{
		{SubjectName: "Algebra", TotalHours: 12.5, CreditHours: 0.25},
		{SubjectName: "Art", TotalHours: 3, CreditHours: 1, IsCompleted: true},
	}, st.Subjects)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id = $1")).
		WithArgs(oid).
		WillReturnRows(sqlmock.NewRows(cols.student))
	_, err = repo.GetStudentByID(ctx, oid)
	assert.Equal(t, student.ErrNotFound, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepository_QueryStudents(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStudentRepository(db)
	other := "3e9d1b7a-2c4f-4a8e-b6d0-9f1e2a3b4c5d"

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE owner_id = $1 ORDER BY grade DESC, id ASC")).
		WithArgs(oid).
		WillReturnRows(sqlmock.NewRows(cols.student).
			AddRow(sid, oid, "Ada", "Lovelace", now, 9, 3.5, now, now).
			AddRow(other, oid, "Tom", "Thumb", nil, 2, 0.0, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE student_id IN ($1, $2) ORDER BY student_id, position")).
		WithArgs(sid, other).
		WillReturnRows(sqlmock.NewRows(cols.subject).AddRow(sid, 0, "Algebra", 1.0, 0.0, false))

	students, err := repo.QueryStudents(ctx, oid, []core.DBOrdering{{Field: "grade"}, {Field: "password"}})
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Len(t, students[0].Subjects, 1)
	assert.Equal(t, now, students[0].BirthDate)
	assert.Empty(t, students[1].Subjects)
	assert.NotNil(t, students[1].Subjects)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderBy(t *testing.T) {
	assert.Equal(t, "created_at ASC, id ASC", orderBy(nil))
	assert.Equal(t, "lower(last_name) ASC, gpa DESC, id ASC", orderBy([]core.DBOrdering{
		{Field: "last_name", Ascending: true},
		{Field: "gpa"},
		{Field: "id; DROP TABLE students"},
	}))
}

func TestStudentRepository_SaveLog(t *testing.T) {
	st := student.Student{
		ID: sid, OwnerID: oid, FirstName: "Ada", LastName: "Lovelace", Grade: 9, GPA: 3.3,
		Subjects:  []student.SubjectLedger{{SubjectName: "Algebra", TotalHours: 1, CreditHours: 0}},
		CreatedAt: now, UpdatedAt: now,
	}
	entry := student.LogEntry{
		StudentID: sid, SubjectName: "Algebra", Date: now.Truncate(24 * time.Hour), Comment: "drills",
		StudyTimeMinutes: 60, Percentage: &pct, CreatedAt: now,
	}

	t.Run("commits", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewStudentRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subjects WHERE student_id = $1")).
			WithArgs(sid).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subjects")).
			WithArgs(sid, 0, "Algebra", 1.0, 0.0, false).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO daily_logs")).
			WithArgs(sqlmock.AnyArg(), sid, "Algebra", entry.Date, "drills", 60, pct, nil, now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		_, saved, err := repo.SaveLog(ctx, st, entry)
		require.NoError(t, err)
		assert.True(t, validID(saved.ID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewStudentRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subjects")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subjects")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO daily_logs")).WillReturnError(&pq.Error{Code: "23514"})
		mock.ExpectRollback()

		_, _, err := repo.SaveLog(ctx, st, entry)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown student", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewStudentRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, _, err := repo.SaveLog(ctx, st, entry)
		assert.Equal(t, student.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStudentRepository_DeleteStudent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).
		WithArgs(sid).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.DeleteStudent(ctx, sid))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).
		WithArgs(sid).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.Equal(t, student.ErrNotFound, repo.DeleteStudent(ctx, sid))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepository_QueryLogs(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStudentRepository(db)
	date := time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM daily_logs WHERE student_id = $1 AND lower(trim(subject_name)) = lower(trim($2)) AND date = $3 ORDER BY date, created_at")).
		WithArgs(sid, "Reading", "2025-01-14").
		WillReturnRows(sqlmock.NewRows(cols.log).
			AddRow(oid, sid, "Reading", date, "a book", 30, nil, "pass", now).
			AddRow(sid, sid, "Reading", date, "another", 30, nil, nil, now))

	logs, err := repo.QueryLogs(ctx, student.LogFilter{StudentID: sid, SubjectName: "Reading", Date: date})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Nil(t, logs[0].Percentage)
	assert.Equal(t, student.StatusPass, logs[0].Status)
	assert.Empty(t, logs[1].Status)

	mock.ExpectQuery(regexp.QuoteMeta("FROM daily_logs WHERE student_id = $1 ORDER BY date, created_at")).
		WithArgs(sid).
		WillReturnRows(sqlmock.NewRows(cols.log).AddRow(oid, sid, "Algebra", date, "drills", 60, pct, nil, now))
	logs, err = repo.QueryLogs(ctx, student.LogFilter{StudentID: sid})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, pct, *logs[0].Percentage)

	assert.NoError(t, mock.ExpectationsWereMet())
}
