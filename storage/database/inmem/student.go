package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/homeschool/core"
	"github.com/trezcool/homeschool/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db.student}
}

func copyStudent(st student.Student) student.Student {
	st.Subjects = append(make([]student.SubjectLedger, 0, len(st.Subjects)), st.Subjects...)
	return st
}

func copyLog(l student.LogEntry) student.LogEntry {
	if l.Percentage != nil {
		pct := *l.Percentage
		l.Percentage = &pct
	}
	return l
}

func (repo *studentRepository) CreateStudent(_ context.Context, st student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	st.ID = uuid.New().String()
	stored := copyStudent(st)
	repo.db.table[st.ID] = &stored
	return copyStudent(st), nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if st, ok := repo.db.table[id]; ok {
		return copyStudent(*st), nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryStudents(_ context.Context, ownerID string, ordering []core.DBOrdering) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]student.Student, 0)
	for _, st := range repo.db.table {
		if ownerID == "" || st.OwnerID == ownerID {
			students = append(students, copyStudent(*st))
		}
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: true}}
	}
	sort.SliceStable(students, func(i, j int) bool {
		for _, ord := range ordering {
			if c := compareStudents(students[i], students[j], ord.Field); c != 0 {
				return (c < 0) == ord.Ascending
			}
		}
		return students[i].ID < students[j].ID
	})
	return students, nil
}

func compareStudents(a, b student.Student, field string) int {
	cmpFloat := func(x, y float64) int {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	switch field {
	case "first_name":
		return strings.Compare(strings.ToLower(a.FirstName), strings.ToLower(b.FirstName))
	case "last_name":
		return strings.Compare(strings.ToLower(a.LastName), strings.ToLower(b.LastName))
	case "grade":
		return a.Grade - b.Grade
	case "gpa":
		return cmpFloat(a.GPA, b.GPA)
	case "created_at":
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
	}
	return 0
}

func (repo *studentRepository) UpdateStudent(_ context.Context, st student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[st.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	stored := copyStudent(st)
	repo.db.table[st.ID] = &stored
	return copyStudent(st), nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.table, id)

	kept := repo.db.logs[:0]
	for _, l := range repo.db.logs {
		if l.StudentID != id {
			kept = append(kept, l)
		}
	}
	repo.db.logs = kept
	return nil
}

func (repo *studentRepository) SaveLog(_ context.Context, st student.Student, entry student.LogEntry) (student.Student, student.LogEntry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[st.ID]; !ok {
		return student.Student{}, student.LogEntry{}, student.ErrNotFound
	}
	stored := copyStudent(st)
	repo.db.table[st.ID] = &stored

	entry.ID = uuid.New().String()
	repo.db.logs = append(repo.db.logs, copyLog(entry))
	return copyStudent(st), entry, nil
}

func (repo *studentRepository) QueryLogs(_ context.Context, filter student.LogFilter) ([]student.LogEntry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	logs := make([]student.LogEntry, 0)
	for _, l := range repo.db.logs {
		if filter.StudentID != "" && l.StudentID != filter.StudentID {
			continue
		}
		if filter.SubjectName != "" && !core.SameName(l.SubjectName, filter.SubjectName) {
			continue
		}
		if !filter.Date.IsZero() && !l.Date.Equal(filter.Date) {
			continue
		}
		logs = append(logs, copyLog(l))
	}
	sort.SliceStable(logs, func(i, j int) bool {
		if !logs[i].Date.Equal(logs[j].Date) {
			return logs[i].Date.Before(logs[j].Date)
		}
		return logs[i].CreatedAt.Before(logs[j].CreatedAt)
	})
	return logs, nil
}
