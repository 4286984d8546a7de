// Package inmemdb keeps repositories in process memory; used by tests and local runs without Postgres.
package inmemdb

import (
	"sync"

	"github.com/trezcool/homeschool/core/account"
	"github.com/trezcool/homeschool/core/policy"
	"github.com/trezcool/homeschool/core/student"
)

type (
	DB struct {
		account *accountTable
		state   *stateTable
		student *studentTable
	}

	accountTable struct {
		sync.RWMutex
		table map[string]*account.Account
	}

	stateTable struct {
		sync.RWMutex
		table map[string]*policy.State
	}

	// studentTable also holds the logs so a student and its logs change together.
	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
		logs  []student.LogEntry
	}
)

func Open() *DB {
	return &DB{
		account: &accountTable{table: make(map[string]*account.Account)},
		state:   &stateTable{table: make(map[string]*policy.State)},
		student: &studentTable{table: make(map[string]*student.Student)},
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.account.Lock()
	db.account.table = make(map[string]*account.Account)
	db.account.Unlock()

	db.state.Lock()
	db.state.table = make(map[string]*policy.State)
	db.state.Unlock()

	db.student.Lock()
	db.student.table = make(map[string]*student.Student)
	db.student.logs = nil
	db.student.Unlock()
}
