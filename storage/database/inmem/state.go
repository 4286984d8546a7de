package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/homeschool/core"
	"github.com/trezcool/homeschool/core/policy"
)

type stateRepository struct {
	db *stateTable
}

var _ policy.Repository = (*stateRepository)(nil) // interface compliance check

func NewStateRepository(db *DB) *stateRepository {
	return &stateRepository{db: db.state}
}

func (repo *stateRepository) CreateState(_ context.Context, st policy.State) (policy.State, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	st.ID = uuid.New().String()
	stored := st
	repo.db.table[st.ID] = &stored
	return st, nil
}

func (repo *stateRepository) UpdateState(_ context.Context, st policy.State) (policy.State, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[st.ID]; !ok {
		return policy.State{}, policy.ErrNotFound
	}
	stored := st
	repo.db.table[st.ID] = &stored
	return st, nil
}

func (repo *stateRepository) QueryStates(_ context.Context) ([]policy.State, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	states := make([]policy.State, 0, len(repo.db.table))
	for _, st := range repo.db.table {
		states = append(states, *st)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Name < states[j].Name })
	return states, nil
}

func (repo *stateRepository) GetStateByID(_ context.Context, id string) (policy.State, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if st, ok := repo.db.table[id]; ok {
		return *st, nil
	}
	return policy.State{}, policy.ErrNotFound
}

func (repo *stateRepository) GetStateByName(_ context.Context, name string) (policy.State, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, st := range repo.db.table {
		if core.SameName(st.Name, name) {
			return *st, nil
		}
	}
	return policy.State{}, policy.ErrNotFound
}
