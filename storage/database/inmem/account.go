package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/homeschool/core/account"
)

type accountRepository struct {
	db *accountTable
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) *accountRepository {
	return &accountRepository{db: db.account}
}

func copyAccount(acc account.Account) account.Account {
	acc.PasswordHash = append([]byte(nil), acc.PasswordHash...)
	return acc
}

func (repo *accountRepository) CreateAccount(_ context.Context, acc account.Account) (account.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, a := range repo.db.table {
		if a.Email == acc.Email {
			return account.Account{}, account.ErrEmailExists
		}
	}
	acc.ID = uuid.New().String()
	stored := copyAccount(acc)
	repo.db.table[acc.ID] = &stored
	return acc, nil
}

func (repo *accountRepository) GetAccountByID(_ context.Context, id string) (account.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if acc, ok := repo.db.table[id]; ok {
		return copyAccount(*acc), nil
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) GetAccountByEmail(_ context.Context, email string) (account.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, acc := range repo.db.table {
		if acc.Email == email {
			return copyAccount(*acc), nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) UpdateAccount(_ context.Context, acc account.Account) (account.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[acc.ID]; !ok {
		return account.Account{}, account.ErrNotFound
	}
	stored := copyAccount(acc)
	repo.db.table[acc.ID] = &stored
	return acc, nil
}

// QueryAccounts lists accounts by email; not part of account.Repository, used by tests.
func (repo *accountRepository) QueryAccounts() []account.Account {
	repo.db.RLock()
	defer repo.db.RUnlock()

	accounts := make([]account.Account, 0, len(repo.db.table))
	for _, acc := range repo.db.table {
		accounts = append(accounts, copyAccount(*acc))
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Email < accounts[j].Email })
	return accounts
}
