package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/homeschool/core/account"
)

type accountRow struct {
	ID                 string      `db:"id"`
	Name               string      `db:"name"`
	Email              string      `db:"email"`
	PasswordHash       []byte      `db:"password_hash"`
	IsAdmin            bool        `db:"is_admin"`
	StateID            null.String `db:"state_id"`
	CreditDefinition   string      `db:"credit_definition"`
	HoursPerCredit     float64     `db:"hours_per_credit"`
	MinCreditsRequired float64     `db:"min_credits_required"`
	CreatedAt          time.Time   `db:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at"`
	LastLogin          null.Time   `db:"last_login"`
}

func toAccountRow(acc account.Account) accountRow {
	return accountRow{
		ID:                 acc.ID,
		Name:               acc.Name,
		Email:              acc.Email,
		PasswordHash:       acc.PasswordHash,
		IsAdmin:            acc.IsAdmin,
		StateID:            null.NewString(acc.StateID, acc.StateID != ""),
		CreditDefinition:   acc.CreditDefinition,
		HoursPerCredit:     acc.HoursPerCredit,
		MinCreditsRequired: acc.MinCreditsRequired,
		CreatedAt:          acc.CreatedAt.UTC(),
		UpdatedAt:          acc.UpdatedAt.UTC(),
		LastLogin:          null.NewTime(acc.LastLogin.UTC(), !acc.LastLogin.IsZero()),
	}
}

func (r accountRow) account() account.Account {
	acc := account.Account{
		ID:                 r.ID,
		Name:               r.Name,
		Email:              r.Email,
		PasswordHash:       r.PasswordHash,
		IsAdmin:            r.IsAdmin,
		StateID:            r.StateID.String,
		CreditDefinition:   r.CreditDefinition,
		HoursPerCredit:     r.HoursPerCredit,
		MinCreditsRequired: r.MinCreditsRequired,
		CreatedAt:          r.CreatedAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
	}
	if r.LastLogin.Valid {
		acc.LastLogin = r.LastLogin.Time.UTC()
	}
	return acc
}

const accountColumns = "id, name, email, password_hash, is_admin, state_id, credit_definition, hours_per_credit, " +
	"min_credits_required, created_at, updated_at, last_login"

type accountRepository struct {
	db *sqlx.DB
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *sqlx.DB) *accountRepository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) CreateAccount(ctx context.Context, acc account.Account) (account.Account, error) {
	acc.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (:id, :name, :email, :password_hash, :is_admin, :state_id, :credit_definition, :hours_per_credit,
			:min_credits_required, :created_at, :updated_at, :last_login)`,
		toAccountRow(acc))
	if err != nil {
		if isUniqueViolation(err) {
			return account.Account{}, account.ErrEmailExists
		}
		return account.Account{}, errors.Wrap(err, "inserting account")
	}
	return acc, nil
}

func (repo *accountRepository) get(ctx context.Context, where string, arg interface{}) (account.Account, error) {
	var r accountRow
	if err := repo.db.GetContext(ctx, &r, "SELECT "+accountColumns+" FROM accounts WHERE "+where, arg); err != nil {
		return account.Account{}, trapNoRowsErr(err, account.ErrNotFound, "selecting account")
	}
	return r.account(), nil
}

func (repo *accountRepository) GetAccountByID(ctx context.Context, id string) (account.Account, error) {
	if !validID(id) {
		return account.Account{}, account.ErrNotFound
	}
	return repo.get(ctx, "id = $1", id)
}

func (repo *accountRepository) GetAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	return repo.get(ctx, "email = $1", email)
}

func (repo *accountRepository) UpdateAccount(ctx context.Context, acc account.Account) (account.Account, error) {
	if !validID(acc.ID) {
		return account.Account{}, account.ErrNotFound
	}
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE accounts SET
			name = :name,
			email = :email,
			password_hash = :password_hash,
			is_admin = :is_admin,
			state_id = :state_id,
			credit_definition = :credit_definition,
			hours_per_credit = :hours_per_credit,
			min_credits_required = :min_credits_required,
			updated_at = :updated_at,
			last_login = :last_login
		WHERE id = :id`,
		toAccountRow(acc))
	if err != nil {
		if isUniqueViolation(err) {
			return account.Account{}, account.ErrEmailExists
		}
		return account.Account{}, errors.Wrap(err, "updating account")
	}
	if err = checkAffected(res, account.ErrNotFound, "updating account"); err != nil {
		return account.Account{}, err
	}
	return acc, nil
}
