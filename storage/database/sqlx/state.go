package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/homeschool/core/policy"
)

type stateRow struct {
	ID                 string    `db:"id"`
	Name               string    `db:"name"`
	CreditDefinition   string    `db:"credit_definition"`
	IsCompletionBased  bool      `db:"is_completion_based"`
	HoursPerCredit     float64   `db:"hours_per_credit"`
	MinCreditsRequired float64   `db:"min_credits_required"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

func toStateRow(st policy.State) stateRow {
	return stateRow{
		ID:                 st.ID,
		Name:               st.Name,
		CreditDefinition:   st.CreditDefinition,
		IsCompletionBased:  st.IsCompletionBased,
		HoursPerCredit:     st.HoursPerCredit,
		MinCreditsRequired: st.MinCreditsRequired,
		CreatedAt:          st.CreatedAt.UTC(),
		UpdatedAt:          st.UpdatedAt.UTC(),
	}
}

func (r stateRow) state() policy.State {
	return policy.State{
		ID:                 r.ID,
		Name:               r.Name,
		CreditDefinition:   r.CreditDefinition,
		IsCompletionBased:  r.IsCompletionBased,
		HoursPerCredit:     r.HoursPerCredit,
		MinCreditsRequired: r.MinCreditsRequired,
		CreatedAt:          r.CreatedAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
	}
}

const stateColumns = "id, name, credit_definition, is_completion_based, hours_per_credit, min_credits_required, created_at, updated_at"

type stateRepository struct {
	db *sqlx.DB
}

var _ policy.Repository = (*stateRepository)(nil) // interface compliance check

func NewStateRepository(db *sqlx.DB) *stateRepository {
	return &stateRepository{db: db}
}

func (repo *stateRepository) CreateState(ctx context.Context, st policy.State) (policy.State, error) {
	st.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO states (`+stateColumns+`)
		VALUES (:id, :name, :credit_definition, :is_completion_based, :hours_per_credit, :min_credits_required, :created_at, :updated_at)`,
		toStateRow(st))
	if err != nil {
		return policy.State{}, errors.Wrap(err, "inserting state")
	}
	return st, nil
}

func (repo *stateRepository) UpdateState(ctx context.Context, st policy.State) (policy.State, error) {
	if !validID(st.ID) {
		return policy.State{}, policy.ErrNotFound
	}
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE states SET
			name = :name,
			credit_definition = :credit_definition,
			is_completion_based = :is_completion_based,
			hours_per_credit = :hours_per_credit,
			min_credits_required = :min_credits_required,
			updated_at = :updated_at
		WHERE id = :id`,
		toStateRow(st))
	if err != nil {
		return policy.State{}, errors.Wrap(err, "updating state")
	}
	if err = checkAffected(res, policy.ErrNotFound, "updating state"); err != nil {
		return policy.State{}, err
	}
	return st, nil
}

func (repo *stateRepository) QueryStates(ctx context.Context) ([]policy.State, error) {
	var rows []stateRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT "+stateColumns+" FROM states ORDER BY name"); err != nil {
		return nil, errors.Wrap(err, "selecting states")
	}
	states := make([]policy.State, 0, len(rows))
	for _, r := range rows {
		states = append(states, r.state())
	}
	return states, nil
}

func (repo *stateRepository) GetStateByID(ctx context.Context, id string) (policy.State, error) {
	if !validID(id) {
		return policy.State{}, policy.ErrNotFound
	}
	var r stateRow
	if err := repo.db.GetContext(ctx, &r, "SELECT "+stateColumns+" FROM states WHERE id = $1", id); err != nil {
		return policy.State{}, trapNoRowsErr(err, policy.ErrNotFound, "selecting state")
	}
	return r.state(), nil
}

func (repo *stateRepository) GetStateByName(ctx context.Context, name string) (policy.State, error) {
	var r stateRow
	q := "SELECT " + stateColumns + " FROM states WHERE lower(trim(name)) = lower(trim($1))"
	if err := repo.db.GetContext(ctx, &r, q, name); err != nil {
		return policy.State{}, trapNoRowsErr(err, policy.ErrNotFound, "selecting state")
	}
	return r.state(), nil
}
