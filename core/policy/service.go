package policy

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound              = errors.New("state not found")
	ErrInvalidHoursPerCredit = errors.New("hours per credit must be greater than 0")
)

type (
	Repository interface {
		CreateState(ctx context.Context, st State) (State, error)
		UpdateState(ctx context.Context, st State) (State, error)
		QueryStates(ctx context.Context) ([]State, error)
		GetStateByID(ctx context.Context, id string) (State, error)
		GetStateByName(ctx context.Context, name string) (State, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(validate, "validate"),
	).CheckAndPanic()
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) Create(ctx context.Context, ns NewState) (State, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return State{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateState(ctx, State{
		Name:               ns.Name,
		CreditDefinition:   ns.CreditDefinition,
		IsCompletionBased:  ns.IsCompletionBased,
		HoursPerCredit:     ns.HoursPerCredit,
		MinCreditsRequired: ns.MinCreditsRequired,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
}

func (svc *Service) Query(ctx context.Context) ([]State, error) {
	return svc.repo.QueryStates(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (State, error) {
	return svc.repo.GetStateByID(ctx, id)
}

func (svc *Service) GetByName(ctx context.Context, name string) (State, error) {
	return svc.repo.GetStateByName(ctx, name)
}

// Seed creates the given states, updating those whose name already exists.
// It returns the number of created and updated states.
func (svc *Service) Seed(ctx context.Context, states []NewState) (created, updated int, err error) {
	for i := range states {
		ns := states[i]
		if err := ns.Validate(svc.validate); err != nil {
			return created, updated, errors.Wrapf(err, "validating state %q", ns.Name)
		}

		st, err := svc.repo.GetStateByName(ctx, ns.Name)
		switch errors.Cause(err) {
		case nil:
			st.CreditDefinition = ns.CreditDefinition
			st.IsCompletionBased = ns.IsCompletionBased
			st.HoursPerCredit = ns.HoursPerCredit
			st.MinCreditsRequired = ns.MinCreditsRequired
			st.UpdatedAt = time.Now().UTC()
			if _, err = svc.repo.UpdateState(ctx, st); err != nil {
				return created, updated, errors.Wrapf(err, "updating state %q", ns.Name)
			}
			updated++
		case ErrNotFound:
			if _, err = svc.Create(ctx, ns); err != nil {
				return created, updated, errors.Wrapf(err, "creating state %q", ns.Name)
			}
			created++
		default:
			return created, updated, errors.Wrapf(err, "finding state %q", ns.Name)
		}
	}
	return created, updated, nil
}
