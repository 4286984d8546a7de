// Package policy holds the per-state compliance rules driving credit accrual.
package policy

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/homeschool/core"
)

// Credit definitions earning credit from study hours; any other definition is completion based.
const (
	CarnegieUnit = "Carnegie Unit"
	Local        = "Local"
)

type Regime int

const (
	HoursBased Regime = iota
	CompletionBased
)

func (r Regime) String() string {
	if r == HoursBased {
		return "hours"
	}
	return "completion"
}

// RegimeOf returns the credit regime of a state's credit definition.
func RegimeOf(creditDefinition string) Regime {
	switch creditDefinition {
	case CarnegieUnit, Local:
		return HoursBased
	default:
		return CompletionBased
	}
}

type State struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	CreditDefinition   string    `json:"credit_definition"`
	IsCompletionBased  bool      `json:"is_completion_based"`
	HoursPerCredit     float64   `json:"hours_per_credit"`
	MinCreditsRequired float64   `json:"min_credits_required"`
	CreatedAt          time.Time `json:"created_at"` // UTC
	UpdatedAt          time.Time `json:"updated_at"` // UTC
}

func (s State) Regime() Regime { return RegimeOf(s.CreditDefinition) }

// CreditPolicy is what the grading engine needs to know about an account's state.
type CreditPolicy struct {
	CreditDefinition   string  `json:"credit_definition"`
	HoursPerCredit     float64 `json:"hours_per_credit"`
	MinCreditsRequired float64 `json:"min_credits_required"`
}

func (p CreditPolicy) Regime() Regime     { return RegimeOf(p.CreditDefinition) }
func (p CreditPolicy) IsHoursBased() bool { return p.Regime() == HoursBased }

// Validate checks that an hours-based policy can accrue credits.
func (p CreditPolicy) Validate() error {
	if p.IsHoursBased() && p.HoursPerCredit <= 0 {
		return core.NewValidationError(
			ErrInvalidHoursPerCredit,
			core.FieldError{Field: "hours_per_credit", Error: ErrInvalidHoursPerCredit.Error()},
		)
	}
	return nil
}

// NewState contains information needed to create or seed a State.
type NewState struct {
	Name               string  `json:"name" yaml:"name" validate:"required,notblank"`
	CreditDefinition   string  `json:"credit_definition" yaml:"credit_definition" validate:"required,creditdef"`
	IsCompletionBased  bool    `json:"is_completion_based" yaml:"is_completion_based"`
	HoursPerCredit     float64 `json:"hours_per_credit" yaml:"hours_per_credit" validate:"gt=0"`
	MinCreditsRequired float64 `json:"min_credits_required" yaml:"min_credits_required" validate:"gte=0"`
}

func (ns *NewState) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.CreditDefinition = core.CleanString(ns.CreditDefinition)
	return validate.Struct(ns)
}
