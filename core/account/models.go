// Package account manages the parents (or guardians) owning students.
package account

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/homeschool/core"
	"github.com/trezcool/homeschool/core/policy"
)

type Account struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	PasswordHash       []byte    `json:"-"`
	IsAdmin            bool      `json:"is_admin"`
	StateID            string    `json:"state_id"`
	CreditDefinition   string    `json:"credit_definition"` // copied from the State
	HoursPerCredit     float64   `json:"hours_per_credit"`
	MinCreditsRequired float64   `json:"min_credits_required"`
	CreatedAt          time.Time `json:"created_at"` // UTC
	UpdatedAt          time.Time `json:"updated_at"` // UTC
	LastLogin          time.Time `json:"last_login"` // UTC
}

func (acc *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	acc.PasswordHash = hash
	return nil
}

func (acc *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(pwd))
}

// CreditPolicy returns the policy used when grading this account's students.
func (acc Account) CreditPolicy() policy.CreditPolicy {
	return policy.CreditPolicy{
		CreditDefinition:   acc.CreditDefinition,
		HoursPerCredit:     acc.HoursPerCredit,
		MinCreditsRequired: acc.MinCreditsRequired,
	}
}

// NewAccount contains information needed to create a new Account.
type NewAccount struct {
	Name            string `json:"name" validate:"required,notblank"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	StateID         string `json:"state_id" validate:"omitempty,uuid"`
	IsAdmin         bool   `json:"-"`
}

func (na *NewAccount) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.StateID = core.CleanString(na.StateID)
	return validate.Struct(na)
}

// UpdateCreditPolicy changes the hours needed per credit; past credits are not recomputed.
type UpdateCreditPolicy struct {
	HoursPerCredit     float64  `json:"hours_per_credit" validate:"gt=0"`
	MinCreditsRequired *float64 `json:"min_credits_required" validate:"omitempty,gte=0"`
}

func (up UpdateCreditPolicy) Validate(validate *validator.Validate) error { return validate.Struct(up) }

// ResetPassword confirms a password reset requested by email.
type ResetPassword struct {
	UID             string `json:"uid" validate:"required"`
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (rp *ResetPassword) Validate(validate *validator.Validate) error {
	rp.UID = core.CleanString(rp.UID)
	rp.Token = core.CleanString(rp.Token)
	return validate.Struct(rp)
}

// PasswordResetData is the data of the "password_reset" email template.
type PasswordResetData struct {
	Name  string
	UID   string
	Token string
}
