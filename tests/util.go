// Package testutil holds helpers shared by the tests of several packages.
package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/homeschool/core"
	"github.com/trezcool/homeschool/core/account"
	"github.com/trezcool/homeschool/core/policy"
	"github.com/trezcool/homeschool/core/student"
	"github.com/trezcool/homeschool/fs"
	"github.com/trezcool/homeschool/services/logger"
)

// NewValidator returns a validator with every application tag and translation registered.
func NewValidator(t *testing.T) (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	policy.InitValidators(validate, translator)

	pwds, err := appfs.FS.Open(appfs.CommonPasswords)
	require.NoError(t, err)
	defer func() { _ = pwds.Close() }()
	account.InitValidators(validate, translator, pwds)
	return validate, translator
}

// NewLogger returns a silent logger with error reporting disabled.
func NewLogger() core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), core.NewTestConfig())
}

func CreateAccount(t *testing.T, repo account.Repository, name, email, pwd string, isAdmin bool, pol ...policy.CreditPolicy) account.Account {
	now := time.Now().UTC()
	acc := account.Account{
		Name:               name,
		Email:              email,
		IsAdmin:            isAdmin,
		CreditDefinition:   policy.CarnegieUnit,
		HoursPerCredit:     120,
		MinCreditsRequired: 24,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if len(pol) > 0 {
		acc.CreditDefinition = pol[0].CreditDefinition
		acc.HoursPerCredit = pol[0].HoursPerCredit
		acc.MinCreditsRequired = pol[0].MinCreditsRequired
	}
	if pwd != "" {
		require.NoError(t, acc.SetPassword(pwd), "SetPassword()")
	}
	acc, err := repo.CreateAccount(context.Background(), acc)
	require.NoError(t, err, "CreateAccount()")
	return acc
}

func CreateStudent(t *testing.T, repo student.Repository, ownerID, firstName, lastName string, grade int, createdAt ...time.Time) student.Student {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	st, err := repo.CreateStudent(context.Background(), student.Student{
		OwnerID:   ownerID,
		FirstName: firstName,
		LastName:  lastName,
		Grade:     grade,
		Subjects:  []student.SubjectLedger{},
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	require.NoError(t, err, "CreateStudent()")
	return st
}

func Float(f float64) *float64 { return &f }
func Int(i int) *int           { return &i }
