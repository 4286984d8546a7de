package policy_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/homeschool/core"
	"github.com/trezcool/homeschool/core/policy"
	"github.com/trezcool/homeschool/fs"
	"github.com/trezcool/homeschool/storage/database/inmem"
	"github.com/trezcool/homeschool/tests"
)

var ctx = context.Background()

func TestRegimeOf(t *testing.T) {
	tests := []struct {
		def  string
		want policy.Regime
	}{
		{def: "Carnegie Unit", want: policy.HoursBased},
		{def: "Local", want: policy.HoursBased},
		{def: "Course Completion", want: policy.CompletionBased},
		{def: "carnegie unit", want: policy.CompletionBased},
		{def: "", want: policy.CompletionBased},
	}
	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.RegimeOf(tt.def))
		})
	}
	assert.Equal(t, "hours", policy.HoursBased.String())
	assert.Equal(t, "completion", policy.CompletionBased.String())
}

func TestCreditPolicy_Validate(t *testing.T) {
	assert.NoError(t, policy.CreditPolicy{CreditDefinition: policy.Local, HoursPerCredit: 60}.Validate())
	assert.NoError(t, policy.CreditPolicy{CreditDefinition: "Course Completion"}.Validate(), "hours are unused")

	err := policy.CreditPolicy{CreditDefinition: policy.CarnegieUnit}.Validate()
	require.True(t, core.IsValidationError(err))
	assert.Equal(t, "hours_per_credit", err.(*core.ValidationError).Fields[0].Field)
}

func TestNewState_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator(t)

	tests := []struct {
		name    string
		ns      policy.NewState
		wantErr bool
	}{
		{name: "carnegie", ns: policy.NewState{Name: "Texas", CreditDefinition: "Carnegie Unit", HoursPerCredit: 120}},
		{name: "completion", ns: policy.NewState{Name: "Alaska", CreditDefinition: "Course Completion", IsCompletionBased: true, HoursPerCredit: 120}},
		{name: "miscased carnegie", ns: policy.NewState{Name: "Texas", CreditDefinition: "carnegie unit", HoursPerCredit: 120}, wantErr: true},
		{name: "miscased local", ns: policy.NewState{Name: "Ohio", CreditDefinition: " LOCAL ", HoursPerCredit: 120}, wantErr: true},
		{name: "blank definition", ns: policy.NewState{Name: "Ohio", CreditDefinition: "  ", HoursPerCredit: 120}, wantErr: true},
		{name: "no hours", ns: policy.NewState{Name: "Ohio", CreditDefinition: "Local"}, wantErr: true},
		{name: "negative minimum", ns: policy.NewState{Name: "Ohio", CreditDefinition: "Local", HoursPerCredit: 1, MinCreditsRequired: -1}, wantErr: true},
		{name: "no name", ns: policy.NewState{CreditDefinition: "Local", HoursPerCredit: 1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ns.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadSeed(t *testing.T) {
	f, err := appfs.FS.Open(appfs.StatesSeed)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	states, err := policy.LoadSeed(f)
	require.NoError(t, err)
	require.Len(t, states, 7)
	assert.Equal(t, policy.NewState{Name: "Texas", CreditDefinition: policy.CarnegieUnit, HoursPerCredit: 120, MinCreditsRequired: 26}, states[0])

	states, err = policy.LoadSeed(strings.NewReader(""))
	assert.NoError(t, err)
	assert.Empty(t, states)

	_, err = policy.LoadSeed(strings.NewReader("states:\n  - name: Ohio\n    credits: 3\n"))
	assert.Error(t, err, "unknown fields are rejected")
}

func TestService_Seed(t *testing.T) {
	validate, _ := testutil.NewValidator(t)
	svc := policy.NewService(inmemdb.NewStateRepository(inmemdb.Open()), validate)

	created, updated, err := svc.Seed(ctx, []policy.NewState{
		{Name: "Texas", CreditDefinition: policy.CarnegieUnit, HoursPerCredit: 120, MinCreditsRequired: 26},
		{Name: "Alaska", CreditDefinition: "Course Completion", IsCompletionBased: true, HoursPerCredit: 120},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Zero(t, updated)

	created, updated, err = svc.Seed(ctx, []policy.NewState{
		{Name: "texas", CreditDefinition: policy.Local, HoursPerCredit: 100, MinCreditsRequired: 20},
		{Name: "Ohio", CreditDefinition: policy.Local, HoursPerCredit: 120},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, updated)

	states, err := svc.Query(ctx)
	require.NoError(t, err)
	require.Len(t, states, 3)
	assert.Equal(t, []string{"Alaska", "Ohio", "Texas"}, []string{states[0].Name, states[1].Name, states[2].Name})

	texas, err := svc.GetByName(ctx, "TEXAS")
	require.NoError(t, err)
	assert.Equal(t, policy.Local, texas.CreditDefinition)
	assert.Equal(t, 100.0, texas.HoursPerCredit)
	assert.Equal(t, policy.HoursBased, texas.Regime())

	got, err := svc.GetByID(ctx, texas.ID)
	require.NoError(t, err)
	assert.Equal(t, texas, got)

	_, _, err = svc.Seed(ctx, []policy.NewState{{Name: "Utah", CreditDefinition: "local", HoursPerCredit: 1}})
	assert.Error(t, err)
	_, err = svc.GetByName(ctx, "Utah")
	assert.Equal(t, policy.ErrNotFound, err)
}
