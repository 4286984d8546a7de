package account

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/homeschool/core"
	"github.com/trezcool/homeschool/core/policy"
)

var (
	// errors
	ErrNotFound    = errors.New("account not found")
	ErrEmailExists = errors.New("an account with this email already exists")
)

type (
	Repository interface {
		CreateAccount(ctx context.Context, acc Account) (Account, error)
		GetAccountByID(ctx context.Context, id string) (Account, error)
		GetAccountByEmail(ctx context.Context, email string) (Account, error)
		UpdateAccount(ctx context.Context, acc Account) (Account, error)
	}

	Service struct {
		repo     Repository
		states   policy.Repository
		validate *validator.Validate
		mailSvc  core.EmailService
		logger   core.Logger
		defaults core.GradingConfig
		tokens   tokenGenerator
	}
)

func NewService(
	repo Repository,
	states policy.Repository,
	validate *validator.Validate,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(states, "states"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(mailSvc, "mailSvc"),
		vala.IsNotNil(logger, "logger"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()
	return &Service{
		repo:     repo,
		states:   states,
		validate: validate,
		mailSvc:  mailSvc,
		logger:   logger,
		defaults: conf.Grading,
		tokens: tokenGenerator{
			secretKey: []byte(conf.SecretKey),
			timeout:   conf.PasswordResetTimeoutDelta,
			nowFunc:   time.Now,
		},
	}
}

func (svc *Service) checkEmailUniqueness(ctx context.Context, email string) error {
	_, err := svc.repo.GetAccountByEmail(ctx, email)
	switch errors.Cause(err) {
	case nil:
		return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	case ErrNotFound:
		return nil
	default:
		return errors.Wrap(err, "checking email uniqueness")
	}
}

// Create registers a new Account; its credit policy starts from the chosen State (or the configured defaults).
func (svc *Service) Create(ctx context.Context, na NewAccount) (Account, error) {
	if err := na.Validate(svc.validate); err != nil {
		return Account{}, err
	}
	if err := svc.checkEmailUniqueness(ctx, na.Email); err != nil {
		return Account{}, err
	}

	now := time.Now().UTC()
	acc := Account{
		Name:               na.Name,
		Email:              na.Email,
		IsAdmin:            na.IsAdmin,
		CreditDefinition:   policy.CarnegieUnit,
		HoursPerCredit:     svc.defaults.DefaultHoursPerCredit,
		MinCreditsRequired: svc.defaults.DefaultMinCredits,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if na.StateID != "" {
		st, err := svc.states.GetStateByID(ctx, na.StateID)
		if err != nil {
			if errors.Cause(err) == policy.ErrNotFound {
				return Account{}, core.NewValidationError(err, core.FieldError{Field: "state_id", Error: err.Error()})
			}
			return Account{}, errors.Wrap(err, "finding state")
		}
		acc.StateID = st.ID
		acc.CreditDefinition = st.CreditDefinition
		acc.HoursPerCredit = st.HoursPerCredit
		acc.MinCreditsRequired = st.MinCreditsRequired
	}
	if err := acc.SetPassword(na.Password); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateAccount(ctx, acc)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Account, error) {
	return svc.repo.GetAccountByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Account, error) {
	return svc.repo.GetAccountByEmail(ctx, core.CleanString(email, true /* lower */))
}

// UpdateCreditPolicy only affects credits accrued by future logs.
func (svc *Service) UpdateCreditPolicy(ctx context.Context, id string, up UpdateCreditPolicy) (Account, error) {
	if err := up.Validate(svc.validate); err != nil {
		return Account{}, err
	}
	acc, err := svc.repo.GetAccountByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	acc.HoursPerCredit = up.HoursPerCredit
	if up.MinCreditsRequired != nil {
		acc.MinCreditsRequired = *up.MinCreditsRequired
	}
	acc.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAccount(ctx, acc)
}

// ChangePassword enforces the password policy before storing the new hash.
func (svc *Service) ChangePassword(ctx context.Context, id, pwd string) (Account, error) {
	acc, err := svc.repo.GetAccountByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if err = CheckPasswordPolicy(pwd, acc.Name, acc.Email); err != nil {
		return Account{}, err
	}
	if err = acc.SetPassword(pwd); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}
	acc.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAccount(ctx, acc)
}

func (svc *Service) SetLastLogin(ctx context.Context, acc Account) (Account, error) {
	acc.LastLogin = time.Now().UTC()
	return svc.repo.UpdateAccount(ctx, acc)
}

func (svc *Service) SetAdmin(ctx context.Context, id string, isAdmin bool) (Account, error) {
	acc, err := svc.repo.GetAccountByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	acc.IsAdmin = isAdmin
	acc.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAccount(ctx, acc)
}

// RequestPasswordReset emails a reset link to the account owning `email`.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	acc, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	token, err := svc.tokens.makeToken(acc)
	if err != nil {
		return errors.Wrap(err, "making token")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: acc.Name, Address: acc.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: PasswordResetData{Name: acc.Name, UID: EncodeUID(acc), Token: token},
	})
	return nil
}

// ResetPassword sets a new password if the emailed token is still valid.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetPassword) (Account, error) {
	if err := rp.Validate(svc.validate); err != nil {
		return Account{}, err
	}
	invalid := core.NewValidationError(errInvalidToken, core.FieldError{Field: "token", Error: errInvalidToken.Error()})

	id, err := decodeUID(rp.UID)
	if err != nil {
		return Account{}, invalid
	}
	acc, err := svc.repo.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Account{}, invalid
		}
		return Account{}, err
	}
	if err = svc.tokens.verifyToken(acc, rp.Token); err != nil {
		svc.logger.Debug(fmt.Sprintf("account.ResetPassword(%s): %v", acc.ID, err))
		return Account{}, core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}
	return svc.ChangePassword(ctx, acc.ID, rp.Password)
}
