package echoapi

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/homeschool/core"
	"github.com/trezcool/homeschool/core/account"
)

const contextAccountKey = "account"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Email        string `json:"email,omitempty"`
	IsAdmin      bool   `json:"is_admin,omitempty"`
}

// GetAccountClaims returns fresh claims for `acc`; origIat is kept across refreshes.
func GetAccountClaims(conf *core.Config, acc account.Account, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   acc.ID,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Email:        acc.Email,
		IsAdmin:      acc.IsAdmin,
	}
}

// GenerateToken generates a signed JWT token string representing the account Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

type authenticator struct {
	conf      *core.Config
	svc       *account.Service
	jwtConfig middleware.JWTConfig
}

func newAuthenticator(conf *core.Config, svc *account.Service) *authenticator {
	return &authenticator{
		conf: conf,
		svc:  svc,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    "accountToken",
			Claims:        new(Claims),
		},
	}
}

func (a *authenticator) authenticate(ctx context.Context, email, pwd string) (*Claims, error) {
	acc, err := a.svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding account by email")
	}
	if err = acc.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	acc, err = a.svc.SetLastLogin(ctx, acc)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return GetAccountClaims(a.conf, acc), nil
}

func (a *authenticator) contextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(a.jwtConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// contextAccount loads the authenticated account once per request.
func (a *authenticator) contextAccount(ctx echo.Context) (account.Account, error) {
	if acc, ok := ctx.Get(contextAccountKey).(account.Account); ok {
		return acc, nil
	}
	claims, err := a.contextClaims(ctx)
	if err != nil {
		return account.Account{}, errors.Wrap(err, "getting context claims")
	}

	acc, err := a.svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return account.Account{}, errUnauthorized
		}
		return account.Account{}, errors.Wrap(err, "finding account by ID")
	}
	ctx.Set(contextAccountKey, acc)
	return acc, nil
}

func (a *authenticator) refreshToken(ctx echo.Context) (string, error) {
	claims, err := a.contextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}
	acc, err := a.contextAccount(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context account")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := GenerateToken(a.conf, GetAccountClaims(a.conf, acc, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}
