package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/homeschool/core"
	"github.com/trezcool/homeschool/core/account"
)

type accountApi struct {
	auth     *authenticator
	svc      *account.Service
	validate *validator.Validate
}

func registerAccountAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	auth *authenticator,
	svc *account.Service,
	validate *validator.Validate,
) {
	api := accountApi{
		auth:     auth,
		svc:      svc,
		validate: validate,
	}

	ag := g.Group("/accounts")

	// un-authed endpoints
	// TODO: rate limit `/login` & `/password-reset`
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
	ag.POST("/password-reset", api.resetPassword)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	jg := ag.Group("", jwt)
	jg.POST("/token-refresh", api.refreshToken)
	jg.GET("/me", api.me)
	jg.PUT("/me/credit-policy", api.updateCreditPolicy)
}

// Handlers

func (api *accountApi) register(ctx echo.Context) error {
	var data account.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}

	acc, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating account")
	}
	return ctx.JSON(http.StatusCreated, acc)
}

func (api *accountApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := api.auth.authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(api.auth.conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *accountApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refreshToken(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *accountApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email)
	if !(err == nil || errors.Cause(err) == account.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *accountApi) confirmPasswordReset(ctx echo.Context) error {
	var data account.ResetPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPassword")
	}

	if _, err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *accountApi) me(ctx echo.Context) error {
	acc, err := api.auth.contextAccount(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}
	return ctx.JSON(http.StatusOK, acc)
}

func (api *accountApi) updateCreditPolicy(ctx echo.Context) error {
	acc, err := api.auth.contextAccount(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}

	var data account.UpdateCreditPolicy
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCreditPolicy")
	}

	acc, err = api.svc.UpdateCreditPolicy(ctx.Request().Context(), acc.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating credit policy")
	}
	return ctx.JSON(http.StatusOK, acc)
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
