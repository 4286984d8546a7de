package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/homeschool/core/policy"
)

type stateApi struct {
	svc *policy.Service
}

func registerStateAPI(g *echo.Group, svc *policy.Service) {
	api := stateApi{svc: svc}

	sg := g.Group("/states")
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
}

func (api *stateApi) query(ctx echo.Context) error {
	states, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying states")
	}
	if states == nil {
		states = []policy.State{}
	}
	return ctx.JSON(http.StatusOK, states)
}

func (api *stateApi) retrieve(ctx echo.Context) error {
	st, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding state by ID")
	}
	return ctx.JSON(http.StatusOK, st)
}
