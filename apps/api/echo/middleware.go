package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/homeschool/core/student"
)

const contextObjectKey = "object"

// studentOwnerMiddleware loads the ":id" student into the context, provided the caller owns it.
func studentOwnerMiddleware(auth *authenticator, svc *student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := auth.contextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}

			st, err := svc.GetStudent(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == student.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding student by ID")
			}
			if st.OwnerID != claims.Subject {
				return errHttpForbidden
			}
			ctx.Set(contextObjectKey, st)
			return next(ctx)
		}
	}
}

func contextStudent(ctx echo.Context) (student.Student, error) {
	st, ok := ctx.Get(contextObjectKey).(student.Student)
	if !ok {
		return student.Student{}, errStudentNotFoundInCtx
	}
	return st, nil
}
