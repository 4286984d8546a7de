package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/homeschool/core"
	"github.com/trezcool/homeschool/core/student"
)

const (
	orderingParam = "ordering"
	subjectParam  = "subject"
	dateParam     = "date"
	dateLayout    = "2006-01-02"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads "?ordering=field,-field"; fields not in `allowed` are dropped.
func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) {
	ord.Orderings = core.ParseOrdering(ctx.QueryParam(orderingParam), allowed...)
}

// bindLogFilter reads "?subject=&date=YYYY-MM-DD"; a malformed date is a validation error.
func bindLogFilter(ctx echo.Context, studentID string) (student.LogFilter, error) {
	filter := student.LogFilter{
		StudentID:   studentID,
		SubjectName: ctx.QueryParam(subjectParam),
	}
	if raw := ctx.QueryParam(dateParam); raw != "" {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			return filter, core.NewValidationError(err, core.FieldError{Field: dateParam, Error: "date must be formatted as YYYY-MM-DD"})
		}
		filter.Date = date
	}
	filter.Clean()
	return filter, nil
}
