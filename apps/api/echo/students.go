package echoapi

import (
	"net/http"
	"net/mail"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/homeschool/core"
	"github.com/trezcool/homeschool/core/student"
)

var errStudentNotFoundInCtx = errors.New("student object not found in echo.Context")

type studentApi struct {
	auth     *authenticator
	svc      *student.Service
	validate *validator.Validate
}

func registerStudentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	auth *authenticator,
	svc *student.Service,
	validate *validator.Validate,
) {
	api := studentApi{
		auth:     auth,
		svc:      svc,
		validate: validate,
	}

	sg := g.Group("/students", jwt)
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.GET("/overview", api.overview)

	// detail endpoints
	dg := sg.Group("/:id", studentOwnerMiddleware(auth, svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/subjects", api.registerSubject)
	dg.PUT("/subjects/:subject/completion", api.toggleCompletion)
	dg.GET("/logs", api.queryLogs)
	dg.POST("/logs", api.submitLog)
	dg.GET("/logs/exists", api.hasLoggedSubject)
	dg.GET("/transcript", api.transcript)
	dg.POST("/transcript/email", api.emailTranscript)
	dg.GET("/dashboard", api.dashboard)
}

// Handlers

func (api *studentApi) create(ctx echo.Context) error {
	claims, err := api.auth.contextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data student.NewStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	data.OwnerID = claims.Subject

	st, err := api.svc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *studentApi) query(ctx echo.Context) error {
	claims, err := api.auth.contextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, student.OrderingFields...)

	students, err := api.svc.QueryStudents(ctx.Request().Context(), claims.Subject, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) overview(ctx echo.Context) error {
	claims, err := api.auth.contextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	ov, err := api.svc.OwnerOverview(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "computing overview")
	}
	return ctx.JSON(http.StatusOK, ov)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	st, err := contextStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) update(ctx echo.Context) error {
	st, err := contextStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}

	var data student.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}

	st, err = api.svc.UpdateStudent(ctx.Request().Context(), st.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	st, err := contextStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}
	if err = api.svc.DeleteStudent(ctx.Request().Context(), st.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) registerSubject(ctx echo.Context) error {
	st, err := contextStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}

	var data RegisterSubjectRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RegisterSubjectRequest")
	}

	sub, created, err := api.svc.RegisterSubject(ctx.Request().Context(), st.ID, data.SubjectName)
	if err != nil {
		return errors.Wrap(err, "registering subject")
	}
	if created {
		return ctx.JSON(http.StatusCreated, sub)
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *studentApi) toggleCompletion(ctx echo.Context) error {
	st, err := contextStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}
	// params are only left escaped when the router matched on RawPath
	subject := ctx.Param("subject")
	if ctx.Request().URL.RawPath != "" {
		if subject, err = url.PathUnescape(subject); err != nil {
			return errHttpNotFound
		}
	}

	var data CompletionRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompletionRequest")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	sub, err := api.svc.ToggleCompletion(ctx.Request().Context(), st.ID, subject, *data.IsCompleted)
	if err != nil {
		return errors.Wrap(err, "toggling completion")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *studentApi) submitLog(ctx echo.Context) error {
	st, err := contextStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}
	acc, err := api.auth.contextAccount(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}

	var data student.NewLog
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLog")
	}
	data.StudentID = st.ID

	res, err := api.svc.SubmitLog(ctx.Request().Context(), data, acc.CreditPolicy())
	if err != nil {
		return errors.Wrap(err, "submitting log")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *studentApi) queryLogs(ctx echo.Context) error {
	st, err := contextStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}
	filter, err := bindLogFilter(ctx, st.ID)
	if err != nil {
		return err
	}

	logs, err := api.svc.QueryLogs(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying logs")
	}
	if logs == nil {
		logs = []student.LogEntry{}
	}
	return ctx.JSON(http.StatusOK, logs)
}

func (api *studentApi) hasLoggedSubject(ctx echo.Context) error {
	st, err := contextStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}
	exists, err := api.svc.HasLoggedSubject(ctx.Request().Context(), st.ID, ctx.QueryParam(subjectParam))
	if err != nil {
		return errors.Wrap(err, "checking logs")
	}
	return ctx.JSON(http.StatusOK, ExistsResponse{Exists: exists})
}

func (api *studentApi) transcript(ctx echo.Context) error {
	st, err := contextStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}
	acc, err := api.auth.contextAccount(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}

	t, err := api.svc.Transcript(ctx.Request().Context(), st.ID, acc.CreditPolicy())
	if err != nil {
		return errors.Wrap(err, "building transcript")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *studentApi) emailTranscript(ctx echo.Context) error {
	st, err := contextStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}
	acc, err := api.auth.contextAccount(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}

	var data EmailTranscriptRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailTranscriptRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	to := mail.Address{Name: acc.Name, Address: acc.Email}
	if data.Email != "" {
		to = mail.Address{Name: data.Name, Address: data.Email}
	}

	if err = api.svc.EmailTranscript(ctx.Request().Context(), st.ID, acc.CreditPolicy(), to); err != nil {
		return errors.Wrap(err, "emailing transcript")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "The transcript has been sent to " + to.Address + "."})
}

func (api *studentApi) dashboard(ctx echo.Context) error {
	st, err := contextStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}
	d, err := api.svc.Dashboard(ctx.Request().Context(), st.ID)
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return ctx.JSON(http.StatusOK, d)
}

type (
	RegisterSubjectRequest struct {
		SubjectName string `json:"subject_name"`
	}

	CompletionRequest struct {
		IsCompleted *bool `json:"is_completed" validate:"required"`
	}

	ExistsResponse struct {
		Exists bool `json:"exists"`
	}

	// EmailTranscriptRequest defaults to the account's own address.
	EmailTranscriptRequest struct {
		Name  string `json:"name"`
		Email string `json:"email" validate:"omitempty,email"`
	}
)

func (er *EmailTranscriptRequest) Validate(validate *validator.Validate) error {
	er.Name = core.CleanString(er.Name)
	er.Email = core.CleanString(er.Email, true /* lower */)
	return validate.Struct(er)
}
