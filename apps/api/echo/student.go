package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/nudge/core"
	"github.com/trezcool/nudge/core/encouragement"
	"github.com/trezcool/nudge/core/student"
)

type studentApi struct {
	svc    *student.Service
	encSvc *encouragement.Service
	logger core.Logger
}

func registerStudentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *student.Service,
	encSvc *encouragement.Service,
	logger core.Logger,
) {
	api := studentApi{svc: svc, encSvc: encSvc, logger: logger}

	// links sent in emails; the token is the credential
	g.GET("/unsubscribe/:uid/:token", api.unsubscribe)

	sg := g.Group("/students", jwt)
	sg.POST("", api.create, adminMiddleware())
	sg.GET("", api.query, adminMiddleware())

	// detail endpoints
	dg := sg.Group("/:id", ctxStudentOrAdminMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("/preferences", api.updatePreferences)
	dg.POST("/progress", api.recordProgress)
	dg.POST("/lesson-views", api.viewLesson)
	dg.POST("/feedback", api.submitFeedback)
	dg.GET("/encouragement", api.retrieveRecord)
	dg.DELETE("/encouragement", api.destroyRecord, adminMiddleware())
}

// Handlers

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(ctx.Request().Context(), api.svc); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		switch errors.Cause(err) {
		case student.ErrStudentExists:
			return core.NewValidationError(err, core.FieldError{Field: "id", Error: err.Error()})
		case student.ErrEmailExists:
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *studentApi) query(ctx echo.Context) error {
	filter, err := bindStudentFilter(ctx)
	if err != nil {
		return err
	}

	students, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	s, err := getContextStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) updatePreferences(ctx echo.Context) error {
	s, err := getContextStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}

	var data student.UpdatePreferences
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePreferences")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	s, err = api.svc.UpdatePreferences(ctx.Request().Context(), s.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating preferences")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) recordProgress(ctx echo.Context) error {
	s, err := getContextStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}

	var data student.ProgressUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProgressUpdate")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.RecordProgress(ctx.Request().Context(), s.ID, data); err != nil {
		return errors.Wrap(err, "recording progress")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) unsubscribe(ctx echo.Context) error {
	_, err := api.svc.Unsubscribe(ctx.Request().Context(), ctx.Param("uid"), ctx.Param("token"))
	if err != nil {
		switch err {
		case student.ErrInvalidToken, student.ErrTokenExpired:
			return echo.NewHTTPError(http.StatusBadRequest, "invalid or expired unsubscribe link")
		}
		return errors.Wrap(err, "unsubscribing student")
	}
	return ctx.String(http.StatusOK, "You will no longer receive encouragement emails.")
}
