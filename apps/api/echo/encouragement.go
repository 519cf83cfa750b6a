package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/nudge/core"
	"github.com/trezcool/nudge/core/encouragement"
)

// LessonView reports that a student opened a course page.
type LessonView struct {
	Unit     int       `json:"unit" validate:"gt=0"`
	Lesson   int       `json:"lesson" validate:"gte=0"` // 0: the unit's intro page
	ViewedAt time.Time `json:"viewed_at"`               // defaults to now
}

func (lv LessonView) Validate() error { return core.Validate.Struct(lv) }

// viewLesson is best-effort: once the payload is valid, failures are logged and the answer is still 202.
// Only a lost database fails the request, so that the server shuts down.
func (api *studentApi) viewLesson(ctx echo.Context) error {
	s, err := getContextStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}

	var data LessonView
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LessonView")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	if data.ViewedAt.IsZero() {
		data.ViewedAt = time.Now()
	}

	rctx := ctx.Request().Context()
	if _, err := api.svc.MarkSeen(rctx, s.ID, data.ViewedAt); err != nil {
		api.logger.Error("marking student as seen", err, s)
	}
	rep, err := api.encSvc.EvaluateLesson(rctx, s.ID, data.Unit, data.Lesson)
	if core.IsShutdown(err) {
		return errors.Wrap(err, "evaluating lesson view")
	}
	if err != nil {
		api.logger.Error("evaluating lesson view", err, s, map[string]interface{}{"unit": data.Unit, "lesson": data.Lesson})
	}
	return ctx.JSON(http.StatusAccepted, rep)
}

// submitFeedback is best-effort like viewLesson.
func (api *studentApi) submitFeedback(ctx echo.Context) error {
	s, err := getContextStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}

	var data encouragement.FeedbackSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FeedbackSubmission")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rep, err := api.encSvc.RecordFeedback(ctx.Request().Context(), s.ID, data)
	if core.IsShutdown(err) {
		return errors.Wrap(err, "recording feedback")
	}
	if err != nil {
		api.logger.Error("recording feedback", err, s, map[string]interface{}{"key": data.LessonKey})
	}
	return ctx.JSON(http.StatusAccepted, rep)
}

func (api *studentApi) retrieveRecord(ctx echo.Context) error {
	s, err := getContextStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}

	rec, err := api.encSvc.GetRecord(ctx.Request().Context(), s.ID)
	if err != nil {
		return errors.Wrap(err, "getting encouragement record")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *studentApi) destroyRecord(ctx echo.Context) error {
	s, err := getContextStudent(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}

	if err := api.encSvc.DeleteRecord(ctx.Request().Context(), s.ID); err != nil {
		return errors.Wrap(err, "deleting encouragement record")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type sweepApi struct {
	svc *encouragement.Service
}

func registerSweepAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *encouragement.Service) {
	api := sweepApi{svc: svc}
	g.POST("/sweeps", api.run, jwt, adminMiddleware())
}

func (api *sweepApi) run(ctx echo.Context) error {
	rep, err := api.svc.Sweep(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "running inactivity sweep")
	}
	return ctx.JSON(http.StatusOK, rep)
}
