package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/nudge/core/student"
)

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// ctxStudentOrAdminMiddleware loads the student of the `:id` path param into the context.
// Only the student themselves and admins may reach it; anyone else gets a 404.
func ctxStudentOrAdminMiddleware(svc *student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}

			if ctx.Param("id") == claims.Subject || claims.IsAdmin {
				if s, err := svc.Get(ctx.Request().Context(), ctx.Param("id")); err == nil {
					ctx.Set(contextObjectKey, s)
					return next(ctx)
				} else if errors.Cause(err) != student.ErrNotFound {
					return errors.Wrap(err, "finding student by ID")
				}
			}
			return errHttpNotFound
		}
	}
}

func getContextStudent(ctx echo.Context) (student.Student, error) {
	if s, ok := ctx.Get(contextObjectKey).(student.Student); ok {
		return s, nil
	}
	return student.Student{}, errStudentNotFoundInCtx
}
