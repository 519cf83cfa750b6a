package echoapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/nudge/core"
	"github.com/trezcool/nudge/core/student"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads `?ordering=field,-other` ("-" for descending).
func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindStudentFilter reads a student.QueryFilter from the query params:
// send_mail, enrolled_from and enrolled_to (RFC 3339), ordering, limit and offset.
func bindStudentFilter(ctx echo.Context) (student.QueryFilter, error) {
	var (
		filter student.QueryFilter
		fldErrs []core.FieldError
	)
	invalid := func(field, msg string) { fldErrs = append(fldErrs, core.FieldError{Field: field, Error: msg}) }

	if v := ctx.QueryParam("send_mail"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			invalid("send_mail", "must be true or false")
		} else {
			filter.SendMail = &b
		}
	}
	for field, dst := range map[string]*time.Time{"enrolled_from": &filter.EnrolledFrom, "enrolled_to": &filter.EnrolledTo} {
		if v := ctx.QueryParam(field); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				invalid(field, "must be an RFC 3339 date-time")
				continue
			}
			*dst = t
		}
	}
	for field, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := ctx.QueryParam(field); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				invalid(field, "must be a positive number")
				continue
			}
			*dst = n
		}
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)
	if len(ordering.Orderings) > 0 {
		filter.Ordering = ordering.Orderings[0]
	}

	if len(fldErrs) > 0 {
		return filter, core.NewValidationError(nil, fldErrs...)
	}
	return filter, nil
}
