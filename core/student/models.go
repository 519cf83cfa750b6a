package student

import (
	"context"
	"time"

	"github.com/trezcool/nudge/core"
)

// Preferences are the student's communication choices.
type Preferences struct {
	SendMail bool `json:"send_mail"` // consent to encouragement emails
}

type Student struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"` // given name, used in greetings
	Email       string      `json:"email"`
	Preferences Preferences `json:"preferences"`
	EnrolledOn  time.Time   `json:"enrolled_on"`  // UTC
	LastSeenOn  time.Time   `json:"last_seen_on"` // UTC; zero if never seen
	CreatedAt   time.Time   `json:"created_at"`   // UTC
	UpdatedAt   time.Time   `json:"updated_at"`   // UTC
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	ID         string    `json:"id" validate:"required,max=64"`
	Name       string    `json:"name" validate:"required"`
	Email      string    `json:"email" validate:"required,email"`
	SendMail   bool      `json:"send_mail"`
	EnrolledOn time.Time `json:"enrolled_on"` // defaults to now
}

func (ns *NewStudent) Validate(ctx context.Context, svc *Service) error {
	ns.ID = core.CleanString(ns.ID)
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)

	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, ns.ID, ns.Email)
}

// UpdatePreferences defines the preferences a student may change.
type UpdatePreferences struct {
	SendMail *bool `json:"send_mail" validate:"required"`
}

func (up UpdatePreferences) Validate() error { return core.Validate.Struct(up) }

// ProgressUpdate lists lessons and assessments a student has just completed.
type ProgressUpdate struct {
	Lessons     []int     `json:"lessons" validate:"required_without=Assessments,dive,gt=0"`
	Assessments []int     `json:"assessments" validate:"dive,gt=0"`
	CompletedAt time.Time `json:"completed_at"` // defaults to now
}

func (pu ProgressUpdate) Validate() error { return core.Validate.Struct(pu) }

type QueryFilter struct {
	SendMail      *bool     `query:"send_mail"`
	EnrolledFrom  time.Time `query:"enrolled_from"`
	EnrolledTo    time.Time `query:"enrolled_to"`
	Ordering      core.DBOrdering
	Limit, Offset int
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.SendMail == nil && qf.EnrolledFrom.IsZero() && qf.EnrolledTo.IsZero()
}
