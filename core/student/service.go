package student

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/nudge/core"
)

var (
	// errors
	ErrNotFound      = errors.New("student not found")
	ErrStudentExists = errors.New("a student with this id already exists")
	ErrEmailExists   = errors.New("a student with this email already exists")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// CheckUniqueness returns ErrStudentExists or ErrEmailExists when id or email are taken.
		CheckUniqueness(ctx context.Context, id, email string) error
		CreateStudent(ctx context.Context, s Student) (Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields.
		QueryStudents(ctx context.Context, filter QueryFilter) ([]Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
	}

	// ProgressRecorder stores lesson and assessment completions reported by the course platform.
	ProgressRecorder interface {
		RecordLessons(ctx context.Context, studentID string, lessons []int, at time.Time) error
		RecordAssessments(ctx context.Context, studentID string, assessments []int, at time.Time) error
	}

	Service struct {
		repo     Repository
		progress ProgressRecorder
		tokens   *TokenGenerator
	}
)

func NewService(repo Repository, progress ProgressRecorder, tokens *TokenGenerator) *Service {
	return &Service{repo: repo, progress: progress, tokens: tokens}
}

func (svc *Service) checkUniqueness(ctx context.Context, id, email string) error {
	if err := svc.repo.CheckUniqueness(ctx, id, email); err != nil {
		var field string
		switch err {
		case ErrStudentExists:
			field = "id"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := nowFunc().UTC()
	enrolled := ns.EnrolledOn.UTC()
	if ns.EnrolledOn.IsZero() {
		enrolled = now
	}
	s := Student{
		ID:          ns.ID,
		Name:        ns.Name,
		Email:       ns.Email,
		Preferences: Preferences{SendMail: ns.SendMail},
		EnrolledOn:  enrolled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateStudent(ctx, s)
}

func (svc *Service) Get(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, core.CleanString(id))
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, filter)
}

// Consenting returns the students who agreed to receive encouragement emails.
func (svc *Service) Consenting(ctx context.Context) ([]Student, error) {
	yes := true
	return svc.repo.QueryStudents(ctx, QueryFilter{
		SendMail: &yes,
		Ordering: core.DBOrdering{Field: "enrolled_on", Ascending: true},
	})
}

func (svc *Service) UpdatePreferences(ctx context.Context, id string, up UpdatePreferences) (Student, error) {
	s, err := svc.Get(ctx, id)
	if err != nil {
		return Student{}, err
	}
	s.Preferences.SendMail = *up.SendMail
	s.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateStudent(ctx, s)
}

// MarkSeen records that the student viewed a course page at `at`.
func (svc *Service) MarkSeen(ctx context.Context, id string, at time.Time) (Student, error) {
	s, err := svc.Get(ctx, id)
	if err != nil {
		return Student{}, err
	}
	s.LastSeenOn = at.UTC()
	s.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateStudent(ctx, s)
}

// Unsubscribe turns off the encouragement emails of the student of an unsubscribe link.
func (svc *Service) Unsubscribe(ctx context.Context, uid, token string) (Student, error) {
	id, err := DecodeUID(uid)
	if err != nil {
		return Student{}, err
	}
	s, err := svc.Get(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return Student{}, ErrInvalidToken
		}
		return Student{}, err
	}
	if svc.tokens == nil {
		return Student{}, ErrInvalidToken
	}
	if err := svc.tokens.Verify(s, token); err != nil {
		return Student{}, err
	}

	if !s.Preferences.SendMail {
		return s, nil
	}
	no := false
	return svc.UpdatePreferences(ctx, s.ID, UpdatePreferences{SendMail: &no})
}

// RecordProgress stores the completions of pu for an existing student.
func (svc *Service) RecordProgress(ctx context.Context, id string, pu ProgressUpdate) error {
	s, err := svc.Get(ctx, id)
	if err != nil {
		return err
	}
	at := pu.CompletedAt.UTC()
	if pu.CompletedAt.IsZero() {
		at = nowFunc().UTC()
	}
	if len(pu.Lessons) > 0 {
		if err := svc.progress.RecordLessons(ctx, s.ID, pu.Lessons, at); err != nil {
			return err
		}
	}
	if len(pu.Assessments) > 0 {
		if err := svc.progress.RecordAssessments(ctx, s.ID, pu.Assessments, at); err != nil {
			return err
		}
	}
	return nil
}
