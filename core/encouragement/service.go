package encouragement

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/nudge/core"
	"github.com/trezcool/nudge/core/student"
	"github.com/trezcool/nudge/core/taxonomy"
)

type (
	// Repository stores encouragement records. SaveRecord is an upsert on the student id; last writer wins.
	Repository interface {
		GetRecord(ctx context.Context, studentID string) (*Record, error)
		SaveRecord(ctx context.Context, rec *Record) error
		DeleteRecord(ctx context.Context, studentID string) error
	}

	// Students looks students up. It is satisfied by *student.Service.
	Students interface {
		Get(ctx context.Context, id string) (student.Student, error)
		Consenting(ctx context.Context) ([]student.Student, error)
	}

	Options struct {
		Throttle           Throttle
		Thresholds         Thresholds
		Content            Content
		NarrativeMinLength int
		FeedbackCutoff     time.Time
		NotStartedAfter    time.Duration
		InactiveAfter      time.Duration
		// ReleaseOnSendFailure removes a milestone's grouping from its notified set when the email
		// is not accepted, so a later evaluation may fire it again.
		ReleaseOnSendFailure bool
	}

	// Report summarises one evaluation.
	Report struct {
		Milestones []Milestone `json:"milestones"`
		Sent       int         `json:"sent"`
		Suppressed int         `json:"suppressed"` // throttled
		Failed     int         `json:"failed"`
	}

	Service struct {
		repo      Repository
		students  Students
		index     *taxonomy.Index
		progress  ProgressSource
		mailSvc   core.EmailService
		logger    core.Logger
		engine    *Engine
		opts      Options
		plain     CounterRule
		narrative CounterRule

		now func() time.Time // mockable
	}
)

func DefaultOptions() Options {
	return Options{
		Throttle:           DefaultThrottle(),
		Thresholds:         DefaultThresholds(),
		Content:            DefaultContent(),
		NarrativeMinLength: DefaultNarrativeMinLength,
		FeedbackCutoff:     DefaultFeedbackCutoff,
		NotStartedAfter:    7 * 24 * time.Hour,
		InactiveAfter:      14 * 24 * time.Hour,
	}
}

func OptionsFromConfig(conf *core.Config) Options {
	ec := conf.Encouragement
	return Options{
		Throttle: Throttle{Window: ec.ThrottleWindow, Limit: ec.ThrottleLimit},
		Thresholds: Thresholds{
			StartedIdeaCompleted:      ec.StartedIdeaCompleted,
			NearCompleteUnitRemaining: ec.NearCompleteUnitRemaining,
			NearCompleteIdeaRemaining: ec.NearCompleteIdeaRemaining,
		},
		Content:              ContentFromConfig(ec),
		NarrativeMinLength:   ec.NarrativeMinLength,
		FeedbackCutoff:       ec.FeedbackCutoff,
		NotStartedAfter:      ec.NotStartedAfter,
		InactiveAfter:        ec.InactiveAfter,
		ReleaseOnSendFailure: ec.ReleaseOnSendFailure,
	}
}

func NewService(
	repo Repository,
	students Students,
	index *taxonomy.Index,
	progress ProgressSource,
	mailSvc core.EmailService,
	logger core.Logger,
	opts Options,
) *Service {
	vala.BeginValidation().Validate(
		core.IsSet(repo, "repo"),
		core.IsSet(students, "students"),
		core.IsSet(mailSvc, "mailSvc"),
		core.IsSet(logger, "logger"),
		vala.GreaterThan(opts.Throttle.Limit, 0, "opts.Throttle.Limit"),
	).CheckAndPanic()

	plain, narrative := opts.Content.FeedbackRules(opts.FeedbackCutoff)
	return &Service{
		repo:      repo,
		students:  students,
		index:     index,
		progress:  progress,
		mailSvc:   mailSvc,
		logger:    logger,
		engine:    NewEngine(index, progress, opts.Thresholds, opts.Content),
		opts:      opts,
		plain:     plain,
		narrative: narrative,
		now:       time.Now,
	}
}

// loadRecord returns the student's record, creating an empty one if there is none yet.
func (svc *Service) loadRecord(ctx context.Context, studentID string) (rec *Record, created bool, err error) {
	rec, err = svc.repo.GetRecord(ctx, studentID)
	switch errors.Cause(err) {
	case nil:
		return rec, false, nil
	case ErrRecordNotFound:
		return NewRecord(studentID, svc.now()), true, nil
	default:
		return nil, false, errors.Wrap(err, "loading encouragement record")
	}
}

func (svc *Service) saveRecord(ctx context.Context, rec *Record) error {
	rec.UpdatedAt = svc.now().UTC()
	return errors.Wrap(svc.repo.SaveRecord(ctx, rec), "saving encouragement record")
}

// consenting returns the student if they agreed to encouragement emails.
func (svc *Service) consenting(ctx context.Context, studentID string) (student.Student, bool, error) {
	s, err := svc.students.Get(ctx, studentID)
	if err != nil {
		return student.Student{}, false, errors.Wrap(err, "getting student")
	}
	return s, s.Preferences.SendMail, nil
}

// deliver sends the email for m if the throttle allows it and accounts for the outcome in rec and rep.
// It reports whether the email was accepted.
func (svc *Service) deliver(ctx context.Context, s student.Student, rec *Record, m Milestone, rep *Report) bool {
	rep.Milestones = append(rep.Milestones, m)
	now := svc.now()
	if !svc.opts.Throttle.MaySend(rec, now) {
		rep.Suppressed++
		svc.logger.Info("encouragement email throttled", s, map[string]interface{}{"kind": m.Kind.String(), "grouping": m.GroupingID})
		return false
	}

	if err := svc.mailSvc.Send(ctx, svc.opts.Content.Message(s, m)); err != nil {
		rep.Failed++
		svc.logger.Error("sending encouragement email", err, s, map[string]interface{}{"kind": m.Kind.String(), "grouping": m.GroupingID})
		if svc.opts.ReleaseOnSendFailure && m.GroupingID != "" {
			delete(rec.notified(m.Kind), m.GroupingID)
		}
		return false
	}
	svc.opts.Throttle.RecordSend(rec, now)
	rep.Sent++
	return true
}

// EvaluateLesson checks the progress milestones crossed by a view of lesson in courseUnit and
// emails the student about them. Lessons outside any grouping are a no-op that does not touch the store.
func (svc *Service) EvaluateLesson(ctx context.Context, studentID string, courseUnit, lesson int) (Report, error) {
	var rep Report

	lessonID, ok := svc.index.ResolveLesson(courseUnit, lesson)
	if !ok {
		return rep, nil
	}
	if _, ok := svc.index.GroupingsFor(lessonID); !ok {
		return rep, nil
	}
	s, ok, err := svc.consenting(ctx, studentID)
	if err != nil || !ok {
		return rep, err
	}

	rec, created, err := svc.loadRecord(ctx, s.ID)
	if err != nil {
		return rep, err
	}
	milestones, err := svc.engine.Evaluate(ctx, s.ID, lessonID, rec)
	if err != nil {
		return rep, errors.Wrap(err, "evaluating milestones")
	}
	location := svc.opts.Content.LessonLocation(courseUnit, lesson)
	for _, m := range milestones {
		m.Location = location
		svc.deliver(ctx, s, rec, m, &rep)
	}

	if created || len(milestones) > 0 {
		if err := svc.saveRecord(ctx, rec); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

// RecordFeedback counts a feedback submission and emails the student when the count crosses a step
// of its CounterRule. Comments too short to be narrative are not counted.
func (svc *Service) RecordFeedback(ctx context.Context, studentID string, fs FeedbackSubmission) (Report, error) {
	var rep Report

	kind, ok := fs.classify(svc.opts.NarrativeMinLength)
	if !ok {
		return rep, nil
	}
	s, ok, err := svc.consenting(ctx, studentID)
	if err != nil || !ok {
		return rep, err
	}

	rec, _, err := svc.loadRecord(ctx, s.ID)
	if err != nil {
		return rep, err
	}
	rule, count := svc.plain, &rec.FeedbackCount
	if kind == NarrativeFeedback {
		rule, count = svc.narrative, &rec.FeedbackWithNarrativeCount
	}
	*count++

	if m, ok := rule.Match(*count, s.EnrolledOn); ok {
		m.Location = svc.opts.Content.FeedbackLocation(fs.LessonKey)
		svc.deliver(ctx, s, rec, m, &rep)
	}
	return rep, svc.saveRecord(ctx, rec)
}

func (svc *Service) GetRecord(ctx context.Context, studentID string) (*Record, error) {
	return svc.repo.GetRecord(ctx, core.CleanString(studentID))
}

// DeleteRecord removes the student's record, as part of an account data removal.
func (svc *Service) DeleteRecord(ctx context.Context, studentID string) error {
	return svc.repo.DeleteRecord(ctx, core.CleanString(studentID))
}
