package encouragement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/nudge/core"
	"github.com/trezcool/nudge/core/student"
)

// SweepReport summarises one inactivity sweep.
type SweepReport struct {
	RunID    string `json:"run_id"`
	Students int    `json:"students"`
	Errors   int    `json:"errors"`
	Report
}

// Sweep emails consenting students who never started the course a week after enrolling, and
// students who started but went quiet for two weeks without finishing. Each email goes at most
// once per student: its flag is set once the email is accepted. Students are processed one at a
// time; a failure for one student is logged and the sweep moves on,
// unless the database is gone.
func (svc *Service) Sweep(ctx context.Context) (SweepReport, error) {
	rep := SweepReport{RunID: uuid.NewString()}

	students, err := svc.students.Consenting(ctx)
	if err != nil {
		return rep, errors.Wrap(err, "listing consenting students")
	}
	for _, s := range students {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Students++
		if err := svc.sweepStudent(ctx, s, &rep.Report); err != nil {
			rep.Errors++
			if core.IsShutdown(err) {
				return rep, err
			}
			svc.logger.Error("sweeping student", err, s, map[string]interface{}{"run_id": rep.RunID})
		}
	}
	svc.logger.Info("inactivity sweep done", map[string]interface{}{
		"run_id":     rep.RunID,
		"students":   rep.Students,
		"sent":       rep.Sent,
		"suppressed": rep.Suppressed,
		"failed":     rep.Failed,
		"errors":     rep.Errors,
	})
	return rep, nil
}

func (svc *Service) sweepStudent(ctx context.Context, s student.Student, rep *Report) error {
	now := svc.now().UTC()

	completed, _, err := svc.progress.LessonCompletion(ctx, s.ID, svc.index.ActiveLessons())
	if err != nil {
		return errors.Wrap(err, "querying course completion")
	}
	rec, dirty, err := svc.loadRecord(ctx, s.ID)
	if err != nil {
		return err
	}

	if !rec.InactiveNotStartedSent && completed == 0 && s.EnrolledOn.Before(now.Add(-svc.opts.NotStartedAfter)) {
		subject, paragraphs := svc.opts.Content.inactiveNotStarted()
		m := Milestone{Kind: InactiveNotStarted, Subject: subject, Paragraphs: paragraphs}
		if svc.deliver(ctx, s, rec, m, rep) {
			rec.InactiveNotStartedSent = true
		}
		dirty = true
	}

	lastSeen := s.LastSeenOn
	if lastSeen.IsZero() {
		lastSeen = s.EnrolledOn
	}
	cutoff := now.Add(-svc.opts.InactiveAfter)
	if !rec.InactiveStartedSent && completed > 0 && lastSeen.Before(cutoff) {
		done, err := svc.progress.AssessmentCompleted(ctx, s.ID, svc.index.CulminatingAssessment)
		if err != nil {
			return errors.Wrap(err, "querying culminating assessment")
		}
		updated, err := svc.progress.LastUpdated(ctx, s.ID)
		if err != nil {
			return errors.Wrap(err, "querying progress update time")
		}
		if !done && !updated.IsZero() && updated.Before(cutoff) {
			subject, paragraphs := svc.opts.Content.inactiveStarted()
			m := Milestone{Kind: InactiveStarted, Subject: subject, Paragraphs: paragraphs}
			if svc.deliver(ctx, s, rec, m, rep) {
				rec.InactiveStartedSent = true
			}
			dirty = true
		}
	}

	if !dirty {
		return nil
	}
	return svc.saveRecord(ctx, rec)
}

// RunSweeps runs Sweep every interval until ctx is done or the database is lost.
func (svc *Service) RunSweeps(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.Errorf("invalid sweep interval %v", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, err := svc.Sweep(ctx)
			if core.IsShutdown(err) {
				return err
			}
			if err != nil && ctx.Err() == nil {
				svc.logger.Error("inactivity sweep failed", err)
			}
		}
	}
}
