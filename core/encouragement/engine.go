package encouragement

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/nudge/core"
	"github.com/trezcool/nudge/core/taxonomy"
)

// ProgressSource reports what a student has completed. It is owned by the course platform.
type ProgressSource interface {
	// LessonCompletion returns how many of lessons the student completed, and len(lessons).
	LessonCompletion(ctx context.Context, studentID string, lessons []taxonomy.LessonID) (completed, total int, err error)
	AssessmentCompleted(ctx context.Context, studentID string, assessmentID int) (bool, error)
	// LastUpdated returns when the student's progress last changed, zero if it never did.
	LastUpdated(ctx context.Context, studentID string) (time.Time, error)
}

// Thresholds are the exact lesson counts progress milestones fire at.
type Thresholds struct {
	StartedIdeaCompleted      int // lessons completed in an idea
	NearCompleteUnitRemaining int // lessons left in a unit
	NearCompleteIdeaRemaining int // lessons left in an idea
}

func DefaultThresholds() Thresholds {
	return Thresholds{StartedIdeaCompleted: 2, NearCompleteUnitRemaining: 1, NearCompleteIdeaRemaining: 3}
}

// Engine decides which progress milestones a lesson interaction crosses.
type Engine struct {
	index      *taxonomy.Index
	progress   ProgressSource
	thresholds Thresholds
	content    Content
}

func NewEngine(index *taxonomy.Index, progress ProgressSource, thresholds Thresholds, content Content) *Engine {
	vala.BeginValidation().Validate(
		vala.IsNotNil(index, "index"),
		core.IsSet(progress, "progress"),
	).CheckAndPanic()
	return &Engine{index: index, progress: progress, thresholds: thresholds, content: content}
}

type completion struct {
	completed, total int
}

// Evaluate runs the started-idea, near-complete-unit and near-complete-idea checks for lesson.
// Each emitted milestone's grouping is added to its notified set in rec before returning,
// so a milestone fires at most once per record whatever happens to the email.
// Thresholds are exact: a count that skips over one emits nothing.
func (e *Engine) Evaluate(ctx context.Context, studentID string, lesson taxonomy.LessonID, rec *Record) ([]Milestone, error) {
	g, ok := e.index.GroupingsFor(lesson)
	if !ok {
		return nil, nil
	}

	cache := make(map[taxonomy.GroupingID]completion, 2)
	complete := func(id taxonomy.GroupingID) (completion, error) {
		if c, ok := cache[id]; ok {
			return c, nil
		}
		done, total, err := e.progress.LessonCompletion(ctx, studentID, e.index.MembersOf(id))
		if err != nil {
			return completion{}, errors.Wrapf(err, "querying completion of %s", id)
		}
		cache[id] = completion{completed: done, total: total}
		return cache[id], nil
	}

	var milestones []Milestone
	emit := func(kind Kind, id taxonomy.GroupingID, subject string, paragraphs []string) {
		rec.notified(kind)[id] = struct{}{}
		milestones = append(milestones, Milestone{Kind: kind, GroupingID: id, Subject: subject, Paragraphs: paragraphs})
	}

	if g.Idea != "" {
		c, err := complete(g.Idea)
		if err != nil {
			return nil, err
		}
		if c.completed == e.thresholds.StartedIdeaCompleted && !rec.notified(StartedIdea).Has(g.Idea) {
			idea, _ := e.index.Idea(g.Idea)
			subject, paragraphs := e.content.startedIdea(idea)
			emit(StartedIdea, g.Idea, subject, paragraphs)
		}
	}

	c, err := complete(g.Unit)
	if err != nil {
		return nil, err
	}
	if c.total-c.completed == e.thresholds.NearCompleteUnitRemaining && !rec.notified(NearCompleteUnit).Has(g.Unit) {
		unit, _ := e.index.Unit(g.Unit)
		subject, paragraphs := e.content.nearCompleteUnit(unit)
		emit(NearCompleteUnit, g.Unit, subject, paragraphs)
	}

	if g.Idea != "" {
		c, err := complete(g.Idea)
		if err != nil {
			return nil, err
		}
		if c.total-c.completed == e.thresholds.NearCompleteIdeaRemaining && !rec.notified(NearCompleteIdea).Has(g.Idea) {
			idea, _ := e.index.Idea(g.Idea)
			subject, paragraphs := e.content.nearCompleteIdea(idea)
			emit(NearCompleteIdea, g.Idea, subject, paragraphs)
		}
	}
	return milestones, nil
}
