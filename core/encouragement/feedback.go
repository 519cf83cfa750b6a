package encouragement

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/trezcool/nudge/core"
)

// DefaultNarrativeMinLength is the shortest trimmed comment counted as written feedback.
const DefaultNarrativeMinLength = 10

// DefaultFeedbackCutoff is when feedback encouragement went live; the first plain
// feedback email only goes to students who enrolled after it.
var DefaultFeedbackCutoff = time.Date(2016, time.November, 1, 0, 0, 0, 0, time.UTC)

// FeedbackSubmission is a rating left on a course page.
type FeedbackSubmission struct {
	LessonKey string `json:"key" validate:"required,lessonkey"`
	Rating    string `json:"rating"`
	Comments  string `json:"additional_comments"`
}

func (fs FeedbackSubmission) Validate() error { return core.Validate.Struct(fs) }

// classify returns the counter a submission feeds: narrative when the trimmed comments have
// at least minLen characters, plain when there are none, nothing for short comments.
func (fs FeedbackSubmission) classify(minLen int) (Kind, bool) {
	n := utf8.RuneCountInString(strings.TrimSpace(fs.Comments))
	switch {
	case n >= minLen:
		return NarrativeFeedback, true
	case n == 0:
		return Feedback, true
	}
	return 0, false
}

// CounterStep fires when a counter equals Count, for students enrolled after EnrolledAfter if set.
type CounterStep struct {
	Count         int
	EnrolledAfter time.Time
	Paragraphs    []string
}

// CounterRule emits a milestone when a counter reaches one of its steps, then every Every
// counts past the last step (if Every > 0).
type CounterRule struct {
	Kind            Kind
	Subject         string
	Steps           []CounterStep
	Every           int
	EveryParagraphs []string
}

// Match returns the milestone for counter value count, if any.
func (cr CounterRule) Match(count int, enrolledOn time.Time) (Milestone, bool) {
	m := Milestone{Kind: cr.Kind, Count: count, Subject: cr.Subject}
	last := 0
	for _, step := range cr.Steps {
		if step.Count > last {
			last = step.Count
		}
		if step.Count != count {
			continue
		}
		if !step.EnrolledAfter.IsZero() && !enrolledOn.After(step.EnrolledAfter) {
			return Milestone{}, false
		}
		m.Paragraphs = step.Paragraphs
		return m, true
	}
	if cr.Every > 0 && count > last && (count-last)%cr.Every == 0 {
		m.Paragraphs = cr.EveryParagraphs
		return m, true
	}
	return Milestone{}, false
}

// FeedbackRules returns the plain and narrative feedback rules.
func (c Content) FeedbackRules(cutoff time.Time) (plain, narrative CounterRule) {
	plain = CounterRule{
		Kind:    Feedback,
		Subject: c.teamSubject(),
		Steps: []CounterStep{
			{Count: 2, EnrolledAfter: cutoff, Paragraphs: []string{
				"Thank you for beginning to give us feedback on " + c.Course + ". " +
					"By doing so you are helping us to understand the impact that " + c.Course + " is having.",
			}},
			{Count: 8, Paragraphs: []string{
				"Thanks for continuing to provide feedback on " + c.Course + ". " +
					"Whilst we don't look at every piece of feedback, we do analyse the feedback data overall. " +
					"This helps us to understand the impact that " + c.Course + " is having.",
			}},
		},
		Every: 10,
		EveryParagraphs: []string{
			"Thanks for continuing to provide feedback on " + c.Course + ". " +
				"Please continue to provide feedback. We really appreciate it.",
		},
	}
	narrative = CounterRule{
		Kind:    NarrativeFeedback,
		Subject: c.narrativeSubject(),
		Steps: []CounterStep{
			{Count: 1, Paragraphs: []string{
				"Thanks very much for providing written feedback on " + c.Course + ". " +
					"We try to read all of it, and what learners tell us will help us improve " + c.Course + " in the future. " +
					"Please continue to provide it.",
			}},
			{Count: 4, Paragraphs: []string{
				"Thanks very much for continuing to provide written feedback on " + c.Course + ". " +
					"As we mentioned previously we do try to read all of it, and, when we can, to act on it. " +
					"Please continue to provide it.",
			}},
		},
	}
	return plain, narrative
}
