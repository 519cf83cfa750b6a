package encouragement

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/nudge/core/student"
)

func TestContent_Message(t *testing.T) {
	c := DefaultContent()
	ada := student.Student{ID: "ada", Name: "Ada", Email: "ada@example.com"}
	_, narrative := c.FeedbackRules(DefaultFeedbackCutoff)
	feedback, _ := narrative.Match(1, testNow)
	feedback.Location = c.LessonLocation(22, 28)
	subject, paragraphs := c.inactiveNotStarted()

	tests := []struct {
		name      string
		milestone Milestone
	}{
		{name: "narrative_feedback", milestone: feedback},
		{name: "inactive_not_started", milestone: Milestone{Kind: InactiveNotStarted, Subject: subject, Paragraphs: paragraphs}},
	}
	g := goldie.New(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := c.Message(ada, tt.milestone)
			require.NoError(t, msg.Render())
			assert.Equal(t, tt.milestone.Subject, msg.Subject)
			g.Assert(t, tt.name, []byte(msg.TextContent))

			if tt.milestone.Location != "" {
				assert.Contains(t, msg.HTMLContent, `href="https://course.citizenmaths.com/main/unit?unit=22&amp;lesson=28"`)
			} else {
				assert.NotContains(t, msg.HTMLContent, "Notes")
			}
			assert.Contains(t, msg.HTMLContent, `<a href="https://course.citizenmaths.com/main/student/home"`)
		})
	}
}

func TestContent_Locations(t *testing.T) {
	c := DefaultContent()
	assert.Equal(t, "https://course.citizenmaths.com/main/unit?unit=50&lesson=0", c.LessonLocation(50, 0))
	assert.Equal(t, "https://course.citizenmaths.com/main/unit?unit=22&lesson=28", c.FeedbackLocation("/main/unit?unit=22&lesson=28"))
}

func TestContent_UnsubscribeURL(t *testing.T) {
	c := DefaultContent()
	c.UnsubscribeURL = func(s student.Student) string { return "https://nudge.test/v1/unsubscribe/" + s.ID + "/tok" }
	ada := student.Student{ID: "ada", Name: "Ada", Email: "ada@example.com"}
	subject, paragraphs := c.inactiveStarted()

	msg := c.Message(ada, Milestone{Kind: InactiveStarted, Subject: subject, Paragraphs: paragraphs})
	require.NoError(t, msg.Render())
	assert.Contains(t, msg.TextContent, "To stop these emails right away, open https://nudge.test/v1/unsubscribe/ada/tok\n")
	assert.Contains(t, msg.HTMLContent, `<a href="https://nudge.test/v1/unsubscribe/ada/tok" target="_blank">unsubscribe here</a>`)
}
