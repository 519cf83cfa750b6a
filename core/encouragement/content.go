package encouragement

import (
	"fmt"
	"net/mail"

	"github.com/trezcool/nudge/core"
	"github.com/trezcool/nudge/core/student"
	"github.com/trezcool/nudge/core/taxonomy"
)

// TemplateName is the email template encouragement emails are rendered with.
const TemplateName = "encouragement"

// Content holds what encouragement emails say about the course and who signs them.
type Content struct {
	Course        string
	CourseBaseURL string // no trailing slash
	SiteURL       string
	ProfileURL    string
	Signature     string
	Team          string

	// UnsubscribeURL returns the one-click unsubscribe link of a student; nil: no link.
	UnsubscribeURL func(s student.Student) string
}

func DefaultContent() Content {
	return Content{
		Course:        "Citizen Maths",
		CourseBaseURL: "https://course.citizenmaths.com",
		SiteURL:       "https://citizenmaths.com/",
		ProfileURL:    "https://course.citizenmaths.com/main/student/home",
		Signature:     "Seb Schmoller",
		Team:          "Citizen Maths Team",
	}
}

func ContentFromConfig(ec core.EncouragementConfig) Content {
	return Content{
		Course:        ec.CourseName,
		CourseBaseURL: ec.CourseBaseURL,
		SiteURL:       ec.SiteURL,
		ProfileURL:    ec.ProfileURL(),
		Signature:     ec.Signature,
		Team:          ec.Team,
	}
}

// EmailData is rendered by the encouragement email templates.
type EmailData struct {
	Name       string
	Paragraphs []string
	Signature  string
	Team       string
	SiteURL    string
	Location   string
	Course     string
	ProfileURL string

	UnsubscribeURL string
}

func (c Content) progressSubject() string {
	return "A message about your progress in " + c.Course
}

func (c Content) teamSubject() string {
	return "A message from the " + c.Course + " team"
}

func (c Content) narrativeSubject() string {
	return c.Course + ": your written feedback"
}

func (c Content) startedIdea(idea taxonomy.Idea) (string, []string) {
	return c.progressSubject(), []string{fmt.Sprintf(
		"We are glad that you've made a start with %[1]s in the %[2]s course. "+
			"We encourage you to keep going; a good way to do this is likely to be to set aside a bit of time "+
			"on most days to do one or two lessons until you've completed the whole course.",
		idea.Name, c.Course,
	)}
}

func (c Content) nearCompleteUnit(unit taxonomy.Unit) (string, []string) {
	return c.progressSubject(), []string{fmt.Sprintf(
		"We thought you'd like to know that you've only got one more lesson to go in %[1]s - %[2]s, in the %[3]s course. "+
			"We encourage you to finish %[1]s now (if you have not already done so) whilst what you have been doing is fresh in your mind.",
		unit.Number, unit.Name, c.Course,
	)}
}

func (c Content) nearCompleteIdea(idea taxonomy.Idea) (string, []string) {
	return c.progressSubject(), []string{fmt.Sprintf(
		"We thought you'd like to know that you've now got just three lessons to go to complete %[1]s in the %[2]s course. "+
			"We encourage you to finish %[1]s now whilst things are fresh in your mind.",
		idea.Name, c.Course,
	)}
}

func (c Content) inactiveNotStarted() (string, []string) {
	return c.teamSubject(), []string{
		fmt.Sprintf("We noticed that in the week since you signed up for %s, you seem not to have got started with the course.", c.Course),
		"We'd encourage you to make a start. If you do so, you can do as much or as little as you like in session.",
		"In case of difficulty, feel free to get in touch and we will do what we can to help.",
	}
}

func (c Content) inactiveStarted() (string, []string) {
	return c.teamSubject(), []string{
		fmt.Sprintf("We noticed that it is two weeks since you last logged into %s.", c.Course),
		fmt.Sprintf("We hope very much that you will give %s another try.", c.Course),
		"In case of difficulty, feel free to get in touch and we will do what we can to help.",
	}
}

// LessonLocation is the course page showing lesson of courseUnit.
func (c Content) LessonLocation(courseUnit, lesson int) string {
	return fmt.Sprintf("%s/main/unit?unit=%d&lesson=%d", c.CourseBaseURL, courseUnit, lesson)
}

// FeedbackLocation is the course page a feedback widget keyed lessonKey lives on.
func (c Content) FeedbackLocation(lessonKey string) string {
	return c.CourseBaseURL + lessonKey
}

// Message builds the email announcing m to s.
func (c Content) Message(s student.Student, m Milestone) *core.EmailMessage {
	var unsubscribeURL string
	if c.UnsubscribeURL != nil {
		unsubscribeURL = c.UnsubscribeURL(s)
	}
	return &core.EmailMessage{
		To:           []mail.Address{{Name: s.Name, Address: s.Email}},
		Subject:      m.Subject,
		TemplateName: TemplateName,
		TemplateData: EmailData{
			Name:       s.Name,
			Paragraphs: m.Paragraphs,
			Signature:  c.Signature,
			Team:       c.Team,
			SiteURL:    c.SiteURL,
			Location:   m.Location,
			Course:     c.Course,
			ProfileURL: c.ProfileURL,

			UnsubscribeURL: unsubscribeURL,
		},
	}
}
