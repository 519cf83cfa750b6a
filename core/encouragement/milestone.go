package encouragement

import (
	"github.com/trezcool/nudge/core/taxonomy"
)

// Kind tags a Milestone.
type Kind int

const (
	StartedIdea Kind = iota + 1
	NearCompleteUnit
	NearCompleteIdea
	Feedback
	NarrativeFeedback
	InactiveNotStarted
	InactiveStarted
)

var kindNames = map[Kind]string{
	StartedIdea:        "started_idea",
	NearCompleteUnit:   "near_complete_unit",
	NearCompleteIdea:   "near_complete_idea",
	Feedback:           "feedback",
	NarrativeFeedback:  "narrative_feedback",
	InactiveNotStarted: "inactive_not_started",
	InactiveStarted:    "inactive_started",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Milestone is a detected, notification-worthy threshold crossing and the email it calls for.
type Milestone struct {
	Kind       Kind                `json:"kind"`
	GroupingID taxonomy.GroupingID `json:"grouping_id,omitempty"` // progress milestones
	Count      int                 `json:"count,omitempty"`       // feedback milestones
	Subject    string              `json:"subject"`
	Paragraphs []string            `json:"-"`
	Location   string              `json:"location,omitempty"` // course page the email was triggered from
}
