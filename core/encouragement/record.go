package encouragement

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/nudge/core/taxonomy"
)

// GroupingSet is a set of unit or idea ids.
type GroupingSet map[taxonomy.GroupingID]struct{}

func NewGroupingSet(ids ...taxonomy.GroupingID) GroupingSet {
	s := make(GroupingSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s GroupingSet) Has(id taxonomy.GroupingID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids of the set in ascending order.
func (s GroupingSet) Sorted() []taxonomy.GroupingID {
	ids := make([]taxonomy.GroupingID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MarshalJSON encodes the set as a sorted array.
func (s GroupingSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *GroupingSet) UnmarshalJSON(data []byte) error {
	var ids []taxonomy.GroupingID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewGroupingSet(ids...)
	return nil
}

func (s GroupingSet) clone() GroupingSet {
	c := make(GroupingSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Record is the per-student encouragement state. There is one record per student.
type Record struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`

	// groupings a milestone email was already emitted for
	StartedNotified          GroupingSet `json:"started_notified"`
	NearCompleteUnitNotified GroupingSet `json:"near_complete_unit_notified"`
	NearCompleteIdeaNotified GroupingSet `json:"near_complete_idea_notified"`

	FeedbackCount              int `json:"feedback_count"`
	FeedbackWithNarrativeCount int `json:"feedback_with_narrative_count"`

	EmailsSentThisWindow int       `json:"emails_sent_this_window"`
	WindowStart          time.Time `json:"window_start"` // zero: no window

	InactiveNotStartedSent bool `json:"inactive_not_started_sent"`
	InactiveStartedSent    bool `json:"inactive_started_sent"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewRecord returns an empty record for studentID: zero counters, empty sets, no window.
func NewRecord(studentID string, now time.Time) *Record {
	now = now.UTC()
	return &Record{
		ID:                       uuid.NewString(),
		StudentID:                studentID,
		StartedNotified:          make(GroupingSet),
		NearCompleteUnitNotified: make(GroupingSet),
		NearCompleteIdeaNotified: make(GroupingSet),
		CreatedAt:                now,
		UpdatedAt:                now,
	}
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	c := *r
	c.StartedNotified = r.StartedNotified.clone()
	c.NearCompleteUnitNotified = r.NearCompleteUnitNotified.clone()
	c.NearCompleteIdeaNotified = r.NearCompleteIdeaNotified.clone()
	return &c
}

// notified returns the set a milestone kind is deduplicated against, nil for kinds without one.
func (r *Record) notified(kind Kind) GroupingSet {
	switch kind {
	case StartedIdea:
		if r.StartedNotified == nil {
			r.StartedNotified = make(GroupingSet)
		}
		return r.StartedNotified
	case NearCompleteUnit:
		if r.NearCompleteUnitNotified == nil {
			r.NearCompleteUnitNotified = make(GroupingSet)
		}
		return r.NearCompleteUnitNotified
	case NearCompleteIdea:
		if r.NearCompleteIdeaNotified == nil {
			r.NearCompleteIdeaNotified = make(GroupingSet)
		}
		return r.NearCompleteIdeaNotified
	}
	return nil
}
