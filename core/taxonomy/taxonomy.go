// Package taxonomy maps course lessons to the units and powerful ideas they belong to.
//
// An Index is built once at startup and never mutated; callers share it by pointer.
package taxonomy

import (
	"sort"
)

type (
	LessonID   int
	GroupingID string
)

// Unit is a sequential grouping of lessons forming one curriculum module.
type Unit struct {
	ID         GroupingID `yaml:"id"`
	CourseUnit int        `yaml:"courseUnit"` // unit id used in course page URLs
	Name       string     `yaml:"name"`
	Number     string     `yaml:"number"`
	// Lessons are the main lessons milestones are computed on.
	Lessons []LessonID `yaml:"lessons"`
	// ActiveLessons add the intro and outro lessons to Lessons.
	ActiveLessons []LessonID `yaml:"activeLessons"`
	// IntroLesson, when set, is the lesson a page view of lesson 0 stands for.
	IntroLesson LessonID `yaml:"introLesson"`
}

// Title is how the unit is named in emails, eg. "Unit 5 - Trading off".
func (u Unit) Title() string {
	return u.Number + " - " + u.Name
}

// Idea is a cross-unit thematic grouping of lessons (a "powerful idea").
type Idea struct {
	ID    GroupingID   `yaml:"id"`
	Name  string       `yaml:"name"`
	Units []GroupingID `yaml:"units"`
}

// Groupings are the groupings a lesson belongs to. Idea is empty for lessons outside any powerful idea.
type Groupings struct {
	Unit GroupingID
	Idea GroupingID
}

type Index struct {
	Course                string
	CulminatingAssessment int

	units   []Unit
	ideas   []Idea
	unitsBy map[GroupingID]*Unit
	ideasBy map[GroupingID]*Idea
	// courseUnits indexes units by their course page id
	courseUnits map[int]*Unit
	lessons     map[LessonID]Groupings
	members     map[GroupingID][]LessonID
	active      []LessonID
}

// GroupingsFor returns the groupings of lesson. ok is false for unknown lessons.
func (idx *Index) GroupingsFor(lesson LessonID) (g Groupings, ok bool) {
	g, ok = idx.lessons[lesson]
	return
}

// MembersOf returns the main lessons of a unit or idea, nil for unknown groupings.
func (idx *Index) MembersOf(id GroupingID) []LessonID {
	members := idx.members[id]
	if members == nil {
		return nil
	}
	return append([]LessonID(nil), members...)
}

func (idx *Index) Unit(id GroupingID) (Unit, bool) {
	u, ok := idx.unitsBy[id]
	if !ok {
		return Unit{}, false
	}
	return *u, true
}

func (idx *Index) Idea(id GroupingID) (Idea, bool) {
	i, ok := idx.ideasBy[id]
	if !ok {
		return Idea{}, false
	}
	return *i, true
}

func (idx *Index) Units() []Unit { return append([]Unit(nil), idx.units...) }
func (idx *Index) Ideas() []Idea { return append([]Idea(nil), idx.ideas...) }

// ActiveLessons returns every active lesson of the course, sorted.
func (idx *Index) ActiveLessons() []LessonID {
	return append([]LessonID(nil), idx.active...)
}

// ResolveLesson maps a course page (unit, lesson) pair to the lesson it shows.
// Lesson 0 of a unit with an intro lesson stands for that intro lesson; any other
// non-positive id resolves to nothing.
func (idx *Index) ResolveLesson(courseUnit, lesson int) (LessonID, bool) {
	if courseUnit <= 0 {
		return 0, false
	}
	if lesson == 0 {
		if u, ok := idx.courseUnits[courseUnit]; ok && u.IntroLesson > 0 {
			return u.IntroLesson, true
		}
	}
	if lesson <= 0 {
		return 0, false
	}
	return LessonID(lesson), true
}

// New builds an Index from units and ideas, checking that:
//   - grouping ids are unique across units and ideas,
//   - every main lesson belongs to exactly one unit and is active,
//   - every unit belongs to at most one known idea.
func New(course string, culminatingAssessment int, units []Unit, ideas []Idea) (*Index, error) {
	idx := &Index{
		Course:                course,
		CulminatingAssessment: culminatingAssessment,
		units:                 make([]Unit, len(units)),
		ideas:                 make([]Idea, len(ideas)),
		unitsBy:               make(map[GroupingID]*Unit, len(units)),
		ideasBy:               make(map[GroupingID]*Idea, len(ideas)),
		courseUnits:           make(map[int]*Unit, len(units)),
		lessons:               make(map[LessonID]Groupings),
		members:               make(map[GroupingID][]LessonID, len(units)+len(ideas)),
	}
	copy(idx.units, units)
	copy(idx.ideas, ideas)

	activeSet := make(map[LessonID]struct{})
	for i := range idx.units {
		u := &idx.units[i]
		if u.ID == "" {
			return nil, newError("unit #%d has no id", i+1)
		}
		if _, dup := idx.unitsBy[u.ID]; dup {
			return nil, newError("duplicate grouping id %q", u.ID)
		}
		if u.CourseUnit > 0 {
			if other, dup := idx.courseUnits[u.CourseUnit]; dup {
				return nil, newError("units %q and %q share course unit %d", other.ID, u.ID, u.CourseUnit)
			}
			idx.courseUnits[u.CourseUnit] = u
		}
		idx.unitsBy[u.ID] = u

		active := make(map[LessonID]struct{}, len(u.ActiveLessons))
		for _, l := range u.ActiveLessons {
			active[l] = struct{}{}
			activeSet[l] = struct{}{}
		}
		for _, l := range u.Lessons {
			if l <= 0 {
				return nil, newError("unit %q: invalid lesson %d", u.ID, l)
			}
			if g, dup := idx.lessons[l]; dup {
				return nil, newError("lesson %d belongs to units %q and %q", l, g.Unit, u.ID)
			}
			if _, ok := active[l]; !ok {
				return nil, newError("unit %q: lesson %d is not an active lesson", u.ID, l)
			}
			idx.lessons[l] = Groupings{Unit: u.ID}
		}
		idx.members[u.ID] = append([]LessonID(nil), u.Lessons...)
	}

	ideaOf := make(map[GroupingID]GroupingID)
	for i := range idx.ideas {
		idea := &idx.ideas[i]
		if idea.ID == "" {
			return nil, newError("idea #%d has no id", i+1)
		}
		if _, dup := idx.unitsBy[idea.ID]; dup {
			return nil, newError("duplicate grouping id %q", idea.ID)
		}
		if _, dup := idx.ideasBy[idea.ID]; dup {
			return nil, newError("duplicate grouping id %q", idea.ID)
		}
		idx.ideasBy[idea.ID] = idea

		var members []LessonID
		for _, uid := range idea.Units {
			u, ok := idx.unitsBy[uid]
			if !ok {
				return nil, newError("idea %q: unknown unit %q", idea.ID, uid)
			}
			if other, dup := ideaOf[uid]; dup {
				return nil, newError("unit %q belongs to ideas %q and %q", uid, other, idea.ID)
			}
			ideaOf[uid] = idea.ID
			for _, l := range u.Lessons {
				g := idx.lessons[l]
				g.Idea = idea.ID
				idx.lessons[l] = g
			}
			members = append(members, u.Lessons...)
		}
		idx.members[idea.ID] = members
	}

	idx.active = make([]LessonID, 0, len(activeSet))
	for l := range activeSet {
		idx.active = append(idx.active, l)
	}
	sort.Slice(idx.active, func(i, j int) bool { return idx.active[i] < idx.active[j] })
	return idx, nil
}
