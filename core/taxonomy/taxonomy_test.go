package taxonomy

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	idx, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "Citizen Maths", idx.Course)
	assert.Equal(t, 176, idx.CulminatingAssessment)
	assert.Len(t, idx.Units(), 18)
	assert.Len(t, idx.Ideas(), 5)
	assert.Len(t, idx.ActiveLessons(), 106)
	assert.Len(t, idx.MembersOf("proportion"), 28)
	assert.Len(t, idx.MembersOf("measurement"), 15)
	assert.Equal(t, []LessonID{28, 29, 30, 31}, idx.MembersOf("mixing"))

	u, ok := idx.Unit("trading-off")
	require.True(t, ok)
	assert.Equal(t, "Unit 5 - Trading off", u.Title())
}

func TestIndex_GroupingsFor(t *testing.T) {
	idx, err := Default()
	require.NoError(t, err)

	tests := []struct {
		name   string
		lesson LessonID
		want   Groupings
		wantOk bool
	}{
		{name: "proportion lesson", lesson: 28, want: Groupings{Unit: "mixing", Idea: "proportion"}, wantOk: true},
		{name: "measurement lesson", lesson: 169, want: Groupings{Unit: "quantifying", Idea: "measurement"}, wantOk: true},
		{name: "intro lesson", lesson: 27},
		{name: "culminating assessment", lesson: 176},
		{name: "unknown", lesson: 9999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := idx.GroupingsFor(tt.lesson)
			if ok != tt.wantOk || got != tt.want {
				t.Errorf("GroupingsFor(%d) = %v, %v; want %v, %v", tt.lesson, got, ok, tt.want, tt.wantOk)
			}
		})
	}
}

func TestIndex_ResolveLesson(t *testing.T) {
	idx, err := Default()
	require.NoError(t, err)

	tests := []struct {
		name       string
		courseUnit int
		lesson     int
		want       LessonID
		wantOk     bool
	}{
		{name: "plain", courseUnit: 22, lesson: 28, want: 28, wantOk: true},
		{name: "intro alias", courseUnit: 50, lesson: 0, want: 52, wantOk: true},
		{name: "lesson 0 without intro", courseUnit: 22, lesson: 0},
		{name: "no unit", courseUnit: 0, lesson: 28},
		{name: "negative lesson", courseUnit: 22, lesson: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := idx.ResolveLesson(tt.courseUnit, tt.lesson)
			if ok != tt.wantOk || got != tt.want {
				t.Errorf("ResolveLesson(%d, %d) = %d, %v; want %d, %v", tt.courseUnit, tt.lesson, got, ok, tt.want, tt.wantOk)
			}
		})
	}
}

func TestIndex_MembersOfReturnsCopy(t *testing.T) {
	idx, err := Default()
	require.NoError(t, err)

	m := idx.MembersOf("mixing")
	m[0] = 1000
	assert.Equal(t, LessonID(28), idx.MembersOf("mixing")[0])
	assert.Nil(t, idx.MembersOf("nope"))
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "valid",
			yaml: `
course: C
units:
  - {id: u1, courseUnit: 1, lessons: [1, 2], activeLessons: [1, 2, 3]}
  - {id: u2, courseUnit: 4, lessons: [5], activeLessons: [5]}
ideas:
  - {id: i1, units: [u1]}
`,
		},
		{
			name:    "duplicate grouping",
			yaml:    "units:\n  - {id: u1, lessons: [1], activeLessons: [1]}\nideas:\n  - {id: u1, units: []}\n",
			wantErr: `duplicate grouping id "u1"`,
		},
		{
			name:    "lesson in two units",
			yaml:    "units:\n  - {id: u1, lessons: [1], activeLessons: [1]}\n  - {id: u2, lessons: [1], activeLessons: [1]}\n",
			wantErr: "lesson 1 belongs to units",
		},
		{
			name:    "unit in two ideas",
			yaml:    "units:\n  - {id: u1, lessons: [1], activeLessons: [1]}\nideas:\n  - {id: i1, units: [u1]}\n  - {id: i2, units: [u1]}\n",
			wantErr: `unit "u1" belongs to ideas`,
		},
		{
			name:    "unknown unit",
			yaml:    "ideas:\n  - {id: i1, units: [u9]}\n",
			wantErr: `unknown unit "u9"`,
		},
		{
			name:    "inactive main lesson",
			yaml:    "units:\n  - {id: u1, lessons: [1, 2], activeLessons: [1]}\n",
			wantErr: "lesson 2 is not an active lesson",
		},
		{
			name:    "unknown field",
			yaml:    "units:\n  - {id: u1, lesson: [1]}\n",
			wantErr: "decoding taxonomy",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := Load(strings.NewReader(tt.yaml))
			if tt.wantErr == "" {
				require.NoError(t, err)
				g, ok := idx.GroupingsFor(2)
				assert.True(t, ok)
				assert.Equal(t, Groupings{Unit: "u1", Idea: "i1"}, g)
				g, ok = idx.GroupingsFor(5)
				assert.True(t, ok)
				assert.Equal(t, Groupings{Unit: "u2"}, g)
				assert.Equal(t, []LessonID{1, 2, 3, 5}, idx.ActiveLessons())
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_invariantErrorType(t *testing.T) {
	_, err := Load(strings.NewReader("ideas:\n  - {id: i1, units: [u9]}\n"))
	var terr *Error
	assert.True(t, errors.As(err, &terr))
}
