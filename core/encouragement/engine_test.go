package encouragement

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/nudge/core/taxonomy"
)

type milestoneKey struct {
	Kind       Kind
	GroupingID taxonomy.GroupingID
}

func keys(ms []Milestone) []milestoneKey {
	var res []milestoneKey
	for _, m := range ms {
		res = append(res, milestoneKey{m.Kind, m.GroupingID})
	}
	return res
}

func TestEngine_Evaluate(t *testing.T) {
	tests := []struct {
		name      string
		completed []taxonomy.LessonID
		notified  map[Kind][]taxonomy.GroupingID
		lesson    taxonomy.LessonID
		want      []milestoneKey
	}{
		{
			name:      "first lesson",
			completed: []taxonomy.LessonID{1},
			lesson:    1,
		},
		{
			name:      "second lesson of idea",
			completed: []taxonomy.LessonID{1, 2},
			lesson:    2,
			want:      []milestoneKey{{StartedIdea, "counting"}},
		},
		{
			name:      "second lesson of idea across units",
			completed: []taxonomy.LessonID{1, 5},
			lesson:    5,
			want:      []milestoneKey{{StartedIdea, "counting"}},
		},
		{
			name:      "started already notified",
			completed: []taxonomy.LessonID{1, 2},
			notified:  map[Kind][]taxonomy.GroupingID{StartedIdea: {"counting"}},
			lesson:    2,
		},
		{
			name:      "count skipped over started threshold",
			completed: []taxonomy.LessonID{1, 2, 3},
			lesson:    3,
			want:      []milestoneKey{{NearCompleteUnit, "ones"}},
		},
		{
			name:      "one lesson left in another unit",
			completed: []taxonomy.LessonID{1, 2, 3, 5},
			lesson:    5,
		},
		{
			name:      "three lessons left in idea and one in unit",
			completed: []taxonomy.LessonID{1, 2, 3, 5, 6},
			lesson:    3,
			want:      []milestoneKey{{NearCompleteUnit, "ones"}, {NearCompleteIdea, "counting"}},
		},
		{
			name:      "three lessons left in idea",
			completed: []taxonomy.LessonID{1, 2, 5, 6, 7},
			lesson:    7,
			want:      []milestoneKey{{NearCompleteUnit, "tens"}, {NearCompleteIdea, "counting"}},
		},
		{
			name:      "unit complete",
			completed: []taxonomy.LessonID{1, 2, 3, 4},
			lesson:    4,
		},
		{
			name:      "unit outside any idea",
			completed: []taxonomy.LessonID{11},
			lesson:    11,
			want:      []milestoneKey{{NearCompleteUnit, "loose"}},
		},
		{
			name:      "lesson outside any grouping",
			completed: []taxonomy.LessonID{9},
			lesson:    9,
		},
		{
			name:   "unknown lesson",
			lesson: 9999,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(testIndex(t), newFakeProgress(tt.completed...), DefaultThresholds(), DefaultContent())
			rec := NewRecord("ada", testNow)
			for kind, ids := range tt.notified {
				for _, id := range ids {
					rec.notified(kind)[id] = struct{}{}
				}
			}

			got, err := e.Evaluate(context.Background(), "ada", tt.lesson, rec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, keys(got))
			for _, k := range tt.want {
				assert.True(t, rec.notified(k.Kind).Has(k.GroupingID), "%s not marked as notified", k.Kind)
			}
		})
	}
}

func TestEngine_Evaluate_viewSequence(t *testing.T) {
	progress := newFakeProgress()
	e := NewEngine(testIndex(t), progress, DefaultThresholds(), DefaultContent())
	rec := NewRecord("ada", testNow)

	// idea completion after each view: 1, 2, 2, 3
	views := []struct {
		complete taxonomy.LessonID
		lesson   taxonomy.LessonID
	}{{1, 1}, {2, 2}, {0, 2}, {5, 5}}

	var started int
	for _, v := range views {
		if v.complete != 0 {
			progress.complete(v.complete)
		}
		ms, err := e.Evaluate(context.Background(), "ada", v.lesson, rec)
		require.NoError(t, err)
		for _, m := range ms {
			if m.Kind == StartedIdea {
				started++
			}
		}
	}
	assert.Equal(t, 1, started)
	assert.Equal(t, []taxonomy.GroupingID{"counting"}, rec.StartedNotified.Sorted())
}

func TestEngine_Evaluate_content(t *testing.T) {
	e := NewEngine(testIndex(t), newFakeProgress(1, 2, 3), DefaultThresholds(), DefaultContent())

	ms, err := e.Evaluate(context.Background(), "ada", 3, NewRecord("ada", testNow))
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "A message about your progress in Citizen Maths", ms[0].Subject)
	require.Len(t, ms[0].Paragraphs, 1)
	assert.Contains(t, ms[0].Paragraphs[0], "one more lesson to go in Unit 1 - Ones")
}

func TestEngine_Evaluate_queriesEachGroupingOnce(t *testing.T) {
	progress := newFakeProgress(1)
	e := NewEngine(testIndex(t), progress, DefaultThresholds(), DefaultContent())

	_, err := e.Evaluate(context.Background(), "ada", 1, NewRecord("ada", testNow))
	require.NoError(t, err)
	assert.Equal(t, 2, progress.calls, "LessonCompletion calls")
}

func TestEngine_Evaluate_progressError(t *testing.T) {
	progress := newFakeProgress()
	progress.err = errors.New("connection refused")
	e := NewEngine(testIndex(t), progress, DefaultThresholds(), DefaultContent())
	rec := NewRecord("ada", testNow)

	ms, err := e.Evaluate(context.Background(), "ada", 1, rec)
	require.Error(t, err)
	assert.Nil(t, ms)
	assert.True(t, strings.Contains(err.Error(), "querying completion of counting"), err.Error())
	assert.Empty(t, rec.StartedNotified)
}

func TestNewEngine_panicsWithoutProgress(t *testing.T) {
	assert.Panics(t, func() { NewEngine(testIndex(t), nil, DefaultThresholds(), DefaultContent()) })
}
