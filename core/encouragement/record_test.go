package encouragement

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_JSON(t *testing.T) {
	rec := NewRecord("ada", testNow)
	rec.StartedNotified = NewGroupingSet("proportion", "measurement")

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"started_notified":["measurement","proportion"]`)
	assert.Contains(t, string(data), `"near_complete_unit_notified":[]`)

	var got Record
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, rec.StartedNotified, got.StartedNotified)
	assert.NotNil(t, got.NearCompleteIdeaNotified)
}

func TestRecord_Clone(t *testing.T) {
	rec := NewRecord("ada", testNow)
	rec.NearCompleteUnitNotified["mixing"] = struct{}{}

	c := rec.Clone()
	c.NearCompleteUnitNotified["scaling"] = struct{}{}
	c.FeedbackCount++

	assert.False(t, rec.NearCompleteUnitNotified.Has("scaling"))
	assert.Zero(t, rec.FeedbackCount)
	assert.Equal(t, rec.ID, c.ID)
}
