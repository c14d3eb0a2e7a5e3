package remote

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseFromPage(t *testing.T) {
	raw := `{
		"id": "11111111-1111-1111-1111-111111111111",
		"properties": {
			"授業名": {"title": [{"plain_text": "Algo"}, {"plain_text": "rithms"}]},
			"セメスター": {"multi_select": [{"name": "2026-spring"}, {"name": "2026-summer"}]},
			"曜日": {"select": {"name": "Mon"}},
			"時限": {"select": {"name": "3"}},
			"教室": {"rich_text": [{"plain_text": "Room 101"}]},
			"is_archived": {"checkbox": false},
			"updated_at": {"last_edited_time": "2026-01-01T00:00:00.000Z"}
		}
	}`

	var p pageDTO
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	c := courseFromPage(p)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", c.ID)
	assert.Equal(t, "Algorithms", c.Title)
	assert.Equal(t, "2026-spring, 2026-summer", c.Semester)
	assert.Equal(t, "Mon", c.DayOfWeek)
	assert.Equal(t, 3, c.Period)
	require.NotNil(t, c.Room)
	assert.Equal(t, "Room 101", *c.Room)
	assert.Nil(t, c.Instructor)
	assert.False(t, c.IsArchived)
	assert.Equal(t, "2026-01-01T00:00:00.000Z", c.UpdatedAt)
}

func TestTodoFromPageResolvesRelation(t *testing.T) {
	raw := `{
		"id": "22222222-2222-2222-2222-222222222222",
		"properties": {
			"課題名": {"title": [{"plain_text": "Problem set 1"}]},
			"締め切り": {"date": {"start": "2026-08-15T00:00:00.000Z"}},
			"進捗": {"status": {"name": "未着手"}},
			"授業": {"relation": [{"id": "11111111-1111-1111-1111-111111111111"}]},
			"is_archived": {"checkbox": false},
			"updated_at": {"last_edited_time": "2026-01-02T00:00:00.000Z"}
		}
	}`

	var p pageDTO
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	td := todoFromPage(p)
	assert.Equal(t, "Problem set 1", td.Title)
	assert.Equal(t, "2026-08-15", td.DueDate)
	assert.EqualValues(t, "未着手", td.Status)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", td.CourseID)
}

func TestMultiSelectRoundTrip(t *testing.T) {
	joined := "2026-spring, 2026-summer"
	prop := multiSelectFromJoined(joined)
	require.Len(t, prop.MultiSelect, 2)
	assert.Equal(t, "2026-spring", prop.MultiSelect[0].Name)
	assert.Equal(t, "2026-summer", prop.MultiSelect[1].Name)
}
