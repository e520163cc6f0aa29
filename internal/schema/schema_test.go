package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorCheck(t *testing.T) {
	v := NewValidator()

	t.Run("well-formed document has no problems", func(t *testing.T) {
		doc := `{
			"sessions": [
				{
					"id": "s1",
					"startTime": 1717200000000,
					"endTime": null,
					"date": "2024-06-01",
					"subActivities": [
						{"id": "a1", "title": "focus", "startTime": 1717200000000, "endTime": null}
					]
				}
			],
			"settings": {"weeklyHoursTarget": 40, "userName": "User"}
		}`
		problems, err := v.Check(doc)
		require.NoError(t, err)
		assert.Empty(t, problems)
	})

	t.Run("missing settings is reported", func(t *testing.T) {
		problems, err := v.Check(`{"sessions": []}`)
		require.NoError(t, err)
		assert.NotEmpty(t, problems)
	})

	t.Run("malformed date is reported", func(t *testing.T) {
		doc := `{
			"sessions": [{"id": "s1", "startTime": 1, "date": "2024-06-1", "subActivities": []}],
			"settings": {"weeklyHoursTarget": 40, "userName": "User"}
		}`
		problems, err := v.Check(doc)
		require.NoError(t, err)
		assert.NotEmpty(t, problems)
	})

	t.Run("invalid JSON is an error", func(t *testing.T) {
		_, err := v.Check("{nope")
		assert.Error(t, err)
	})
}
