package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronoglass/chronod/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "data.json"), zerolog.Nop())
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields default document", func(t *testing.T) {
		st := newTestStore(t)
		doc := st.Load()
		assert.Empty(t, doc.Sessions)
		assert.Equal(t, model.DefaultSettings(), doc.Settings)
	})

	t.Run("corrupt file yields default document", func(t *testing.T) {
		st := newTestStore(t)
		require.NoError(t, os.MkdirAll(filepath.Dir(st.Path()), 0755))
		require.NoError(t, os.WriteFile(st.Path(), []byte("{not json"), 0644))

		doc := st.Load()
		assert.Empty(t, doc.Sessions)
		assert.Equal(t, model.DefaultSettings(), doc.Settings)
	})

	t.Run("null sessions normalize to empty slice", func(t *testing.T) {
		st := newTestStore(t)
		require.NoError(t, os.MkdirAll(filepath.Dir(st.Path()), 0755))
		require.NoError(t, os.WriteFile(st.Path(), []byte(`{"settings":{"weeklyHoursTarget":35,"userName":"Ann"}}`), 0644))

		doc := st.Load()
		assert.NotNil(t, doc.Sessions)
		assert.Equal(t, 35, doc.Settings.WeeklyHoursTarget)
	})
}

func TestSave(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		st := newTestStore(t)
		end := int64(2000)
		doc := model.AppData{
			Sessions: []model.WorkSession{
				{
					ID:        "s1",
					StartTime: 1000,
					EndTime:   &end,
					Date:      "2024-06-01",
					SubActivities: []model.SubActivity{
						{ID: "a1", Title: "review", StartTime: 1000, EndTime: &end},
					},
					Note: "quarterly report",
				},
			},
			Settings: model.AppSettings{WeeklyHoursTarget: 32, UserName: "Ann"},
		}

		require.NoError(t, st.Save(doc))
		assert.Equal(t, doc, st.Load())
	})

	t.Run("creates missing parent directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "data.json")
		st := New(path, zerolog.Nop())

		require.NoError(t, st.Save(model.DefaultAppData()))
		_, err := os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("output is pretty-printed and leaves no temp files", func(t *testing.T) {
		st := newTestStore(t)
		require.NoError(t, st.Save(model.DefaultAppData()))

		data, err := os.ReadFile(st.Path())
		require.NoError(t, err)
		assert.Contains(t, string(data), "\n  ")

		entries, err := os.ReadDir(filepath.Dir(st.Path()))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("open session serializes endTime as null", func(t *testing.T) {
		st := newTestStore(t)
		doc := model.DefaultAppData()
		doc.Sessions = append(doc.Sessions, model.WorkSession{
			ID: "s1", StartTime: 1, Date: "2024-06-01",
			SubActivities: []model.SubActivity{},
		})
		require.NoError(t, st.Save(doc))

		data, err := os.ReadFile(st.Path())
		require.NoError(t, err)
		var raw map[string]any
		require.NoError(t, json.Unmarshal(data, &raw))
		session := raw["sessions"].([]any)[0].(map[string]any)
		v, present := session["endTime"]
		assert.True(t, present)
		assert.Nil(t, v)
	})
}

func TestRawOps(t *testing.T) {
	t.Run("load raw returns {} when absent", func(t *testing.T) {
		st := newTestStore(t)
		content, err := st.LoadRaw()
		require.NoError(t, err)
		assert.Equal(t, "{}", content)
	})

	t.Run("save raw is verbatim", func(t *testing.T) {
		st := newTestStore(t)
		require.NoError(t, st.SaveRaw("not even json"))

		content, err := st.LoadRaw()
		require.NoError(t, err)
		assert.Equal(t, "not even json", content)
	})

	t.Run("reset removes the file and is idempotent", func(t *testing.T) {
		st := newTestStore(t)
		require.NoError(t, st.SaveRaw("{}"))
		require.NoError(t, st.Reset())

		_, err := os.Stat(st.Path())
		assert.True(t, os.IsNotExist(err))

		assert.NoError(t, st.Reset())
	})
}
