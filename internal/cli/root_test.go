package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"data_dir": "`+tmpDir+`"}`), 0644))
	return configPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := GetRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestCommandTree(t *testing.T) {
	root := GetRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["data"])
}

func TestDataCommands(t *testing.T) {
	t.Run("load prints {} when no file exists", func(t *testing.T) {
		cfgFile = writeTestConfig(t)
		defer func() { cfgFile = "" }()

		out, err := execute(t, "data", "load")
		require.NoError(t, err)
		assert.Equal(t, "{}\n", out)
	})

	t.Run("save then load round trips verbatim", func(t *testing.T) {
		cfgFile = writeTestConfig(t)
		defer func() { cfgFile = "" }()

		docPath := filepath.Join(t.TempDir(), "doc.json")
		require.NoError(t, os.WriteFile(docPath, []byte(`{"sessions":[],"settings":{"weeklyHoursTarget":40,"userName":"User"}}`), 0644))

		_, err := execute(t, "data", "save", "--file", docPath)
		require.NoError(t, err)
		saveFile = ""

		out, err := execute(t, "data", "load")
		require.NoError(t, err)
		assert.Contains(t, out, `"userName"`)
	})

	t.Run("reset deletes the backing file", func(t *testing.T) {
		cfgFile = writeTestConfig(t)
		defer func() { cfgFile = "" }()

		dataPath := filepath.Join(filepath.Dir(cfgFile), "data.json")
		require.NoError(t, os.WriteFile(dataPath, []byte("{}"), 0644))

		_, err := execute(t, "data", "reset")
		require.NoError(t, err)

		_, statErr := os.Stat(dataPath)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("validate reports problems", func(t *testing.T) {
		cfgFile = writeTestConfig(t)
		defer func() { cfgFile = "" }()

		docPath := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(docPath, []byte(`{"sessions": []}`), 0644))

		out, err := execute(t, "data", "validate", docPath)
		assert.Error(t, err)
		assert.NotEmpty(t, out)
	})
}
