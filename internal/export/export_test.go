package export

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/dimitrije/bolt-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() models.FileTree {
	return models.FileTree{
		"/App.js": models.Leaf("export default function App() {}\n"),
		"/components": models.Directory(models.FileTree{
			"Button.js": models.Leaf("export const Button = () => null"),
			"icons": models.Directory(models.FileTree{
				"Star.js": models.Leaf("★"),
			}),
		}),
		"/styles.css": models.Leaf(""),
	}
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	entries := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		entries[f.Name] = string(body)
	}
	return entries
}

func TestWriteZip(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteZip(&buf, sampleTree())

	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, map[string]string{
		"App.js":                   "export default function App() {}\n",
		"components/Button.js":     "export const Button = () => null",
		"components/icons/Star.js": "★",
		"styles.css":               "",
	}, readZip(t, buf.Bytes()))
}

func TestWriteZip_EmptyTree(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteZip(&buf, models.FileTree{})

	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, readZip(t, buf.Bytes()))
}

func TestText(t *testing.T) {
	tree := models.FileTree{
		"/App.js": models.Leaf("app"),
		"/src":    models.Directory(models.FileTree{"index.js": models.Leaf("idx")}),
	}

	want := "Project Structure:\n\n" +
		"/App.js\n" +
		"/src/\n" +
		"/src/index.js\n" +
		"\n\nFiles:\n\n" +
		"/App.js:\n```\napp\n```\n\n" +
		"/src/index.js:\n```\nidx\n```\n\n"

	assert.Equal(t, want, Text(tree))
}

func TestText_EmptyTree(t *testing.T) {
	assert.Equal(t, "Project Structure:\n\n\n\nFiles:\n\n", Text(nil))
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name     string
		messages []models.Message
		format   string
		want     string
	}{
		{"no messages zip", nil, FormatZip, "project.zip"},
		{"no messages text", nil, FormatText, "project_code.txt"},
		{"sanitized", []models.Message{{Role: "user", Content: "Build a todo-app!"}}, FormatZip, "Build_a_todo_app_.zip"},
		{
			"truncated",
			[]models.Message{{Role: "user", Content: strings.Repeat("a", 40)}},
			FormatText,
			strings.Repeat("a", 30) + "_code.txt",
		},
		{"first message only", []models.Message{{Content: "one"}, {Content: "two"}}, FormatZip, "one.zip"},
		{"non ascii", []models.Message{{Content: "café"}}, FormatZip, "caf_.zip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.messages, tt.format))
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatZip, f)

	f, err = ParseFormat("text")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("tar")
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/zip", ContentType(FormatZip))
	assert.Equal(t, "text/plain; charset=utf-8", ContentType(FormatText))
}
