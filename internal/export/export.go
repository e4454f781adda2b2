// Package export turns a workspace file tree into a downloadable bundle.
package export

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"

	"github.com/dimitrije/bolt-api/internal/models"
)

const (
	FormatZip  = "zip"
	FormatText = "text"

	defaultName   = "project"
	nameMaxLength = 30
)

// WriteZip writes one archive entry per leaf of tree and reports how many
// entries were written.
func WriteZip(w io.Writer, tree models.FileTree) (int, error) {
	zw := zip.NewWriter(w)

	count := 0
	err := tree.Walk(func(path string, node models.FileNode) error {
		if !node.IsLeaf() {
			return nil
		}
		entry, err := zw.Create(models.CleanPath(path))
		if err != nil {
			return fmt.Errorf("failed to create entry %s: %w", path, err)
		}
		if _, err := io.WriteString(entry, node.Code()); err != nil {
			return fmt.Errorf("failed to write entry %s: %w", path, err)
		}
		count++
		return nil
	})
	if err != nil {
		_ = zw.Close()
		return count, err
	}

	if err := zw.Close(); err != nil {
		return count, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return count, nil
}

// Text renders the tree as a listing followed by every file in a fenced block.
func Text(tree models.FileTree) string {
	var listing, files strings.Builder

	_ = tree.Walk(func(path string, node models.FileNode) error {
		if !node.IsLeaf() {
			listing.WriteString(path + "/\n")
			return nil
		}
		listing.WriteString(path + "\n")
		fmt.Fprintf(&files, "%s:\n```\n%s\n```\n\n", path, node.Code())
		return nil
	})

	return "Project Structure:\n\n" + listing.String() + "\n\nFiles:\n\n" + files.String()
}

// Filename derives a download name from the first message of the
// conversation.
func Filename(messages []models.Message, format string) string {
	name := defaultName
	if len(messages) > 0 && messages[0].Content != "" {
		name = sanitize(messages[0].Content)
	}

	if format == FormatText {
		return name + "_code.txt"
	}
	return name + ".zip"
}

func sanitize(s string) string {
	var b strings.Builder
	n := 0
	for _, r := range s {
		if n == nameMaxLength {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
		n++
	}
	return b.String()
}

// ContentType returns the MIME type served for a format.
func ContentType(format string) string {
	if format == FormatText {
		return "text/plain; charset=utf-8"
	}
	return "application/zip"
}

// ParseFormat accepts "zip" (the default when empty) or "text".
func ParseFormat(s string) (string, error) {
	switch s {
	case "", FormatZip:
		return FormatZip, nil
	case FormatText, "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}
