// Package prompt assembles the text sent to the completion gateway from a
// workspace conversation.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dimitrije/bolt-api/internal/models"
)

const chatTemplate = `You are an AI assistant with experience in React development.
GUIDELINES:
- Tell the user what you are building.
- Keep the response short, under 15 lines.
- Skip code examples and commentary.`

const codeTemplate = `Generate a programming code structure for a React project using Vite.
Create multiple components, organizing them in separate folders with .js file names.
Use Tailwind CSS for styling and lucide-react icons where they fit.
Return the response in JSON format with the following schema:
{
  "projectTitle": "",
  "explanation": "",
  "files": {
    "/App.js": {
      "code": ""
    }
  },
  "generatedFiles": []
}
- "files" maps every file path to an object holding its full source in "code".
- "generatedFiles" lists every file path present in "files".
- "explanation" describes the project structure, the purpose of each file and the overall flow in one paragraph.
- Use placeholder images from https://archive.org/download/placeholder-image/placeholder-image.jpg when needed.
- Do not add extra packages beyond react, lucide-react and tailwind.`

// Template returns the fixed instruction text for a purpose.
func Template(purpose models.Purpose) string {
	if purpose == models.PurposeCode {
		return codeTemplate
	}
	return chatTemplate
}

// Build serializes the conversation and appends the instruction template,
// separated by a single space.
func Build(messages []models.Message, purpose models.Purpose) (string, error) {
	if messages == nil {
		messages = []models.Message{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(messages); err != nil {
		return "", fmt.Errorf("failed to serialize conversation: %w", err)
	}

	return string(bytes.TrimRight(buf.Bytes(), "\n")) + " " + Template(purpose), nil
}

// Window keeps the newest n messages. n <= 0 keeps the whole conversation.
func Window(messages []models.Message, n int) []models.Message {
	if n <= 0 || len(messages) <= n {
		return messages
	}
	return messages[len(messages)-n:]
}
