package models

import "fmt"

// Purpose selects the chat or the code-generation flavour of a completion.
type Purpose string

const (
	PurposeChat Purpose = "chat"
	PurposeCode Purpose = "code"
)

func ParsePurpose(s string) (Purpose, error) {
	switch Purpose(s) {
	case "", PurposeChat:
		return PurposeChat, nil
	case PurposeCode:
		return PurposeCode, nil
	}
	return "", fmt.Errorf("unknown purpose %q", s)
}
