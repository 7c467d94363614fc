package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders an assistant answer's markdown
// for the terminal using glamour.
func NewRenderer(width int) func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		// Fall back to passing the raw markdown through.
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
