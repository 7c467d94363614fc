package domain

import (
	"fmt"
	"strings"
)

// FieldNotAvailable is the literal rendered for any hit field the index did
// not return. Downstream prompting relies on stable field presence, so
// missing fields are marked rather than omitted.
const FieldNotAvailable = "N/A"

// Division is one level of the legal-citation hierarchy inside a hit
// (title, chapter, section or article). The top "title" level labels its
// heading Text; the deeper levels label it Title. Both are carried so a hit
// decodes regardless of level.
type Division struct {
	Number string `json:"number,omitempty" mapstructure:"number"`
	Text   string `json:"text,omitempty" mapstructure:"text"`
	Title  string `json:"title,omitempty" mapstructure:"title"`
}

func (d *Division) number() string {
	if d == nil {
		return ""
	}
	return d.Number
}

func (d *Division) heading() string {
	if d == nil {
		return ""
	}
	if d.Text != "" {
		return d.Text
	}
	return d.Title
}

// Hit is one retrieval result with its citation hierarchy and text excerpt.
type Hit struct {
	LawTitle string    `json:"law_title,omitempty" mapstructure:"law_title"`
	Type     string    `json:"type,omitempty" mapstructure:"type"`
	Title    *Division `json:"title,omitempty" mapstructure:"title"`
	Chapter  *Division `json:"chapter,omitempty" mapstructure:"chapter"`
	Section  *Division `json:"section,omitempty" mapstructure:"section"`
	Article  *Division `json:"article,omitempty" mapstructure:"article"`
	Text     string    `json:"text,omitempty" mapstructure:"text"`
}

func orNA(s string) string {
	if s == "" {
		return FieldNotAvailable
	}
	return s
}

// FormatEvidence renders hits as the numbered evidence block injected back
// into the reasoning runtime. The flat field ordering (law title, type, then
// title/chapter/section/article pairs, then content) is a contract: the
// runtime's instructions extract citations from exactly this shape.
func FormatEvidence(hits []Hit) string {
	entries := make([]string, 0, len(hits))
	for i, hit := range hits {
		entries = append(entries, fmt.Sprintf(
			"%d. law_title: %s, type: %s, title_number: %s, title_text: %s, "+
				"chapter_number: %s, chapter_title: %s, section_number: %s, section_title: %s, "+
				"article_number: %s, article_title: %s, content: %s",
			i+1,
			orNA(hit.LawTitle),
			orNA(hit.Type),
			orNA(hit.Title.number()),
			orNA(hit.Title.heading()),
			orNA(hit.Chapter.number()),
			orNA(hit.Chapter.heading()),
			orNA(hit.Section.number()),
			orNA(hit.Section.heading()),
			orNA(hit.Article.number()),
			orNA(hit.Article.heading()),
			orNA(hit.Text),
		))
	}
	return strings.Join(entries, "\n\n")
}
