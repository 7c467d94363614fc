package domain_test

import (
	"strings"
	"testing"

	"github.com/bufetemejia/counsel/pkg/domain"
)

func TestFormatEvidence_FullHit(t *testing.T) {
	hits := []domain.Hit{
		{
			LawTitle: "Ley de Marcas",
			Type:     "law",
			Title:    &domain.Division{Number: "II", Text: "De las Marcas"},
			Chapter:  &domain.Division{Number: "1", Title: "Registro"},
			Section:  &domain.Division{Number: "3", Title: "Procedimiento"},
			Article:  &domain.Division{Number: "12", Title: "Solicitud"},
			Text:     "La solicitud de registro de una marca...",
		},
	}

	got := domain.FormatEvidence(hits)

	for _, want := range []string{
		"1. law_title: Ley de Marcas",
		"type: law",
		"title_number: II",
		"title_text: De las Marcas",
		"chapter_number: 1",
		"chapter_title: Registro",
		"article_number: 12",
		"article_title: Solicitud",
		"content: La solicitud de registro de una marca...",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("evidence block missing %q:\n%s", want, got)
		}
	}
}

func TestFormatEvidence_MissingFieldsRenderNA(t *testing.T) {
	got := domain.FormatEvidence([]domain.Hit{{Text: "bare excerpt"}})

	// Every absent field must be marked, never omitted.
	if strings.Count(got, domain.FieldNotAvailable) != 10 {
		t.Errorf("expected 10 N/A markers, got %d:\n%s", strings.Count(got, domain.FieldNotAvailable), got)
	}
	if !strings.Contains(got, "content: bare excerpt") {
		t.Errorf("excerpt missing from %q", got)
	}
}

func TestFormatEvidence_NumbersEntries(t *testing.T) {
	hits := []domain.Hit{{Text: "a"}, {Text: "b"}, {Text: "c"}}
	got := domain.FormatEvidence(hits)

	entries := strings.Split(got, "\n\n")
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, entry := range entries {
		if !strings.HasPrefix(entry, string(rune('1'+i))+".") {
			t.Errorf("entry %d not numbered: %q", i, entry)
		}
	}
}

func TestFormatEvidence_Empty(t *testing.T) {
	if got := domain.FormatEvidence(nil); got != "" {
		t.Errorf("expected empty block, got %q", got)
	}
}
