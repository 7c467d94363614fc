package domain_test

import (
	"strings"
	"testing"

	"github.com/bufetemejia/counsel/pkg/domain"
)

func TestDeriveTitle(t *testing.T) {
	short := "What is a trademark?"
	if got := domain.DeriveTitle(short); got != short {
		t.Errorf("short title changed: got %q", got)
	}

	long := strings.Repeat("a", 80)
	got := domain.DeriveTitle(long)
	if len([]rune(got)) != domain.TitleMaxLen {
		t.Errorf("expected %d runes, got %d", domain.TitleMaxLen, len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}

	// Exactly at the boundary: untouched.
	exact := strings.Repeat("b", domain.TitleMaxLen)
	if got := domain.DeriveTitle(exact); got != exact {
		t.Errorf("boundary title changed: got %q", got)
	}
}

func TestInferScope(t *testing.T) {
	supported := []string{"El Salvador", "Costa Rica"}

	scope, ok := domain.InferScope("What does Article 12 say about trademarks in El Salvador?", supported)
	if !ok || scope != "El Salvador" {
		t.Errorf("expected El Salvador, got %q (ok=%v)", scope, ok)
	}

	// Case-insensitive.
	scope, ok = domain.InferScope("labor law in costa rica", supported)
	if !ok || scope != "Costa Rica" {
		t.Errorf("expected Costa Rica, got %q (ok=%v)", scope, ok)
	}

	if _, ok := domain.InferScope("general contract question", supported); ok {
		t.Error("expected no scope for text without a country mention")
	}
}

func TestResolveScope_HintWins(t *testing.T) {
	supported := []string{"El Salvador"}
	scope, ok := domain.ResolveScope("Costa Rica", "something about El Salvador", supported)
	if !ok || scope != "Costa Rica" {
		t.Errorf("explicit hint should win, got %q (ok=%v)", scope, ok)
	}
}
