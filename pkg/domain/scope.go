package domain

import "strings"

// InferScope finds a supported scope mentioned in free text. The match is a
// case-insensitive substring search, so "trademarks in El Salvador" resolves
// to "El Salvador". It is a heuristic: it cannot detect paraphrases or
// misspellings, and when several scopes are mentioned the first in the
// supported list wins. Callers must treat a miss as "no scope", not an error.
func InferScope(text string, supported []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, scope := range supported {
		if strings.Contains(lower, strings.ToLower(scope)) {
			return scope, true
		}
	}
	return "", false
}

// ResolveScope picks the scope for a turn: an explicit caller hint wins,
// otherwise the utterance is scanned with InferScope. A hint that is not in
// the supported set still wins; validation against configured indexes
// happens at retrieval time.
func ResolveScope(hint, utterance string, supported []string) (string, bool) {
	if hint != "" {
		return hint, true
	}
	return InferScope(utterance, supported)
}
