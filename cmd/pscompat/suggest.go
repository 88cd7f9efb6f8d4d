package main

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

const maxSuggestions = 5

// suggest returns up to maxSuggestions candidates closest to name, best
// first.
func suggest(name string, candidates []string) []string {
	matches := fuzzy.Find(name, candidates)
	out := make([]string, 0, min(len(matches), maxSuggestions))
	for _, m := range matches {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

// notFound builds the error for an unknown name, listing close matches.
func notFound(what, name string, candidates []string) error {
	if s := suggest(name, candidates); len(s) > 0 {
		return fmt.Errorf("%s %q not found; did you mean: %s?", what, name, strings.Join(s, ", "))
	}
	return fmt.Errorf("%s %q not found", what, name)
}
