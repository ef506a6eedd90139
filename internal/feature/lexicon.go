package feature

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed lexicon.json
var lexiconFS embed.FS

// Lexicon holds the fixed set of visual-descriptor phrases, compiled into
// word-boundary patterns once at load time.
type Lexicon struct {
	phrases  []string
	patterns map[string]*regexp.Regexp
}

type lexiconFile struct {
	Comment    string              `json:"comment"`
	Version    string              `json:"version"`
	Categories map[string][]string `json:"categories"`
}

var (
	defaultLexicon     *Lexicon
	defaultLexiconOnce sync.Once
)

// DefaultLexicon returns the lexicon embedded in the binary. The embedded
// file is validated at build time by the test suite, so a parse failure
// here is a programming error.
func DefaultLexicon() *Lexicon {
	defaultLexiconOnce.Do(func() {
		data, err := lexiconFS.ReadFile("lexicon.json")
		if err != nil {
			panic(fmt.Sprintf("embedded lexicon missing: %v", err))
		}
		lex, err := ParseLexicon(data)
		if err != nil {
			panic(fmt.Sprintf("embedded lexicon invalid: %v", err))
		}
		defaultLexicon = lex
	})
	return defaultLexicon
}

// ParseLexicon builds a lexicon from JSON bytes.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var file lexiconFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}

	seen := make(map[string]bool)
	var phrases []string
	for _, list := range file.Categories {
		for _, phrase := range list {
			p := strings.ToLower(strings.TrimSpace(phrase))
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			phrases = append(phrases, p)
		}
	}
	sort.Strings(phrases)

	patterns := make(map[string]*regexp.Regexp, len(phrases))
	for _, p := range phrases {
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(p) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("failed to compile lexicon phrase %q: %w", p, err)
		}
		patterns[p] = re
	}

	return &Lexicon{phrases: phrases, patterns: patterns}, nil
}

// Match returns every lexicon phrase present in text, in sorted order.
func (l *Lexicon) Match(text string) []string {
	lower := strings.ToLower(text)
	var matched []string
	for _, p := range l.phrases {
		if l.patterns[p].MatchString(lower) {
			matched = append(matched, p)
		}
	}
	return matched
}

// Phrases returns the full phrase list, for diagnostics.
func (l *Lexicon) Phrases() []string {
	out := make([]string, len(l.phrases))
	copy(out, l.phrases)
	return out
}
