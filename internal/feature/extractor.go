package feature

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	wordPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z']*`)
	capPattern  = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
)

// Extractor derives feature sets from free text. It is safe for concurrent
// use; all state is read-only after construction.
type Extractor struct {
	stopwords  map[string]bool
	knownNames map[string]string
	lexicon    *Lexicon
}

// NewExtractor creates an extractor. knownNames is the configured list of
// names that should always be recognized regardless of casing; lexicon may
// be nil, in which case the embedded default lexicon is used.
func NewExtractor(knownNames []string, lexicon *Lexicon) *Extractor {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}

	known := make(map[string]string, len(knownNames))
	for _, name := range knownNames {
		key := canonicalName(name)
		if key != "" {
			known[key] = strings.TrimSpace(name)
		}
	}

	return &Extractor{
		stopwords:  defaultStopwords(),
		knownNames: known,
		lexicon:    lexicon,
	}
}

// Extract derives the feature set for text. It is deterministic, never
// fails, and returns all-empty sets for empty or signal-free input.
func (e *Extractor) Extract(text string) Set {
	set := NewSet()
	if strings.TrimSpace(text) == "" {
		return set
	}

	e.extractNames(text, set)
	e.extractKeywords(text, set)
	e.extractVisual(text, set)

	return set
}

// extractNames collects capitalized token runs that are not stopwords, plus
// any known names appearing anywhere in the text. Multi-word runs are kept
// whole and also split into their component tokens so that "Grandma Rose"
// can match a photo tagged just "Rose".
func (e *Extractor) extractNames(text string, set Set) {
	for _, loc := range capPattern.FindAllStringIndex(text, -1) {
		run := text[loc[0]:loc[1]]
		tokens := strings.Fields(run)

		// A lone capitalized word at a sentence start is almost always
		// ordinary prose, not a name. Longer runs and known names pass.
		if len(tokens) == 1 && e.atSentenceStart(text, loc[0]) {
			if _, known := e.knownNames[canonicalName(tokens[0])]; !known {
				continue
			}
		}

		kept := tokens[:0:0]
		for _, tok := range tokens {
			if e.stopwords[strings.ToLower(tok)] {
				continue
			}
			kept = append(kept, tok)
		}
		if len(kept) == 0 {
			continue
		}

		set.AddName(strings.Join(kept, " "))
		if len(kept) > 1 {
			for _, tok := range kept {
				set.AddName(tok)
			}
		}
	}

	lower := strings.ToLower(text)
	for key, display := range e.knownNames {
		if containsWord(lower, key) {
			set.AddName(display)
		}
	}
}

func (e *Extractor) extractKeywords(text string, set Set) {
	for _, tok := range wordPattern.FindAllString(text, -1) {
		word := strings.ToLower(strings.Trim(tok, "'"))
		if len(word) < 3 || e.stopwords[word] {
			continue
		}
		set.Keywords[word] = struct{}{}
	}
}

func (e *Extractor) extractVisual(text string, set Set) {
	for _, phrase := range e.lexicon.Match(text) {
		set.Visual[phrase] = struct{}{}
	}
}

// atSentenceStart reports whether the rune before offset is a sentence
// boundary (start of text, or terminal punctuation followed by space).
func (e *Extractor) atSentenceStart(text string, offset int) bool {
	for i := offset - 1; i >= 0; i-- {
		r := rune(text[i])
		if unicode.IsSpace(r) || r == '"' || r == '\'' || r == '(' {
			continue
		}
		return r == '.' || r == '!' || r == '?' || r == '\n'
	}
	return true
}

// canonicalName normalizes a name for set membership: lowercased, trimmed,
// internal whitespace collapsed.
func canonicalName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// containsWord reports whether lower contains word bounded by non-letters.
func containsWord(lower, word string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isLetter(lower[start-1])
		afterOK := end == len(lower) || !isLetter(lower[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
