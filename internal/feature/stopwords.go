package feature

// defaultStopwords returns common English stopwords plus narrative filler
// words that dominate memory texts but carry no matching signal.
func defaultStopwords() map[string]bool {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"or", "that", "the", "to", "was", "were", "will", "with",
		"this", "but", "they", "have", "had", "what", "when", "where",
		"who", "which", "why", "how", "all", "each", "every", "both",
		"few", "more", "most", "other", "some", "such", "no", "nor",
		"not", "only", "own", "same", "so", "than", "too", "very",
		"can", "just", "should", "now", "if", "then", "else",
		"she", "her", "him", "his", "we", "our", "us", "me", "my",
		"you", "your", "their", "them", "there", "here", "been",
		"did", "also", "into", "about", "after", "before", "would",
		"could", "one", "two", "day", "time", "year", "years",
		"remember", "always", "never", "still", "back", "around",
	}

	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
