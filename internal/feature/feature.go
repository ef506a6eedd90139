package feature

// Set holds the normalized features extracted from one piece of text.
// Names map canonical (lowercased) form to the original casing so matching
// is case-insensitive while display keeps what the author wrote.
type Set struct {
	Names    map[string]string
	Keywords map[string]struct{}
	Visual   map[string]struct{}
}

// NewSet returns an empty feature set with all maps allocated.
func NewSet() Set {
	return Set{
		Names:    make(map[string]string),
		Keywords: make(map[string]struct{}),
		Visual:   make(map[string]struct{}),
	}
}

// AddName records a name under its canonical lowercase key. The first
// spelling seen for a canonical key wins.
func (s Set) AddName(name string) {
	key := canonicalName(name)
	if key == "" {
		return
	}
	if _, ok := s.Names[key]; !ok {
		s.Names[key] = name
	}
}

// Empty reports whether no features of any kind were extracted.
func (s Set) Empty() bool {
	return len(s.Names) == 0 && len(s.Keywords) == 0 && len(s.Visual) == 0
}
