package media

import (
	"regexp"
	"strings"
	"time"
)

// FileType distinguishes images from videos. Videos keep their metadata but
// are excluded from visual matching.
type FileType string

const (
	Image FileType = "image"
	Video FileType = "video"
)

// RawMedia is a media record as stored by the capture flow, before
// normalization.
type RawMedia struct {
	ID          int64
	Filename    string
	Title       string
	Description string
	People      []string
	TaggedYear  *int
	CapturedAt  *time.Time
	ModifiedAt  time.Time
	FileType    FileType
	CreatedAt   time.Time
}

// Candidate is the normalized, matchable view of one media item.
type Candidate struct {
	ID       int64
	Filename string
	Year     *int
	Caption  string
	People   []string
	FileType FileType
}

// IsImage reports whether the candidate participates in visual matching.
func (c Candidate) IsImage() bool {
	return c.FileType == Image
}

const minPlausibleYear = 1800

var filenameYearPattern = regexp.MustCompile(`(?:^|[^0-9])((?:18|19|20)[0-9]{2})(?:[^0-9]|$)`)

// Normalize converts a raw media record into a candidate. It never fails;
// a year that cannot be resolved is left nil and the candidate participates
// only in feature-based scoring.
func Normalize(raw RawMedia) Candidate {
	people := make([]string, 0, len(raw.People))
	for _, p := range raw.People {
		if p = strings.TrimSpace(p); p != "" {
			people = append(people, p)
		}
	}

	return Candidate{
		ID:       raw.ID,
		Filename: raw.Filename,
		Year:     resolveYear(raw),
		Caption:  buildCaption(raw),
		People:   people,
		FileType: raw.FileType,
	}
}

// resolveYear applies the year priority: explicit tag, then a 4-digit year
// in the filename, then the captured timestamp, then file modification time.
func resolveYear(raw RawMedia) *int {
	if raw.TaggedYear != nil && plausibleYear(*raw.TaggedYear) {
		y := *raw.TaggedYear
		return &y
	}

	if m := filenameYearPattern.FindStringSubmatch(raw.Filename); m != nil {
		if y := parseYear(m[1]); y != nil {
			return y
		}
	}

	if raw.CapturedAt != nil && !raw.CapturedAt.IsZero() {
		if y := raw.CapturedAt.Year(); plausibleYear(y) {
			return &y
		}
	}

	if !raw.ModifiedAt.IsZero() {
		if y := raw.ModifiedAt.Year(); plausibleYear(y) {
			return &y
		}
	}

	return nil
}

func parseYear(s string) *int {
	y := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil
		}
		y = y*10 + int(r-'0')
	}
	if !plausibleYear(y) {
		return nil
	}
	return &y
}

// plausibleYear bounds years to a human-lifetime range; next year is allowed
// to absorb camera clock drift.
func plausibleYear(y int) bool {
	return y >= minPlausibleYear && y <= time.Now().Year()+1
}

func buildCaption(raw RawMedia) string {
	parts := make([]string, 0, 2)
	if t := strings.TrimSpace(raw.Title); t != "" {
		parts = append(parts, t)
	}
	if d := strings.TrimSpace(raw.Description); d != "" {
		parts = append(parts, d)
	}
	return strings.Join(parts, " ")
}
