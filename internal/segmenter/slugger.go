package segmenter

import (
	"strconv"
	"strings"
	"unicode"
)

// Slugger generates GitHub-style anchors, unique within one document
type Slugger struct {
	occurrences map[string]int
}

// NewSlugger creates a slugger with no recorded slugs
func NewSlugger() *Slugger {
	return &Slugger{occurrences: make(map[string]int)}
}

// Slug returns a unique slug for value. Repeats get a numeric suffix:
// foo, foo-1, foo-2.
func (s *Slugger) Slug(value string) string {
	base := slugify(value)
	slug := base
	for {
		if _, taken := s.occurrences[slug]; !taken {
			break
		}
		s.occurrences[base]++
		slug = base + "-" + strconv.Itoa(s.occurrences[base])
	}
	s.occurrences[slug] = 0
	return slug
}

// Reset forgets every slug handed out so far
func (s *Slugger) Reset() {
	s.occurrences = make(map[string]int)
}

// slugify lowercases value, drops punctuation and symbols, and turns spaces into hyphens
func slugify(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range strings.ToLower(value) {
		switch {
		case r == ' ':
			b.WriteByte('-')
		case r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsLetter(r), unicode.IsNumber(r), unicode.IsMark(r), unicode.Is(unicode.Pc, r):
			b.WriteRune(r)
		}
	}
	return b.String()
}
