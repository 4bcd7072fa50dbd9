package types

import "time"

// Section represents a heading-delimited slice of a markdown document
type Section struct {
	Slug    *string // Nil for the leading section and for empty headings
	Heading *string // Nil for content before the first heading
	Content string  // Markdown text, heading line included
}

// HeadingText returns the heading or an empty string
func (s Section) HeadingText() string {
	if s.Heading == nil {
		return ""
	}
	return *s.Heading
}

// SlugText returns the slug or an empty string
func (s Section) SlugText() string {
	if s.Slug == nil {
		return ""
	}
	return *s.Slug
}

// LoadResult is what an embedding source yields once loaded
type LoadResult struct {
	Checksum string
	Metadata map[string]any // Nil when the document has no front-matter
	Sections []Section
}

// Checksum is the tagged sync state of a page.
// The zero value is pending.
type Checksum struct {
	value  string
	synced bool
}

// PendingChecksum marks a page whose sections are not yet durably written
func PendingChecksum() Checksum {
	return Checksum{}
}

// SyncedChecksum marks a page whose sections were all written for the given digest
func SyncedChecksum(value string) Checksum {
	return Checksum{value: value, synced: true}
}

// IsPending reports whether the page still needs its sections written
func (c Checksum) IsPending() bool {
	return !c.synced
}

// Value returns the digest and whether the checksum is synced
func (c Checksum) Value() (string, bool) {
	return c.value, c.synced
}

// Matches reports whether a synced checksum equals the computed digest.
// A pending checksum never matches.
func (c Checksum) Matches(digest string) bool {
	return c.synced && c.value == digest
}

// String implements fmt.Stringer
func (c Checksum) String() string {
	if !c.synced {
		return "pending"
	}
	return c.value
}

// Page is the persisted record of one document
type Page struct {
	ID           int64
	Path         string // Route path, unique
	Source       string // Source kind, e.g. "newsletter"
	Type         string // Source type, e.g. "markdown"
	Checksum     Checksum
	Metadata     map[string]any
	ParentPageID *int64 // Nullable
	ParentPath   string // Path of the parent page, empty when unlinked (read-only)
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PageSection is a persisted section with its embedding
type PageSection struct {
	ID         int64
	PageID     int64
	Slug       *string
	Heading    *string
	Content    string
	TokenCount int
	Embedding  []float32
	CreatedAt  time.Time
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
