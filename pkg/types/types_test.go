package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksum(t *testing.T) {
	t.Run("zero value is pending", func(t *testing.T) {
		var c Checksum
		assert.True(t, c.IsPending())
		assert.False(t, c.Matches(""))
		assert.Equal(t, "pending", c.String())
	})

	t.Run("pending never matches", func(t *testing.T) {
		c := PendingChecksum()
		assert.False(t, c.Matches("abc"))
		_, ok := c.Value()
		assert.False(t, ok)
	})

	t.Run("synced matches its digest only", func(t *testing.T) {
		c := SyncedChecksum("abc")
		assert.False(t, c.IsPending())
		assert.True(t, c.Matches("abc"))
		assert.False(t, c.Matches("abd"))

		v, ok := c.Value()
		assert.True(t, ok)
		assert.Equal(t, "abc", v)
	})
}

func TestSectionAccessors(t *testing.T) {
	s := Section{Content: "intro\n"}
	assert.Empty(t, s.HeadingText())
	assert.Empty(t, s.SlugText())

	s = Section{Heading: StringPtr("Overview"), Slug: StringPtr("overview")}
	assert.Equal(t, "Overview", s.HeadingText())
	assert.Equal(t, "overview", s.SlugText())
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
	}{
		{"parse", &ParseError{Path: "docs/a.md", Err: cause}},
		{"store", &StoreError{Op: "upsert page", Path: "/a", Err: cause}},
		{"embedding", &EmbeddingServiceError{Provider: "openai", StatusCode: 500, Err: cause}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("sync: %w", tt.err)
			assert.ErrorIs(t, wrapped, cause)
		})
	}
}

func TestParseErrorMessage(t *testing.T) {
	err := &ParseError{Path: "docs/a.md", Err: errors.New("unterminated front-matter")}
	assert.Equal(t, "parse docs/a.md: unterminated front-matter", err.Error())

	var perr *ParseError
	assert.True(t, errors.As(fmt.Errorf("load: %w", err), &perr))
	assert.Equal(t, "docs/a.md", perr.Path)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transport", &EmbeddingServiceError{Provider: "openai", Err: errors.New("dial")}, true},
		{"rate limited", &EmbeddingServiceError{Provider: "openai", StatusCode: 429, Err: errors.New("slow down")}, true},
		{"server error", &EmbeddingServiceError{Provider: "openai", StatusCode: 503, Err: errors.New("unavailable")}, true},
		{"bad request", &EmbeddingServiceError{Provider: "openai", StatusCode: 400, Err: errors.New("bad")}, false},
		{"unauthorized", &EmbeddingServiceError{Provider: "openai", StatusCode: 401, Err: errors.New("key")}, false},
		{"other error", errors.New("plain"), false},
		{"wrapped", fmt.Errorf("call: %w", &EmbeddingServiceError{StatusCode: 502, Err: errors.New("gw")}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestConfigurationError(t *testing.T) {
	err := &ConfigurationError{Missing: []string{"datastore URL", "embedding API key"}}
	assert.Equal(t, "missing required configuration: datastore URL, embedding API key", err.Error())
}
