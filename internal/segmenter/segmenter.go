package segmenter

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dshills/docsync/pkg/types"
)

// emptyATXHeading matches a heading line without text, e.g. "##" or "# ##"
var emptyATXHeading = regexp.MustCompile(`(?m)^ {0,3}#{1,6}(?:[ \t]+#*)?[ \t]*\r?$`)

// Segmenter creates heading-delimited sections from markdown documents
type Segmenter struct {
	md goldmark.Markdown
}

// New creates a new Segmenter instance
func New() *Segmenter {
	return &Segmenter{
		md: goldmark.New(),
	}
}

// Segment splits raw document text into metadata, checksum and sections.
// It either succeeds fully or returns an error.
func (s *Segmenter) Segment(raw []byte) (*types.LoadResult, error) {
	fm, err := splitFrontMatter(string(raw))
	if err != nil {
		return nil, err
	}

	meta, err := decodeMetadata(fm)
	if err != nil {
		return nil, err
	}

	src := []byte(fm.body)
	doc := s.md.Parser().Parse(text.NewReader(src))

	return &types.LoadResult{
		Checksum: Checksum(fm.body),
		Metadata: meta,
		Sections: splitSections(doc, src),
	}, nil
}

// Checksum computes the change-detection key of a document body
func Checksum(body string) string {
	sum := sha256.Sum256([]byte(body))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// boundary marks where a top-level heading starts in the source
type boundary struct {
	start   int
	heading *ast.Heading
}

// splitSections cuts the source at every top-level heading
func splitSections(doc ast.Node, src []byte) []types.Section {
	var bounds []boundary
	prevEnd := 0
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			start := headingStart(h, src, prevEnd)
			bounds = append(bounds, boundary{start: start, heading: h})
			prevEnd = lineEnd(src, start)
		}
		if end := blockEnd(n); end > prevEnd {
			prevEnd = end
		}
	}

	sections := make([]types.Section, 0, len(bounds)+1)

	leadEnd := len(src)
	if len(bounds) > 0 {
		leadEnd = bounds[0].start
	}
	if lead := sectionText(src, 0, leadEnd); lead != "" {
		sections = append(sections, types.Section{Content: lead})
	}

	slugger := NewSlugger()
	for i, b := range bounds {
		end := len(src)
		if i+1 < len(bounds) {
			end = bounds[i+1].start
		}

		heading := strings.TrimSpace(plainText(b.heading, src))
		section := types.Section{
			Heading: types.StringPtr(heading),
			Content: sectionText(src, b.start, end),
		}
		if heading != "" {
			section.Slug = types.StringPtr(slugger.Slug(heading))
		}
		sections = append(sections, section)
	}

	return sections
}

// headingStart returns the offset of the first line of a heading
func headingStart(h *ast.Heading, src []byte, from int) int {
	if lines := h.Lines(); lines.Len() > 0 {
		return lineStart(src, lines.At(0).Start)
	}

	// Empty headings carry no line segments
	if from > len(src) {
		from = len(src)
	}
	if loc := emptyATXHeading.FindIndex(src[from:]); loc != nil {
		return from + loc[0]
	}
	return from
}

// blockEnd returns the end offset of the last line segment inside a block, or -1
func blockEnd(n ast.Node) int {
	if n.Type() == ast.TypeInline {
		return -1
	}

	end := -1
	if n.Type() == ast.TypeBlock {
		if lines := n.Lines(); lines.Len() > 0 {
			end = lines.At(lines.Len() - 1).Stop
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if e := blockEnd(c); e > end {
			end = e
		}
	}
	return end
}

// lineStart moves offset back to the beginning of its line
func lineStart(src []byte, offset int) int {
	for offset > 0 && src[offset-1] != '\n' {
		offset--
	}
	return offset
}

// lineEnd returns the offset just past the newline ending the line at offset
func lineEnd(src []byte, offset int) int {
	if i := bytes.IndexByte(src[offset:], '\n'); i >= 0 {
		return offset + i + 1
	}
	return len(src)
}

// sectionText returns the source between start and end without surrounding blank lines
func sectionText(src []byte, start, end int) string {
	if start >= end {
		return ""
	}
	s := strings.TrimRight(string(src[start:end]), " \t\r\n")
	s = strings.TrimLeft(s, "\r\n")
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s + "\n"
}

// plainText concatenates the literal text under a node
func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.AutoLink:
			b.Write(t.Label(src))
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			for i := 0; i < t.Segments.Len(); i++ {
				seg := t.Segments.At(i)
				b.Write(seg.Value(src))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
