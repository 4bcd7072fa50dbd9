package segmenter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnterminatedFrontMatter is returned when a front-matter block has no closing delimiter
var ErrUnterminatedFrontMatter = errors.New("unterminated front-matter")

type matterFormat int

const (
	formatNone matterFormat = iota
	formatYAML
	formatTOML
)

func (f matterFormat) String() string {
	switch f {
	case formatYAML:
		return "yaml"
	case formatTOML:
		return "toml"
	default:
		return "none"
	}
}

// frontMatter is a split document
type frontMatter struct {
	format matterFormat
	matter string
	body   string
}

// splitFrontMatter separates a leading front-matter block from the body.
// Documents without one are returned unchanged as body.
func splitFrontMatter(raw string) (frontMatter, error) {
	doc := strings.TrimPrefix(raw, "\ufeff")
	first, rest, _ := strings.Cut(doc, "\n")

	var format matterFormat
	var closing string
	switch strings.TrimRight(first, " \t\r") {
	case "---", "---yaml":
		format, closing = formatYAML, "---"
	case "---toml":
		format, closing = formatTOML, "---"
	case "+++":
		format, closing = formatTOML, "+++"
	default:
		return frontMatter{body: raw}, nil
	}

	offset := 0
	for offset <= len(rest) {
		line, tail, more := strings.Cut(rest[offset:], "\n")
		if strings.TrimRight(line, " \t\r") == closing {
			body := ""
			if more {
				body = tail
			}
			return frontMatter{
				format: format,
				matter: rest[:offset],
				body:   body,
			}, nil
		}
		if !more {
			break
		}
		offset += len(line) + 1
	}

	return frontMatter{}, fmt.Errorf("%w: missing closing %q", ErrUnterminatedFrontMatter, closing)
}

// decodeMetadata parses the front-matter block into a key/value mapping.
// Empty blocks yield nil.
func decodeMetadata(fm frontMatter) (map[string]any, error) {
	if strings.TrimSpace(fm.matter) == "" {
		return nil, nil
	}

	meta := make(map[string]any)
	var err error
	switch fm.format {
	case formatYAML:
		err = yaml.Unmarshal([]byte(fm.matter), &meta)
	case formatTOML:
		err = toml.Unmarshal([]byte(fm.matter), &meta)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s front-matter: %w", fm.format, err)
	}

	if len(meta) == 0 {
		return nil, nil
	}
	return meta, nil
}
