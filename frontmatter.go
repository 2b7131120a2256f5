package litpost

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// DefaultDateLayout matches dates such as "March 5, 2024".
const DefaultDateLayout = "January 2, 2006"

// fallbackDateLayouts are tried after the configured layout.
var fallbackDateLayouts = []string{"2006-01-02", time.RFC3339}

var (
	yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)
	skipFormat = frontmatter.NewFormat("---", "---", func([]byte, any) error { return nil })
)

// Metadata is the frontmatter of a post.
type Metadata struct {
	Title       string     `yaml:"title,omitempty"`
	Date        string     `yaml:"date,omitempty"`
	Description string     `yaml:"description,omitempty"`
	Author      string     `yaml:"author,omitempty"`
	Tags        StringList `yaml:"tags,omitempty"`
	Categories  StringList `yaml:"categories,omitempty"`
	Image       string     `yaml:"image,omitempty"`
	Slug        string     `yaml:"slug,omitempty"`
	Draft       bool       `yaml:"draft,omitempty"`

	// Extra holds every key without a field above.
	Extra map[string]any `yaml:",inline"`
}

// Get returns the value for a frontmatter key, looking at the named fields
// first and Extra second. Empty named fields are reported as missing.
func (m Metadata) Get(key string) (any, bool) {
	switch key {
	case "title":
		return m.Title, m.Title != ""
	case "date":
		return m.Date, m.Date != ""
	case "description":
		return m.Description, m.Description != ""
	case "author":
		return m.Author, m.Author != ""
	case "tags":
		return []string(m.Tags), len(m.Tags) > 0
	case "categories":
		return []string(m.Categories), len(m.Categories) > 0
	case "image":
		return m.Image, m.Image != ""
	case "slug":
		return m.Slug, m.Slug != ""
	case "draft":
		return m.Draft, m.Draft
	}
	v, ok := m.Extra[key]
	return v, ok
}

// ParsedDate parses Date with layout, then with ISO 8601 layouts.
func (m Metadata) ParsedDate(layout string) (time.Time, bool) {
	if m.Date == "" {
		return time.Time{}, false
	}
	if layout == "" {
		layout = DefaultDateLayout
	}
	for _, l := range append([]string{layout}, fallbackDateLayouts...) {
		if t, err := time.Parse(l, m.Date); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// StringList accepts either a YAML sequence or a single scalar.
type StringList []string

func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Value == "" {
			*l = nil
			return nil
		}
		*l = StringList{value.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
}

// ExtractFrontmatter splits a leading "---" delimited YAML block from
// content. Malformed YAML is logged and yields empty metadata, the block is
// still removed from the returned body.
func ExtractFrontmatter(content []byte) (Metadata, []byte) {
	var meta Metadata
	body, err := frontmatter.Parse(bytes.NewReader(content), &meta, yamlFormat)
	if err == nil {
		return meta, body
	}

	slog.Error("failed to parse frontmatter", "error", err)
	body, err = frontmatter.Parse(bytes.NewReader(content), nil, skipFormat)
	if err != nil {
		return Metadata{}, content
	}
	return Metadata{}, body
}

// bodyOffset returns where body starts within content.
func bodyOffset(content, body []byte) int {
	if bytes.HasSuffix(content, body) {
		return len(content) - len(body)
	}
	return 0
}
