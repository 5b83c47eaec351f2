package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Detail selects how thorough the requested answer should be.
type Detail string

const (
	Concise  Detail = "concise"
	Detailed Detail = "detailed"
)

// ParseDetail validates a detail level. The empty string means Concise.
func ParseDetail(s string) (Detail, error) {
	switch Detail(strings.ToLower(strings.TrimSpace(s))) {
	case "", Concise:
		return Concise, nil
	case Detailed:
		return Detailed, nil
	default:
		return "", fmt.Errorf("unknown detail level %q (valid: concise, detailed)", s)
	}
}

// Templates is one language/detail combination.
type Templates struct {
	CodeOnlySystem       string `yaml:"codeOnlySystem"`
	CodeOnlyUser         string `yaml:"codeOnlyUser"`
	CodeWithIssuesSystem string `yaml:"codeWithIssuesSystem"`
	CodeWithIssuesUser   string `yaml:"codeWithIssuesUser"`
	Issue                string `yaml:"issue"`
	MultipleIssues       string `yaml:"multipleIssues"`
}

// fill copies every empty field from fallback.
func (t *Templates) fill(fallback Templates) {
	fields := []struct {
		dst *string
		src string
	}{
		{&t.CodeOnlySystem, fallback.CodeOnlySystem},
		{&t.CodeOnlyUser, fallback.CodeOnlyUser},
		{&t.CodeWithIssuesSystem, fallback.CodeWithIssuesSystem},
		{&t.CodeWithIssuesUser, fallback.CodeWithIssuesUser},
		{&t.Issue, fallback.Issue},
		{&t.MultipleIssues, fallback.MultipleIssues},
	}
	for _, f := range fields {
		if strings.TrimSpace(*f.dst) == "" {
			*f.dst = f.src
		}
	}
}

// Catalog maps language tag and detail level to templates.
type Catalog struct {
	// Focus lists review areas appended to every system prompt.
	Focus     []string                        `yaml:"focus,omitempty"`
	Languages map[string]map[Detail]Templates `yaml:"languages"`
}

// Load reads a YAML catalog from path and completes it with the built-in
// templates.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing prompt catalog: %w", err)
	}
	c.complete()
	return &c, nil
}

// complete fills missing languages, detail levels and fields from Builtin.
func (c *Catalog) complete() {
	base := Builtin()
	if c.Languages == nil {
		c.Languages = make(map[string]map[Detail]Templates)
	}
	for tag, levels := range base.Languages {
		if c.Languages[tag] == nil {
			c.Languages[tag] = make(map[Detail]Templates)
		}
		for d, t := range levels {
			cur := c.Languages[tag][d]
			cur.fill(t)
			c.Languages[tag][d] = cur
		}
	}
	english := base.Languages["en"]
	for tag, levels := range c.Languages {
		declared := make(map[Detail]Templates, len(levels))
		for d, t := range levels {
			declared[d] = t
		}
		if levels == nil {
			levels = make(map[Detail]Templates)
			c.Languages[tag] = levels
		}
		for _, d := range []Detail{Concise, Detailed} {
			cur := declared[d]
			cur.fill(declared[otherDetail(d)])
			cur.fill(english[d])
			levels[d] = cur
		}
	}
}

func otherDetail(d Detail) Detail {
	if d == Detailed {
		return Concise
	}
	return Detailed
}

// Save writes the catalog as YAML, creating parent directories.
func (c *Catalog) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating prompt catalog dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling prompt catalog: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Tags returns the catalog's language tags, English first.
func (c *Catalog) Tags() []string {
	tags := make([]string, 0, len(c.Languages))
	for tag := range c.Languages {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if (tags[i] == "en") != (tags[j] == "en") {
			return tags[i] == "en"
		}
		return tags[i] < tags[j]
	})
	return tags
}

// Select returns the templates for the closest supported language. Unknown
// or malformed locales resolve to English.
func (c *Catalog) Select(locale string, d Detail) Templates {
	keys := c.Tags()
	supported := make([]language.Tag, 0, len(keys))
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		tag, err := language.Parse(k)
		if err != nil {
			continue
		}
		supported = append(supported, tag)
		names = append(names, k)
	}
	if len(supported) == 0 {
		return Builtin().Languages["en"][d]
	}

	chosen := names[0]
	if want, err := language.Parse(locale); err == nil {
		_, idx, conf := language.NewMatcher(supported).Match(want)
		if conf != language.No {
			chosen = names[idx]
		}
	}
	t := c.Languages[chosen][d]
	t.fill(Builtin().Languages["en"][d])
	return t
}
