package sequence

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"slidereel/internal/config"
	"slidereel/internal/services"
)

// Item is one compared entity in a storyline.
type Item struct {
	Name       string         `toml:"name"`
	Screenshot string         `toml:"screenshot"`
	Vibe       string         `toml:"vibe"`
	Reaction   string         `toml:"reaction"`
	Scores     map[string]int `toml:"scores"`
}

// Content is the caller-supplied material a storyline is built from. Items
// are rendered in the order given.
type Content struct {
	Project  string `toml:"project"`
	Title    string `toml:"title"`
	Equation string `toml:"equation"`
	Items    []Item `toml:"items"`
}

// LoadContent parses a TOML content file. Relative screenshot paths resolve
// against the file's directory.
func LoadContent(path string) (Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Content{}, services.Wrap(services.ErrValidation, "sequence", "load content", path, err)
	}
	var content Content
	if err := toml.Unmarshal(data, &content); err != nil {
		return Content{}, services.Wrap(services.ErrValidation, "sequence", "parse content", path, err)
	}
	base := filepath.Dir(path)
	for i := range content.Items {
		shot := strings.TrimSpace(content.Items[i].Screenshot)
		if shot == "" {
			continue
		}
		switch {
		case strings.HasPrefix(shot, "~"):
			expanded, err := config.ExpandPath(shot)
			if err != nil {
				return Content{}, services.Wrap(services.ErrValidation, "sequence", "load content", "expand screenshot path", err)
			}
			shot = expanded
		case !filepath.IsAbs(shot):
			shot = filepath.Join(base, shot)
		}
		content.Items[i].Screenshot = shot
	}
	return content, nil
}

// Branding maps entity names to their styling. Lookups are case-insensitive.
type Branding map[string]config.Brand

// Lookup returns the brand for name, or a zero Brand for unknown entities.
func (b Branding) Lookup(name string) config.Brand {
	if brand, ok := b[strings.ToLower(strings.TrimSpace(name))]; ok {
		return brand
	}
	for key, brand := range b {
		if strings.EqualFold(key, strings.TrimSpace(name)) {
			return brand
		}
	}
	return config.Brand{}
}

var scoreOrder = map[string]int{"style": 0, "clarity": 1, "creativity": 2}

// orderedCategories lists style, clarity, and creativity first, then any
// other categories alphabetically.
func orderedCategories(scores map[string]int) []string {
	keys := make([]string, 0, len(scores))
	for key := range scores {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iKnown := scoreOrder[strings.ToLower(keys[i])]
		rj, jKnown := scoreOrder[strings.ToLower(keys[j])]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown != jKnown:
			return iKnown
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

func defaultScores() map[string]map[string]int {
	return map[string]map[string]int{
		"claude": {"style": 9, "clarity": 8, "creativity": 10},
		"gpt4":   {"style": 7, "clarity": 10, "creativity": 6},
		"gemini": {"style": 8, "clarity": 7, "creativity": 9},
		"llama":  {"style": 6, "clarity": 9, "creativity": 7},
	}
}

func defaultReactions() map[string]string {
	return map[string]string{
		"claude": "Claude went FULL cyberpunk",
		"gpt4":   "GPT-4 kept it scholarly",
		"gemini": "Gemini made it a party",
		"llama":  "Llama kept it real",
	}
}

func describe(item Item) string {
	if item.Name == "" {
		return "(unnamed)"
	}
	return fmt.Sprintf("%q", item.Name)
}
