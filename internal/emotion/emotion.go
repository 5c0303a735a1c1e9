// Package emotion loads the emotion taxonomy that Highlights refer to.
package emotion

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed emotions.yaml
var defaultTaxonomy []byte

// ErrUnknownEmotion is returned when an id is not in the taxonomy.
var ErrUnknownEmotion = errors.New("unknown emotion")

// Emotion is one taxonomy entry. Description is optional and serialises as null.
type Emotion struct {
	ID          int     `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	RGB         int     `json:"rgb" yaml:"rgb"`
	Description *string `json:"description" yaml:"description"`
}

// Hex renders RGB as #rrggbb.
func (e Emotion) Hex() string {
	return fmt.Sprintf("#%06x", e.RGB&0xffffff)
}

type taxonomyFile struct {
	Emotions []Emotion `yaml:"emotions"`
}

// Taxonomy is a read-only id index over emotions.
type Taxonomy struct {
	byID map[int]Emotion
	ids  []int
}

// Default returns the embedded taxonomy.
func Default() *Taxonomy {
	t, err := Parse(defaultTaxonomy)
	if err != nil {
		panic(fmt.Sprintf("emotion: embedded taxonomy is invalid: %v", err))
	}
	return t
}

// Load reads a taxonomy from a YAML file. An empty path returns the default.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates taxonomy YAML.
func Parse(data []byte) (*Taxonomy, error) {
	var f taxonomyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	if len(f.Emotions) == 0 {
		return nil, fmt.Errorf("taxonomy has no emotions")
	}

	t := &Taxonomy{byID: make(map[int]Emotion, len(f.Emotions))}
	for _, e := range f.Emotions {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			return nil, fmt.Errorf("emotion %d: name is required", e.ID)
		}
		if e.RGB < 0 || e.RGB > 0xffffff {
			return nil, fmt.Errorf("emotion %d: rgb %d out of range", e.ID, e.RGB)
		}
		if _, dup := t.byID[e.ID]; dup {
			return nil, fmt.Errorf("emotion %d: duplicate id", e.ID)
		}
		t.byID[e.ID] = e
		t.ids = append(t.ids, e.ID)
	}
	sort.Ints(t.ids)
	return t, nil
}

// Get returns the emotion with the given id.
func (t *Taxonomy) Get(id int) (Emotion, error) {
	e, ok := t.byID[id]
	if !ok {
		return Emotion{}, fmt.Errorf("%w: %d", ErrUnknownEmotion, id)
	}
	return e, nil
}

// List returns all emotions ordered by id.
func (t *Taxonomy) List() []Emotion {
	out := make([]Emotion, 0, len(t.ids))
	for _, id := range t.ids {
		out = append(out, t.byID[id])
	}
	return out
}
