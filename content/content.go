// Package content holds the static catalog shipped with the app: articles
// with their quizzes, trivia facts and onboarding slides.
package content

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark31d/NobleStarBurstLegacy/models"
)

//go:embed assets/catalog.json
var catalogJSON []byte

// Catalog is the immutable content of the app
type Catalog struct {
	Articles   []models.Article `json:"articles"`
	Facts      []models.Fact    `json:"facts"`
	Onboarding []models.Slide   `json:"onboarding"`

	byID map[string]int
}

// Load parses and validates the embedded catalog
func Load() (*Catalog, error) {
	return Parse(catalogJSON)
}

// Parse parses a catalog document and validates it
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Articles) == 0 {
		return errors.New("catalog has no articles")
	}
	c.byID = make(map[string]int, len(c.Articles))
	for i, a := range c.Articles {
		if a.ID == "" {
			return fmt.Errorf("article %d has no id", i)
		}
		if _, dup := c.byID[a.ID]; dup {
			return fmt.Errorf("duplicate article id %q", a.ID)
		}
		if len(a.Options) != 3 {
			return fmt.Errorf("article %s has %d options", a.ID, len(a.Options))
		}
		if a.Correct < 0 || a.Correct >= len(a.Options) {
			return fmt.Errorf("article %s has correct index %d out of range", a.ID, a.Correct)
		}
		c.byID[a.ID] = i
	}
	for i, f := range c.Facts {
		if f.Cost <= 0 {
			return fmt.Errorf("fact %d has non-positive cost", i)
		}
	}
	return nil
}

// Article looks up an article by id
func (c *Catalog) Article(id string) (models.Article, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.Article{}, false
	}
	return c.Articles[i], true
}

// Index returns the position of the article in catalog order
func (c *Catalog) Index(id string) (int, bool) {
	i, ok := c.byID[id]
	return i, ok
}
