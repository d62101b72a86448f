package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Selectors lists the CSS selectors used to pull fields out of a listing
// card. A zero field in an override file keeps the default.
type Selectors struct {
	Card          string `yaml:"card"`
	Title         string `yaml:"title"`
	TitleFallback string `yaml:"title_fallback"`
	Price         string `yaml:"price"`
	Location      string `yaml:"location"`
	Link          string `yaml:"link"`
}

// DefaultSelectors matches the unegui.mn category page markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Card:          "div.js-item-listing",
		Title:         "a.advert__content-title",
		TitleFallback: "h2",
		Price:         ".advert__content-price",
		Location:      ".advert__content-place",
		Link:          "a.advert__content-title",
	}
}

// LoadSelectors returns the default selectors, overlaid with the YAML file
// at path when path is non-empty.
func LoadSelectors(path string) (Selectors, error) {
	sel := DefaultSelectors()
	if path == "" {
		return sel, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return sel, fmt.Errorf("selectors: read %q: %w", path, err)
	}

	var override Selectors
	if err := yaml.Unmarshal(data, &override); err != nil {
		return sel, fmt.Errorf("selectors: parse %q: %w", path, err)
	}

	return sel.merge(override), nil
}

func (s Selectors) merge(o Selectors) Selectors {
	pick := func(def, v string) string {
		if v != "" {
			return v
		}
		return def
	}
	return Selectors{
		Card:          pick(s.Card, o.Card),
		Title:         pick(s.Title, o.Title),
		TitleFallback: pick(s.TitleFallback, o.TitleFallback),
		Price:         pick(s.Price, o.Price),
		Location:      pick(s.Location, o.Location),
		Link:          pick(s.Link, o.Link),
	}
}
