// Package catalog holds the site's static content: the closed set of
// activity sections and the copy shown on the informational pages.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed site.yaml
var defaultContent []byte

// Section is the static configuration of one activity section. Key names
// the section's collection in the document store.
type Section struct {
	Slug        string `yaml:"slug" json:"slug"`
	Key         string `yaml:"key" json:"key"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Image       string `yaml:"image" json:"image"`
	Theme       string `yaml:"theme" json:"theme"`
}

type Hero struct {
	Title        string `yaml:"title"`
	Subtitle     string `yaml:"subtitle"`
	CallToAction string `yaml:"call_to_action"`
}

type Highlight struct {
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
	Theme string `yaml:"theme"`
}

type Testimonial struct {
	Quote  string `yaml:"quote"`
	Author string `yaml:"author"`
}

type BundleItem struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Theme       string   `yaml:"theme"`
	Benefits    []string `yaml:"benefits"`
}

type FAQ struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

type Catalog struct {
	Name          string        `yaml:"name"`
	Tagline       string        `yaml:"tagline"`
	StorefrontURL string        `yaml:"storefront_url"`
	SupportEmail  string        `yaml:"support_email"`
	Hero          Hero          `yaml:"hero"`
	Highlights    []Highlight   `yaml:"highlights"`
	Testimonials  []Testimonial `yaml:"testimonials"`
	Sections      []Section     `yaml:"sections"`
	Bundle        []BundleItem  `yaml:"bundle"`
	FAQ           []FAQ         `yaml:"faq"`

	bySlug map[string]int
	byKey  map[string]int
}

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	keyPattern  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)
)

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultContent)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	if len(c.Sections) == 0 {
		return errors.New("catalog: no sections defined")
	}
	if c.StorefrontURL != "" {
		u, err := url.Parse(c.StorefrontURL)
		if err != nil || u.Scheme != "https" && u.Scheme != "http" {
			return fmt.Errorf("catalog: invalid storefront url %q", c.StorefrontURL)
		}
	}

	c.bySlug = make(map[string]int, len(c.Sections))
	c.byKey = make(map[string]int, len(c.Sections))
	for i, s := range c.Sections {
		if !slugPattern.MatchString(s.Slug) {
			return fmt.Errorf("catalog: section %d has invalid slug %q", i, s.Slug)
		}
		// keys become storage key segments, so they must not carry separators
		if !keyPattern.MatchString(s.Key) {
			return fmt.Errorf("catalog: section %q has invalid key %q", s.Slug, s.Key)
		}
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("catalog: section %q has no title", s.Slug)
		}
		if _, dup := c.bySlug[s.Slug]; dup {
			return fmt.Errorf("catalog: duplicate section slug %q", s.Slug)
		}
		if _, dup := c.byKey[s.Key]; dup {
			return fmt.Errorf("catalog: duplicate section key %q", s.Key)
		}
		c.bySlug[s.Slug] = i
		c.byKey[s.Key] = i
	}
	return nil
}

func (c *Catalog) BySlug(slug string) (Section, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return Section{}, false
	}
	return c.Sections[i], true
}

func (c *Catalog) ByKey(key string) (Section, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Section{}, false
	}
	return c.Sections[i], true
}
