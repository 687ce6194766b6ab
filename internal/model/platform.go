package model

import (
	_ "embed"
	"fmt"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Platform is a quick-commerce retailer the pipeline can query for prices.
// The registry is static reference data; platforms never change mid-session.
type Platform struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	LogoURL   string `yaml:"logo_url" json:"logo_url"`
	SearchURL string `yaml:"search_url" json:"search_url"` // %s is replaced by the URL-encoded query
}

// SearchTarget resolves the platform's search URL for a grocery item query.
// Platforms without a search template are not scrapeable.
func (p Platform) SearchTarget(query string) (string, bool) {
	if p.SearchURL == "" {
		return "", false
	}
	return fmt.Sprintf(p.SearchURL, url.QueryEscape(query)), true
}

// PlatformRegistry is an indexed, immutable collection of platforms.
type PlatformRegistry struct {
	Platforms []Platform
	byID      map[string]*Platform
}

//go:embed platforms.yaml
var platformsYAML []byte

// LoadPlatformRegistry parses the embedded platform reference data.
func LoadPlatformRegistry() (*PlatformRegistry, error) {
	return parsePlatformRegistry(platformsYAML)
}

func parsePlatformRegistry(data []byte) (*PlatformRegistry, error) {
	var doc struct {
		Platforms []Platform `yaml:"platforms"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "model: parse platform registry")
	}

	r := &PlatformRegistry{
		Platforms: doc.Platforms,
		byID:      make(map[string]*Platform, len(doc.Platforms)),
	}
	for i := range r.Platforms {
		p := &r.Platforms[i]
		if p.ID == "" || p.Name == "" {
			return nil, eris.Errorf("model: platform entry %d missing id or name", i)
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, eris.Errorf("model: duplicate platform id %q", p.ID)
		}
		r.byID[p.ID] = p
	}
	return r, nil
}

// ByID returns the platform for the given id, or nil if not found.
func (r *PlatformRegistry) ByID(id string) *Platform {
	return r.byID[strings.TrimSpace(id)]
}

// IDs returns all platform ids in registry order.
func (r *PlatformRegistry) IDs() []string {
	ids := make([]string, 0, len(r.Platforms))
	for _, p := range r.Platforms {
		ids = append(ids, p.ID)
	}
	return ids
}
