package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// Species describes one catalog entry and the attributes the quota engine reads
type Species struct {
	ID       int    `yaml:"id"`
	Name     string `yaml:"name"`
	Common   bool   `yaml:"common"`
	IVLocked bool   `yaml:"iv_locked"`
	Premium  bool   `yaml:"premium"`
}

type file struct {
	Locations []string  `yaml:"locations"`
	Species   []Species `yaml:"species"`
}

// Catalog is read-only after construction and safe for concurrent use
type Catalog struct {
	byID      map[int]Species
	byName    map[string]int
	ordered   []Species
	locations []string
	byCity    map[string]string
}

// Load reads the catalog from path, or the built-in one when path is empty
func Load(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		data = b
	}
	return Parse(data)
}

// Parse builds a catalog from its YAML form
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		byID:   make(map[int]Species, len(f.Species)),
		byName: make(map[string]int, len(f.Species)),
		byCity: make(map[string]string, len(f.Locations)),
	}

	for _, s := range f.Species {
		if s.ID <= 0 {
			return nil, fmt.Errorf("species %q: id must be positive", s.Name)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("species id %d declared twice", s.ID)
		}
		c.byID[s.ID] = s
		if key := normalize(s.Name); key != "" {
			c.byName[key] = s.ID
		}
		c.ordered = append(c.ordered, s)
	}
	sort.Slice(c.ordered, func(i, j int) bool { return c.ordered[i].ID < c.ordered[j].ID })

	for _, city := range f.Locations {
		city = strings.TrimSpace(city)
		if city == "" {
			continue
		}
		key := foldCity(city)
		if _, dup := c.byCity[key]; dup {
			continue
		}
		c.byCity[key] = city
		c.locations = append(c.locations, city)
	}

	return c, nil
}

// Resolve maps a numeric id or a display name to a species
func (c *Catalog) Resolve(nameOrID string) (Species, bool) {
	token := strings.TrimSpace(nameOrID)
	if token == "" {
		return Species{}, false
	}

	if id, err := strconv.Atoi(token); err == nil {
		s, ok := c.byID[id]
		return s, ok
	}

	id, ok := c.byName[normalize(token)]
	if !ok {
		return Species{}, false
	}
	return c.byID[id], true
}

func (c *Catalog) Species(id int) (Species, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// DisplayName falls back to the numeric id for species missing from the catalog
func (c *Catalog) DisplayName(id int) string {
	if s, ok := c.byID[id]; ok {
		return s.Name
	}
	return strconv.Itoa(id)
}

// All returns every species ordered by id
func (c *Catalog) All() []Species {
	out := make([]Species, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// KnownCities returns the configured locations in declaration order
func (c *Catalog) KnownCities() []string {
	out := make([]string, len(c.locations))
	copy(out, c.locations)
	return out
}

// Canonical returns the catalog spelling of city, matched case-insensitively
func (c *Catalog) Canonical(city string) (string, bool) {
	canonical, ok := c.byCity[foldCity(city)]
	return canonical, ok
}

func normalize(name string) string {
	folded := cases.Fold().String(name)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r == '♀':
			b.WriteRune('f')
		case r == '♂':
			b.WriteRune('m')
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

func foldCity(city string) string {
	return cases.Fold().String(strings.TrimSpace(city))
}
