// Package catalog defines the subscription tiers offered at signup.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed tiers.yaml
var tiersYAML []byte

// ErrNotFound is returned when a tier ID does not exist.
var ErrNotFound = errors.New("tier not found")

// Tier is a subscription plan. Tiers are fixed at deploy time;
// the catalog never changes at runtime.
type Tier struct {
	ID          string
	Name        string
	Description string
	Containers  int
	Size        string
	WeeklyPrice decimal.Decimal
	Popular     bool
	Features    []string
}

// Catalog is an immutable set of tiers.
type Catalog struct {
	tiers map[string]Tier
	order []string
}

type tierYAML struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Containers  int      `yaml:"containers"`
	Size        string   `yaml:"size"`
	WeeklyPrice string   `yaml:"weekly_price"`
	Popular     bool     `yaml:"popular"`
	Features    []string `yaml:"features"`
}

type tiersFile struct {
	Tiers []tierYAML `yaml:"tiers"`
}

// Load parses and validates a tier definition document.
func Load(data []byte) (*Catalog, error) {
	var file tiersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tier definitions: %w", err)
	}
	if len(file.Tiers) == 0 {
		return nil, errors.New("no tiers defined")
	}

	c := &Catalog{tiers: make(map[string]Tier, len(file.Tiers))}
	for _, raw := range file.Tiers {
		if raw.ID == "" {
			return nil, errors.New("tier with empty id")
		}
		if _, dup := c.tiers[raw.ID]; dup {
			return nil, fmt.Errorf("duplicate tier id: %s", raw.ID)
		}
		if raw.Containers <= 0 {
			return nil, fmt.Errorf("tier %s: containers must be positive", raw.ID)
		}
		// Allocation presets are quarter fractions, so every count
		// must split cleanly into quarters.
		if raw.Containers%4 != 0 {
			return nil, fmt.Errorf("tier %s: containers must be divisible by 4", raw.ID)
		}
		price, err := decimal.NewFromString(raw.WeeklyPrice)
		if err != nil {
			return nil, fmt.Errorf("tier %s: invalid weekly price %q: %w", raw.ID, raw.WeeklyPrice, err)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("tier %s: weekly price must be positive", raw.ID)
		}

		c.tiers[raw.ID] = Tier{
			ID:          raw.ID,
			Name:        raw.Name,
			Description: raw.Description,
			Containers:  raw.Containers,
			Size:        raw.Size,
			WeeklyPrice: price,
			Popular:     raw.Popular,
			Features:    raw.Features,
		}
		c.order = append(c.order, raw.ID)
	}

	sort.SliceStable(c.order, func(i, j int) bool {
		return c.tiers[c.order[i]].Containers < c.tiers[c.order[j]].Containers
	})

	return c, nil
}

// Default returns the catalog built from the embedded tier definitions.
// Panics on a malformed embedded file since that is a build defect.
func Default() *Catalog {
	c, err := Load(tiersYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// List returns all tiers ordered by container count.
func (c *Catalog) List() []Tier {
	out := make([]Tier, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.tiers[id])
	}
	return out
}

// Get returns the tier with the given ID.
func (c *Catalog) Get(id string) (Tier, error) {
	t, ok := c.tiers[id]
	if !ok {
		return Tier{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t, nil
}

// Recommended returns the tier marked popular, falling back to the
// first tier if none is marked.
func (c *Catalog) Recommended() Tier {
	for _, id := range c.order {
		if c.tiers[id].Popular {
			return c.tiers[id]
		}
	}
	return c.tiers[c.order[0]]
}
