// Package category partitions transactions into a small fixed taxonomy by
// case-insensitive keyword matching against the transaction description. The
// keyword table is held in a yaml file with an embedded default, and can be
// hot-reloaded in serve mode (see watcher.go).
package category

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	yaml "gopkg.in/yaml.v2"
)

//go:embed categories.yaml
var defaultCategoriesYAML []byte

// Category is one taxonomy entry. Icon and Color are presentation hints
// passed through to dashboard consumers untouched.
type Category struct {
	Name     string   `yaml:"name"`
	Icon     string   `yaml:"icon"`
	Color    string   `yaml:"color"`
	Keywords []string `yaml:"keywords"`
}

// Config is the parsed keyword table. Category order is significant: the
// first category with a matching keyword wins.
type Config struct {
	Fallback   Category   `yaml:"fallback"`
	Categories []Category `yaml:"categories"`
}

// validateAndPrepare checks the parsed table and upper-cases all keywords
// once so matching does not re-fold on every call.
func (c *Config) validateAndPrepare() error {
	if c.Fallback.Name == "" {
		return fmt.Errorf("fallback category needs a name")
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one category is needed")
	}
	for i, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("category %d has no name", i)
		}
		if len(cat.Keywords) == 0 {
			return fmt.Errorf("category %q has no keywords", cat.Name)
		}
		for j, k := range cat.Keywords {
			if k == "" {
				return fmt.Errorf("category %q has an empty keyword", cat.Name)
			}
			c.Categories[i].Keywords[j] = strings.ToUpper(k)
		}
	}
	return nil
}

// parseConfig parses and validates a yaml keyword table.
func parseConfig(data []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("categories yaml parsing error: %w", err)
	}
	if err := c.validateAndPrepare(); err != nil {
		return nil, fmt.Errorf("categories config error: %w", err)
	}
	return c, nil
}

// Classifier wraps a Config behind a lock so the table can be swapped by the
// file watcher while handlers read it.
type Classifier struct {
	mu       sync.RWMutex
	config   *Config
	filePath string
}

// NewClassifier makes a Classifier from the embedded default table.
func NewClassifier() (*Classifier, error) {
	config, err := parseConfig(defaultCategoriesYAML)
	if err != nil {
		return nil, err
	}
	return &Classifier{config: config}, nil
}

// NewClassifierFromFile makes a Classifier from a yaml file on disk,
// remembering the path for Reload.
func NewClassifierFromFile(filePath string) (*Classifier, error) {
	c := &Classifier{filePath: filePath}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the keyword table from the file the Classifier was made
// from. A Classifier made from the embedded default has nothing to reload.
func (c *Classifier) Reload() error {
	if c.filePath == "" {
		return nil
	}
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		return fmt.Errorf("could not read categories file %q: %w", c.filePath, err)
	}
	config, err := parseConfig(data)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.config = config
	c.mu.Unlock()
	return nil
}

// Categorize returns the category for a transaction description.
func (c *Classifier) Categorize(description string) Category {
	c.mu.RLock()
	defer c.mu.RUnlock()

	upper := strings.ToUpper(description)
	for _, cat := range c.config.Categories {
		for _, k := range cat.Keywords {
			if strings.Contains(upper, k) {
				return cat
			}
		}
	}
	return c.config.Fallback
}

// Spend is one transaction put to the categorizer: its description and
// signed amount.
type Spend struct {
	Description string
	Amount      decimal.Decimal
}

// CategoryTotal is one row of the per-category breakdown.
type CategoryTotal struct {
	Category         string
	TransactionCount int
	TotalAmount      decimal.Decimal
	Icon             string
	Color            string
}

// Breakdown aggregates spends into per-category counts and total absolute
// amounts. Every spend lands in exactly one category, so the sum of the
// returned totals always equals the sum of the input magnitudes. Categories
// with a zero total are dropped; results are ordered by total descending,
// then by name so equal totals are stable.
func (c *Classifier) Breakdown(spends []Spend) []CategoryTotal {

	totals := map[string]*CategoryTotal{}
	for _, s := range spends {
		cat := c.Categorize(s.Description)
		entry, ok := totals[cat.Name]
		if !ok {
			entry = &CategoryTotal{
				Category: cat.Name,
				Icon:     cat.Icon,
				Color:    cat.Color,
			}
			totals[cat.Name] = entry
		}
		entry.TransactionCount++
		entry.TotalAmount = entry.TotalAmount.Add(s.Amount.Abs())
	}

	breakdown := make([]CategoryTotal, 0, len(totals))
	for _, entry := range totals {
		if entry.TotalAmount.IsZero() {
			continue
		}
		breakdown = append(breakdown, *entry)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if !breakdown[i].TotalAmount.Equal(breakdown[j].TotalAmount) {
			return breakdown[i].TotalAmount.GreaterThan(breakdown[j].TotalAmount)
		}
		return breakdown[i].Category < breakdown[j].Category
	})
	return breakdown
}
