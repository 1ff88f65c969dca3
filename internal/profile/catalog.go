// Package profile provides the catalog of known bank-card reward profiles
// used to pre-populate bonus rules. Catalog content is configuration data,
// not engine logic.
package profile

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/marchweiss/perkly/internal/common"
	"github.com/marchweiss/perkly/internal/model"
)

//go:embed templates.yaml
var defaultCatalog []byte

// TemplateRule describes one bonus rule of a profile template. It mirrors
// model.BonusRule minus id, card reference, and timestamps.
type TemplateRule struct {
	MaxBonusSpend        *float64 `yaml:"max_bonus_spend,omitempty"`
	MilesPerDollar       *float64 `yaml:"miles_per_dollar,omitempty"`
	PointsToMilesRatio   *float64 `yaml:"points_to_miles_ratio,omitempty"`
	Name                 string   `yaml:"name"`
	MerchantMatchMode    string   `yaml:"merchant_match_mode"`
	RewardUnit           string   `yaml:"reward_unit"`
	QualifyingMerchants  []string `yaml:"qualifying_merchants,omitempty"`
	QualifyingCategories []string `yaml:"qualifying_categories,omitempty"`
	ExcludeKeywords      []string `yaml:"exclude_keywords,omitempty"`
	MinSpend             float64  `yaml:"min_spend"`
	MinMerchantCount     int      `yaml:"min_merchant_count"`
	BonusRate            float64  `yaml:"bonus_rate"`
	BaseRate             float64  `yaml:"base_rate"`
	Active               bool     `yaml:"active"`
}

// Template describes a specific bank card's known reward rules.
type Template struct {
	Key   string         `yaml:"key"`
	Bank  string         `yaml:"bank"`
	Card  string         `yaml:"card"`
	Rules []TemplateRule `yaml:"rules"`
}

// Catalog is an ordered set of profile templates keyed by template key.
type Catalog struct {
	byKey     map[string]Template
	templates []Template
}

type catalogFile struct {
	Templates []Template `yaml:"templates"`
}

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() (*Catalog, error) {
	return parseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog from the reader.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return parseCatalog(data)
}

// LoadCatalogFile reads a catalog from a YAML file on disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadCatalog(f)
}

func parseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	catalog := &Catalog{
		byKey:     make(map[string]Template, len(file.Templates)),
		templates: file.Templates,
	}
	for _, tmpl := range file.Templates {
		if tmpl.Key == "" {
			return nil, fmt.Errorf("catalog template %q is missing a key", tmpl.Card)
		}
		if _, exists := catalog.byKey[tmpl.Key]; exists {
			return nil, fmt.Errorf("%w: catalog template key %q", common.ErrDuplicateEntry, tmpl.Key)
		}
		catalog.byKey[tmpl.Key] = tmpl
	}

	return catalog, nil
}

// Templates returns the templates in catalog order.
func (c *Catalog) Templates() []Template {
	return c.templates
}

// Get looks up a template by key.
func (c *Catalog) Get(key string) (Template, bool) {
	tmpl, ok := c.byKey[key]
	return tmpl, ok
}

// BonusRules converts the template's rules into model rules for the given
// card. IDs and timestamps are left unset; the repository assigns fresh
// ones when the rules are installed.
func (t Template) BonusRules(cardID string) []model.BonusRule {
	rules := make([]model.BonusRule, 0, len(t.Rules))
	for _, r := range t.Rules {
		rules = append(rules, model.BonusRule{
			CardID:               cardID,
			Name:                 r.Name,
			IsActive:             r.Active,
			MinSpend:             r.MinSpend,
			MaxBonusSpend:        r.MaxBonusSpend,
			MinMerchantCount:     r.MinMerchantCount,
			MerchantMatchMode:    model.MatchMode(r.MerchantMatchMode),
			QualifyingMerchants:  r.QualifyingMerchants,
			QualifyingCategories: r.QualifyingCategories,
			ExcludeKeywords:      r.ExcludeKeywords,
			ExcludePayments:      true,
			BonusRate:            r.BonusRate,
			BaseRate:             r.BaseRate,
			RewardUnit:           model.RewardUnit(r.RewardUnit),
			MilesPerDollar:       r.MilesPerDollar,
			PointsToMilesRatio:   r.PointsToMilesRatio,
		})
	}
	return rules
}
