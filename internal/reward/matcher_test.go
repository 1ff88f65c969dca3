package reward

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marchweiss/perkly/internal/model"
)

func TestMatcher_MatchMerchant(t *testing.T) {
	tests := []struct {
		name        string
		mode        model.MatchMode
		merchants   []string
		description string
		wantLabel   string
		wantMatch   bool
	}{
		{
			name:        "exact match case insensitive",
			mode:        model.MatchExact,
			merchants:   []string{"CoffeeCo"},
			description: "coffeeco",
			wantLabel:   "CoffeeCo",
			wantMatch:   true,
		},
		{
			name:        "exact match rejects substring",
			mode:        model.MatchExact,
			merchants:   []string{"CoffeeCo"},
			description: "CoffeeCo Orchard",
			wantMatch:   false,
		},
		{
			name:        "contains match",
			mode:        model.MatchContains,
			merchants:   []string{"CoffeeCo", "MartX"},
			description: "MARTX EXPRESS #42",
			wantLabel:   "MartX",
			wantMatch:   true,
		},
		{
			name:        "contains returns first matching entry",
			mode:        model.MatchContains,
			merchants:   []string{"Mart", "MartX"},
			description: "MartX Express",
			wantLabel:   "Mart",
			wantMatch:   true,
		},
		{
			name:        "regex match case insensitive",
			mode:        model.MatchRegex,
			merchants:   []string{`coffee(co|house)`},
			description: "Best COFFEEHOUSE Downtown",
			wantLabel:   `coffee(co|house)`,
			wantMatch:   true,
		},
		{
			name:        "invalid regex never matches",
			mode:        model.MatchRegex,
			merchants:   []string{`coffee(`},
			description: "coffee(",
			wantMatch:   false,
		},
		{
			name:        "invalid regex does not block later entries",
			mode:        model.MatchRegex,
			merchants:   []string{`coffee(`, `martx`},
			description: "MartX Express",
			wantLabel:   `martx`,
			wantMatch:   true,
		},
		{
			name:        "no merchants never matches",
			mode:        model.MatchContains,
			merchants:   nil,
			description: "Anything",
			wantMatch:   false,
		},
		{
			name:        "empty merchant entries are skipped",
			mode:        model.MatchContains,
			merchants:   []string{""},
			description: "Anything",
			wantMatch:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := &model.BonusRule{
				MerchantMatchMode:   tt.mode,
				QualifyingMerchants: tt.merchants,
			}
			label, ok := NewMatcher(rule).MatchMerchant(tt.description)
			assert.Equal(t, tt.wantMatch, ok)
			assert.Equal(t, tt.wantLabel, label)
		})
	}
}

func TestMatcher_HasExcludedKeyword(t *testing.T) {
	rule := &model.BonusRule{
		ExcludeKeywords: []string{"voucher", "top-up"},
	}
	m := NewMatcher(rule)

	assert.True(t, m.HasExcludedKeyword("Voucher MartX Redeem"))
	assert.True(t, m.HasExcludedKeyword("grab TOP-UP wallet"))
	assert.False(t, m.HasExcludedKeyword("MartX Express"))
	assert.False(t, NewMatcher(&model.BonusRule{}).HasExcludedKeyword("anything"))
}

func TestMatcher_Qualifies(t *testing.T) {
	tests := []struct {
		name      string
		rule      model.BonusRule
		txn       model.Transaction
		wantLabel string
		wantOK    bool
	}{
		{
			name: "merchant match qualifies with canonical label",
			rule: model.BonusRule{
				MerchantMatchMode:   model.MatchContains,
				QualifyingMerchants: []string{"CoffeeCo"},
			},
			txn:       model.Transaction{Description: "CoffeeCo Orchard"},
			wantLabel: "CoffeeCo",
			wantOK:    true,
		},
		{
			name: "exclusion keyword vetoes a merchant match",
			rule: model.BonusRule{
				MerchantMatchMode:   model.MatchContains,
				QualifyingMerchants: []string{"MartX"},
				ExcludeKeywords:     []string{"voucher"},
			},
			txn:    model.Transaction{Description: "Voucher MartX Redeem"},
			wantOK: false,
		},
		{
			name: "no criteria means everything qualifies",
			rule: model.BonusRule{MerchantMatchMode: model.MatchContains},
			txn:  model.Transaction{Description: "Random Store"},
			// no merchant list, so no canonical label either
			wantLabel: "",
			wantOK:    true,
		},
		{
			name: "category set alone gates qualification",
			rule: model.BonusRule{
				MerchantMatchMode:    model.MatchContains,
				QualifyingCategories: []string{"dining"},
			},
			txn:    model.Transaction{Description: "MartX", Category: "groceries"},
			wantOK: false,
		},
		{
			name: "category match is case insensitive",
			rule: model.BonusRule{
				MerchantMatchMode:    model.MatchContains,
				QualifyingCategories: []string{"Dining"},
			},
			txn:       model.Transaction{Description: "CoffeeCo", Category: "dining"},
			wantLabel: "",
			wantOK:    true,
		},
		{
			name: "merchant and category must both hold",
			rule: model.BonusRule{
				MerchantMatchMode:    model.MatchContains,
				QualifyingMerchants:  []string{"CoffeeCo"},
				QualifyingCategories: []string{"dining"},
			},
			txn:    model.Transaction{Description: "CoffeeCo Orchard", Category: "travel"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, ok := NewMatcher(&tt.rule).Qualifies(tt.txn)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantLabel, label)
		})
	}
}
