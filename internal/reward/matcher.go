// Package reward implements the reward qualification engine: matching
// transactions against a card's bonus rule, aggregating a billing period,
// and deriving progress, reward estimates, and recommendations.
package reward

import (
	"regexp"
	"strings"

	"github.com/marchweiss/perkly/internal/model"
)

// Matcher evaluates transactions against a single bonus rule's
// qualification criteria.
type Matcher struct {
	rule     *model.BonusRule
	compiled map[string]*regexp.Regexp
}

// NewMatcher creates a matcher for the given rule. In regex mode merchant
// entries are compiled once, case-insensitively; an entry that does not
// compile never matches.
func NewMatcher(rule *model.BonusRule) *Matcher {
	m := &Matcher{
		rule:     rule,
		compiled: make(map[string]*regexp.Regexp),
	}

	if rule.MerchantMatchMode == model.MatchRegex {
		for _, merchant := range rule.QualifyingMerchants {
			if merchant == "" {
				continue
			}
			if re, err := regexp.Compile("(?i)" + merchant); err == nil {
				m.compiled[merchant] = re
			}
		}
	}

	return m
}

// MatchMerchant tests the description against the rule's merchant list and
// returns the rule-defined merchant string that matched. The canonical
// label comes from the rule's own vocabulary, never from the raw
// transaction text.
func (m *Matcher) MatchMerchant(description string) (string, bool) {
	lowered := strings.ToLower(description)

	for _, merchant := range m.rule.QualifyingMerchants {
		if merchant == "" {
			continue
		}

		switch m.rule.MerchantMatchMode {
		case model.MatchExact:
			if strings.EqualFold(description, merchant) {
				return merchant, true
			}
		case model.MatchContains:
			if strings.Contains(lowered, strings.ToLower(merchant)) {
				return merchant, true
			}
		case model.MatchRegex:
			if re, ok := m.compiled[merchant]; ok && re.MatchString(description) {
				return merchant, true
			}
		}
	}

	return "", false
}

// HasExcludedKeyword reports whether any exclusion keyword appears in the
// description. A match vetoes qualification regardless of merchant or
// category criteria.
func (m *Matcher) HasExcludedKeyword(description string) bool {
	lowered := strings.ToLower(description)
	for _, keyword := range m.rule.ExcludeKeywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// matchesCategory checks the transaction's category label against the
// rule's category set. An empty set matches everything.
func (m *Matcher) matchesCategory(category string) bool {
	if len(m.rule.QualifyingCategories) == 0 {
		return true
	}
	for _, c := range m.rule.QualifyingCategories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// Qualifies reports whether the transaction qualifies under the rule, and
// returns the canonical merchant label when a merchant entry matched. The
// label is empty when the rule has no merchant list.
func (m *Matcher) Qualifies(txn model.Transaction) (string, bool) {
	if m.HasExcludedKeyword(txn.Description) {
		return "", false
	}

	var label string
	if len(m.rule.QualifyingMerchants) > 0 {
		matched, ok := m.MatchMerchant(txn.Description)
		if !ok {
			return "", false
		}
		label = matched
	}

	if !m.matchesCategory(txn.Category) {
		return "", false
	}

	return label, true
}
