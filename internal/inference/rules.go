// Package inference evaluates additional-requirement rules over
// restaurant records. A requirement like "romantic" is not a dataset
// column; it is derived from attributes such as crowdedness and stay
// length by an ordered rule list loaded from a JSON file.
package inference

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"dinerd/internal/store"
)

// Condition is a single equality test on a record attribute.
type Condition struct {
	Category string `json:"category"`
	Value    string `json:"value"`
}

// Rule asserts or vetoes a requirement when all its conditions hold.
type Rule struct {
	Conditions  []Condition `json:"conditions"`
	Consequence bool        `json:"consequence"`
}

// RuleSet maps a requirement name to its ordered rule list.
type RuleSet map[string][]Rule

// Load reads a rule file. A missing file, malformed JSON, an empty set,
// or a rule without conditions is a configuration error: the caller is
// expected to fail at startup, not per turn.
func Load(path string) (RuleSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates rule JSON.
func Parse(raw []byte) (RuleSet, error) {
	var rs RuleSet
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("malformed rule file: %w", err)
	}
	if len(rs) == 0 {
		return nil, fmt.Errorf("rule file defines no requirements")
	}
	for req, rules := range rs {
		if len(rules) == 0 {
			return nil, fmt.Errorf("requirement %q has no rules", req)
		}
		for i, rule := range rules {
			if len(rule.Conditions) == 0 {
				return nil, fmt.Errorf("requirement %q rule %d has no conditions", req, i)
			}
			for _, cond := range rule.Conditions {
				if cond.Category == "" || cond.Value == "" {
					return nil, fmt.Errorf("requirement %q rule %d has an empty condition", req, i)
				}
			}
		}
	}
	return rs, nil
}

// Known reports whether the set has rules for the requirement.
func (rs RuleSet) Known(requirement string) bool {
	_, ok := rs[requirement]
	return ok
}

// matches reports whether every condition of the rule holds for r.
func matches(rule Rule, r store.Restaurant) bool {
	for _, cond := range rule.Conditions {
		if r.Attribute(cond.Category) != cond.Value {
			return false
		}
	}
	return true
}

// verdict evaluates the requirement's rule list for one record.
// A record is in iff some consequence-true rule fully matches and no
// consequence-false rule matches; the first veto stops evaluation.
// contributing collects the conditions behind the verdict: the asserting
// rule's conditions as-is, a vetoing rule's prefixed with "not".
func (rs RuleSet) verdict(r store.Restaurant, requirement string) (ok bool, contributing []Condition) {
	for _, rule := range rs[requirement] {
		if !matches(rule, r) {
			continue
		}
		if !rule.Consequence {
			veto := make([]Condition, 0, len(rule.Conditions))
			for _, cond := range rule.Conditions {
				veto = append(veto, Condition{Category: cond.Category, Value: "not " + cond.Value})
			}
			return false, veto
		}
		ok = true
		contributing = append(contributing, rule.Conditions...)
	}
	if !ok {
		return false, nil
	}
	return true, contributing
}

// Infer filters records down to those satisfying the requirement,
// preserving their relative order. Applying Infer to its own output is a
// no-op.
func (rs RuleSet) Infer(records []store.Restaurant, requirement string) []store.Restaurant {
	var out []store.Restaurant
	for _, r := range records {
		if ok, _ := rs.verdict(r, requirement); ok {
			out = append(out, r)
		}
	}
	return out
}

// Explain renders why a record satisfies (or fails) the requirement as a
// templated sentence over the contributing attribute/value pairs.
func (rs RuleSet) Explain(r store.Restaurant, requirement string) string {
	ok, contributing := rs.verdict(r, requirement)
	if len(contributing) == 0 {
		return ""
	}
	verb := "is"
	if !ok {
		verb = "is not"
	}
	return fmt.Sprintf("This restaurant %s %s because %s.", verb, requirement, joinConditions(contributing))
}

// CheckContradiction tests stated preferences against the requirement's
// rules. A consequence-true rule contradicts a preference that differs
// from its condition; a consequence-false rule contradicts one that
// equals it. Returns whether any contradiction was found plus an
// explanation in the same condition-enumeration style.
func (rs RuleSet) CheckContradiction(preferences map[string]string, requirement string) (bool, string) {
	var conflicting []Condition
	for _, rule := range rs[requirement] {
		for _, cond := range rule.Conditions {
			given, ok := preferences[cond.Category]
			if !ok || strings.EqualFold(given, store.AnySentinel) {
				continue
			}
			if rule.Consequence && given != cond.Value {
				conflicting = append(conflicting, cond)
			}
			if !rule.Consequence && given == cond.Value {
				conflicting = append(conflicting, Condition{Category: cond.Category, Value: "not " + cond.Value})
			}
		}
	}
	if len(conflicting) == 0 {
		return false, ""
	}
	explanation := fmt.Sprintf(
		"The requirement %s leads to a contradiction with your other preferences, because it needs %s.",
		requirement, joinConditions(conflicting),
	)
	return true, explanation
}

// joinConditions renders "a is x, b is y and c is z".
func joinConditions(conds []Condition) string {
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		parts = append(parts, fmt.Sprintf("the %s is %s", strings.ReplaceAll(c.Category, "_", " "), c.Value))
	}
	switch len(parts) {
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}
