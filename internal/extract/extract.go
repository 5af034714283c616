// Package extract turns raw utterances into partial preference maps.
// It combines exact whole-word catalog lookup, regex patterns with
// bounded edit-distance correction, and "any"-quantifier handling.
// Extraction is purely lexical; the dialog layer decides what to do
// with the result.
package extract

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"

	"dinerd/internal/catalog"
)

// Any is the sentinel value meaning "no constraint" for a slot.
const Any = "Any"

// Patterns for the per-slot and combined extraction steps.
var (
	foodPattern       = regexp.MustCompile(`(\w+) food`)
	areaPattern       = regexp.MustCompile(`in the (\w+)`)
	pricePattern      = regexp.MustCompile(`(\w+) priced`)
	restaurantPattern = regexp.MustCompile(`(\w+) restaurant`)
	anyPattern        = regexp.MustCompile(`any (\w+)`)
	bareAnyPattern    = regexp.MustCompile(`\bany\b`)
)

// slotPatterns pairs each catalog slot with its extraction pattern.
var slotPatterns = []struct {
	slot    string
	pattern *regexp.Regexp
}{
	{catalog.SlotFood, foodPattern},
	{catalog.SlotArea, areaPattern},
	{catalog.SlotPriceRange, pricePattern},
}

// maxEditDistance is the fuzzy-correction bound for catalog values.
const maxEditDistance = 2

// RequirementVocabulary is the fixed set of additional requirements the
// inference engine knows rules for.
var RequirementVocabulary = []string{"touristic", "assigned seats", "children", "romantic"}

// Extract maps an utterance to a partial preference map using the catalog
// as controlled vocabulary. contextSlot names the slot the system just
// asked about ("" when none); it only matters for the bare-"any" rule.
//
// Steps run in order and never overwrite a slot set by an earlier step,
// so the first matching rule for a slot wins:
//  1. whole-word scan of every known catalog value
//  2. per-slot patterns with fuzzy correction to a catalog value
//  3. "<word> restaurant" fuzzy-matched against every slot's values
//  4. "any <word>" / bare "any" setting a slot to the Any sentinel
func Extract(utterance string, cat *catalog.Catalog, contextSlot string) map[string]string {
	text := strings.ToLower(utterance)
	prefs := make(map[string]string)

	// Step 1: exact whole-word matches of known values.
	for _, slot := range catalog.Slots {
		for _, value := range cat.ValuesFor(slot) {
			if containsWholeWord(text, value) {
				prefs[slot] = value
				break
			}
		}
	}

	// Step 2: slot patterns with fuzzy correction.
	for _, sp := range slotPatterns {
		if _, ok := prefs[sp.slot]; ok {
			continue
		}
		m := sp.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if value, ok := closestValue(m[1], cat.ValuesFor(sp.slot), maxEditDistance); ok {
			prefs[sp.slot] = value
		}
	}

	// Step 3: "<word> restaurant" against every slot's value set.
	if m := restaurantPattern.FindStringSubmatch(text); m != nil {
		for _, slot := range catalog.Slots {
			if _, ok := prefs[slot]; ok {
				continue
			}
			if value, ok := closestValue(m[1], cat.ValuesFor(slot), maxEditDistance); ok {
				prefs[slot] = value
				break
			}
		}
	}

	// Step 4: universal quantifier.
	matchedAny := false
	if m := anyPattern.FindStringSubmatch(text); m != nil {
		if slot, ok := matchSlotName(m[1]); ok {
			if _, taken := prefs[slot]; !taken {
				prefs[slot] = Any
			}
			matchedAny = true
		}
	}
	if !matchedAny && contextSlot != "" && bareAnyPattern.MatchString(text) {
		if _, taken := prefs[contextSlot]; !taken && len(prefs) <= 2 {
			prefs[contextSlot] = Any
		}
	}

	return prefs
}

// ExtractRequirement scans the utterance for an additional requirement.
// Unigrams and bigrams are compared against the fixed vocabulary with
// edit distance <= 2; the first match in utterance order wins. Returns
// the canonical vocabulary term and whether one was found.
func ExtractRequirement(utterance string) (string, bool) {
	tokens := tokenize(strings.ToLower(utterance))
	for i := range tokens {
		candidates := []string{tokens[i]}
		if i+1 < len(tokens) {
			candidates = append(candidates, tokens[i]+" "+tokens[i+1])
		}
		for _, cand := range candidates {
			for _, term := range RequirementVocabulary {
				if levenshtein.ComputeDistance(cand, term) <= maxEditDistance {
					return term, true
				}
			}
		}
	}
	return "", false
}

// matchSlotName fuzzy-matches a word against the slot names themselves.
// pricerange gets a wider bound so "price" and "priced" still reach it.
func matchSlotName(word string) (string, bool) {
	for _, slot := range catalog.Slots {
		limit := maxEditDistance
		if slot == catalog.SlotPriceRange {
			limit = 5
		}
		if levenshtein.ComputeDistance(word, slot) <= limit {
			return slot, true
		}
	}
	return "", false
}

// closestValue returns the known value nearest to word within limit.
// Ties resolve to the first value in sorted catalog order.
func closestValue(word string, values []string, limit int) (string, bool) {
	best := ""
	bestDist := limit + 1
	for _, v := range values {
		if d := levenshtein.ComputeDistance(word, v); d < bestDist {
			best, bestDist = v, d
		}
	}
	return best, bestDist <= limit
}

func containsWholeWord(text, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		leftOK := start == 0 || !isWordByte(text[start-1])
		rightOK := end == len(text) || !isWordByte(text[end])
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}
