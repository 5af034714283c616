package classify

import (
	"context"
	"strings"
)

// keywordRule maps trigger keywords to an intent. Rules are evaluated in
// order; the first rule with a matching keyword wins.
type keywordRule struct {
	intent   Intent
	keywords []string
}

// defaultRules is the rule-based baseline. Order matters: more specific
// acts (restart, requests for alternatives) are checked before the broad
// ones, and Inform is the majority-class fallback rather than a rule.
var defaultRules = []keywordRule{
	{Restart, []string{"start over", "reset", "start again", "restart"}},
	{Bye, []string{"goodbye", "good bye", "bye", "see you"}},
	{ThankYou, []string{"thank you", "thanks", "appreciate"}},
	{ReqAlts, []string{"how about", "what about", "anything else", "another", "something else", "different"}},
	{ReqMore, []string{"more options", "more suggestions", "give me more"}},
	{Request, []string{"phone", "address", "postcode", "post code", "whats the", "what is the", "can i get", "could i get", "may i have"}},
	{Confirm, []string{"is it", "does it", "is that", "is there a"}},
	{Repeat, []string{"repeat", "say that again", "come again", "pardon"}},
	{Deny, []string{"dont want", "do not want", "not that", "i dont like"}},
	{Negate, []string{"no", "nope", "nah", "wrong"}},
	{Affirm, []string{"yes", "yeah", "yep", "right", "correct", "perfect"}},
	{Ack, []string{"okay", "ok", "fine", "alright", "kay", "good"}},
	{Hello, []string{"hello", "hi there", "hey", "halo", "hi"}},
}

// KeywordClassifier is a deterministic keyword-rule baseline.
// It is the default backend for offline runs and for tests, mirroring the
// rule-based baseline the dataset analysis started from. Utterances that
// contain slot vocabulary but no act keyword classify as Inform (the
// majority class in the dialog-act corpus); everything else is Null.
type KeywordClassifier struct {
	rules []keywordRule
}

// NewKeywordClassifier returns the baseline classifier with default rules.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{rules: defaultRules}
}

// Classify never fails; the error return satisfies the Classifier interface.
func (c *KeywordClassifier) Classify(_ context.Context, utterance string) (Intent, error) {
	text := normalize(utterance)
	if text == "" {
		return Null, nil
	}
	for _, rule := range c.rules {
		for _, kw := range rule.keywords {
			if containsWord(text, kw) {
				return rule.intent, nil
			}
		}
	}
	if looksInformative(text) {
		return Inform, nil
	}
	return Null, nil
}

// informMarkers are surface cues that an utterance states a preference.
var informMarkers = []string{
	"looking for", "i want", "i need", "id like", "i would like",
	"restaurant", "food", "priced", "cheap", "moderate", "expensive",
	"north", "south", "east", "west", "center", "centre", "any", "town",
}

func looksInformative(text string) bool {
	for _, marker := range informMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// normalize lower-cases and strips punctuation so keyword checks see
// plain word sequences.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		case r == '\'':
			// drop apostrophes so "don't" matches "dont"
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// containsWord reports whether phrase occurs in text on word boundaries.
func containsWord(text, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		leftOK := start == 0 || text[start-1] == ' '
		rightOK := end == len(text) || text[end] == ' '
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
	}
}
