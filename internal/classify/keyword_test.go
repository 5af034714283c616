package classify

import (
	"context"
	"testing"
)

func TestKeywordClassifierLabels(t *testing.T) {
	c := NewKeywordClassifier()
	ctx := context.Background()

	cases := []struct {
		utterance string
		want      Intent
	}{
		{"hello", Hello},
		{"hi there", Hello},
		{"goodbye", Bye},
		{"bye", Bye},
		{"thank you so much", ThankYou},
		{"I'm looking for a cheap restaurant in the west", Inform},
		{"world food please", Inform},
		{"no", Negate},
		{"nope, wrong", Negate},
		{"yes please", Affirm},
		{"okay", Ack},
		{"what about something else", ReqAlts},
		{"how about another one", ReqAlts},
		{"can I get the phone number", Request},
		{"what is the address", Request},
		{"could you repeat that", Repeat},
		{"start over", Restart},
		{"I don't want that one", Deny},
		{"", Null},
		{"qwerty zxcvb", Null},
	}

	for _, tc := range cases {
		got, err := c.Classify(ctx, tc.utterance)
		if err != nil {
			t.Fatalf("Classify(%q) error = %v", tc.utterance, err)
		}
		if got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.utterance, got, tc.want)
		}
	}
}

func TestKeywordClassifierAlwaysInVocabulary(t *testing.T) {
	c := NewKeywordClassifier()
	utterances := []string{
		"hmm", "the quick brown fox", "no no no", "yes", "phone",
		"expensive food in the centre", "!!!", "any",
	}
	for _, u := range utterances {
		got, err := c.Classify(context.Background(), u)
		if err != nil {
			t.Fatalf("Classify(%q) error = %v", u, err)
		}
		if !Valid(got) {
			t.Errorf("Classify(%q) = %q, not in vocabulary", u, got)
		}
	}
}

func TestContainsWordBoundaries(t *testing.T) {
	if containsWord("heading north", "no") {
		t.Error("'no' should not match inside 'north'")
	}
	if !containsWord("no thanks", "no") {
		t.Error("'no' should match as a standalone word")
	}
	if !containsWord("the phone number", "phone") {
		t.Error("'phone' should match mid-sentence")
	}
}
