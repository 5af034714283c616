package dialog

import (
	"fmt"

	"dinerd/internal/store"
)

// Kind tags the dialog states. It replaces the historical habit of
// reconstructing state objects from type names: snapshots persist the
// tag and a factory rebuilds the state, no reflection involved.
type Kind int

const (
	// KindWelcome greets and waits for the first preference statement.
	KindWelcome Kind = iota
	// KindAskForInformation is a routing pseudo-state: it immediately
	// redirects to the first unfilled slot question without consuming a
	// user turn.
	KindAskForInformation
	// KindAskArea asks for the area slot.
	KindAskArea
	// KindAskPrice asks for the pricerange slot.
	KindAskPrice
	// KindAskType asks for the food slot.
	KindAskType
	// KindAskAdditional asks for a free-form additional requirement.
	KindAskAdditional
	// KindSuggestion looks up candidates and announces one.
	KindSuggestion
	// KindGiveDetails answers phone/address/postcode requests about the
	// current suggestion.
	KindGiveDetails
	// KindContradiction is a system-only informational state: it reports
	// a requirement contradiction and immediately returns to
	// KindAskAdditional.
	KindContradiction
	// KindGoodbye is terminal.
	KindGoodbye
)

var kindNames = map[Kind]string{
	KindWelcome:           "welcome",
	KindAskForInformation: "ask_for_information",
	KindAskArea:           "ask_area",
	KindAskPrice:          "ask_price",
	KindAskType:           "ask_type",
	KindAskAdditional:     "ask_additional",
	KindSuggestion:        "suggestion",
	KindGiveDetails:       "give_details",
	KindContradiction:     "contradiction",
	KindGoodbye:           "goodbye",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// KindFromName resolves a persisted tag back to its Kind.
func KindFromName(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindWelcome, fmt.Errorf("unknown state tag %q", name)
}

// State is the current dialog state plus its transient payload. States
// are value-like: every transition produces a fresh instance and the old
// one is discarded; the Session is the only long-lived mutable record.
type State struct {
	Kind Kind

	// Suggestion payload: the candidate list of the last lookup and the
	// index announced to the user. Indices are -1 when nothing has been
	// suggested.
	Suggestions         []store.Restaurant
	SuggestionIndex     int
	PrevSuggestionIndex int

	// LastUtterance is the raw request utterance GiveDetails re-derives
	// the detail type from.
	LastUtterance string
}

// NewState builds an empty state of the given kind.
func NewState(kind Kind) *State {
	return &State{
		Kind:                kind,
		SuggestionIndex:     -1,
		PrevSuggestionIndex: -1,
	}
}

// Terminal reports whether the conversation has ended.
func (s *State) Terminal() bool {
	return s.Kind == KindGoodbye
}

// Suggested returns the announced record, if any.
func (s *State) Suggested() (store.Restaurant, bool) {
	if s.SuggestionIndex < 0 || s.SuggestionIndex >= len(s.Suggestions) {
		return store.Restaurant{}, false
	}
	return s.Suggestions[s.SuggestionIndex], true
}
