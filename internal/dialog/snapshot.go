package dialog

import (
	"encoding/json"
	"fmt"

	"dinerd/internal/store"
)

// Snapshot captures everything a host needs to park a conversation
// between turns and rebuild the State later: the state tag, both
// preference maps, the last suggestion list and index, and the raw
// utterance GiveDetails re-derives the detail type from.
type Snapshot struct {
	SessionID       string             `json:"session_id"`
	State           string             `json:"state"`
	Preferences     map[string]string  `json:"preferences"`
	OldPreferences  map[string]string  `json:"old_preferences"`
	Suggestions     []store.Restaurant `json:"suggestions,omitempty"`
	SuggestionIndex int                `json:"suggestion_index"`
	PrevIndex       int                `json:"prev_suggestion_index"`
	LastUtterance   string             `json:"last_utterance,omitempty"`
}

// TakeSnapshot serializes the session and current state.
func TakeSnapshot(session *Session, st *State) ([]byte, error) {
	snap := Snapshot{
		SessionID:       session.ID,
		State:           st.Kind.String(),
		Preferences:     session.Prefs,
		OldPreferences:  session.OldPrefs,
		Suggestions:     st.Suggestions,
		SuggestionIndex: st.SuggestionIndex,
		PrevIndex:       st.PrevSuggestionIndex,
		LastUtterance:   st.LastUtterance,
	}
	return json.Marshal(snap)
}

// RestoreSnapshot rehydrates the session and rebuilds the State from a
// snapshot. The state comes back through the Kind factory; no dynamic
// symbol lookup is involved.
func RestoreSnapshot(raw []byte, session *Session) (*State, error) {
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("malformed snapshot: %w", err)
	}
	kind, err := KindFromName(snap.State)
	if err != nil {
		return nil, err
	}

	if snap.SessionID != "" {
		session.ID = snap.SessionID
	}
	session.Prefs = make(Preferences, len(snap.Preferences))
	for k, v := range snap.Preferences {
		session.Prefs[k] = v
	}
	session.OldPrefs = make(Preferences, len(snap.OldPreferences))
	for k, v := range snap.OldPreferences {
		session.OldPrefs[k] = v
	}

	st := NewState(kind)
	st.Suggestions = snap.Suggestions
	st.SuggestionIndex = snap.SuggestionIndex
	st.PrevSuggestionIndex = snap.PrevIndex
	st.LastUtterance = snap.LastUtterance
	return st, nil
}
